// Package storage defines the persistence interface for the catalog and user signals.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/osusume/internal/models"
)

// ErrMalformedPreferences is returned when a stored preference payload cannot be parsed.
var ErrMalformedPreferences = errors.New("malformed preference record")

// Storage defines catalog, preference and transaction persistence operations.
type Storage interface {
	// Catalog reads
	ListProducts(ctx context.Context) ([]*models.Product, error)
	ListStores(ctx context.Context) ([]*models.Store, error)

	// User signals. GetUserPreferences returns an empty slice when the user has none.
	GetUserPreferences(ctx context.Context, userID int64) ([]int64, error)
	GetUserHistory(ctx context.Context, userID int64) (*models.History, error)

	// Writes, used by the importer
	UpsertProducts(ctx context.Context, products []*models.Product) error
	UpsertStores(ctx context.Context, stores []*models.Store) error
	SetUserPreferences(ctx context.Context, userID int64, productIDs []int64) error
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	RecordImport(ctx context.Context, batch *models.ImportBatch) error
	LastImportChecksum(ctx context.Context, path string) (string, error)

	// Stats
	CountProducts(ctx context.Context) (int64, error)
	CountStores(ctx context.Context) (int64, error)
	CountUsersWithPreferences(ctx context.Context) (int64, error)

	Close() error
}
