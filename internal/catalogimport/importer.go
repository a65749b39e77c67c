// Package catalogimport loads products, stores, preferences and transactions from Excel
// workbooks into storage.
package catalogimport

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet names recognised in a workbook. Matching ignores case.
const (
	SheetProducts     = "products"
	SheetStores       = "stores"
	SheetPreferences  = "preferences"
	SheetTransactions = "transactions"
)

var (
	// ErrUnchanged is returned when the file matches the last import of the same path.
	ErrUnchanged = errors.New("file unchanged since last import")
	// ErrInvalidRow is wrapped by errors for rows with missing or unparsable required cells.
	ErrInvalidRow = errors.New("invalid row")
)

// Importer reads catalog workbooks and writes their rows to storage.
type Importer struct {
	storage storage.Storage
	logger  *zap.Logger
	force   bool
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) { im.logger = l }
}

// WithForce re-imports files even when their checksum matches the last import.
func WithForce(force bool) Option {
	return func(im *Importer) { im.force = force }
}

// NewImporter returns an importer writing to store.
func NewImporter(store storage.Storage, opts ...Option) *Importer {
	im := &Importer{storage: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(im)
	}
	if im.logger == nil {
		im.logger = zap.NewNop()
	}
	return im
}

// ImportFile imports the workbook at path. Sheets that are absent are skipped. Products and
// stores are upserted by id; a user's preference list is replaced; transactions are
// grouped by their id column. The recorded batch is returned.
func (im *Importer) ImportFile(ctx context.Context, path string) (*models.ImportBatch, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	if !im.force {
		last, err := im.storage.LastImportChecksum(ctx, abs)
		if err != nil {
			return nil, fmt.Errorf("last import checksum: %w", err)
		}
		if last == checksum {
			return nil, ErrUnchanged
		}
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	wb, err := readWorkbook(f)
	if err != nil {
		return nil, err
	}
	batch := &models.ImportBatch{
		ID:         uuid.New().String(),
		Path:       abs,
		Checksum:   checksum,
		ImportedAt: time.Now(),
	}
	if err := im.write(ctx, wb, batch); err != nil {
		return nil, err
	}
	if err := im.storage.RecordImport(ctx, batch); err != nil {
		return nil, fmt.Errorf("record import: %w", err)
	}
	im.logger.Info("catalog imported",
		zap.String("path", abs),
		zap.String("batch_id", batch.ID),
		zap.Int("products", batch.Products),
		zap.Int("stores", batch.Stores),
		zap.Int("preferences", batch.Preferences),
		zap.Int("transactions", batch.Transactions),
	)
	return batch, nil
}

func (im *Importer) write(ctx context.Context, wb *workbook, batch *models.ImportBatch) error {
	if len(wb.products) > 0 {
		if err := im.storage.UpsertProducts(ctx, wb.products); err != nil {
			return fmt.Errorf("upsert products: %w", err)
		}
	}
	if len(wb.stores) > 0 {
		if err := im.storage.UpsertStores(ctx, wb.stores); err != nil {
			return fmt.Errorf("upsert stores: %w", err)
		}
	}
	for _, p := range wb.preferences {
		if err := im.storage.SetUserPreferences(ctx, p.userID, p.productIDs); err != nil {
			return fmt.Errorf("set preferences for user %d: %w", p.userID, err)
		}
	}
	for _, t := range wb.transactions {
		if err := im.storage.CreateTransaction(ctx, t); err != nil {
			return fmt.Errorf("create transaction %d: %w", t.ID, err)
		}
	}
	batch.Products = len(wb.products)
	batch.Stores = len(wb.stores)
	batch.Preferences = len(wb.preferences)
	batch.Transactions = len(wb.transactions)
	return nil
}
