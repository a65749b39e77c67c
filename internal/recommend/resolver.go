package recommend

import (
	"context"
	"errors"

	"github.com/hyperjump/osusume/internal/metrics"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
	"go.uber.org/zap"
)

// SeedSource tells which user signal produced a seed set.
type SeedSource string

const (
	SeedPreferences SeedSource = "preferences"
	SeedHistory     SeedSource = "history"
	SeedNone        SeedSource = "none"
)

// Seeds are the reference products that drive ranking. Products may reference ids that
// are no longer in the catalog; callers filter them.
type Seeds struct {
	Products []int64
	Source   SeedSource
}

// IsEmpty reports whether there is nothing to seed from.
func (s *Seeds) IsEmpty() bool {
	return len(s.Products) == 0
}

// Resolver picks the seed set for a user: explicit preferences, else purchase history.
type Resolver struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewResolver returns a resolver reading from catalog.
func NewResolver(catalog Catalog, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{catalog: catalog, logger: logger}
}

// Resolve returns the user's seed products. A user without preferences or history gets
// empty seeds and no error.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (*Seeds, error) {
	prefs, err := r.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(prefs) > 0 {
		return r.seeds(userID, prefs, SeedPreferences), nil
	}

	history, err := r.catalog.GetUserHistory(ctx, userID)
	if err != nil {
		return nil, dataSourceError("get_user_history", err)
	}
	if history != nil && len(history.Products) > 0 {
		return r.seeds(userID, history.Products, SeedHistory), nil
	}
	return r.seeds(userID, nil, SeedNone), nil
}

// Preferences returns the user's preferred products. A malformed stored record is logged
// and treated as no preferences.
func (r *Resolver) Preferences(ctx context.Context, userID int64) ([]int64, error) {
	prefs, err := r.catalog.GetUserPreferences(ctx, userID)
	if errors.Is(err, storage.ErrMalformedPreferences) {
		r.logger.Warn("ignoring malformed preferences", zap.Int64("user_id", userID), zap.Error(err))
		return nil, nil
	}
	if err != nil {
		return nil, dataSourceError("get_user_preferences", err)
	}
	return prefs, nil
}

// History returns the user's purchase history. When the history lists no stores, they are
// derived from the owners of the purchased products.
func (r *Resolver) History(ctx context.Context, userID int64, products []*models.Product, stores []*models.Store) (*models.History, error) {
	history, err := r.catalog.GetUserHistory(ctx, userID)
	if err != nil {
		return nil, dataSourceError("get_user_history", err)
	}
	if history.IsEmpty() {
		return &models.History{Products: []int64{}, Stores: []int64{}}, nil
	}
	if len(history.Stores) == 0 && len(history.Products) > 0 {
		for _, s := range MapStores(products, stores, history.Products) {
			history.Stores = append(history.Stores, s.ID)
		}
	}
	return history, nil
}

func (r *Resolver) seeds(userID int64, products []int64, source SeedSource) *Seeds {
	metrics.SeedSource.WithLabelValues(string(source)).Inc()
	r.logger.Debug("resolved seeds",
		zap.Int64("user_id", userID),
		zap.String("source", string(source)),
		zap.Int("seeds", len(products)),
	)
	return &Seeds{Products: products, Source: source}
}
