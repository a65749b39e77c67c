// Package recommend ranks products and stores for a user by content similarity to the
// products the user prefers or has bought.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/features"
	"github.com/hyperjump/osusume/internal/metrics"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/vector"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Catalog is the read side of the data store the engine depends on.
type Catalog interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	ListStores(ctx context.Context) ([]*models.Store, error)
	GetUserPreferences(ctx context.Context, userID int64) ([]int64, error)
	GetUserHistory(ctx context.Context, userID int64) (*models.History, error)
}

// Options configures an Engine.
type Options struct {
	Strategy            vector.Strategy
	Neighbors           int
	StoreMapping        string
	BroadTopN           int
	Backfill            bool
	BackfillSeed        uint64
	IncludeDetails      bool
	ProductFields       []string
	StoreFields         []string
	DefaultProductLimit int
	DefaultStoreLimit   int
	MaxLimit            int
}

// OptionsFromConfig builds Options from recommend settings. Defaults must already be applied.
func OptionsFromConfig(cfg *config.RecommendConfig) (Options, error) {
	strategy, err := vector.NewStrategy(cfg.Strategy)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Strategy:            strategy,
		Neighbors:           cfg.Neighbors,
		StoreMapping:        cfg.StoreMapping,
		BroadTopN:           cfg.BroadTopN,
		Backfill:            cfg.BackfillOrDefault(),
		BackfillSeed:        cfg.BackfillSeed,
		IncludeDetails:      cfg.IncludeDetails,
		ProductFields:       cfg.ProductFields,
		StoreFields:         cfg.StoreFields,
		DefaultProductLimit: cfg.DefaultProductLimit,
		DefaultStoreLimit:   cfg.DefaultStoreLimit,
		MaxLimit:            cfg.MaxLimit,
	}, nil
}

// Engine computes recommendations. It keeps no state between calls: every call reads the
// catalog and fits a fresh vector space, so it is safe for concurrent use.
type Engine struct {
	catalog    Catalog
	resolver   *Resolver
	vectorizer *vector.Vectorizer
	opts       Options
	logger     *zap.Logger
}

// NewEngine creates an engine reading from catalog.
func NewEngine(catalog Catalog, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Strategy == nil {
		opts.Strategy = vector.KNNStrategy{}
	}
	if opts.ProductFields == nil {
		opts.ProductFields = features.DefaultProductFields
	}
	if opts.StoreFields == nil {
		opts.StoreFields = features.DefaultStoreFields
	}
	return &Engine{
		catalog:    catalog,
		resolver:   NewResolver(catalog, logger),
		vectorizer: vector.NewVectorizer(),
		opts:       opts,
		logger:     logger,
	}
}

// StrategyType returns the configured ranking strategy.
func (e *Engine) StrategyType() vector.StrategyType {
	return e.opts.Strategy.Type()
}

// DefaultProductLimit returns the product limit callers use when a request names none.
func (e *Engine) DefaultProductLimit() int {
	return e.opts.DefaultProductLimit
}

// DefaultStoreLimit returns the store limit callers use when a request names none.
func (e *Engine) DefaultStoreLimit() int {
	return e.opts.DefaultStoreLimit
}

// StoreMapping returns the configured store mapping policy.
func (e *Engine) StoreMapping() string {
	if e.opts.StoreMapping == "" {
		return config.MappingNarrow
	}
	return e.opts.StoreMapping
}

// RecommendProducts returns up to limit products ranked by similarity to the user's seed
// products. Seed products are never returned. A user with nothing to seed from, or a limit
// of zero or less, gets an empty list.
func (e *Engine) RecommendProducts(ctx context.Context, userID int64, limit int) ([]*models.ProductRecommendation, error) {
	start := time.Now()
	limit = e.capLimit(limit)
	out := make([]*models.ProductRecommendation, 0)
	if limit <= 0 {
		return out, nil
	}

	seeds, err := e.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if seeds.IsEmpty() {
		return out, nil
	}
	products, err := e.catalog.ListProducts(ctx)
	if err != nil {
		return nil, dataSourceError("list_products", err)
	}

	ranked, err := e.rankProducts(ctx, products, seeds.Products, limit)
	if err != nil {
		return nil, err
	}
	for _, r := range ranked {
		rec := &models.ProductRecommendation{ID: r.ID, Score: r.Score}
		if e.opts.IncludeDetails {
			rec.Product = products[r.Position]
		}
		out = append(out, rec)
	}
	metrics.ObserveRecommendation(metrics.KindProducts, start, len(out))
	e.logger.Debug("recommended products",
		zap.Int64("user_id", userID),
		zap.String("seed_source", string(seeds.Source)),
		zap.Int("results", len(out)),
		zap.Duration("took", time.Since(start)),
	)
	return out, nil
}

// RecommendStores returns up to limit stores. Stores owned by the sellers of the seed
// products form the base set; other stores are ranked by similarity to it (or, with broad
// mapping, to the stores behind the seed and top recommended products). Under-full results
// are padded by Backfill when enabled. A limit of zero or less gives an empty list.
func (e *Engine) RecommendStores(ctx context.Context, userID int64, limit int) ([]*models.StoreRecommendation, error) {
	start := time.Now()
	limit = e.capLimit(limit)
	out := make([]*models.StoreRecommendation, 0)
	if limit <= 0 {
		return out, nil
	}

	seeds, err := e.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if seeds.IsEmpty() {
		return out, nil
	}
	products, stores, err := e.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	base := MapStores(products, stores, seeds.Products)
	relevant := seeds.Products
	if e.StoreMapping() == config.MappingBroad {
		top, err := e.rankProducts(ctx, products, seeds.Products, e.broadTopN(limit))
		if err != nil {
			return nil, err
		}
		relevant = append(append([]int64(nil), seeds.Products...), resultIDs(top)...)
	}
	linked := MapStores(products, stores, relevant)
	if len(linked) == 0 {
		e.logger.Debug("no stores linked to seed products", zap.Int64("user_id", userID))
		return out, nil
	}

	index, err := e.buildStoreIndex(stores)
	if err != nil {
		return nil, err
	}
	exclude := idSet(storeIDs(base))
	ranked, err := e.rank(ctx, index, storeIDs(linked), exclude, limit)
	if err != nil {
		return nil, err
	}
	linkedIDs := idSet(storeIDs(linked))
	for _, r := range ranked {
		rec := &models.StoreRecommendation{
			ID:     r.ID,
			Score:  r.Score,
			Source: models.SourceRanked,
			Linked: linkedIDs[r.ID],
		}
		if e.opts.IncludeDetails {
			rec.Store = stores[r.Position]
		}
		out = append(out, rec)
		exclude[r.ID] = true
	}

	if e.opts.Backfill && len(out) < limit {
		extra := Backfill(stores, exclude, limit-len(out), e.opts.BackfillSeed)
		for _, s := range extra {
			rec := &models.StoreRecommendation{ID: s.ID, Source: models.SourceBackfill}
			if e.opts.IncludeDetails {
				rec.Store = s
			}
			out = append(out, rec)
		}
		metrics.BackfillAdded.Add(float64(len(extra)))
	}
	metrics.ObserveRecommendation(metrics.KindStores, start, len(out))
	e.logger.Debug("recommended stores",
		zap.Int64("user_id", userID),
		zap.String("seed_source", string(seeds.Source)),
		zap.String("mapping", e.StoreMapping()),
		zap.Int("base_stores", len(base)),
		zap.Int("ranked", len(ranked)),
		zap.Int("results", len(out)),
		zap.Duration("took", time.Since(start)),
	)
	return out, nil
}

// UserProfile gathers the products and stores behind a user's preferences and history.
// It does no ranking.
func (e *Engine) UserProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	start := time.Now()
	products, stores, err := e.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	prefs, err := e.resolver.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := e.resolver.History(ctx, userID, products, stores)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		UserID: userID,
		Preferences: models.EntitySet{
			Products: filterProducts(products, prefs),
			Stores:   nonNil(MapStores(products, stores, prefs)),
		},
		History: models.EntitySet{
			Products: filterProducts(products, history.Products),
			Stores:   filterStores(stores, history.Stores),
		},
	}
	metrics.ObserveRecommendation(metrics.KindProfile, start,
		len(profile.Preferences.Products)+len(profile.History.Products))
	return profile, nil
}

// rankProducts ranks the product corpus against the seed ids that exist in it and drops
// the seeds. It returns nothing when no seed exists in the corpus.
func (e *Engine) rankProducts(ctx context.Context, products []*models.Product, seedIDs []int64, limit int) ([]vector.Result, error) {
	docs := features.Build(products, e.opts.ProductFields)
	index, err := vector.NewMemoryIndexFromMatrix(features.IDs(docs), e.vectorizer.FitTransform(features.Texts(docs)))
	if err != nil {
		return nil, fmt.Errorf("build product index: %w", err)
	}
	return e.rank(ctx, index, seedIDs, idSet(seedIDs), limit)
}

func (e *Engine) buildStoreIndex(stores []*models.Store) (*vector.MemoryIndex, error) {
	docs := features.Build(stores, e.opts.StoreFields)
	index, err := vector.NewMemoryIndexFromMatrix(features.IDs(docs), e.vectorizer.FitTransform(features.Texts(docs)))
	if err != nil {
		return nil, fmt.Errorf("build store index: %w", err)
	}
	return index, nil
}

// rank runs the strategy seeded by the ids present in index and returns up to limit
// results not in exclude.
func (e *Engine) rank(ctx context.Context, index *vector.MemoryIndex, seedIDs []int64, exclude map[int64]bool, limit int) ([]vector.Result, error) {
	positions := make([]int, 0, len(seedIDs))
	seen := make(map[int64]bool, len(seedIDs))
	for _, id := range seedIDs {
		if seen[id] {
			continue
		}
		if p, ok := index.Position(id); ok {
			seen[id] = true
			positions = append(positions, p)
		}
	}
	if len(positions) == 0 || limit <= 0 {
		return nil, nil
	}

	neighbors := e.opts.Neighbors
	if neighbors <= 0 {
		neighbors = limit + len(exclude)
	}
	results, err := e.opts.Strategy.Rank(ctx, index, positions, neighbors)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	out := make([]vector.Result, 0, limit)
	for _, r := range results {
		if exclude[r.ID] {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// loadCatalog reads products and stores concurrently.
func (e *Engine) loadCatalog(ctx context.Context) ([]*models.Product, []*models.Store, error) {
	var (
		products []*models.Product
		stores   []*models.Store
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = e.catalog.ListProducts(gCtx)
		if err != nil {
			return dataSourceError("list_products", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stores, err = e.catalog.ListStores(gCtx)
		if err != nil {
			return dataSourceError("list_stores", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return products, stores, nil
}

func (e *Engine) capLimit(limit int) int {
	if e.opts.MaxLimit > 0 && limit > e.opts.MaxLimit {
		return e.opts.MaxLimit
	}
	return limit
}

// broadTopN is the number of recommended products added to the seeds under broad mapping.
// It always exceeds limit.
func (e *Engine) broadTopN(limit int) int {
	return max(e.opts.BroadTopN, limit+1)
}

func resultIDs(results []vector.Result) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func filterProducts(products []*models.Product, ids []int64) []*models.Product {
	wanted := idSet(ids)
	out := make([]*models.Product, 0)
	for _, p := range products {
		if wanted[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func filterStores(stores []*models.Store, ids []int64) []*models.Store {
	wanted := idSet(ids)
	out := make([]*models.Store, 0)
	for _, s := range stores {
		if wanted[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(stores []*models.Store) []*models.Store {
	if stores == nil {
		return []*models.Store{}
	}
	return stores
}
