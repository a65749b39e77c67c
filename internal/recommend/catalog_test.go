package recommend

import (
	"context"

	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/vector"
)

// fakeCatalog is an in-memory Catalog for engine tests.
type fakeCatalog struct {
	products    []*models.Product
	stores      []*models.Store
	prefs       map[int64][]int64
	prefsErr    map[int64]error
	history     map[int64]*models.History
	productsErr error
	storesErr   error
	historyErr  error
}

func (f *fakeCatalog) ListProducts(ctx context.Context) ([]*models.Product, error) {
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return f.products, nil
}

func (f *fakeCatalog) ListStores(ctx context.Context) ([]*models.Store, error) {
	if f.storesErr != nil {
		return nil, f.storesErr
	}
	return f.stores, nil
}

func (f *fakeCatalog) GetUserPreferences(ctx context.Context, userID int64) ([]int64, error) {
	if err := f.prefsErr[userID]; err != nil {
		return nil, err
	}
	if p, ok := f.prefs[userID]; ok {
		return p, nil
	}
	return []int64{}, nil
}

func (f *fakeCatalog) GetUserHistory(ctx context.Context, userID int64) (*models.History, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if h, ok := f.history[userID]; ok {
		if h == nil {
			return nil, nil
		}
		// Copy so store derivation does not leak between calls.
		return &models.History{
			Products: append([]int64(nil), h.Products...),
			Stores:   append([]int64(nil), h.Stores...),
		}, nil
	}
	return &models.History{Products: []int64{}, Stores: []int64{}}, nil
}

func product(id, owner int64, name string) *models.Product {
	return &models.Product{ID: id, UserID: owner, Name: models.StringPtr(name)}
}

func store(id, owner int64, name, district, region string) *models.Store {
	return &models.Store{
		ID:       id,
		UserID:   owner,
		Name:     models.StringPtr(name),
		District: models.StringPtr(district),
		Region:   models.StringPtr(region),
	}
}

// newCatalog returns a small craft catalog. Product n is sold by owner n*10 and store
// 100+n belongs to the same owner.
func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: []*models.Product{
			product(1, 10, "red wood chair"),
			product(2, 20, "blue wood chair"),
			product(3, 30, "red metal lamp"),
			product(4, 40, "green wool blanket"),
		},
		stores: []*models.Store{
			store(101, 10, "Casa Roja", "Centro", "Medellin"),
			store(102, 20, "Casa Azul", "Centro", "Medellin"),
			store(103, 30, "Taller", "Norte", "Bogota"),
			store(104, 40, "Telares", "Sur", "Cali"),
			store(105, 50, "Ceramica", "Este", "Pasto"),
			store(106, 60, "Joyeria", "Oeste", "Cartagena"),
			store(107, 70, "Cesteria", "Alta", "Pereira"),
		},
		prefs:    map[int64][]int64{},
		prefsErr: map[int64]error{},
		history:  map[int64]*models.History{},
	}
}

func testOptions() Options {
	return Options{
		Strategy:            vector.KNNStrategy{},
		StoreMapping:        config.MappingNarrow,
		BroadTopN:           50,
		Backfill:            true,
		BackfillSeed:        42,
		DefaultProductLimit: 30,
		DefaultStoreLimit:   15,
		MaxLimit:            100,
	}
}
