package recommend

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
)

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*fakeCatalog)
		wantSource SeedSource
		want       []int64
	}{
		{
			name:       "preferences win",
			setup:      func(c *fakeCatalog) { c.prefs[7] = []int64{2}; c.history[7] = &models.History{Products: []int64{3}} },
			wantSource: SeedPreferences,
			want:       []int64{2},
		},
		{
			name:       "history fallback",
			setup:      func(c *fakeCatalog) { c.history[7] = &models.History{Products: []int64{3}} },
			wantSource: SeedHistory,
			want:       []int64{3},
		},
		{
			name: "malformed preferences",
			setup: func(c *fakeCatalog) {
				c.prefsErr[7] = fmt.Errorf("%w: user 7", storage.ErrMalformedPreferences)
				c.history[7] = &models.History{Products: []int64{4}}
			},
			wantSource: SeedHistory,
			want:       []int64{4},
		},
		{
			name:       "nothing",
			setup:      func(c *fakeCatalog) {},
			wantSource: SeedNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := newCatalog()
			tt.setup(cat)
			seeds, err := NewResolver(cat, nil).Resolve(context.Background(), 7)
			if err != nil {
				t.Fatal(err)
			}
			if seeds.Source != tt.wantSource {
				t.Errorf("source = %s, want %s", seeds.Source, tt.wantSource)
			}
			if len(tt.want) == 0 {
				if !seeds.IsEmpty() {
					t.Errorf("expected empty seeds, got %v", seeds.Products)
				}
				return
			}
			if !reflect.DeepEqual(seeds.Products, tt.want) {
				t.Errorf("products = %v, want %v", seeds.Products, tt.want)
			}
		})
	}
}

func TestResolver_HistoryKeepsRecordedStores(t *testing.T) {
	cat := newCatalog()
	cat.history[7] = &models.History{Products: []int64{1}, Stores: []int64{105}}
	h, err := NewResolver(cat, nil).History(context.Background(), 7, cat.products, cat.stores)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(h.Stores, []int64{105}) {
		t.Errorf("stores = %v, want [105]", h.Stores)
	}
}

func TestResolver_HistoryNilIsEmpty(t *testing.T) {
	cat := newCatalog()
	cat.history[7] = nil
	h, err := NewResolver(cat, nil).History(context.Background(), 7, cat.products, cat.stores)
	if err != nil {
		t.Fatal(err)
	}
	if h == nil || h.Products == nil || h.Stores == nil || len(h.Products)+len(h.Stores) != 0 {
		t.Errorf("expected empty non-nil history, got %+v", h)
	}
}
