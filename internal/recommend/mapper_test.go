package recommend

import (
	"reflect"
	"testing"
)

func TestMapStores(t *testing.T) {
	cat := newCatalog()
	tests := []struct {
		name string
		ids  []int64
		want []int64
	}{
		{"single owner", []int64{1}, []int64{101}},
		{"store order", []int64{3, 1}, []int64{101, 103}},
		{"unknown product", []int64{999}, nil},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapStores(cat.products, cat.stores, tt.ids)
			var ids []int64
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("MapStores(%v) = %v, want %v", tt.ids, ids, tt.want)
			}
		})
	}
}

func TestMapStores_OwnerWithSeveralStores(t *testing.T) {
	cat := newCatalog()
	cat.stores = append(cat.stores, store(108, 10, "Casa Roja Dos", "Laureles", "Medellin"))
	got := MapStores(cat.products, cat.stores, []int64{1})
	if len(got) != 2 || got[0].ID != 101 || got[1].ID != 108 {
		t.Errorf("expected both stores of owner 10, got %+v", got)
	}
}
