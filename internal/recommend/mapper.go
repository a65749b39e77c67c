package recommend

import "github.com/hyperjump/osusume/internal/models"

// MapStores returns the stores whose owner also owns at least one of the given products,
// in store order. Product ids missing from products are ignored.
func MapStores(products []*models.Product, stores []*models.Store, productIDs []int64) []*models.Store {
	owners := ownersOf(products, productIDs)
	if len(owners) == 0 {
		return nil
	}
	var out []*models.Store
	for _, s := range stores {
		if owners[s.UserID] {
			out = append(out, s)
		}
	}
	return out
}

func ownersOf(products []*models.Product, productIDs []int64) map[int64]bool {
	wanted := idSet(productIDs)
	owners := make(map[int64]bool)
	for _, p := range products {
		if wanted[p.ID] {
			owners[p.UserID] = true
		}
	}
	return owners
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func storeIDs(stores []*models.Store) []int64 {
	ids := make([]int64, len(stores))
	for i, s := range stores {
		ids[i] = s.ID
	}
	return ids
}
