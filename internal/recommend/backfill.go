package recommend

import (
	"math/rand/v2"

	"github.com/hyperjump/osusume/internal/models"
)

// Backfill picks up to n stores not in exclude, sampled with a generator seeded by seed.
// The same inputs always give the same picks. Fewer than n are returned when not enough
// stores remain.
func Backfill(stores []*models.Store, exclude map[int64]bool, n int, seed uint64) []*models.Store {
	if n <= 0 {
		return nil
	}
	remaining := make([]*models.Store, 0, len(stores))
	seen := make(map[int64]bool, len(stores))
	for _, s := range stores {
		if exclude[s.ID] || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		remaining = append(remaining, s)
	}
	if n >= len(remaining) {
		n = len(remaining)
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(len(remaining))
	out := make([]*models.Store, n)
	for i := 0; i < n; i++ {
		out[i] = remaining[perm[i]]
	}
	return out
}
