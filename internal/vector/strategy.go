package vector

import (
	"context"
	"fmt"
	"sort"
)

// StrategyType names a ranking strategy.
type StrategyType string

const (
	// StrategyKNN scores pooled per-seed nearest neighbors by 1 - mean cosine distance.
	StrategyKNN StrategyType = "knn"
	// StrategyMean scores every entry by cosine similarity to the mean seed vector.
	StrategyMean StrategyType = "mean"
)

// Strategy ranks corpus entries against a set of seed positions. Results are ordered by
// descending score; ties keep corpus order. Seeds are not removed from the result.
type Strategy interface {
	Type() StrategyType
	Rank(ctx context.Context, index *MemoryIndex, seeds []int, neighbors int) ([]Result, error)
}

// NewStrategy returns the strategy of the given type. The empty string selects knn.
func NewStrategy(strategyType string) (Strategy, error) {
	switch StrategyType(strategyType) {
	case StrategyKNN, "":
		return KNNStrategy{}, nil
	case StrategyMean:
		return MeanStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s (supported: knn, mean)", strategyType)
	}
}

// MeanStrategy implements StrategyMean. It ranks the whole corpus.
type MeanStrategy struct{}

// Type returns StrategyMean.
func (MeanStrategy) Type() StrategyType { return StrategyMean }

// Rank averages the seed vectors and scores every corpus vector against the average.
func (MeanStrategy) Rank(ctx context.Context, index *MemoryIndex, seeds []int, _ int) ([]Result, error) {
	if len(seeds) == 0 {
		return nil, nil
	}
	vectors := make([]SparseVector, len(seeds))
	for i, p := range seeds {
		vectors[i] = index.Vector(p)
	}
	results, err := index.Scores(ctx, Mean(vectors))
	if err != nil {
		return nil, err
	}
	SortResults(results)
	return results, nil
}

// KNNStrategy implements StrategyKNN.
type KNNStrategy struct{}

// Type returns StrategyKNN.
func (KNNStrategy) Type() StrategyType { return StrategyKNN }

// Rank retrieves the neighbors nearest entries of each seed (clamped to the corpus size),
// pools them and scores each pooled entry as 1 - the mean cosine distance over the seed
// queries that returned it.
func (KNNStrategy) Rank(ctx context.Context, index *MemoryIndex, seeds []int, neighbors int) ([]Result, error) {
	if len(seeds) == 0 || neighbors <= 0 {
		return nil, nil
	}
	type pooled struct {
		id       int64
		distance float64
		hits     int
	}
	pool := make(map[int]*pooled)
	for _, p := range seeds {
		hits, err := index.Search(ctx, index.Vector(p), neighbors)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			e, ok := pool[h.Position]
			if !ok {
				e = &pooled{id: h.ID}
				pool[h.Position] = e
			}
			e.distance += 1 - h.Score
			e.hits++
		}
	}
	results := make([]Result, 0, len(pool))
	for pos, e := range pool {
		results = append(results, Result{ID: e.id, Position: pos, Score: 1 - e.distance/float64(e.hits)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Position < results[j].Position })
	SortResults(results)
	return results, nil
}
