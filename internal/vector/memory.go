package vector

import (
	"context"
	"fmt"
	"sort"
)

// MemoryIndex is an in-memory vector index using brute-force cosine search.
// It is built per request from a freshly fitted matrix and discarded afterwards, so it is
// not safe for concurrent use and needs no locking.
type MemoryIndex struct {
	ids       []int64
	vectors   []SparseVector
	norms     []float64
	positions map[int64]int
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		ids:       make([]int64, 0),
		vectors:   make([]SparseVector, 0),
		norms:     make([]float64, 0),
		positions: make(map[int64]int),
	}
}

// NewMemoryIndexFromMatrix returns an index holding the rows of m keyed by ids.
func NewMemoryIndexFromMatrix(ids []int64, m *Matrix) (*MemoryIndex, error) {
	idx := NewMemoryIndex()
	if err := idx.Add(ids, m.Rows); err != nil {
		return nil, err
	}
	return idx, nil
}

// Add appends vectors with the given IDs. When an ID repeats, Position reports its first
// occurrence.
func (m *MemoryIndex) Add(ids []int64, vectors []SparseVector) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	for i, id := range ids {
		if _, ok := m.positions[id]; !ok {
			m.positions[id] = len(m.ids)
		}
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vectors[i])
		m.norms = append(m.norms, L2Norm(vectors[i]))
	}
	return nil
}

// Position returns the corpus position of id.
func (m *MemoryIndex) Position(id int64) (int, bool) {
	p, ok := m.positions[id]
	return p, ok
}

// Vector returns the vector stored at position.
func (m *MemoryIndex) Vector(position int) SparseVector {
	return m.vectors[position]
}

// Scores returns the cosine similarity of query against every vector, in corpus order.
func (m *MemoryIndex) Scores(ctx context.Context, query SparseVector) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := make([]Result, len(m.ids))
	if query.IsZero() {
		for i, id := range m.ids {
			results[i] = Result{ID: id, Position: i}
		}
		return results, nil
	}
	qNorm := L2Norm(query)
	for i, vec := range m.vectors {
		results[i] = Result{ID: m.ids[i], Position: i, Score: cosine(query, vec, qNorm, m.norms[i])}
	}
	return results, nil
}

// Search returns the top-k vectors by cosine similarity. Equal scores keep corpus order.
// k is clamped to the index size.
func (m *MemoryIndex) Search(ctx context.Context, query SparseVector, k int) ([]Result, error) {
	results, err := m.Scores(ctx, query)
	if err != nil {
		return nil, err
	}
	if k <= 0 || len(results) == 0 {
		return nil, nil
	}
	SortResults(results)
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	return len(m.ids)
}

// SortResults orders results by descending score; ties keep their current order.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
}
