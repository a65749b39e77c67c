// Package vector provides TF-IDF vectorization, an in-memory cosine index and the
// ranking strategies built on top of it.
package vector

// SparseVector is a vector stored as ascending term indices and their weights.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// IsZero reports whether v has no non-zero entries.
func (v SparseVector) IsZero() bool {
	return len(v.Indices) == 0
}

// Result is a single scored corpus entry. Position is the entry's index in the corpus.
type Result struct {
	ID       int64
	Position int
	Score    float64
}
