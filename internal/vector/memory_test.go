package vector

import (
	"context"
	"testing"
)

func vec(pairs ...float64) SparseVector {
	v := SparseVector{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Indices = append(v.Indices, int(pairs[i]))
		v.Values = append(v.Values, pairs[i+1])
	}
	return v
}

func TestMemoryIndex_AddSearch(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	vecs := []SparseVector{
		vec(0, 1),
		vec(0, 0.9, 1, 0.1),
		vec(1, 1),
	}
	ids := []int64{10, 20, 30}
	if err := idx.Add(ids, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, vec(0, 1), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != 10 || results[1].ID != 20 {
		t.Errorf("unexpected order: %+v", results)
	}
	if results[0].Score != 1 {
		t.Errorf("self similarity should be 1, got %f", results[0].Score)
	}
}

func TestMemoryIndex_SearchClampsK(t *testing.T) {
	idx := NewMemoryIndex()
	_ = idx.Add([]int64{1, 2}, []SparseVector{vec(0, 1), vec(1, 1)})
	results, err := idx.Search(context.Background(), vec(0, 1), 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected k clamped to 2, got %d", len(results))
	}
}

func TestMemoryIndex_TiesKeepCorpusOrder(t *testing.T) {
	idx := NewMemoryIndex()
	_ = idx.Add([]int64{5, 3, 9}, []SparseVector{{}, {}, {}})
	results, err := idx.Search(context.Background(), vec(0, 1), 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int64{5, 3, 9} {
		if results[i].ID != want || results[i].Score != 0 {
			t.Errorf("result %d: got %+v, want id %d score 0", i, results[i], want)
		}
	}
}

func TestMemoryIndex_LengthMismatch(t *testing.T) {
	idx := NewMemoryIndex()
	if err := idx.Add([]int64{1}, nil); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestMemoryIndex_Position(t *testing.T) {
	idx := NewMemoryIndex()
	_ = idx.Add([]int64{7, 8, 7}, []SparseVector{{}, {}, {}})
	if p, ok := idx.Position(7); !ok || p != 0 {
		t.Errorf("Position(7) = %d, %v; want first occurrence 0", p, ok)
	}
	if _, ok := idx.Position(99); ok {
		t.Error("Position(99) should be absent")
	}
}

func TestMemoryIndex_CancelledContext(t *testing.T) {
	idx := NewMemoryIndex()
	_ = idx.Add([]int64{1}, []SparseVector{vec(0, 1)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := idx.Search(ctx, vec(0, 1), 1); err == nil {
		t.Error("expected context error")
	}
}

func TestMemoryIndex_ZeroQueryScoresZero(t *testing.T) {
	idx := NewMemoryIndex()
	if err := idx.Add([]int64{1, 2}, []SparseVector{vec(0, 1), vec(1, 1)}); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Scores(context.Background(), SparseVector{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].ID != 1 || results[1].ID != 2 {
		t.Fatalf("expected every entry in corpus order, got %+v", results)
	}
	for _, r := range results {
		if r.Score != 0 {
			t.Errorf("zero query should score 0, got %+v", r)
		}
	}
}
