package vector

import (
	"context"
	"testing"
)

func chairCorpus(t *testing.T) *MemoryIndex {
	t.Helper()
	m := NewVectorizer().FitTransform([]string{"red wood chair", "blue wood chair", "red metal lamp"})
	idx, err := NewMemoryIndexFromMatrix([]int64{1, 2, 3}, m)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestNewStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    StrategyType
		wantErr bool
	}{
		{"", StrategyKNN, false},
		{"knn", StrategyKNN, false},
		{"mean", StrategyMean, false},
		{"svd", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := NewStrategy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && s.Type() != tt.want {
				t.Errorf("type = %s, want %s", s.Type(), tt.want)
			}
		})
	}
}

func TestStrategies_SharedTokensRankHigher(t *testing.T) {
	for _, s := range []Strategy{KNNStrategy{}, MeanStrategy{}} {
		t.Run(string(s.Type()), func(t *testing.T) {
			idx := chairCorpus(t)
			results, err := s.Rank(context.Background(), idx, []int{0}, 3)
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != 3 {
				t.Fatalf("expected 3 results, got %d", len(results))
			}
			if results[0].ID != 1 || results[1].ID != 2 || results[2].ID != 3 {
				t.Errorf("unexpected order: %+v", results)
			}
		})
	}
}

func TestKNNStrategy_NeighborsClampAndPool(t *testing.T) {
	idx := chairCorpus(t)
	results, err := KNNStrategy{}.Rank(context.Background(), idx, []int{0, 2}, 2)
	if err != nil {
		t.Fatal(err)
	}
	// Seed 0 returns {1,2}; seed 2 returns {3,1}: pooled ids are 1, 2, 3.
	if len(results) != 3 {
		t.Fatalf("expected 3 pooled results, got %+v", results)
	}
	results, err = KNNStrategy{}.Rank(context.Background(), idx, []int{0}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("neighbors should clamp to corpus size, got %d", len(results))
	}
}

func TestKNNStrategy_MeanDistanceOverHits(t *testing.T) {
	idx := NewMemoryIndex()
	_ = idx.Add([]int64{1, 2, 3}, []SparseVector{vec(0, 1), vec(0, 1, 1, 1), vec(1, 1)})
	results, err := KNNStrategy{}.Rank(context.Background(), idx, []int{0, 2}, 3)
	if err != nil {
		t.Fatal(err)
	}
	scores := make(map[int64]float64)
	for _, r := range results {
		scores[r.ID] = r.Score
	}
	// id 1: distances 0 (seed 0) and 1 (seed 2) -> 1 - 0.5.
	if got := scores[1]; got < 0.4999 || got > 0.5001 {
		t.Errorf("score of 1 = %f, want 0.5", got)
	}
	// id 2 sits between both seeds and wins.
	if results[0].ID != 2 {
		t.Errorf("expected 2 first, got %+v", results)
	}
}

func TestStrategies_AllZeroVectorsDeterministic(t *testing.T) {
	m := NewVectorizer().FitTransform([]string{"", "", ""})
	idx, _ := NewMemoryIndexFromMatrix([]int64{4, 5, 6}, m)
	for _, s := range []Strategy{KNNStrategy{}, MeanStrategy{}} {
		first, err := s.Rank(context.Background(), idx, []int{1}, 3)
		if err != nil {
			t.Fatal(err)
		}
		second, _ := s.Rank(context.Background(), idx, []int{1}, 3)
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("%s: ranking not deterministic: %+v vs %+v", s.Type(), first, second)
			}
		}
		if len(first) != 3 || first[0].ID != 4 || first[2].ID != 6 {
			t.Errorf("%s: zero scores should keep corpus order, got %+v", s.Type(), first)
		}
	}
}

func TestStrategies_NoSeeds(t *testing.T) {
	idx := chairCorpus(t)
	for _, s := range []Strategy{KNNStrategy{}, MeanStrategy{}} {
		results, err := s.Rank(context.Background(), idx, nil, 3)
		if err != nil || len(results) != 0 {
			t.Errorf("%s: expected no results, got %v, %v", s.Type(), results, err)
		}
	}
}
