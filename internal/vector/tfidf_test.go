package vector

import (
	"math"
	"testing"
)

func TestVectorizer_Tokenize(t *testing.T) {
	v := NewVectorizer()
	got := v.Tokenize("Silla de MADERA, roble y pino!")
	want := []string{"silla", "de", "madera", "roble", "pino"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
	if len(v.Tokenize("")) != 0 {
		t.Error("empty text should have no tokens")
	}
}

func TestVectorizer_FitTransform(t *testing.T) {
	v := NewVectorizer()
	m := v.FitTransform([]string{"red wood chair", "blue wood chair", "red metal lamp"})
	if len(m.Vocabulary) != 6 {
		t.Fatalf("vocabulary: got %v", m.Vocabulary)
	}
	if m.Vocabulary[0] != "blue" || m.Vocabulary[5] != "wood" {
		t.Errorf("vocabulary should be sorted: %v", m.Vocabulary)
	}
	for i, row := range m.Rows {
		if math.Abs(L2Norm(row)-1) > 1e-9 {
			t.Errorf("row %d not normalized: %f", i, L2Norm(row))
		}
	}
	ab := CosineSimilarity(m.Rows[0], m.Rows[1])
	ac := CosineSimilarity(m.Rows[0], m.Rows[2])
	if ab <= ac {
		t.Errorf("shared wood+chair should beat shared red: ab=%f ac=%f", ab, ac)
	}
}

func TestVectorizer_RareTermsWeighMore(t *testing.T) {
	m := NewVectorizer().FitTransform([]string{"chair rare", "chair", "chair"})
	row := m.Rows[0]
	var chairW, rareW float64
	for i, idx := range row.Indices {
		switch m.Vocabulary[idx] {
		case "chair":
			chairW = row.Values[i]
		case "rare":
			rareW = row.Values[i]
		}
	}
	if rareW <= chairW {
		t.Errorf("rare term weight %f should exceed common term weight %f", rareW, chairW)
	}
}

func TestVectorizer_EmptyCorpus(t *testing.T) {
	m := NewVectorizer().FitTransform([]string{"", "  ", "a"})
	if len(m.Vocabulary) != 0 {
		t.Errorf("expected empty vocabulary, got %v", m.Vocabulary)
	}
	if len(m.Rows) != 3 {
		t.Fatalf("expected one row per text, got %d", len(m.Rows))
	}
	for _, r := range m.Rows {
		if !r.IsZero() {
			t.Errorf("expected zero row, got %+v", r)
		}
	}
	if got := NewVectorizer().FitTransform(nil); len(got.Rows) != 0 {
		t.Errorf("nil corpus: got %d rows", len(got.Rows))
	}
}
