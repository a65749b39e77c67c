package vector

import (
	"math"
	"sort"
)

// Dot returns the inner product of two sparse vectors.
func Dot(a, b SparseVector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x SparseVector) float64 {
	var sum float64
	for _, v := range x.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// NormalizeL2 scales x in place to unit L2 norm. Zero vectors are left unchanged.
func NormalizeL2(x SparseVector) {
	norm := L2Norm(x)
	if norm == 0 {
		return
	}
	for i := range x.Values {
		x.Values[i] /= norm
	}
}

// CosineSimilarity returns the cosine of the angle between a and b, clamped to [0,1].
// Zero vectors have similarity 0 with everything.
func CosineSimilarity(a, b SparseVector) float64 {
	return cosine(a, b, L2Norm(a), L2Norm(b))
}

func cosine(a, b SparseVector, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	return math.Max(0, math.Min(1, Dot(a, b)/(normA*normB)))
}

// Mean returns the elementwise average of vectors. It returns a zero vector for no input.
func Mean(vectors []SparseVector) SparseVector {
	if len(vectors) == 0 {
		return SparseVector{}
	}
	sums := make(map[int]float64)
	for _, v := range vectors {
		for i, idx := range v.Indices {
			sums[idx] += v.Values[i]
		}
	}
	out := SparseVector{
		Indices: make([]int, 0, len(sums)),
		Values:  make([]float64, 0, len(sums)),
	}
	for idx := range sums {
		out.Indices = append(out.Indices, idx)
	}
	sort.Ints(out.Indices)
	n := float64(len(vectors))
	for _, idx := range out.Indices {
		out.Values = append(out.Values, sums[idx]/n)
	}
	return out
}
