package usecase

import (
	"math"
	"sort"
)

// SparseVector is a vector in a vectorizer's feature space storing only its
// non-zero components. Indices are sorted ascending, which keeps every dot
// product a deterministic merge over the same summation order.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Norm returns the Euclidean magnitude of the vector.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, val := range v.Values {
		sum += val * val
	}
	return math.Sqrt(sum)
}

// IsZero reports whether the vector has no non-zero components.
func (v SparseVector) IsZero() bool {
	return len(v.Indices) == 0
}

// normalized returns the vector scaled to unit length. Zero vectors are
// returned unchanged.
func (v SparseVector) normalized() SparseVector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	scaled := SparseVector{
		Indices: v.Indices,
		Values:  make([]float64, len(v.Values)),
	}
	for i, val := range v.Values {
		scaled.Values[i] = val / n
	}
	return scaled
}

// MeanVector returns the component-wise mean of the given vectors. An empty
// input yields the zero vector.
func MeanVector(vectors []SparseVector) SparseVector {
	if len(vectors) == 0 {
		return SparseVector{}
	}

	sums := make(map[int]float64)
	for _, vec := range vectors {
		for i, idx := range vec.Indices {
			sums[idx] += vec.Values[i]
		}
	}

	mean := SparseVector{
		Indices: make([]int, 0, len(sums)),
		Values:  make([]float64, 0, len(sums)),
	}
	for idx := range sums {
		mean.Indices = append(mean.Indices, idx)
	}
	sort.Ints(mean.Indices)
	count := float64(len(vectors))
	for _, idx := range mean.Indices {
		mean.Values = append(mean.Values, sums[idx]/count)
	}
	return mean
}

// CosineScores computes the cosine similarity between the query and every
// row of the matrix. Each value lies in [-1, 1]; a zero-magnitude query or
// row scores 0 rather than NaN. No side effects.
func CosineScores(query SparseVector, matrix []SparseVector) []float64 {
	scores := make([]float64, len(matrix))
	queryNorm := query.Norm()
	if queryNorm == 0 {
		return scores
	}
	for i, row := range matrix {
		scores[i] = cosine(query, queryNorm, row)
	}
	return scores
}

// cosine computes dot(query, row) / (|query| * |row|) with a sorted-index
// merge join over the two sparse vectors.
func cosine(query SparseVector, queryNorm float64, row SparseVector) float64 {
	rowNorm := row.Norm()
	if rowNorm == 0 {
		return 0
	}

	var dot float64
	i, j := 0, 0
	for i < len(query.Indices) && j < len(row.Indices) {
		switch {
		case query.Indices[i] == row.Indices[j]:
			dot += query.Values[i] * row.Values[j]
			i++
			j++
		case query.Indices[i] < row.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot / (queryNorm * rowNorm)
}
