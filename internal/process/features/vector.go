package features

import "math"

// Vector is a sparse row over a fitted vocabulary. Indices are ascending and
// unique. Vectors are read-only once returned by the vectorizer.
type Vector struct {
	Indices []int
	Values  []float64
	// Dim is the vocabulary size the vector was produced against.
	Dim int
	// Epoch identifies the vocabulary fit that produced the vector.
	Epoch string
}

// NNZ returns the number of non-zero entries.
func (v Vector) NNZ() int {
	return len(v.Indices)
}

// Dense materializes the vector as a Dim-length slice.
func (v Vector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for i, idx := range v.Indices {
		out[idx] = v.Values[i]
	}

	return out
}

// At returns the weight at column idx.
func (v Vector) At(idx int) float64 {
	lo, hi := 0, len(v.Indices)
	for lo < hi {
		mid := (lo + hi) / 2

		switch {
		case v.Indices[mid] == idx:
			return v.Values[mid]
		case v.Indices[mid] < idx:
			lo = mid + 1
		default:
			hi = mid
		}
	}

	return 0
}

// DotOffset computes sum(weights[offset+idx] * value). It lets callers keep a
// bias term in front of the feature weights.
func (v Vector) DotOffset(weights []float64, offset int) float64 {
	var sum float64

	for i, idx := range v.Indices {
		j := offset + idx
		if j < len(weights) {
			sum += weights[j] * v.Values[i]
		}
	}

	return sum
}

// Norm returns the Euclidean norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, val := range v.Values {
		sum += val * val
	}

	return math.Sqrt(sum)
}
