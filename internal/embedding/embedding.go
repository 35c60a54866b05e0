package embedding

import (
	"errors"
	"fmt"
	"math"
)

// ErrShapeMismatch is returned when two embeddings do not have the same dimensionality.
// It usually means the vectors came from different model versions or corrupted storage.
var ErrShapeMismatch = errors.New("embedding shape mismatch")

// Normalize scales a raw embedding to unit Euclidean length (L2 normalization).
// The zero vector is returned unchanged. The input slice is never modified.
func Normalize(vector []float32) []float32 {
	normalized := make([]float32, len(vector))
	copy(normalized, vector)

	norm := Norm(vector)
	if norm <= 0 {
		return normalized
	}

	for i, v := range vector {
		normalized[i] = float32(float64(v) / norm)
	}

	return normalized
}

// Norm returns the Euclidean norm of the vector, accumulated in float64.
func Norm(vector []float32) float64 {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Distance calculates the Euclidean distance between two embeddings.
// Identical vectors return 0. Vectors of different length return ErrShapeMismatch.
func Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrShapeMismatch, len(a), len(b))
	}

	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}

	return math.Sqrt(sum), nil
}

// FromFloat64 converts a provider embedding to single precision. nil stays nil.
func FromFloat64(vector []float64) []float32 {
	if vector == nil {
		return nil
	}
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(v)
	}
	return out
}
