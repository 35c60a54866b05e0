package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		vector []float32
	}{
		{"unit axis", []float32{1, 0, 0}},
		{"3-4-5 triangle", []float32{3, 4}},
		{"negative values", []float32{-2, 5, -7, 1}},
		{"already normalized", []float32{0.6, 0.8}},
		{"tiny values", []float32{1e-3, 2e-3, 3e-3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.vector)

			require.Len(t, got, len(tt.vector))
			assert.InDelta(t, 1.0, Norm(got), 1e-6)
		})
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	zero := []float32{0, 0, 0, 0}

	got := Normalize(zero)

	assert.Equal(t, zero, got)
}

func TestNormalize_DoesNotModifyInput(t *testing.T) {
	input := []float32{3, 4}

	got := Normalize(input)

	assert.Equal(t, []float32{3, 4}, input)
	assert.InDelta(t, 0.6, got[0], 1e-6)
	assert.InDelta(t, 0.8, got[1], 1e-6)
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{"identical", []float32{0.6, 0.8}, []float32{0.6, 0.8}, 0},
		{"orthogonal unit vectors", []float32{1, 0}, []float32{0, 1}, math.Sqrt2},
		{"opposite unit vectors", []float32{1, 0}, []float32{-1, 0}, 2},
		{"3-4-5", []float32{0, 0}, []float32{3, 4}, 5},
		{"empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Distance(tt.a, tt.b)

			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Normalize([]float32{1, 2, 3, 4})
	b := Normalize([]float32{4, 3, 2, 1})

	ab, err := Distance(a, b)
	require.NoError(t, err)
	ba, err := Distance(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
	assert.Greater(t, ab, 0.0)
}

func TestDistance_ShapeMismatch(t *testing.T) {
	_, err := Distance([]float32{1, 0, 0}, []float32{1, 0})

	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDistance_NearbyQuery(t *testing.T) {
	bob := Normalize([]float32{1, 0, 0, 0})
	query := Normalize([]float32{0.99, 0.141, 0, 0})

	got, err := Distance(query, bob)

	require.NoError(t, err)
	assert.InDelta(t, 0.141, got, 0.005)
	assert.Less(t, got, 0.9)
}

func TestFromFloat64(t *testing.T) {
	got := FromFloat64([]float64{0.5, -0.25, 1})

	assert.Equal(t, []float32{0.5, -0.25, 1}, got)
	assert.Nil(t, FromFloat64(nil))
}
