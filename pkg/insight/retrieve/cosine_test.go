package retrieve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineIdenticalVectors(t *testing.T) {
	v := []float32{0.3, 0.5, 0.8}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-6)
}

func TestCosineOrthogonalVectors(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
}

func TestCosineOppositeVectors(t *testing.T) {
	assert.InDelta(t, -1.0, Cosine([]float32{1, 2}, []float32{-1, -2}), 1e-6)
}

func TestCosineDegenerateInputsScoreZero(t *testing.T) {
	assert.Zero(t, Cosine([]float32{1, 2, 3}, []float32{1, 2}))
	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, Cosine([]float32{1, 1}, []float32{0, 0}))
}
