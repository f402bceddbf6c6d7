package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigmoidShape(t *testing.T) {
	assert.Equal(t, 0.0, Sigmoid(-7))
	assert.Equal(t, 1.0, Sigmoid(5))
	assert.Equal(t, 1.0, Sigmoid(12))
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-12)
	// Continuous at the edges.
	assert.InDelta(t, 0.0, Sigmoid(-4.999999), 1e-6)
	assert.InDelta(t, 1.0, Sigmoid(4.999999), 1e-6)

	prev := Sigmoid(-5)
	for x := -4.9; x < 5; x += 0.1 {
		cur := Sigmoid(x)
		require.GreaterOrEqual(t, cur, prev, "x=%f", x)
		prev = cur
	}
}

func TestGaussianShape(t *testing.T) {
	assert.Equal(t, 1.0, Gaussian(0))
	assert.Equal(t, 0.0, Gaussian(5))
	assert.Equal(t, 0.0, Gaussian(-5))
	assert.Equal(t, 0.0, Gaussian(100))
	assert.InDelta(t, 0.0, Gaussian(4.999999), 1e-6)

	for _, x := range []float64{0.5, 1, 2.5, 4} {
		assert.InDelta(t, Gaussian(x), Gaussian(-x), 1e-12, "symmetric at %f", x)
		assert.Less(t, Gaussian(x), 1.0)
		assert.Greater(t, Gaussian(x), 0.0)
	}
}

func TestReLUAndSat(t *testing.T) {
	assert.Equal(t, 0.0, ReLU(-3))
	assert.Equal(t, 2.5, ReLU(2.5))

	assert.Equal(t, 1.0, Sat(3, 1, -1))
	assert.Equal(t, -1.0, Sat(-3, 1, -1))
	assert.Equal(t, 0.25, Sat(0.25, 1, -1))
}
