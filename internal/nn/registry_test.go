package nn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltInActivations(t *testing.T) {
	require.Equal(t, []string{"gaussian", "relu", "sigmoid"}, ListActivations())

	fn, err := GetActivation("relu")
	require.NoError(t, err)
	require.Equal(t, 3.0, fn(3))
	require.Equal(t, 1.0, MustActivation("gaussian")(0))
}

func TestRegisterAndGetActivation(t *testing.T) {
	resetActivationRegistryForTests()
	t.Cleanup(resetActivationRegistryForTests)

	require.NoError(t, RegisterActivation("quad", func(x float64) float64 { return x * x }))
	fn, err := GetActivation("quad")
	require.NoError(t, err)
	require.Equal(t, 9.0, fn(3))
}

func TestRegisterActivationValidation(t *testing.T) {
	resetActivationRegistryForTests()
	t.Cleanup(resetActivationRegistryForTests)

	require.Error(t, RegisterActivation("", func(x float64) float64 { return x }))
	require.Error(t, RegisterActivation("nil", nil))
	require.ErrorIs(t, RegisterActivation("sigmoid", Sigmoid), ErrActivationExists)
}

func TestGetActivationNotFound(t *testing.T) {
	_, err := GetActivation("missing")
	require.ErrorIs(t, err, ErrActivationNotFound)
	require.Panics(t, func() { MustActivation("missing") })
}
