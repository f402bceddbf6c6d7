package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreMemory(t *testing.T) {
	for _, kind := range []string{"", KindMemory} {
		store, err := NewStore(kind, "")
		require.NoError(t, err, "kind %q", kind)
		assert.IsType(t, &MemoryStore{}, store, "kind %q", kind)
		require.NoError(t, CloseIfSupported(store))
	}
}

func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore("postgres", "")
	require.ErrorIs(t, err, ErrUnsupportedBackend)
	assert.Contains(t, err.Error(), `"postgres"`)
}

func TestKindsAreAccepted(t *testing.T) {
	assert.Equal(t, []string{KindMemory, KindSQLite}, Kinds())
	for _, kind := range Kinds() {
		_, err := NewStore(kind, "critters.db")
		assert.NotErrorIs(t, err, ErrUnsupportedBackend, "kind %q", kind)
	}
}
