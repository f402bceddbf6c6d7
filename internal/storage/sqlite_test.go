//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"critters/internal/model"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "critters.db")

	store := NewSQLiteStore(dbPath)
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() {
		_ = store.Close()
	})

	run := model.RunRecord{
		VersionedRecord: testVersion(),
		ID:              "run-1",
		StartedAt:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Seed:            7,
		PopulationSize:  200,
		PoolSize:        112,
		Threads:         3,
	}
	require.NoError(t, store.SaveRun(ctx, run))
	loaded, ok, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, run, loaded)

	for _, gen := range []int{10, 0, 10} {
		rec := model.GenerationRecord{
			VersionedRecord: testVersion(),
			RunID:           run.ID,
			Generation:      gen,
			TopFitness:      float64(gen) / 2,
		}
		require.NoError(t, store.SaveGeneration(ctx, rec), "generation %d", gen)
	}

	records, err := store.ListGenerations(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 0, records[0].Generation)
	assert.Equal(t, 10, records[1].Generation)
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "critters.db"))
	_, _, err := store.GetRun(context.Background(), "run-1")
	require.Error(t, err)
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore(KindSQLite, filepath.Join(t.TempDir(), "critters.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, CloseIfSupported(store))
}
