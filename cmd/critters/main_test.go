package main

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clog "critters/internal/log"
	"critters/internal/stats"
)

func TestRunFinishesAfterGenerationLimit(t *testing.T) {
	t.Cleanup(func() { clog.SetLogLevels(defaultLogLevel) })
	dir := t.TempDir()

	err := run(context.Background(), []string{
		"--configfile=" + filepath.Join(dir, "absent.conf"),
		"--logdir=" + filepath.Join(dir, "logs"),
		"--debuglevel=warn",
		"--threads=2",
		"--seed=5",
		"--population=60",
		"--generations=2",
		"--reportevery=1",
		"--metricslisten=127.0.0.1:0",
		"--exportdir=" + filepath.Join(dir, "export"),
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "logs", defaultLogFilename))
	require.NoError(t, err)

	index, err := stats.ListRunIndex(filepath.Join(dir, "export"))
	require.NoError(t, err)
	require.Len(t, index, 1)
	assert.Equal(t, 60, index[0].PopulationSize)
	assert.Equal(t, int64(5), index[0].Seed)
	// Generations 0 and 1 are both reported.
	assert.Equal(t, 2, index[0].Generations)

	series, ok, err := stats.ReadFitnessSeries(filepath.Join(dir, "export"), index[0].RunID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, series, 2)
}

func TestRunExportCountsUnreportedGenerations(t *testing.T) {
	t.Cleanup(func() { clog.SetLogLevels(defaultLogLevel) })
	dir := t.TempDir()
	exportDir := filepath.Join(dir, "export")

	err := run(context.Background(), []string{
		"--configfile=" + filepath.Join(dir, "absent.conf"),
		"--logdir=" + filepath.Join(dir, "logs"),
		"--debuglevel=warn",
		"--seed=9",
		"--population=60",
		"--generations=4",
		"--reportevery=3",
		"--exportdir=" + exportDir,
	})
	require.NoError(t, err)

	index, err := stats.ListRunIndex(exportDir)
	require.NoError(t, err)
	require.Len(t, index, 1)
	// Generations 0 and 3 are reported; all four count.
	assert.Equal(t, 4, index[0].Generations)

	series, ok, err := stats.ReadFitnessSeries(exportDir, index[0].RunID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, series, 2)
	assert.Equal(t, 3, series[1].Generation)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	t.Cleanup(func() { clog.SetLogLevels(defaultLogLevel) })
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, []string{
		"--configfile=" + filepath.Join(dir, "absent.conf"),
		"--logdir=" + filepath.Join(dir, "logs"),
		"--debuglevel=warn",
		"--population=60",
		"--showcase",
	})
	require.NoError(t, err)
}

func TestRunRejectsUnavailableStore(t *testing.T) {
	dir := t.TempDir()
	err := run(context.Background(), []string{
		"--configfile=" + filepath.Join(dir, "absent.conf"),
		"--logdir=" + filepath.Join(dir, "logs"),
		"--store=sqlite",
		"--sqlitepath=" + filepath.Join(dir, "critters.db"),
		"--population=60",
		"--generations=1",
	})
	if sqliteBuild {
		require.NoError(t, err)
	} else {
		require.Error(t, err)
	}
}

type countingShaker struct{ n atomic.Int32 }

func (c *countingShaker) RequestShake() { c.n.Add(1) }

func TestShakeOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal)
	sc := &countingShaker{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		shakeOnSignal(ctx, sigs, sc)
	}()

	sigs <- syscall.SIGHUP
	sigs <- syscall.SIGHUP
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "shakeOnSignal did not return after cancel")
	}
	assert.Equal(t, int32(2), sc.n.Load())
}
