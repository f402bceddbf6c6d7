package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"critters/internal/breeder"
	"critters/internal/stats"
	"critters/internal/storage"
)

// champions snapshots the n fittest genomes of b.
func champions(b *breeder.Breeder, n int) []stats.Champion {
	b.Lock()
	defer b.Unlock()

	var out []stats.Champion
	it := b.RankingLocked()
	for g, ok := it.Current(); ok && len(out) < n; g, ok = it.Next() {
		var dump strings.Builder
		if err := g.Dump(&dump); err != nil {
			log.Warnf("Unable to dump champion %d: %v", len(out)+1, err)
		}
		out = append(out, stats.Champion{
			Rank:    len(out) + 1,
			Fitness: it.Fitness(),
			Colour:  g.Colour().String(),
			Weights: dump.String(),
		})
	}
	return out
}

// exportRun writes the run's artifacts under dir and records it in the run
// index.
func exportRun(ctx context.Context, dir string, store storage.Store, b *breeder.Breeder) error {
	run, ok, err := store.GetRun(ctx, b.RunID())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run %s is not in the store", b.RunID())
	}
	generations, err := store.ListGenerations(ctx, run.ID)
	if err != nil {
		return err
	}

	artifacts := stats.RunArtifacts{
		Run:          run,
		Generations:  generations,
		Champions:    champions(b, b.Policy().ReportTopN),
		Completed:    b.Generation(),
		FinalFitness: b.Fitness(),
	}
	runDir, err := stats.WriteRunArtifacts(dir, artifacts)
	if err != nil {
		return err
	}
	if err := stats.AppendRunIndex(dir, artifacts.IndexEntry(time.Now())); err != nil {
		return err
	}

	log.Infof("Exported run %s to %s", run.ID, runDir)
	return nil
}
