package breeder

import (
	"context"
	"time"

	"critters/internal/model"
	"critters/internal/report"
	"critters/internal/storage"
)

// Run computes generations until ctx is cancelled or the policy's generation
// limit is reached. Every ReportEvery generations, starting with the first, a
// record goes to reporter. Reporter failures are logged and do not stop the
// loop.
func (b *Breeder) Run(ctx context.Context, reporter report.Reporter) error {
	for done := 0; b.policy.Generations == 0 || done < b.policy.Generations; done++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		stats, err := b.NextGeneration(ctx)
		if err != nil {
			return err
		}

		if stats.Generation%b.policy.ReportEvery != 0 || reporter == nil {
			continue
		}

		rec := b.record(stats)
		if err := reporter.Report(ctx, rec); err != nil {
			log.Errorf("Unable to report generation %d: %v", stats.Generation, err)
		}
	}
	return nil
}

func (b *Breeder) record(stats GenerationStats) model.GenerationRecord {
	b.mu.Lock()
	top := b.FitnessNLocked(b.policy.ReportTopN)
	population := b.population.Count()
	b.mu.Unlock()

	return model.GenerationRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		RunID:      b.runID,
		Generation: stats.Generation,
		Duration:   stats.Duration,
		TopFitness: top,
		TopN:       b.policy.ReportTopN,
		Population: population,
		RecordedAt: time.Now().UTC(),
	}
}

// RunRecord describes this run for the report store.
func (b *Breeder) RunRecord(startedAt time.Time) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:             b.runID,
		StartedAt:      startedAt.UTC(),
		Seed:           b.policy.Seed,
		PopulationSize: b.policy.PopulationSize,
		PoolSize:       b.policy.PoolSize(),
		Threads:        b.policy.Threads,
	}
}
