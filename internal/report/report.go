// Package report delivers periodic generation records to logs, metrics and
// the report store.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"critters/internal/model"
	"critters/internal/storage"
)

// Reporter receives generation records from the evolution loop.
type Reporter interface {
	Report(ctx context.Context, rec model.GenerationRecord) error
}

// ReporterFunc adapts an ordinary function to a Reporter.
type ReporterFunc func(ctx context.Context, rec model.GenerationRecord) error

func (f ReporterFunc) Report(ctx context.Context, rec model.GenerationRecord) error {
	return f(ctx, rec)
}

// LogReporter writes one info line per record.
type LogReporter struct {
	logger btclog.Logger
}

// NewLogReporter returns a reporter writing to logger, or to the package
// logger when logger is nil.
func NewLogReporter(logger btclog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(_ context.Context, rec model.GenerationRecord) error {
	logger := r.logger
	if logger == nil {
		logger = log
	}
	logger.Infof("Generation %s: top %d fitness %.3f, population %s, took %s",
		humanize.Comma(int64(rec.Generation)), rec.TopN, rec.TopFitness,
		humanize.Comma(int64(rec.Population)),
		rec.Duration.Round(time.Millisecond))
	return nil
}

// MetricsReporter exports the latest record as prometheus metrics.
type MetricsReporter struct {
	generation prometheus.Gauge
	topFitness prometheus.Gauge
	population prometheus.Gauge
	duration   prometheus.Histogram
}

// NewMetricsReporter registers the reporter's collectors with reg. A second
// reporter on the same registry panics, like any duplicate registration.
func NewMetricsReporter(reg prometheus.Registerer) *MetricsReporter {
	factory := promauto.With(reg)
	return &MetricsReporter{
		generation: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "critters",
			Name:      "generation",
			Help:      "Index of the last reported generation.",
		}),
		topFitness: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "critters",
			Name:      "top_fitness",
			Help:      "Average fitness of the fittest individuals.",
		}),
		population: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "critters",
			Name:      "population",
			Help:      "Number of individuals in the population.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "critters",
			Name:      "generation_duration_seconds",
			Help:      "Wall time spent computing a reported generation.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
}

func (r *MetricsReporter) Report(_ context.Context, rec model.GenerationRecord) error {
	r.generation.Set(float64(rec.Generation))
	r.topFitness.Set(rec.TopFitness)
	r.population.Set(float64(rec.Population))
	r.duration.Observe(rec.Duration.Seconds())
	return nil
}

// StoreReporter persists records in a report store.
type StoreReporter struct {
	store storage.Store
}

func NewStoreReporter(store storage.Store) *StoreReporter {
	return &StoreReporter{store: store}
}

func (r *StoreReporter) Report(ctx context.Context, rec model.GenerationRecord) error {
	if err := r.store.SaveGeneration(ctx, rec); err != nil {
		return fmt.Errorf("save generation %d: %w", rec.Generation, err)
	}
	return nil
}

// Multi hands every record to each reporter in turn. All reporters run even
// when some fail; the failures are joined.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, rec model.GenerationRecord) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
