package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord describes one evolution run.
type RunRecord struct {
	VersionedRecord
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	Seed           int64     `json:"seed"`
	PopulationSize int       `json:"population_size"`
	PoolSize       int       `json:"pool_size"`
	Threads        int       `json:"threads"`
}

// GenerationRecord is the periodic progress report of a run.
type GenerationRecord struct {
	VersionedRecord
	RunID      string        `json:"run_id"`
	Generation int           `json:"generation"`
	Duration   time.Duration `json:"duration_ns"`
	// TopFitness is the mean fitness of the TopN fittest individuals.
	TopFitness float64   `json:"top_fitness"`
	TopN       int       `json:"top_n"`
	Population int       `json:"population"`
	RecordedAt time.Time `json:"recorded_at"`
}
