package storage

import (
	"context"
	"errors"

	"critters/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Store keeps run descriptions and their generation reports.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	SaveGeneration(ctx context.Context, rec model.GenerationRecord) error
	// ListGenerations returns the records of a run ordered by generation.
	ListGenerations(ctx context.Context, runID string) ([]model.GenerationRecord, error)
}
