package storage

import (
	"context"
	"slices"
	"sync"

	"critters/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	generations map[string][]model.GenerationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.generations = make(map[string][]model.GenerationRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.RunRecord{}, false, ErrNotInitialized
	}
	run, ok := s.runs[id]
	return run, ok, nil
}

// SaveGeneration replaces an existing record for the same generation.
func (s *MemoryStore) SaveGeneration(_ context.Context, rec model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	records := s.generations[rec.RunID]
	idx, found := slices.BinarySearchFunc(records, rec.Generation, func(r model.GenerationRecord, gen int) int {
		return r.Generation - gen
	})
	if found {
		records[idx] = rec
	} else {
		records = slices.Insert(records, idx, rec)
	}
	s.generations[rec.RunID] = records
	return nil
}

func (s *MemoryStore) ListGenerations(_ context.Context, runID string) ([]model.GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return slices.Clone(s.generations[runID]), nil
}
