package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.RunRecord
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.RunRecord),
	}
}

// Save stores or replaces a run record.
func (s *RunStore) Save(_ context.Context, rec domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[rec.ID] = rec
	return nil
}

// List returns up to limit records, newest first. A non-positive limit returns all.
func (s *RunStore) List(_ context.Context, limit int) ([]domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.RunRecord, 0, len(s.runs))
	for _, rec := range s.runs {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Get retrieves a run record by ID.
func (s *RunStore) Get(_ context.Context, id string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}
