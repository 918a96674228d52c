package driven

import (
	"context"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

// RunStore persists summaries of rewrite runs.
type RunStore interface {
	// Save stores a run record.
	Save(ctx context.Context, rec domain.RunRecord) error

	// List returns the most recent records first, at most limit of them.
	List(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// Get retrieves a record by ID.
	Get(ctx context.Context, id string) (*domain.RunRecord, error)
}
