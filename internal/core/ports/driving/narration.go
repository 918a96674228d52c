package driving

import (
	"context"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

// NarrateOptions configures one document narration.
type NarrateOptions struct {
	// Config controls the rewrite.
	Config domain.RewriteConfig

	// Local skips the remote rewriter entirely.
	Local bool
}

// Narration is the outcome of narrating an uploaded document.
type Narration struct {
	// Document is the extracted source document.
	Document domain.Document

	// Result is the rewrite outcome.
	Result *domain.RewriteResult
}

// Plan is how a document would be split for rewriting.
type Plan struct {
	// Document is the extracted source document.
	Document domain.Document

	// Chunks are the pieces sent to the rewriter, in order.
	Chunks []domain.Chunk
}

// NarrationService turns uploaded files into narration text.
type NarrationService interface {
	// Extract converts raw file bytes into a document.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	// Narrate extracts and rewrites a file, recording the run in history.
	// A non-nil Narration is returned alongside a rewrite error so callers
	// can still use the original text.
	Narrate(ctx context.Context, raw *domain.RawDocument, opts NarrateOptions) (*Narration, error)

	// Plan extracts a file and splits it without rewriting anything.
	Plan(ctx context.Context, raw *domain.RawDocument, chunkMaxChars int) (*Plan, error)

	// History lists recent runs, newest first.
	History(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// Run retrieves one run by ID. Unknown IDs yield domain.ErrNotFound.
	Run(ctx context.Context, id string) (*domain.RunRecord, error)
}
