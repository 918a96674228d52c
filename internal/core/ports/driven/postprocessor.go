package driven

import (
	"context"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

// PostProcessor turns an extracted document into chunks.
type PostProcessor interface {
	// Name returns the processor name for logging and errors.
	Name() string

	// Process takes a document and returns chunks. A processor that creates
	// chunks receives nil and returns new ones.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// Chunker splits document text into ordered, bounded pieces.
type Chunker interface {
	// Split returns the chunks of text, none longer than maxChars except a
	// single rune wider than the limit. It must be pure and deterministic.
	Split(text string, maxChars int) []string
}
