package driven

import (
	"context"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

// Normaliser turns one upload format into narration-ready prose.
type Normaliser interface {
	// SupportedMIMETypes lists the base MIME types handled, without parameters.
	SupportedMIMETypes() []string

	// Priority orders normalisers claiming the same MIME type; higher wins.
	// Format-specific normalisers use 50-89, catch-alls 1-9.
	Priority() int

	// Normalise extracts the text of raw. Markup, layout and page furniture
	// are dropped; paragraphs are separated by a blank line.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult carries the extracted document. It is never chunked here.
type NormaliseResult struct {
	Document domain.Document
}

// NormaliserRegistry dispatches an upload to the normaliser for its type.
// Unknown types yield domain.ErrUnsupportedType.
type NormaliserRegistry interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}
