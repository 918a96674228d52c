// Package plaintext extracts narration text from plain text uploads.
package plaintext

import (
	"context"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
	"github.com/custodia-labs/narrator-cli/internal/normalisers"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser passes text through unchanged. Invalid UTF-8 is dropped by the
// registry's cleanup pass.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{normalisers.MIMEPlainText, "text/csv", "text/rtf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5
}

// Normalise returns the raw bytes as the document content.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	return &driven.NormaliseResult{
		Document: normalisers.NewDocument(raw, "", string(raw.Content), "text"),
	}, nil
}
