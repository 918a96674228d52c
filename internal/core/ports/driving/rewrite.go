package driving

import (
	"context"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

// RewriteService rewrites document text for narration.
type RewriteService interface {
	// RewriteDocument chunks text and rewrites every chunk, remotely when
	// possible and with the local fallback otherwise. The result always has
	// one outcome per chunk. When fallback is disabled and the remote
	// service fails, the result carries the original text and the error is
	// a *domain.RewriteError.
	RewriteDocument(ctx context.Context, text string, cfg domain.RewriteConfig) (*domain.RewriteResult, error)

	// RewriteLocal rewrites text with the local fallback only.
	RewriteLocal(text string, chunkMaxChars int) *domain.RewriteResult
}
