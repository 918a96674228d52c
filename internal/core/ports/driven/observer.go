package driven

import (
	"time"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

// RewriteObserver receives events from the rewrite orchestrator.
// Implementations must be cheap and must not block.
type RewriteObserver interface {
	// RemoteCall is called after every remote attempt with its outcome.
	RemoteCall(model string, err error)

	// ChunkDone is called once per chunk with the source of its text.
	ChunkDone(src domain.ChunkSource)

	// RateWait is called when the rate gate blocks.
	RateWait(d time.Duration)

	// Degraded is called when a run switches to the local fallback.
	Degraded(kind domain.ErrorKind)
}
