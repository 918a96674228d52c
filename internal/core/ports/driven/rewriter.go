package driven

import "context"

// RemoteRewriter rewrites one chunk of text for narration using a remote
// text-generation service. One call is exactly one request/response cycle.
//
// Implementations classify failures so the orchestrator can react:
//   - *domain.QuotaError (errors.Is domain.ErrQuotaExceeded) for rate or quota limits
//   - domain.ErrExtraction when the response holds no locatable text
//   - *domain.TransientError for everything else
//
// Implementations may include:
//   - Google Gemini
//   - OpenAI
//   - Anthropic (Claude)
//   - Ollama (local models)
type RemoteRewriter interface {
	// Rewrite sends the narration prompt with the chunk appended and returns
	// the extracted text.
	Rewrite(ctx context.Context, chunk, model string) (string, error)

	// ModelName returns the default model used when Rewrite gets an empty model.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// FallbackRewriter is the deterministic offline rewrite used when the remote
// service is unavailable or exhausted. It never fails.
type FallbackRewriter interface {
	Rewrite(chunk string) string
}
