package driven

import "github.com/custodia-labs/narrator-cli/internal/core/domain"

// AIConfigValidator checks that stored provider settings can reach the
// provider before they are relied on.
type AIConfigValidator interface {
	// ValidateLLM returns nil for a working or an unset configuration.
	ValidateLLM(config *domain.LLMSettings) error
}
