package ai

import (
	"context"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks stored provider settings by building a rewriter
// and pinging it.
type ConfigValidator struct{}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateLLM pings the provider described by config. Settings with no
// provider, or missing a required key, are left for the caller to report.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	return ValidateLLMConfig(config)
}

// ValidateLLMConfig is ConfigValidator.ValidateLLM without a receiver.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	rw, err := CreateAndValidateRewriter(context.Background(), settings, nil)
	if err != nil {
		return err
	}
	return rw.Close()
}
