// Package ai builds remote rewriters from LLM settings.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/llm/gemini"
	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateRewriter builds the remote rewriter for settings and attaches the
// prompt store when one is given. Missing or incomplete settings yield
// domain.ErrConfiguration so callers can fall back to local rewriting.
func CreateRewriter(settings *domain.LLMSettings, prompts driven.PromptStore) (driven.RemoteRewriter, error) {
	if settings == nil || settings.Provider == "" {
		return nil, fmt.Errorf("%w: no LLM provider configured", domain.ErrConfiguration)
	}
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s needs an API key (set %s)",
			domain.ErrConfiguration, settings.Provider, settings.Provider.APIKeyEnv()[0])
	}

	var (
		rw  driven.RemoteRewriter
		err error
	)
	switch settings.Provider {
	case domain.AIProviderGemini:
		rw, err = gemini.New(gemini.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderOpenAI:
		rw, err = openai.New(openai.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderAnthropic:
		rw, err = anthropic.New(anthropic.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderOllama:
		rw = ollama.New(ollama.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	}
	if err != nil {
		return nil, err
	}

	if aware, ok := rw.(driven.PromptStoreAware); ok && prompts != nil {
		aware.SetPromptStore(prompts)
	}
	return rw, nil
}

// CreateAndValidateRewriter builds a rewriter and pings it. The rewriter is
// closed again when the ping fails.
func CreateAndValidateRewriter(
	ctx context.Context, settings *domain.LLMSettings, prompts driven.PromptStore,
) (driven.RemoteRewriter, error) {
	rw, err := CreateRewriter(settings, prompts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rw.Ping(ctx); err != nil {
		_ = rw.Close()
		return nil, fmt.Errorf("%s unreachable: %w. Run 'narrator settings llm' to fix", settings.Provider, err)
	}
	return rw, nil
}
