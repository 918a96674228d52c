// Package ollama provides a remote rewriter using a local Ollama instance.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/llm/response"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

// Ensure Rewriter implements the interfaces.
var (
	_ driven.RemoteRewriter   = (*Rewriter)(nil)
	_ driven.PromptStoreAware = (*Rewriter)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 300 * time.Second
)

// Config holds configuration for the Ollama rewriter.
type Config struct {
	// BaseURL is the Ollama API URL (default: http://localhost:11434).
	BaseURL string

	// Model is the default model (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 300s). Local models are slow.
	Timeout time.Duration
}

// Rewriter rewrites chunks using the Ollama generate endpoint.
type Rewriter struct {
	client      *http.Client
	baseURL     string
	model       string
	promptStore driven.PromptStore
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// New creates a new Ollama rewriter. No credentials are needed.
func New(cfg Config) *Rewriter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Rewriter{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Rewrite sends the narration prompt for chunk to model.
func (r *Rewriter) Rewrite(ctx context.Context, chunk, model string) (string, error) {
	if model == "" {
		model = r.model
	}

	jsonBody, err := json.Marshal(generateRequest{
		Model:  model,
		Prompt: response.Prompt(r.promptStore, chunk),
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", response.Transport(fmt.Errorf("ollama: send request: %w", err))
	}

	text, err := response.Read(resp)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return text, nil
}

// ModelName returns the default model.
func (r *Rewriter) ModelName() string {
	return r.model
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (r *Rewriter) SetPromptStore(store driven.PromptStore) {
	r.promptStore = store
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (r *Rewriter) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: server returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: server returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (r *Rewriter) Close() error {
	return nil
}
