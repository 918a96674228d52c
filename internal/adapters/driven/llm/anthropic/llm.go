// Package anthropic provides a remote rewriter using the Anthropic messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/llm/response"
	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

// Ensure Rewriter implements the interfaces.
var (
	_ driven.RemoteRewriter   = (*Rewriter)(nil)
	_ driven.PromptStoreAware = (*Rewriter)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 4096

	// AnthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic rewriter.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the default model (default: claude-3-5-haiku-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Rewriter rewrites chunks using Anthropic messages.
type Rewriter struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	promptStore driven.PromptStore
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model     string            `json:"model"`
	Messages  []messagesMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// New creates a new Anthropic rewriter.
func New(cfg Config) (*Rewriter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w: API key is required", domain.ErrConfiguration)
	}
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
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Rewrite sends the narration prompt for chunk to model.
func (r *Rewriter) Rewrite(ctx context.Context, chunk, model string) (string, error) {
	if model == "" {
		model = r.model
	}

	reqBody := messagesRequest{
		Model:     model,
		Messages:  []messagesMessage{{Role: "user", Content: response.Prompt(r.promptStore, chunk)}},
		MaxTokens: DefaultMaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", response.Transport(fmt.Errorf("anthropic: send request: %w", err))
	}

	text, err := response.Read(resp)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
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

// Ping validates the service is reachable by checking the /v1/models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (r *Rewriter) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("x-api-key", r.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("anthropic: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("anthropic: %w", response.Classify(resp.StatusCode, body))
	}
	return nil
}

// Close releases resources.
func (r *Rewriter) Close() error {
	return nil
}
