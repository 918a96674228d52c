// Package gemini provides a remote rewriter using the Google Generative Language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
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
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = domain.DefaultRewriteModel
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the Gemini rewriter.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL including the version segment.
	BaseURL string

	// Model is the default model. Display names such as "Gemini 2.5 Flash"
	// are normalised.
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Rewriter rewrites chunks using the generateContent endpoint.
type Rewriter struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	promptStore driven.PromptStore
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// generateRequest is the generateContent request format.
type generateRequest struct {
	Contents []content `json:"contents"`
}

// New creates a new Gemini rewriter.
func New(cfg Config) (*Rewriter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w: API key is required", domain.ErrConfiguration)
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
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   domain.NormaliseModelName(cfg.Model),
	}, nil
}

// Rewrite sends the narration prompt for chunk to model.
func (r *Rewriter) Rewrite(ctx context.Context, chunk, model string) (string, error) {
	if model == "" {
		model = r.model
	}
	model = domain.NormaliseModelName(model)

	reqBody := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: response.Prompt(r.promptStore, chunk)}},
		}},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", r.baseURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", response.Transport(fmt.Errorf("gemini: send request: %w", err))
	}

	text, err := response.Read(resp)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
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

// Ping validates the API key by fetching the default model's metadata.
func (r *Rewriter) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/models/%s", r.baseURL, url.PathEscape(r.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("gemini: failed to create ping request: %w", err)
	}
	req.Header.Set("x-goog-api-key", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("gemini: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("gemini: %w", response.Classify(resp.StatusCode, body))
	}
	return nil
}

// Close releases resources.
func (r *Rewriter) Close() error {
	return nil
}
