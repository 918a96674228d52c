package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driving"
	"github.com/custodia-labs/narrator-cli/internal/normalisers"
)

// Source URIs recorded in history for text sent over MCP.
const (
	rewriteSource  = "mcp:rewrite_for_narration"
	fallbackSource = "mcp:fallback_rewrite"
)

// RewriteInput is the input schema for the rewrite_for_narration tool.
type RewriteInput struct {
	Text          string `json:"text" jsonschema:"the document text to rewrite, paragraphs separated by a blank line"`
	Model         string `json:"model,omitempty" jsonschema:"provider model to use instead of the configured one"`
	ChunkMaxChars int    `json:"chunk_max_chars,omitempty" jsonschema:"maximum characters per chunk (default from settings)"`
	NoFallback    bool   `json:"no_fallback,omitempty" jsonschema:"fail instead of finishing with the local rewriter"`
}

// FallbackInput is the input schema for the fallback_rewrite tool.
type FallbackInput struct {
	Text          string `json:"text" jsonschema:"the document text to rewrite locally"`
	ChunkMaxChars int    `json:"chunk_max_chars,omitempty" jsonschema:"maximum characters per chunk (default from settings)"`
}

// RewriteOutput is the output schema for both rewrite tools.
type RewriteOutput struct {
	RunID          string `json:"run_id"`
	Text           string `json:"text"`
	Degraded       bool   `json:"degraded"`
	Reason         string `json:"reason,omitempty"`
	Chunks         int    `json:"chunks"`
	RemoteChunks   int    `json:"remote_chunks"`
	CachedChunks   int    `json:"cached_chunks"`
	FallbackChunks int    `json:"fallback_chunks"`
	RemoteCalls    int    `json:"remote_calls"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "rewrite_for_narration",
		Description: "Rewrite text so it reads naturally when narrated. Uses the configured " +
			"LLM provider within its quota and finishes with a local rewrite when the provider is exhausted",
	}, s.handleRewrite)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fallback_rewrite",
		Description: "Rewrite text for narration with the local heuristic rewriter only. Never calls a provider",
	}, s.handleFallback)
}

// handleRewrite handles the rewrite_for_narration tool invocation.
func (s *Server) handleRewrite(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RewriteInput,
) (*mcp.CallToolResult, RewriteOutput, error) {
	cfg := s.ports.rewriteConfig()
	if input.Model != "" {
		cfg.Model = input.Model
	}
	if input.ChunkMaxChars > 0 {
		cfg.ChunkMaxChars = input.ChunkMaxChars
	}
	if input.NoFallback {
		cfg.FallbackOnExhaustion = false
	}

	n, err := s.ports.Narration.Narrate(ctx, textDocument(rewriteSource, input.Text), driving.NarrateOptions{Config: cfg})
	if err != nil {
		return nil, RewriteOutput{}, fmt.Errorf("rewrite_for_narration: %w", err)
	}
	return nil, outputFor(n.Result), nil
}

// handleFallback handles the fallback_rewrite tool invocation.
func (s *Server) handleFallback(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FallbackInput,
) (*mcp.CallToolResult, RewriteOutput, error) {
	cfg := s.ports.rewriteConfig()
	if input.ChunkMaxChars > 0 {
		cfg.ChunkMaxChars = input.ChunkMaxChars
	}

	n, err := s.ports.Narration.Narrate(ctx, textDocument(fallbackSource, input.Text), driving.NarrateOptions{
		Config: cfg,
		Local:  true,
	})
	if err != nil {
		return nil, RewriteOutput{}, fmt.Errorf("fallback_rewrite: %w", err)
	}
	return nil, outputFor(n.Result), nil
}

func textDocument(source, text string) *domain.RawDocument {
	return &domain.RawDocument{
		URI:      source,
		MIMEType: normalisers.MIMEPlainText,
		Content:  []byte(text),
	}
}

func outputFor(r *domain.RewriteResult) RewriteOutput {
	out := RewriteOutput{
		RunID:          r.ID,
		Text:           r.Text,
		Degraded:       r.Degraded,
		Chunks:         len(r.Chunks),
		RemoteChunks:   r.CountBySource(domain.SourceRemote),
		CachedChunks:   r.CountBySource(domain.SourceCache),
		FallbackChunks: r.CountBySource(domain.SourceFallback),
		RemoteCalls:    r.RemoteCalls,
	}
	if r.DegradedReason != domain.ErrorKindNone {
		out.Reason = r.DegradedReason.String()
	}
	return out
}
