package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for narrator resources.
	uriScheme = "narrator://"

	historyResourceLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Recent rewrite runs, newest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "config",
		Name:        "config",
		Description: "Rewrite defaults applied to tool calls",
		MIMEType:    "application/json",
	}, s.handleConfigResource)

	// Template for a single run.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}",
		Name:        "run",
		Description: "One recorded rewrite run",
		MIMEType:    "application/json",
	}, s.handleRunResource)
}

type runInfo struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	Model          string    `json:"model"`
	Chunks         int       `json:"chunks"`
	FallbackChunks int       `json:"fallback_chunks"`
	RemoteCalls    int       `json:"remote_calls"`
	Degraded       bool      `json:"degraded"`
	Reason         string    `json:"reason,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	DurationMS     int64     `json:"duration_ms"`
}

func newRunInfo(rec *domain.RunRecord) runInfo {
	info := runInfo{
		ID:             rec.ID,
		Source:         rec.Source,
		Model:          rec.Model,
		Chunks:         rec.Chunks,
		FallbackChunks: rec.FallbackChunks,
		RemoteCalls:    rec.RemoteCalls,
		Degraded:       rec.Degraded,
		StartedAt:      rec.StartedAt,
		DurationMS:     rec.FinishedAt.Sub(rec.StartedAt).Milliseconds(),
	}
	if rec.Reason != domain.ErrorKindNone {
		info.Reason = rec.Reason.String()
	}
	return info
}

// handleHistoryResource returns recent runs.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	records, err := s.ports.Narration.History(ctx, historyResourceLimit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	infos := make([]runInfo, len(records))
	for i := range records {
		infos[i] = newRunInfo(&records[i])
	}

	return jsonResource(req.Params.URI, infos)
}

// handleConfigResource returns the rewrite defaults. Credentials are never included.
func (s *Server) handleConfigResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	cfg := s.ports.rewriteConfig()
	info := struct {
		Model                string `json:"model"`
		MaxRetriesPerChunk   int    `json:"max_retries_per_chunk"`
		MinIntervalMS        int64  `json:"min_interval_ms"`
		MaxRequestsPerMinute int    `json:"max_requests_per_minute"`
		ChunkMaxChars        int    `json:"chunk_max_chars"`
		FallbackOnExhaustion bool   `json:"fallback_on_exhaustion"`
	}{
		Model:                cfg.Model,
		MaxRetriesPerChunk:   cfg.MaxRetriesPerChunk,
		MinIntervalMS:        cfg.MinIntervalBetweenCalls.Milliseconds(),
		MaxRequestsPerMinute: cfg.MaxRequestsPerMinute,
		ChunkMaxChars:        cfg.ChunkMaxChars,
		FallbackOnExhaustion: cfg.FallbackOnExhaustion,
	}
	return jsonResource(req.Params.URI, info)
}

// handleRunResource returns one run by ID.
func (s *Server) handleRunResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract runId from URI: narrator://runs/{runId}
	id := extractRunID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, err := s.ports.Narration.Run(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}

	return jsonResource(req.Params.URI, newRunInfo(rec))
}

// extractRunID extracts the run ID from a URI like narrator://runs/{runId}.
func extractRunID(uri string) string {
	const prefix = uriScheme + "runs/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
