// Package mcp provides an MCP (Model Context Protocol) server adapter for narrator.
// It lets AI assistants rewrite text for narration through the same
// quota-safe pipeline the CLI uses.
package mcp

import "errors"

// ErrMissingNarrationService is returned when the narration service is not provided.
var ErrMissingNarrationService = errors.New("mcp: narration service is required")
