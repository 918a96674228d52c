package mcp

import (
	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driving"
	"github.com/custodia-labs/narrator-cli/internal/logger"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Narration rewrites text and keeps the run history.
	Narration driving.NarrationService

	// Settings supplies the persisted rewrite defaults. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Narration == nil {
		return ErrMissingNarrationService
	}
	return nil
}

// rewriteConfig returns the configured rewrite defaults, or the built-in
// defaults when settings are missing or unreadable.
func (p *Ports) rewriteConfig() domain.RewriteConfig {
	if p.Settings == nil {
		return domain.DefaultRewriteConfig()
	}
	settings, err := p.Settings.Get()
	if err != nil {
		logger.Warn("mcp: loading settings: %v", err)
		return domain.DefaultRewriteConfig()
	}
	return settings.RewriteConfig()
}
