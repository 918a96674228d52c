// Package cli implements the narrator command line interface with cobra.
// Commands talk to the core through the driving ports set by SetServices.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/metrics"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driving"
	"github.com/custodia-labs/narrator-cli/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

var (
	verbose   bool
	logFormat string
)

// Services wired by main.
var (
	settingsService     driving.SettingsService
	narrationService    driving.NarrationService
	rewriteCache        driven.RewriteCache
	metricsObserver     *metrics.Observer
	supportedExtensions []string
)

// Services holds the dependencies the commands use.
type Services struct {
	Settings  driving.SettingsService
	Narration driving.NarrationService

	// Cache is the configured rewrite cache, nil when caching is off.
	Cache driven.RewriteCache

	// Metrics records rewrite events. Optional.
	Metrics *metrics.Observer

	// Extensions lists the file extensions that can be narrated.
	Extensions []string
}

// SetServices installs the services used by every command.
func SetServices(s Services) {
	settingsService = s.Settings
	narrationService = s.Narration
	rewriteCache = s.Cache
	metricsObserver = s.Metrics
	supportedExtensions = s.Extensions
}

var rootCmd = &cobra.Command{
	Use:   "narrator",
	Short: "Rewrite documents for audiobook narration",
	Long: `narrator turns documents into text that reads well aloud.

Text is extracted from .txt, .md, .docx and .html files, split into paragraph-aligned
chunks and rewritten by the configured LLM provider. Calls are paced to stay
inside the provider's quota, repeated chunks are served from a cache, and when
the provider is exhausted the rest of the document is finished by a local
rewriter so a run always produces narration text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return logger.SetFormat(logFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log chunking, retries and fallback decisions")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logger.FormatConsole, "log format: console or json")
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as watch and mcp serve.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}
