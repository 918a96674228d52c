package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/metrics"
	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/narrator-cli/internal/core/services"
	"github.com/custodia-labs/narrator-cli/internal/normalisers"
	"github.com/custodia-labs/narrator-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/narrator-cli/internal/normalisers/plaintext"
	"github.com/custodia-labs/narrator-cli/internal/rewriters/local"
)

// testServices exposes the in-memory stores behind the wired services.
type testServices struct {
	config *memory.ConfigStore
	runs   *memory.RunStore
	cache  *memory.RewriteCache
}

// setupTestServices wires every command to in-memory services with no
// remote provider, and returns a cleanup function restoring the globals.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		config: memory.NewConfigStore(),
		runs:   memory.NewRunStore(),
		cache:  memory.NewRewriteCache(),
	}
	registry := normalisers.NewRegistry(plaintext.New(), markdown.New())
	observer := metrics.NewObserver()
	rewriter := services.NewRewriteService(nil, local.New(),
		services.WithCache(ts.cache),
		services.WithObserver(observer),
	)

	prev := Services{
		Settings:   settingsService,
		Narration:  narrationService,
		Cache:      rewriteCache,
		Metrics:    metricsObserver,
		Extensions: supportedExtensions,
	}
	SetServices(Services{
		Settings:   services.NewSettingsService(ts.config, nil),
		Narration:  services.NewNarrationService(registry, rewriter, ts.runs),
		Cache:      ts.cache,
		Metrics:    observer,
		Extensions: registry.SupportedExtensions(),
	})
	t.Cleanup(func() {
		SetServices(prev)
	})
	return ts
}

// runCommand executes the root command with args and returns stdout and
// stderr. Flags are reset first so earlier runs do not leak into this one.
func runCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue) //nolint:errcheck // defaults always parse
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
