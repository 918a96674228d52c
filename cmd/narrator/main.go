// Command narrator rewrites documents for audiobook narration.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/metrics"
	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/storage"
	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/narrator-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
	"github.com/custodia-labs/narrator-cli/internal/core/services"
	"github.com/custodia-labs/narrator-cli/internal/logger"
	"github.com/custodia-labs/narrator-cli/internal/normalisers"
	"github.com/custodia-labs/narrator-cli/internal/normalisers/docx"
	"github.com/custodia-labs/narrator-cli/internal/normalisers/html"
	"github.com/custodia-labs/narrator-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/narrator-cli/internal/normalisers/plaintext"
	"github.com/custodia-labs/narrator-cli/internal/rewriters/local"
)

// version is set at build time with -ldflags "-X main.version=v1.2.3".
var version = ""

// stderr receives startup warnings. They are printed before flags are
// parsed, so they cannot go through the level-filtered logger.
var stderr io.Writer = os.Stderr

func warn(format string, args ...any) {
	fmt.Fprintf(stderr, "Warning: "+format+"\n", args...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cli.SetVersion(version)

	// Settings
	var configStore driven.ConfigStore = memory.NewConfigStore()
	if fileStore, err := file.NewConfigStore(""); err != nil {
		warn("config unavailable, using defaults: %v", err)
	} else {
		configStore = fileStore
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// Remote rewriter
	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("open prompts: %w", err)
	}
	remote, err := ai.CreateRewriter(&settings.LLM, prompts)
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		logger.Debug("remote rewriter disabled: %v", err)
		remote = nil
	case err != nil:
		warn("remote rewriter unavailable: %v", err)
		remote = nil
	default:
		defer remote.Close()
	}

	// Storage
	var runs driven.RunStore
	store, err := sqlite.NewStore("")
	if err != nil {
		warn("history unavailable: %v", err)
	} else {
		defer store.Close()
		runs = store.RunStore()
	}

	cache, closeCache, err := storage.OpenRewriteCache(ctx, settings.Cache, store)
	if err != nil {
		warn("rewrite cache unavailable, continuing without it: %v", err)
		cache = nil
	}
	defer closeCache()

	// Core services
	observer := metrics.NewObserver()
	opts := []services.RewriteOption{services.WithObserver(observer)}
	if cache != nil {
		opts = append(opts, services.WithCache(cache))
	}
	rewriteService := services.NewRewriteService(remote, local.New(), opts...)

	registry := normalisers.NewRegistry(plaintext.New(), markdown.New(), docx.New(), html.New())
	narrationService := services.NewNarrationService(registry, rewriteService, runs)

	cli.SetServices(cli.Services{
		Settings:   settingsService,
		Narration:  narrationService,
		Cache:      cache,
		Metrics:    observer,
		Extensions: registry.SupportedExtensions(),
	})

	return cli.Execute(ctx)
}
