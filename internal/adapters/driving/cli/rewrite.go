package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driving"
	"github.com/custodia-labs/narrator-cli/internal/logger"
	"github.com/custodia-labs/narrator-cli/internal/normalisers"
)

// stdinArg reads the document from standard input.
const stdinArg = "-"

var (
	rewriteOut           string
	rewriteModel         string
	rewriteChunkMaxChars int
	rewriteNoFallback    bool
	rewriteLocal         bool
	rewriteMetricsFile   string
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [file]",
	Short: "Rewrite a document for narration",
	Long: `Rewrites a .txt, .md, .docx or .html document so it reads naturally aloud.

The document is split into chunks of at most --chunk-max-chars characters.
Each chunk is sent to the configured LLM provider, paced to the configured
requests-per-minute and minimum interval. When the provider reports a quota
limit or a chunk keeps failing, the remaining chunks are rewritten locally
unless --no-fallback is set, in which case the command fails and nothing is
written.

Use "-" to read plain text from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runRewrite,
}

var (
	fallbackOut           string
	fallbackChunkMaxChars int
)

var fallbackCmd = &cobra.Command{
	Use:   "fallback [file]",
	Short: "Rewrite a document with the local rewriter only",
	Long: `Rewrites a document for narration without calling any provider.
Whitespace is tidied, long sentences are split and long paragraphs get a
short spoken transition.`,
	Args: cobra.ExactArgs(1),
	RunE: runFallback,
}

func init() {
	rewriteCmd.Flags().StringVarP(&rewriteOut, "out", "o", "", "write narration to this file instead of stdout")
	rewriteCmd.Flags().StringVarP(&rewriteModel, "model", "m", "", "provider model (default from settings)")
	rewriteCmd.Flags().IntVar(&rewriteChunkMaxChars, "chunk-max-chars", 0, "maximum characters per chunk (default from settings)")
	rewriteCmd.Flags().BoolVar(&rewriteNoFallback, "no-fallback", false, "fail instead of finishing with the local rewriter")
	rewriteCmd.Flags().BoolVar(&rewriteLocal, "local", false, "use the local rewriter only")
	rewriteCmd.Flags().StringVar(&rewriteMetricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	rewriteCmd.MarkFlagsMutuallyExclusive("local", "no-fallback")
	rootCmd.AddCommand(rewriteCmd)

	fallbackCmd.Flags().StringVarP(&fallbackOut, "out", "o", "", "write narration to this file instead of stdout")
	fallbackCmd.Flags().IntVar(&fallbackChunkMaxChars, "chunk-max-chars", 0, "maximum characters per chunk (default from settings)")
	rootCmd.AddCommand(fallbackCmd)
}

func runRewrite(cmd *cobra.Command, args []string) error {
	cfg := currentRewriteConfig()
	if rewriteModel != "" {
		cfg.Model = rewriteModel
	}
	if rewriteChunkMaxChars > 0 {
		cfg.ChunkMaxChars = rewriteChunkMaxChars
	}
	if rewriteNoFallback {
		cfg.FallbackOnExhaustion = false
	}

	err := narrate(cmd, args[0], rewriteOut, driving.NarrateOptions{Config: cfg, Local: rewriteLocal})
	if rewriteMetricsFile != "" && metricsObserver != nil {
		if werr := metricsObserver.WriteFile(rewriteMetricsFile); werr != nil {
			logger.Warn("write metrics: %v", werr)
		}
	}
	return err
}

func runFallback(cmd *cobra.Command, args []string) error {
	cfg := currentRewriteConfig()
	if fallbackChunkMaxChars > 0 {
		cfg.ChunkMaxChars = fallbackChunkMaxChars
	}
	return narrate(cmd, args[0], fallbackOut, driving.NarrateOptions{Config: cfg, Local: true})
}

// narrate rewrites source and writes the narration to out or stdout. A
// summary goes to stderr so stdout stays clean for piping.
func narrate(cmd *cobra.Command, source, out string, opts driving.NarrateOptions) error {
	if narrationService == nil {
		return errors.New("narration service not configured")
	}

	raw, err := readSource(cmd, source)
	if err != nil {
		return err
	}

	n, err := narrationService.Narrate(cmd.Context(), raw, opts)
	if err != nil {
		var rewriteErr *domain.RewriteError
		if errors.As(err, &rewriteErr) {
			return fmt.Errorf("%w\nnothing was written; rerun without --no-fallback or with --local", err)
		}
		return fmt.Errorf("rewrite failed: %w", err)
	}

	if err := writeNarration(cmd, out, n.Result.Text); err != nil {
		return err
	}
	printSummary(cmd.ErrOrStderr(), n.Result)
	return nil
}

func readSource(cmd *cobra.Command, source string) (*domain.RawDocument, error) {
	if source == stdinArg {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return &domain.RawDocument{URI: "stdin", MIMEType: normalisers.MIMEPlainText, Content: content}, nil
	}

	content, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return &domain.RawDocument{URI: source, Content: content}, nil
}

func writeNarration(cmd *cobra.Command, out, text string) error {
	if out == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	}
	if err := os.WriteFile(out, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

func printSummary(w io.Writer, r *domain.RewriteResult) {
	fmt.Fprintf(w, "Rewrote %d chunks (%d remote, %d cached, %d fallback), %d remote calls\n",
		len(r.Chunks),
		r.CountBySource(domain.SourceRemote),
		r.CountBySource(domain.SourceCache),
		r.CountBySource(domain.SourceFallback),
		r.RemoteCalls,
	)
	if r.Degraded {
		fmt.Fprintf(w, "Degraded (%s): remaining chunks used the local rewriter\n", r.DegradedReason)
	}
}

// currentRewriteConfig returns the persisted rewrite settings, or the
// defaults when settings cannot be read.
func currentRewriteConfig() domain.RewriteConfig {
	if settingsService == nil {
		return domain.DefaultRewriteConfig()
	}
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("loading settings: %v", err)
		return domain.DefaultRewriteConfig()
	}
	return settings.RewriteConfig()
}
