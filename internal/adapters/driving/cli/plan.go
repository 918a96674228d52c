package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

// previewRunes bounds the chunk preview column.
const previewRunes = 48

var planChunkMaxChars int

var planCmd = &cobra.Command{
	Use:   "plan [file]",
	Short: "Show how a document would be chunked",
	Long: `Extracts a document and splits it the way 'narrator rewrite' would, without
calling any provider. Prints each chunk with its size, the number of provider
requests a rewrite needs and the shortest time the configured pacing allows.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().IntVar(&planChunkMaxChars, "chunk-max-chars", 0, "maximum characters per chunk (default from settings)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if narrationService == nil {
		return errors.New("narration service not configured")
	}

	cfg := currentRewriteConfig()
	if planChunkMaxChars > 0 {
		cfg.ChunkMaxChars = planChunkMaxChars
	}

	raw, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}

	plan, err := narrationService.Plan(cmd.Context(), raw, cfg.ChunkMaxChars)
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s characters in %d chunk(s) of at most %s\n\n",
		args[0],
		humanize.Comma(int64(utf8.RuneCountInString(plan.Document.Content))),
		len(plan.Chunks),
		humanize.Comma(int64(cfg.ChunkMaxChars)),
	)

	if len(plan.Chunks) > 0 {
		w := tabwriter.NewWriter(out, tabMinWidth, tabWidth, tabPadding, ' ', 0)
		if _, err := fmt.Fprintln(w, "#\tCHARS\tSTARTS WITH"); err != nil {
			return err
		}
		for _, c := range plan.Chunks {
			if _, err := fmt.Fprintf(w, "%d\t%d\t%s\n", c.Position+1, len(c.Content), preview(c.Content)); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Provider requests: %d\n", len(plan.Chunks))
	fmt.Fprintf(out, "Minimum duration: %s\n", minimumDuration(len(plan.Chunks), cfg).Round(time.Second))
	return nil
}

// minimumDuration is the least time n remote calls take under cfg's pacing,
// assuming every call succeeds at once.
func minimumDuration(n int, cfg domain.RewriteConfig) time.Duration {
	const margin = 500 * time.Millisecond

	var (
		at          time.Duration
		windowStart time.Duration
		inWindow    int
	)
	for i := range n {
		if i > 0 && cfg.MinIntervalBetweenCalls > 0 {
			at += cfg.MinIntervalBetweenCalls
		}
		if cfg.MaxRequestsPerMinute > 0 {
			if at-windowStart >= time.Minute {
				windowStart, inWindow = at, 0
			}
			if inWindow >= cfg.MaxRequestsPerMinute {
				at = windowStart + time.Minute + margin
				windowStart, inWindow = at, 0
			}
			inWindow++
		}
	}
	return at
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	r := []rune(s)
	return string(r[:previewRunes]) + "..."
}
