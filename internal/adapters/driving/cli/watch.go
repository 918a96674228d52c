package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/narrator-cli/internal/adapters/driving/watch"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driving"
)

var (
	watchOut      string
	watchLocal    bool
	watchExisting bool
	watchSettle   = watch.DefaultSettle
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Rewrite documents as they appear in a folder",
	Long: `Watches a folder and rewrites every supported document that is created or
changed in it. Narrations are written next to the source, or to --out, as
<name>` + watch.OutputSuffix + `.

Files are processed one at a time so the provider's pacing applies across the
whole folder. Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "directory for narrations (default: the watched directory)")
	watchCmd.Flags().BoolVar(&watchLocal, "local", false, "use the local rewriter only")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also rewrite files already in the folder")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle, "quiet period before a changed file is rewritten")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if narrationService == nil {
		return errors.New("narration service not configured")
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}
	out := dir
	if watchOut != "" {
		if out, err = filepath.Abs(watchOut); err != nil {
			return fmt.Errorf("resolve %s: %w", watchOut, err)
		}
	}

	options := []watch.Option{
		watch.WithSettle(watchSettle),
		watch.WithResultHandler(func(res watch.Result) {
			reportWatchResult(cmd, res)
		}),
	}
	if watchExisting {
		options = append(options, watch.WithExisting())
	}

	opts := driving.NarrateOptions{Config: currentRewriteConfig(), Local: watchLocal}
	w := watch.New(narrationService, dir, out, supportedExtensions, opts, options...)
	defer w.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (writing to %s)\n", dir, out)
	return w.Run(cmd.Context())
}

func reportWatchResult(cmd *cobra.Command, res watch.Result) {
	name := filepath.Base(res.Source)
	if res.Err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", name, res.Err)
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s\n", name, res.Output)
	if res.Narration != nil && res.Narration.Result != nil {
		printSummary(cmd.ErrOrStderr(), res.Narration.Result)
	}
}
