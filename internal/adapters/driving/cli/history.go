package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

// Output formats for history.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

const (
	tabMinWidth = 0
	tabWidth    = 4
	tabPadding  = 2
	shortIDLen  = 8

	// prefixSearchLimit bounds the runs scanned when resolving a short ID.
	prefixSearchLimit = 1000
)

var (
	historyLimit      int
	historyOutput     string
	historyShowOutput string
)

// now is replaced in tests.
var now = time.Now

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent rewrite runs",
	Long: `Lists recent rewrite runs, newest first, with how many chunks came from
the provider, the cache and the local rewriter, and why a run degraded.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one rewrite run",
	Long: `Shows a single run. The ID may be shortened to any unique prefix, such as
the eight characters printed by 'narrator history'.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", outputTable, "output format: table, json or yaml")
	historyShowCmd.Flags().StringVarP(&historyShowOutput, "output", "o", outputTable, "output format: table, json or yaml")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

// runView is the serialised form of a run record.
type runView struct {
	ID             string    `json:"id" yaml:"id"`
	Source         string    `json:"source" yaml:"source"`
	Model          string    `json:"model" yaml:"model"`
	Chunks         int       `json:"chunks" yaml:"chunks"`
	RemoteChunks   int       `json:"remote_chunks" yaml:"remote_chunks"`
	CachedChunks   int       `json:"cached_chunks" yaml:"cached_chunks"`
	FallbackChunks int       `json:"fallback_chunks" yaml:"fallback_chunks"`
	RemoteCalls    int       `json:"remote_calls" yaml:"remote_calls"`
	Degraded       bool      `json:"degraded" yaml:"degraded"`
	Reason         string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	StartedAt      time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time `json:"finished_at" yaml:"finished_at"`
}

func newRunView(rec *domain.RunRecord) runView {
	v := runView{
		ID:             rec.ID,
		Source:         rec.Source,
		Model:          rec.Model,
		Chunks:         rec.Chunks,
		RemoteChunks:   rec.RemoteChunks,
		CachedChunks:   rec.CachedChunks,
		FallbackChunks: rec.FallbackChunks,
		RemoteCalls:    rec.RemoteCalls,
		Degraded:       rec.Degraded,
		StartedAt:      rec.StartedAt.UTC(),
		FinishedAt:     rec.FinishedAt.UTC(),
	}
	if rec.Reason != domain.ErrorKindNone {
		v.Reason = rec.Reason.String()
	}
	return v
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if narrationService == nil {
		return errors.New("narration service not configured")
	}

	records, err := narrationService.History(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	views := make([]runView, len(records))
	for i := range records {
		views[i] = newRunView(&records[i])
	}

	if historyOutput == outputTable {
		return outputHistoryTable(cmd, records)
	}
	return outputStructured(cmd, historyOutput, views)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if narrationService == nil {
		return errors.New("narration service not configured")
	}

	rec, err := findRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if historyShowOutput == outputTable {
		return outputRunDetail(cmd, rec)
	}
	return outputStructured(cmd, historyShowOutput, newRunView(rec))
}

// findRun looks id up exactly, then as a prefix of a recent run's ID.
func findRun(ctx context.Context, id string) (*domain.RunRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("run ID is required")
	}

	rec, err := narrationService.Run(ctx, id)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	records, err := narrationService.History(ctx, prefixSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	var match *domain.RunRecord
	for i := range records {
		if !strings.HasPrefix(records[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("run ID %q is ambiguous", id)
		}
		match = &records[i]
	}
	if match == nil {
		return nil, fmt.Errorf("run %q: %w", id, domain.ErrNotFound)
	}
	return match, nil
}

func outputStructured(cmd *cobra.Command, format string, v any) error {
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	case outputYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
		return err
	default:
		return fmt.Errorf("unknown output format %q (want %s, %s or %s)", format, outputTable, outputJSON, outputYAML)
	}
}

func outputRunDetail(cmd *cobra.Command, rec *domain.RunRecord) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), tabMinWidth, tabWidth, tabPadding, ' ', 0)
	rows := [][2]string{
		{"ID", rec.ID},
		{"Source", rec.Source},
		{"Model", rec.Model},
		{"Started", rec.StartedAt.Local().Format(time.RFC3339) + " (" + humanize.RelTime(rec.StartedAt, now(), "ago", "from now") + ")"},
		{"Duration", rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond).String()},
		{"Chunks", strconv.Itoa(rec.Chunks)},
		{"Remote", strconv.Itoa(rec.RemoteChunks)},
		{"Cached", strconv.Itoa(rec.CachedChunks)},
		{"Local", strconv.Itoa(rec.FallbackChunks)},
		{"Remote calls", strconv.Itoa(rec.RemoteCalls)},
		{"Status", runStatus(rec)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return w.Flush()
}

func outputHistoryTable(cmd *cobra.Command, records []domain.RunRecord) error {
	if len(records) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), tabMinWidth, tabWidth, tabPadding, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tWHEN\tSOURCE\tMODEL\tCHUNKS\tREMOTE/CACHE/LOCAL\tCALLS\tSTATUS"); err != nil {
		return err
	}
	for i := range records {
		rec := &records[i]
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d/%d/%d\t%d\t%s\n",
			shortID(rec.ID),
			humanize.RelTime(rec.StartedAt, now(), "ago", "from now"),
			rec.Source,
			rec.Model,
			rec.Chunks,
			rec.RemoteChunks, rec.CachedChunks, rec.FallbackChunks,
			rec.RemoteCalls,
			runStatus(rec),
		); err != nil {
			return err
		}
	}
	return w.Flush()
}

func runStatus(rec *domain.RunRecord) string {
	switch {
	case rec.Degraded:
		return "degraded (" + rec.Reason.String() + ")"
	case rec.Reason != domain.ErrorKindNone:
		return "failed (" + rec.Reason.String() + ")"
	default:
		return "ok"
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}
