package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the rewrite cache",
	Long: `The rewrite cache stores provider rewrites by model and chunk content so
rewriting the same text again spends no quota.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached rewrite",
	Long: `Removes every cached rewrite from the configured backend. Run this after
editing the narration prompt so new rewrites use it.`,
	Args: cobra.NoArgs,
	RunE: runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if rewriteCache == nil {
		return errors.New("rewrite cache is disabled (cache.backend = none)")
	}
	if err := rewriteCache.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	cmd.Println("Rewrite cache cleared.")
	return nil
}
