package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, p := range domain.AllAIProviders() {
		for _, name := range p.APIKeyEnv() {
			t.Setenv(name, "")
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRewriteCmd_Flags(t *testing.T) {
	assert.Equal(t, "rewrite [file]", rewriteCmd.Use)
	for _, name := range []string{"out", "model", "chunk-max-chars", "no-fallback", "local", "metrics-file"} {
		assert.NotNil(t, rewriteCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "o", rewriteCmd.Flags().Lookup("out").Shorthand)
}

func TestRewriteCmd_NoServices(t *testing.T) {
	prev := narrationService
	narrationService = nil
	defer func() { narrationService = prev }()

	_, _, err := runCommand(t, "", "rewrite", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "narration service not configured")
}

func TestRewriteCmd_FallsBackWithoutProvider(t *testing.T) {
	clearProviderEnv(t)
	ts := setupTestServices(t)
	src := writeFile(t, "chapter.txt", "Dr. Smith arrived at noon.")

	stdout, stderr, err := runCommand(t, "", "rewrite", src)

	require.NoError(t, err)
	assert.NotEmpty(t, stdout)
	assert.Contains(t, stderr, "Rewrote 1 chunks (0 remote, 0 cached, 1 fallback)")
	assert.Contains(t, stderr, "Degraded (configuration)")

	runs, err := ts.runs.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, src, runs[0].Source)
	assert.True(t, runs[0].Degraded)
}

func TestRewriteCmd_WritesOutputFile(t *testing.T) {
	clearProviderEnv(t)
	setupTestServices(t)
	src := writeFile(t, "notes.md", "# Title\n\nSome words here.")
	out := filepath.Join(t.TempDir(), "notes.narration.txt")

	stdout, _, err := runCommand(t, "", "rewrite", src, "--out", out)

	require.NoError(t, err)
	assert.Empty(t, stdout)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Some words here.")
}

func TestRewriteCmd_ReadsStdin(t *testing.T) {
	clearProviderEnv(t)
	ts := setupTestServices(t)

	stdout, _, err := runCommand(t, "Plain words from a pipe.", "rewrite", "-", "--local")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Plain words from a pipe.")
	runs, err := ts.runs.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "stdin", runs[0].Source)
	assert.Equal(t, "local", runs[0].Model)
	assert.False(t, runs[0].Degraded)
}

func TestRewriteCmd_NoFallbackWritesNothing(t *testing.T) {
	clearProviderEnv(t)
	setupTestServices(t)
	src := writeFile(t, "chapter.txt", "Some text.")
	out := filepath.Join(t.TempDir(), "out.txt")

	_, _, err := runCommand(t, "", "rewrite", src, "--no-fallback", "--out", out)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "nothing was written")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRewriteCmd_LocalAndNoFallbackConflict(t *testing.T) {
	setupTestServices(t)

	_, _, err := runCommand(t, "x", "rewrite", "-", "--local", "--no-fallback")

	require.Error(t, err)
}

func TestRewriteCmd_MissingFile(t *testing.T) {
	setupTestServices(t)

	_, _, err := runCommand(t, "", "rewrite", filepath.Join(t.TempDir(), "missing.txt"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read")
}

func TestRewriteCmd_MetricsFile(t *testing.T) {
	clearProviderEnv(t)
	setupTestServices(t)
	src := writeFile(t, "chapter.txt", "Some text.")
	metricsPath := filepath.Join(t.TempDir(), "narrator.prom")

	_, _, err := runCommand(t, "", "rewrite", src, "--metrics-file", metricsPath)

	require.NoError(t, err)
	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "narrator_")
}

func TestFallbackCmd(t *testing.T) {
	clearProviderEnv(t)
	ts := setupTestServices(t)
	src := writeFile(t, "chapter.txt", "First paragraph.\n\nSecond paragraph.")

	stdout, stderr, err := runCommand(t, "", "fallback", src, "--chunk-max-chars", "20")

	require.NoError(t, err)
	assert.Contains(t, stdout, "First paragraph.")
	assert.Contains(t, stdout, "Second paragraph.")
	assert.Contains(t, stderr, "0 remote")
	runs, err := ts.runs.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "local", runs[0].Model)
}

func TestFallbackCmd_HelpMatchesRewrites(t *testing.T) {
	assert.Contains(t, fallbackCmd.Long, "long sentences are split")
	assert.NotContains(t, fallbackCmd.Long, "abbreviation")
}

func TestCurrentRewriteConfig(t *testing.T) {
	t.Run("defaults without settings service", func(t *testing.T) {
		prev := settingsService
		settingsService = nil
		defer func() { settingsService = prev }()

		assert.Equal(t, domain.DefaultRewriteConfig(), currentRewriteConfig())
	})

	t.Run("uses stored settings", func(t *testing.T) {
		clearProviderEnv(t)
		ts := setupTestServices(t)
		require.NoError(t, ts.config.Set("rewrite.chunk_max_chars", 900))

		assert.Equal(t, 900, currentRewriteConfig().ChunkMaxChars)
	})
}

func TestPrintSummary(t *testing.T) {
	r := &domain.RewriteResult{
		Chunks: []domain.ChunkOutcome{
			{Source: domain.SourceRemote},
			{Source: domain.SourceCache},
			{Source: domain.SourceFallback},
		},
		RemoteCalls:    2,
		Degraded:       true,
		DegradedReason: domain.ErrorKindQuota,
	}
	var buf strings.Builder
	printSummary(&buf, r)

	assert.Contains(t, buf.String(), "Rewrote 3 chunks (1 remote, 1 cached, 1 fallback), 2 remote calls")
	assert.Contains(t, buf.String(), "Degraded (quota)")
}
