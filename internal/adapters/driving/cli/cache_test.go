package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheClearCmd(t *testing.T) {
	ts := setupTestServices(t)
	ctx := context.Background()
	require.NoError(t, ts.cache.Set(ctx, "k1", "v1"))
	require.NoError(t, ts.cache.Set(ctx, "k2", "v2"))

	stdout, _, err := runCommand(t, "", "cache", "clear")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Rewrite cache cleared.")
	assert.Equal(t, 0, ts.cache.Len())
}

func TestCacheClearCmd_Disabled(t *testing.T) {
	setupTestServices(t)
	prev := rewriteCache
	rewriteCache = nil
	defer func() { rewriteCache = prev }()

	_, _, err := runCommand(t, "", "cache", "clear")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}
