package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "a", "b", "c")

	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	defer store.Close()

	info, err := os.Stat(nestedDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(nestedDir, dbFile), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var version int
	err := store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	for _, table := range []string{"rewrite_cache", "rewrite_runs"} {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "table %s should exist", table)
	}
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.up.sql":     {Data: []byte("SELECT 1;")},
		"002_second.up.sql":    {Data: []byte("SELECT 1;")},
		"001_initial.up.sql":   {Data: []byte("SELECT 1;")},
		"001_initial.down.sql": {Data: []byte("SELECT 1;")},
	}

	pending, err := pendingMigrations(fsys, 1)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, 2, pending[0].version)
	assert.Equal(t, 10, pending[1].version)

	_, err = pendingMigrations(fstest.MapFS{"initial.up.sql": {}}, 0)
	assert.Error(t, err)
}

func TestMigrate_FailedMigrationIsNotRecorded(t *testing.T) {
	store := setupTestStore(t)
	fsys := fstest.MapFS{
		"002_broken.up.sql": {Data: []byte("CREATE TABLE broken (;")},
	}

	require.Error(t, store.migrate(fsys))

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.RewriteCache(0).Set(context.Background(), "k", "v"))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	v, ok, err := second.RewriteCache(0).Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestStore_Close(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.Error(t, store.db.Ping())
}

// ==================== RewriteCache Tests ====================

func TestRewriteCache_GetSetClear(t *testing.T) {
	ctx := context.Background()
	cache := setupTestStore(t).RewriteCache(0)

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "key", "rewritten"))
	require.NoError(t, cache.Set(ctx, "key", "rewritten again"))

	v, ok, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "rewritten again", v)

	require.NoError(t, cache.Clear(ctx))
	_, ok, err = cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRewriteCache_TTL(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	cache := store.RewriteCache(time.Hour)

	require.NoError(t, cache.Set(ctx, "key", "value"))

	now = now.Add(30 * time.Minute)
	_, ok, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Hour)
	_, ok, err = cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

// ==================== RunStore Tests ====================

func TestRunStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	runs := setupTestStore(t).RunStore()
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rec := domain.RunRecord{
		ID:             "run-1",
		Source:         "chapter1.docx",
		Model:          "gemini-2.5-flash",
		Chunks:         5,
		RemoteChunks:   1,
		CachedChunks:   0,
		FallbackChunks: 4,
		RemoteCalls:    2,
		Degraded:       true,
		Reason:         domain.ErrorKindQuota,
		StartedAt:      started,
		FinishedAt:     started.Add(3 * time.Second),
	}

	require.NoError(t, runs.Save(ctx, rec))

	got, err := runs.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rec, *got)
}

func TestRunStore_Get_NotFound(t *testing.T) {
	_, err := setupTestStore(t).RunStore().Get(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunStore_List(t *testing.T) {
	ctx := context.Background()
	runs := setupTestStore(t).RunStore()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, runs.Save(ctx, domain.RunRecord{ID: id, StartedAt: at, FinishedAt: at}))
	}

	all, err := runs.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "old", all[2].ID)

	two, err := runs.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, []string{"new", "mid"}, []string{two[0].ID, two[1].ID})
}

func TestRunStore_List_Empty(t *testing.T) {
	runs, err := setupTestStore(t).RunStore().List(context.Background(), 10)

	require.NoError(t, err)
	assert.Empty(t, runs)
}
