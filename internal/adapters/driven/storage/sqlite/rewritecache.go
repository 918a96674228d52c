package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

// rewriteCache implements driven.RewriteCache.
type rewriteCache struct {
	store *Store
	ttl   time.Duration
}

var _ driven.RewriteCache = (*rewriteCache)(nil)

// Get retrieves a cached rewrite that has not expired.
func (c *rewriteCache) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var createdAt int64
	err := c.store.db.QueryRowContext(ctx,
		"SELECT value, created_at FROM rewrite_cache WHERE key = ?", key,
	).Scan(&value, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying rewrite cache: %w", err)
	}

	if c.ttl > 0 && c.store.now().Sub(time.Unix(0, createdAt)) > c.ttl {
		return "", false, nil
	}
	return value, true, nil
}

// Set stores or replaces a rewrite.
func (c *rewriteCache) Set(ctx context.Context, key, value string) error {
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO rewrite_cache (key, value, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			created_at = excluded.created_at
	`, key, value, c.store.now().UnixNano())
	if err != nil {
		return fmt.Errorf("storing rewrite: %w", err)
	}
	return nil
}

// Clear removes every cached rewrite.
func (c *rewriteCache) Clear(ctx context.Context) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM rewrite_cache"); err != nil {
		return fmt.Errorf("clearing rewrite cache: %w", err)
	}
	return nil
}
