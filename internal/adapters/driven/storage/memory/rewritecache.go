package memory

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

// Ensure RewriteCache implements the interface.
var _ driven.RewriteCache = (*RewriteCache)(nil)

// DefaultCacheSize bounds the in-memory cache when no size is given.
const DefaultCacheSize = 4096

// RewriteCache is an in-memory implementation of driven.RewriteCache.
// It keeps at most size entries and evicts the least recently used.
type RewriteCache struct {
	entries *lru.Cache[string, string]
}

// NewRewriteCache creates a new in-memory rewrite cache holding up to size
// entries. A non-positive size uses DefaultCacheSize.
func NewRewriteCache(size ...int) *RewriteCache {
	n := DefaultCacheSize
	if len(size) > 0 && size[0] > 0 {
		n = size[0]
	}
	entries, err := lru.New[string, string](n)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &RewriteCache{entries: entries}
}

// Get retrieves a cached rewrite.
func (c *RewriteCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.entries.Get(key)
	return v, ok, nil
}

// Set stores a rewrite.
func (c *RewriteCache) Set(_ context.Context, key, value string) error {
	c.entries.Add(key, value)
	return nil
}

// Clear removes every entry.
func (c *RewriteCache) Clear(_ context.Context) error {
	c.entries.Purge()
	return nil
}

// Len returns the number of cached entries.
func (c *RewriteCache) Len() int {
	return c.entries.Len()
}
