// Package redis provides a Redis-backed rewrite cache shared between
// narrator processes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.RewriteCache = (*Cache)(nil)

// Defaults for the Redis cache.
const (
	DefaultPrefix = "narrator:rewrite"
	DefaultTTL    = 7 * 24 * time.Hour

	// clearBatch is the SCAN page size used by Clear.
	clearBatch = 500
)

// Cache stores remote rewrites in Redis under a key prefix.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration
	prefix string
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the lifetime of cached rewrites. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// New creates a cache using an existing client.
func New(client *goredis.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		ttl:    DefaultTTL,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to addr and verifies the server answers.
func Dial(ctx context.Context, addr string, opts ...Option) (*Cache, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: redis address is required", domain.ErrInvalidInput)
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCacheUnavailable, addr, err)
	}
	return New(client, opts...), nil
}

// Get retrieves a cached rewrite.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return v, true, nil
}

// Set stores a rewrite with the configured TTL.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Clear deletes every key under the prefix.
func (c *Cache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+":*", clearBatch).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= clearBatch {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis del failed: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis del failed: %w", err)
		}
	}
	return nil
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) key(k string) string {
	return c.prefix + ":" + k
}
