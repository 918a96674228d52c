// Package storage opens the rewrite cache backend selected in settings.
// The backends themselves live in the memory, sqlite and redis packages.
package storage

import (
	"context"
	"fmt"

	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

// CloseFunc releases a cache backend.
type CloseFunc func() error

func noClose() error { return nil }

// OpenRewriteCache returns the cache selected by settings, or nil for the
// "none" backend. The sqlite backend shares store, which must be open.
// The returned CloseFunc is never nil.
func OpenRewriteCache(
	ctx context.Context,
	settings domain.CacheSettings,
	store *sqlite.Store,
) (driven.RewriteCache, CloseFunc, error) {
	switch settings.Backend {
	case "", domain.CacheBackendNone:
		return nil, noClose, nil

	case domain.CacheBackendMemory:
		return memory.NewRewriteCache(), noClose, nil

	case domain.CacheBackendSQLite:
		if store == nil {
			return nil, noClose, fmt.Errorf("%w: sqlite store is not open", domain.ErrCacheUnavailable)
		}
		return store.RewriteCache(settings.TTL), noClose, nil

	case domain.CacheBackendRedis:
		cache, err := redis.Dial(ctx, settings.RedisAddr, redis.WithTTL(settings.TTL))
		if err != nil {
			return nil, noClose, err
		}
		return cache, cache.Close, nil

	default:
		return nil, noClose, fmt.Errorf("%w: cache backend %q", domain.ErrUnsupportedType, settings.Backend)
	}
}
