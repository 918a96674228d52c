package driven

import "context"

// RewriteCache stores remote rewrites so repeated chunks do not spend quota.
// Keys are opaque content hashes computed by the caller.
type RewriteCache interface {
	// Get returns the cached value and true, or false when absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value under key.
	Set(ctx context.Context, key, value string) error

	// Clear removes every cached entry.
	Clear(ctx context.Context) error
}
