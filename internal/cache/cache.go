// Package cache is the query cache shared by every dashboard view. All reads
// and writes go through keys built by the query package; invalidation is
// always by key prefix, never by mutating cached entries.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	// Get returns the cached payload and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// InvalidateByPrefix drops every key under the given prefix.
	InvalidateByPrefix(ctx context.Context, prefix string) error
}
