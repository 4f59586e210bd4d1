// Package cache is the expiry-based memoization layer used for derived
// aggregates. Entries carry their own ttl; reads evict expired entries
// lazily and ClearExpired sweeps them in bulk.
package cache

import (
	"context"
	"time"
)

// DefaultTTL applies when Store is called with ttl <= 0.
const DefaultTTL = 300 * time.Second

// Cache is implemented by Memory and Redis. A miss is never an error.
type Cache[V any] interface {
	Store(ctx context.Context, key string, value V, ttl time.Duration) error
	Retrieve(ctx context.Context, key string) (V, bool, error)
	Contains(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) error
	ClearAll(ctx context.Context) error
	// ClearExpired evicts every expired entry and returns how many it
	// removed.
	ClearExpired(ctx context.Context) (int, error)
}
