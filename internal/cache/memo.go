package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/metrics"
)

// Memo wraps a Cache with compute-on-miss. Concurrent misses for the same key
// share a single computation.
type Memo[V any] struct {
	name    string
	cache   Cache[V]
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewMemo[V any](name string, c Cache[V], m *metrics.Metrics) *Memo[V] {
	return &Memo[V]{
		name:    name,
		cache:   c,
		metrics: m,
		logger:  slog.Default().With("component", "cache", "cache", name),
	}
}

// Cache returns the underlying store for direct maintenance calls.
func (m *Memo[V]) Cache() Cache[V] { return m.cache }

// GetOrCompute returns the cached value for key, or runs compute and stores
// its result for ttl. Compute errors are returned and nothing is stored. A
// failing cache backend degrades to calling compute directly.
func (m *Memo[V]) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := m.lookup(ctx, key); ok {
		return v, nil
	}
	val, err, _ := m.group.Do(key, func() (any, error) {
		if v, ok := m.lookup(ctx, key); ok {
			return v, nil
		}
		m.misses.Add(1)
		m.metrics.CacheMiss(m.name)
		v, err := compute(ctx)
		if err != nil {
			return v, err
		}
		if err := m.cache.Store(ctx, key, v, ttl); err != nil {
			m.logger.Warn("cache store failed", "key", key, "error", err)
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return val.(V), nil
}

func (m *Memo[V]) lookup(ctx context.Context, key string) (V, bool) {
	v, ok, err := m.cache.Retrieve(ctx, key)
	if err != nil {
		m.logger.Warn("cache retrieve failed", "key", key, "error", err)
		return v, false
	}
	if ok {
		m.hits.Add(1)
		m.metrics.CacheHit(m.name)
	}
	return v, ok
}

type Stats struct {
	Name   string `json:"name"`
	Hits   int64  `json:"hits"`
	Misses int64  `json:"misses"`
}

func (m *Memo[V]) Stats() Stats {
	return Stats{Name: m.name, Hits: m.hits.Load(), Misses: m.misses.Load()}
}

// ClearExpired forwards to the cache and counts evictions.
func (m *Memo[V]) ClearExpired(ctx context.Context) (int, error) {
	n, err := m.cache.ClearExpired(ctx)
	m.metrics.CacheEvicted(m.name, n)
	return n, err
}

func (m *Memo[V]) ClearAll(ctx context.Context) error {
	return m.cache.ClearAll(ctx)
}

func (m *Memo[V]) Name() string { return m.name }
