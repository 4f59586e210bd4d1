package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	createdAt time.Time
	ttl       time.Duration
}

func (e entry[V]) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Memory is a process-local Cache. Its methods never return an error.
type Memory[V any] struct {
	mu         sync.Mutex
	entries    map[string]entry[V]
	defaultTTL time.Duration
	now        func() time.Time
}

type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	defaultTTL time.Duration
	clock      func() time.Time
}

// WithDefaultTTL overrides DefaultTTL.
func WithDefaultTTL(ttl time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.defaultTTL = ttl }
}

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.clock = clock }
}

func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := memoryOptions{defaultTTL: DefaultTTL, clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.defaultTTL <= 0 {
		o.defaultTTL = DefaultTTL
	}
	return &Memory[V]{
		entries:    make(map[string]entry[V]),
		defaultTTL: o.defaultTTL,
		now:        o.clock,
	}
}

// Store overwrites any entry under key.
func (m *Memory[V]) Store(_ context.Context, key string, value V, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry[V]{value: value, createdAt: m.now(), ttl: ttl}
	return nil
}

// Retrieve returns the value if present and unexpired; an expired entry is
// evicted.
func (m *Memory[V]) Retrieve(_ context.Context, key string) (V, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.lookup(key)
	return v, ok, nil
}

func (m *Memory[V]) Contains(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.lookup(key)
	return ok, nil
}

func (m *Memory[V]) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory[V]) ClearAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]entry[V])
	return nil
}

func (m *Memory[V]) ClearExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len counts stored entries, expired ones included until they are evicted.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// lookup must be called with mu held.
func (m *Memory[V]) lookup(key string) (V, bool) {
	var zero V
	e, ok := m.entries[key]
	if !ok {
		return zero, false
	}
	if e.expired(m.now()) {
		delete(m.entries, key)
		return zero, false
	}
	return e.value, true
}
