// Package history keeps the bounded log of recent search queries, most
// recent first and without duplicates.
package history

import (
	"context"
	"fmt"
	"strings"
	"sync"

	pkgredis "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/redis"
)

const DefaultSize = 20

type Log interface {
	// Record moves query to the front, dropping an earlier copy and the
	// oldest entry past the cap. Blank queries are ignored.
	Record(ctx context.Context, query string) error
	List(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

func normalize(query string) string {
	return strings.TrimSpace(query)
}

// Memory is a process-local Log.
type Memory struct {
	mu      sync.Mutex
	entries []string
	size    int
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	return &Memory{size: size, entries: make([]string, 0, size)}
}

func (m *Memory) Record(_ context.Context, query string) error {
	query = normalize(query)
	if query == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]string, 0, m.size)
	next = append(next, query)
	for _, q := range m.entries {
		if q == query {
			continue
		}
		if len(next) == m.size {
			break
		}
		next = append(next, q)
	}
	m.entries = next
	return nil
}

func (m *Memory) List(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.entries = m.entries[:0]
	m.mu.Unlock()
	return nil
}

// Redis stores the log in a Redis list so it is shared across instances.
type Redis struct {
	client *pkgredis.Client
	key    string
	size   int
}

func NewRedis(client *pkgredis.Client, key string, size int) *Redis {
	if size <= 0 {
		size = DefaultSize
	}
	return &Redis{client: client, key: key, size: size}
}

func (r *Redis) Record(ctx context.Context, query string) error {
	query = normalize(query)
	if query == "" {
		return nil
	}
	if err := r.client.PushCapped(ctx, r.key, query, r.size); err != nil {
		return fmt.Errorf("recording search history: %w", err)
	}
	return nil
}

func (r *Redis) List(ctx context.Context) ([]string, error) {
	entries, err := r.client.Range(ctx, r.key)
	if err != nil {
		return []string{}, fmt.Errorf("listing search history: %w", err)
	}
	if entries == nil {
		entries = []string{}
	}
	return entries, nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key); err != nil {
		return fmt.Errorf("clearing search history: %w", err)
	}
	return nil
}
