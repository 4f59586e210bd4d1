package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/redis"
)

// Redis is a Cache shared across processes. Values are stored as JSON under
// prefix+key and expire through Redis key TTLs, so ClearExpired has nothing
// to sweep.
type Redis[V any] struct {
	client     *pkgredis.Client
	prefix     string
	defaultTTL time.Duration
}

func NewRedis[V any](client *pkgredis.Client, prefix string, defaultTTL time.Duration) *Redis[V] {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Redis[V]{client: client, prefix: prefix, defaultTTL: defaultTTL}
}

func (r *Redis[V]) Store(ctx context.Context, key string, value V, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache value %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, ttl); err != nil {
		return fmt.Errorf("storing cache value %s: %w", key, err)
	}
	return nil
}

func (r *Redis[V]) Retrieve(ctx context.Context, key string) (V, bool, error) {
	var zero V
	data, err := r.client.Get(ctx, r.prefix+key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("reading cache value %s: %w", key, err)
	}
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		// An undecodable entry is treated as a miss and dropped.
		_ = r.client.Del(ctx, r.prefix+key)
		return zero, false, nil
	}
	return v, true, nil
}

func (r *Redis[V]) Contains(ctx context.Context, key string) (bool, error) {
	return r.client.Exists(ctx, r.prefix+key)
}

func (r *Redis[V]) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key)
}

func (r *Redis[V]) ClearAll(ctx context.Context) error {
	_, err := r.client.DeleteByPrefix(ctx, r.prefix)
	return err
}

func (r *Redis[V]) ClearExpired(context.Context) (int, error) {
	return 0, nil
}
