package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/redis"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreRetrieve(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)}
	m := NewMemory[int](WithClock(clock.Now))

	_, ok, err := m.Retrieve(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Store(ctx, "a", 1, 0))
	require.NoError(t, m.Store(ctx, "a", 2, 0))
	v, ok, _ := m.Retrieve(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, v, "store overwrites")

	clock.Advance(DefaultTTL)
	ok, _ = m.Contains(ctx, "a")
	assert.True(t, ok, "expiry is strictly after ttl")

	clock.Advance(time.Second)
	ok, _ = m.Contains(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len(), "expired entry evicted on read")
}

func TestMemoryPerEntryTTLAndClearExpired(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)}
	m := NewMemory[string](WithClock(clock.Now))

	require.NoError(t, m.Store(ctx, "short", "s", time.Minute))
	require.NoError(t, m.Store(ctx, "day", "d", 24*time.Hour))
	require.NoError(t, m.Store(ctx, "default", "x", 0))

	clock.Advance(10 * time.Minute)
	n, err := m.ClearExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, m.Len())

	n, _ = m.ClearExpired(ctx)
	assert.Equal(t, 0, n, "idempotent")

	require.NoError(t, m.Remove(ctx, "day"))
	assert.Equal(t, 0, m.Len())

	require.NoError(t, m.Store(ctx, "a", "1", 0))
	require.NoError(t, m.ClearAll(ctx))
	assert.Equal(t, 0, m.Len())
}

func TestMemoryRealExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[string]()
	require.NoError(t, m.Store(ctx, "k", "v", time.Second))
	time.Sleep(1100 * time.Millisecond)

	_, ok, _ := m.Retrieve(ctx, "k")
	assert.False(t, ok)
	ok, _ = m.Contains(ctx, "k")
	assert.False(t, ok)
}

func TestMemoGetOrCompute(t *testing.T) {
	ctx := context.Background()
	memo := NewMemo[int]("test", NewMemory[int](), nil)

	var calls atomic.Int32
	compute := func(ctx context.Context) (int, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := memo.GetOrCompute(ctx, "answer", time.Minute, compute)
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())

	v, err := memo.GetOrCompute(ctx, "answer", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(1), calls.Load())
	assert.GreaterOrEqual(t, memo.Stats().Hits, int64(1))
	assert.Equal(t, int64(1), memo.Stats().Misses)

	_, err = memo.GetOrCompute(ctx, "broken", time.Minute, func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	assert.Error(t, err)
	ok, _ := memo.Cache().Contains(ctx, "broken")
	assert.False(t, ok, "errors are not cached")
}

func TestJanitorSweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)}
	mem := NewMemory[int](WithClock(clock.Now))
	memo := NewMemo[int]("agg", mem, nil)
	require.NoError(t, mem.Store(ctx, "k", 1, time.Second))

	j, err := NewJanitor("@every 1m", memo)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	j.Sweep()
	assert.Equal(t, 0, mem.Len())

	_, err = NewJanitor("not a schedule", memo)
	assert.Error(t, err)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("RS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RS_TEST_REDIS_ADDR not set")
	}
	client, err := pkgredis.NewClient(config.RedisConfig{Addr: addr, PoolSize: 2})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	c := NewRedis[map[string]int](client, "recordsearch:test:", time.Minute)
	require.NoError(t, c.ClearAll(ctx))

	require.NoError(t, c.Store(ctx, "k", map[string]int{"a": 1}, time.Second))
	v, ok, err := c.Retrieve(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v["a"])

	time.Sleep(1500 * time.Millisecond)
	ok, err = c.Contains(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
