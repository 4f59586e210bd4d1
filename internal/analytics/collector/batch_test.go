package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/kafka"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, append([]kafka.Event(nil), events...))
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) published() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func (f *fakePublisher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func TestFlushPublishesBufferedEvents(t *testing.T) {
	pub := &fakePublisher{}
	bc := NewBatchCollector(pub, 10, time.Hour)

	bc.Track(analytics.SearchEvent{Operation: analytics.OpSearch, Query: "run"})
	bc.Track(analytics.SearchEvent{Operation: analytics.OpFilter, Query: "learn"})
	assert.Equal(t, 2, bc.BufferLen())

	bc.Flush(context.Background())
	assert.Equal(t, 0, bc.BufferLen())
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "search", pub.batches[0][0].Key)
	assert.Equal(t, "filter", pub.batches[0][1].Key)
}

func TestFlushRequeuesOnFailure(t *testing.T) {
	pub := &fakePublisher{}
	pub.setErr(errors.New("broker down"))
	bc := NewBatchCollector(pub, 2, time.Hour)

	for i := 0; i < 7; i++ {
		bc.buffer = append(bc.buffer, kafka.Event{Key: "search"})
	}
	bc.Flush(context.Background())
	assert.Equal(t, 6, bc.BufferLen(), "capped at three batches")

	pub.setErr(nil)
	bc.Flush(context.Background())
	assert.Equal(t, 0, bc.BufferLen())
	assert.Equal(t, 6, pub.published())
}

func TestFullBatchFlushesInBackground(t *testing.T) {
	pub := &fakePublisher{}
	bc := NewBatchCollector(pub, 2, time.Hour)

	bc.Track(analytics.SearchEvent{Operation: analytics.OpSearch})
	bc.Track(analytics.SearchEvent{Operation: analytics.OpSearch})

	assert.Eventually(t, func() bool { return pub.published() == 2 }, time.Second, 5*time.Millisecond)
}

func TestStartFlushesOnShutdown(t *testing.T) {
	pub := &fakePublisher{}
	bc := NewBatchCollector(pub, 100, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	bc.Start(ctx)

	bc.Track(analytics.SearchEvent{Operation: analytics.OpSuggest, Query: "le"})
	cancel()
	bc.Close()

	assert.Equal(t, 1, pub.published())
}
