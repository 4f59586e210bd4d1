package indexer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
)

var monday = time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)

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

func scenario() []record.Record {
	return []record.Record{
		{ID: "r1", Text: "learn swift basics", Kind: record.KindStudy, Timestamp: monday},
		{ID: "r2", Text: "learn rust ownership", Kind: record.KindStudy, Timestamp: monday.Add(time.Hour)},
		{ID: "r3", Text: "daily run 5k", Kind: record.KindRun, Timestamp: monday.Add(2 * time.Hour)},
	}
}

func newTestEngine(t *testing.T, src record.Source, fuzzy bool) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: monday.Add(24 * time.Hour)}
	e := New(src, Options{
		RefreshInterval: 5 * time.Minute,
		Fuzzy:           fuzzy,
		MaxEditDistance: 2,
		BuildRetries:    1,
		Clock:           clock.Now,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.WaitReady(ctx))
	return e, clock
}

func ids(recs []record.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestSearchPrefixScenario(t *testing.T) {
	e, _ := newTestEngine(t, record.NewMemorySource(scenario()...), true)

	got, err := e.Search(context.Background(), "learn", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r1", "r2"}, ids(got))

	got, err = e.Search(context.Background(), "LEA", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r1", "r2"}, ids(got))

	got, err = e.Search(context.Background(), "learn rust", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, ids(got))
}

func TestSearchFuzzyScenario(t *testing.T) {
	e, _ := newTestEngine(t, record.NewMemorySource(scenario()...), true)

	res, err := e.SearchWith(context.Background(), Query{Text: "lern", Limit: 10, Fields: index.AllFields, Fuzzy: true})
	require.NoError(t, err)
	got := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		got = append(got, h.Record.ID)
	}
	assert.ElementsMatch(t, []string{"r1", "r2"}, got)
	assert.Equal(t, []string{"lern"}, res.FuzzyTerms)
}

func TestSearchFuzzyDisabled(t *testing.T) {
	e, _ := newTestEngine(t, record.NewMemorySource(scenario()...), false)
	got, err := e.Search(context.Background(), "lern", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFuzzyOnlyWhenExactEmpty(t *testing.T) {
	recs := append(scenario(), record.Record{ID: "r4", Text: "lean protein meal", Kind: record.KindNote, Timestamp: monday})
	e, _ := newTestEngine(t, record.NewMemorySource(recs...), true)

	got, err := e.Search(context.Background(), "learn", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r1", "r2"}, ids(got), "lean is one edit away but exact hits exist")
}

func TestSearchEmptyQueryAndLimit(t *testing.T) {
	e, _ := newTestEngine(t, record.NewMemorySource(scenario()...), true)

	got, err := e.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.Search(context.Background(), "learn", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = e.Search(context.Background(), "monday", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3, "calendar terms are indexed")
}

func TestIncrementalMaintenance(t *testing.T) {
	e, _ := newTestEngine(t, record.NewMemorySource(scenario()...), false)
	ctx := context.Background()

	e.Add(record.Record{ID: "r9", Text: "evening yoga flow", Kind: record.KindMeditation, Timestamp: monday})
	got, err := e.Search(ctx, "yoga", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"r9"}, ids(got))

	e.Update(record.Record{ID: "r9", Text: "morning stretch", Kind: record.KindMeditation, Timestamp: monday})
	got, err = e.Search(ctx, "yoga", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	e.Remove("r9")
	e.Remove("never-existed")
	got, err = e.Search(ctx, "stretch", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 3, e.Stats().Records)
}

func TestStaleSnapshotRebuildsBeforeSearch(t *testing.T) {
	src := record.NewMemorySource(scenario()...)
	e, clock := newTestEngine(t, src, false)
	ctx := context.Background()

	require.NoError(t, src.Upsert(ctx, record.Record{ID: "r5", Text: "yoga class", Kind: record.KindWorkout, Timestamp: monday}))
	got, err := e.Search(ctx, "yoga", 10)
	require.NoError(t, err)
	assert.Empty(t, got, "snapshot still fresh")

	clock.Advance(6 * time.Minute)
	assert.True(t, e.Stats().Stale)
	got, err = e.Search(ctx, "yoga", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"r5"}, ids(got))
	assert.Equal(t, clock.Now(), e.BuiltAt())
}

func TestFailedRebuildKeepsSnapshot(t *testing.T) {
	src := record.NewMemorySource(scenario()...)
	e, clock := newTestEngine(t, src, false)
	ctx := context.Background()
	before := e.Snapshot()

	src.SetError(errors.New("connection refused"))
	clock.Advance(10 * time.Minute)

	_, err := e.Search(ctx, "learn", 10)
	require.ErrorIs(t, err, apperrors.ErrSourceUnavailable)
	assert.Same(t, before, e.Snapshot())
	assert.Equal(t, 3, e.Snapshot().DocCount())

	require.ErrorIs(t, e.Rebuild(ctx), apperrors.ErrSourceUnavailable)

	src.SetError(nil)
	got, err := e.Search(ctx, "learn", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NotSame(t, before, e.Snapshot())
}

func TestAbandonedRebuildNeverSwaps(t *testing.T) {
	e, _ := newTestEngine(t, record.NewMemorySource(scenario()...), false)
	before := e.Snapshot()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, e.Rebuild(ctx))
	assert.Same(t, before, e.Snapshot())
}

// gatedSource reads the inner source, then holds FetchAll until release is
// closed. Only armed calls are held.
type gatedSource struct {
	record.Source
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) FetchAll(ctx context.Context) ([]record.Record, error) {
	recs, err := g.Source.FetchAll(ctx)
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return recs, err
}

func TestMutationDuringRebuildSurvivesSwap(t *testing.T) {
	src := record.NewMemorySource(scenario()...)
	gated := &gatedSource{Source: src, entered: make(chan struct{}), release: make(chan struct{})}
	e, _ := newTestEngine(t, gated, false)
	ctx := context.Background()

	gated.armed.Store(true)
	rebuilt := make(chan error, 1)
	go func() { rebuilt <- e.Rebuild(ctx) }()
	<-gated.entered

	yoga := record.Record{ID: "r9", Text: "evening yoga flow", Kind: record.KindWorkout, Timestamp: monday}
	require.NoError(t, src.Upsert(ctx, yoga))
	added := make(chan struct{})
	go func() {
		e.Add(yoga)
		close(added)
	}()

	select {
	case <-added:
		t.Fatal("Add finished while the rebuild fetch was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(gated.release)
	require.NoError(t, <-rebuilt)
	<-added

	assert.Equal(t, 4, e.Stats().Records)
	got, err := e.Search(ctx, "yoga", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"r9"}, ids(got))
}

func TestStaleRebuildIgnoresCallerCancellation(t *testing.T) {
	src := record.NewMemorySource(scenario()...)
	e, clock := newTestEngine(t, src, false)

	require.NoError(t, src.Upsert(context.Background(), record.Record{ID: "r5", Text: "yoga class", Kind: record.KindWorkout, Timestamp: monday}))
	clock.Advance(6 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := e.Search(ctx, "yoga", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"r5"}, ids(got))
	assert.Equal(t, clock.Now(), e.BuiltAt())
}

func TestInitialBuildFailure(t *testing.T) {
	src := record.NewMemorySource(scenario()...)
	src.SetError(errors.New("down"))
	e := New(src, Options{BuildRetries: 1})
	err := e.WaitReady(context.Background())
	require.ErrorIs(t, err, apperrors.ErrSourceUnavailable)
	assert.True(t, e.BuiltAt().IsZero())
	assert.Equal(t, 0, e.Stats().Records)
}

func TestConcurrentSearchDuringRebuild(t *testing.T) {
	e, _ := newTestEngine(t, record.NewMemorySource(scenario()...), true)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				got, err := e.Search(ctx, "learn", 10)
				if assert.NoError(t, err) {
					assert.Len(t, got, 2)
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, e.Rebuild(ctx))
	}
	wg.Wait()
}

func TestSuggestions(t *testing.T) {
	e, _ := newTestEngine(t, record.NewMemorySource(scenario()...), false)
	got, err := e.Suggestions(context.Background(), "ru", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"run", "rust"}, got)
}
