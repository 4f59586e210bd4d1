package aggregator

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/postgres"
)

// newStore connects to the database named by RS_TEST_POSTGRES_HOST, skipping
// the test when it is unset.
func newStore(t *testing.T) *Store {
	t.Helper()
	host := os.Getenv("RS_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("RS_TEST_POSTGRES_HOST not set")
	}
	cfg := config.Default().Postgres
	cfg.Host = host
	db, err := postgres.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	_, err = db.DB.Exec(`TRUNCATE analytics_snapshots`)
	require.NoError(t, err)
	return NewStore(db)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	latest, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		require.NoError(t, s.SaveSnapshot(ctx, analytics.AggregatedStats{TotalEvents: i}))
	}

	latest, err = s.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(3), latest.Stats.TotalEvents)

	list, err := s.ListSnapshots(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].Stats.TotalEvents)
	assert.Equal(t, int64(2), list[1].Stats.TotalEvents)
}

func TestPeriodicSaveWritesFinalSnapshot(t *testing.T) {
	s := newStore(t)
	agg := analytics.NewAggregator(nil)
	agg.Track(analytics.SearchEvent{Operation: analytics.OpSearch, Query: "run", TotalHits: 1})

	ctx, cancel := context.WithCancel(context.Background())
	done := s.StartPeriodicSave(ctx, agg, time.Hour)
	cancel()
	<-done

	latest, err := s.LatestSnapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(1), latest.Stats.TotalEvents)
}
