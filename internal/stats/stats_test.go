package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
)

var today = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func newService(src record.Source) *Service {
	cfg := config.CacheConfig{DefaultTTL: 5 * time.Minute, AggregateTTL: 24 * time.Hour}
	s := New(src, MemoryCaches(cfg.DefaultTTL), cfg, nil)
	s.now = func() time.Time { return today }
	return s
}

func records() []record.Record {
	return []record.Record{
		{ID: "a", Text: "morning run", Kind: record.KindRun, Timestamp: today.Add(-2 * time.Hour)},
		{ID: "b", Text: "chapter four", Kind: record.KindReading, Timestamp: today.Add(-26 * time.Hour)},
		{ID: "c", Text: "gym legs", Kind: record.KindWorkout, Timestamp: today.Add(-27 * time.Hour)},
		{ID: "d", Text: "plan week", Kind: record.KindTask, Timestamp: today.Add(-50 * time.Hour)},
		{ID: "e", Text: "old note", Kind: record.KindNote, Timestamp: today.AddDate(0, 0, -10)},
	}
}

func TestCategoryBreakdown(t *testing.T) {
	s := newService(record.NewMemorySource(records()...))
	b, err := s.CategoryBreakdown(context.Background(), today.AddDate(0, 0, -3), today)
	require.NoError(t, err)
	assert.Equal(t, 4, b.Total)
	assert.Equal(t, 2, b.Counts["activity"])
	assert.Equal(t, 1, b.Counts["learning"])
	assert.Equal(t, 1, b.Counts["planning"])
	assert.Equal(t, 0, b.Counts["wellbeing"])

	_, err = s.CategoryBreakdown(context.Background(), today, today.Add(-time.Hour))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDailyCountsAreMemoized(t *testing.T) {
	src := record.NewMemorySource(records()...)
	s := newService(src)
	ctx := context.Background()

	yesterday := today.AddDate(0, 0, -1)
	dc, err := s.DailyCounts(ctx, yesterday)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", dc.Date)
	assert.Equal(t, 2, dc.Total)
	assert.Equal(t, map[string]int{"reading": 1, "workout": 1}, dc.ByKind)

	src.SetError(errors.New("down"))
	again, err := s.DailyCounts(ctx, yesterday)
	require.NoError(t, err, "served from cache")
	assert.Equal(t, dc, again)

	require.NoError(t, s.Invalidate(ctx))
	_, err = s.DailyCounts(ctx, yesterday)
	assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)

	stats := s.CacheStats()
	require.Len(t, stats, 3)
	assert.Equal(t, int64(1), stats[1].Hits)
}

func TestCurrentStreak(t *testing.T) {
	s := newService(record.NewMemorySource(records()...))
	st, err := s.CurrentStreak(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Days)
	assert.Equal(t, "2026-10-19", st.LastDate)

	noToday := records()[1:]
	s = newService(record.NewMemorySource(noToday...))
	st, err = s.CurrentStreak(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, st.Days)
	assert.Equal(t, "2026-10-18", st.LastDate)

	s = newService(record.NewMemorySource())
	st, err = s.CurrentStreak(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, st.Days)
}
