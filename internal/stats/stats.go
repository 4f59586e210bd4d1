// Package stats computes aggregates over records (category breakdown, daily
// counts, current streak) and memoizes them through the cache layer. Days
// are UTC calendar days.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/metrics"
)

const (
	dayLayout      = "2006-01-02"
	streakLookback = 366
	cacheBreakdown = "category_breakdown"
	cacheDaily     = "daily_counts"
	cacheStreak    = "streak"
)

// Breakdown counts records per category in [Start, End].
type Breakdown struct {
	Start  time.Time      `json:"start"`
	End    time.Time      `json:"end"`
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}

// DayCount counts the records of one day by kind.
type DayCount struct {
	Date   string         `json:"date"`
	Total  int            `json:"total"`
	ByKind map[string]int `json:"by_kind"`
}

// Streak is the number of consecutive days with at least one record, ending
// today, or yesterday when today has none yet.
type Streak struct {
	Days     int    `json:"days"`
	LastDate string `json:"last_date,omitempty"`
}

// Caches holds one typed cache per aggregate.
type Caches struct {
	Breakdown cache.Cache[Breakdown]
	Daily     cache.Cache[DayCount]
	Streak    cache.Cache[Streak]
}

// MemoryCaches returns process-local caches using defaultTTL.
func MemoryCaches(defaultTTL time.Duration) Caches {
	return Caches{
		Breakdown: cache.NewMemory[Breakdown](cache.WithDefaultTTL(defaultTTL)),
		Daily:     cache.NewMemory[DayCount](cache.WithDefaultTTL(defaultTTL)),
		Streak:    cache.NewMemory[Streak](cache.WithDefaultTTL(defaultTTL)),
	}
}

type Service struct {
	source       record.Source
	breakdown    *cache.Memo[Breakdown]
	daily        *cache.Memo[DayCount]
	streak       *cache.Memo[Streak]
	defaultTTL   time.Duration
	aggregateTTL time.Duration
	now          func() time.Time
}

func New(source record.Source, caches Caches, cfg config.CacheConfig, m *metrics.Metrics) *Service {
	return &Service{
		source:       source,
		breakdown:    cache.NewMemo(cacheBreakdown, caches.Breakdown, m),
		daily:        cache.NewMemo(cacheDaily, caches.Daily, m),
		streak:       cache.NewMemo(cacheStreak, caches.Streak, m),
		defaultTTL:   cfg.DefaultTTL,
		aggregateTTL: cfg.AggregateTTL,
		now:          time.Now,
	}
}

// CategoryBreakdown counts records per category between start and end,
// inclusive. Every category appears in Counts, zero or not.
func (s *Service) CategoryBreakdown(ctx context.Context, start, end time.Time) (Breakdown, error) {
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return Breakdown{}, fmt.Errorf("start %s after end %s: %w", start, end, apperrors.ErrInvalidInput)
	}
	key := fmt.Sprintf("%d:%d", start.Unix(), end.Unix())
	return s.breakdown.GetOrCompute(ctx, key, s.defaultTTL, func(ctx context.Context) (Breakdown, error) {
		recs, err := s.source.FetchByRange(ctx, start, end)
		if err != nil {
			return Breakdown{}, apperrors.Unavailable("category breakdown", err)
		}
		b := Breakdown{Start: start, End: end, Counts: make(map[string]int)}
		for _, c := range record.Categories() {
			b.Counts[c.String()] = 0
		}
		for _, r := range recs {
			b.Counts[r.Category().String()]++
			b.Total++
		}
		return b, nil
	})
}

// DailyCounts counts the records of day's UTC calendar date. Past days are
// cached for the aggregate ttl; today uses the default ttl since it still
// changes.
func (s *Service) DailyCounts(ctx context.Context, day time.Time) (DayCount, error) {
	start := truncateDay(day)
	date := start.Format(dayLayout)
	ttl := s.aggregateTTL
	if date == truncateDay(s.now()).Format(dayLayout) {
		ttl = s.defaultTTL
	}
	return s.daily.GetOrCompute(ctx, date, ttl, func(ctx context.Context) (DayCount, error) {
		recs, err := s.source.FetchByRange(ctx, start, start.Add(24*time.Hour-time.Nanosecond))
		if err != nil {
			return DayCount{}, apperrors.Unavailable("daily counts", err)
		}
		dc := DayCount{Date: date, ByKind: make(map[string]int)}
		for _, r := range recs {
			dc.ByKind[r.Kind.String()]++
			dc.Total++
		}
		return dc, nil
	})
}

// CurrentStreak counts consecutive active days ending today.
func (s *Service) CurrentStreak(ctx context.Context) (Streak, error) {
	today := truncateDay(s.now())
	return s.streak.GetOrCompute(ctx, today.Format(dayLayout), s.defaultTTL, func(ctx context.Context) (Streak, error) {
		from := today.AddDate(0, 0, -streakLookback)
		recs, err := s.source.FetchByRange(ctx, from, today.Add(24*time.Hour-time.Nanosecond))
		if err != nil {
			return Streak{}, apperrors.Unavailable("streak", err)
		}
		active := make(map[string]struct{}, len(recs))
		for _, r := range recs {
			active[truncateDay(r.Timestamp).Format(dayLayout)] = struct{}{}
		}
		day := today
		if _, ok := active[day.Format(dayLayout)]; !ok {
			day = day.AddDate(0, 0, -1)
		}
		var st Streak
		for {
			key := day.Format(dayLayout)
			if _, ok := active[key]; !ok {
				break
			}
			if st.Days == 0 {
				st.LastDate = key
			}
			st.Days++
			day = day.AddDate(0, 0, -1)
		}
		return st, nil
	})
}

// Invalidate drops every cached aggregate, e.g. after a record changed.
func (s *Service) Invalidate(ctx context.Context) error {
	for _, clear := range []func(context.Context) error{s.breakdown.ClearAll, s.daily.ClearAll, s.streak.ClearAll} {
		if err := clear(ctx); err != nil {
			return fmt.Errorf("invalidating aggregates: %w", err)
		}
	}
	return nil
}

// Sweepers exposes the caches to the janitor.
func (s *Service) Sweepers() []cache.Sweeper {
	return []cache.Sweeper{s.breakdown, s.daily, s.streak}
}

func (s *Service) CacheStats() []cache.Stats {
	return []cache.Stats{s.breakdown.Stats(), s.daily.Stats(), s.streak.Stats()}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
