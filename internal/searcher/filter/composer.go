package filter

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/history"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/tracing"
)

// Matcher resolves a text query to record ids. *indexer.Engine satisfies it.
type Matcher interface {
	MatchIDs(ctx context.Context, q indexer.Query) (indexer.Match, error)
}

// Predicate is an extra test applied after text matching.
type Predicate func(record.Record) bool

type Result struct {
	Records    []record.Record `json:"records"`
	Total      int             `json:"total"`
	FuzzyTerms []string        `json:"fuzzy_terms,omitempty"`
}

type Composer struct {
	source  record.Source
	matcher Matcher
	history history.Log
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *slog.Logger
}

// NewComposer wires a composer. hist may be nil to skip history recording.
func NewComposer(source record.Source, matcher Matcher, hist history.Log, m *metrics.Metrics) *Composer {
	return &Composer{
		source:  source,
		matcher: matcher,
		history: hist,
		metrics: m,
		now:     time.Now,
		logger:  slog.Default().With("component", "filter-composer"),
	}
}

func (c *Composer) Apply(ctx context.Context, f Filter) (Result, error) {
	return c.ApplyWhere(ctx, f, nil)
}

// ApplyWhere runs f and keeps only records for which pred holds. On a
// source or index failure it returns an empty result together with an error
// wrapping ErrSourceUnavailable.
func (c *Composer) ApplyWhere(ctx context.Context, f Filter, pred Predicate) (Result, error) {
	start := time.Now()
	res, err := c.apply(ctx, f, pred)
	c.metrics.ObserveSearch("filter", time.Since(start).Seconds(), len(res.Records), err)
	if err != nil {
		c.logger.Warn("filter failed", "query", f.Query, "error", err)
		return Result{Records: []record.Record{}}, err
	}
	if strings.TrimSpace(f.Query) != "" && c.history != nil {
		if err := c.history.Record(ctx, f.Query); err != nil {
			c.logger.Warn("failed to record search history", "error", err)
		}
	}
	return res, nil
}

func (c *Composer) apply(ctx context.Context, f Filter, pred Predicate) (Result, error) {
	if err := f.Validate(); err != nil {
		return Result{}, err
	}
	criteria := f.Criteria()
	if criteria.Contradictory() {
		return Result{Records: []record.Record{}}, nil
	}

	_, span := tracing.Start(ctx, "filter.prefetch")
	candidates, err := record.Select(ctx, c.source, criteria)
	span.SetAttr("candidates", len(candidates))
	span.End()
	if err != nil {
		return Result{}, apperrors.Unavailable("filter prefetch", err)
	}

	var fuzzyTerms []string
	if strings.TrimSpace(f.Query) != "" {
		_, span := tracing.Start(ctx, "filter.match")
		m, err := c.matcher.MatchIDs(ctx, indexer.Query{
			Text:          f.Query,
			Fields:        f.Options.Fields.IndexFields(),
			Fuzzy:         f.Options.Fuzzy,
			CaseSensitive: f.Options.CaseSensitive,
		})
		span.SetAttr("ids", len(m.IDs))
		span.End()
		if err != nil {
			return Result{}, err
		}
		fuzzyTerms = m.FuzzyTerms
		matched := candidates[:0]
		for _, r := range candidates {
			if m.IDs.Has(r.ID) {
				matched = append(matched, r)
			}
		}
		candidates = matched
	}

	if pred != nil {
		kept := candidates[:0]
		for _, r := range candidates {
			if pred(r) {
				kept = append(kept, r)
			}
		}
		candidates = kept
	}

	_, span = tracing.Start(ctx, "filter.order")
	candidates = c.order(candidates, f)
	span.SetAttr("sort", string(f.Sort))
	span.End()
	if candidates == nil {
		candidates = []record.Record{}
	}
	total := len(candidates)
	if f.Limit > 0 && len(candidates) > f.Limit {
		candidates = candidates[:f.Limit]
	}
	return Result{Records: candidates, Total: total, FuzzyTerms: fuzzyTerms}, nil
}

// order sorts stably; records with equal keys keep their prefetch order.
func (c *Composer) order(recs []record.Record, f Filter) []record.Record {
	switch f.Sort {
	case SortOldest:
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
	case SortKind:
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Kind.Label() < recs[j].Kind.Label() })
	case SortRelevance:
		if strings.TrimSpace(f.Query) == "" {
			return recs
		}
		hits := ranker.Rank(recs, f.Query, c.now(), ranker.Options{CaseSensitive: f.Options.CaseSensitive})
		return ranker.Records(hits)
	default:
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.After(recs[j].Timestamp) })
	}
	return recs
}
