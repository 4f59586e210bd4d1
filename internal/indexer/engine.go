// Package indexer owns the live index snapshot. Full rebuilds fetch every
// record from the source, build a fresh MemoryIndex and swap it in with one
// atomic store, so readers always see either the old or the new snapshot.
// Incremental add/update/remove mutate the current snapshot and are
// serialized against rebuilds.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/resilience"
)

// Rebuild triggers, used as log fields and metric labels.
const (
	TriggerInitial = "initial"
	TriggerStale   = "stale"
	TriggerManual  = "manual"
)

type Options struct {
	RefreshInterval time.Duration
	Fuzzy           bool
	MaxEditDistance int
	BuildTimeout    time.Duration
	BuildRetries    int
	Metrics         *metrics.Metrics
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func OptionsFromConfig(cfg config.IndexConfig, m *metrics.Metrics) Options {
	return Options{
		RefreshInterval: cfg.RefreshInterval,
		Fuzzy:           cfg.Fuzzy,
		MaxEditDistance: cfg.MaxEditDistance,
		BuildTimeout:    cfg.BuildTimeout,
		BuildRetries:    cfg.BuildRetries,
		Metrics:         m,
	}
}

// Query is one text lookup against the index.
type Query struct {
	Text          string
	Limit         int
	Fields        index.Fields
	Fuzzy         bool
	CaseSensitive bool
}

// Match is the id set a query resolved to, before ranking.
type Match struct {
	IDs index.IDSet
	// FuzzyTerms lists the query terms answered by edit-distance fallback.
	FuzzyTerms []string
}

type Result struct {
	Hits       []ranker.Hit  `json:"hits"`
	Total      int           `json:"total"`
	FuzzyTerms []string      `json:"fuzzy_terms,omitempty"`
	Took       time.Duration `json:"-"`
}

type Engine struct {
	source  record.Source
	opts    Options
	now     func() time.Time
	current atomic.Pointer[index.MemoryIndex]
	// writeMu serializes whole rebuilds (fetch and swap) against incremental
	// mutations.
	writeMu sync.Mutex
	group   singleflight.Group
	ready   chan struct{}
	initErr error
	logger  *slog.Logger
}

// New returns an engine serving an empty snapshot and starts the initial
// build in the background. Use WaitReady to block until it has finished.
func New(source record.Source, opts Options) *Engine {
	e := newEngine(source, opts)
	go func() {
		defer close(e.ready)
		_, err, _ := e.group.Do("rebuild", func() (any, error) {
			return nil, e.rebuild(context.Background(), TriggerInitial)
		})
		e.initErr = err
	}()
	return e
}

func newEngine(source record.Source, opts Options) *Engine {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 5 * time.Minute
	}
	if opts.MaxEditDistance <= 0 {
		opts.MaxEditDistance = 2
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		source: source,
		opts:   opts,
		now:    now,
		ready:  make(chan struct{}),
		logger: slog.Default().With("component", "indexer"),
	}
	e.current.Store(index.NewMemoryIndex())
	return e
}

// WaitReady blocks until the initial build finished and returns its error.
func (e *Engine) WaitReady(ctx context.Context) error {
	select {
	case <-e.ready:
		return e.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the index currently served to readers.
func (e *Engine) Snapshot() *index.MemoryIndex {
	return e.current.Load()
}

// BuiltAt is when the current snapshot was built; zero before the first
// successful build.
func (e *Engine) BuiltAt() time.Time {
	return e.Snapshot().BuiltAt()
}

// Rebuild runs a full build now. Concurrent callers share one build.
func (e *Engine) Rebuild(ctx context.Context) error {
	_, err, _ := e.group.Do("rebuild", func() (any, error) {
		return nil, e.rebuild(ctx, TriggerManual)
	})
	return err
}

// rebuild holds writeMu from the fetch through the swap, so an incremental
// mutation either lands before the fetch or on the new snapshot.
func (e *Engine) rebuild(ctx context.Context, trigger string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	start := e.now()
	var records []record.Record
	err := resilience.Retry(ctx, "index-build", resilience.RetryConfig{MaxAttempts: e.opts.BuildRetries}, func(ctx context.Context) error {
		recs, err := resilience.CallWithTimeout(ctx, e.opts.BuildTimeout, "fetch records", e.source.FetchAll)
		if err != nil {
			return err
		}
		records = recs
		return nil
	})
	if err != nil {
		e.logger.Error("index rebuild failed, keeping previous snapshot", "trigger", trigger, "error", err)
		e.opts.Metrics.ObserveRebuild(trigger, 0, 0, 0, err)
		return apperrors.Unavailable("rebuilding index", err)
	}

	if err := ctx.Err(); err != nil {
		e.logger.Warn("index rebuild abandoned", "trigger", trigger, "error", err)
		e.opts.Metrics.ObserveRebuild(trigger, 0, 0, 0, err)
		return fmt.Errorf("rebuilding index: %w", err)
	}
	next := index.Build(records, start)
	e.current.Store(next)

	took := e.now().Sub(start)
	e.logger.Info("index rebuilt",
		"trigger", trigger,
		"records", next.DocCount(),
		"terms", next.TermCount(),
		"keys", next.KeyCount(),
		"duration", took,
	)
	e.opts.Metrics.ObserveRebuild(trigger, took.Seconds(), next.DocCount(), next.TermCount(), nil)
	return nil
}

// ensureFresh rebuilds synchronously when the snapshot is older than the
// refresh interval. Callers share the build, so it ignores the cancellation
// of whichever caller started it; each fetch is still bounded by
// BuildTimeout.
func (e *Engine) ensureFresh(ctx context.Context) error {
	if !e.stale() {
		return nil
	}
	buildCtx := context.WithoutCancel(ctx)
	_, err, _ := e.group.Do("rebuild", func() (any, error) {
		if !e.stale() {
			return nil, nil
		}
		return nil, e.rebuild(buildCtx, TriggerStale)
	})
	return err
}

func (e *Engine) stale() bool {
	return e.now().Sub(e.BuiltAt()) > e.opts.RefreshInterval
}

// Add indexes r into the current snapshot.
func (e *Engine) Add(r record.Record) {
	e.mutate("add", func(idx *index.MemoryIndex) { idx.Add(r) })
}

// Update replaces whatever was indexed under r.ID.
func (e *Engine) Update(r record.Record) {
	e.mutate("update", func(idx *index.MemoryIndex) { idx.Update(r) })
}

// Remove drops id; unknown ids are ignored.
func (e *Engine) Remove(id string) {
	e.mutate("remove", func(idx *index.MemoryIndex) { idx.Remove(id) })
}

func (e *Engine) mutate(op string, fn func(*index.MemoryIndex)) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	idx := e.current.Load()
	fn(idx)
	e.logger.Debug("index mutated", "op", op, "records", idx.DocCount())
	e.opts.Metrics.ObserveMutation(op, idx.DocCount(), idx.TermCount())
}

// Search runs query with the engine defaults over every indexed field.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]record.Record, error) {
	res, err := e.SearchWith(ctx, Query{Text: query, Limit: limit, Fields: index.AllFields, Fuzzy: e.opts.Fuzzy})
	if err != nil {
		return nil, err
	}
	return ranker.Records(res.Hits), nil
}

// SearchWith resolves q, ranks the matches against the raw query text and
// truncates to q.Limit when positive.
func (e *Engine) SearchWith(ctx context.Context, q Query) (Result, error) {
	start := time.Now()
	m, err := e.MatchIDs(ctx, q)
	if err != nil {
		e.opts.Metrics.ObserveSearch("search", time.Since(start).Seconds(), 0, err)
		return Result{Hits: []ranker.Hit{}}, err
	}
	recs := e.Snapshot().Records(m.IDs)
	hits := ranker.Rank(recs, q.Text, e.now(), ranker.Options{CaseSensitive: q.CaseSensitive})
	total := len(hits)
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	res := Result{Hits: hits, Total: total, FuzzyTerms: m.FuzzyTerms, Took: time.Since(start)}
	e.opts.Metrics.ObserveSearch("search", res.Took.Seconds(), len(hits), nil)
	return res, nil
}

// MatchIDs returns the ids matching every term of q.Text. Each term is looked
// up exactly or by prefix; only when that is empty and q.Fuzzy is set does
// it fall back to edit-distance lookup. An empty query matches nothing.
func (e *Engine) MatchIDs(ctx context.Context, q Query) (Match, error) {
	m := Match{IDs: make(index.IDSet)}
	plan := parser.Parse(q.Text)
	if plan.Empty() {
		return m, nil
	}
	if err := e.ensureFresh(ctx); err != nil {
		return m, err
	}
	fields := q.Fields
	if fields == 0 {
		fields = index.AllFields
	}

	idx := e.Snapshot()
	var acc index.IDSet
	for _, term := range plan.Terms {
		ids := idx.Lookup(term, fields)
		if len(ids) == 0 && q.Fuzzy {
			ids = idx.LookupFuzzy(term, fields, e.opts.MaxEditDistance)
			if len(ids) > 0 {
				m.FuzzyTerms = append(m.FuzzyTerms, term)
				e.opts.Metrics.IncFuzzyFallback()
			}
		}
		if acc == nil {
			acc = ids
		} else {
			acc = acc.Intersect(ids)
		}
		if len(acc) == 0 {
			return m, nil
		}
	}
	m.IDs = acc
	return m, nil
}

// Suggestions returns up to limit indexed terms starting with prefix.
func (e *Engine) Suggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	if err := e.ensureFresh(ctx); err != nil {
		return []string{}, err
	}
	return e.Snapshot().Suggestions(prefix, limit), nil
}

// Stats describes the snapshot being served.
type Stats struct {
	Records int       `json:"records"`
	Terms   int       `json:"terms"`
	Keys    int       `json:"keys"`
	BuiltAt time.Time `json:"built_at"`
	Stale   bool      `json:"stale"`
}

func (e *Engine) Stats() Stats {
	idx := e.Snapshot()
	return Stats{
		Records: idx.DocCount(),
		Terms:   idx.TermCount(),
		Keys:    idx.KeyCount(),
		BuiltAt: idx.BuiltAt(),
		Stale:   e.stale(),
	}
}
