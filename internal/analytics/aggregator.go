package analytics

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/kafka"
)

const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalEvents       int64               `json:"total_events"`
	ByOperation       map[Operation]int64 `json:"by_operation"`
	Failures          int64               `json:"failures"`
	ZeroResultCount   int64               `json:"zero_result_count"`
	FuzzyFallbacks    int64               `json:"fuzzy_fallbacks"`
	AvgLatencyMs      float64             `json:"avg_latency_ms"`
	P50LatencyMs      int64               `json:"p50_latency_ms"`
	P95LatencyMs      int64               `json:"p95_latency_ms"`
	P99LatencyMs      int64               `json:"p99_latency_ms"`
	TopQueries        []QueryCount        `json:"top_queries"`
	ZeroResultQueries []QueryCount        `json:"zero_result_queries"`
	QueriesPerMinute  float64             `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds SearchEvents into running totals. It is fed either by a
// Kafka consumer (HandleEvent) or directly through Track when no broker is
// configured.
type Aggregator struct {
	mu                sync.Mutex
	total             int64
	byOperation       map[Operation]int64
	failures          int64
	zeroResults       int64
	fuzzy             int64
	latencies         []int64
	next              int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time

	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator; consumer may be nil for in-process
// use.
func NewAggregator(consumer *kafka.Consumer) *Aggregator {
	return &Aggregator{
		byOperation:       make(map[Operation]int64),
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		consumer:          consumer,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// WithConsumer attaches the consumer Start reads from. The consumer's handler
// is usually HandleEvent(a), which is why it cannot be passed to
// NewAggregator.
func (a *Aggregator) WithConsumer(consumer *kafka.Consumer) *Aggregator {
	a.consumer = consumer
	return a
}

// Start consumes from Kafka until ctx is cancelled. Without a consumer it
// just waits for ctx.
func (a *Aggregator) Start(ctx context.Context) error {
	if a.consumer == nil {
		<-ctx.Done()
		return nil
	}
	a.logger.Info("analytics aggregator starting")
	return a.consumer.Start(ctx)
}

func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		agg.Track(event)
		return nil
	}
}

// Track records one event.
func (a *Aggregator) Track(event SearchEvent) {
	query := strings.ToLower(strings.TrimSpace(event.Query))

	a.mu.Lock()
	defer a.mu.Unlock()
	a.total++
	a.byOperation[event.Operation]++
	if event.Failed {
		a.failures++
		return
	}
	if event.FuzzyFallback {
		a.fuzzy++
	}
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % maxLatencySamples
	}
	if query == "" {
		return
	}
	a.queryCounts[query]++
	if event.TotalHits == 0 {
		a.zeroResults++
		a.zeroResultQueries[query]++
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := AggregatedStats{
		TotalEvents:     a.total,
		ByOperation:     make(map[Operation]int64, len(a.byOperation)),
		Failures:        a.failures,
		ZeroResultCount: a.zeroResults,
		FuzzyFallbacks:  a.fuzzy,
	}
	for op, n := range a.byOperation {
		stats.ByOperation[op] = n
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalEvents) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN sorts by count descending, then query ascending.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
