// Package metrics defines the Prometheus collectors used by the record search
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service. A nil *Metrics is
// valid everywhere it is accepted and records nothing.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   *prometheus.HistogramVec
	FuzzyFallbacksTotal  prometheus.Counter
	CacheHitsTotal       *prometheus.CounterVec
	CacheMissesTotal     *prometheus.CounterVec
	CacheEvictionsTotal  *prometheus.CounterVec
	IndexRebuildsTotal   *prometheus.CounterVec
	IndexRebuildDuration prometheus.Histogram
	IndexMutationsTotal  *prometheus.CounterVec
	IndexRecords         prometheus.Gauge
	IndexTerms           prometheus.Gauge
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates all collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all collectors and registers them with reg. Tests
// pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "record_search_queries_total",
				Help: "Search and filter calls by operation and outcome (ok, zero_result, error).",
			},
			[]string{"operation", "outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "record_search_latency_seconds",
				Help:    "Search and filter latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"operation"},
		),
		SearchResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "record_search_results_count",
				Help:    "Number of records returned per call.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
			[]string{"operation"},
		),
		FuzzyFallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "record_search_fuzzy_fallbacks_total",
				Help: "Query terms resolved through edit-distance fallback.",
			},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aggregate_cache_hits_total",
				Help: "Aggregate cache hits by cache name.",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aggregate_cache_misses_total",
				Help: "Aggregate cache misses by cache name.",
			},
			[]string{"cache"},
		),
		CacheEvictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aggregate_cache_evictions_total",
				Help: "Expired entries evicted by cache name.",
			},
			[]string{"cache"},
		),
		IndexRebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_rebuilds_total",
				Help: "Full index rebuilds by trigger and status.",
			},
			[]string{"trigger", "status"},
		),
		IndexRebuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "index_rebuild_duration_seconds",
				Help:    "Wall time of successful full index rebuilds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		IndexMutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_mutations_total",
				Help: "Incremental index mutations by operation (add, update, remove).",
			},
			[]string{"op"},
		),
		IndexRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_records",
				Help: "Records held by the current index snapshot.",
			},
		),
		IndexTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_terms",
				Help: "Distinct lookup keys (terms and prefixes) in the current index snapshot.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.FuzzyFallbacksTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheEvictionsTotal,
		m.IndexRebuildsTotal,
		m.IndexRebuildDuration,
		m.IndexMutationsTotal,
		m.IndexRecords,
		m.IndexTerms,
		m.CircuitBreakerState,
	)

	return m
}

// ObserveSearch records one search or filter call.
func (m *Metrics) ObserveSearch(operation string, seconds float64, results int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case results == 0:
		outcome = "zero_result"
	}
	m.SearchQueriesTotal.WithLabelValues(operation, outcome).Inc()
	m.SearchLatency.WithLabelValues(operation).Observe(seconds)
	if err == nil {
		m.SearchResultsCount.WithLabelValues(operation).Observe(float64(results))
	}
}

// ObserveRebuild records one full index rebuild.
func (m *Metrics) ObserveRebuild(trigger string, seconds float64, records, terms int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.IndexRebuildsTotal.WithLabelValues(trigger, "error").Inc()
		return
	}
	m.IndexRebuildsTotal.WithLabelValues(trigger, "ok").Inc()
	m.IndexRebuildDuration.Observe(seconds)
	m.IndexRecords.Set(float64(records))
	m.IndexTerms.Set(float64(terms))
}

// ObserveMutation records one incremental index change and the resulting size.
func (m *Metrics) ObserveMutation(op string, records, terms int) {
	if m == nil {
		return
	}
	m.IndexMutationsTotal.WithLabelValues(op).Inc()
	m.IndexRecords.Set(float64(records))
	m.IndexTerms.Set(float64(terms))
}

// IncFuzzyFallback counts a term answered by edit-distance lookup.
func (m *Metrics) IncFuzzyFallback() {
	if m == nil {
		return
	}
	m.FuzzyFallbacksTotal.Inc()
}

// CacheHit, CacheMiss and CacheEvicted feed the aggregate cache counters.
func (m *Metrics) CacheHit(name string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(name).Inc()
}

func (m *Metrics) CacheMiss(name string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(name).Inc()
}

func (m *Metrics) CacheEvicted(name string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CacheEvictionsTotal.WithLabelValues(name).Add(float64(n))
}

// SetBreakerState publishes a circuit breaker transition.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
