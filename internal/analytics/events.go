// Package analytics tracks how the search surface is used: every search,
// filter and suggestion call becomes a SearchEvent that is either published
// to Kafka or aggregated in process.
package analytics

import "time"

type Operation string

const (
	OpSearch  Operation = "search"
	OpFilter  Operation = "filter"
	OpSuggest Operation = "suggest"
)

type SearchEvent struct {
	Operation     Operation `json:"operation"`
	Query         string    `json:"query"`
	Terms         []string  `json:"terms,omitempty"`
	TotalHits     int       `json:"total_hits"`
	Returned      int       `json:"returned"`
	LatencyMs     int64     `json:"latency_ms"`
	FuzzyFallback bool      `json:"fuzzy_fallback"`
	Failed        bool      `json:"failed,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id,omitempty"`
}

// Tracker accepts events. Implementations must not block the caller.
type Tracker interface {
	Track(event SearchEvent)
}

// Discard is a Tracker that drops everything.
type Discard struct{}

func (Discard) Track(SearchEvent) {}
