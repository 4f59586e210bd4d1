// Package ranker scores records against a raw query. Scores only order
// results; they never filter them.
package ranker

import (
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer/fuzzy"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
)

const (
	substringWeight = 10.0
	leadingWeight   = 5.0
	kindLabelWeight = 5.0
	fuzzyWordWeight = 2.0
	recencyMax      = 10.0
	recencyPerDay   = 0.1
)

type Options struct {
	// CaseSensitive makes the substring, starts-with and kind-label checks
	// compare original casing. Fuzzy word credit always ignores case.
	CaseSensitive bool
}

type Hit struct {
	Record record.Record `json:"record"`
	Score  float64       `json:"score"`
}

// Score is a pure function of the record, the raw query and now.
func Score(r record.Record, query string, now time.Time, opts Options) float64 {
	text, label := r.Text, r.Kind.Label()
	if !opts.CaseSensitive {
		text, label = strings.ToLower(text), strings.ToLower(label)
	}
	words := tokenizer.Words(strings.ToLower(r.Text))

	var score float64
	for _, raw := range strings.Fields(query) {
		term := raw
		if !opts.CaseSensitive {
			term = strings.ToLower(raw)
		}
		if strings.Contains(text, term) {
			score += substringWeight
			if strings.HasPrefix(text, term) {
				score += leadingWeight
			}
		}
		if strings.Contains(label, term) {
			score += kindLabelWeight
		}
		lowered := strings.ToLower(raw)
		for _, w := range words {
			if fuzzy.Within(lowered, w, 1) {
				score += fuzzyWordWeight
			}
		}
	}
	return score + Recency(r.Timestamp, now)
}

// Recency is max(0, 10 - days*0.1). Records dated in the future get the full
// bonus.
func Recency(ts, now time.Time) float64 {
	days := now.Sub(ts).Hours() / 24
	if days < 0 {
		days = 0
	}
	return max(0, recencyMax-days*recencyPerDay)
}

// Rank scores every record and sorts descending. Order among equal scores is
// unspecified.
func Rank(records []record.Record, query string, now time.Time, opts Options) []Hit {
	hits := make([]Hit, len(records))
	for i, r := range records {
		hits[i] = Hit{Record: r, Score: Score(r, query, now, opts)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}

// Records strips the scores from hits.
func Records(hits []Hit) []record.Record {
	out := make([]record.Record, len(hits))
	for i, h := range hits {
		out[i] = h.Record
	}
	return out
}
