package ranker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestScoreComponents(t *testing.T) {
	old := now.AddDate(-1, 0, 0)

	r := record.Record{Text: "learn swift basics", Kind: record.KindStudy, Timestamp: old}
	// substring 10 + leading 5 + fuzzy word "learn" 2; no recency after a year.
	assert.InDelta(t, 17.0, Score(r, "learn", now, Options{}), 1e-9)

	mid := record.Record{Text: "swift basics to learn", Kind: record.KindNote, Timestamp: old}
	assert.InDelta(t, 12.0, Score(mid, "learn", now, Options{}), 1e-9)

	label := record.Record{Text: "forty minutes", Kind: record.KindStudy, Timestamp: old}
	assert.InDelta(t, 5.0, Score(label, "study", now, Options{}), 1e-9)

	typo := record.Record{Text: "learn and learn", Kind: record.KindNote, Timestamp: old}
	// "lern" is no substring; both words are one edit away.
	assert.InDelta(t, 4.0, Score(typo, "lern", now, Options{}), 1e-9)
}

func TestRecency(t *testing.T) {
	assert.InDelta(t, 10.0, Recency(now, now), 1e-9)
	assert.InDelta(t, 9.0, Recency(now.AddDate(0, 0, -10), now), 1e-9)
	assert.Equal(t, 0.0, Recency(now.AddDate(0, 0, -200), now))
	assert.InDelta(t, 10.0, Recency(now.Add(48*time.Hour), now), 1e-9)
}

func TestCaseSensitivity(t *testing.T) {
	r := record.Record{Text: "Learn Swift", Kind: record.KindStudy, Timestamp: now.AddDate(-1, 0, 0)}
	insensitive := Score(r, "learn", now, Options{})
	sensitive := Score(r, "learn", now, Options{CaseSensitive: true})
	assert.InDelta(t, 17.0, insensitive, 1e-9)
	assert.InDelta(t, 2.0, sensitive, 1e-9, "only fuzzy credit survives a case mismatch")
	assert.InDelta(t, 17.0, Score(r, "Learn", now, Options{CaseSensitive: true}), 1e-9)
}

func TestRankOrdersByScore(t *testing.T) {
	recs := []record.Record{
		{ID: "run", Text: "daily run 5k", Kind: record.KindRun, Timestamp: now},
		{ID: "swift", Text: "learn swift basics", Kind: record.KindStudy, Timestamp: now},
		{ID: "rust", Text: "learn rust ownership", Kind: record.KindStudy, Timestamp: now},
	}
	hits := Rank(recs, "learn", now, Options{})
	require.Len(t, hits, 3)
	assert.ElementsMatch(t, []string{"swift", "rust"}, []string{hits[0].Record.ID, hits[1].Record.ID})
	assert.Equal(t, "run", hits[2].Record.ID)
	assert.Equal(t, hits[0].Score, hits[1].Score)
	assert.Len(t, Records(hits), 3)
}
