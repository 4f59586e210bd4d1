// Package benchmark holds Go benchmarks for the memory index, the engine and
// the filter pipeline, measuring throughput and allocation behaviour.
package benchmark

import (
	"fmt"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
)

var (
	benchWords = []string{"morning", "run", "learning", "rust", "swift", "evening", "meditation", "report", "strength", "reading"}
	benchKinds = []record.Kind{record.KindRun, record.KindStudy, record.KindMeditation, record.KindTask, record.KindWorkout, record.KindReading}
	benchEpoch = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
)

// corpus returns n deterministic records spread over n/10 days.
func corpus(n int) []record.Record {
	out := make([]record.Record, n)
	for i := range out {
		out[i] = record.Record{
			ID:        fmt.Sprintf("rec-%d", i),
			Text:      fmt.Sprintf("%s %s session %d", benchWords[i%len(benchWords)], benchWords[(i+3)%len(benchWords)], i),
			Kind:      benchKinds[i%len(benchKinds)],
			Timestamp: benchEpoch.Add(time.Duration(i) * 144 * time.Minute),
		}
	}
	return out
}

// BenchmarkMemoryIndexAdd measures per-record insert throughput, every
// prefix key included.
func BenchmarkMemoryIndexAdd(b *testing.B) {
	records := corpus(b.N)
	mi := index.NewMemoryIndex()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mi.Add(records[i])
	}
}

// BenchmarkBuild measures a full snapshot build at several corpus sizes.
func BenchmarkBuild(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		records := corpus(n)
		b.Run(fmt.Sprintf("records_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = index.Build(records, benchEpoch)
			}
		})
	}
}

// BenchmarkLookup measures exact key lookup over 10 000 records.
func BenchmarkLookup(b *testing.B) {
	mi := index.Build(corpus(10000), benchEpoch)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mi.Lookup(benchWords[i%len(benchWords)], index.AllFields)
	}
}

func BenchmarkLookupParallel(b *testing.B) {
	mi := index.Build(corpus(10000), benchEpoch)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = mi.Lookup(benchWords[i%len(benchWords)], index.FieldText)
			i++
		}
	})
}

// BenchmarkLookupFuzzy measures the edit-distance fallback, which scans
// every key.
func BenchmarkLookupFuzzy(b *testing.B) {
	mi := index.Build(corpus(10000), benchEpoch)
	for _, dist := range []int{1, 2} {
		b.Run(fmt.Sprintf("dist_%d", dist), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = mi.LookupFuzzy("meditaton", index.AllFields, dist)
			}
		})
	}
}

func BenchmarkSuggestions(b *testing.B) {
	mi := index.Build(corpus(10000), benchEpoch)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mi.Suggestions("re", 10)
	}
}
