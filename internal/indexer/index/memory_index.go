// Package index implements the in-memory inverted index. Every term is stored
// together with all of its proper prefixes so starts-with lookups are a
// single map access.
package index

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer/fuzzy"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
)

// MemoryIndex is one snapshot of the index: key -> posting, the full terms
// (without prefixes) for suggestions, and the records themselves. A key never
// maps to an empty posting.
type MemoryIndex struct {
	mu       sync.RWMutex
	postings map[string]Posting
	terms    map[string]int
	records  map[string]record.Record
	builtAt  time.Time
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		postings: make(map[string]Posting),
		terms:    make(map[string]int),
		records:  make(map[string]record.Record),
	}
}

// Build indexes records into a fresh MemoryIndex stamped with builtAt.
func Build(records []record.Record, builtAt time.Time) *MemoryIndex {
	m := NewMemoryIndex()
	m.builtAt = builtAt
	for _, r := range records {
		m.update(r)
	}
	return m
}

// BuiltAt is the time of the full build this snapshot came from.
func (m *MemoryIndex) BuiltAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.builtAt
}

// Add indexes r. Adding an id that is already present replaces it, so Add
// and Update are interchangeable.
func (m *MemoryIndex) Add(r record.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.update(r)
}

func (m *MemoryIndex) Update(r record.Record) {
	m.Add(r)
}

// Remove drops id from every posting it appears in. Unknown ids are a no-op.
// It reports whether anything was removed.
func (m *MemoryIndex) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remove(id)
}

func (m *MemoryIndex) update(r record.Record) {
	m.remove(r.ID)
	keys, terms := keysFor(r)
	for key, fields := range keys {
		p, ok := m.postings[key]
		if !ok {
			p = make(Posting)
			m.postings[key] = p
		}
		p[r.ID] |= fields
	}
	for term := range terms {
		m.terms[term]++
	}
	m.records[r.ID] = r
}

func (m *MemoryIndex) remove(id string) bool {
	old, ok := m.records[id]
	if !ok {
		return false
	}
	keys, terms := keysFor(old)
	for key := range keys {
		p, ok := m.postings[key]
		if !ok {
			continue
		}
		delete(p, id)
		if len(p) == 0 {
			delete(m.postings, key)
		}
	}
	for term := range terms {
		if m.terms[term] <= 1 {
			delete(m.terms, term)
		} else {
			m.terms[term]--
		}
	}
	delete(m.records, id)
	return true
}

// Lookup returns the ids whose fields-masked terms equal term or start with
// it. term is lower-cased first.
func (m *MemoryIndex) Lookup(term string, fields Fields) IDSet {
	term = strings.ToLower(term)
	out := make(IDSet)
	if term == "" {
		return out
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.postings[term]; ok {
		p.collect(out, fields)
		return out
	}
	// Only reached when no stored key equals term.
	for key, p := range m.postings {
		if strings.HasPrefix(key, term) {
			p.collect(out, fields)
		}
	}
	return out
}

// LookupFuzzy unions the postings of every key within maxDist edits of term.
func (m *MemoryIndex) LookupFuzzy(term string, fields Fields, maxDist int) IDSet {
	term = strings.ToLower(term)
	out := make(IDSet)
	if term == "" {
		return out
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, p := range m.postings {
		if fuzzy.Within(term, key, maxDist) {
			p.collect(out, fields)
		}
	}
	return out
}

// Suggestions returns up to limit distinct full terms starting with prefix,
// in lexical order. limit <= 0 returns all of them.
func (m *MemoryIndex) Suggestions(prefix string, limit int) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	m.mu.RLock()
	out := make([]string, 0)
	for term := range m.terms {
		if strings.HasPrefix(term, prefix) {
			out = append(out, term)
		}
	}
	m.mu.RUnlock()
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *MemoryIndex) Record(id string) (record.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	return r, ok
}

// Records resolves ids to cached records, skipping ids no longer present.
func (m *MemoryIndex) Records(ids IDSet) []record.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]record.Record, 0, len(ids))
	for id := range ids {
		if r, ok := m.records[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (m *MemoryIndex) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// TermCount is the number of distinct full terms.
func (m *MemoryIndex) TermCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.terms)
}

// KeyCount is the number of lookup keys, prefixes included.
func (m *MemoryIndex) KeyCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.postings)
}

// keysFor derives every lookup key of r with the fields that produced it,
// plus the set of full terms.
func keysFor(r record.Record) (map[string]Fields, map[string]struct{}) {
	keys := make(map[string]Fields)
	terms := make(map[string]struct{})
	add := func(fields Fields, ts []string) {
		for _, t := range ts {
			terms[t] = struct{}{}
			keys[t] |= fields
			for _, p := range tokenizer.Prefixes(t) {
				keys[p] |= fields
			}
		}
	}
	add(FieldText, tokenizer.Tokenize(r.Text))
	add(FieldKind, tokenizer.Tokenize(r.Kind.Label()))
	add(FieldCategory, tokenizer.Tokenize(r.Category().Label()))
	add(FieldDate, CalendarTerms(r.Timestamp))
	return keys, terms
}

// CalendarTerms are the date tokens indexed for a timestamp, taken in UTC
// with English names: 4-digit year, 2-digit month, month name, weekday name.
func CalendarTerms(t time.Time) []string {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return []string{
		t.Format("2006"),
		t.Format("01"),
		strings.ToLower(t.Month().String()),
		strings.ToLower(t.Weekday().String()),
	}
}
