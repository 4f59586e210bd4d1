package record

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
)

// MemorySource is a Store held in process memory. It backs the "memory"
// storage backend and the tests.
type MemorySource struct {
	mu      sync.RWMutex
	records map[string]Record
	err     error
}

func NewMemorySource(records ...Record) *MemorySource {
	m := &MemorySource{records: make(map[string]Record, len(records))}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return m
}

// SetError makes every subsequent read fail with err until it is cleared
// with SetError(nil).
func (m *MemorySource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemorySource) FetchAll(ctx context.Context) ([]Record, error) {
	return m.collect(ctx, func(Record) bool { return true })
}

func (m *MemorySource) FetchByID(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return Record{}, m.err
	}
	r, ok := m.records[id]
	if !ok {
		return Record{}, fmt.Errorf("record %s: %w", id, apperrors.ErrRecordNotFound)
	}
	return r, nil
}

func (m *MemorySource) FetchByRange(ctx context.Context, start, end time.Time) ([]Record, error) {
	c := Criteria{Start: start, End: end}
	if c.Contradictory() {
		return []Record{}, nil
	}
	return m.collect(ctx, c.Match)
}

func (m *MemorySource) FetchByEquality(ctx context.Context, field Field, value string) ([]Record, error) {
	var match func(Record) bool
	switch field {
	case FieldScope:
		match = func(r Record) bool { return r.ScopeID == value }
	case FieldKind:
		match = func(r Record) bool { return r.Kind.String() == value }
	case FieldCategory:
		match = func(r Record) bool { return r.Category().String() == value }
	default:
		return nil, fmt.Errorf("unsupported field %q: %w", field, apperrors.ErrInvalidInput)
	}
	return m.collect(ctx, match)
}

func (m *MemorySource) Upsert(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records[r.ID] = r
	return nil
}

func (m *MemorySource) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("record %s: %w", id, apperrors.ErrRecordNotFound)
	}
	delete(m.records, id)
	return nil
}

// collect returns matching records ordered oldest first, then by id.
func (m *MemorySource) collect(ctx context.Context, match func(Record) bool) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
