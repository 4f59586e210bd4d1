package record

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Field names accepted by Source.FetchByEquality.
type Field string

const (
	FieldScope    Field = "scope_id"
	FieldKind     Field = "kind"
	FieldCategory Field = "category"
)

// Source supplies the records the index is built from. Every method may fail
// with a data-access error; FetchByID returns an error wrapping
// errors.ErrRecordNotFound when the id is unknown.
type Source interface {
	FetchAll(ctx context.Context) ([]Record, error)
	FetchByID(ctx context.Context, id string) (Record, error)
	// FetchByRange returns records with start <= timestamp <= end. A zero
	// bound is open.
	FetchByRange(ctx context.Context, start, end time.Time) ([]Record, error)
	FetchByEquality(ctx context.Context, field Field, value string) ([]Record, error)
}

// Querier is implemented by sources that can evaluate a whole Criteria
// natively (for example in SQL).
type Querier interface {
	Query(ctx context.Context, c Criteria) ([]Record, error)
}

// Store is a Source that also accepts writes.
type Store interface {
	Source
	Upsert(ctx context.Context, r Record) error
	Delete(ctx context.Context, id string) error
}

// Criteria are the structured predicates a backing store can evaluate
// directly. All predicates are ANDed; empty Kinds or Categories and zero time
// bounds mean no restriction.
type Criteria struct {
	ScopeID    string
	Kinds      []Kind
	Categories []Category
	Start      time.Time
	End        time.Time
}

// Contradictory reports whether the time bounds cannot match anything.
func (c Criteria) Contradictory() bool {
	return !c.Start.IsZero() && !c.End.IsZero() && c.Start.After(c.End)
}

// Match evaluates c against a single record.
func (c Criteria) Match(r Record) bool {
	if c.ScopeID != "" && r.ScopeID != c.ScopeID {
		return false
	}
	if len(c.Kinds) > 0 && !slices.Contains(c.Kinds, r.Kind) {
		return false
	}
	if len(c.Categories) > 0 && !slices.Contains(c.Categories, r.Category()) {
		return false
	}
	if !c.Start.IsZero() && r.Timestamp.Before(c.Start) {
		return false
	}
	if !c.End.IsZero() && r.Timestamp.After(c.End) {
		return false
	}
	return true
}

// Select fetches the records matching c. It uses Querier when src has it;
// otherwise it issues the narrowest fetch the Source interface allows and
// filters the rest in memory.
func Select(ctx context.Context, src Source, c Criteria) ([]Record, error) {
	if c.Contradictory() {
		return []Record{}, nil
	}
	if q, ok := src.(Querier); ok {
		return q.Query(ctx, c)
	}

	var (
		candidates []Record
		err        error
	)
	switch {
	case !c.Start.IsZero() || !c.End.IsZero():
		candidates, err = src.FetchByRange(ctx, c.Start, c.End)
	case c.ScopeID != "":
		candidates, err = src.FetchByEquality(ctx, FieldScope, c.ScopeID)
	case len(c.Kinds) == 1:
		candidates, err = src.FetchByEquality(ctx, FieldKind, c.Kinds[0].String())
	case len(c.Categories) == 1:
		candidates, err = src.FetchByEquality(ctx, FieldCategory, c.Categories[0].String())
	default:
		candidates, err = src.FetchAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("prefetching records: %w", err)
	}

	out := make([]Record, 0, len(candidates))
	for _, r := range candidates {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
