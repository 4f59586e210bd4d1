// Package filter turns a Filter value into an ordered, bounded list of
// records by combining structured predicates evaluated by the record source
// with text matching against the index.
package filter

import (
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
)

// FieldScope selects which index terms a text query may match.
type FieldScope string

const (
	// FieldsMessage matches terms from the record text only.
	FieldsMessage FieldScope = "message"
	// FieldsMessageAndKind also accepts words of the kind label.
	FieldsMessageAndKind FieldScope = "message_and_kind"
	// FieldsAll also accepts category names and calendar terms.
	FieldsAll FieldScope = "all"
)

// IndexFields maps the scope onto the index field mask.
func (s FieldScope) IndexFields() index.Fields {
	switch s {
	case FieldsMessage:
		return index.FieldText
	case FieldsMessageAndKind:
		return index.FieldText | index.FieldKind
	default:
		return index.AllFields
	}
}

func (s FieldScope) valid() bool {
	switch s {
	case "", FieldsMessage, FieldsMessageAndKind, FieldsAll:
		return true
	}
	return false
}

type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortOldest    SortOrder = "oldest"
	SortKind      SortOrder = "kind"
	SortRelevance SortOrder = "relevance"
)

func (o SortOrder) valid() bool {
	switch o {
	case "", SortNewest, SortOldest, SortKind, SortRelevance:
		return true
	}
	return false
}

type SearchOptions struct {
	Fields FieldScope `json:"fields"`
	Fuzzy  bool       `json:"fuzzy"`
	// CaseSensitive only changes relevance ordering; index keys are always
	// lower-case.
	CaseSensitive bool `json:"case_sensitive"`
}

// Filter is a pure value describing one query. It owns no index state and
// can be persisted as JSON.
type Filter struct {
	ScopeID    string            `json:"scope_id,omitempty"`
	Kinds      []record.Kind     `json:"kinds,omitempty"`
	Categories []record.Category `json:"categories,omitempty"`
	Start      *time.Time        `json:"start,omitempty"`
	End        *time.Time        `json:"end,omitempty"`
	Query      string            `json:"query,omitempty"`
	Options    SearchOptions     `json:"options"`
	Sort       SortOrder         `json:"sort,omitempty"`
	// Limit of 0 means unbounded.
	Limit int `json:"limit,omitempty"`
}

// New returns a Filter with the default options: every field searched,
// fuzzy fallback on, newest first.
func New() Filter {
	return Filter{
		Options: SearchOptions{Fields: FieldsAll, Fuzzy: true},
		Sort:    SortNewest,
	}
}

// Criteria extracts the predicates a record source can evaluate.
func (f Filter) Criteria() record.Criteria {
	c := record.Criteria{
		ScopeID:    f.ScopeID,
		Kinds:      f.Kinds,
		Categories: f.Categories,
	}
	if f.Start != nil {
		c.Start = *f.Start
	}
	if f.End != nil {
		c.End = *f.End
	}
	return c
}

// Validate rejects unknown enum values and negative limits. Start after End
// is not an error; such a filter simply matches nothing.
func (f Filter) Validate() error {
	if f.Limit < 0 {
		return fmt.Errorf("limit %d: %w", f.Limit, apperrors.ErrInvalidInput)
	}
	if !f.Sort.valid() {
		return fmt.Errorf("sort %q: %w", f.Sort, apperrors.ErrInvalidInput)
	}
	if !f.Options.Fields.valid() {
		return fmt.Errorf("fields %q: %w", f.Options.Fields, apperrors.ErrInvalidInput)
	}
	for _, k := range f.Kinds {
		if !k.Valid() {
			return fmt.Errorf("kind %d: %w", k, apperrors.ErrInvalidInput)
		}
	}
	for _, c := range f.Categories {
		if !c.Valid() {
			return fmt.Errorf("category %d: %w", c, apperrors.ErrInvalidInput)
		}
	}
	return nil
}
