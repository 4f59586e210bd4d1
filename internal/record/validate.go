package record

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
)

const (
	maxIDLength   = 255
	maxTextLength = 4096
)

// ValidationError holds one message per rejected field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return apperrors.ErrInvalidInput }

// Validate checks a record before it is written to a Store or the index.
func Validate(r Record) error {
	errs := make(map[string]string)

	id := strings.TrimSpace(r.ID)
	switch {
	case id == "":
		errs["id"] = "id is required"
	case len(id) > maxIDLength:
		errs["id"] = fmt.Sprintf("id must be at most %d bytes", maxIDLength)
	}
	text := strings.TrimSpace(r.Text)
	switch {
	case text == "":
		errs["text"] = "text is required"
	case utf8.RuneCountInString(text) > maxTextLength:
		errs["text"] = fmt.Sprintf("text must be at most %d characters", maxTextLength)
	}
	if !r.Kind.Valid() {
		errs["kind"] = "kind is required"
	}
	if r.Timestamp.IsZero() {
		errs["timestamp"] = "timestamp is required"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
