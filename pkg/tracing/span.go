// Package tracing records lightweight timing spans for one request. Spans
// nest through the context, share the request id as their trace id, and the
// finished tree is written to slog at debug level.
package tracing

import (
	"context"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/logger"
)

type contextKey struct{}

// Span is one timed step. Children are added by Start calls made with a
// context carrying this span.
type Span struct {
	Name     string
	TraceID  string
	Start    time.Time
	Duration time.Duration
	Children []*Span
	Attrs    map[string]any

	mu    sync.Mutex
	ended bool
}

// Start opens a span. With a span already in ctx the new one becomes its
// child; otherwise it is a root whose trace id is the request id.
func Start(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{
		Name:  name,
		Start: time.Now(),
		Attrs: make(map[string]any),
	}
	if parent := FromContext(ctx); parent != nil {
		span.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.Children = append(parent.Children, span)
		parent.mu.Unlock()
	} else {
		span.TraceID = logger.RequestID(ctx)
	}
	return context.WithValue(ctx, contextKey{}, span), span
}

// FromContext returns the innermost open span, or nil.
func FromContext(ctx context.Context) *Span {
	if span, ok := ctx.Value(contextKey{}).(*Span); ok {
		return span
	}
	return nil
}

// End stops the clock. Calling it again keeps the first duration.
func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		s.ended = true
		s.Duration = time.Since(s.Start)
	}
}

// SetAttr records an attribute. Attributes set after End are dropped.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		s.Attrs[key] = value
	}
}

// Finish ends a root span and logs the whole tree, one line per span.
func (s *Span) Finish(ctx context.Context) {
	s.End()
	log := logger.FromContext(ctx)
	s.walk(0, func(sp *Span, depth int) {
		attrs := []any{
			"trace_id", sp.TraceID,
			"span", sp.Name,
			"duration_us", sp.Duration.Microseconds(),
			"depth", depth,
		}
		for k, v := range sp.Attrs {
			attrs = append(attrs, k, v)
		}
		log.Debug("span", attrs...)
	})
}

func (s *Span) walk(depth int, fn func(*Span, int)) {
	s.mu.Lock()
	children := append([]*Span(nil), s.Children...)
	s.mu.Unlock()

	fn(s, depth)
	for _, c := range children {
		c.walk(depth+1, fn)
	}
}
