package record

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/resilience"
)

// Guarded wraps a Source in a circuit breaker. Data-access failures come back
// wrapping errors.ErrSourceUnavailable; a missing record is passed through
// and does not count against the breaker.
type Guarded struct {
	inner   Source
	breaker *resilience.CircuitBreaker
}

func NewGuarded(inner Source, cfg resilience.CircuitBreakerConfig) *Guarded {
	cfg.IsFailure = func(err error) bool {
		return !errors.Is(err, apperrors.ErrRecordNotFound) &&
			!errors.Is(err, apperrors.ErrInvalidInput) &&
			!errors.Is(err, context.Canceled)
	}
	return &Guarded{
		inner:   inner,
		breaker: resilience.NewCircuitBreaker("record-source", cfg),
	}
}

// State exposes the breaker state for health reporting.
func (g *Guarded) State() resilience.State { return g.breaker.GetState() }

func (g *Guarded) FetchAll(ctx context.Context) ([]Record, error) {
	out, err := resilience.Do(g.breaker, func() ([]Record, error) { return g.inner.FetchAll(ctx) })
	return out, g.wrap("fetch all", err)
}

func (g *Guarded) FetchByID(ctx context.Context, id string) (Record, error) {
	out, err := resilience.Do(g.breaker, func() (Record, error) { return g.inner.FetchByID(ctx, id) })
	return out, g.wrap("fetch by id", err)
}

func (g *Guarded) FetchByRange(ctx context.Context, start, end time.Time) ([]Record, error) {
	out, err := resilience.Do(g.breaker, func() ([]Record, error) { return g.inner.FetchByRange(ctx, start, end) })
	return out, g.wrap("fetch by range", err)
}

func (g *Guarded) FetchByEquality(ctx context.Context, field Field, value string) ([]Record, error) {
	out, err := resilience.Do(g.breaker, func() ([]Record, error) { return g.inner.FetchByEquality(ctx, field, value) })
	return out, g.wrap("fetch by equality", err)
}

// Query delegates to the inner source's Querier when it has one and falls
// back to Select otherwise.
func (g *Guarded) Query(ctx context.Context, c Criteria) ([]Record, error) {
	out, err := resilience.Do(g.breaker, func() ([]Record, error) {
		if q, ok := g.inner.(Querier); ok {
			return q.Query(ctx, c)
		}
		return Select(ctx, g.inner, c)
	})
	return out, g.wrap("query", err)
}

func (g *Guarded) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrRecordNotFound) || errors.Is(err, apperrors.ErrInvalidInput) {
		return err
	}
	return apperrors.Unavailable(op, err)
}
