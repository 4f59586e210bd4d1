package filter

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
)

const maxNameLength = 100

// NamedFilter is a saved Filter.
type NamedFilter struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Filter    Filter    `json:"filter"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists named filters. Get and Delete return an error wrapping
// ErrFilterNotFound for unknown ids.
type Store interface {
	Put(ctx context.Context, nf NamedFilter) error
	Get(ctx context.Context, id string) (NamedFilter, error)
	List(ctx context.Context) ([]NamedFilter, error)
	Delete(ctx context.Context, id string) error
}

// NamedFilters assigns ids and timestamps on top of a Store.
type NamedFilters struct {
	store Store
	now   func() time.Time
	newID func() string
}

func NewNamedFilters(store Store) *NamedFilters {
	return &NamedFilters{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Save stores f under name with a fresh id.
func (n *NamedFilters) Save(ctx context.Context, name string, f Filter) (NamedFilter, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return NamedFilter{}, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "filter name must be 1-%d characters", maxNameLength)
	}
	if err := f.Validate(); err != nil {
		return NamedFilter{}, err
	}
	nf := NamedFilter{ID: n.newID(), Name: name, Filter: f, CreatedAt: n.now().UTC()}
	if err := n.store.Put(ctx, nf); err != nil {
		return NamedFilter{}, fmt.Errorf("saving named filter: %w", err)
	}
	return nf, nil
}

// Load returns the Filter saved under id.
func (n *NamedFilters) Load(ctx context.Context, id string) (Filter, error) {
	nf, err := n.store.Get(ctx, id)
	if err != nil {
		return Filter{}, err
	}
	return nf.Filter, nil
}

func (n *NamedFilters) Get(ctx context.Context, id string) (NamedFilter, error) {
	return n.store.Get(ctx, id)
}

// List returns every named filter, oldest first.
func (n *NamedFilters) List(ctx context.Context) ([]NamedFilter, error) {
	return n.store.List(ctx)
}

func (n *NamedFilters) Delete(ctx context.Context, id string) error {
	return n.store.Delete(ctx, id)
}

// MemoryStore keeps named filters in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	filters map[string]NamedFilter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{filters: make(map[string]NamedFilter)}
}

func (m *MemoryStore) Put(_ context.Context, nf NamedFilter) error {
	m.mu.Lock()
	m.filters[nf.ID] = nf
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (NamedFilter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	nf, ok := m.filters[id]
	if !ok {
		return NamedFilter{}, fmt.Errorf("filter %s: %w", id, apperrors.ErrFilterNotFound)
	}
	return nf, nil
}

func (m *MemoryStore) List(context.Context) ([]NamedFilter, error) {
	m.mu.RLock()
	out := make([]NamedFilter, 0, len(m.filters))
	for _, nf := range m.filters {
		out = append(out, nf)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.filters[id]; !ok {
		return fmt.Errorf("filter %s: %w", id, apperrors.ErrFilterNotFound)
	}
	delete(m.filters, id)
	return nil
}
