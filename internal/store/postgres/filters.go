package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/filter"
	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
	pkgpostgres "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/postgres"
)

// FilterStore keeps named filters in the named_filters table, the Filter
// value as JSONB.
type FilterStore struct {
	db *pkgpostgres.Client
}

func NewFilterStore(db *pkgpostgres.Client) *FilterStore {
	return &FilterStore{db: db}
}

func (s *FilterStore) Put(ctx context.Context, nf filter.NamedFilter) error {
	data, err := json.Marshal(nf.Filter)
	if err != nil {
		return fmt.Errorf("marshaling filter: %w", err)
	}
	_, err = s.db.DB.ExecContext(ctx, `
		INSERT INTO named_filters (id, name, filter, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, filter = EXCLUDED.filter`,
		nf.ID, nf.Name, data, nf.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storing named filter %s: %w", nf.ID, err)
	}
	return nil
}

func (s *FilterStore) Get(ctx context.Context, id string) (filter.NamedFilter, error) {
	row := s.db.DB.QueryRowContext(ctx,
		`SELECT id, name, filter, created_at FROM named_filters WHERE id = $1`, id)
	nf, err := scanFilter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return filter.NamedFilter{}, fmt.Errorf("filter %s: %w", id, apperrors.ErrFilterNotFound)
	}
	return nf, err
}

func (s *FilterStore) List(ctx context.Context) ([]filter.NamedFilter, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, name, filter, created_at FROM named_filters ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing named filters: %w", err)
	}
	defer rows.Close()

	out := make([]filter.NamedFilter, 0)
	for rows.Next() {
		nf, err := scanFilter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, nf)
	}
	return out, rows.Err()
}

func (s *FilterStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.DB.ExecContext(ctx, `DELETE FROM named_filters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting named filter %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("filter %s: %w", id, apperrors.ErrFilterNotFound)
	}
	return nil
}

func scanFilter(row scanner) (filter.NamedFilter, error) {
	var (
		nf   filter.NamedFilter
		data []byte
	)
	if err := row.Scan(&nf.ID, &nf.Name, &data, &nf.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nf, err
		}
		return nf, fmt.Errorf("scanning named filter: %w", err)
	}
	if err := json.Unmarshal(data, &nf.Filter); err != nil {
		return nf, fmt.Errorf("decoding named filter %s: %w", nf.ID, err)
	}
	nf.CreatedAt = nf.CreatedAt.UTC()
	return nf, nil
}
