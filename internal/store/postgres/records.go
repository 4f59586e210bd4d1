// Package postgres implements the record source and the named-filter store
// on top of the shared lib/pq pool.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
	pkgpostgres "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/postgres"
)

const selectRecords = `SELECT id, scope_id, text, kind, created_at FROM records`

// RecordStore is a record.Store and record.Querier backed by the records
// table.
type RecordStore struct {
	db     *pkgpostgres.Client
	logger *slog.Logger
}

func NewRecordStore(db *pkgpostgres.Client) *RecordStore {
	return &RecordStore{
		db:     db,
		logger: slog.Default().With("component", "record-store"),
	}
}

func (s *RecordStore) FetchAll(ctx context.Context) ([]record.Record, error) {
	return s.query(ctx, selectRecords+` ORDER BY created_at, id`)
}

func (s *RecordStore) FetchByID(ctx context.Context, id string) (record.Record, error) {
	row := s.db.DB.QueryRowContext(ctx, selectRecords+` WHERE id = $1`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, fmt.Errorf("record %s: %w", id, apperrors.ErrRecordNotFound)
	}
	if err != nil {
		return record.Record{}, fmt.Errorf("fetching record %s: %w", id, err)
	}
	return r, nil
}

func (s *RecordStore) FetchByRange(ctx context.Context, start, end time.Time) ([]record.Record, error) {
	return s.Query(ctx, record.Criteria{Start: start, End: end})
}

func (s *RecordStore) FetchByEquality(ctx context.Context, field record.Field, value string) ([]record.Record, error) {
	var column string
	switch field {
	case record.FieldScope:
		column = "scope_id"
	case record.FieldKind:
		column = "kind"
	case record.FieldCategory:
		column = "category"
	default:
		return nil, fmt.Errorf("field %q: %w", field, apperrors.ErrInvalidInput)
	}
	return s.query(ctx, selectRecords+` WHERE `+column+` = $1 ORDER BY created_at, id`, value)
}

// Query evaluates every predicate of c in SQL.
func (s *RecordStore) Query(ctx context.Context, c record.Criteria) ([]record.Record, error) {
	if c.Contradictory() {
		return []record.Record{}, nil
	}
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if c.ScopeID != "" {
		where = append(where, "scope_id = "+arg(c.ScopeID))
	}
	if len(c.Kinds) > 0 {
		names := make([]string, len(c.Kinds))
		for i, k := range c.Kinds {
			names[i] = k.String()
		}
		where = append(where, "kind = ANY("+arg(pq.Array(names))+")")
	}
	if len(c.Categories) > 0 {
		names := make([]string, len(c.Categories))
		for i, cat := range c.Categories {
			names[i] = cat.String()
		}
		where = append(where, "category = ANY("+arg(pq.Array(names))+")")
	}
	if !c.Start.IsZero() {
		where = append(where, "created_at >= "+arg(c.Start.UTC()))
	}
	if !c.End.IsZero() {
		where = append(where, "created_at <= "+arg(c.End.UTC()))
	}

	q := selectRecords
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	return s.query(ctx, q+" ORDER BY created_at, id", args...)
}

// Upsert inserts r or replaces the row with the same id.
func (s *RecordStore) Upsert(ctx context.Context, r record.Record) error {
	_, err := s.db.DB.ExecContext(ctx, `
		INSERT INTO records (id, scope_id, text, kind, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			scope_id = EXCLUDED.scope_id,
			text = EXCLUDED.text,
			kind = EXCLUDED.kind,
			category = EXCLUDED.category,
			created_at = EXCLUDED.created_at`,
		r.ID, r.ScopeID, r.Text, r.Kind.String(), r.Category().String(), r.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting record %s: %w", r.ID, err)
	}
	s.logger.Debug("record upserted", "record_id", r.ID)
	return nil
}

func (s *RecordStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.DB.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, apperrors.ErrRecordNotFound)
	}
	return nil
}

func (s *RecordStore) query(ctx context.Context, q string, args ...any) ([]record.Record, error) {
	rows, err := s.db.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	out := make([]record.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (record.Record, error) {
	var (
		r    record.Record
		kind string
	)
	if err := row.Scan(&r.ID, &r.ScopeID, &r.Text, &kind, &r.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.Record{}, err
		}
		return record.Record{}, fmt.Errorf("scanning record: %w", err)
	}
	k, err := record.ParseKind(kind)
	if err != nil {
		return record.Record{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	r.Kind = k
	r.Timestamp = r.Timestamp.UTC()
	return r, nil
}
