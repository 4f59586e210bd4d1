package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/errors"
	pkgpostgres "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/postgres"
)

func openDB(t *testing.T) *pkgpostgres.Client {
	t.Helper()
	host := os.Getenv("RS_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("RS_TEST_POSTGRES_HOST not set")
	}
	cfg := config.Default().Postgres
	cfg.Host = host
	db, err := pkgpostgres.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	_, err = db.DB.Exec(`TRUNCATE records, named_filters`)
	require.NoError(t, err)
	return db
}

var day = time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *RecordStore) {
	t.Helper()
	for _, r := range []record.Record{
		{ID: "a", Text: "learn swift basics", Kind: record.KindStudy, Timestamp: day.Add(8 * time.Hour)},
		{ID: "b", Text: "learn rust ownership", Kind: record.KindStudy, Timestamp: day.Add(9 * time.Hour)},
		{ID: "c", ScopeID: "work", Text: "daily run 5k", Kind: record.KindRun, Timestamp: day.Add(10 * time.Hour)},
	} {
		require.NoError(t, s.Upsert(context.Background(), r))
	}
}

func recordIDs(recs []record.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestRecordStore(t *testing.T) {
	s := NewRecordStore(openDB(t))
	seed(t, s)
	ctx := context.Background()

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, recordIDs(all))

	r, err := s.FetchByID(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "work", r.ScopeID)
	assert.Equal(t, record.KindRun, r.Kind)
	assert.True(t, r.Timestamp.Equal(day.Add(10*time.Hour)))

	_, err = s.FetchByID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrRecordNotFound)

	ranged, err := s.FetchByRange(ctx, day.Add(9*time.Hour), day.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, recordIDs(ranged))

	learning, err := s.FetchByEquality(ctx, record.FieldCategory, "learning")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, recordIDs(learning))

	got, err := record.Select(ctx, s, record.Criteria{
		Kinds:      []record.Kind{record.KindStudy, record.KindRun},
		Categories: []record.Category{record.CategoryActivity},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, recordIDs(got))

	require.NoError(t, s.Upsert(ctx, record.Record{ID: "a", Text: "learn go", Kind: record.KindPractice, Timestamp: day}))
	r, err = s.FetchByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "learn go", r.Text)

	require.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "a"), apperrors.ErrRecordNotFound)
}

func TestFilterStore(t *testing.T) {
	s := NewFilterStore(openDB(t))
	ctx := context.Background()
	named := filter.NewNamedFilters(s)

	f := filter.New()
	f.Kinds = []record.Kind{record.KindRun}
	start := day
	f.Start = &start
	f.Query = "5k"

	saved, err := named.Save(ctx, "runs", f)
	require.NoError(t, err)

	loaded, err := named.Load(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Kinds, loaded.Kinds)
	assert.Equal(t, f.Query, loaded.Query)
	require.NotNil(t, loaded.Start)
	assert.True(t, loaded.Start.Equal(start))

	list, err := named.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "runs", list[0].Name)

	require.NoError(t, named.Delete(ctx, saved.ID))
	_, err = named.Load(ctx, saved.ID)
	assert.ErrorIs(t, err, apperrors.ErrFilterNotFound)
}
