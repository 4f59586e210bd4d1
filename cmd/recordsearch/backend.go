package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/store/postgres"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/config"
	pkgpostgres "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/postgres"
)

// backend is the storage selected by storage.backend.
type backend struct {
	records record.Store
	filters filter.Store
	db      *pkgpostgres.Client
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.Storage.Backend == config.BackendMemory {
		slog.Warn("using in-memory storage, records are lost on exit")
		return &backend{
			records: record.NewMemorySource(),
			filters: filter.NewMemoryStore(),
		}, nil
	}

	db, err := pkgpostgres.New(cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	slog.Info("postgres storage ready", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	return &backend{
		records: postgres.NewRecordStore(db),
		filters: postgres.NewFilterStore(db),
		db:      db,
	}, nil
}

func (b *backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// seed loads a JSON array of records from path and upserts the valid ones.
func (b *backend) seed(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading seed file %s: %w", path, err)
	}
	var records []record.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	stored := 0
	for _, r := range records {
		if err := record.Validate(r); err != nil {
			slog.Warn("skipping invalid seed record", "record_id", r.ID, "error", err)
			continue
		}
		r.Timestamp = r.Timestamp.UTC()
		if err := b.records.Upsert(ctx, r); err != nil {
			return stored, fmt.Errorf("storing seed record %s: %w", r.ID, err)
		}
		stored++
	}
	return stored, nil
}
