package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/logger"
)

// queryFlags are shared by the one-shot commands.
type queryFlags struct {
	seedPath string
	limit    int
}

func (f *queryFlags) register(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().StringVar(&f.seedPath, "seed", "", "JSON file of records to store first (useful with the memory backend)")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", defaultLimit, "maximum results")
}

// loadEngine opens the configured store and blocks until an index over it
// is built. Logs go to stderr so stdout only carries results.
func loadEngine(ctx context.Context, configPath string, flags queryFlags) (*indexer.Engine, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.SetupWriter(os.Stderr, cfg.Logging.Level, "text")

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if flags.seedPath != "" {
		if _, err := store.seed(ctx, flags.seedPath); err != nil {
			store.Close()
			return nil, nil, err
		}
	}
	engine := indexer.New(store.records, indexer.OptionsFromConfig(cfg.Index, nil))
	if err := engine.WaitReady(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("building index: %w", err)
	}
	return engine, func() { store.Close() }, nil
}

func newSearchCmd(configPath *string) *cobra.Command {
	var (
		flags         queryFlags
		fields        string
		fuzzy         bool
		caseSensitive bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one search against the configured store and print JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := filter.New()
			f.Options = filter.SearchOptions{
				Fields:        filter.FieldScope(fields),
				Fuzzy:         fuzzy,
				CaseSensitive: caseSensitive,
			}
			if err := f.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			engine, closeStore, err := loadEngine(ctx, *configPath, flags)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := engine.SearchWith(ctx, indexer.Query{
				Text:          strings.Join(args, " "),
				Limit:         flags.limit,
				Fields:        f.Options.Fields.IndexFields(),
				Fuzzy:         f.Options.Fuzzy,
				CaseSensitive: f.Options.CaseSensitive,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	flags.register(cmd, 20)
	cmd.Flags().StringVar(&fields, "fields", string(filter.FieldsAll), "message, message_and_kind or all")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", true, "fall back to edit-distance matching for unknown terms")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "prefer hits whose text matches the query's case")
	return cmd
}

func newSuggestCmd(configPath *string) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Print term completions for a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, closeStore, err := loadEngine(ctx, *configPath, flags)
			if err != nil {
				return err
			}
			defer closeStore()

			terms, err := engine.Suggestions(ctx, args[0], flags.limit)
			if err != nil {
				return err
			}
			for _, t := range terms {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
	flags.register(cmd, 10)
	return cmd
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
			if cfg.Storage.Backend != config.BackendPostgres {
				return fmt.Errorf("migrate needs storage.backend %q, got %q", config.BackendPostgres, cfg.Storage.Backend)
			}
			store, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return store.Close()
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
