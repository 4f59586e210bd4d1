package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/analytics/collector"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/record"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/searcher/history"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Record-Search-Engine/pkg/resilience"
)

const (
	eventBatchSize       = 100
	eventFlushInterval   = 5 * time.Second
	snapshotSaveInterval = 5 * time.Minute
)

func newServeCmd(configPath *string) *cobra.Command {
	var seedPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the search API. The index is built from the configured store in the
background; /health/ready reports down until the first build finishes.

With kafka.brokers set, record changes are consumed from the record-changes
topic and search events go through the search-events topic to the analytics
aggregator. With redis.addr set, search history and cached aggregates are
shared through Redis.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
			return serve(cfg, seedPath)
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "JSON file of records to store before serving")
	return cmd
}

func serve(cfg *config.Config, seedPath string) error {
	slog.Info("starting record search", "port", cfg.Server.Port, "backend", cfg.Storage.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if seedPath != "" {
		n, err := store.seed(ctx, seedPath)
		if err != nil {
			return err
		}
		slog.Info("seed records stored", "count", n, "path", seedPath)
	}

	source := record.NewGuarded(store.records, resilience.CircuitBreakerConfig{
		OnStateChange: func(name string, from, to resilience.State) {
			m.SetBreakerState(name, int(to))
		},
	})

	engine := indexer.New(source, indexer.OptionsFromConfig(cfg.Index, m))

	checker := health.NewChecker()
	checker.Register("index", health.AgeCheck(engine.BuiltAt, 2*cfg.Index.RefreshInterval))
	if store.db != nil {
		checker.Register("postgres", health.PingCheck(store.db.Ping))
	}

	hist, caches, closeRedis := openRedis(cfg, checker)
	defer closeRedis()

	statsSvc := stats.New(source, caches, cfg.Cache, m)
	janitor, err := cache.NewJanitor(cfg.Cache.JanitorSchedule, statsSvc.Sweepers()...)
	if err != nil {
		return err
	}
	janitor.Start()
	defer func() { <-janitor.Stop().Done() }()

	deps := handler.Deps{
		Engine:   engine,
		Composer: filter.NewComposer(source, engine, hist, m),
		Filters:  filter.NewNamedFilters(store.filters),
		History:  hist,
		Records:  store.records,
		Stats:    statsSvc,
	}

	agg := analytics.NewAggregator(nil)
	if len(cfg.Kafka.Brokers) > 0 {
		changes := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RecordChanges)
		defer changes.Close()
		deps.Changes = changes

		indexConsumer := consumer.New(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.RecordChanges, consumer.HandleMessage(engine)))
		go func() {
			if err := indexConsumer.Start(ctx); err != nil {
				slog.Error("index consumer stopped", "error", err)
			}
		}()

		events := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer events.Close()
		batches := collector.NewBatchCollector(events, eventBatchSize, eventFlushInterval)
		batches.Start(ctx)
		defer batches.Close()
		deps.Tracker = batches

		agg.WithConsumer(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, analytics.HandleEvent(agg)))
		slog.Info("kafka pipelines enabled",
			"brokers", cfg.Kafka.Brokers,
			"record_changes", cfg.Kafka.Topics.RecordChanges,
			"search_events", cfg.Kafka.Topics.SearchEvents,
		)
	} else {
		deps.Tracker = agg
	}
	go func() {
		if err := agg.Start(ctx); err != nil {
			slog.Error("analytics aggregator stopped", "error", err)
		}
	}()

	if store.db != nil {
		saved := aggregator.NewStore(store.db).StartPeriodicSave(ctx, agg, snapshotSaveInterval)
		defer func() { <-saved }()
	}

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	mux := handler.Routes(handler.New(deps, cfg.Search), analytics.NewHandler(agg), checker)
	var h http.Handler = mux
	h = middleware.Timeout(cfg.Server.WriteTimeout)(h)
	h = middleware.Metrics(m)(h)
	h = middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)(h)
	h = middleware.CORS(cfg.Server.CORSOrigins)(h)
	h = middleware.RequestID(h)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	go func() {
		if err := engine.WaitReady(ctx); err != nil && ctx.Err() == nil {
			slog.Error("initial index build failed, serving an empty index until the next rebuild", "error", err)
			return
		}
		if ctx.Err() == nil {
			slog.Info("index ready", "records", engine.Stats().Records)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serverErr:
		if err != nil {
			// Background workers drain on ctx; stop them before the deferred waits.
			stop()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
	slog.Info("record search stopped")
	return nil
}

// openRedis returns search history and aggregate caches backed by Redis when
// redis.addr is set and reachable, and process-local ones otherwise.
func openRedis(cfg *config.Config, checker *health.Checker) (history.Log, stats.Caches, func()) {
	local := func() (history.Log, stats.Caches, func()) {
		return history.NewMemory(cfg.Search.HistorySize), stats.MemoryCaches(cfg.Cache.DefaultTTL), func() {}
	}
	if cfg.Redis.Addr == "" {
		return local()
	}
	client, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, keeping history and caches in memory", "addr", cfg.Redis.Addr, "error", err)
		return local()
	}
	checker.Register("redis", health.PingCheck(client.Ping))

	prefix := cfg.Redis.KeyPrefix
	caches := stats.Caches{
		Breakdown: cache.NewRedis[stats.Breakdown](client, prefix+"breakdown:", cfg.Cache.DefaultTTL),
		Daily:     cache.NewRedis[stats.DayCount](client, prefix+"daily:", cfg.Cache.DefaultTTL),
		Streak:    cache.NewRedis[stats.Streak](client, prefix+"streak:", cfg.Cache.DefaultTTL),
	}
	slog.Info("redis enabled for history and aggregate cache", "addr", cfg.Redis.Addr)
	return history.NewRedis(client, cfg.Redis.HistoryKey, cfg.Search.HistorySize), caches, func() { client.Close() }
}
