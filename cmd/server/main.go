// Command server runs the word distance service: the HTTP API, the optional
// RPC listener, and the Kafka consumers for asynchronous ingestion and query
// analytics.
//
// Redis, PostgreSQL and Kafka are each optional; with all three disabled the
// server runs standalone on its segment directory.
//
// Usage:
//
//	go run ./cmd/server [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/analytics/snapshot"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/api/handler"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/api/router"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/api/rpcapi"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion/consumer"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/query"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/query/cache"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/storage/segment"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/worddistance/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/rpc"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("word distance service stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting word distance service",
		"port", cfg.Server.Port,
		"data_dir", cfg.Storage.DataDir,
	)
	m := metrics.New()
	limits := validator.Limits{MaxWords: cfg.Query.MaxWords, MaxNameLength: cfg.Query.MaxNameLength}

	store, err := segment.OpenDir(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening segment directory: %w", err)
	}
	registry := corpus.NewRegistry(store, limits)
	registry.SetMetrics(m)
	if _, err := registry.Load(ctx); err != nil {
		return err
	}

	checker := health.NewChecker()
	checker.Register("corpora", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d corpora registered", registry.Len())}
	})

	aggregator := analytics.NewAggregator()
	opts := []query.Option{
		query.WithMetrics(m),
		query.WithTimeout(cfg.Query.Timeout),
	}

	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, distance caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
				OnStateChange: func(name string, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			opts = append(opts, query.WithCache(cache.New(redisClient, cfg.Redis.CacheTTL, breaker)))
			checker.Register("redis", health.PingCheck(redisClient.Ping, false))
			slog.Info("distance cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	// Interfaces stay nil unless their backing service is configured.
	var (
		cat       *catalog.Catalog
		snapshots *snapshot.Store
		ingester  handler.Ingester = registry
		apiCat    handler.Catalog
		statusCat consumer.StatusUpdater
	)
	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		cat = catalog.New(db)
		if err := cat.EnsureSchema(ctx); err != nil {
			return err
		}
		apiCat, statusCat = cat, cat
		if cfg.Query.SnapshotInterval > 0 {
			snapshots = snapshot.NewStore(db)
			if err := snapshots.EnsureSchema(ctx); err != nil {
				return err
			}
		}
		checker.Register("postgres", health.PingCheck(db.Ping, true))
		slog.Info("corpus catalog ready", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	}

	g, gctx := errgroup.WithContext(ctx)

	var statsHistory http.HandlerFunc
	if snapshots != nil {
		statsHistory = snapshots.HistoryHandler()
		g.Go(func() error { return snapshots.Run(gctx, aggregator, cfg.Query.SnapshotInterval) })
	}

	if cfg.Kafka.Enabled {
		collector := analytics.NewCollector(
			kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents),
			cfg.Query.EventBuffer, 100, time.Second,
		)
		collector.Start(gctx)
		defer collector.Close()
		opts = append(opts, query.WithTracker(collector))

		eventsConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents, analytics.HandleEvent(aggregator))
		defer eventsConsumer.Close()
		g.Go(func() error { return eventsConsumer.Start(gctx) })

		if cat != nil {
			producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CorpusIngest)
			defer producer.Close()
			ingester = publisher.New(cat, producer, limits)

			ingestConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CorpusIngest,
				consumer.HandleMessage(registry, statusCat, collector))
			defer ingestConsumer.Close()
			g.Go(func() error { return ingestConsumer.Start(gctx) })
			slog.Info("asynchronous ingestion enabled", "topic", cfg.Kafka.Topics.CorpusIngest)
		} else {
			slog.Warn("kafka enabled without postgres, ingestion stays synchronous")
		}
		slog.Info("query analytics streaming", "topic", cfg.Kafka.Topics.QueryEvents)
	} else {
		opts = append(opts, query.WithRecorder(aggregator))
	}

	var limiter *ratelimit.Limiter
	if cfg.Server.RateLimit > 0 {
		limiter = ratelimit.New(cfg.Server.RateLimit, time.Minute)
		go limiter.RunCleanup(gctx, 5*time.Minute)
	}

	svc := query.NewService(registry, opts...)
	h := handler.New(registry, ingester, svc, apiCat)
	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router.New(h, router.Options{
			Health:         checker,
			Stats:          analytics.NewHandler(aggregator),
			StatsHistory:   statsHistory,
			Metrics:        m,
			Limiter:        limiter,
			CORSOrigins:    cfg.Server.CORSOrigins,
			RequestTimeout: cfg.Server.WriteTimeout,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.RPC.Enabled {
		rpcServer := rpc.NewServer()
		rpcapi.Register(rpcServer, svc, registry, m)
		ln, err := rpcServer.Listen(fmt.Sprintf(":%d", cfg.RPC.Port))
		if err != nil {
			return err
		}
		g.Go(func() error { return rpcServer.Serve(ln) })
		g.Go(func() error {
			<-gctx.Done()
			rpcServer.Stop()
			return nil
		})
	}

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, m)
		defer shutdownMetrics(context.Background())
	}

	g.Go(func() error {
		slog.Info("word distance service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
