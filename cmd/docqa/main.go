package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/gateway/middleware"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/gateway/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/gateway/router"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/extract"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/storage"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/executor"
	searchhandler "github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docqa/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting docqa", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	var background sync.WaitGroup

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := m.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	if cfg.Tracing.Enabled {
		shutdownTracing := tracing.Setup(cfg.Tracing.ServiceName, cfg.Tracing.SampleRatio)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				slog.Error("tracing shutdown error", "error", err)
			}
		}()
	}

	checker := health.NewChecker(5 * time.Second)

	// Analytics: events go through Kafka when enabled, otherwise straight
	// into the in-process aggregator.
	agg := analytics.NewAggregator()
	var eventPublisher analytics.Publisher = analytics.LocalPublisher{Aggregator: agg}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		eventPublisher = producer

		events := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, agg.HandleMessage)
		background.Go(func() {
			if err := events.Run(ctx); err != nil {
				slog.Error("analytics consumer error", "error", err)
			}
		})
		slog.Info("analytics via kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topics.AnalyticsEvents)
	}
	collector := analytics.NewCollector(eventPublisher, cfg.Analytics.BufferSize)
	collector.Start(ctx)

	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, analytics snapshots disabled", "error", err)
		} else {
			defer db.Close()
			snapshots := aggregator.NewStore(db, 0)
			if err := snapshots.EnsureSchema(ctx); err != nil {
				slog.Error("analytics schema migration failed", "error", err)
			} else {
				if err := snapshots.Restore(ctx, agg); err != nil {
					slog.Warn("analytics restore failed", "error", err)
				}
				background.Go(func() {
					snapshots.Run(ctx, agg, cfg.Analytics.SnapshotInterval)
				})
			}
			checker.Register("postgres", health.OptionalPingCheck(db))
		}
	}

	var answerCache *cache.AnswerCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, answer caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			answerCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			checker.Register("redis", health.OptionalPingCheck(redisClient))
			slog.Info("answer cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	store := index.NewStore()
	tok := tokenizer.New(tokenizer.FromEngineConfig(cfg.Engine))
	engine := indexer.NewEngine(store, tok, index.FromEngineConfig(cfg.Engine), m, collector)
	checker.Register("document", health.DocumentCheck(func() int { return store.Current().Len() }))

	disk, err := storage.NewDisk(cfg.Upload.Dir)
	if err != nil {
		slog.Error("failed to prepare upload directory", "dir", cfg.Upload.Dir, "error", err)
		os.Exit(1)
	}
	pub := publisher.New(disk, extract.Auto{}, engine, cfg.Upload.ExtractTimeout)

	if cfg.Kafka.Enabled && cfg.Kafka.Topics.Documents != "" {
		docs := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Documents, consumer.HandleMessage(engine, cfg.Upload.MaxBytes))
		background.Go(func() {
			if err := docs.Run(ctx); err != nil {
				slog.Error("document consumer error", "error", err)
			}
		})
		slog.Info("consuming documents from kafka", "topic", cfg.Kafka.Topics.Documents)
	}

	opts := searcher.Options{Metrics: m, Collector: collector}
	if answerCache != nil {
		opts.Cache = answerCache
	}
	s := searcher.New(store, tok, executor.FromEngineConfig(cfg.Engine), opts)

	deps := router.Deps{
		Ingestion:      ingesthandler.New(pub, cfg.Upload.FieldName, cfg.Upload.MaxBytes),
		Search:         searchhandler.New(s, answerCache, cfg.Engine.MaxQuestionLength),
		Analytics:      analytics.NewHandler(agg),
		Health:         checker,
		Metrics:        m,
		CORS:           middleware.DefaultCORSConfig(),
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		background.Go(func() { limiter.Run(ctx, time.Minute, 10*time.Minute) })
		deps.Limiter = limiter
	}
	if cfg.Tracing.Enabled {
		deps.TracingService = cfg.Tracing.ServiceName
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.New(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("docqa listening", "addr", server.Addr, "upload_dir", cfg.Upload.Dir)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		stop()
		collector.Close()
		os.Exit(1)
	}

	collector.Close()
	background.Wait()
	slog.Info("docqa stopped", "analytics_dropped", collector.Dropped())
}
