package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staycal/internal/app/policies"
	"staycal/internal/app/schedule"
	calendarsvc "staycal/internal/app/services/calendar"
	exportsvc "staycal/internal/app/services/export"
	feedssvc "staycal/internal/app/services/feeds"
	"staycal/internal/app/uow"
	"staycal/internal/infra/broker/kafka"
	"staycal/internal/infra/config"
	mongodb "staycal/internal/infra/db/mongo"
	"staycal/internal/infra/feeds/ical"
	ginserver "staycal/internal/infra/http/gin"
	"staycal/internal/infra/obs"
	"staycal/internal/infra/storage/local"
	"staycal/internal/infra/storage/memory"
	"staycal/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	factory, ready, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	publisher, err := buildPublisher(cfg, logger)
	if err != nil {
		logger.Error("publisher init failed", "error", err)
		os.Exit(1)
	}

	var eventsOut policies.EventPublisher = policies.NoopEvents{}
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Error("kafka init failed", "error", err)
			os.Exit(1)
		}
		eventsOut = kafka.EventPublisher{Producer: producer, TopicPrefix: cfg.KafkaTopicPrefix, Logger: logger}
		defer producer.Close()
	}

	fetcher := ical.NewFetcher(cfg.FeedFetchTimeout)
	exporter := &exportsvc.Regenerator{
		Builder:   ical.Builder{},
		Publisher: publisher,
		Logger:    logger,
	}
	calendarService := &calendarsvc.Service{
		UoW:      factory,
		Exporter: exporter,
		Events:   eventsOut,
		Logger:   logger,
	}
	registry := &feedssvc.Registry{
		UoW:          factory,
		Fetcher:      fetcher,
		Exporter:     exporter,
		FetchTimeout: cfg.FeedFetchTimeout,
		Logger:       logger,
	}
	syncer := &feedssvc.Syncer{
		UoW:          factory,
		Fetcher:      fetcher,
		Exporter:     exporter,
		Events:       eventsOut,
		FetchTimeout: cfg.FeedFetchTimeout,
		Logger:       logger,
	}
	conflicts := &feedssvc.Conflicts{
		UoW:          factory,
		Fetcher:      fetcher,
		Events:       eventsOut,
		FetchTimeout: cfg.FeedFetchTimeout,
	}

	handlers := ginserver.Handlers{
		Calendar: ginserver.CalendarHandler{Service: calendarService},
		Feeds:    ginserver.FeedsHandler{Registry: registry, Syncer: syncer, ConflictsSvc: conflicts},
	}
	if cfg.ExportMode == "local" {
		handlers.ExportDir = cfg.ExportDir
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: ready}, handlers)

	if cfg.SyncCron != "" {
		periodic := &schedule.PeriodicSync{
			Spec:   cfg.SyncCron,
			Syncer: syncer,
			UoW:    factory,
			Logger: logger,
		}
		if err := periodic.Start(ctx); err != nil {
			logger.Error("periodic sync init failed", "error", err, "spec", cfg.SyncCron)
			os.Exit(1)
		}
		defer periodic.Stop()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode, "export", cfg.ExportMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func buildStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (uow.UoWFactory, func() error, error) {
	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		blocked := mongodb.NewBlockedDateRepository(client.DB)
		if err := blocked.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		factory := mongodb.Factory{
			DB:                client.DB,
			BlockedDatesRepo:  blocked,
			SubscriptionsRepo: mongodb.NewSubscriptionRepository(client.DB),
			ExportsRepo:       mongodb.NewExportRepository(client.DB),
		}
		ready := func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		return factory, ready, nil
	default:
		logger.Warn("using in-memory storage, state is not persisted")
		return memory.NewFactory(), func() error { return nil }, nil
	}
}

func buildPublisher(cfg config.Config, logger *slog.Logger) (policies.FeedPublisher, error) {
	if cfg.ExportMode == "s3" {
		return s3.NewPublisher(
			cfg.S3Endpoint,
			cfg.S3UseSSL,
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			cfg.S3Bucket,
			cfg.S3Prefix,
			cfg.S3PublicEndpoint,
			logger,
		)
	}
	baseURL := cfg.ExportBaseURL
	if baseURL == "" {
		baseURL = "http://localhost" + cfg.HTTPAddr + "/exports"
	}
	return local.Publisher{Dir: cfg.ExportDir, BaseURL: baseURL}, nil
}
