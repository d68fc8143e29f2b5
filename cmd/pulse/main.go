package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	apihttp "microforge/pulse/internal/api/http"
	"microforge/pulse/internal/config"
	"microforge/pulse/internal/dispatch"
	"microforge/pulse/internal/events"
	"microforge/pulse/internal/health"
	"microforge/pulse/internal/provider"
	"microforge/pulse/internal/store"

	"github.com/joho/godotenv"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Configuration errors are the only class allowed to terminate the
	// process; nothing listens before this passes.
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := setupLogger(cfg.Env)

	logger.Info("starting pulse",
		"env", cfg.Env,
		"port", cfg.Server.Port,
		"targets", len(cfg.Health.Targets),
	)

	notificationStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open notification store", "error", err)
		os.Exit(1)
	}
	defer notificationStore.Close()

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	engine := dispatch.NewEngine(notificationStore, publisher, logger)
	engine.RegisterProvider(provider.NewEmailProvider(provider.SMTPConfig{
		Host:     cfg.Providers.Email.Host,
		Port:     cfg.Providers.Email.Port,
		Username: cfg.Providers.Email.Username,
		Password: cfg.Providers.Email.Password,
		From:     cfg.Providers.Email.From,
	}, logger))
	engine.RegisterProvider(provider.NewSMSProvider(logger))
	engine.RegisterProvider(provider.NewPushProvider(logger))
	engine.RegisterProvider(provider.NewChatProvider(cfg.Providers.ChatWebhookURL, cfg.GetSendTimeout(), logger))
	engine.RegisterProvider(provider.NewWebhookProvider(cfg.GetSendTimeout(), logger))

	aggregator := health.NewAggregator(
		health.NewHTTPProber(cfg.GetProbeTimeout()),
		cfg.Health.Targets,
		cfg.GetCycleInterval(),
		publisher,
		logger,
	)

	router := apihttp.NewRouter(
		logger,
		apihttp.NewNotificationController(engine),
		apihttp.NewHealthController(aggregator),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := aggregator.Start(ctx); err != nil {
			logger.Error("health aggregator failed", "error", err)
		}
	}()

	httpServer := &nethttp.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting http server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("pulse started and ready",
		"port", cfg.Server.Port,
		"email_configured", cfg.Providers.Email.Host != "",
		"kafka_enabled", len(cfg.Kafka.Brokers) > 0,
	)

	<-quit
	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}

	wg.Wait()
	logger.Info("pulse stopped gracefully")
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envDev:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	case envLocal:
		fallthrough
	default:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}
}

func openStore(cfg *config.Config, logger *slog.Logger) (store.NotificationStore, error) {
	if cfg.Store.Path == "" {
		logger.Warn("no store path configured, using in-memory notification store")
		return store.NewMemoryStore(), nil
	}

	logger.Info("opening notification store", "path", cfg.Store.Path)
	return store.NewSQLiteStore(cfg.Store.Path)
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("kafka brokers not configured, event publication disabled")
		return events.NopPublisher{}
	}

	logger.Info("initializing kafka publisher",
		"brokers", cfg.Kafka.Brokers,
		"deliveries_topic", cfg.Kafka.Topics.Deliveries,
		"health_topic", cfg.Kafka.Topics.Health,
	)

	return events.NewKafkaPublisher(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topics.Deliveries,
		cfg.Kafka.Topics.Health,
		logger,
	)
}
