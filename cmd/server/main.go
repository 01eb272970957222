package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"placehub/internal/cache"
	"placehub/internal/config"
	"placehub/internal/database"
	"placehub/internal/events"
	"placehub/internal/middleware"
	"placehub/internal/monitoring"
	"placehub/internal/repositories"
	"placehub/internal/response"
	"placehub/internal/router"
	"placehub/internal/services"
)

// Set via -ldflags "-X main.version=1.2.3".
var version = ""

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Server.Environment, cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting PlaceHub badge engine",
		zap.String("environment", cfg.Server.Environment),
		zap.String("version", getApplicationVersion()),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Application terminated", zap.Error(err))
	}
	logger.Info("Application shutdown completed")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout+30*time.Second)
	defer cancel()

	db, err := database.Open(startupCtx, cfg, database.NewMetrics(registry), logger.Named("db"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connections", zap.Error(err))
		}
	}()

	cacheInstance, err := cache.NewCache(cacheConfig(cfg.Cache), logger.Named("cache"))
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	defer cacheInstance.Close()

	repos, err := repositories.NewCollection(db, logger.Named("repositories"), &repositories.RepositoryConfig{
		Cache:    cacheInstance,
		CacheTTL: cfg.Cache.TTL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	bus := events.NewInMemoryEventBus(&events.EventBusConfig{
		BufferSize:     cfg.Events.BufferSize,
		WorkerCount:    cfg.Events.WorkerCount,
		HandlerTimeout: cfg.Events.HandlerTimeout,
	}, logger.Named("events"))

	serviceCollection, err := services.NewServiceCollection(repos, bus, cfg, monitoring.NewBadgeMetrics(registry), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := serviceCollection.Initialize(startupCtx); err != nil {
		return fmt.Errorf("failed to seed badge catalog: %w", err)
	}

	if err := bus.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}

	responseConfig := response.DefaultConfig()
	responseConfig.PrettyJSON = cfg.Server.Environment == "development"
	responseConfig.MaskInternalErrors = cfg.Server.Environment == "production"

	handler := router.SetupRouter(router.Dependencies{
		Badges:          serviceCollection.Badges,
		Health:          monitoring.NewHealthChecker(repos, cacheInstance, bus, logger.Named("health"), getApplicationVersion(), cfg.Server.Environment),
		Gatherer:        registry,
		HTTPMetrics:     middleware.NewHTTPMetrics(registry),
		ResponseBuilder: response.NewBuilder(responseConfig, logger.Named("response")),
		Logging:         middleware.DefaultLoggingConfig(),
		RequestTimeout:  cfg.Server.RequestTimeout,
		Logger:          logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Shutting down application...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Drain queued triggers after the server stops accepting new ones.
	if err := bus.Stop(shutdownCtx); err != nil {
		logger.Error("Event bus did not drain", zap.Error(err))
	}

	stats := bus.Stats()
	logger.Info("Final event bus statistics",
		zap.Int64("published", stats.EventsPublished),
		zap.Int64("processed", stats.EventsProcessed),
		zap.Int64("failed", stats.EventsFailed),
	)
	return nil
}

func cacheConfig(c config.CacheConfig) *cache.Config {
	cc := cache.DefaultConfig()
	cc.Provider = c.Provider
	cc.TTL = c.TTL
	cc.KeyPrefix = c.KeyPrefix
	cc.RedisURL = c.RedisURL
	cc.RedisPassword = c.RedisPassword
	cc.RedisDB = c.RedisDB
	return cc
}

func getApplicationVersion() string {
	if version != "" {
		return version
	}
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	return "dev"
}

// initLogger builds the zap logger for env, with level and encoding taken
// from the logging config.
func initLogger(env string, cfg config.LoggingConfig) (*zap.Logger, error) {
	var zc zap.Config
	switch env {
	case "production", "staging":
		zc = zap.NewProductionConfig()
	default:
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = cfg.Format

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
