package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goafyi/goafyi/internal/backend"
	"github.com/goafyi/goafyi/internal/cache"
	"github.com/goafyi/goafyi/internal/config"
	"github.com/goafyi/goafyi/internal/logging"
	"github.com/goafyi/goafyi/internal/metrics"
	"github.com/goafyi/goafyi/internal/server"
	"github.com/goafyi/goafyi/internal/service"
)

func main() {
	var (
		configFile = flag.String("config", "", "path to configuration file")
		envPrefix  = flag.String("env-prefix", "GOAFYI", "environment variable prefix")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(*envPrefix, *configFile)
	cfg, err := loader.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to configure logger: %v", err)
	}

	promRegistry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(promRegistry)

	registry := cache.DefaultRegistry()
	if err := registry.Validate(); err != nil {
		logger.Error("cache registry invalid", slog.Any("error", err))
		os.Exit(1)
	}

	ephemeral := cache.NewMemory()
	durable := buildDurableStore(logger.With(slog.String("subsystem", "cache")), cfg.Cache)
	coordinator := cache.NewCoordinator(registry, ephemeral, durable, logger, recorder)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := coordinator.Close(shutdownCtx); err != nil {
			logger.Error("cache shutdown failed", slog.Any("error", err))
		}
	}()

	backendCfg := backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		APIKey:  cfg.Backend.APIKey,
		Timeout: cfg.Backend.Timeout(),
	}
	client, err := backend.NewClient(backendCfg, logger, recorder)
	if err != nil {
		logger.Error("unable to construct backend client", slog.Any("error", err))
		os.Exit(1)
	}
	storage, err := backend.NewStorage(backendCfg, logger, recorder)
	if err != nil {
		logger.Error("unable to construct storage client", slog.Any("error", err))
		os.Exit(1)
	}

	svcs := server.Services{
		Session:  service.NewSessionService(client, coordinator, logger),
		Vendors:  service.NewVendorService(client, coordinator, logger),
		Ratings:  service.NewRatingService(client, coordinator, logger),
		Bookings: service.NewBookingService(client, coordinator, logger),
		Messages: service.NewMessageService(client, nil, coordinator, logger),
		Media:    service.NewMediaService(storage, coordinator, logger),
		Settings: service.NewSettingsService(client, coordinator, logger),
	}

	sweeper := cache.NewSweeper(coordinator, cfg.Cache.SweepInterval(), logger)
	go sweeper.Run(ctx)

	if *configFile != "" {
		watcher, err := loader.Watch(ctx, *configFile, func(config.Config) {
			// Config changes can retarget the backend, so treat a reload
			// like an app reset and drop every cached value.
			logger.Info("configuration changed, clearing caches")
			svcs.Session.Reset(ctx)
		}, func(err error) {
			logger.Error("config watcher error", slog.Any("error", err))
		})
		if err != nil {
			logger.Error("config watcher setup failed", slog.Any("error", err))
		} else {
			defer watcher.Stop()
		}
	}

	handler := server.NewRouter(svcs, coordinator, recorder, logger)
	srv, err := server.New(cfg, logger, handler)
	if err != nil {
		logger.Error("unable to construct server", slog.Any("error", err))
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated unexpectedly", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// buildDurableStore prefers the configured valkey tier but degrades to a
// second in-process store rather than refusing to start; the durable tier is
// an optimization, not a dependency.
func buildDurableStore(logger *slog.Logger, cfg config.CacheConfig) cache.Store {
	switch strings.TrimSpace(strings.ToLower(cfg.Durable)) {
	case "", "memory":
		logger.Info("using in-process durable cache tier")
		return cache.NewMemory()
	case "valkey":
		store, err := cache.NewValkey(cache.ValkeyConfig{
			Address:  cfg.Valkey.Address,
			Username: cfg.Valkey.Username,
			Password: cfg.Valkey.Password,
			DB:       cfg.Valkey.DB,
			TLS: cache.ValkeyTLSConfig{
				Enabled: cfg.Valkey.TLS.Enabled,
				CAFile:  cfg.Valkey.TLS.CAFile,
			},
		})
		if err != nil {
			logger.Error("valkey initialization failed", slog.Any("error", err))
			logger.Info("falling back to in-process durable tier")
			return cache.NewMemory()
		}
		logger.Info("using valkey durable cache tier", slog.String("address", cfg.Valkey.Address))
		return store
	default:
		logger.Warn("unsupported durable tier, defaulting to memory", slog.String("durable", cfg.Durable))
		return cache.NewMemory()
	}
}
