package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"issuemap_backend/internal/events"
	"issuemap_backend/internal/geocode"
	apphttp "issuemap_backend/internal/http"
	"issuemap_backend/internal/http/router"
	"issuemap_backend/platform/cache"
	"issuemap_backend/platform/config"
	"issuemap_backend/platform/logger"
	"issuemap_backend/platform/validator"
)

// noopHealth is the readiness check when running on the in-memory cache.
type noopHealth struct{}

func (noopHealth) Ping(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var store cache.Store
	var health apphttp.HealthChecker = noopHealth{}
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			panic("failed to connect to redis: " + err.Error())
		}
		defer func() {
			_ = redisStore.Close()
		}()
		store = redisStore
		health = redisStore
		log.Info("redis cache connected")
	} else {
		store = cache.NewMemory()
		log.Warn("REDIS_URL not configured; using in-memory cache")
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	geocodeModule := geocode.NewModule(cfg, store, eventBus, val, log)
	geocode.SubscribeLogging(eventBus, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			geocodeModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}
