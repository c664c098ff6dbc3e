package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/auth"
	"github.com/gaonpathshala/exam-portal/internal/cache"
	"github.com/gaonpathshala/exam-portal/internal/config"
	"github.com/gaonpathshala/exam-portal/internal/events"
	"github.com/gaonpathshala/exam-portal/internal/handlers"
	"github.com/gaonpathshala/exam-portal/internal/metrics"
	"github.com/gaonpathshala/exam-portal/internal/middleware"
	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories/postgres"
	"github.com/gaonpathshala/exam-portal/internal/services"
	"github.com/gaonpathshala/exam-portal/internal/utils"
	"github.com/gaonpathshala/exam-portal/pkg"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(cfg *config.Config) error {
	logger := utils.NewLogger(cfg.Environment)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := pkg.Migrate(db); err != nil {
		return err
	}

	var (
		cacheService cache.CacheService = cache.NewMemoryCache()
		limiter      middleware.Limiter = middleware.NewTokenBucket(cfg.LoginRateLimit, cfg.LoginRateLimit)
	)
	if cfg.RedisURL != "" {
		client, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn("Redis unavailable, using in-process cache and limiter", "error", err)
		} else {
			defer client.Close()
			cacheService = cache.NewRedisCache(client, "exam-portal", logger)
			limiter = middleware.NewRedisWindow(client, "exam-portal:ratelimit", cfg.LoginRateLimit)
			logger.Info("Redis cache and limiter enabled")
		}
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger.Slog())
	if err != nil {
		logger.Warn("Event publisher unavailable, falling back to mock", "error", err)
		publisher = events.NewMockEventPublisher(logger.Slog())
	}
	defer publisher.Close()

	if memory, ok := publisher.(*events.MemoryEventPublisher); ok {
		messages, err := memory.Subscribe(ctx)
		if err != nil {
			return err
		}
		go events.Consume(ctx, messages, logger.Slog(), events.AuditLog(logger.Slog()))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.AdminTokenTTL)

	importFormat := models.ImportFormatV1
	if cfg.LegacyImportMode {
		importFormat = models.ImportFormatLegacy
	}

	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:                postgres.NewRepository(db),
		Logger:              logger.Slog(),
		Tokens:              tokens,
		Publisher:           publisher,
		Cache:               cacheService,
		Metrics:             appMetrics,
		SessionTTL:          cfg.SessionTTL,
		CacheTTL:            cfg.CacheTTL,
		DefaultImportFormat: importFormat,
	})

	if cfg.AdminSeed.Enabled {
		created, err := serviceManager.Auth().SeedAdmin(ctx, &services.SeedAdminRequest{
			Name:     cfg.AdminSeed.Name,
			Password: cfg.AdminSeed.Password,
			Phone:    cfg.AdminSeed.Phone,
		})
		if err != nil {
			return err
		}
		logger.Info("Admin seed checked", "name", cfg.AdminSeed.Name, "created", created)
	}

	router := gin.New()
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, handlers.RouterOptions{
		Tokens:       tokens,
		Metrics:      appMetrics,
		Gatherer:     registry,
		LoginLimiter: limiter,
		CORSOrigins:  cfg.CORSOrigins,
		Production:   cfg.IsProduction(),
		Health:       pingDatabase(db),
	})
	handlerManager.SetupRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info("Shutting down server", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced shutdown", "error", err)
	}

	logger.Info("Server exited")
	return nil
}

func pingDatabase(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
