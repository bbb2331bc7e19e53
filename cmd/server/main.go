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

	"github.com/gin-gonic/gin"
	"github.com/irfndi/ratepulse/internal/api"
	"github.com/irfndi/ratepulse/internal/cache"
	"github.com/irfndi/ratepulse/internal/config"
	"github.com/irfndi/ratepulse/internal/database"
	"github.com/irfndi/ratepulse/internal/logging"
	"github.com/irfndi/ratepulse/internal/metrics"
	"github.com/irfndi/ratepulse/internal/middleware"
	"github.com/irfndi/ratepulse/internal/pricefeed"
	"github.com/irfndi/ratepulse/internal/services"
	"github.com/irfndi/ratepulse/internal/telemetry"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize telemetry first
	shutdownTelemetry, err := telemetry.InitProvider(context.Background(), cfg.Telemetry, cfg.Environment, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.WithError(err).Warn("Failed to shutdown telemetry")
		}
	}()

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.NewPostgresConnection(ctx, &cfg.Database, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	m := metrics.New()

	deps := api.Dependencies{
		DB:              db,
		PriceConfigured: cfg.PriceAPI.APIKey != "",
		Metrics:         m,
		Version:         version,
	}

	// Redis only backs the report cache, so it stays optional.
	var reports cache.ReportCache
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redis, err := database.NewRedisConnection(ctx, cfg.Redis, logger)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redis.Close()

		reportCache := cache.NewRedisReportCache(redis.Client, cfg.Redis.ReportTTL, logger, m)
		reports = reportCache
		deps.Redis = redis
		deps.CacheStats = reportCache
	}

	rates := database.NewRateRepository(database.NewTracedPool(db.Pool, telemetry.Tracer()), cfg.Database.RatesTable)
	prices := pricefeed.NewBreaker(
		pricefeed.NewClient(&cfg.PriceAPI, logger),
		cfg.PriceAPI.BreakerThreshold, cfg.PriceAPI.BreakerCooldown, logger,
	)
	deps.PriceBreaker = prices
	deps.Dashboard = services.NewDashboardService(cfg.Dashboard, rates, prices, reports, m, logger)

	router := newRouter(cfg, deps, logger)

	// Create HTTP server with security timeouts
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"service": cfg.Telemetry.ServiceName,
			"version": version,
			"port":    cfg.Server.Port,
			"event":   "startup",
		}).Info("Application startup")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-quit:
		logger.WithFields(logrus.Fields{
			"event":  "shutdown",
			"signal": sig.String(),
		}).Info("Application shutdown")
	}

	// Give outstanding requests a deadline for completion
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited gracefully")
	return nil
}

// newRouter builds the gin engine with the middleware chain and all routes.
func newRouter(cfg *config.Config, deps api.Dependencies, logger logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	api.SetupRoutes(router, deps)
	return router
}
