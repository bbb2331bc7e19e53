package api

import (
	"github.com/gin-gonic/gin"
	"github.com/irfndi/ratepulse/internal/api/handlers"
	"github.com/irfndi/ratepulse/internal/metrics"
)

// Dependencies are the collaborators the router wires into handlers.
// Redis and CacheStats are nil when the report cache is disabled.
type Dependencies struct {
	Dashboard       handlers.DashboardReader
	CacheStats      handlers.CacheStatsProvider
	DB              handlers.HealthChecker
	Redis           handlers.HealthChecker
	PriceConfigured bool
	PriceBreaker    handlers.BreakerReporter
	Metrics         *metrics.Metrics
	Version         string
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.SetHTMLTemplate(handlers.Templates())

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.PriceConfigured, deps.Version)
	if deps.PriceBreaker != nil {
		healthHandler.WithPriceBreaker(deps.PriceBreaker)
	}
	pageHandler := handlers.NewDashboardPageHandler(deps.Dashboard)
	analysisHandler := handlers.NewAnalysisHandler(deps.Dashboard)
	marketHandler := handlers.NewMarketHandler(deps.Dashboard)
	cacheHandler := handlers.NewCacheHandler(deps.Dashboard, deps.CacheStats)

	// Health check endpoints
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/health/live", healthHandler.LivenessCheck)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// Dashboard pages
	router.GET("/", pageHandler.Index)
	router.GET("/assets/:asset", pageHandler.Asset)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		assets := v1.Group("/assets")
		{
			assets.GET("", marketHandler.GetAssets)
			assets.GET("/:asset/price", marketHandler.GetPrice)
			assets.GET("/:asset/analysis", analysisHandler.GetAnalysis)
		}

		cache := v1.Group("/cache")
		{
			cache.GET("/stats", cacheHandler.GetCacheStats)
			cache.DELETE("/:asset", cacheHandler.InvalidateAsset)
		}
	}
}
