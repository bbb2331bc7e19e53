package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/ratepulse/internal/cache"
)

// CacheStatsProvider exposes report cache counters.
type CacheStatsProvider interface {
	GetStats() cache.ReportCacheStats
}

// CacheHandler handles report cache monitoring and invalidation endpoints
type CacheHandler struct {
	dashboard DashboardReader
	stats     CacheStatsProvider
}

// NewCacheHandler creates a new cache handler. stats may be nil when the
// report cache is disabled.
func NewCacheHandler(dashboard DashboardReader, stats CacheStatsProvider) *CacheHandler {
	return &CacheHandler{dashboard: dashboard, stats: stats}
}

// GetCacheStats returns report cache hit/miss statistics
// @Summary Get cache statistics
// @Tags cache
// @Produce json
// @Router /api/v1/cache/stats [get]
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"enabled": false,
			"data":    cache.ReportCacheStats{},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"enabled": true,
		"data":    h.stats.GetStats(),
	})
}

// InvalidateAsset drops cached reports for one asset
// @Summary Invalidate cached reports
// @Tags cache
// @Param asset path string true "Asset id"
// @Produce json
// @Router /api/v1/cache/{asset} [delete]
func (h *CacheHandler) InvalidateAsset(c *gin.Context) {
	removed, err := h.dashboard.InvalidateCache(c.Request.Context(), c.Param("asset"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"removed": removed,
	})
}
