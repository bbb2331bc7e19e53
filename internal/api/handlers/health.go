package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/ratepulse/internal/pricefeed"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

const (
	statusHealthy     = "healthy"
	statusUnhealthy   = "unhealthy"
	statusDegraded    = "degraded"
	statusDisabled    = "disabled"
	statusConfigured  = "configured"
	statusUnavailable = "not configured"
)

// HealthChecker is anything that can report its own liveness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BreakerReporter exposes the price API circuit breaker statistics.
type BreakerReporter interface {
	Stats() pricefeed.BreakerStats
}

// MemoryReader returns host memory statistics.
type MemoryReader func(ctx context.Context) (*mem.VirtualMemoryStat, error)

type HealthHandler struct {
	db              HealthChecker
	redis           HealthChecker
	priceConfigured bool
	priceBreaker    BreakerReporter
	version         string
	readMemory      MemoryReader
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Memory    *MemoryStats      `json:"memory,omitempty"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
}

type MemoryStats struct {
	TotalMB     uint64  `json:"total_mb"`
	UsedMB      uint64  `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// NewHealthHandler creates a health handler. redis may be nil when the
// report cache is disabled.
func NewHealthHandler(db, redis HealthChecker, priceConfigured bool, version string) *HealthHandler {
	return &HealthHandler{
		db:              db,
		redis:           redis,
		priceConfigured: priceConfigured,
		version:         version,
		readMemory:      mem.VirtualMemoryWithContext,
	}
}

// WithPriceBreaker reports the breaker state alongside the price API status.
func (h *HealthHandler) WithPriceBreaker(b BreakerReporter) *HealthHandler {
	h.priceBreaker = b
	return h
}

// HealthCheck reports dependency status. The database is the only hard
// dependency; its failure yields 503.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	services := make(map[string]string)
	status := statusHealthy

	if h.db == nil {
		services["database"] = statusUnhealthy + ": not configured"
		status = statusUnhealthy
	} else if err := h.db.HealthCheck(ctx); err != nil {
		services["database"] = statusUnhealthy + ": " + err.Error()
		status = statusUnhealthy
	} else {
		services["database"] = statusHealthy
	}

	if h.redis == nil {
		services["redis"] = statusDisabled
	} else if err := h.redis.HealthCheck(ctx); err != nil {
		services["redis"] = statusUnhealthy + ": " + err.Error()
		if status == statusHealthy {
			status = statusDegraded
		}
	} else {
		services["redis"] = statusHealthy
	}

	if h.priceConfigured {
		services["price_api"] = statusConfigured
		if h.priceBreaker != nil {
			if state := h.priceBreaker.Stats().State; state != pricefeed.StateClosed.String() {
				services["price_api"] = statusConfigured + " (circuit " + state + ")"
			}
		}
	} else {
		services["price_api"] = statusUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
		Version:   h.version,
		Uptime:    time.Since(startTime).String(),
	}
	if vm, err := h.readMemory(ctx); err == nil && vm != nil {
		response.Memory = &MemoryStats{
			TotalMB:     vm.Total / 1024 / 1024,
			UsedMB:      vm.Used / 1024 / 1024,
			UsedPercent: vm.UsedPercent,
		}
	}

	code := http.StatusOK
	if status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

// LivenessCheck for container restarts
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
