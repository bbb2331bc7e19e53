package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/ratepulse/internal/analysis"
	"github.com/irfndi/ratepulse/internal/chart"
	"github.com/irfndi/ratepulse/internal/models"
	"github.com/irfndi/ratepulse/internal/services"
	"github.com/irfndi/ratepulse/internal/utils"
)

// maxTopK bounds the ranking size accepted from query strings.
const maxTopK = 100

// DashboardReader is the part of the dashboard service the HTTP layer uses.
type DashboardReader interface {
	Assets() []models.Asset
	DefaultTopK() int
	MovingAveragePeriod() int
	ResolveAsset(assetID string) (models.Asset, error)
	Load(ctx context.Context, assetID string, k int) (*services.DashboardView, error)
	CurrentPrice(ctx context.Context, assetID string) (*models.CurrentPrice, bool, error)
	InvalidateCache(ctx context.Context, assetID string) (int, error)
}

// AnalysisHandler serves the JSON analysis endpoint.
type AnalysisHandler struct {
	dashboard DashboardReader
}

// AnalysisResponse is the analysis payload plus a ready-to-plot figure.
type AnalysisResponse struct {
	*services.DashboardView
	Chart chart.Figure `json:"chart"`
}

func NewAnalysisHandler(dashboard DashboardReader) *AnalysisHandler {
	return &AnalysisHandler{dashboard: dashboard}
}

// GetAnalysis returns the change analysis for an asset.
// @Summary Get price change analysis
// @Tags analysis
// @Param asset path string true "Asset id, e.g. BTC"
// @Param k query int false "Number of ranked changes per direction"
// @Produce json
// @Router /api/v1/assets/{asset}/analysis [get]
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	k, err := parseTopK(c.Query("k"), h.dashboard.DefaultTopK())
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.dashboard.Load(c.Request.Context(), c.Param("asset"), k)
	if err != nil {
		respondError(c, err)
		return
	}

	if errors.Is(view.DataErr, analysis.ErrDivisionByZero) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":  false,
			"error":    view.DataErr.Error(),
			"warnings": view.Warnings,
		})
		return
	}

	fig := chart.Build(view.Asset, view.Report, chart.Options{MovingAveragePeriod: h.dashboard.MovingAveragePeriod()})
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    AnalysisResponse{DashboardView: view, Chart: fig},
	})
}

func parseTopK(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	k, err := strconv.Atoi(raw)
	if err != nil || k < 1 || k > maxTopK {
		return 0, utils.NewFieldError("k", "k must be an integer between 1 and %d", maxTopK)
	}
	return k, nil
}
