package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/ratepulse/internal/chart"
	"github.com/irfndi/ratepulse/internal/models"
	"github.com/irfndi/ratepulse/internal/pricefeed"
)

// MarketHandler serves the asset catalogue and live prices.
type MarketHandler struct {
	dashboard DashboardReader
}

// AssetResponse is one catalogue entry.
type AssetResponse struct {
	models.Asset
	DisplayName string `json:"display_name"`
	Label       string `json:"label"`
}

func NewMarketHandler(dashboard DashboardReader) *MarketHandler {
	return &MarketHandler{dashboard: dashboard}
}

// GetAssets lists the configured assets.
// @Summary List assets
// @Tags market
// @Produce json
// @Router /api/v1/assets [get]
func (h *MarketHandler) GetAssets(c *gin.Context) {
	assets := h.dashboard.Assets()
	data := make([]AssetResponse, len(assets))
	for i, a := range assets {
		data[i] = AssetResponse{Asset: a, DisplayName: chart.DisplayName(a), Label: a.Label()}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"total":   len(data),
	})
}

// GetPrice returns the current USD price of an asset.
// @Summary Get current price
// @Tags market
// @Param asset path string true "Asset id"
// @Produce json
// @Router /api/v1/assets/{asset}/price [get]
func (h *MarketHandler) GetPrice(c *gin.Context) {
	price, found, err := h.dashboard.CurrentPrice(c.Request.Context(), c.Param("asset"))
	switch {
	case errors.Is(err, pricefeed.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": err.Error()})
		return
	case err != nil:
		var status int
		if isValidation(err) {
			status = http.StatusBadRequest
		} else {
			status = http.StatusBadGateway
			_ = c.Error(err)
		}
		c.JSON(status, gin.H{"success": false, "error": errorMessage(err)})
		return
	case !found:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "price not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": price})
}
