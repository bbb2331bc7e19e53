package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/ratepulse/internal/chart"
	"github.com/irfndi/ratepulse/internal/models"
	"github.com/irfndi/ratepulse/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TableIncreases = "increases"
	TableDecreases = "decreases"

	msgInvalidSelection = "Invalid page selection"
)

// Templates parses the embedded HTML templates with the dashboard helpers.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"percent":   func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
		"timestamp": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04:05") },
	}).ParseFS(templateFS, "templates/*.html"))
}

// DashboardPageHandler renders the HTML dashboard.
type DashboardPageHandler struct {
	dashboard DashboardReader
}

// dashboardPage is the template model.
type dashboardPage struct {
	Assets       []models.Asset
	Asset        models.Asset
	DisplayName  string
	TopK         int
	Table        string
	TableTitle   string
	Rows         []models.ChangeRow
	Headline     string
	CurrentPrice string
	Success      string
	Warnings     []string
	Error        string
	Figure       chart.Figure
	HasChart     bool
	HasRows      bool
}

func NewDashboardPageHandler(dashboard DashboardReader) *DashboardPageHandler {
	return &DashboardPageHandler{dashboard: dashboard}
}

// Index redirects to the first configured asset.
func (h *DashboardPageHandler) Index(c *gin.Context) {
	assets := h.dashboard.Assets()
	if len(assets) == 0 {
		c.String(http.StatusNotFound, "no assets configured")
		return
	}
	c.Redirect(http.StatusFound, "/assets/"+url.PathEscape(assets[0].ID))
}

// Asset renders the analysis page for one asset.
func (h *DashboardPageHandler) Asset(c *gin.Context) {
	page := dashboardPage{
		Assets: h.dashboard.Assets(),
		TopK:   h.dashboard.DefaultTopK(),
		Table:  TableIncreases,
	}
	if c.Query("table") == TableDecreases {
		page.Table = TableDecreases
	}

	view, err := h.dashboard.Load(c.Request.Context(), c.Param("asset"), page.TopK)
	if err != nil {
		if isValidation(err) {
			page.Error = msgInvalidSelection
			c.HTML(http.StatusBadRequest, "dashboard.html", page)
			return
		}
		_ = c.Error(err)
		page.Error = "Internal server error"
		c.HTML(http.StatusInternalServerError, "dashboard.html", page)
		return
	}

	page.Asset = view.Asset
	page.DisplayName = chart.DisplayName(view.Asset)
	page.TopK = view.TopK
	page.Success = view.Success
	page.Warnings = view.Warnings
	if view.CurrentPrice != nil {
		page.CurrentPrice = fmt.Sprintf("%s %s", view.CurrentPrice.Price.StringFixed(2), view.CurrentPrice.Currency)
	}

	if view.HasData() {
		page.HasChart = true
		page.Figure = chart.Build(view.Asset, view.Report, chart.Options{MovingAveragePeriod: h.dashboard.MovingAveragePeriod()})

		if page.Table == TableDecreases {
			page.TableTitle = fmt.Sprintf("Top %d Largest Percentage Decreases", view.TopK)
			page.Rows = view.Report.TopDecreases
			page.Headline = fmt.Sprintf("Lowest Price: %s", formatPrice(view.Report.MinPrice))
		} else {
			page.TableTitle = fmt.Sprintf("Top %d Percentage Increases", view.TopK)
			page.Rows = view.Report.TopIncreases
			page.Headline = fmt.Sprintf("Highest Price: %s", formatPrice(view.Report.MaxPrice))
		}
		page.HasRows = len(page.Rows) > 0
	}

	c.HTML(http.StatusOK, "dashboard.html", page)
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%g", v)
}

// Compile-time check that the concrete service satisfies the handler contract.
var _ DashboardReader = (*services.DashboardService)(nil)
