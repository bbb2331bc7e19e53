package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/irfndi/ratepulse/internal/analysis"
	"github.com/irfndi/ratepulse/internal/cache"
	"github.com/irfndi/ratepulse/internal/chart"
	"github.com/irfndi/ratepulse/internal/config"
	"github.com/irfndi/ratepulse/internal/metrics"
	"github.com/irfndi/ratepulse/internal/models"
	"github.com/irfndi/ratepulse/internal/pricefeed"
	"github.com/irfndi/ratepulse/internal/telemetry"
	"github.com/irfndi/ratepulse/internal/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// User-facing messages.
const (
	MsgNoData        = "No data found for the selected cryptocurrency."
	MsgFetchFailed   = "Error fetching data from PostgreSQL."
	MsgNotEnoughData = "Not enough data points to compute price changes."
	MsgDataQuality   = "Price data contains a zero rate; percentage changes cannot be computed."
)

// RateFetcher loads the ordered price history of an asset.
type RateFetcher interface {
	FetchPricePoints(ctx context.Context, assetID string) ([]models.PricePoint, error)
}

// DashboardView is the outcome of loading one asset: the analysis report
// when there is data, the live price when available, and the banners to show.
type DashboardView struct {
	Asset        models.Asset           `json:"asset"`
	TopK         int                    `json:"top_k"`
	Report       *models.AnalysisReport `json:"report,omitempty"`
	CurrentPrice *models.CurrentPrice   `json:"current_price,omitempty"`
	Success      string                 `json:"success,omitempty"`
	Warnings     []string               `json:"warnings"`
	Outcome      string                 `json:"outcome"`
	Cached       bool                   `json:"cached"`

	// DataErr holds the analyzer error behind a data-quality warning.
	DataErr error `json:"-"`
}

// HasData reports whether at least one price point was loaded.
func (v *DashboardView) HasData() bool {
	return v.Report != nil && len(v.Report.Points) > 0
}

// DashboardService ties the rate repository, the price API and the analyzer
// together for one page render.
type DashboardService struct {
	cfg     config.DashboardConfig
	rates   RateFetcher
	prices  pricefeed.PriceSource
	reports cache.ReportCache
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
	tracer  trace.Tracer
}

// NewDashboardService creates a dashboard service. prices and reports may be
// nil; the page then renders without a live price or without caching.
func NewDashboardService(
	cfg config.DashboardConfig,
	rates RateFetcher,
	prices pricefeed.PriceSource,
	reports cache.ReportCache,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
) *DashboardService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.TopK < 1 {
		cfg.TopK = 5
	}
	return &DashboardService{
		cfg:     cfg,
		rates:   rates,
		prices:  prices,
		reports: reports,
		metrics: m,
		logger:  logger.WithField("component", "dashboard"),
		tracer:  telemetry.Tracer(),
	}
}

// Assets returns the configured asset catalogue in display order.
func (s *DashboardService) Assets() []models.Asset {
	out := make([]models.Asset, len(s.cfg.Assets))
	copy(out, s.cfg.Assets)
	return out
}

// DefaultTopK is the ranking size used when a caller passes none.
func (s *DashboardService) DefaultTopK() int {
	return s.cfg.TopK
}

// MovingAveragePeriod is the SMA overlay period for charts, 0 when disabled.
func (s *DashboardService) MovingAveragePeriod() int {
	return s.cfg.MovingAveragePeriod
}

// ResolveAsset looks up a configured asset, returning a ValidationError for
// unknown identifiers.
func (s *DashboardService) ResolveAsset(assetID string) (models.Asset, error) {
	id := strings.TrimSpace(assetID)
	if id == "" {
		return models.Asset{}, utils.NewFieldError("asset", "asset is required")
	}
	asset, ok := s.cfg.Asset(id)
	if !ok {
		return models.Asset{}, utils.NewFieldError("asset", "unknown asset %q", id)
	}
	return asset, nil
}

// Load fetches and analyzes one asset. Fetch failures and analyzer errors
// become warnings on the view; the only returned errors are validation
// errors for the asset identifier.
func (s *DashboardService) Load(ctx context.Context, assetID string, k int) (*DashboardView, error) {
	asset, err := s.ResolveAsset(assetID)
	if err != nil {
		return nil, err
	}
	if k < 1 {
		k = s.cfg.TopK
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.load", trace.WithAttributes(
		attribute.String("asset.id", asset.ID),
		attribute.Int("top_k", k),
	))
	defer span.End()

	view := &DashboardView{Asset: asset, TopK: k, Warnings: []string{}}

	var cached *models.AnalysisReport
	if s.reports != nil {
		if report, ok := s.reports.Get(ctx, asset.ID, k); ok {
			cached = report
		}
	}

	var (
		points   []models.PricePoint
		price    *models.CurrentPrice
		priceMsg string
	)

	// The price lookup still runs when the rate fetch fails, so the group
	// carries no shared context.
	var g errgroup.Group
	if cached == nil {
		g.Go(func() error {
			var err error
			points, err = s.fetchPoints(ctx, asset.ID)
			return err
		})
	}
	if s.prices != nil {
		g.Go(func() error {
			price, priceMsg = s.fetchPrice(ctx, asset.ID)
			return nil
		})
	}
	fetchErr := g.Wait()

	view.CurrentPrice = price

	switch {
	case cached != nil:
		view.Report = cached
		view.Cached = true
		view.Outcome = metrics.OutcomeCached
	case fetchErr != nil:
		s.logger.WithError(fetchErr).WithField("asset", asset.ID).Error("Failed to fetch rates")
		span.RecordError(fetchErr)
		span.SetStatus(codes.Error, fetchErr.Error())
		view.Warnings = append(view.Warnings, MsgFetchFailed)
		view.Outcome = metrics.OutcomeFetchError
	default:
		s.analyze(ctx, view, points, k)
	}

	if view.HasData() && view.DataErr == nil {
		view.Success = fmt.Sprintf("%s price data loaded successfully!", chart.DisplayName(asset))
	}
	if priceMsg != "" {
		view.Warnings = append(view.Warnings, priceMsg)
	}

	span.SetAttributes(attribute.String("outcome", view.Outcome))
	s.metrics.RecordAnalysis(asset.ID, view.Outcome)
	return view, nil
}

func (s *DashboardService) analyze(ctx context.Context, view *DashboardView, points []models.PricePoint, k int) {
	_, span := s.tracer.Start(ctx, "dashboard.analyze", trace.WithAttributes(attribute.Int("points", len(points))))
	defer span.End()

	assetID := view.Asset.ID

	switch len(points) {
	case 0:
		view.Warnings = append(view.Warnings, MsgNoData)
		view.Outcome = metrics.OutcomeNoData
		return
	case 1:
		view.Report = partialReport(assetID, points)
		view.Warnings = append(view.Warnings, MsgNotEnoughData)
		view.Outcome = metrics.OutcomeNoData
		return
	}

	report, err := analysis.Analyze(assetID, points, k)
	if err != nil {
		s.logger.WithError(err).WithField("asset", assetID).Warn("Analysis rejected price data")
		span.RecordError(err)
		view.Report = partialReport(assetID, points)
		view.DataErr = err
		if errors.Is(err, analysis.ErrDivisionByZero) {
			view.Warnings = append(view.Warnings, MsgDataQuality)
		} else {
			view.Warnings = append(view.Warnings, MsgNotEnoughData)
		}
		view.Outcome = metrics.OutcomeDataQuality
		return
	}

	view.Report = report
	view.Outcome = metrics.OutcomeOK
	if s.reports != nil {
		s.reports.Set(ctx, assetID, k, report)
	}
}

// partialReport carries the raw series and extrema for charting when no
// rankings can be produced.
func partialReport(assetID string, points []models.PricePoint) *models.AnalysisReport {
	report := &models.AnalysisReport{
		AssetID:      assetID,
		Points:       points,
		Changes:      []models.ChangePoint{},
		TopIncreases: []models.ChangeRow{},
		TopDecreases: []models.ChangeRow{},
		GeneratedAt:  time.Now().UTC(),
	}
	if maxPrice, minPrice, err := analysis.GlobalExtrema(models.Prices(points)); err == nil {
		report.MaxPrice = maxPrice
		report.MinPrice = minPrice
	}
	return report
}

func (s *DashboardService) fetchPoints(ctx context.Context, assetID string) ([]models.PricePoint, error) {
	start := time.Now()
	points, err := s.rates.FetchPricePoints(ctx, assetID)
	s.metrics.ObserveFetch(assetID, time.Since(start).Seconds())
	return points, err
}

// fetchPrice returns the live price, or a warning message when it could not
// be obtained. A missing API key is not worth a banner.
func (s *DashboardService) fetchPrice(ctx context.Context, assetID string) (*models.CurrentPrice, string) {
	price, found, err := s.prices.LatestPrice(ctx, assetID)
	switch {
	case errors.Is(err, pricefeed.ErrNotConfigured):
		s.metrics.RecordPriceCall("skipped")
		return nil, ""
	case err != nil:
		s.logger.WithError(err).WithField("asset", assetID).Warn("Failed to fetch current price")
		s.metrics.RecordPriceCall("error")
		return nil, fmt.Sprintf("Current price for %s is unavailable.", assetID)
	case !found:
		s.metrics.RecordPriceCall("not_found")
		return nil, fmt.Sprintf("Current price for %s not found.", assetID)
	}
	s.metrics.RecordPriceCall("ok")
	return price, ""
}

// CurrentPrice looks up the live price of a configured asset.
func (s *DashboardService) CurrentPrice(ctx context.Context, assetID string) (*models.CurrentPrice, bool, error) {
	asset, err := s.ResolveAsset(assetID)
	if err != nil {
		return nil, false, err
	}
	if s.prices == nil {
		return nil, false, pricefeed.ErrNotConfigured
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.current_price", trace.WithAttributes(attribute.String("asset.id", asset.ID)))
	defer span.End()

	price, found, err := s.prices.LatestPrice(ctx, asset.ID)
	if errors.Is(err, pricefeed.ErrNotConfigured) {
		s.metrics.RecordPriceCall("skipped")
		return nil, false, err
	}
	if err != nil {
		span.RecordError(err)
		s.metrics.RecordPriceCall("error")
		return nil, false, err
	}
	if !found {
		s.metrics.RecordPriceCall("not_found")
		return nil, false, nil
	}
	s.metrics.RecordPriceCall("ok")
	return price, true, nil
}

// InvalidateCache drops cached reports for an asset.
func (s *DashboardService) InvalidateCache(ctx context.Context, assetID string) (int, error) {
	asset, err := s.ResolveAsset(assetID)
	if err != nil {
		return 0, err
	}
	if s.reports == nil {
		return 0, nil
	}
	return s.reports.Invalidate(ctx, asset.ID)
}
