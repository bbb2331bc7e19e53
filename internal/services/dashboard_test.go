package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/irfndi/ratepulse/internal/analysis"
	"github.com/irfndi/ratepulse/internal/config"
	"github.com/irfndi/ratepulse/internal/metrics"
	"github.com/irfndi/ratepulse/internal/models"
	"github.com/irfndi/ratepulse/internal/pricefeed"
	"github.com/irfndi/ratepulse/internal/utils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dashboardConfig() config.DashboardConfig {
	return config.DashboardConfig{TopK: 5, Assets: config.DefaultAssets()}
}

func pricePoints(prices ...float64) []models.PricePoint {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = models.PricePoint{Timestamp: base.Add(time.Duration(i) * time.Minute), Price: p}
	}
	return points
}

func quietLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func btcPrice() *models.CurrentPrice {
	return &models.CurrentPrice{Symbol: "BTC", Price: decimal.NewFromInt(65000), Currency: "USD"}
}

func TestDashboardService_Load(t *testing.T) {
	rates := new(MockRateFetcher)
	prices := new(MockPriceSource)
	reports := new(MockReportCache)
	m := metrics.New()

	rates.On("FetchPricePoints", mock.Anything, "BTC").Return(pricePoints(100, 110, 88, 132), nil)
	prices.On("LatestPrice", mock.Anything, "BTC").Return(btcPrice(), true, nil)
	reports.On("Get", mock.Anything, "BTC", 2).Return(nil, false)
	reports.On("Set", mock.Anything, "BTC", 2, mock.AnythingOfType("*models.AnalysisReport")).Return()

	svc := NewDashboardService(dashboardConfig(), rates, prices, reports, m, quietLogger())
	view, err := svc.Load(context.Background(), "btc", 2)
	require.NoError(t, err)

	assert.Equal(t, "BTC", view.Asset.ID)
	assert.Equal(t, 2, view.TopK)
	require.True(t, view.HasData())
	assert.Len(t, view.Report.TopIncreases, 2)
	assert.Equal(t, 132.0, view.Report.MaxPrice)
	assert.Equal(t, 88.0, view.Report.MinPrice)
	assert.Equal(t, "Bitcoin price data loaded successfully!", view.Success)
	assert.Empty(t, view.Warnings)
	assert.Equal(t, metrics.OutcomeOK, view.Outcome)
	assert.False(t, view.Cached)
	require.NotNil(t, view.CurrentPrice)
	assert.True(t, decimal.NewFromInt(65000).Equal(view.CurrentPrice.Price))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysisRequests.WithLabelValues("BTC", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PriceAPICalls.WithLabelValues("ok")))
	rates.AssertExpectations(t)
	prices.AssertExpectations(t)
	reports.AssertExpectations(t)
}

func TestDashboardService_Load_DefaultTopK(t *testing.T) {
	rates := new(MockRateFetcher)
	rates.On("FetchPricePoints", mock.Anything, "ETH").Return(pricePoints(1, 2, 3, 4, 5, 6, 7, 8), nil)

	svc := NewDashboardService(dashboardConfig(), rates, nil, nil, nil, quietLogger())
	view, err := svc.Load(context.Background(), "ETH", 0)
	require.NoError(t, err)

	assert.Equal(t, 5, view.TopK)
	assert.Len(t, view.Report.TopIncreases, 5)
	assert.Len(t, view.Report.TopDecreases, 5)
}

func TestDashboardService_Load_UnknownAsset(t *testing.T) {
	svc := NewDashboardService(dashboardConfig(), new(MockRateFetcher), nil, nil, nil, quietLogger())

	_, err := svc.Load(context.Background(), "XYZ", 5)
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "XYZ")

	_, err = svc.Load(context.Background(), "  ", 5)
	assert.ErrorAs(t, err, &verr)
}

func TestDashboardService_Load_NoData(t *testing.T) {
	rates := new(MockRateFetcher)
	rates.On("FetchPricePoints", mock.Anything, "DOGE").Return([]models.PricePoint{}, nil)

	svc := NewDashboardService(dashboardConfig(), rates, nil, nil, nil, quietLogger())
	view, err := svc.Load(context.Background(), "DOGE", 5)
	require.NoError(t, err)

	assert.False(t, view.HasData())
	assert.Nil(t, view.Report)
	assert.Empty(t, view.Success)
	assert.Equal(t, []string{MsgNoData}, view.Warnings)
	assert.Equal(t, metrics.OutcomeNoData, view.Outcome)
}

func TestDashboardService_Load_SinglePoint(t *testing.T) {
	rates := new(MockRateFetcher)
	rates.On("FetchPricePoints", mock.Anything, "BTC").Return(pricePoints(42), nil)

	svc := NewDashboardService(dashboardConfig(), rates, nil, nil, nil, quietLogger())
	view, err := svc.Load(context.Background(), "BTC", 5)
	require.NoError(t, err)

	require.True(t, view.HasData())
	assert.Equal(t, 42.0, view.Report.MaxPrice)
	assert.Equal(t, 42.0, view.Report.MinPrice)
	assert.Empty(t, view.Report.TopIncreases)
	assert.Equal(t, []string{MsgNotEnoughData}, view.Warnings)
	assert.Equal(t, metrics.OutcomeNoData, view.Outcome)
}

func TestDashboardService_Load_FetchError(t *testing.T) {
	rates := new(MockRateFetcher)
	prices := new(MockPriceSource)
	rates.On("FetchPricePoints", mock.Anything, "BTC").Return(nil, errors.New("connection refused"))
	prices.On("LatestPrice", mock.Anything, "BTC").Return(btcPrice(), true, nil)

	svc := NewDashboardService(dashboardConfig(), rates, prices, nil, nil, quietLogger())
	view, err := svc.Load(context.Background(), "BTC", 5)
	require.NoError(t, err)

	assert.Nil(t, view.Report)
	assert.Equal(t, []string{MsgFetchFailed}, view.Warnings)
	assert.Equal(t, metrics.OutcomeFetchError, view.Outcome)
	assert.NotNil(t, view.CurrentPrice, "price lookup is independent of the rate fetch")
}

func TestDashboardService_Load_FetchErrorKeepsPriceContext(t *testing.T) {
	rates := new(MockRateFetcher)
	prices := new(MockPriceSource)
	rates.On("FetchPricePoints", mock.Anything, "BTC").Return(nil, errors.New("connection refused"))

	var priceCtxErr error
	prices.On("LatestPrice", mock.Anything, "BTC").Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		select {
		case <-ctx.Done():
		case <-time.After(100 * time.Millisecond):
		}
		priceCtxErr = ctx.Err()
	}).Return(btcPrice(), true, nil)

	svc := NewDashboardService(dashboardConfig(), rates, prices, nil, nil, quietLogger())
	view, err := svc.Load(context.Background(), "BTC", 5)
	require.NoError(t, err)

	assert.NoError(t, priceCtxErr)
	assert.Equal(t, metrics.OutcomeFetchError, view.Outcome)
	require.NotNil(t, view.CurrentPrice)
	assert.Equal(t, "BTC", view.CurrentPrice.Symbol)
}

func TestDashboardService_Load_DivisionByZero(t *testing.T) {
	rates := new(MockRateFetcher)
	reports := new(MockReportCache)
	rates.On("FetchPricePoints", mock.Anything, "BTC").Return(pricePoints(100, 0, 50), nil)
	reports.On("Get", mock.Anything, "BTC", 5).Return(nil, false)

	svc := NewDashboardService(dashboardConfig(), rates, nil, reports, nil, quietLogger())
	view, err := svc.Load(context.Background(), "BTC", 5)
	require.NoError(t, err)

	require.Error(t, view.DataErr)
	var dbz *analysis.DivisionByZeroError
	require.ErrorAs(t, view.DataErr, &dbz)
	assert.Equal(t, 1, dbz.Index)
	assert.Equal(t, []string{MsgDataQuality}, view.Warnings)
	assert.Equal(t, metrics.OutcomeDataQuality, view.Outcome)
	assert.Empty(t, view.Success)
	assert.Equal(t, 100.0, view.Report.MaxPrice)
	assert.Equal(t, 0.0, view.Report.MinPrice)
	reports.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDashboardService_Load_CacheHit(t *testing.T) {
	rates := new(MockRateFetcher)
	reports := new(MockReportCache)
	cached := &models.AnalysisReport{AssetID: "BTC", Points: pricePoints(1, 2)}
	reports.On("Get", mock.Anything, "BTC", 5).Return(cached, true)

	svc := NewDashboardService(dashboardConfig(), rates, nil, reports, nil, quietLogger())
	view, err := svc.Load(context.Background(), "BTC", 5)
	require.NoError(t, err)

	assert.Same(t, cached, view.Report)
	assert.True(t, view.Cached)
	assert.Equal(t, metrics.OutcomeCached, view.Outcome)
	rates.AssertNotCalled(t, "FetchPricePoints", mock.Anything, mock.Anything)
}

func TestDashboardService_Load_PriceWarnings(t *testing.T) {
	tests := []struct {
		name    string
		price   *models.CurrentPrice
		found   bool
		err     error
		warning string
	}{
		{"not found", nil, false, nil, "Current price for BTC not found."},
		{"api error", nil, false, errors.New("timeout"), "Current price for BTC is unavailable."},
		{"not configured", nil, false, pricefeed.ErrNotConfigured, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates := new(MockRateFetcher)
			prices := new(MockPriceSource)
			rates.On("FetchPricePoints", mock.Anything, "BTC").Return(pricePoints(1, 2), nil)
			prices.On("LatestPrice", mock.Anything, "BTC").Return(tt.price, tt.found, tt.err)

			svc := NewDashboardService(dashboardConfig(), rates, prices, nil, nil, quietLogger())
			view, err := svc.Load(context.Background(), "BTC", 5)
			require.NoError(t, err)

			assert.Nil(t, view.CurrentPrice)
			if tt.warning == "" {
				assert.Empty(t, view.Warnings)
			} else {
				assert.Equal(t, []string{tt.warning}, view.Warnings)
			}
			assert.Equal(t, metrics.OutcomeOK, view.Outcome)
		})
	}
}

func TestDashboardService_CurrentPrice(t *testing.T) {
	prices := new(MockPriceSource)
	prices.On("LatestPrice", mock.Anything, "ETH").Return(nil, false, nil)

	svc := NewDashboardService(dashboardConfig(), new(MockRateFetcher), prices, nil, nil, quietLogger())

	price, found, err := svc.CurrentPrice(context.Background(), "eth")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, price)

	_, _, err = svc.CurrentPrice(context.Background(), "XYZ")
	var verr *utils.ValidationError
	assert.ErrorAs(t, err, &verr)

	noPrices := NewDashboardService(dashboardConfig(), new(MockRateFetcher), nil, nil, nil, quietLogger())
	_, _, err = noPrices.CurrentPrice(context.Background(), "BTC")
	assert.ErrorIs(t, err, pricefeed.ErrNotConfigured)
}

func TestDashboardService_CurrentPrice_Metrics(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		label  string
		wantOK bool
	}{
		{"missing key is skipped", pricefeed.ErrNotConfigured, "skipped", false},
		{"upstream failure", errors.New("status 500"), "error", false},
		{"found", nil, "ok", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices := new(MockPriceSource)
			if tt.err != nil {
				prices.On("LatestPrice", mock.Anything, "BTC").Return(nil, false, tt.err)
			} else {
				prices.On("LatestPrice", mock.Anything, "BTC").Return(btcPrice(), true, nil)
			}
			m := metrics.New()

			svc := NewDashboardService(dashboardConfig(), new(MockRateFetcher), prices, nil, m, quietLogger())
			_, found, err := svc.CurrentPrice(context.Background(), "BTC")
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantOK, found)

			for _, label := range []string{"ok", "error", "skipped", "not_found"} {
				want := 0.0
				if label == tt.label {
					want = 1
				}
				assert.Equal(t, want, testutil.ToFloat64(m.PriceAPICalls.WithLabelValues(label)), label)
			}
		})
	}
}

func TestDashboardService_InvalidateCache(t *testing.T) {
	reports := new(MockReportCache)
	reports.On("Invalidate", mock.Anything, "DOGE").Return(3, nil)

	svc := NewDashboardService(dashboardConfig(), new(MockRateFetcher), nil, reports, nil, quietLogger())
	n, err := svc.InvalidateCache(context.Background(), "doge")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	uncached := NewDashboardService(dashboardConfig(), new(MockRateFetcher), nil, nil, nil, quietLogger())
	n, err = uncached.InvalidateCache(context.Background(), "DOGE")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDashboardService_Assets(t *testing.T) {
	svc := NewDashboardService(dashboardConfig(), new(MockRateFetcher), nil, nil, nil, nil)

	assets := svc.Assets()
	require.Len(t, assets, 3)
	assert.Equal(t, "BTC", assets[0].ID)

	assets[0].ID = "mutated"
	assert.Equal(t, "BTC", svc.Assets()[0].ID)
}
