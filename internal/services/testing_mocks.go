package services

import (
	"context"

	"github.com/irfndi/ratepulse/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRateFetcher implements RateFetcher for testing within the services package
type MockRateFetcher struct {
	mock.Mock
}

func (m *MockRateFetcher) FetchPricePoints(ctx context.Context, assetID string) ([]models.PricePoint, error) {
	args := m.Called(ctx, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PricePoint), args.Error(1)
}

// MockPriceSource implements pricefeed.PriceSource
type MockPriceSource struct {
	mock.Mock
}

func (m *MockPriceSource) LatestPrice(ctx context.Context, symbol string) (*models.CurrentPrice, bool, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.CurrentPrice), args.Bool(1), args.Error(2)
}

// MockReportCache implements cache.ReportCache
type MockReportCache struct {
	mock.Mock
}

func (m *MockReportCache) Get(ctx context.Context, assetID string, k int) (*models.AnalysisReport, bool) {
	args := m.Called(ctx, assetID, k)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.AnalysisReport), args.Bool(1)
}

func (m *MockReportCache) Set(ctx context.Context, assetID string, k int, report *models.AnalysisReport) {
	m.Called(ctx, assetID, k, report)
}

func (m *MockReportCache) Invalidate(ctx context.Context, assetID string) (int, error) {
	args := m.Called(ctx, assetID)
	return args.Int(0), args.Error(1)
}
