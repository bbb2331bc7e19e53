package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/irfndi/ratepulse/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DatabasePool defines the subset of pool operations the repositories use.
// Both *pgxpool.Pool and pgxmock pools satisfy it.
type DatabasePool interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// RateRepository reads scraped exchange rates.
type RateRepository struct {
	pool  DatabasePool
	table string
}

// NewRateRepository creates a repository over the given table. The table
// name may be schema-qualified ("student.domstable") and is quoted as an
// identifier, never interpolated raw.
func NewRateRepository(pool DatabasePool, table string) *RateRepository {
	return &RateRepository{
		pool:  pool,
		table: pgx.Identifier(strings.Split(table, ".")).Sanitize(),
	}
}

func (r *RateRepository) ratesQuery() string {
	return fmt.Sprintf(`
		SELECT time_of_scrape, rate
		FROM %s
		WHERE asset_id_base = $1
		ORDER BY time_of_scrape ASC
	`, r.table)
}

// FetchRates returns every rate row for the asset ordered by scrape time.
// An asset with no rows yields an empty slice and no error.
func (r *RateRepository) FetchRates(ctx context.Context, assetID string) ([]models.ExchangeRate, error) {
	rows, err := r.pool.Query(ctx, r.ratesQuery(), assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates for %s: %w", assetID, err)
	}
	defer rows.Close()

	rates := make([]models.ExchangeRate, 0)
	for rows.Next() {
		rate := models.ExchangeRate{AssetIDBase: assetID}
		var value decimal.Decimal
		if err := rows.Scan(&rate.TimeOfScrape, &value); err != nil {
			return nil, fmt.Errorf("failed to scan rate row for %s: %w", assetID, err)
		}
		rate.Rate = value
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rates for %s: %w", assetID, err)
	}

	return rates, nil
}

// FetchPricePoints returns the asset's rate history as a float price series.
func (r *RateRepository) FetchPricePoints(ctx context.Context, assetID string) ([]models.PricePoint, error) {
	rates, err := r.FetchRates(ctx, assetID)
	if err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, len(rates))
	for i, rate := range rates {
		points[i] = rate.ToPricePoint()
	}
	return points, nil
}
