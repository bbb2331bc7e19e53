package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is a single scraped rate row for an asset.
type ExchangeRate struct {
	AssetIDBase  string          `json:"asset_id_base" db:"asset_id_base"`
	TimeOfScrape time.Time       `json:"time_of_scrape" db:"time_of_scrape"`
	Rate         decimal.Decimal `json:"rate" db:"rate"`
}

// PricePoint is one observation in a price series.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// ToPricePoint converts a stored rate into a float price point.
func (r ExchangeRate) ToPricePoint() PricePoint {
	return PricePoint{
		Timestamp: r.TimeOfScrape,
		Price:     r.Rate.InexactFloat64(),
	}
}

// Prices extracts the price column of a series, preserving order.
func Prices(points []PricePoint) []float64 {
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	return prices
}

// CurrentPrice represents the latest quote returned by the price API
type CurrentPrice struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	UpdatedAt time.Time       `json:"updated_at"`
}
