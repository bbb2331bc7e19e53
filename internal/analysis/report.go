package analysis

import (
	"time"

	"github.com/irfndi/ratepulse/internal/models"
)

// Analyze builds the full report for an ordered price series: the change
// series, the top k increases and decreases, and the max/min price.
//
// Rankings cover the whole change series regardless of sign, so when every
// change is positive the decrease list holds the smallest increases. Each
// ranked row carries the timestamp of the later price point of its
// transition.
func Analyze(assetID string, points []models.PricePoint, k int) (*models.AnalysisReport, error) {
	if len(points) < 2 {
		return nil, emptyInput("analyze", 2, len(points))
	}

	prices := models.Prices(points)
	changes, err := ComputeChanges(prices)
	if err != nil {
		return nil, err
	}
	maxPrice, minPrice, err := GlobalExtrema(prices)
	if err != nil {
		return nil, err
	}

	series := make([]models.ChangePoint, len(changes))
	for i, c := range changes {
		series[i] = models.ChangePoint{Timestamp: points[i+1].Timestamp, Percentage: c}
	}

	return &models.AnalysisReport{
		AssetID:      assetID,
		Points:       points,
		Changes:      series,
		TopIncreases: resolve(points, TopKIncreases(changes, k), models.DirectionIncrease),
		TopDecreases: resolve(points, TopKDecreases(changes, k), models.DirectionDecrease),
		MaxPrice:     maxPrice,
		MinPrice:     minPrice,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

func resolve(points []models.PricePoint, ranked []models.RankedChange, dir models.Direction) []models.ChangeRow {
	rows := make([]models.ChangeRow, len(ranked))
	for i, r := range ranked {
		p := points[r.PointIndex()]
		rows[i] = models.ChangeRow{
			Timestamp:  p.Timestamp,
			Price:      p.Price,
			Percentage: r.Value,
			Direction:  dir,
		}
	}
	return rows
}
