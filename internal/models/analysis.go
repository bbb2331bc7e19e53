package models

import "time"

// Direction labels which ranked list a change belongs to.
type Direction string

const (
	DirectionIncrease Direction = "Increase"
	DirectionDecrease Direction = "Decrease"
)

// RankedChange is a percentage change together with its position in the
// change series.
type RankedChange struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// PointIndex maps the change back to the price point that closes the
// transition.
func (r RankedChange) PointIndex() int {
	return r.Index + 1
}

// ChangeRow is a ranked change resolved against the price series for display.
type ChangeRow struct {
	Timestamp  time.Time `json:"timestamp"`
	Price      float64   `json:"price"`
	Percentage float64   `json:"percentage"`
	Direction  Direction `json:"direction"`
}

// ChangePoint is one element of the change series for charting.
type ChangePoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Percentage float64   `json:"percentage"`
}

// AnalysisReport is everything the presentation layer needs for one asset.
type AnalysisReport struct {
	AssetID      string        `json:"asset_id"`
	Points       []PricePoint  `json:"points"`
	Changes      []ChangePoint `json:"changes"`
	TopIncreases []ChangeRow   `json:"top_increases"`
	TopDecreases []ChangeRow   `json:"top_decreases"`
	MaxPrice     float64       `json:"max_price"`
	MinPrice     float64       `json:"min_price"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// HighestIncrease returns the top ranked increase, if any.
func (r *AnalysisReport) HighestIncrease() (ChangeRow, bool) {
	if r == nil || len(r.TopIncreases) == 0 {
		return ChangeRow{}, false
	}
	return r.TopIncreases[0], true
}

// HighestDecrease returns the top ranked decrease, if any.
func (r *AnalysisReport) HighestDecrease() (ChangeRow, bool) {
	if r == nil || len(r.TopDecreases) == 0 {
		return ChangeRow{}, false
	}
	return r.TopDecreases[0], true
}

// Asset describes a tradable instrument shown on the dashboard.
type Asset struct {
	ID      string `json:"id" mapstructure:"id"`
	Name    string `json:"name" mapstructure:"name"`
	LogoURL string `json:"logo_url" mapstructure:"logo_url"`
}

// Label renders the asset the way the selector shows it, e.g. "Bitcoin (BTC)".
func (a Asset) Label() string {
	return a.Name + " (" + a.ID + ")"
}
