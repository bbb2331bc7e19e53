// Package chart builds Plotly figure descriptions for an analysis report.
// The figure is plain JSON; the dashboard hands it to plotly.js unchanged.
package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/irfndi/ratepulse/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	increaseColor = "#2ca02c"
	decreaseColor = "#d62728"
	smaColor      = "#ff7f0e"
)

// Figure is a Plotly figure: traces plus layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is a single scatter series.
type Trace struct {
	Type string      `json:"type"`
	Mode string      `json:"mode"`
	Name string      `json:"name"`
	X    []time.Time `json:"x"`
	Y    []float64   `json:"y"`
	Line *Line       `json:"line,omitempty"`
}

type Line struct {
	Color string `json:"color,omitempty"`
	Dash  string `json:"dash,omitempty"`
	Width int    `json:"width,omitempty"`
}

type Layout struct {
	Title       Title        `json:"title"`
	XAxis       Axis         `json:"xaxis"`
	YAxis       Axis         `json:"yaxis"`
	Annotations []Annotation `json:"annotations,omitempty"`
	ShowLegend  bool         `json:"showlegend"`
}

type Title struct {
	Text string `json:"text"`
}

type Axis struct {
	Title Title `json:"title"`
}

// Annotation is an arrow pointing at a price point.
type Annotation struct {
	X         time.Time `json:"x"`
	Y         float64   `json:"y"`
	Text      string    `json:"text"`
	ShowArrow bool      `json:"showarrow"`
	ArrowHead int       `json:"arrowhead"`
	AX        int       `json:"ax"`
	AY        int       `json:"ay"`
	Font      *Font     `json:"font,omitempty"`
}

type Font struct {
	Color string `json:"color,omitempty"`
}

// Options tunes figure construction.
type Options struct {
	// MovingAveragePeriod adds an SMA overlay when greater than 1 and the
	// series is at least that long.
	MovingAveragePeriod int
}

// DisplayName returns the asset's human name, title-cased, falling back to
// its id.
func DisplayName(asset models.Asset) string {
	name := strings.TrimSpace(asset.Name)
	if name == "" {
		return strings.ToUpper(asset.ID)
	}
	return cases.Title(language.English).String(name)
}

// Build renders the price line for report with the highest increase and
// decrease annotated at the later point of their transitions.
func Build(asset models.Asset, report *models.AnalysisReport, opts Options) Figure {
	name := DisplayName(asset)

	fig := Figure{
		Layout: Layout{
			Title:      Title{Text: name + " Price Fluctuation"},
			XAxis:      Axis{Title: Title{Text: "Time"}},
			YAxis:      Axis{Title: Title{Text: "Price (USD)"}},
			ShowLegend: opts.MovingAveragePeriod > 1,
		},
	}
	if report == nil {
		return fig
	}

	x := make([]time.Time, len(report.Points))
	for i, p := range report.Points {
		x[i] = p.Timestamp
	}
	fig.Data = append(fig.Data, Trace{
		Type: "scatter",
		Mode: "lines",
		Name: name + " Price",
		X:    x,
		Y:    models.Prices(report.Points),
	})

	if sma, ok := movingAverage(report.Points, opts.MovingAveragePeriod); ok {
		fig.Data = append(fig.Data, sma)
	}

	if row, ok := report.HighestIncrease(); ok {
		fig.Layout.Annotations = append(fig.Layout.Annotations, annotate(row, "Highest Increase", -40, increaseColor))
	}
	if row, ok := report.HighestDecrease(); ok {
		fig.Layout.Annotations = append(fig.Layout.Annotations, annotate(row, "Highest Decrease", 40, decreaseColor))
	}
	return fig
}

func annotate(row models.ChangeRow, label string, ay int, color string) Annotation {
	return Annotation{
		X:         row.Timestamp,
		Y:         row.Price,
		Text:      fmt.Sprintf("%s: %.2f%%", label, row.Percentage),
		ShowArrow: true,
		ArrowHead: 2,
		AX:        0,
		AY:        ay,
		Font:      &Font{Color: color},
	}
}

// movingAverage computes a simple moving average aligned to the timestamps
// it closes on. The first period-1 points have no value and are omitted.
func movingAverage(points []models.PricePoint, period int) (Trace, bool) {
	if period <= 1 || len(points) < period {
		return Trace{}, false
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	values := helper.ChanToSlice(sma.Compute(helper.SliceToChan(models.Prices(points))))

	offset := len(points) - len(values)
	x := make([]time.Time, len(values))
	for i := range values {
		x[i] = points[offset+i].Timestamp
	}

	return Trace{
		Type: "scatter",
		Mode: "lines",
		Name: fmt.Sprintf("SMA %d", period),
		X:    x,
		Y:    values,
		Line: &Line{Color: smaColor, Dash: "dot", Width: 1},
	}, true
}
