// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for analysis requests.
const (
	OutcomeOK          = "ok"
	OutcomeNoData      = "no_data"
	OutcomeDataQuality = "data_quality"
	OutcomeFetchError  = "fetch_error"
	OutcomeCached      = "cached"
)

// Metrics groups the application's collectors so tests can use a private
// registry.
type Metrics struct {
	AnalysisRequests *prometheus.CounterVec
	FetchDuration    *prometheus.HistogramVec
	PriceAPICalls    *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		AnalysisRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ratepulse",
			Name:      "analysis_requests_total",
			Help:      "Analysis requests by asset and outcome.",
		}, []string{"asset", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ratepulse",
			Name:      "rate_fetch_duration_seconds",
			Help:      "Time spent reading rate history from the database.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"asset"}),
		PriceAPICalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ratepulse",
			Name:      "price_api_calls_total",
			Help:      "Current price lookups by result.",
		}, []string{"result"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ratepulse",
			Name:      "report_cache_lookups_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.AnalysisRequests,
		m.FetchDuration,
		m.PriceAPICalls,
		m.CacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCacheHit counts a cache hit. Safe on a nil receiver.
func (m *Metrics) RecordCacheHit() {
	if m != nil {
		m.CacheLookups.WithLabelValues("hit").Inc()
	}
}

// RecordCacheMiss counts a cache miss. Safe on a nil receiver.
func (m *Metrics) RecordCacheMiss() {
	if m != nil {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

// RecordAnalysis counts one analysis request. Safe on a nil receiver.
func (m *Metrics) RecordAnalysis(asset, outcome string) {
	if m != nil {
		m.AnalysisRequests.WithLabelValues(asset, outcome).Inc()
	}
}

// ObserveFetch records a database fetch duration in seconds. Safe on a nil receiver.
func (m *Metrics) ObserveFetch(asset string, seconds float64) {
	if m != nil {
		m.FetchDuration.WithLabelValues(asset).Observe(seconds)
	}
}

// RecordPriceCall counts a price API lookup. Safe on a nil receiver.
func (m *Metrics) RecordPriceCall(result string) {
	if m != nil {
		m.PriceAPICalls.WithLabelValues(result).Inc()
	}
}
