// Package metrics records Prometheus metrics for the HTTP surface and the
// forecasting pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the service metric collectors. A nil Recorder is a no-op,
// which keeps tests free of duplicate-registration panics.
type Recorder struct {
	requestsTotal    *prometheus.CounterVec
	forecastsTotal   *prometheus.CounterVec
	providerErrors   *prometheus.CounterVec
	forecastDuration prometheus.Histogram
}

// New creates a Recorder registered on the default registry.
func New() *Recorder {
	return &Recorder{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecaster_http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"route", "method", "status"},
		),
		forecastsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecaster_forecasts_total",
				Help: "Total number of forecasts generated",
			},
			[]string{"ticker"},
		),
		providerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forecaster_provider_errors_total",
				Help: "Total number of market-data provider failures",
			},
			[]string{"endpoint"},
		),
		forecastDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "forecaster_forecast_duration_seconds",
				Help:    "End-to-end forecast computation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordRequest counts a served HTTP request.
func (r *Recorder) RecordRequest(route, method, status string) {
	if r == nil {
		return
	}
	r.requestsTotal.WithLabelValues(route, method, status).Inc()
}

// RecordForecast counts a generated forecast.
func (r *Recorder) RecordForecast(ticker string) {
	if r == nil {
		return
	}
	r.forecastsTotal.WithLabelValues(ticker).Inc()
}

// RecordProviderError counts a market-data retrieval failure.
func (r *Recorder) RecordProviderError(endpoint string) {
	if r == nil {
		return
	}
	r.providerErrors.WithLabelValues(endpoint).Inc()
}

// ObserveForecastDuration records how long a forecast took.
func (r *Recorder) ObserveForecastDuration(seconds float64) {
	if r == nil {
		return
	}
	r.forecastDuration.Observe(seconds)
}
