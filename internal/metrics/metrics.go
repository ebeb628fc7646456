// Package metrics holds the Prometheus instrumentation of the pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"CryptoSentinel/internal/model"
)

// Metrics holds all Prometheus metrics for the sentinel.
type Metrics struct {
	FetchDur    *prometheus.HistogramVec // labels: source, interval
	FetchErrors *prometheus.CounterVec   // labels: source

	PipelineDur prometheus.Histogram

	SignalStrength *prometheus.GaugeVec // labels: symbol
	SignalLabel    *prometheus.GaugeVec // labels: symbol, signal; 1 for the current label

	ForecastDur    *prometheus.HistogramVec // labels: symbol
	ForecastErrors *prometheus.CounterVec   // labels: symbol, kind
	ForecastChange *prometheus.GaugeVec     // labels: symbol

	HTTPRequests *prometheus.CounterVec   // labels: route, code
	HTTPDur      *prometheus.HistogramVec // labels: route
}

var signals = []model.Signal{
	model.SignalStrongBuy, model.SignalBuy, model.SignalNeutral, model.SignalSell, model.SignalStrongSell,
}

// New creates the metrics and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_fetch_duration_seconds",
			Help:    "Candle fetch latency by source and interval",
			Buckets: prometheus.DefBuckets,
		}, []string{"source", "interval"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_fetch_errors_total",
			Help: "Failed candle fetches by source",
		}, []string{"source"}),
		PipelineDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_pipeline_duration_seconds",
			Help:    "Indicator and signal computation latency per series",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		SignalStrength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sentinel_signal_strength",
			Help: "Latest smoothed composite score by symbol",
		}, []string{"symbol"}),
		SignalLabel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sentinel_signal",
			Help: "Current signal label by symbol (1 for the active label)",
		}, []string{"symbol", "signal"}),
		ForecastDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_forecast_duration_seconds",
			Help:    "Forecast fit latency by symbol",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"symbol"}),
		ForecastErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_forecast_errors_total",
			Help: "Failed forecasts by symbol and error kind",
		}, []string{"symbol", "kind"}),
		ForecastChange: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sentinel_forecast_change_pct",
			Help: "Latest clamped predicted change by symbol",
		}, []string{"symbol"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.FetchDur, m.FetchErrors, m.PipelineDur,
			m.SignalStrength, m.SignalLabel,
			m.ForecastDur, m.ForecastErrors, m.ForecastChange,
			m.HTTPRequests, m.HTTPDur,
		)
	}
	return m
}

func (m *Metrics) ObserveFetch(source string, interval model.Interval, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.FetchDur.WithLabelValues(source, string(interval)).Observe(d.Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) ObservePipeline(d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineDur.Observe(d.Seconds())
}

// SetSignal records the latest strength and label of symbol.
func (m *Metrics) SetSignal(symbol string, strength float64, label model.Signal) {
	if m == nil {
		return
	}
	m.SignalStrength.WithLabelValues(symbol).Set(strength)
	for _, s := range signals {
		v := 0.0
		if s == label {
			v = 1
		}
		m.SignalLabel.WithLabelValues(symbol, string(s)).Set(v)
	}
}

// ObserveForecast records one training run. err is classified by kind.
func (m *Metrics) ObserveForecast(symbol string, d time.Duration, res *model.ForecastResult, err error) {
	if m == nil {
		return
	}
	m.ForecastDur.WithLabelValues(symbol).Observe(d.Seconds())
	if err != nil {
		m.ForecastErrors.WithLabelValues(symbol, ErrorKind(err)).Inc()
		return
	}
	if res != nil {
		m.ForecastChange.WithLabelValues(symbol).Set(res.PredictedChangePct)
	}
}

func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, statusClass(code)).Inc()
	m.HTTPDur.WithLabelValues(route).Observe(d.Seconds())
}

// ErrorKind names the category of a pipeline error.
func ErrorKind(err error) string {
	var fitErr *model.ModelFitError
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, model.ErrDataInsufficient):
		return "data_insufficient"
	case errors.Is(err, model.ErrDataUnavailable):
		return "data_unavailable"
	case errors.As(err, &fitErr):
		return "model_fit"
	default:
		return "other"
	}
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
