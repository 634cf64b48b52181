// Package metrics holds the Prometheus collectors shared by the fetch,
// pipeline, AI and notification paths.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for StockLens.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FetchTotal       *prometheus.CounterVec // labels: source, result
	FetchDur         *prometheus.HistogramVec
	BarsDropped      prometheus.Counter
	PipelineRuns     prometheus.Counter
	PipelineDur      prometheus.Histogram
	SignalsTotal     *prometheus.CounterVec // labels: kind
	AIRequestsTotal  *prometheus.CounterVec // labels: op, result
	AICacheHits      prometheus.Counter
	NotificationsErr prometheus.Counter

	registry *prometheus.Registry
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_fetch_total",
			Help: "Upstream quote fetches by source and result",
		}, []string{"source", "result"}),
		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stocklens_fetch_duration_seconds",
			Help:    "Upstream quote fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		BarsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocklens_bars_dropped_total",
			Help: "Raw quotes dropped by the normalizer (missing close or duplicate date)",
		}),
		PipelineRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocklens_pipeline_runs_total",
			Help: "Indicator pipeline invocations",
		}),
		PipelineDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stocklens_pipeline_duration_seconds",
			Help:    "Indicator pipeline latency",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_signals_total",
			Help: "Newly recorded RSI signals by kind",
		}, []string{"kind"}),
		AIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_ai_requests_total",
			Help: "Generative AI requests by operation and result",
		}, []string{"op", "result"}),
		AICacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocklens_ai_cache_hits_total",
			Help: "AI analyses served from cache",
		}),
		NotificationsErr: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocklens_notification_errors_total",
			Help: "Telegram sends that exhausted their retries",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.FetchTotal, m.FetchDur, m.BarsDropped,
		m.PipelineRuns, m.PipelineDur, m.SignalsTotal,
		m.AIRequestsTotal, m.AICacheHits, m.NotificationsErr,
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one upstream fetch.
func (m *Metrics) ObserveFetch(source string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FetchTotal.WithLabelValues(source, result).Inc()
	m.FetchDur.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

// AddDropped counts quotes removed by the normalizer.
func (m *Metrics) AddDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BarsDropped.Add(float64(n))
}

// ObservePipeline records one indicator pipeline run.
func (m *Metrics) ObservePipeline(start time.Time) {
	if m == nil {
		return
	}
	m.PipelineRuns.Inc()
	m.PipelineDur.Observe(time.Since(start).Seconds())
}

// IncSignal counts a newly recorded signal.
func (m *Metrics) IncSignal(kind string) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(kind).Inc()
}

// ObserveAI records one AI request.
func (m *Metrics) ObserveAI(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.AIRequestsTotal.WithLabelValues(op, result).Inc()
}

// IncAICacheHit counts an analysis served from cache.
func (m *Metrics) IncAICacheHit() {
	if m == nil {
		return
	}
	m.AICacheHits.Inc()
}

// IncNotificationError counts a failed notification.
func (m *Metrics) IncNotificationError() {
	if m == nil {
		return
	}
	m.NotificationsErr.Inc()
}
