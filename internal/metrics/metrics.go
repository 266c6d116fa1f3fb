// Package metrics provides Prometheus metrics for figops.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Import pipeline
	ImportsTotal     *prometheus.CounterVec
	ImportDuration   prometheus.Histogram
	ScreensExtracted prometheus.Counter
	QueueDepth       prometheus.Gauge

	// Refinement
	RefineCallsTotal *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		ImportsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "figops_imports_total",
				Help: "Total number of finished import jobs",
			},
			[]string{"status"},
		),
		ImportDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "figops_import_duration_seconds",
				Help:    "Duration of import jobs in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		ScreensExtracted: f.NewCounter(
			prometheus.CounterOpts{
				Name: "figops_screens_extracted_total",
				Help: "Total number of screen records extracted",
			},
		),
		QueueDepth: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "figops_import_queue_depth",
				Help: "Number of import jobs waiting for a worker",
			},
		),
		RefineCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "figops_refine_calls_total",
				Help: "Total number of description refine calls",
			},
			[]string{"status"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "figops_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "figops_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// RecordImport records a finished import job.
func (m *Metrics) RecordImport(status string, screens int, duration time.Duration) {
	if m == nil {
		return
	}
	m.ImportsTotal.WithLabelValues(status).Inc()
	m.ImportDuration.Observe(duration.Seconds())
	m.ScreensExtracted.Add(float64(screens))
}

// RecordRefine records one refine call outcome.
func (m *Metrics) RecordRefine(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "fallback"
	}
	m.RefineCallsTotal.WithLabelValues(status).Inc()
}

// SetQueueDepth updates the queue gauge.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
