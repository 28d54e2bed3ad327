// Package metrics exposes Prometheus collectors for the extraction service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	extractionsTotal        *prometheus.CounterVec
	extractionDuration      prometheus.Histogram
	stageDurationSeconds    *prometheus.HistogramVec
	fallbacksUsedTotal      prometheus.Counter
	robotsDeniedTotal       *prometheus.CounterVec
	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDurationSecs *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times;
// record functions are no-ops until it runs.
func Init() {
	once.Do(func() {
		extractionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobflow_extractions_total",
				Help: "Total pipeline invocations, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		extractionDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jobflow_extraction_duration_seconds",
				Help:    "End-to-end pipeline latency.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		)

		stageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobflow_stage_duration_seconds",
				Help:    "Per-stage latency, labeled by stage.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"stage"},
		)

		fallbacksUsedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "jobflow_fallbacks_used_total",
				Help: "Total fallback escalations attempted across all invocations.",
			},
		)

		robotsDeniedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobflow_robots_denied_total",
				Help: "Extractions denied by robots.txt, labeled by domain.",
			},
			[]string{"domain"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobflow_http_requests_total",
				Help: "Total API requests, labeled by method and status code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobflow_http_request_duration_seconds",
				Help:    "API request latency, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 60},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordExtraction counts one pipeline invocation with its outcome.
func RecordExtraction(outcome string, duration time.Duration) {
	if extractionsTotal == nil {
		return
	}
	extractionsTotal.WithLabelValues(outcome).Inc()
	extractionDuration.Observe(duration.Seconds())
}

// RecordStage records the latency of one pipeline stage.
func RecordStage(stage string, duration time.Duration) {
	if stageDurationSeconds == nil {
		return
	}
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordFallbacks adds the escalations attempted during one invocation.
func RecordFallbacks(n int) {
	if fallbacksUsedTotal == nil || n <= 0 {
		return
	}
	fallbacksUsedTotal.Add(float64(n))
}

// RecordRobotsDenied counts a robots.txt denial for a domain.
func RecordRobotsDenied(domain string) {
	if robotsDeniedTotal == nil {
		return
	}
	if domain == "" {
		domain = "unknown"
	}
	robotsDeniedTotal.WithLabelValues(domain).Inc()
}

// RecordHTTPRequest counts one API request.
func RecordHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, httpStatusLabel(code)).Inc()
	httpRequestDurationSecs.WithLabelValues(method, route).Observe(duration.Seconds())
}

func httpStatusLabel(code int) string {
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
