// Package metrics exposes Prometheus instrumentation for the calendar
// service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pageBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dagaz",
		Subsystem: "calendar",
		Name:      "page_build_seconds",
		Help:      "Time to compute a calendar page (fetch, bucket, layout).",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"mode"})

	reschedules = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dagaz",
		Subsystem: "calendar",
		Name:      "reschedules_total",
		Help:      "Completed drag-to-reschedule operations by outcome.",
	}, []string{"outcome"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dagaz",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method and status class.",
	}, []string{"method", "class"})
)

// ObservePageBuild records one calendar page computation.
func ObservePageBuild(mode string, d time.Duration) {
	pageBuildDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// CountReschedule records one reschedule attempt; outcome is "ok" or
// "error".
func CountReschedule(outcome string) {
	reschedules.WithLabelValues(outcome).Inc()
}

// CountRequest records one HTTP request.
func CountRequest(method string, status int) {
	class := "2xx"
	switch {
	case status >= 500:
		class = "5xx"
	case status >= 400:
		class = "4xx"
	case status >= 300:
		class = "3xx"
	}
	httpRequests.WithLabelValues(method, class).Inc()
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
