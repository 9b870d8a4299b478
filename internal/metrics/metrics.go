// Package metrics exposes Prometheus instrumentation for the API server.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "souschef",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "souschef",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "souschef",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)
	imageUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "souschef",
			Subsystem: "images",
			Name:      "uploads_total",
			Help:      "Recipe image uploads by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers all metrics with the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, loginAttempts, imageUploads)
	})
}

// RecordHTTPRequest records one served request. The path should be the
// route pattern, not the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	Register()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// RecordLoginAttempt records a login by outcome: "success", "failure", or
// "rate_limited".
func RecordLoginAttempt(outcome string) {
	Register()
	loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordImageUpload records a recipe image upload by outcome: "success" or
// "failure".
func RecordImageUpload(outcome string) {
	Register()
	imageUploads.WithLabelValues(outcome).Inc()
}
