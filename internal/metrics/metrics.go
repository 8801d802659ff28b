// Package metrics exposes Prometheus collectors for the scraper bridge.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Backend labels distinguish the primary RT-CV server from its mirror.
const (
	BackendPrimary     = "primary"
	BackendAlternative = "alternative"
)

var (
	backendRequestsTotal          *prometheus.CounterVec
	backendRequestDurationSeconds *prometheus.HistogramVec
	backendRetriesTotal           *prometheus.CounterVec
	mirrorFailuresTotal           *prometheus.CounterVec
	cvsSentTotal                  *prometheus.CounterVec
	cvResubmissionsTotal          prometheus.Counter
	throttleDelaysTotal           prometheus.Counter
	aliveChecksTotal              *prometheus.CounterVec
	httpRequestsTotal             *prometheus.CounterVec
	httpRequestDurationSeconds    *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		backendRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rtcv_backend_requests_total",
				Help: "Total number of calls made to RT-CV, labeled by backend, method and code.",
			},
			[]string{"backend", "method", "code"},
		)

		backendRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rtcv_backend_request_duration_seconds",
				Help:    "Histogram of RT-CV call latencies, labeled by backend and method.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"backend", "method"},
		)

		backendRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rtcv_backend_retries_total",
				Help: "Total number of retried RT-CV calls, labeled by backend.",
			},
			[]string{"backend"},
		)

		mirrorFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rtcv_mirror_failures_total",
				Help: "Total number of failed calls to the alternative server, labeled by operation.",
			},
			[]string{"operation"},
		)

		cvsSentTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rtcv_cvs_sent_total",
				Help: "Total number of CV submissions, labeled by kind and result.",
			},
			[]string{"kind", "result"},
		)

		cvResubmissionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rtcv_cv_resubmissions_total",
				Help: "Total number of CVs resubmitted after stripping rejected fields.",
			},
		)

		throttleDelaysTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rtcv_throttle_delays_total",
				Help: "Total number of CV submissions delayed by the send throttle.",
			},
		)

		aliveChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rtcv_alive_checks_total",
				Help: "Total number of scraper status polls, labeled by result.",
			},
			[]string{"result"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_http_requests_total",
				Help: "Total number of inbound HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_http_request_duration_seconds",
				Help:    "Histogram of inbound HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// BackendLabel maps the alternative flag to a backend label value.
func BackendLabel(alternative bool) string {
	if alternative {
		return BackendAlternative
	}
	return BackendPrimary
}

// ObserveBackendCall records a finished RT-CV call. A zero code means the
// call never produced an HTTP response.
func ObserveBackendCall(backend, method string, code int, duration time.Duration) {
	Init()
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	backendRequestsTotal.WithLabelValues(backend, method, label).Inc()
	backendRequestDurationSeconds.WithLabelValues(backend, method).Observe(duration.Seconds())
}

// ObserveRetry increments the retry counter.
func ObserveRetry(backend string) {
	Init()
	backendRetriesTotal.WithLabelValues(backend).Inc()
}

// ObserveMirrorFailure increments the mirror failure counter for an operation.
func ObserveMirrorFailure(operation string) {
	Init()
	mirrorFailuresTotal.WithLabelValues(operation).Inc()
}

// ObserveCVSent records the outcome of a CV submission.
func ObserveCVSent(kind string, err error) {
	Init()
	result := "success"
	if err != nil {
		result = "failure"
	}
	cvsSentTotal.WithLabelValues(kind, result).Inc()
}

// ObserveResubmission increments the sanitized resubmission counter.
func ObserveResubmission() {
	Init()
	cvResubmissionsTotal.Inc()
}

// ObserveThrottleDelay increments the throttle delay counter.
func ObserveThrottleDelay() {
	Init()
	throttleDelaysTotal.Inc()
}

// ObserveAliveCheck records a status poll result ("active", "inactive" or "error").
func ObserveAliveCheck(result string) {
	Init()
	aliveChecksTotal.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest increments the inbound HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
