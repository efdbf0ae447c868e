package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	gatewayRequestsTotal  *prometheus.CounterVec
	gatewayLatencySeconds *prometheus.HistogramVec
	enrollmentOutcomes    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the client and the development API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "classpilot",
			Name:      "api_requests_total",
			Help:      "Total number of development API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "classpilot",
			Name:      "api_latency_seconds",
			Help:      "Latency distribution for development API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "classpilot",
			Name:      "api_errors_total",
			Help:      "Total number of error responses returned by the development API.",
		}, []string{"method", "route", "status"})

		gatewayRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "classpilot",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Outbound ClassPilot API calls by operation and outcome.",
		}, []string{"operation", "outcome"})

		gatewayLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "classpilot",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound ClassPilot API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"})

		enrollmentOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "classpilot",
			Subsystem: "enrollment",
			Name:      "outcomes_total",
			Help:      "Batch enrollment attempts by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			gatewayRequestsTotal, gatewayLatencySeconds, enrollmentOutcomes,
		)
	})
}

// APIRequests exposes the counter for development API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for development API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for development API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// GatewayRequests exposes the outbound call counter.
func GatewayRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return gatewayRequestsTotal
}

// GatewayLatency exposes the outbound call latency histogram.
func GatewayLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return gatewayLatencySeconds
}

// EnrollmentOutcomes exposes the enrollment outcome counter.
func EnrollmentOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return enrollmentOutcomes
}
