package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	credentialsIssued     prometheus.Counter
	issuanceFailures      *prometheus.CounterVec
	moderationTransitions *prometheus.CounterVec
	verificationsTotal    *prometheus.CounterVec
	certificateRender     prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		credentialsIssued = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "credentials_issued_total",
			Help: "Credentials signed and published.",
		})

		issuanceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "issuance_failures_total",
			Help: "Credential issuance failures by stage.",
		}, []string{"stage"})

		moderationTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_transitions_total",
			Help: "Committed moderation transitions by action.",
		}, []string{"action"})

		verificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verifications_total",
			Help: "Token verifications by result.",
		}, []string{"result"})

		certificateRender = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "certificate_render_seconds",
			Help:    "Time spent rendering certificate documents.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			credentialsIssued,
			issuanceFailures,
			moderationTransitions,
			verificationsTotal,
			certificateRender,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// CredentialsIssued counts successful issuances.
func CredentialsIssued() prometheus.Counter {
	RegisterMetrics()
	return credentialsIssued
}

// IssuanceFailures counts failed issuances, labelled sign, render or store.
func IssuanceFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return issuanceFailures
}

// ModerationTransitions counts committed approve/reject transitions.
func ModerationTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return moderationTransitions
}

// Verifications counts verify calls, labelled valid or the failure reason.
func Verifications() *prometheus.CounterVec {
	RegisterMetrics()
	return verificationsTotal
}

// CertificateRender observes PDF render durations.
func CertificateRender() prometheus.Histogram {
	RegisterMetrics()
	return certificateRender
}
