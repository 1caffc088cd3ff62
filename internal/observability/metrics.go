package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	screeningsTotal     *prometheus.CounterVec
	caseActionsTotal    *prometheus.CounterVec
	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		screeningsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenings_total",
			Help: "Total number of screening submissions scored, by type and risk level.",
		}, []string{"type", "risk_level"})

		caseActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flagged_case_actions_total",
			Help: "Total number of flagged-case lifecycle actions.",
		}, []string{"action"})

		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(screeningsTotal, caseActionsTotal, adminRequestsTotal, adminLatencySeconds, adminErrorsTotal)
	})
}

// Screenings exposes the counter for scored screening submissions.
func Screenings() *prometheus.CounterVec {
	RegisterMetrics()
	return screeningsTotal
}

// CaseActions exposes the counter for flagged-case lifecycle actions.
func CaseActions() *prometheus.CounterVec {
	RegisterMetrics()
	return caseActionsTotal
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}
