package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the check workflow.
type Metrics struct {
	// Submissions by outcome ("created", "existing", "rejected", "provider_error")
	Submissions *prometheus.CounterVec

	// Refresh results by outcome ("transitioned", "unchanged", "unknown_code", "provider_error")
	Refreshes *prometheus.CounterVec

	// Terminal outcomes by final status
	Outcomes *prometheus.CounterVec

	// Provider call latency by operation ("create", "pull_status")
	ProviderLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all check workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vetgate_check_submissions_total",
			Help: "Total check submission attempts by outcome",
		}, []string{"outcome"}),

		Refreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vetgate_check_refreshes_total",
			Help: "Total status refresh attempts by outcome",
		}, []string{"outcome"}),

		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vetgate_check_outcomes_total",
			Help: "Total terminal check outcomes by status",
		}, []string{"status"}),

		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vetgate_provider_call_duration_seconds",
			Help:    "Duration of screening provider calls by operation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
	}
}

// IncrementSubmission records a submission attempt outcome.
func (m *Metrics) IncrementSubmission(outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(outcome).Inc()
	}
}

// IncrementRefresh records a refresh attempt outcome.
func (m *Metrics) IncrementRefresh(outcome string) {
	if m != nil {
		m.Refreshes.WithLabelValues(outcome).Inc()
	}
}

// IncrementOutcome records a terminal outcome.
func (m *Metrics) IncrementOutcome(status string) {
	if m != nil {
		m.Outcomes.WithLabelValues(status).Inc()
	}
}

// ObserveProviderLatency records the duration of a provider call.
func (m *Metrics) ObserveProviderLatency(operation string, d time.Duration) {
	if m != nil {
		m.ProviderLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
