// Package metrics registers the Prometheus instruments for the mediation
// core. Methods are nil-safe so services can run without metrics in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Entitlement checks by feature and outcome.
	EntitlementChecks *prometheus.CounterVec

	// Contact request transitions by kind and resulting status.
	ContactRequests *prometheus.CounterVec

	// Dispute transitions by review kind and resulting status.
	Disputes *prometheus.CounterVec

	// Coverage gate decisions by outcome (allowed, checkout_required, upgrade_required).
	CoverageDecisions *prometheus.CounterVec

	// HTTP request latency by route.
	RequestLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EntitlementChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rinknet_entitlement_checks_total",
			Help: "Total entitlement resolutions by feature and outcome",
		}, []string{"feature", "allowed"}),

		ContactRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rinknet_contact_requests_total",
			Help: "Total contact request transitions by kind and status",
		}, []string{"kind", "status"}),

		Disputes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rinknet_disputes_total",
			Help: "Total dispute transitions by review kind and status",
		}, []string{"kind", "status"}),

		CoverageDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rinknet_coverage_decisions_total",
			Help: "Total player-coverage gate decisions by outcome",
		}, []string{"outcome"}),

		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rinknet_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method"}),
	}
}

// IncrementEntitlementCheck records one resolver call.
func (m *Metrics) IncrementEntitlementCheck(feature string, allowed bool) {
	if m != nil {
		v := "false"
		if allowed {
			v = "true"
		}
		m.EntitlementChecks.WithLabelValues(feature, v).Inc()
	}
}

// IncrementContactRequest records a broker transition.
func (m *Metrics) IncrementContactRequest(kind, status string) {
	if m != nil {
		m.ContactRequests.WithLabelValues(kind, status).Inc()
	}
}

// IncrementDispute records a dispute transition.
func (m *Metrics) IncrementDispute(kind, status string) {
	if m != nil {
		m.Disputes.WithLabelValues(kind, status).Inc()
	}
}

// IncrementCoverageDecision records a gate outcome.
func (m *Metrics) IncrementCoverageDecision(outcome string) {
	if m != nil {
		m.CoverageDecisions.WithLabelValues(outcome).Inc()
	}
}

// ObserveRequestLatency records one HTTP request duration.
func (m *Metrics) ObserveRequestLatency(route, method string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, method).Observe(d.Seconds())
	}
}
