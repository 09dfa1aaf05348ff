package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type SubscriptionPrometheusMetrics struct {
	sessionsActive *prometheus.GaugeVec
	snapshotsTotal *prometheus.CounterVec
	failuresTotal  *prometheus.CounterVec
}

func newSubscriptionPrometheusMetrics(reg prometheus.Registerer) *SubscriptionPrometheusMetrics {
	sessionsActive := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "subscription_sessions_active",
		Help: "Live query sessions currently open.",
	}, []string{"kind"})

	snapshotsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "subscription_snapshots_total",
		Help: "Snapshots handed to live query sessions.",
	}, []string{"kind"})

	failuresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "subscription_failures_total",
		Help: "Live query sessions ended by an error.",
	}, []string{"kind", "code"})

	reg.MustRegister(sessionsActive, snapshotsTotal, failuresTotal)

	return &SubscriptionPrometheusMetrics{
		sessionsActive: sessionsActive,
		snapshotsTotal: snapshotsTotal,
		failuresTotal:  failuresTotal,
	}
}

func (m *SubscriptionPrometheusMetrics) SessionOpened(kind string) {
	m.sessionsActive.WithLabelValues(kind).Inc()
}

func (m *SubscriptionPrometheusMetrics) SessionClosed(kind string) {
	m.sessionsActive.WithLabelValues(kind).Dec()
}

func (m *SubscriptionPrometheusMetrics) ObserveSnapshot(kind string) {
	m.snapshotsTotal.WithLabelValues(kind).Inc()
}

func (m *SubscriptionPrometheusMetrics) ObserveFailure(kind, code string) {
	m.failuresTotal.WithLabelValues(kind, code).Inc()
}
