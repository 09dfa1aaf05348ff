package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	LedgerKindAccount = "account"
	LedgerKindHolding = "holding"
)

type LedgerPrometheusMetrics struct {
	transactionsTotal  *prometheus.CounterVec
	partialUpdateTotal *prometheus.CounterVec
	reconDriftTotal    prometheus.Counter
}

func newLedgerPrometheusMetrics(reg prometheus.Registerer) *LedgerPrometheusMetrics {
	transactionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_total",
		Help: "Ledger calls by kind, direction and outcome.",
	}, []string{"kind", "credit", "success"})

	partialUpdateTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "partial_ledger_update_total",
		Help: "Ledger calls that stopped after some record mutations were applied.",
	}, []string{"kind", "failed_step"})

	reconDriftTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_recon_drift_total",
		Help: "Reconciliations that found a balance different from the sum of its transactions.",
	})

	reg.MustRegister(transactionsTotal, partialUpdateTotal, reconDriftTotal)

	return &LedgerPrometheusMetrics{
		transactionsTotal:  transactionsTotal,
		partialUpdateTotal: partialUpdateTotal,
		reconDriftTotal:    reconDriftTotal,
	}
}

func (m *LedgerPrometheusMetrics) ObserveTransaction(kind string, credit bool, err error) {
	m.transactionsTotal.WithLabelValues(kind, strconv.FormatBool(credit), strconv.FormatBool(err == nil)).Inc()
}

func (m *LedgerPrometheusMetrics) ObservePartialUpdate(kind, failedStep string) {
	m.partialUpdateTotal.WithLabelValues(kind, failedStep).Inc()
}

func (m *LedgerPrometheusMetrics) ObserveReconDrift() {
	m.reconDriftTotal.Inc()
}
