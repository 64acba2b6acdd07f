package metrics

import "github.com/prometheus/client_golang/prometheus"

// LedgerWriteMetrics tracks how often each write strategy in the degrading
// chain runs and how writes conclude.
type LedgerWriteMetrics struct {
	strategyAttempts *prometheus.CounterVec
	verification     *prometheus.CounterVec
}

// NewLedgerWriteMetrics registers the ledger writer metrics on the provided registerer.
func NewLedgerWriteMetrics(reg prometheus.Registerer) *LedgerWriteMetrics {
	if reg == nil {
		return &LedgerWriteMetrics{}
	}
	strategyAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_write_strategy_attempts",
		Help: "Ledger write attempts partitioned by strategy and outcome.",
	}, []string{"strategy", "outcome"})
	verification := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_write_verifications",
		Help: "Persistence verification results after a write pass.",
	}, []string{"result"})
	reg.MustRegister(strategyAttempts, verification)
	return &LedgerWriteMetrics{
		strategyAttempts: strategyAttempts,
		verification:     verification,
	}
}

// ObserveStrategy records one attempt of the named strategy.
func (m *LedgerWriteMetrics) ObserveStrategy(strategy, outcome string) {
	if m == nil || m.strategyAttempts == nil {
		return
	}
	m.strategyAttempts.WithLabelValues(normalizeLabel(strategy), normalizeLabel(outcome)).Inc()
}

// ObserveVerification records the result of a persistence verification.
func (m *LedgerWriteMetrics) ObserveVerification(result string) {
	if m == nil || m.verification == nil {
		return
	}
	m.verification.WithLabelValues(normalizeLabel(result)).Inc()
}
