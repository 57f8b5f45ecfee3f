package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records outcomes of wallet ledger operations.
type LedgerMetrics struct {
	transactions *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	transactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_total",
		Help: "Committed wallet transactions by type.",
	}, []string{"type"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_rejections_total",
		Help: "Rejected ledger operations by reason.",
	}, []string{"reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duration of ledger operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(transactions, rejections, duration)
	return &LedgerMetrics{
		transactions: transactions,
		rejections:   rejections,
		duration:     duration,
	}
}

// IncTransaction increments the committed-transaction counter for a type.
func (l *LedgerMetrics) IncTransaction(txType string) {
	if l == nil || l.transactions == nil {
		return
	}
	l.transactions.WithLabelValues(normalizeLabel(txType)).Inc()
}

// IncRejection increments the rejection counter for the named reason.
func (l *LedgerMetrics) IncRejection(reason string) {
	if l == nil || l.rejections == nil {
		return
	}
	l.rejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveDuration records the duration of the named operation.
func (l *LedgerMetrics) ObserveDuration(operation string, duration time.Duration) {
	if l == nil || l.duration == nil {
		return
	}
	l.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
