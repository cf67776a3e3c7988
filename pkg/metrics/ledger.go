package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records subledger activity counters. All methods are nil-safe
// so services can run without a registry (tests, workers).
type LedgerMetrics struct {
	entriesAppended *prometheus.CounterVec
	paymentsTotal   prometheus.Counter
	derivedSkipped  prometheus.Counter
	statsRequests   prometheus.Counter
}

// NewLedgerMetrics registers the subledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	entriesAppended := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_entries_appended_total",
		Help: "Ledger entries appended, labeled by entry type.",
	}, []string{"entry_type"})
	paymentsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vendor_payments_recorded_total",
		Help: "Vendor payments recorded successfully.",
	})
	derivedSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "derived_entries_skipped_total",
		Help: "Derived entry generations skipped because the entry already existed.",
	})
	statsRequests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vendor_stats_requests_total",
		Help: "Vendor statistics lookups served.",
	})
	reg.MustRegister(entriesAppended, paymentsTotal, derivedSkipped, statsRequests)
	return &LedgerMetrics{
		entriesAppended: entriesAppended,
		paymentsTotal:   paymentsTotal,
		derivedSkipped:  derivedSkipped,
		statsRequests:   statsRequests,
	}
}

// IncEntryAppended increments the appended counter for the given entry type.
func (m *LedgerMetrics) IncEntryAppended(entryType string) {
	if m == nil || m.entriesAppended == nil {
		return
	}
	if entryType == "" {
		entryType = "unknown"
	}
	m.entriesAppended.WithLabelValues(entryType).Inc()
}

// IncPaymentRecorded increments the recorded payment counter.
func (m *LedgerMetrics) IncPaymentRecorded() {
	if m == nil || m.paymentsTotal == nil {
		return
	}
	m.paymentsTotal.Inc()
}

// IncDerivedSkipped increments the idempotent no-op counter.
func (m *LedgerMetrics) IncDerivedSkipped() {
	if m == nil || m.derivedSkipped == nil {
		return
	}
	m.derivedSkipped.Inc()
}

// IncStatsServed increments the stats lookup counter.
func (m *LedgerMetrics) IncStatsServed() {
	if m == nil || m.statsRequests == nil {
		return
	}
	m.statsRequests.Inc()
}
