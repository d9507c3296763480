// Package metrics exposes application-level prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Module provides the shared instrument set.
var Module = fx.Provide(New)

// Metrics counts the accounting engine's externally visible work.
type Metrics struct {
	usageReads         prometheus.Counter
	backfillDays       prometheus.Counter
	backfillFailures   prometheus.Counter
	replacementEntries prometheus.Counter
	rollupCompactions  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		usageReads: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "skyvault",
			Subsystem: "ledger",
			Name:      "usage_reads_total",
			Help:      "Served usage totals.",
		}),
		backfillDays: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "skyvault",
			Subsystem: "ledger",
			Name:      "backfill_days_total",
			Help:      "Daily entries written by backfill.",
		}),
		backfillFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "skyvault",
			Subsystem: "ledger",
			Name:      "backfill_failures_total",
			Help:      "Backfill runs that stopped partway.",
		}),
		replacementEntries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "skyvault",
			Subsystem: "ledger",
			Name:      "replacement_entries_total",
			Help:      "Recorded replacement deltas.",
		}),
		rollupCompactions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "skyvault",
			Subsystem: "rollup",
			Name:      "compactions_total",
			Help:      "Monthly and yearly entries written by rollup.",
		}),
	}
}

func (m *Metrics) IncUsageRead()        { m.usageReads.Inc() }
func (m *Metrics) IncBackfillDay()      { m.backfillDays.Inc() }
func (m *Metrics) IncBackfillFailure()  { m.backfillFailures.Inc() }
func (m *Metrics) IncReplacementEntry() { m.replacementEntries.Inc() }
func (m *Metrics) IncRollupCompaction() { m.rollupCompactions.Inc() }
