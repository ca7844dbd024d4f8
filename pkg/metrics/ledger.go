package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// LedgerMetrics records sale mutations and the ledger totals.
type LedgerMetrics struct {
	mutations *prometheus.CounterVec
	revenue   prometheus.Gauge
	sales     prometheus.Gauge
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_sale_mutations_total",
		Help: "Sale mutations applied to the ledger.",
	}, []string{"operation", "mode"})
	revenue := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_revenue_total",
		Help: "Sum of every sale total currently in the ledger.",
	})
	sales := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_sales",
		Help: "Number of sales currently in the ledger.",
	})
	reg.MustRegister(mutations, revenue, sales)
	return &LedgerMetrics{
		mutations: mutations,
		revenue:   revenue,
		sales:     sales,
	}
}

// RecordMutation increments the mutation counter for the operation and sale mode.
func (m *LedgerMetrics) RecordMutation(operation, mode string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(operation), normalizeLabel(mode)).Inc()
}

// SetTotals publishes the current revenue and sale count.
func (m *LedgerMetrics) SetTotals(revenue decimal.Decimal, sales int) {
	if m == nil || m.revenue == nil {
		return
	}
	m.revenue.Set(revenue.InexactFloat64())
	m.sales.Set(float64(sales))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
