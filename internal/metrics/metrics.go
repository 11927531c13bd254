// Package metrics exposes pool activity to Prometheus.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PoolMetrics holds the Prometheus collectors for pool operations. A nil
// *PoolMetrics records nothing.
type PoolMetrics struct {
	SwapsTotal         *prometheus.CounterVec
	SwapVolume         *prometheus.CounterVec
	FeesCollected      *prometheus.CounterVec
	FlashLoansTotal    *prometheus.CounterVec
	RegistrySyncsTotal *prometheus.CounterVec
	RollbacksTotal     *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec

	Reserves  *prometheus.GaugeVec
	LPSupply  *prometheus.GaugeVec
	PriceSqrt *prometheus.GaugeVec
}

var (
	poolMetricsOnce sync.Once
	poolMetrics     *PoolMetrics
)

// NewPoolMetrics creates and registers the pool metrics once per process.
func NewPoolMetrics() *PoolMetrics {
	poolMetricsOnce.Do(func() {
		poolMetrics = &PoolMetrics{
			SwapsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "flexpool",
					Subsystem: "pool",
					Name:      "swaps_total",
					Help:      "Swaps by direction and outcome",
				},
				[]string{"pool", "direction", "status"},
			),
			SwapVolume: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "flexpool",
					Subsystem: "pool",
					Name:      "swap_volume_total",
					Help:      "Gross swap input per asset",
				},
				[]string{"pool", "asset"},
			),
			FeesCollected: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "flexpool",
					Subsystem: "pool",
					Name:      "fees_collected_total",
					Help:      "Input and flash loan fees per asset and recipient",
				},
				[]string{"pool", "asset", "recipient"},
			),
			FlashLoansTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "flexpool",
					Subsystem: "pool",
					Name:      "flash_loans_total",
					Help:      "Flash loans issued and repaid",
				},
				[]string{"pool", "asset", "stage"},
			),
			RegistrySyncsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "flexpool",
					Subsystem: "registry",
					Name:      "syncs_total",
					Help:      "Registry round trips",
				},
				[]string{"pool"},
			),
			RollbacksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "flexpool",
					Subsystem: "pool",
					Name:      "rollbacks_total",
					Help:      "Transactions rolled back",
				},
				[]string{"pool", "reason"},
			),
			EventsPublished: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "flexpool",
					Subsystem: "events",
					Name:      "published_total",
					Help:      "Events handed to sinks",
				},
				[]string{"pool", "event"},
			),
			Reserves: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "flexpool",
					Subsystem: "pool",
					Name:      "reserves",
					Help:      "Vault reserves per asset",
				},
				[]string{"pool", "asset"},
			),
			LPSupply: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "flexpool",
					Subsystem: "pool",
					Name:      "lp_supply",
					Help:      "Outstanding LP supply",
				},
				[]string{"pool"},
			),
			PriceSqrt: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "flexpool",
					Subsystem: "pool",
					Name:      "price_sqrt",
					Help:      "Square root of the Y per X price",
				},
				[]string{"pool"},
			),
		}
	})
	return poolMetrics
}

func (m *PoolMetrics) ObserveSwap(pool, direction, status string) {
	if m == nil {
		return
	}
	m.SwapsTotal.WithLabelValues(pool, direction, status).Inc()
}

func (m *PoolMetrics) AddVolume(pool, asset string, amount float64) {
	if m == nil {
		return
	}
	m.SwapVolume.WithLabelValues(pool, asset).Add(amount)
}

// AddFee records a fee; recipient is "lp" or "protocol".
func (m *PoolMetrics) AddFee(pool, asset, recipient string, amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.FeesCollected.WithLabelValues(pool, asset, recipient).Add(amount)
}

// ObserveFlashLoan counts a loan stage, "issued" or "repaid".
func (m *PoolMetrics) ObserveFlashLoan(pool, asset, stage string) {
	if m == nil {
		return
	}
	m.FlashLoansTotal.WithLabelValues(pool, asset, stage).Inc()
}

func (m *PoolMetrics) ObserveSync(pool string) {
	if m == nil {
		return
	}
	m.RegistrySyncsTotal.WithLabelValues(pool).Inc()
}

func (m *PoolMetrics) ObserveRollback(pool, reason string) {
	if m == nil {
		return
	}
	m.RollbacksTotal.WithLabelValues(pool, reason).Inc()
}

func (m *PoolMetrics) ObserveEvent(pool, event string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(pool, event).Inc()
}

// SetState publishes reserves, LP supply and price after a commit.
func (m *PoolMetrics) SetState(pool, xAsset, yAsset string, x, y, lpSupply, priceSqrt float64) {
	if m == nil {
		return
	}
	m.Reserves.WithLabelValues(pool, xAsset).Set(x)
	m.Reserves.WithLabelValues(pool, yAsset).Set(y)
	m.LPSupply.WithLabelValues(pool).Set(lpSupply)
	m.PriceSqrt.WithLabelValues(pool).Set(priceSqrt)
}
