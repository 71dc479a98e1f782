package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type SynthMetrics struct {
	requestsSubmitted *prometheus.CounterVec
	claimsSettled     *prometheus.CounterVec
	cyclesSettled     *prometheus.CounterVec
	poolsHalted       *prometheus.CounterVec
	poolStatus        *prometheus.GaugeVec
	cycleImbalance    *prometheus.GaugeVec
	settlementPrice   *prometheus.GaugeVec
}

var (
	synthOnce     sync.Once
	synthRegistry *SynthMetrics
)

func Synth() *SynthMetrics {
	synthOnce.Do(func() {
		synthRegistry = &SynthMetrics{
			requestsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synth_requests_submitted_total",
				Help: "Count of submitted requests by kind and pool.",
			}, []string{"pool", "kind"}),
			claimsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synth_claims_settled_total",
				Help: "Count of settled claims by kind and pool.",
			}, []string{"pool", "kind"}),
			cyclesSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synth_cycles_settled_total",
				Help: "Count of finalized cycles per pool.",
			}, []string{"pool"}),
			poolsHalted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synth_pools_halted_total",
				Help: "Count of halt transitions per pool.",
			}, []string{"pool"}),
			poolStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "synth_pool_status",
				Help: "Current pool phase (1 active, 2 offchain, 3 onchain, 4 halted).",
			}, []string{"pool"}),
			cycleImbalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "synth_cycle_imbalance",
				Help: "Signed settlement imbalance of the latest fixed cycle.",
			}, []string{"pool"}),
			settlementPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "synth_settlement_price",
				Help: "Latest settlement price in reserve units per synthetic unit.",
			}, []string{"pool"}),
		}
		prometheus.MustRegister(
			synthRegistry.requestsSubmitted,
			synthRegistry.claimsSettled,
			synthRegistry.cyclesSettled,
			synthRegistry.poolsHalted,
			synthRegistry.poolStatus,
			synthRegistry.cycleImbalance,
			synthRegistry.settlementPrice,
		)
	})
	return synthRegistry
}

func (m *SynthMetrics) ObserveRequest(pool, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.requestsSubmitted.WithLabelValues(pool, kind).Inc()
}

func (m *SynthMetrics) ObserveClaim(pool, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.claimsSettled.WithLabelValues(pool, kind).Inc()
}

func (m *SynthMetrics) ObserveCycleSettled(pool string) {
	if m == nil {
		return
	}
	m.cyclesSettled.WithLabelValues(pool).Inc()
}

func (m *SynthMetrics) ObserveHalt(pool string) {
	if m == nil {
		return
	}
	m.poolsHalted.WithLabelValues(pool).Inc()
}

func (m *SynthMetrics) SetPoolStatus(pool string, status uint8) {
	if m == nil {
		return
	}
	m.poolStatus.WithLabelValues(pool).Set(float64(status))
}

func (m *SynthMetrics) SetCycleImbalance(pool string, imbalance float64) {
	if m == nil {
		return
	}
	m.cycleImbalance.WithLabelValues(pool).Set(imbalance)
}

func (m *SynthMetrics) SetSettlementPrice(pool string, price float64) {
	if m == nil {
		return
	}
	m.settlementPrice.WithLabelValues(pool).Set(price)
}
