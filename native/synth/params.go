package synth

import "fmt"

// Params groups the timing and risk limits governing a pool's cycle state
// machine. Durations are wall-clock seconds compared against the engine
// clock.
type Params struct {
	// CycleLength is the minimum active-phase duration before a rebalance
	// may start.
	CycleLength int64
	// RebalanceLength is the minimum off-chain phase duration before the
	// settlement price may be fixed.
	RebalanceLength int64
	// HaltThreshold is how long past the on-chain transition an LP may stall
	// before the admin can force-settle it.
	HaltThreshold int64
	// OracleMaxAge bounds the acceptable staleness of the price feed at the
	// on-chain transition.
	OracleMaxAge int64
	// PriceDeviationBps is the tolerance band between consecutive settlement
	// prices; larger moves demand explicit resolution.
	PriceDeviationBps uint64
	// SettleToleranceBps bounds how far an LP's quoted price may drift from
	// the fixed settlement price.
	SettleToleranceBps uint64
	// LiquidationBonusBps is the collateral premium granted to liquidators.
	LiquidationBonusBps uint64
	// MaxLiquidationBps caps a single liquidation at a share of the target's
	// position.
	MaxLiquidationBps uint64
	// ProtocolFeeBps is the skim applied to accrued interest.
	ProtocolFeeBps uint64
}

// DefaultParams returns the reference configuration used by tests and the
// default config file.
func DefaultParams() Params {
	return Params{
		CycleLength:         86_400,
		RebalanceLength:     3_600,
		HaltThreshold:       21_600,
		OracleMaxAge:        900,
		PriceDeviationBps:   2_000,
		SettleToleranceBps:  100,
		LiquidationBonusBps: 500,
		MaxLiquidationBps:   3_000,
		ProtocolFeeBps:      1_000,
	}
}

// Validate rejects configurations that would wedge the state machine.
func (p Params) Validate() error {
	if p.CycleLength <= 0 {
		return fmt.Errorf("synth params: cycle length must be positive")
	}
	if p.RebalanceLength <= 0 {
		return fmt.Errorf("synth params: rebalance length must be positive")
	}
	if p.HaltThreshold < p.RebalanceLength {
		return fmt.Errorf("synth params: halt threshold (%d) must be at least the rebalance length (%d)",
			p.HaltThreshold, p.RebalanceLength)
	}
	if p.OracleMaxAge <= 0 {
		return fmt.Errorf("synth params: oracle max age must be positive")
	}
	if p.PriceDeviationBps == 0 || p.PriceDeviationBps > 10_000 {
		return fmt.Errorf("synth params: price deviation bps out of range: %d", p.PriceDeviationBps)
	}
	if p.SettleToleranceBps > p.PriceDeviationBps {
		return fmt.Errorf("synth params: settle tolerance must not exceed the deviation band")
	}
	if p.MaxLiquidationBps == 0 || p.MaxLiquidationBps > 10_000 {
		return fmt.Errorf("synth params: max liquidation bps out of range: %d", p.MaxLiquidationBps)
	}
	if p.LiquidationBonusBps > 10_000 {
		return fmt.Errorf("synth params: liquidation bonus bps out of range: %d", p.LiquidationBonusBps)
	}
	if p.ProtocolFeeBps > 2_000 {
		return fmt.Errorf("synth params: protocol fee bps out of range: %d", p.ProtocolFeeBps)
	}
	return nil
}
