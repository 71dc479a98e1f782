package synth

import (
	"fmt"
	"math/big"
)

// InterestCurve parameterises the piecewise-linear borrow rate applied to
// synthetic exposure. All values are annualised basis points except the tier
// breakpoints, which are utilisation basis points.
type InterestCurve struct {
	// BaseBps is the flat rate charged while utilisation stays below Tier1Bps.
	BaseBps uint64
	// Rate1Bps is the rate reached exactly at Tier2Bps utilisation.
	Rate1Bps uint64
	// MaxBps is the rate reached at (and clamped above) full utilisation.
	MaxBps uint64
	// Tier1Bps and Tier2Bps are the curve breakpoints.
	Tier1Bps uint64
	Tier2Bps uint64
}

// Policy is the pure calculator consulted by the ledgers and the cycle
// orchestrator: interest-rate curve, collateral requirements, health tiers and
// available-liquidity math. It holds configuration only and never touches
// state.
type Policy struct {
	Curve InterestCurve
	// HealthyRatioBps is the collateral ratio a position must maintain.
	HealthyRatioBps uint64
	// LiquidationRatioBps is the ratio below which a position becomes
	// eligible for liquidation.
	LiquidationRatioBps uint64
}

// HealthStatus summarises posted versus required collateral.
type HealthStatus uint8

const (
	HealthLiquidatable HealthStatus = iota + 1
	HealthWarning
	HealthHealthy
)

func (h HealthStatus) String() string {
	switch h {
	case HealthLiquidatable:
		return "liquidatable"
	case HealthWarning:
		return "warning"
	case HealthHealthy:
		return "healthy"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(h))
	}
}

// Validate rejects curve and ratio configurations that would make the policy
// ill-defined.
func (p Policy) Validate() error {
	c := p.Curve
	if c.Tier1Bps >= c.Tier2Bps {
		return fmt.Errorf("synth policy: tier1 (%d) must be below tier2 (%d)", c.Tier1Bps, c.Tier2Bps)
	}
	if c.Tier2Bps >= 10_000 {
		return fmt.Errorf("synth policy: tier2 (%d) must be below 10000", c.Tier2Bps)
	}
	if c.BaseBps > c.Rate1Bps || c.Rate1Bps > c.MaxBps {
		return fmt.Errorf("synth policy: rates must satisfy base <= rate1 <= max")
	}
	if p.LiquidationRatioBps >= p.HealthyRatioBps {
		return fmt.Errorf("synth policy: liquidation ratio (%d) must be below healthy ratio (%d)",
			p.LiquidationRatioBps, p.HealthyRatioBps)
	}
	return nil
}

// InterestRate evaluates the curve at the given utilisation (basis points) and
// returns an annualised rate in basis points. The curve is flat at BaseBps
// below Tier1Bps, interpolates linearly to Rate1Bps at Tier2Bps, interpolates
// to MaxBps at full utilisation and clamps to MaxBps beyond it.
func (p Policy) InterestRate(utilizationBps uint64) uint64 {
	c := p.Curve
	switch {
	case utilizationBps <= c.Tier1Bps:
		return c.BaseBps
	case utilizationBps <= c.Tier2Bps:
		span := c.Tier2Bps - c.Tier1Bps
		rise := c.Rate1Bps - c.BaseBps
		return c.BaseBps + rise*(utilizationBps-c.Tier1Bps)/span
	case utilizationBps <= 10_000:
		span := 10_000 - c.Tier2Bps
		rise := c.MaxBps - c.Rate1Bps
		return c.Rate1Bps + rise*(utilizationBps-c.Tier2Bps)/span
	default:
		return c.MaxBps
	}
}

// RequiredCollateral computes exposureValue * ratioBps / 10_000.
func RequiredCollateral(exposureValue *big.Int, ratioBps uint64) *big.Int {
	return bpsShare(exposureValue, ratioBps)
}

// Health classifies a collateral ratio against the liquidation and healthy
// thresholds. Positions with zero exposure are always healthy.
func Health(currentRatioBps, healthyBps, liquidationBps uint64) HealthStatus {
	switch {
	case currentRatioBps < liquidationBps:
		return HealthLiquidatable
	case currentRatioBps < healthyBps:
		return HealthWarning
	default:
		return HealthHealthy
	}
}

// HealthOf derives the collateral ratio for a position and classifies it.
func (p Policy) HealthOf(collateral, exposureValue *big.Int) HealthStatus {
	if exposureValue == nil || exposureValue.Sign() == 0 {
		return HealthHealthy
	}
	if collateral == nil || collateral.Sign() <= 0 {
		return HealthLiquidatable
	}
	ratio := new(big.Int).Mul(collateral, basisPoints)
	ratio.Quo(ratio, exposureValue)
	if !ratio.IsUint64() {
		return HealthHealthy
	}
	return Health(ratio.Uint64(), p.HealthyRatioBps, p.LiquidationRatioBps)
}

// AvailableLiquidity is total committed plus pending additions minus pending
// reductions minus already-utilised liquidity, floored at zero.
func AvailableLiquidity(committed, pendingAdd, pendingReduce, utilized *big.Int) *big.Int {
	available := new(big.Int)
	if committed != nil {
		available.Add(available, committed)
	}
	if pendingAdd != nil {
		available.Add(available, pendingAdd)
	}
	if pendingReduce != nil {
		available.Sub(available, pendingReduce)
	}
	if utilized != nil {
		available.Sub(available, utilized)
	}
	if available.Sign() < 0 {
		return big.NewInt(0)
	}
	return available
}

// utilizationBps derives the pool utilisation in basis points: synthetic
// notional outstanding valued at the last settlement price over committed
// liquidity. A pool with no committed liquidity but live exposure reports
// over-utilisation so the curve clamps at MaxBps.
func utilizationBps(utilizedValue, committed *big.Int) uint64 {
	if utilizedValue == nil || utilizedValue.Sign() == 0 {
		return 0
	}
	if committed == nil || committed.Sign() == 0 {
		return 20_000
	}
	ratio := new(big.Int).Mul(utilizedValue, basisPoints)
	ratio.Quo(ratio, committed)
	if !ratio.IsUint64() {
		return 20_000
	}
	return ratio.Uint64()
}
