package synth

import (
	"math/big"
	"time"
)

// Oracle resolves prices for the tracked real-world asset. Prices are reserve
// units per synthetic unit scaled by 1e18. Implementations own the data-fetch
// mechanics; the engine only consumes the resolved values.
type Oracle interface {
	// CurrentPrice returns the latest observed price.
	CurrentPrice() (*big.Int, error)
	// IsMarketOpen reports whether the underlying market is in session.
	IsMarketOpen() bool
	// LastUpdate returns the timestamp of the most recent observation for
	// staleness checks.
	LastUpdate() time.Time
	// SplitDetected reports whether the feed flagged a corporate action that
	// discontinuously re-based the price.
	SplitDetected() bool
	// PreSplitPrice returns the last price observed before a flagged split.
	PreSplitPrice() *big.Int
	// VerifySplit confirms the flagged split matches the exact ratio.
	VerifySplit(ratioNum, ratioDen uint64) bool
}

// Registry is the capability service gating which assets and oracles a
// factory may bind. Injected at construction; never consulted on the hot
// path.
type Registry interface {
	AssetAllowed(symbol string) bool
	OracleAllowed(name string) bool
}

// deviationExceeds reports whether next moved away from prev by more than
// toleranceBps: |next - prev| * 10_000 > prev * toleranceBps.
func deviationExceeds(prev, next *big.Int, toleranceBps uint64) bool {
	if prev == nil || prev.Sign() == 0 || next == nil {
		return false
	}
	diff := new(big.Int).Sub(next, prev)
	if diff.Sign() < 0 {
		diff.Neg(diff)
	}
	diff.Mul(diff, basisPoints)
	bound := new(big.Int).Mul(prev, new(big.Int).SetUint64(toleranceBps))
	return diff.Cmp(bound) > 0
}
