package synth

import "math/big"

var (
	basisPoints = big.NewInt(10_000)
	// ray is the 1e27 fixed-point precision used for interest indexes.
	ray     = mustBigInt("1000000000000000000000000000")
	halfRay = new(big.Int).Rsh(ray, 1)
	// pricePrecision scales settlement prices: reserve units per synthetic
	// unit multiplied by 1e18.
	pricePrecision = mustBigInt("1000000000000000000")
)

const secondsPerYear = 31_536_000

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

func rayMul(a, b *big.Int) *big.Int {
	if a == nil || b == nil {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	product.Add(product, halfRay)
	product.Quo(product, ray)
	return product
}

func rayDiv(a, b *big.Int) *big.Int {
	if a == nil || b == nil || b.Sign() == 0 {
		return big.NewInt(0)
	}
	numerator := new(big.Int).Mul(a, ray)
	numerator.Add(numerator, halfUp(b))
	numerator.Quo(numerator, b)
	return numerator
}

// bpsShare computes amount * bps / 10_000 with floor rounding, matching
// on-chain fee math.
func bpsShare(amount *big.Int, bps uint64) *big.Int {
	if amount == nil || amount.Sign() == 0 || bps == 0 {
		return big.NewInt(0)
	}
	share := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return share.Quo(share, basisPoints)
}

// syntheticFromReserve converts a reserve amount into synthetic units at the
// given settlement price with floor rounding.
func syntheticFromReserve(amount, price *big.Int) *big.Int {
	if amount == nil || amount.Sign() <= 0 || price == nil || price.Sign() == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, pricePrecision)
	return out.Quo(out, price)
}

// reserveFromSynthetic values synthetic units in reserve terms at the given
// settlement price with floor rounding.
func reserveFromSynthetic(amount, price *big.Int) *big.Int {
	if amount == nil || amount.Sign() <= 0 || price == nil || price.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, price)
	return out.Quo(out, pricePrecision)
}

// indexDelta charges interest on a principal across an index span:
// principal * (now - last) / ray. Negative spans yield zero.
func indexDelta(principal, indexNow, indexLast *big.Int) *big.Int {
	if principal == nil || principal.Sign() <= 0 || indexNow == nil || indexLast == nil {
		return big.NewInt(0)
	}
	span := new(big.Int).Sub(indexNow, indexLast)
	if span.Sign() <= 0 {
		return big.NewInt(0)
	}
	debt := new(big.Int).Mul(principal, span)
	debt.Add(debt, halfRay)
	return debt.Quo(debt, ray)
}

// weightedIndex folds a new settlement into an existing position index:
// (oldAmt*oldIdx + newAmt*newIdx) / (oldAmt + newAmt), half-up, division
// last. Zero total weight returns the new index unchanged.
func weightedIndex(oldAmt, oldIdx, newAmt, newIdx *big.Int) *big.Int {
	total := new(big.Int)
	if oldAmt != nil && oldAmt.Sign() > 0 {
		total.Add(total, oldAmt)
	}
	if newAmt != nil && newAmt.Sign() > 0 {
		total.Add(total, newAmt)
	}
	if total.Sign() == 0 {
		return copyInt(newIdx)
	}
	sum := new(big.Int)
	if oldAmt != nil && oldAmt.Sign() > 0 && oldIdx != nil {
		sum.Add(sum, new(big.Int).Mul(oldAmt, oldIdx))
	}
	if newAmt != nil && newAmt.Sign() > 0 && newIdx != nil {
		sum.Add(sum, new(big.Int).Mul(newAmt, newIdx))
	}
	sum.Add(sum, halfUp(total))
	return sum.Quo(sum, total)
}

// rateFactor builds the per-cycle multiplicative index factor
// 1 + rate*delta/(10_000*secondsPerYear) in ray precision for an annualised
// rate in basis points and an elapsed delta in seconds.
func rateFactor(rateBps uint64, deltaSeconds int64) *big.Int {
	if rateBps == 0 || deltaSeconds <= 0 {
		return new(big.Int).Set(ray)
	}
	numerator := new(big.Int).Mul(ray, new(big.Int).SetUint64(rateBps))
	numerator.Mul(numerator, big.NewInt(deltaSeconds))
	denominator := new(big.Int).Mul(basisPoints, big.NewInt(secondsPerYear))
	numerator.Add(numerator, halfUp(denominator))
	numerator.Quo(numerator, denominator)
	return numerator.Add(numerator, ray)
}

// scaleByMultiplier re-bases an amount from one split multiplier onto
// another: amount * to / from.
func scaleByMultiplier(amount, from, to *big.Int) *big.Int {
	if amount == nil || amount.Sign() == 0 {
		return big.NewInt(0)
	}
	if from == nil || from.Sign() == 0 || to == nil || from.Cmp(to) == 0 {
		return new(big.Int).Set(amount)
	}
	out := new(big.Int).Mul(amount, to)
	return out.Quo(out, from)
}

func halfUp(x *big.Int) *big.Int {
	if x == nil || x.Sign() <= 0 {
		return big.NewInt(0)
	}
	half := new(big.Int).Add(x, big.NewInt(1))
	half.Rsh(half, 1)
	return half
}
