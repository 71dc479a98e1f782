package synth

import (
	"errors"
	"fmt"
	"math/big"
)

// AccountingVariant selects the bookkeeping scheme behind a synthetic token.
// All variants expose the same mint/burn/balance surface; they differ in how
// external amounts map onto stored units.
type AccountingVariant uint8

const (
	// AccountingScaledBalance stores shares deflated by the split multiplier;
	// a split re-bases every balance through the multiplier alone.
	AccountingScaledBalance AccountingVariant = iota + 1
	// AccountingReservePegged stores amounts one-to-one with minted units and
	// keeps balances split-invariant (the pegged value does not change when
	// the tracked asset splits).
	AccountingReservePegged
	// AccountingPriceScaled behaves like scaled-balance and additionally
	// re-bases balances on settlement price moves.
	AccountingPriceScaled
)

// Valid reports whether the variant is supported.
func (v AccountingVariant) Valid() bool {
	switch v {
	case AccountingScaledBalance, AccountingReservePegged, AccountingPriceScaled:
		return true
	default:
		return false
	}
}

// TokenAccounting is the synthetic token surface the engine drives. BalanceOf
// and TotalSupply reflect the stored split multiplier.
type TokenAccounting interface {
	Mint(addr Address, amount *big.Int) error
	Burn(addr Address, amount *big.Int) error
	Transfer(from, to Address, amount *big.Int) error
	BalanceOf(addr Address) *big.Int
	TotalSupply() *big.Int
	// ApplySplit scales all balances and the total supply by ratioNum/ratioDen
	// via the stored multiplier, without rewriting individual balances.
	ApplySplit(ratioNum, ratioDen uint64) error
	// SplitMultiplier exposes the cumulative multiplier in ray precision.
	SplitMultiplier() *big.Int
}

// ReserveToken is the collateral/reserve asset with exact-amount transfer
// semantics. No fee-on-transfer behaviour is assumed.
type ReserveToken interface {
	Transfer(from, to Address, amount *big.Int) error
	BalanceOf(addr Address) *big.Int
}

var (
	errTokenInvalidAmount  = errors.New("synth token: amount must be positive")
	errTokenInsufficient   = errors.New("synth token: insufficient balance")
	errTokenInvalidRatio   = errors.New("synth token: split ratio must be positive")
	errTokenUnknownVariant = errors.New("synth token: unknown accounting variant")
)

// syntheticToken implements TokenAccounting for every variant. Internal units
// are raw shares; the variant decides how external amounts convert in and
// out.
type syntheticToken struct {
	symbol     string
	variant    AccountingVariant
	shares     map[Address]*big.Int
	total      *big.Int
	multiplier *big.Int // ray
}

// NewSyntheticToken constructs a synthetic token using the requested
// accounting variant.
func NewSyntheticToken(variant AccountingVariant, symbol string) (TokenAccounting, error) {
	if !variant.Valid() {
		return nil, errTokenUnknownVariant
	}
	return &syntheticToken{
		symbol:     symbol,
		variant:    variant,
		shares:     make(map[Address]*big.Int),
		total:      big.NewInt(0),
		multiplier: new(big.Int).Set(ray),
	}, nil
}

// toShares converts an external amount into stored units.
func (t *syntheticToken) toShares(amount *big.Int) *big.Int {
	if t.variant == AccountingReservePegged {
		return new(big.Int).Set(amount)
	}
	return rayDiv(amount, t.multiplier)
}

// fromShares converts stored units into an external amount.
func (t *syntheticToken) fromShares(shares *big.Int) *big.Int {
	if shares == nil {
		return big.NewInt(0)
	}
	if t.variant == AccountingReservePegged {
		return new(big.Int).Set(shares)
	}
	return rayMul(shares, t.multiplier)
}

func (t *syntheticToken) Mint(addr Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errTokenInvalidAmount
	}
	minted := t.toShares(amount)
	if minted.Sign() == 0 {
		minted = big.NewInt(1)
	}
	current, ok := t.shares[addr]
	if !ok {
		current = big.NewInt(0)
	}
	t.shares[addr] = new(big.Int).Add(current, minted)
	t.total = new(big.Int).Add(t.total, minted)
	return nil
}

func (t *syntheticToken) Burn(addr Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errTokenInvalidAmount
	}
	burned := t.toShares(amount)
	current, ok := t.shares[addr]
	if !ok || current.Cmp(burned) < 0 {
		// Rounding on the way back into shares may leave dust one unit
		// short of the stored balance; burn the full balance in that case.
		if ok && new(big.Int).Sub(burned, current).Cmp(big.NewInt(1)) <= 0 && current.Sign() > 0 {
			burned = new(big.Int).Set(current)
		} else {
			return errTokenInsufficient
		}
	}
	t.shares[addr] = new(big.Int).Sub(current, burned)
	t.total = new(big.Int).Sub(t.total, burned)
	if t.shares[addr].Sign() == 0 {
		delete(t.shares, addr)
	}
	return nil
}

func (t *syntheticToken) Transfer(from, to Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errTokenInvalidAmount
	}
	moved := t.toShares(amount)
	current, ok := t.shares[from]
	if !ok || current.Cmp(moved) < 0 {
		if ok && new(big.Int).Sub(moved, current).Cmp(big.NewInt(1)) <= 0 && current.Sign() > 0 {
			moved = new(big.Int).Set(current)
		} else {
			return errTokenInsufficient
		}
	}
	t.shares[from] = new(big.Int).Sub(current, moved)
	if t.shares[from].Sign() == 0 {
		delete(t.shares, from)
	}
	dest, ok := t.shares[to]
	if !ok {
		dest = big.NewInt(0)
	}
	t.shares[to] = new(big.Int).Add(dest, moved)
	return nil
}

func (t *syntheticToken) BalanceOf(addr Address) *big.Int {
	current, ok := t.shares[addr]
	if !ok {
		return big.NewInt(0)
	}
	return t.fromShares(current)
}

func (t *syntheticToken) TotalSupply() *big.Int {
	return t.fromShares(t.total)
}

func (t *syntheticToken) ApplySplit(ratioNum, ratioDen uint64) error {
	if ratioNum == 0 || ratioDen == 0 {
		return errTokenInvalidRatio
	}
	next := new(big.Int).Mul(t.multiplier, new(big.Int).SetUint64(ratioNum))
	next.Quo(next, new(big.Int).SetUint64(ratioDen))
	if next.Sign() == 0 {
		return fmt.Errorf("synth token: split ratio %d:%d collapses multiplier", ratioNum, ratioDen)
	}
	t.multiplier = next
	return nil
}

// Rebase scales balances by nextPrice/prevPrice. Only the price-scaled
// variant reacts; the engine invokes it when a cycle finalizes.
func (t *syntheticToken) Rebase(prevPrice, nextPrice *big.Int) {
	if t.variant != AccountingPriceScaled {
		return
	}
	if prevPrice == nil || prevPrice.Sign() == 0 || nextPrice == nil || nextPrice.Sign() <= 0 {
		return
	}
	scaled := new(big.Int).Mul(t.multiplier, nextPrice)
	scaled.Quo(scaled, prevPrice)
	if scaled.Sign() > 0 {
		t.multiplier = scaled
	}
}

func (t *syntheticToken) SplitMultiplier() *big.Int {
	return new(big.Int).Set(t.multiplier)
}

// priceRebaser is satisfied by variants that track settlement price moves.
type priceRebaser interface {
	Rebase(prevPrice, nextPrice *big.Int)
}
