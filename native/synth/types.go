package synth

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Address identifies a principal (user, LP, or module treasury) interacting
// with a synthetic pool. The engine treats addresses as opaque 20-byte
// identifiers supplied by the embedding platform.
type Address [20]byte

var zeroAddress Address

// Hex renders the address as a 0x-prefixed lowercase hex string.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the all-zero sentinel.
func (a Address) IsZero() bool {
	return a == zeroAddress
}

// MarshalText implements encoding.TextMarshaler so addresses serialise as hex
// inside JSON-encoded state records.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress normalises and validates a 20-byte hex address.
func ParseAddress(s string) (Address, error) {
	var addr Address
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		trimmed = trimmed[2:]
	}
	if len(trimmed) != 2*len(addr) {
		return addr, fmt.Errorf("synth: address must be 20 bytes (got %d hex chars)", len(trimmed))
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("synth: decode address: %w", err)
	}
	copy(addr[:], decoded)
	return addr, nil
}

// PoolStatus enumerates the cycle state machine phases for a synthetic pool.
type PoolStatus uint8

const (
	// PoolActive accepts user and LP requests for the open cycle.
	PoolActive PoolStatus = iota + 1
	// PoolRebalancingOffchain means the cycle has closed and the off-chain
	// desk is trading toward the settlement price.
	PoolRebalancingOffchain
	// PoolRebalancingOnchain means the settlement price is fixed and LPs are
	// settling their proportional obligations.
	PoolRebalancingOnchain
	// PoolHalted freezes normal request flows; only exit paths remain.
	PoolHalted
)

// Valid reports whether the status value is within the supported range.
func (s PoolStatus) Valid() bool {
	switch s {
	case PoolActive, PoolRebalancingOffchain, PoolRebalancingOnchain, PoolHalted:
		return true
	default:
		return false
	}
}

func (s PoolStatus) String() string {
	switch s {
	case PoolActive:
		return "active"
	case PoolRebalancingOffchain:
		return "rebalancing_offchain"
	case PoolRebalancingOnchain:
		return "rebalancing_onchain"
	case PoolHalted:
		return "halted"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// RequestKind enumerates the pending intents a principal may hold. At most one
// non-none request exists per principal at any time.
type RequestKind uint8

const (
	RequestNone RequestKind = iota
	RequestDeposit
	RequestRedeem
	RequestLiquidate
	RequestAddLiquidity
	RequestReduceLiquidity
)

func (k RequestKind) String() string {
	switch k {
	case RequestNone:
		return "none"
	case RequestDeposit:
		return "deposit"
	case RequestRedeem:
		return "redeem"
	case RequestLiquidate:
		return "liquidate"
	case RequestAddLiquidity:
		return "add_liquidity"
	case RequestReduceLiquidity:
		return "reduce_liquidity"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Request records a pending intent submitted during the open phase of a cycle.
// Amount is denominated in reserve units for deposits and liquidity changes
// and in synthetic units for redemptions and liquidations. Escrow tracks the
// reserve held by the module on the submitter's behalf.
type Request struct {
	Kind       RequestKind
	Amount     *big.Int
	Collateral *big.Int
	Escrow     *big.Int
	Target     Address
	Cycle      uint64
	// Multiplier snapshots the pool split multiplier (ray) at submission so
	// synthetic-denominated amounts stay comparable across split
	// resolutions.
	Multiplier *big.Int
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Amount = copyInt(r.Amount)
	clone.Collateral = copyInt(r.Collateral)
	clone.Escrow = copyInt(r.Escrow)
	clone.Multiplier = copyInt(r.Multiplier)
	return &clone
}

// Position is a user's settled holding in the pool.
type Position struct {
	Address Address
	// Amount is the settled synthetic balance in token units.
	Amount *big.Int
	// Principal is the reserve principal that minted Amount.
	Principal *big.Int
	// Collateral is the reserve posted against the position.
	Collateral *big.Int
	// InterestIndex is the cumulative index (ray) the position last settled
	// against. Top-ups re-weight it; see Engine.ClaimAsset.
	InterestIndex *big.Int
	// Multiplier is the pool split multiplier (ray) Amount was last
	// normalised against; stale positions re-base lazily on access.
	Multiplier *big.Int
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Amount = copyInt(p.Amount)
	clone.Principal = copyInt(p.Principal)
	clone.Collateral = copyInt(p.Collateral)
	clone.InterestIndex = copyInt(p.InterestIndex)
	clone.Multiplier = copyInt(p.Multiplier)
	return &clone
}

// LPPosition is a liquidity provider's committed stake in the pool.
type LPPosition struct {
	Address Address
	// Liquidity is the committed reserve liquidity counted toward the
	// pool-wide total.
	Liquidity *big.Int
	// Collateral is the reserve posted to guarantee settlement obligations.
	Collateral *big.Int
	// AccruedInterest is the unclaimed interest attributed to the LP.
	AccruedInterest *big.Int
	// LastSettledCycle is the most recent cycle index this LP rebalanced.
	LastSettledCycle uint64
}

// Clone returns a deep copy of the LP position.
func (p *LPPosition) Clone() *LPPosition {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Liquidity = copyInt(p.Liquidity)
	clone.Collateral = copyInt(p.Collateral)
	clone.AccruedInterest = copyInt(p.AccruedInterest)
	return &clone
}

// Cycle captures one settlement period. Rows are never deleted; historical
// cycles retain the settlement price and interest index needed to compute
// claims long after the cycle closed.
type Cycle struct {
	Index      uint64
	StartedAt  int64
	OffchainAt int64
	OnchainAt  int64
	// Price is the settlement price fixed at the on-chain transition,
	// expressed as reserve units per synthetic unit scaled by 1e18.
	Price *big.Int
	// PrevPrice is the prior cycle's settlement price, used for deviation
	// detection and the exposure move component of the imbalance.
	PrevPrice *big.Int
	// DepositTotal aggregates pending deposit amounts in reserve units.
	DepositTotal *big.Int
	// RedemptionTotal aggregates pending redemptions in synthetic units.
	RedemptionTotal *big.Int
	// LiquidationTotal aggregates pending liquidation amounts in synthetic
	// units; liquidator escrow funds them so they do not enter the LP
	// imbalance.
	LiquidationTotal *big.Int
	// InterestIndex is the cumulative index (ray) snapshotted when the cycle
	// left the active phase.
	InterestIndex *big.Int
	// InterestAccrued is the LP-attributable interest for the cycle in
	// reserve units, protocol fee already skimmed.
	InterestAccrued *big.Int
	// Imbalance is the signed net obligation across all LPs; positive means
	// LPs contribute reserve to the pool.
	Imbalance *big.Int
	// SettledImbalance accumulates the portions already settled so the last
	// LP absorbs the rounding remainder exactly.
	SettledImbalance *big.Int
	// SettledInterest mirrors SettledImbalance for the interest
	// distribution.
	SettledInterest *big.Int
	SettledLPs      uint64
	// DeviationResolved marks that an out-of-band settlement price has been
	// explicitly accepted or adjusted for a split.
	DeviationResolved bool
	// SplitMultiplier snapshots the pool split multiplier (ray) when the
	// cycle finalizes; claims against this cycle re-base through it.
	SplitMultiplier *big.Int
	// PendingLPs lists principals whose liquidity requests apply when the
	// cycle finalizes.
	PendingLPs []Address
	// Liquidations and LPLiquidations index pending liquidation requests by
	// target (hex) so a larger bid can locate and replace the standing one.
	Liquidations   map[string]Address
	LPLiquidations map[string]Address
}

// Clone returns a deep copy of the cycle.
func (c *Cycle) Clone() *Cycle {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Price = copyInt(c.Price)
	clone.PrevPrice = copyInt(c.PrevPrice)
	clone.DepositTotal = copyInt(c.DepositTotal)
	clone.RedemptionTotal = copyInt(c.RedemptionTotal)
	clone.LiquidationTotal = copyInt(c.LiquidationTotal)
	clone.InterestIndex = copyInt(c.InterestIndex)
	clone.InterestAccrued = copyInt(c.InterestAccrued)
	clone.Imbalance = copyInt(c.Imbalance)
	clone.SettledImbalance = copyInt(c.SettledImbalance)
	clone.SettledInterest = copyInt(c.SettledInterest)
	clone.SplitMultiplier = copyInt(c.SplitMultiplier)
	clone.PendingLPs = append([]Address(nil), c.PendingLPs...)
	if c.Liquidations != nil {
		clone.Liquidations = make(map[string]Address, len(c.Liquidations))
		for k, v := range c.Liquidations {
			clone.Liquidations[k] = v
		}
	}
	if c.LPLiquidations != nil {
		clone.LPLiquidations = make(map[string]Address, len(c.LPLiquidations))
		for k, v := range c.LPLiquidations {
			clone.LPLiquidations[k] = v
		}
	}
	return &clone
}

// Pool captures the global accounting state for one synthetic asset pool.
// Amounts are big integers in the reserve token's smallest unit.
type Pool struct {
	ID     string
	Asset  string
	Status PoolStatus
	// CycleIndex is the currently open (or settling) cycle.
	CycleIndex uint64
	// InterestIndex is the live cumulative interest index in ray precision.
	InterestIndex *big.Int
	// LastAccrualTime is the unix time the index last advanced.
	LastAccrualTime int64
	// LastPrice is the settlement price of the most recently finalized
	// cycle; the genesis value is seeded from the oracle.
	LastPrice *big.Int
	// SyntheticOutstanding is the settled synthetic supply backing user
	// positions, in token units.
	SyntheticOutstanding *big.Int
	// TotalCommitted is the pool-wide committed LP liquidity. Invariant:
	// equals the sum of every active LPPosition.Liquidity.
	TotalCommitted *big.Int
	// TotalPendingAdd / TotalPendingReduce aggregate LP liquidity requests
	// awaiting finalization.
	TotalPendingAdd    *big.Int
	TotalPendingReduce *big.Int
	// FeeAccrued is the protocol's interest skim awaiting withdrawal.
	FeeAccrued *big.Int
	// SplitMultiplier is the cumulative split adjustment in ray precision.
	// Synthetic-denominated records re-base through it without per-account
	// iteration.
	SplitMultiplier *big.Int
	// ActiveLPs lists providers with non-zero committed liquidity; each must
	// settle once per cycle.
	ActiveLPs []Address
}

// Clone returns a deep copy of the pool record.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.InterestIndex = copyInt(p.InterestIndex)
	clone.LastPrice = copyInt(p.LastPrice)
	clone.SyntheticOutstanding = copyInt(p.SyntheticOutstanding)
	clone.TotalCommitted = copyInt(p.TotalCommitted)
	clone.TotalPendingAdd = copyInt(p.TotalPendingAdd)
	clone.TotalPendingReduce = copyInt(p.TotalPendingReduce)
	clone.FeeAccrued = copyInt(p.FeeAccrued)
	clone.SplitMultiplier = copyInt(p.SplitMultiplier)
	clone.ActiveLPs = append([]Address(nil), p.ActiveLPs...)
	return &clone
}

func (p *Pool) hasActiveLP(addr Address) bool {
	for _, lp := range p.ActiveLPs {
		if lp == addr {
			return true
		}
	}
	return false
}

func (p *Pool) removeActiveLP(addr Address) {
	for i, lp := range p.ActiveLPs {
		if lp == addr {
			p.ActiveLPs = append(p.ActiveLPs[:i], p.ActiveLPs[i+1:]...)
			return
		}
	}
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
