package synth

import "errors"

// State errors: the operation is invalid for the pool's current phase.
var (
	ErrPoolNotActive           = errors.New("synth engine: pool not active")
	ErrWrongPhase              = errors.New("synth engine: operation invalid for current phase")
	ErrPoolHalted              = errors.New("synth engine: pool halted")
	ErrPoolNotHalted           = errors.New("synth engine: pool not halted")
	ErrCycleNotElapsed         = errors.New("synth engine: cycle length not elapsed")
	ErrRebalanceNotElapsed     = errors.New("synth engine: rebalance length not elapsed")
	ErrHaltThresholdNotReached = errors.New("synth engine: halt threshold not reached")
	ErrRequestSettled          = errors.New("synth engine: request already settled")
	ErrRequestNotSettled       = errors.New("synth engine: request not settled yet")
	ErrLPAlreadySettled        = errors.New("synth engine: lp already settled this cycle")
)

// Validation errors: malformed or out-of-range input.
var (
	ErrInvalidAmount   = errors.New("synth engine: amount must be positive")
	ErrExcessiveAmount = errors.New("synth engine: amount exceeds cap")
	ErrInvalidAddress  = errors.New("synth engine: invalid address")
	ErrSelfLiquidation = errors.New("synth engine: cannot liquidate own position")
	ErrRequestPending  = errors.New("synth engine: pending request exists")
	ErrAmountNotLarger = errors.New("synth engine: replacement must exceed the standing liquidation")
)

// Authorization errors.
var (
	ErrNotAdmin = errors.New("synth engine: caller is not admin")
	ErrNotLP    = errors.New("synth engine: caller is not an active liquidity provider")
)

// Consistency errors: a balance, collateral or liquidity shortfall.
var (
	ErrInsufficientBalance     = errors.New("synth engine: insufficient balance")
	ErrInsufficientCollateral  = errors.New("synth engine: insufficient collateral")
	ErrInsufficientLiquidity   = errors.New("synth engine: insufficient liquidity")
	ErrCollateralBelowRequired = errors.New("synth engine: collateral below required minimum")
	ErrLiquidityCommitted      = errors.New("synth engine: committed liquidity outstanding")
)

// Staleness errors: oracle data too old, market in the wrong session, or an
// unresolved settlement price deviation.
var (
	ErrStaleOracle    = errors.New("synth engine: oracle data stale")
	ErrMarketOpen     = errors.New("synth engine: market still open")
	ErrMarketClosed   = errors.New("synth engine: market closed")
	ErrPriceDeviation = errors.New("synth engine: settlement price deviation unresolved")
	ErrInvalidSplit   = errors.New("synth engine: split not confirmed at requested ratio")
	ErrPriceOutOfBand = errors.New("synth engine: price outside settlement tolerance")
)

// Not-found errors.
var (
	ErrNoPendingRequest      = errors.New("synth engine: no pending request")
	ErrNothingToClaim        = errors.New("synth engine: nothing to claim")
	ErrUnknownLP             = errors.New("synth engine: unknown liquidity provider")
	ErrTargetNotLiquidatable = errors.New("synth engine: target not eligible for liquidation")
)

// Wiring errors.
var (
	ErrNilState  = errors.New("synth engine: state not configured")
	ErrNilOracle = errors.New("synth engine: oracle not configured")
)
