package synth

import (
	"crypto/sha256"
	"math/big"
	"time"

	nativecommon "synthpool/native/common"
)

const moduleName = "synth"

// Engine owns the full state machine for one synthetic pool: the user request
// ledger, the LP ledger and the cycle orchestrator, all consulting the pure
// Policy. Execution is strictly sequential; every operation either completes
// or returns an error with no partial state mutation.
type Engine struct {
	state  EngineState
	policy Policy
	params Params

	oracle  Oracle
	token   TokenAccounting
	reserve ReserveToken

	poolID         string
	admin          Address
	moduleAddress  Address
	collateralAddr Address

	pauses nativecommon.PauseView
	nowFn  func() int64
	events []*Event
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state EngineState) { e.state = state }

// SetPauses installs the administrative pause switches consulted at every
// entry point.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetNowFunc overrides the engine clock. Tests drive cycle deadlines through
// it; production uses the wall clock.
func (e *Engine) SetNowFunc(now func() int64) {
	if e == nil || now == nil {
		return
	}
	e.nowFn = now
}

// PoolID returns the pool identifier the engine operates against.
func (e *Engine) PoolID() string {
	if e == nil {
		return ""
	}
	return e.poolID
}

// Token exposes the synthetic token accounting bound to the pool.
func (e *Engine) Token() TokenAccounting {
	if e == nil {
		return nil
	}
	return e.token
}

// ModuleAddress returns the reserve custody account for the pool.
func (e *Engine) ModuleAddress() Address {
	return e.moduleAddress
}

// CollateralAddress returns the collateral custody account for the pool.
func (e *Engine) CollateralAddress() Address {
	return e.collateralAddr
}

func (e *Engine) now() int64 {
	if e.nowFn != nil {
		return e.nowFn()
	}
	return time.Now().Unix()
}

func (e *Engine) guard() error {
	return nativecommon.Guard(e.pauses, moduleName)
}

// utilizedValue values the outstanding synthetic exposure in reserve units at
// the pool's last settlement price.
func (e *Engine) utilizedValue(pool *Pool) *big.Int {
	return reserveFromSynthetic(pool.SyntheticOutstanding, pool.LastPrice)
}

// availableLiquidity applies the policy formula to the pool aggregates.
func (e *Engine) availableLiquidity(pool *Pool) *big.Int {
	return AvailableLiquidity(pool.TotalCommitted, pool.TotalPendingAdd, pool.TotalPendingReduce, e.utilizedValue(pool))
}

// haltedCustody is the reserve custody a halted pool can distribute through
// the exit paths: total custody minus the protocol fee pot and the open
// cycle's request escrow, which stay reachable through WithdrawProtocolFees
// and the cancel paths. Exiting holders draw on it ahead of LP liquidity.
func (e *Engine) haltedCustody(pool *Pool, cycle *Cycle) *big.Int {
	custody := e.reserve.BalanceOf(e.moduleAddress)
	custody.Sub(custody, pool.TotalPendingAdd)
	custody.Sub(custody, pool.FeeAccrued)
	custody.Sub(custody, cycle.DepositTotal)
	custody.Sub(custody, reserveFromSynthetic(cycle.LiquidationTotal, pool.LastPrice))
	if custody.Sign() < 0 {
		return big.NewInt(0)
	}
	return custody
}

// exposureValue values a settled position at the pool's last settlement
// price.
func (e *Engine) exposureValue(pool *Pool, position *Position) *big.Int {
	return reserveFromSynthetic(position.Amount, pool.LastPrice)
}

// moduleAccount derives a deterministic custody address from the pool
// identifier and a role tag.
func moduleAccount(poolID, role string) Address {
	digest := sha256.Sum256([]byte("synthpool/" + poolID + "/" + role))
	var addr Address
	copy(addr[:], digest[:20])
	return addr
}
