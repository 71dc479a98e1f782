package synth

import "math/big"

// AddLiquidityRequest escrows reserve that becomes committed liquidity when
// the current cycle finalizes.
func (e *Engine) AddLiquidityRequest(lp Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	if lp.IsZero() {
		return ErrInvalidAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if pool.Status == PoolHalted {
		return ErrPoolHalted
	}
	if pool.Status != PoolActive {
		return ErrPoolNotActive
	}
	existing, err := e.state.GetLPRequest(lp)
	if err != nil {
		return err
	}
	if existing != nil && existing.Kind != RequestNone {
		return ErrRequestPending
	}
	if e.reserve.BalanceOf(lp).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := e.reserve.Transfer(lp, e.moduleAddress, amount); err != nil {
		return err
	}

	cycle, err := e.ensureCycle(pool.CycleIndex)
	if err != nil {
		return err
	}
	cycle.PendingLPs = append(cycle.PendingLPs, lp)
	pool.TotalPendingAdd = new(big.Int).Add(pool.TotalPendingAdd, amount)

	req := &Request{
		Kind:   RequestAddLiquidity,
		Amount: new(big.Int).Set(amount),
		Escrow: new(big.Int).Set(amount),
		Cycle:  pool.CycleIndex,
	}
	if err := e.state.PutLPRequest(lp, req); err != nil {
		return err
	}
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.emitRequest(EventTypeLiquidityRequested, lp, req)
	return nil
}

// ReduceLiquidityRequest schedules committed liquidity for release when the
// current cycle finalizes. No escrow moves until then; the commitment keeps
// backing the pool through settlement.
func (e *Engine) ReduceLiquidityRequest(lp Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if pool.Status == PoolHalted {
		return ErrPoolHalted
	}
	if pool.Status != PoolActive {
		return ErrPoolNotActive
	}
	if !pool.hasActiveLP(lp) {
		return ErrNotLP
	}
	existing, err := e.state.GetLPRequest(lp)
	if err != nil {
		return err
	}
	if existing != nil && existing.Kind != RequestNone {
		return ErrRequestPending
	}
	position, err := e.ensureLP(lp)
	if err != nil {
		return err
	}
	if position.Liquidity.Cmp(amount) < 0 {
		return ErrInsufficientLiquidity
	}
	if e.availableLiquidity(pool).Cmp(amount) < 0 {
		return ErrLiquidityCommitted
	}

	cycle, err := e.ensureCycle(pool.CycleIndex)
	if err != nil {
		return err
	}
	cycle.PendingLPs = append(cycle.PendingLPs, lp)
	pool.TotalPendingReduce = new(big.Int).Add(pool.TotalPendingReduce, amount)

	req := &Request{
		Kind:   RequestReduceLiquidity,
		Amount: new(big.Int).Set(amount),
		Cycle:  pool.CycleIndex,
	}
	if err := e.state.PutLPRequest(lp, req); err != nil {
		return err
	}
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.emitRequest(EventTypeLiquidityRequested, lp, req)
	return nil
}

// CancelLiquidityRequest unwinds a pending liquidity request while its
// submission cycle is still open. As with user requests, a halt leaves the
// open cycle unsettled and the escrow refundable.
func (e *Engine) CancelLiquidityRequest(lp Address) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	req, err := e.state.GetLPRequest(lp)
	if err != nil {
		return err
	}
	if req == nil || req.Kind == RequestNone {
		return ErrNoPendingRequest
	}
	if req.Cycle != pool.CycleIndex {
		return ErrRequestSettled
	}
	if pool.Status != PoolActive && pool.Status != PoolHalted {
		return ErrRequestSettled
	}
	cycle, err := e.ensureCycle(req.Cycle)
	if err != nil {
		return err
	}

	switch req.Kind {
	case RequestAddLiquidity:
		if err := e.reserve.Transfer(e.moduleAddress, lp, req.Escrow); err != nil {
			return err
		}
		pool.TotalPendingAdd = new(big.Int).Sub(pool.TotalPendingAdd, req.Amount)
	case RequestReduceLiquidity:
		pool.TotalPendingReduce = new(big.Int).Sub(pool.TotalPendingReduce, req.Amount)
	case RequestLiquidate:
		if err := e.reserve.Transfer(e.moduleAddress, lp, req.Escrow); err != nil {
			return err
		}
		delete(cycle.LPLiquidations, req.Target.Hex())
	default:
		return ErrNoPendingRequest
	}
	removePendingLP(cycle, lp)

	if err := e.state.DeleteLPRequest(lp); err != nil {
		return err
	}
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.emitRequest(EventTypeRequestCancelled, lp, req)
	return nil
}

// DepositLPCollateral posts reserve collateral guaranteeing the LP's
// settlement obligations.
func (e *Engine) DepositLPCollateral(lp Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if pool.Status == PoolHalted {
		return ErrPoolHalted
	}
	if e.reserve.BalanceOf(lp).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	position, err := e.ensureLP(lp)
	if err != nil {
		return err
	}
	if err := e.reserve.Transfer(lp, e.collateralAddr, amount); err != nil {
		return err
	}
	position.Collateral = new(big.Int).Add(position.Collateral, amount)
	return e.state.PutLP(position)
}

// WithdrawLPCollateral releases collateral down to the minimum required for
// the LP's proportional share of the utilized exposure.
func (e *Engine) WithdrawLPCollateral(lp Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	req, err := e.state.GetLPRequest(lp)
	if err != nil {
		return err
	}
	if req != nil && req.Kind != RequestNone {
		return ErrRequestPending
	}
	position, err := e.ensureLP(lp)
	if err != nil {
		return err
	}
	if position.Collateral.Cmp(amount) < 0 {
		return ErrInsufficientCollateral
	}
	remaining := new(big.Int).Sub(position.Collateral, amount)
	required := RequiredCollateral(e.lpExposure(pool, position), e.policy.HealthyRatioBps)
	if pool.Status != PoolHalted && remaining.Cmp(required) < 0 {
		return ErrCollateralBelowRequired
	}
	if err := e.reserve.Transfer(e.collateralAddr, lp, amount); err != nil {
		return err
	}
	position.Collateral = remaining
	return e.state.PutLP(position)
}

// lpExposure is the LP's proportional slice of the pool's utilized exposure
// in reserve terms.
func (e *Engine) lpExposure(pool *Pool, position *LPPosition) *big.Int {
	if pool.TotalCommitted.Sign() == 0 || position.Liquidity.Sign() == 0 {
		return big.NewInt(0)
	}
	share := new(big.Int).Mul(e.utilizedValue(pool), position.Liquidity)
	return share.Quo(share, pool.TotalCommitted)
}

// ClaimInterest pays out the LP's accumulated interest credits.
func (e *Engine) ClaimInterest(lp Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	position, err := e.state.GetLP(lp)
	if err != nil {
		return nil, err
	}
	if position == nil || position.AccruedInterest == nil || position.AccruedInterest.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	payout := new(big.Int).Set(position.AccruedInterest)
	if err := e.reserve.Transfer(e.moduleAddress, lp, payout); err != nil {
		return nil, err
	}
	position.AccruedInterest = big.NewInt(0)
	if err := e.state.PutLP(position); err != nil {
		return nil, err
	}
	e.emitAmount(EventTypeInterestClaimed, lp, payout)
	return payout, nil
}

// LiquidateLP bids to take over part of an undercollateralised LP's committed
// liquidity. The escrowed reserve becomes the bidder's commitment at claim
// time, so pool-wide committed liquidity is preserved. A standing bid on the
// same target is replaced only by a strictly larger one.
func (e *Engine) LiquidateLP(liquidator, target Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	if liquidator.IsZero() || target.IsZero() {
		return ErrInvalidAddress
	}
	if liquidator == target {
		return ErrSelfLiquidation
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if pool.Status == PoolHalted {
		return ErrPoolHalted
	}
	if pool.Status != PoolActive {
		return ErrPoolNotActive
	}
	if !pool.hasActiveLP(target) {
		return ErrUnknownLP
	}
	existing, err := e.state.GetLPRequest(liquidator)
	if err != nil {
		return err
	}
	if existing != nil && existing.Kind != RequestNone {
		return ErrRequestPending
	}

	targetPos, err := e.ensureLP(target)
	if err != nil {
		return err
	}
	if e.policy.HealthOf(targetPos.Collateral, e.lpExposure(pool, targetPos)) != HealthLiquidatable {
		return ErrTargetNotLiquidatable
	}
	cap := bpsShare(targetPos.Liquidity, e.params.MaxLiquidationBps)
	if amount.Cmp(cap) > 0 {
		return ErrExcessiveAmount
	}

	cycle, err := e.ensureCycle(pool.CycleIndex)
	if err != nil {
		return err
	}
	if cycle.LPLiquidations == nil {
		cycle.LPLiquidations = make(map[string]Address)
	}
	if prev, ok := cycle.LPLiquidations[target.Hex()]; ok {
		prevReq, err := e.state.GetLPRequest(prev)
		if err != nil {
			return err
		}
		if prevReq != nil && prevReq.Kind == RequestLiquidate {
			if amount.Cmp(prevReq.Amount) <= 0 {
				return ErrAmountNotLarger
			}
			if err := e.reserve.Transfer(e.moduleAddress, prev, prevReq.Escrow); err != nil {
				return err
			}
			if err := e.state.DeleteLPRequest(prev); err != nil {
				return err
			}
		}
	}

	if e.reserve.BalanceOf(liquidator).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := e.reserve.Transfer(liquidator, e.moduleAddress, amount); err != nil {
		return err
	}
	cycle.LPLiquidations[target.Hex()] = liquidator

	req := &Request{
		Kind:   RequestLiquidate,
		Amount: new(big.Int).Set(amount),
		Escrow: new(big.Int).Set(amount),
		Target: target,
		Cycle:  pool.CycleIndex,
	}
	if err := e.state.PutLPRequest(liquidator, req); err != nil {
		return err
	}
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	e.emitRequest(EventTypeLiquidationRequested, liquidator, req)
	return nil
}

// ClaimLPLiquidation settles a matured LP liquidation bid: the escrow becomes
// the bidder's committed liquidity, the target's commitment shrinks by the
// same amount and the bidder collects proportional collateral plus the
// liquidation bonus.
func (e *Engine) ClaimLPLiquidation(liquidator Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	req, err := e.state.GetLPRequest(liquidator)
	if err != nil {
		return nil, err
	}
	if req == nil || req.Kind != RequestLiquidate {
		return nil, ErrNothingToClaim
	}
	if req.Cycle >= pool.CycleIndex {
		return nil, ErrRequestNotSettled
	}

	target, err := e.ensureLP(req.Target)
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Set(req.Amount)
	if amount.Cmp(target.Liquidity) > 0 {
		amount = new(big.Int).Set(target.Liquidity)
	}
	refund := new(big.Int).Sub(req.Escrow, amount)

	seized := big.NewInt(0)
	if target.Liquidity.Sign() > 0 && target.Collateral.Sign() > 0 {
		seized = new(big.Int).Mul(target.Collateral, amount)
		seized.Quo(seized, target.Liquidity)
		bonus := bpsShare(seized, e.params.LiquidationBonusBps)
		seized.Add(seized, bonus)
		if seized.Cmp(target.Collateral) > 0 {
			seized = new(big.Int).Set(target.Collateral)
		}
	}

	target.Liquidity = new(big.Int).Sub(target.Liquidity, amount)
	target.Collateral = new(big.Int).Sub(target.Collateral, seized)

	position, err := e.ensureLP(liquidator)
	if err != nil {
		return nil, err
	}
	position.Liquidity = new(big.Int).Add(position.Liquidity, amount)
	position.LastSettledCycle = target.LastSettledCycle

	if seized.Sign() > 0 {
		if err := e.reserve.Transfer(e.collateralAddr, liquidator, seized); err != nil {
			return nil, err
		}
	}
	if refund.Sign() > 0 {
		if err := e.reserve.Transfer(e.moduleAddress, liquidator, refund); err != nil {
			return nil, err
		}
	}

	if target.Liquidity.Sign() == 0 {
		pool.removeActiveLP(req.Target)
	}
	if amount.Sign() > 0 && !pool.hasActiveLP(liquidator) {
		pool.ActiveLPs = append(pool.ActiveLPs, liquidator)
	}
	if err := e.state.PutLP(target); err != nil {
		return nil, err
	}
	if err := e.state.PutLP(position); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.DeleteLPRequest(liquidator); err != nil {
		return nil, err
	}
	e.emitAmount(EventTypeReserveClaimed, liquidator, seized)
	return seized, nil
}

// RemoveLP closes out a provider whose commitment has fully unwound, or any
// provider once the pool is halted. It returns collateral, unclaimed interest
// and, when halted, the provider's share of the committed liquidity that
// custody can still cover after outstanding holders' exit claims.
func (e *Engine) RemoveLP(lp Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	position, err := e.state.GetLP(lp)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrUnknownLP
	}
	if position.Liquidity == nil {
		position.Liquidity = big.NewInt(0)
	}
	if position.Collateral == nil {
		position.Collateral = big.NewInt(0)
	}
	if position.AccruedInterest == nil {
		position.AccruedInterest = big.NewInt(0)
	}
	if pool.Status != PoolHalted && position.Liquidity.Sign() > 0 {
		return nil, ErrLiquidityCommitted
	}
	req, err := e.state.GetLPRequest(lp)
	if err != nil {
		return nil, err
	}
	if req != nil && req.Kind != RequestNone {
		return nil, ErrRequestPending
	}

	payout := big.NewInt(0)
	if position.Collateral.Sign() > 0 {
		if err := e.reserve.Transfer(e.collateralAddr, lp, position.Collateral); err != nil {
			return nil, err
		}
		payout.Add(payout, position.Collateral)
	}
	if position.AccruedInterest.Sign() > 0 {
		if err := e.reserve.Transfer(e.moduleAddress, lp, position.AccruedInterest); err != nil {
			return nil, err
		}
		payout.Add(payout, position.AccruedInterest)
	}
	if pool.Status == PoolHalted && position.Liquidity.Sign() > 0 {
		cycle, err := e.ensureCycle(pool.CycleIndex)
		if err != nil {
			return nil, err
		}
		// Holders exiting at the last settlement price are senior to LP
		// liquidity; the provider recovers its share of what remains.
		recoverable := e.haltedCustody(pool, cycle)
		recoverable.Sub(recoverable, reserveFromSynthetic(pool.SyntheticOutstanding, pool.LastPrice))
		liquidity := proportionalShare(recoverable, position.Liquidity, pool.TotalCommitted)
		if liquidity.Cmp(position.Liquidity) > 0 {
			liquidity = new(big.Int).Set(position.Liquidity)
		}
		if liquidity.Sign() > 0 {
			if err := e.reserve.Transfer(e.moduleAddress, lp, liquidity); err != nil {
				return nil, err
			}
			payout.Add(payout, liquidity)
		}
		pool.TotalCommitted = new(big.Int).Sub(pool.TotalCommitted, position.Liquidity)
	}

	pool.removeActiveLP(lp)
	if err := e.state.DeleteLP(lp); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	e.emitAmount(EventTypePoolExited, lp, payout)
	return payout, nil
}

// LPOf returns a defensive copy of the provider's position.
func (e *Engine) LPOf(lp Address) (*LPPosition, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	position, err := e.state.GetLP(lp)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrUnknownLP
	}
	return position.Clone(), nil
}

// LPRequestOf returns a defensive copy of the provider's pending request, or
// nil.
func (e *Engine) LPRequestOf(lp Address) (*Request, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	req, err := e.state.GetLPRequest(lp)
	if err != nil {
		return nil, err
	}
	return req.Clone(), nil
}

func removePendingLP(cycle *Cycle, lp Address) {
	for i, pending := range cycle.PendingLPs {
		if pending == lp {
			cycle.PendingLPs = append(cycle.PendingLPs[:i], cycle.PendingLPs[i+1:]...)
			return
		}
	}
}
