package synth

import "math/big"

// DepositRequest escrows reserve and collateral for conversion into the
// synthetic asset at the next settlement price. The request joins the open
// cycle's deposit total and becomes claimable once that cycle finalizes.
func (e *Engine) DepositRequest(user Address, amount, collateral *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.guard(); err != nil {
		return err
	}
	if user.IsZero() {
		return ErrInvalidAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if collateral == nil {
		collateral = big.NewInt(0)
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
	existing, err := e.state.GetRequest(user)
	if err != nil {
		return err
	}
	if existing != nil && existing.Kind != RequestNone {
		return ErrRequestPending
	}
	required := RequiredCollateral(amount, e.policy.HealthyRatioBps)
	if collateral.Cmp(required) < 0 {
		return ErrCollateralBelowRequired
	}
	if e.availableLiquidity(pool).Cmp(amount) < 0 {
		return ErrInsufficientLiquidity
	}
	total := new(big.Int).Add(amount, collateral)
	if e.reserve.BalanceOf(user).Cmp(total) < 0 {
		return ErrInsufficientBalance
	}
	if err := e.reserve.Transfer(user, e.moduleAddress, amount); err != nil {
		return err
	}
	if collateral.Sign() > 0 {
		if err := e.reserve.Transfer(user, e.collateralAddr, collateral); err != nil {
			return err
		}
	}

	cycle, err := e.ensureCycle(pool.CycleIndex)
	if err != nil {
		return err
	}
	cycle.DepositTotal = new(big.Int).Add(cycle.DepositTotal, amount)

	req := &Request{
		Kind:       RequestDeposit,
		Amount:     new(big.Int).Set(amount),
		Collateral: new(big.Int).Set(collateral),
		Escrow:     new(big.Int).Set(amount),
		Cycle:      pool.CycleIndex,
		Multiplier: new(big.Int).Set(pool.SplitMultiplier),
	}
	if err := e.state.PutRequest(user, req); err != nil {
		return err
	}
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	e.emitRequest(EventTypeDepositRequested, user, req)
	return nil
}

// RedemptionRequest escrows settled synthetic tokens for conversion back into
// reserve at the next settlement price.
func (e *Engine) RedemptionRequest(user Address, amount *big.Int) error {
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
	existing, err := e.state.GetRequest(user)
	if err != nil {
		return err
	}
	if existing != nil && existing.Kind != RequestNone {
		return ErrRequestPending
	}
	if e.token.BalanceOf(user).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	position, err := e.ensurePosition(user)
	if err != nil {
		return err
	}
	normalizePosition(pool, position)
	if position.Amount.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := e.token.Transfer(user, e.moduleAddress, amount); err != nil {
		return err
	}

	cycle, err := e.ensureCycle(pool.CycleIndex)
	if err != nil {
		return err
	}
	cycle.RedemptionTotal = new(big.Int).Add(cycle.RedemptionTotal, amount)

	req := &Request{
		Kind:       RequestRedeem,
		Amount:     new(big.Int).Set(amount),
		Cycle:      pool.CycleIndex,
		Multiplier: new(big.Int).Set(pool.SplitMultiplier),
	}
	if err := e.state.PutRequest(user, req); err != nil {
		return err
	}
	if err := e.state.PutPosition(position); err != nil {
		return err
	}
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	e.emitRequest(EventTypeRedeemRequested, user, req)
	return nil
}

// LiquidationRequest bids to liquidate up to the policy cap of a target's
// position. A standing bid on the same target is replaced only by a strictly
// larger one, with the displaced liquidator's escrow refunded in full.
func (e *Engine) LiquidationRequest(liquidator, target Address, amount *big.Int) error {
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
	existing, err := e.state.GetRequest(liquidator)
	if err != nil {
		return err
	}
	if existing != nil && existing.Kind != RequestNone {
		return ErrRequestPending
	}

	targetPos, err := e.ensurePosition(target)
	if err != nil {
		return err
	}
	normalizePosition(pool, targetPos)
	if targetPos.Amount.Sign() == 0 {
		return ErrTargetNotLiquidatable
	}
	if e.policy.HealthOf(targetPos.Collateral, e.exposureValue(pool, targetPos)) != HealthLiquidatable {
		return ErrTargetNotLiquidatable
	}
	cap := bpsShare(targetPos.Amount, e.params.MaxLiquidationBps)
	if amount.Cmp(cap) > 0 {
		return ErrExcessiveAmount
	}

	cycle, err := e.ensureCycle(pool.CycleIndex)
	if err != nil {
		return err
	}
	if cycle.Liquidations == nil {
		cycle.Liquidations = make(map[string]Address)
	}
	if prev, ok := cycle.Liquidations[target.Hex()]; ok {
		prevReq, err := e.state.GetRequest(prev)
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
			cycle.LiquidationTotal = new(big.Int).Sub(cycle.LiquidationTotal, prevReq.Amount)
			if err := e.state.DeleteRequest(prev); err != nil {
				return err
			}
		}
	}

	escrow := reserveFromSynthetic(amount, pool.LastPrice)
	if escrow.Sign() == 0 {
		return ErrInvalidAmount
	}
	if e.reserve.BalanceOf(liquidator).Cmp(escrow) < 0 {
		return ErrInsufficientBalance
	}
	if err := e.reserve.Transfer(liquidator, e.moduleAddress, escrow); err != nil {
		return err
	}

	cycle.LiquidationTotal = new(big.Int).Add(cycle.LiquidationTotal, amount)
	cycle.Liquidations[target.Hex()] = liquidator

	req := &Request{
		Kind:       RequestLiquidate,
		Amount:     new(big.Int).Set(amount),
		Escrow:     escrow,
		Target:     target,
		Cycle:      pool.CycleIndex,
		Multiplier: new(big.Int).Set(pool.SplitMultiplier),
	}
	if err := e.state.PutRequest(liquidator, req); err != nil {
		return err
	}
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	e.emitRequest(EventTypeLiquidationRequested, liquidator, req)
	return nil
}

// CancelRequest unwinds a pending request while its submission cycle is still
// open, refunding every escrowed balance exactly. A halted pool's open cycle
// never settles, so its requests stay cancellable.
func (e *Engine) CancelRequest(user Address) error {
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
	req, err := e.state.GetRequest(user)
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
	case RequestDeposit:
		if err := e.reserve.Transfer(e.moduleAddress, user, req.Amount); err != nil {
			return err
		}
		if req.Collateral != nil && req.Collateral.Sign() > 0 {
			if err := e.reserve.Transfer(e.collateralAddr, user, req.Collateral); err != nil {
				return err
			}
		}
		cycle.DepositTotal = new(big.Int).Sub(cycle.DepositTotal, req.Amount)
	case RequestRedeem:
		if err := e.token.Transfer(e.moduleAddress, user, req.Amount); err != nil {
			return err
		}
		cycle.RedemptionTotal = new(big.Int).Sub(cycle.RedemptionTotal, req.Amount)
	case RequestLiquidate:
		if err := e.reserve.Transfer(e.moduleAddress, user, req.Escrow); err != nil {
			return err
		}
		cycle.LiquidationTotal = new(big.Int).Sub(cycle.LiquidationTotal, req.Amount)
		delete(cycle.Liquidations, req.Target.Hex())
	default:
		return ErrNoPendingRequest
	}

	if err := e.state.DeleteRequest(user); err != nil {
		return err
	}
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	e.emitRequest(EventTypeRequestCancelled, user, req)
	return nil
}

// ClaimAsset settles a deposit request against its cycle's fixed price,
// minting the synthetic amount and folding the new principal into the
// position's weighted interest index.
func (e *Engine) ClaimAsset(user Address) (*big.Int, error) {
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
	req, err := e.state.GetRequest(user)
	if err != nil {
		return nil, err
	}
	if req == nil || req.Kind != RequestDeposit {
		return nil, ErrNothingToClaim
	}
	if req.Cycle >= pool.CycleIndex {
		return nil, ErrRequestNotSettled
	}
	cycle, err := e.ensureCycle(req.Cycle)
	if err != nil {
		return nil, err
	}
	if cycle.Price == nil || cycle.Price.Sign() == 0 {
		return nil, ErrRequestNotSettled
	}

	minted := syntheticFromReserve(req.Amount, cycle.Price)
	// Units minted at settlement carry that cycle's multiplier; re-base onto
	// the live one in case a later split resolved before the claim.
	minted = scaleByMultiplier(minted, cycle.SplitMultiplier, pool.SplitMultiplier)
	if minted.Sign() == 0 {
		return nil, ErrNothingToClaim
	}

	position, err := e.ensurePosition(user)
	if err != nil {
		return nil, err
	}
	normalizePosition(pool, position)
	position.InterestIndex = weightedIndex(position.Principal, position.InterestIndex, req.Amount, cycle.InterestIndex)
	position.Amount = new(big.Int).Add(position.Amount, minted)
	position.Principal = new(big.Int).Add(position.Principal, req.Amount)
	if req.Collateral != nil && req.Collateral.Sign() > 0 {
		position.Collateral = new(big.Int).Add(position.Collateral, req.Collateral)
	}

	if err := e.token.Mint(user, minted); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.state.DeleteRequest(user); err != nil {
		return nil, err
	}
	e.emitAmount(EventTypeAssetClaimed, user, minted)
	return minted, nil
}

// ClaimReserve settles a redemption or liquidation request against its
// cycle's fixed price. Redemptions pay out the synthetic value minus the
// position's interest debt; liquidations consume the escrow, shrink the
// target and award seized collateral to the liquidator.
func (e *Engine) ClaimReserve(user Address) (*big.Int, error) {
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
	req, err := e.state.GetRequest(user)
	if err != nil {
		return nil, err
	}
	if req == nil || (req.Kind != RequestRedeem && req.Kind != RequestLiquidate) {
		return nil, ErrNothingToClaim
	}
	if req.Cycle >= pool.CycleIndex {
		return nil, ErrRequestNotSettled
	}
	cycle, err := e.ensureCycle(req.Cycle)
	if err != nil {
		return nil, err
	}
	if cycle.Price == nil || cycle.Price.Sign() == 0 {
		return nil, ErrRequestNotSettled
	}

	var payout *big.Int
	switch req.Kind {
	case RequestRedeem:
		payout, err = e.settleRedemption(pool, cycle, user, req)
	case RequestLiquidate:
		payout, err = e.settleLiquidation(pool, cycle, user, req)
	}
	if err != nil {
		return nil, err
	}
	if err := e.state.DeleteRequest(user); err != nil {
		return nil, err
	}
	e.emitAmount(EventTypeReserveClaimed, user, payout)
	return payout, nil
}

func (e *Engine) settleRedemption(pool *Pool, cycle *Cycle, user Address, req *Request) (*big.Int, error) {
	position, err := e.ensurePosition(user)
	if err != nil {
		return nil, err
	}
	normalizePosition(pool, position)

	amount := scaleByMultiplier(req.Amount, req.Multiplier, pool.SplitMultiplier)
	if amount.Cmp(position.Amount) > 0 {
		amount = new(big.Int).Set(position.Amount)
	}
	// Value the redeemed slice at the multiplier the settlement price was
	// fixed under.
	settleUnits := scaleByMultiplier(amount, pool.SplitMultiplier, cycle.SplitMultiplier)
	gross := reserveFromSynthetic(settleUnits, cycle.Price)

	principalShare := big.NewInt(0)
	if position.Amount.Sign() > 0 {
		principalShare = new(big.Int).Mul(position.Principal, amount)
		principalShare.Quo(principalShare, position.Amount)
	}
	interest := indexDelta(principalShare, cycle.InterestIndex, position.InterestIndex)
	payout := new(big.Int).Sub(gross, interest)
	if payout.Sign() < 0 {
		payout = big.NewInt(0)
	}

	if err := e.token.Burn(e.moduleAddress, amount); err != nil {
		return nil, err
	}
	if payout.Sign() > 0 {
		if err := e.reserve.Transfer(e.moduleAddress, user, payout); err != nil {
			return nil, err
		}
	}

	position.Amount = new(big.Int).Sub(position.Amount, amount)
	position.Principal = new(big.Int).Sub(position.Principal, principalShare)
	if position.Principal.Sign() < 0 {
		position.Principal = big.NewInt(0)
	}
	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	return payout, nil
}

func (e *Engine) settleLiquidation(pool *Pool, cycle *Cycle, liquidator Address, req *Request) (*big.Int, error) {
	target, err := e.ensurePosition(req.Target)
	if err != nil {
		return nil, err
	}
	normalizePosition(pool, target)

	amount := scaleByMultiplier(req.Amount, req.Multiplier, pool.SplitMultiplier)
	if amount.Cmp(target.Amount) > 0 {
		amount = new(big.Int).Set(target.Amount)
	}
	settleUnits := scaleByMultiplier(amount, pool.SplitMultiplier, cycle.SplitMultiplier)
	value := reserveFromSynthetic(settleUnits, cycle.Price)

	// The escrow caps what the liquidator pays; a price rally since
	// submission shrinks the liquidated amount instead of demanding more.
	refund := big.NewInt(0)
	if req.Escrow.Cmp(value) < 0 {
		settleUnits = syntheticFromReserve(req.Escrow, cycle.Price)
		amount = scaleByMultiplier(settleUnits, cycle.SplitMultiplier, pool.SplitMultiplier)
		if amount.Cmp(target.Amount) > 0 {
			amount = new(big.Int).Set(target.Amount)
		}
		value = reserveFromSynthetic(settleUnits, cycle.Price)
	}
	if req.Escrow.Cmp(value) > 0 {
		refund = new(big.Int).Sub(req.Escrow, value)
	}
	if amount.Sign() == 0 {
		return nil, ErrNothingToClaim
	}

	seized := big.NewInt(0)
	if target.Amount.Sign() > 0 && target.Collateral.Sign() > 0 {
		seized = new(big.Int).Mul(target.Collateral, amount)
		seized.Quo(seized, target.Amount)
		bonus := bpsShare(seized, e.params.LiquidationBonusBps)
		seized.Add(seized, bonus)
		if seized.Cmp(target.Collateral) > 0 {
			seized = new(big.Int).Set(target.Collateral)
		}
	}

	principalShare := big.NewInt(0)
	if target.Amount.Sign() > 0 {
		principalShare = new(big.Int).Mul(target.Principal, amount)
		principalShare.Quo(principalShare, target.Amount)
	}

	// Burn the liquidated synthetic from the target's balance, tolerating
	// tokens the target moved elsewhere.
	balance := e.token.BalanceOf(req.Target)
	burn := amount
	if balance.Cmp(burn) < 0 {
		burn = balance
	}
	if burn.Sign() > 0 {
		if err := e.token.Burn(req.Target, burn); err != nil {
			return nil, err
		}
	}

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

	target.Amount = new(big.Int).Sub(target.Amount, amount)
	target.Principal = new(big.Int).Sub(target.Principal, principalShare)
	if target.Principal.Sign() < 0 {
		target.Principal = big.NewInt(0)
	}
	target.Collateral = new(big.Int).Sub(target.Collateral, seized)
	if err := e.state.PutPosition(target); err != nil {
		return nil, err
	}

	payout := new(big.Int).Add(seized, refund)
	return payout, nil
}

// AddCollateral tops up a position's collateral directly, outside the cycle
// mechanism.
func (e *Engine) AddCollateral(user Address, amount *big.Int) error {
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
	if e.reserve.BalanceOf(user).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	position, err := e.ensurePosition(user)
	if err != nil {
		return err
	}
	normalizePosition(pool, position)
	if err := e.reserve.Transfer(user, e.collateralAddr, amount); err != nil {
		return err
	}
	position.Collateral = new(big.Int).Add(position.Collateral, amount)
	return e.state.PutPosition(position)
}

// ReduceCollateral releases posted collateral down to the policy-required
// minimum. Blocked while a request from the same or a prior unsettled cycle
// is outstanding.
func (e *Engine) ReduceCollateral(user Address, amount *big.Int) error {
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
	req, err := e.state.GetRequest(user)
	if err != nil {
		return err
	}
	if req != nil && req.Kind != RequestNone {
		return ErrRequestPending
	}
	position, err := e.ensurePosition(user)
	if err != nil {
		return err
	}
	normalizePosition(pool, position)
	if position.Collateral.Cmp(amount) < 0 {
		return ErrInsufficientCollateral
	}
	remaining := new(big.Int).Sub(position.Collateral, amount)
	required := RequiredCollateral(e.exposureValue(pool, position), e.policy.HealthyRatioBps)
	if remaining.Cmp(required) < 0 {
		return ErrCollateralBelowRequired
	}
	if err := e.reserve.Transfer(e.collateralAddr, user, amount); err != nil {
		return err
	}
	position.Collateral = remaining
	return e.state.PutPosition(position)
}

// ExitPool lets a user unwind directly while the pool is halted, bypassing
// the cycle mechanism. The burned amount pays out at face value of the last
// settlement price; when custody cannot cover the full outstanding supply at
// that price the shortfall is shared pro-rata. Protocol fees and unsettled
// request escrow never enter the payout base.
func (e *Engine) ExitPool(user Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	if pool.Status != PoolHalted {
		return nil, ErrPoolNotHalted
	}
	position, err := e.ensurePosition(user)
	if err != nil {
		return nil, err
	}
	normalizePosition(pool, position)
	if position.Amount.Cmp(amount) < 0 || e.token.BalanceOf(user).Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}
	if pool.SyntheticOutstanding.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	cycle, err := e.ensureCycle(pool.CycleIndex)
	if err != nil {
		return nil, err
	}

	payout := reserveFromSynthetic(amount, pool.LastPrice)
	available := e.haltedCustody(pool, cycle)
	share := new(big.Int).Mul(available, amount)
	share.Quo(share, pool.SyntheticOutstanding)
	if payout.Cmp(share) > 0 {
		payout = share
	}

	principalShare := big.NewInt(0)
	if position.Amount.Sign() > 0 {
		principalShare = new(big.Int).Mul(position.Principal, amount)
		principalShare.Quo(principalShare, position.Amount)
	}

	if err := e.token.Burn(user, amount); err != nil {
		return nil, err
	}
	if payout.Sign() > 0 {
		if err := e.reserve.Transfer(e.moduleAddress, user, payout); err != nil {
			return nil, err
		}
	}

	position.Amount = new(big.Int).Sub(position.Amount, amount)
	position.Principal = new(big.Int).Sub(position.Principal, principalShare)
	if position.Principal.Sign() < 0 {
		position.Principal = big.NewInt(0)
	}
	pool.SyntheticOutstanding = new(big.Int).Sub(pool.SyntheticOutstanding, amount)
	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	e.emitAmount(EventTypePoolExited, user, payout)
	return payout, nil
}

// PositionOf returns a defensive copy of the user's settled position.
func (e *Engine) PositionOf(user Address) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	position, err := e.ensurePosition(user)
	if err != nil {
		return nil, err
	}
	normalizePosition(pool, position)
	return position.Clone(), nil
}

// RequestOf returns a defensive copy of the user's pending request, or nil.
func (e *Engine) RequestOf(user Address) (*Request, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	req, err := e.state.GetRequest(user)
	if err != nil {
		return nil, err
	}
	return req.Clone(), nil
}

// HealthOf classifies a user's collateral health at the last settlement
// price.
func (e *Engine) HealthOf(user Address) (HealthStatus, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	pool, err := e.ensurePool()
	if err != nil {
		return 0, err
	}
	position, err := e.ensurePosition(user)
	if err != nil {
		return 0, err
	}
	normalizePosition(pool, position)
	return e.policy.HealthOf(position.Collateral, e.exposureValue(pool, position)), nil
}
