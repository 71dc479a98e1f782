package synth

import (
	"math/big"
	"strconv"
)

// InitiateOffchainRebalance closes the open cycle once the cycle length has
// elapsed and the tracked market is in session. Interest accrues up to this
// moment: the cumulative index advances by the curve rate over the elapsed
// time and the charge on the utilized exposure is split between the LP pot
// and the protocol fee.
func (e *Engine) InitiateOffchainRebalance() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.oracle == nil {
		return ErrNilOracle
	}
	if err := e.guard(); err != nil {
		return err
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if pool.Status == PoolHalted {
		return ErrPoolHalted
	}
	if pool.Status != PoolActive {
		return ErrWrongPhase
	}
	cycle, err := e.ensureCycle(pool.CycleIndex)
	if err != nil {
		return err
	}
	now := e.now()
	if now < cycle.StartedAt+e.params.CycleLength {
		return ErrCycleNotElapsed
	}
	if !e.oracle.IsMarketOpen() {
		return ErrMarketClosed
	}

	utilized := e.utilizedValue(pool)
	rate := e.policy.InterestRate(utilizationBps(utilized, pool.TotalCommitted))
	elapsed := now - pool.LastAccrualTime
	newIndex := rayMul(pool.InterestIndex, rateFactor(rate, elapsed))
	interest := indexDelta(utilized, newIndex, pool.InterestIndex)
	fee := bpsShare(interest, e.params.ProtocolFeeBps)

	pool.InterestIndex = newIndex
	pool.LastAccrualTime = now
	pool.FeeAccrued = new(big.Int).Add(pool.FeeAccrued, fee)
	pool.Status = PoolRebalancingOffchain

	cycle.InterestIndex = new(big.Int).Set(newIndex)
	cycle.InterestAccrued = new(big.Int).Sub(interest, fee)
	cycle.OffchainAt = now

	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.emit(EventTypeCycleOffchain, map[string]string{
		"cycle":    strconv.FormatUint(cycle.Index, 10),
		"rateBps":  strconv.FormatUint(rate, 10),
		"interest": cycle.InterestAccrued.String(),
	})
	return nil
}

// InitiateOnchainRebalance fixes the settlement price from the oracle after
// the market has closed and computes the cycle's net imbalance across LPs.
// An out-of-tolerance price move blocks the transition until an operator
// resolves it via ResolvePriceDeviation.
func (e *Engine) InitiateOnchainRebalance() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.oracle == nil {
		return ErrNilOracle
	}
	if err := e.guard(); err != nil {
		return err
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if pool.Status == PoolHalted {
		return ErrPoolHalted
	}
	if pool.Status != PoolRebalancingOffchain {
		return ErrWrongPhase
	}
	cycle, err := e.ensureCycle(pool.CycleIndex)
	if err != nil {
		return err
	}
	now := e.now()
	if now < cycle.OffchainAt+e.params.RebalanceLength {
		return ErrRebalanceNotElapsed
	}
	if e.oracle.IsMarketOpen() {
		return ErrMarketOpen
	}
	if now-e.oracle.LastUpdate().Unix() > e.params.OracleMaxAge {
		return ErrStaleOracle
	}
	price, err := e.oracle.CurrentPrice()
	if err != nil {
		return err
	}
	if price == nil || price.Sign() <= 0 {
		return ErrStaleOracle
	}
	if !cycle.DeviationResolved && deviationExceeds(pool.LastPrice, price, e.params.PriceDeviationBps) {
		return ErrPriceDeviation
	}

	cycle.Price = new(big.Int).Set(price)
	cycle.PrevPrice = new(big.Int).Set(pool.LastPrice)
	cycle.Imbalance = e.cycleImbalance(pool, cycle, price)
	cycle.OnchainAt = now
	pool.Status = PoolRebalancingOnchain

	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.emit(EventTypeCycleOnchain, map[string]string{
		"cycle":     strconv.FormatUint(cycle.Index, 10),
		"price":     price.String(),
		"imbalance": cycle.Imbalance.String(),
	})

	// A pool without active LPs has nobody to settle against; finalize at
	// once so requests still clear.
	if len(pool.ActiveLPs) == 0 {
		return e.finalizeCycle(pool, cycle)
	}
	return nil
}

// cycleImbalance is the signed reserve obligation the LP set owes at the
// settlement price: redemptions to fund, minus deposits received, plus the
// value move on the standing exposure. Liquidations are excluded because the
// liquidator escrow funds them.
func (e *Engine) cycleImbalance(pool *Pool, cycle *Cycle, price *big.Int) *big.Int {
	imbalance := reserveFromSynthetic(cycle.RedemptionTotal, price)
	imbalance.Sub(imbalance, cycle.DepositTotal)
	if pool.SyntheticOutstanding.Sign() > 0 && pool.LastPrice != nil {
		move := new(big.Int).Sub(price, pool.LastPrice)
		move.Mul(move, pool.SyntheticOutstanding)
		move.Quo(move, pricePrecision)
		imbalance.Add(imbalance, move)
	}
	return imbalance
}

// ResolvePriceDeviation lets the admin unblock a settlement whose price moved
// outside the deviation band. A confirmed stock split re-bases all
// synthetic-denominated state through the multiplier; a plain acceptance
// simply records that the move is genuine.
func (e *Engine) ResolvePriceDeviation(caller Address, isSplit bool, ratioNum, ratioDen uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if caller != e.admin {
		return ErrNotAdmin
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if pool.Status != PoolRebalancingOffchain {
		return ErrWrongPhase
	}
	cycle, err := e.ensureCycle(pool.CycleIndex)
	if err != nil {
		return err
	}

	if !isSplit {
		cycle.DeviationResolved = true
		if err := e.state.PutCycle(cycle); err != nil {
			return err
		}
		e.emit(EventTypeDeviationAccepted, map[string]string{
			"cycle": strconv.FormatUint(cycle.Index, 10),
		})
		return nil
	}

	if ratioNum == 0 || ratioDen == 0 {
		return ErrInvalidSplit
	}
	if !e.oracle.SplitDetected() || !e.oracle.VerifySplit(ratioNum, ratioDen) {
		return ErrInvalidSplit
	}
	if err := e.token.ApplySplit(ratioNum, ratioDen); err != nil {
		return err
	}

	num := new(big.Int).SetUint64(ratioNum)
	den := new(big.Int).SetUint64(ratioDen)

	multiplier := new(big.Int).Mul(pool.SplitMultiplier, num)
	multiplier.Quo(multiplier, den)
	if multiplier.Sign() == 0 {
		return ErrInvalidSplit
	}
	pool.SplitMultiplier = multiplier

	outstanding := new(big.Int).Mul(pool.SyntheticOutstanding, num)
	pool.SyntheticOutstanding = outstanding.Quo(outstanding, den)

	lastPrice := new(big.Int).Mul(pool.LastPrice, den)
	pool.LastPrice = lastPrice.Quo(lastPrice, num)

	// Synthetic-denominated cycle aggregates re-base eagerly; per-position
	// records catch up lazily through normalizePosition.
	redemption := new(big.Int).Mul(cycle.RedemptionTotal, num)
	cycle.RedemptionTotal = redemption.Quo(redemption, den)
	liquidation := new(big.Int).Mul(cycle.LiquidationTotal, num)
	cycle.LiquidationTotal = liquidation.Quo(liquidation, den)

	cycle.DeviationResolved = true
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.emit(EventTypeSplitResolved, map[string]string{
		"cycle": strconv.FormatUint(cycle.Index, 10),
		"ratio": strconv.FormatUint(ratioNum, 10) + ":" + strconv.FormatUint(ratioDen, 10),
	})
	return nil
}

// RebalancePool settles one LP's proportional share of the cycle imbalance
// and credits its interest share. The LP confirms the settlement price it is
// executing against; a quote outside the tolerance band is rejected. The
// last LP to settle absorbs the rounding remainders so the sums are exact.
func (e *Engine) RebalancePool(lp Address, price *big.Int) error {
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
	if pool.Status == PoolHalted {
		return ErrPoolHalted
	}
	if pool.Status != PoolRebalancingOnchain {
		return ErrWrongPhase
	}
	if !pool.hasActiveLP(lp) {
		return ErrNotLP
	}
	cycle, err := e.ensureCycle(pool.CycleIndex)
	if err != nil {
		return err
	}
	position, err := e.ensureLP(lp)
	if err != nil {
		return err
	}
	if position.LastSettledCycle == cycle.Index {
		return ErrLPAlreadySettled
	}
	if price == nil || deviationExceeds(cycle.Price, price, e.params.SettleToleranceBps) {
		return ErrPriceOutOfBand
	}

	obligation, interest := e.lpShares(pool, cycle, position)
	if err := e.settleObligation(lp, obligation); err != nil {
		return err
	}

	position.AccruedInterest = new(big.Int).Add(position.AccruedInterest, interest)
	position.LastSettledCycle = cycle.Index
	cycle.SettledImbalance = new(big.Int).Add(cycle.SettledImbalance, obligation)
	cycle.SettledInterest = new(big.Int).Add(cycle.SettledInterest, interest)
	cycle.SettledLPs++

	if err := e.state.PutLP(position); err != nil {
		return err
	}
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	e.emit(EventTypeLPSettled, map[string]string{
		"account":    lp.Hex(),
		"cycle":      strconv.FormatUint(cycle.Index, 10),
		"obligation": obligation.String(),
		"interest":   interest.String(),
	})

	if cycle.SettledLPs >= uint64(len(pool.ActiveLPs)) {
		return e.finalizeCycle(pool, cycle)
	}
	return e.state.PutPool(pool)
}

// lpShares computes an LP's slice of the cycle imbalance and interest. The
// final unsettled LP takes whatever remains so the settled totals match the
// cycle totals exactly.
func (e *Engine) lpShares(pool *Pool, cycle *Cycle, position *LPPosition) (*big.Int, *big.Int) {
	lastSettler := cycle.SettledLPs+1 >= uint64(len(pool.ActiveLPs))
	if lastSettler {
		obligation := new(big.Int).Sub(cycle.Imbalance, cycle.SettledImbalance)
		interest := new(big.Int).Sub(cycle.InterestAccrued, cycle.SettledInterest)
		if interest.Sign() < 0 {
			interest = big.NewInt(0)
		}
		return obligation, interest
	}
	obligation := proportionalShare(cycle.Imbalance, position.Liquidity, pool.TotalCommitted)
	interest := proportionalShare(cycle.InterestAccrued, position.Liquidity, pool.TotalCommitted)
	if interest.Sign() < 0 {
		interest = big.NewInt(0)
	}
	return obligation, interest
}

// settleObligation moves a signed obligation: positive pulls reserve from the
// LP into the pool, negative pays the LP out of the pool.
func (e *Engine) settleObligation(lp Address, obligation *big.Int) error {
	switch obligation.Sign() {
	case 1:
		if e.reserve.BalanceOf(lp).Cmp(obligation) < 0 {
			return ErrInsufficientBalance
		}
		return e.reserve.Transfer(lp, e.moduleAddress, obligation)
	case -1:
		return e.reserve.Transfer(e.moduleAddress, lp, new(big.Int).Neg(obligation))
	default:
		return nil
	}
}

// proportionalShare computes total * weight / totalWeight, truncating toward
// zero for either sign of total.
func proportionalShare(total, weight, totalWeight *big.Int) *big.Int {
	if total == nil || total.Sign() == 0 || weight == nil || weight.Sign() == 0 ||
		totalWeight == nil || totalWeight.Sign() == 0 {
		return big.NewInt(0)
	}
	share := new(big.Int).Mul(total, weight)
	return share.Quo(share, totalWeight)
}

// ForceRebalanceLP lets the admin settle a non-responsive LP once the halt
// threshold has elapsed. The obligation is taken from the LP's posted
// collateral; if even that cannot cover it the pool halts.
func (e *Engine) ForceRebalanceLP(caller, lp Address) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if caller != e.admin {
		return ErrNotAdmin
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if pool.Status != PoolRebalancingOnchain {
		return ErrWrongPhase
	}
	if !pool.hasActiveLP(lp) {
		return ErrNotLP
	}
	cycle, err := e.ensureCycle(pool.CycleIndex)
	if err != nil {
		return err
	}
	if e.now() < cycle.OnchainAt+e.params.HaltThreshold {
		return ErrHaltThresholdNotReached
	}
	position, err := e.ensureLP(lp)
	if err != nil {
		return err
	}
	if position.LastSettledCycle == cycle.Index {
		return ErrLPAlreadySettled
	}

	obligation, interest := e.lpShares(pool, cycle, position)
	switch {
	case obligation.Sign() <= 0:
		if obligation.Sign() < 0 {
			if err := e.reserve.Transfer(e.moduleAddress, lp, new(big.Int).Neg(obligation)); err != nil {
				return err
			}
		}
	case position.Collateral.Cmp(obligation) >= 0:
		if err := e.reserve.Transfer(e.collateralAddr, e.moduleAddress, obligation); err != nil {
			return err
		}
		position.Collateral = new(big.Int).Sub(position.Collateral, obligation)
	default:
		// Collateral cannot cover the obligation: the pool's backing is no
		// longer whole and only the halt escape hatch remains.
		pool.Status = PoolHalted
		if err := e.state.PutPool(pool); err != nil {
			return err
		}
		e.emit(EventTypePoolHalted, map[string]string{
			"cycle":   strconv.FormatUint(cycle.Index, 10),
			"account": lp.Hex(),
		})
		return nil
	}

	position.AccruedInterest = new(big.Int).Add(position.AccruedInterest, interest)
	position.LastSettledCycle = cycle.Index
	cycle.SettledImbalance = new(big.Int).Add(cycle.SettledImbalance, obligation)
	cycle.SettledInterest = new(big.Int).Add(cycle.SettledInterest, interest)
	cycle.SettledLPs++

	if err := e.state.PutLP(position); err != nil {
		return err
	}
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	e.emit(EventTypeLPSettled, map[string]string{
		"account":    lp.Hex(),
		"cycle":      strconv.FormatUint(cycle.Index, 10),
		"obligation": obligation.String(),
		"forced":     "true",
	})

	if cycle.SettledLPs >= uint64(len(pool.ActiveLPs)) {
		return e.finalizeCycle(pool, cycle)
	}
	return e.state.PutPool(pool)
}

// finalizeCycle applies pending liquidity requests, rolls the aggregate
// synthetic supply forward at the settlement price and opens the next cycle.
func (e *Engine) finalizeCycle(pool *Pool, cycle *Cycle) error {
	for _, lp := range cycle.PendingLPs {
		if err := e.applyLiquidityRequest(pool, lp); err != nil {
			return err
		}
	}

	minted := syntheticFromReserve(cycle.DepositTotal, cycle.Price)
	outstanding := new(big.Int).Add(pool.SyntheticOutstanding, minted)
	outstanding.Sub(outstanding, cycle.RedemptionTotal)
	outstanding.Sub(outstanding, cycle.LiquidationTotal)
	if outstanding.Sign() < 0 {
		outstanding = big.NewInt(0)
	}
	pool.SyntheticOutstanding = outstanding

	if rebaser, ok := e.token.(priceRebaser); ok {
		rebaser.Rebase(cycle.PrevPrice, cycle.Price)
	}

	cycle.SplitMultiplier = new(big.Int).Set(pool.SplitMultiplier)
	pool.LastPrice = new(big.Int).Set(cycle.Price)
	pool.CycleIndex = cycle.Index + 1
	pool.Status = PoolActive

	next := &Cycle{
		Index:           pool.CycleIndex,
		StartedAt:       e.now(),
		PrevPrice:       new(big.Int).Set(cycle.Price),
		DepositTotal:    big.NewInt(0),
		RedemptionTotal: big.NewInt(0),
		InterestIndex:   new(big.Int).Set(pool.InterestIndex),
	}
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	if err := e.state.PutCycle(next); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.emit(EventTypeCycleSettled, map[string]string{
		"cycle": strconv.FormatUint(cycle.Index, 10),
		"price": cycle.Price.String(),
	})
	return nil
}

// applyLiquidityRequest folds one LP's pending add or reduce into the
// committed totals at finalization.
func (e *Engine) applyLiquidityRequest(pool *Pool, lp Address) error {
	req, err := e.state.GetLPRequest(lp)
	if err != nil {
		return err
	}
	if req == nil {
		return nil
	}
	position, err := e.ensureLP(lp)
	if err != nil {
		return err
	}

	switch req.Kind {
	case RequestAddLiquidity:
		position.Liquidity = new(big.Int).Add(position.Liquidity, req.Amount)
		pool.TotalCommitted = new(big.Int).Add(pool.TotalCommitted, req.Amount)
		pool.TotalPendingAdd = new(big.Int).Sub(pool.TotalPendingAdd, req.Amount)
		if !pool.hasActiveLP(lp) {
			pool.ActiveLPs = append(pool.ActiveLPs, lp)
		}
		// A provider joining mid-cycle owes nothing for the cycle that just
		// settled.
		position.LastSettledCycle = pool.CycleIndex
	case RequestReduceLiquidity:
		amount := new(big.Int).Set(req.Amount)
		if amount.Cmp(position.Liquidity) > 0 {
			amount = new(big.Int).Set(position.Liquidity)
		}
		if err := e.reserve.Transfer(e.moduleAddress, lp, amount); err != nil {
			return err
		}
		position.Liquidity = new(big.Int).Sub(position.Liquidity, amount)
		pool.TotalCommitted = new(big.Int).Sub(pool.TotalCommitted, amount)
		pool.TotalPendingReduce = new(big.Int).Sub(pool.TotalPendingReduce, req.Amount)
		if position.Liquidity.Sign() == 0 {
			pool.removeActiveLP(lp)
		}
	default:
		return nil
	}

	if err := e.state.PutLP(position); err != nil {
		return err
	}
	return e.state.DeleteLPRequest(lp)
}

// WithdrawProtocolFees pays accumulated protocol fees out of the reserve
// custody to the given recipient.
func (e *Engine) WithdrawProtocolFees(caller, recipient Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if caller != e.admin {
		return ErrNotAdmin
	}
	if recipient.IsZero() {
		return ErrInvalidAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if pool.FeeAccrued.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := e.reserve.Transfer(e.moduleAddress, recipient, amount); err != nil {
		return err
	}
	pool.FeeAccrued = new(big.Int).Sub(pool.FeeAccrued, amount)
	return e.state.PutPool(pool)
}

// PoolInfo returns a defensive copy of the pool record.
func (e *Engine) PoolInfo() (*Pool, error) {
	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// CycleInfo returns a defensive copy of the cycle at the given index.
func (e *Engine) CycleInfo(index uint64) (*Cycle, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	cycle, err := e.ensureCycle(index)
	if err != nil {
		return nil, err
	}
	return cycle.Clone(), nil
}
