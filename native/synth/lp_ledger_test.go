package synth

import (
	"errors"
	"math/big"
	"testing"
)

func TestLiquidityCommitLifecycle(t *testing.T) {
	env := newTestEnv(t, zeroRatePolicy())
	lp1, lp2 := addr(1), addr(2)
	env.fund(lp1, 6_000)
	env.fund(lp2, 4_000)

	if err := env.engine.AddLiquidityRequest(lp1, bi(6_000)); err != nil {
		t.Fatalf("add lp1: %v", err)
	}
	if err := env.engine.AddLiquidityRequest(lp2, bi(4_000)); err != nil {
		t.Fatalf("add lp2: %v", err)
	}
	// Escrowed, not yet committed.
	pool := env.pool()
	if pool.TotalCommitted.Sign() != 0 || pool.TotalPendingAdd.Cmp(bi(10_000)) != 0 {
		t.Fatalf("committed %s pending %s before finalize", pool.TotalCommitted, pool.TotalPendingAdd)
	}

	env.runCycle(price2)

	pool = env.pool()
	if pool.TotalCommitted.Cmp(bi(10_000)) != 0 || pool.TotalPendingAdd.Sign() != 0 {
		t.Fatalf("committed %s pending %s after finalize", pool.TotalCommitted, pool.TotalPendingAdd)
	}
	if len(pool.ActiveLPs) != 2 {
		t.Fatalf("active LP count = %d, want 2", len(pool.ActiveLPs))
	}
	p1, err := env.engine.LPOf(lp1)
	if err != nil {
		t.Fatalf("lp1: %v", err)
	}
	if p1.Liquidity.Cmp(bi(6_000)) != 0 {
		t.Fatalf("lp1 liquidity = %s, want 6000", p1.Liquidity)
	}

	// Full reduction releases the commitment at the next finalize.
	if err := env.engine.ReduceLiquidityRequest(lp2, bi(4_000)); err != nil {
		t.Fatalf("reduce lp2: %v", err)
	}
	env.runCycle(price2)

	pool = env.pool()
	if pool.TotalCommitted.Cmp(bi(6_000)) != 0 {
		t.Fatalf("committed = %s, want 6000", pool.TotalCommitted)
	}
	if len(pool.ActiveLPs) != 1 {
		t.Fatalf("active LP count = %d, want 1", len(pool.ActiveLPs))
	}
	if got := env.balance(lp2); got != 4_000 {
		t.Fatalf("lp2 released %d, want 4000", got)
	}

	// Fully unwound providers can close out entirely.
	if _, err := env.engine.RemoveLP(lp2); err != nil {
		t.Fatalf("remove lp2: %v", err)
	}
	if _, err := env.engine.LPOf(lp2); !errors.Is(err, ErrUnknownLP) {
		t.Fatalf("removed lp lookup: got %v", err)
	}
}

func TestReduceLiquidityBoundedByUtilization(t *testing.T) {
	env := newTestEnv(t, zeroRatePolicy())
	lp := addr(1)
	env.addLP(lp, 1_000)
	user := addr(2)
	env.fund(user, 1_200)
	if err := env.engine.DepositRequest(user, bi(800), bi(400)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	env.runCycle(price2)

	// 800 of the 1000 commitment now backs live exposure.
	if err := env.engine.ReduceLiquidityRequest(lp, bi(500)); !errors.Is(err, ErrLiquidityCommitted) {
		t.Fatalf("over-reduce: got %v", err)
	}
	if err := env.engine.ReduceLiquidityRequest(lp, bi(1_100)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("reduce beyond commitment: got %v", err)
	}
	if err := env.engine.ReduceLiquidityRequest(lp, bi(200)); err != nil {
		t.Fatalf("reduce: %v", err)
	}
	env.runCycle(price2)

	pool := env.pool()
	if pool.TotalCommitted.Cmp(bi(800)) != 0 {
		t.Fatalf("committed = %s, want 800", pool.TotalCommitted)
	}
	position, err := env.engine.LPOf(lp)
	if err != nil {
		t.Fatalf("lp: %v", err)
	}
	if position.Liquidity.Cmp(bi(800)) != 0 {
		t.Fatalf("lp liquidity = %s, want 800", position.Liquidity)
	}
}

func TestLPCollateralFloor(t *testing.T) {
	env := newTestEnv(t, zeroRatePolicy())
	lp := addr(1)
	env.addLP(lp, 1_000)
	user := addr(2)
	env.fund(user, 1_200)
	if err := env.engine.DepositRequest(user, bi(800), bi(400)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	env.runCycle(price2)

	env.fund(lp, 500)
	if err := env.engine.DepositLPCollateral(lp, bi(500)); err != nil {
		t.Fatalf("deposit collateral: %v", err)
	}

	// The sole LP carries the full 800 exposure, so 400 must stay posted.
	if err := env.engine.WithdrawLPCollateral(lp, bi(200)); !errors.Is(err, ErrCollateralBelowRequired) {
		t.Fatalf("withdraw below floor: got %v", err)
	}
	if err := env.engine.WithdrawLPCollateral(lp, bi(100)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	position, err := env.engine.LPOf(lp)
	if err != nil {
		t.Fatalf("lp: %v", err)
	}
	if position.Collateral.Cmp(bi(400)) != 0 {
		t.Fatalf("collateral = %s, want 400", position.Collateral)
	}
}

func TestImbalanceSplitsExactlyAcrossLPs(t *testing.T) {
	env := newTestEnv(t, zeroRatePolicy())
	lp1, lp2, lp3 := addr(1), addr(2), addr(3)
	env.fund(lp1, 3_333)
	env.fund(lp2, 3_333)
	env.fund(lp3, 3_334)
	for _, lp := range []Address{lp1, lp2, lp3} {
		if err := env.engine.AddLiquidityRequest(lp, env.reserve.BalanceOf(lp)); err != nil {
			t.Fatalf("add %s: %v", lp.Hex(), err)
		}
	}
	env.runCycle(price2)

	user := addr(4)
	env.fund(user, 1_500)
	if err := env.engine.DepositRequest(user, bi(1_000), bi(500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	env.runCycle(price2)

	// The 1000 deposit flows out to the LP set with no rounding leakage: the
	// last settler takes the remainder.
	if got := env.balance(lp1); got != 333 {
		t.Fatalf("lp1 share = %d, want 333", got)
	}
	if got := env.balance(lp2); got != 333 {
		t.Fatalf("lp2 share = %d, want 333", got)
	}
	if got := env.balance(lp3); got != 334 {
		t.Fatalf("lp3 share = %d, want 334", got)
	}
}

func TestLPLiquidationTransfersCommitment(t *testing.T) {
	env := newTestEnv(t, zeroRatePolicy())
	lp1, lp2 := addr(1), addr(2)
	env.fund(lp1, 8_000)
	env.fund(lp2, 2_000)
	if err := env.engine.AddLiquidityRequest(lp1, bi(8_000)); err != nil {
		t.Fatalf("add lp1: %v", err)
	}
	if err := env.engine.AddLiquidityRequest(lp2, bi(2_000)); err != nil {
		t.Fatalf("add lp2: %v", err)
	}
	env.runCycle(price2)

	user := addr(3)
	env.fund(user, 10_500)
	if err := env.engine.DepositRequest(user, bi(7_000), bi(3_500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	env.runCycle(price2)

	// lp2 backs a 1400 exposure slice with no collateral posted.
	bidder, bidder2 := addr(7), addr(8)
	env.fund(bidder, 1_000)
	env.fund(bidder2, 1_000)

	if err := env.engine.LiquidateLP(bidder, lp2, bi(700)); !errors.Is(err, ErrExcessiveAmount) {
		t.Fatalf("above the 30%% cap: got %v", err)
	}
	if err := env.engine.LiquidateLP(bidder, lp2, bi(500)); err != nil {
		t.Fatalf("bid: %v", err)
	}
	if err := env.engine.LiquidateLP(bidder2, lp2, bi(500)); !errors.Is(err, ErrAmountNotLarger) {
		t.Fatalf("equal bid: got %v", err)
	}
	if err := env.engine.LiquidateLP(bidder2, lp2, bi(600)); err != nil {
		t.Fatalf("larger bid: %v", err)
	}
	if got := env.balance(bidder); got != 1_000 {
		t.Fatalf("displaced bidder refund = %d, want 1000", got)
	}

	env.runCycle(price2)

	if _, err := env.engine.ClaimLPLiquidation(bidder2); err != nil {
		t.Fatalf("claim: %v", err)
	}

	target, err := env.engine.LPOf(lp2)
	if err != nil {
		t.Fatalf("lp2: %v", err)
	}
	if target.Liquidity.Cmp(bi(1_400)) != 0 {
		t.Fatalf("target liquidity = %s, want 1400", target.Liquidity)
	}
	taken, err := env.engine.LPOf(bidder2)
	if err != nil {
		t.Fatalf("bidder2: %v", err)
	}
	if taken.Liquidity.Cmp(bi(600)) != 0 {
		t.Fatalf("bidder2 liquidity = %s, want 600", taken.Liquidity)
	}

	// The pool-wide commitment is preserved: the escrow replaced the slice.
	pool := env.pool()
	if pool.TotalCommitted.Cmp(bi(10_000)) != 0 {
		t.Fatalf("committed = %s, want 10000", pool.TotalCommitted)
	}
	if len(pool.ActiveLPs) != 3 {
		t.Fatalf("active LP count = %d, want 3", len(pool.ActiveLPs))
	}
}

func TestRemoveLPBlockedWhileCommitted(t *testing.T) {
	env := newTestEnv(t, zeroRatePolicy())
	lp := addr(1)
	env.addLP(lp, 1_000)
	if _, err := env.engine.RemoveLP(lp); !errors.Is(err, ErrLiquidityCommitted) {
		t.Fatalf("remove with live commitment: got %v", err)
	}
	if _, err := env.engine.RemoveLP(addr(9)); !errors.Is(err, ErrUnknownLP) {
		t.Fatalf("remove unknown lp: got %v", err)
	}
}

func TestHaltReopensLiquidityCancel(t *testing.T) {
	env := newTestEnv(t, zeroRatePolicy())
	lp1 := addr(1)
	env.addLP(lp1, 10_000)
	user := addr(2)
	env.fund(user, 1_500)
	if err := env.engine.DepositRequest(user, bi(1_000), bi(500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	env.runCycle(price2)
	if _, err := env.engine.ClaimAsset(user); err != nil {
		t.Fatalf("claim asset: %v", err)
	}

	lp2 := addr(3)
	env.fund(lp2, 5_000)
	if err := env.engine.AddLiquidityRequest(lp2, bi(5_000)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}

	// Drain lp1 so the price rally's 2000 obligation cannot be settled.
	if err := env.reserve.Transfer(lp1, addr(9), env.reserve.BalanceOf(lp1)); err != nil {
		t.Fatalf("drain lp1: %v", err)
	}
	price6 := big.NewInt(6_000_000_000_000_000_000)
	env.now += env.params.CycleLength
	if err := env.engine.InitiateOffchainRebalance(); err != nil {
		t.Fatalf("offchain: %v", err)
	}
	if err := env.engine.ResolvePriceDeviation(admin, false, 0, 0); err != nil {
		t.Fatalf("resolve deviation: %v", err)
	}
	env.now += env.params.RebalanceLength
	env.oracle.open = false
	env.oracle.price = price6
	env.oracle.updated = env.now
	if err := env.engine.InitiateOnchainRebalance(); err != nil {
		t.Fatalf("onchain: %v", err)
	}

	// Mid-settlement the escrow stays locked.
	if err := env.engine.CancelLiquidityRequest(lp2); !errors.Is(err, ErrRequestSettled) {
		t.Fatalf("cancel while settling: got %v", err)
	}

	if err := env.engine.RebalancePool(lp1, price6); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("drained settle: got %v", err)
	}
	env.now += env.params.HaltThreshold
	if err := env.engine.ForceRebalanceLP(admin, lp1); err != nil {
		t.Fatalf("force: %v", err)
	}
	if got := env.pool().Status; got != PoolHalted {
		t.Fatalf("pool status = %s, want halted", got)
	}

	// The halting cycle never finalizes, so the escrow is refundable in full.
	if err := env.engine.CancelLiquidityRequest(lp2); err != nil {
		t.Fatalf("cancel after halt: %v", err)
	}
	if got := env.balance(lp2); got != 5_000 {
		t.Fatalf("refund = %d, want 5000", got)
	}
	if got := env.pool().TotalPendingAdd; got.Sign() != 0 {
		t.Fatalf("pending add after refund = %s, want 0", got)
	}
	// The escrow never became a committed position.
	if _, err := env.engine.LPOf(lp2); !errors.Is(err, ErrUnknownLP) {
		t.Fatalf("lp2 position: got %v", err)
	}
}
