package synth

import (
	"fmt"
	"math/big"
	"strings"
)

// PoolConfig describes one synthetic asset pool to instantiate.
type PoolConfig struct {
	ID         string
	Asset      string
	OracleName string
	Variant    AccountingVariant
	Params     Params
	Policy     Policy
}

// NewPool constructs an independently owned pool engine. Instances share
// immutable references to the policy configuration and the registry
// capability; each owns its token accounting, custody addresses and state
// scope. The registry gates which assets and oracles may be bound.
func NewPool(cfg PoolConfig, state EngineState, oracle Oracle, reserve ReserveToken, registry Registry, admin Address) (*Engine, error) {
	id := strings.TrimSpace(cfg.ID)
	if id == "" {
		return nil, fmt.Errorf("synth factory: pool id required")
	}
	asset := strings.TrimSpace(cfg.Asset)
	if asset == "" {
		return nil, fmt.Errorf("synth factory: asset symbol required")
	}
	if state == nil {
		return nil, ErrNilState
	}
	if oracle == nil {
		return nil, ErrNilOracle
	}
	if reserve == nil {
		return nil, fmt.Errorf("synth factory: reserve token required")
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if registry != nil {
		if !registry.AssetAllowed(asset) {
			return nil, fmt.Errorf("synth factory: asset %q not allow-listed", asset)
		}
		if !registry.OracleAllowed(strings.TrimSpace(cfg.OracleName)) {
			return nil, fmt.Errorf("synth factory: oracle %q not allow-listed", cfg.OracleName)
		}
	}
	variant := cfg.Variant
	if variant == 0 {
		variant = AccountingScaledBalance
	}
	token, err := NewSyntheticToken(variant, asset)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		state:          state,
		policy:         cfg.Policy,
		params:         cfg.Params,
		oracle:         oracle,
		token:          token,
		reserve:        reserve,
		poolID:         id,
		admin:          admin,
		moduleAddress:  moduleAccount(id, "reserve"),
		collateralAddr: moduleAccount(id, "collateral"),
	}
	if err := engine.initGenesis(asset); err != nil {
		return nil, err
	}
	return engine, nil
}

// initGenesis seeds the pool record and cycle zero when the state scope is
// empty. Existing pools are left untouched so a restarted daemon resumes
// mid-cycle.
func (e *Engine) initGenesis(asset string) error {
	pool, err := e.state.GetPool()
	if err != nil {
		return err
	}
	if pool != nil {
		return nil
	}
	price, err := e.oracle.CurrentPrice()
	if err != nil {
		return fmt.Errorf("synth factory: seed genesis price: %w", err)
	}
	if price == nil || price.Sign() <= 0 {
		return fmt.Errorf("synth factory: oracle returned non-positive genesis price")
	}
	now := e.now()
	pool = &Pool{
		ID:                   e.poolID,
		Asset:                asset,
		Status:               PoolActive,
		CycleIndex:           0,
		InterestIndex:        new(big.Int).Set(ray),
		LastAccrualTime:      now,
		LastPrice:            new(big.Int).Set(price),
		SyntheticOutstanding: big.NewInt(0),
		TotalCommitted:       big.NewInt(0),
		TotalPendingAdd:      big.NewInt(0),
		TotalPendingReduce:   big.NewInt(0),
		FeeAccrued:           big.NewInt(0),
		SplitMultiplier:      new(big.Int).Set(ray),
	}
	cycle := &Cycle{
		Index:           0,
		StartedAt:       now,
		PrevPrice:       new(big.Int).Set(price),
		DepositTotal:    big.NewInt(0),
		RedemptionTotal: big.NewInt(0),
		InterestIndex:   new(big.Int).Set(ray),
	}
	if err := e.state.PutCycle(cycle); err != nil {
		return err
	}
	return e.state.PutPool(pool)
}
