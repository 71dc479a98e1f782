package synth

import "math/big"

// EngineState is the persistence surface the engine mutates. Implementations
// scope every record to the pool the engine was constructed for. Get methods
// return (nil, nil) when no record exists.
type EngineState interface {
	GetPool() (*Pool, error)
	PutPool(pool *Pool) error

	GetCycle(index uint64) (*Cycle, error)
	PutCycle(cycle *Cycle) error

	GetPosition(addr Address) (*Position, error)
	PutPosition(position *Position) error

	GetRequest(addr Address) (*Request, error)
	PutRequest(addr Address, req *Request) error
	DeleteRequest(addr Address) error

	GetLP(addr Address) (*LPPosition, error)
	PutLP(position *LPPosition) error
	DeleteLP(addr Address) error

	GetLPRequest(addr Address) (*Request, error)
	PutLPRequest(addr Address, req *Request) error
	DeleteLPRequest(addr Address) error
}

func (e *Engine) ensurePool() (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.state.GetPool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrNilState
	}
	if pool.InterestIndex == nil || pool.InterestIndex.Sign() == 0 {
		pool.InterestIndex = new(big.Int).Set(ray)
	}
	if pool.SyntheticOutstanding == nil {
		pool.SyntheticOutstanding = big.NewInt(0)
	}
	if pool.TotalCommitted == nil {
		pool.TotalCommitted = big.NewInt(0)
	}
	if pool.TotalPendingAdd == nil {
		pool.TotalPendingAdd = big.NewInt(0)
	}
	if pool.TotalPendingReduce == nil {
		pool.TotalPendingReduce = big.NewInt(0)
	}
	if pool.FeeAccrued == nil {
		pool.FeeAccrued = big.NewInt(0)
	}
	if pool.SplitMultiplier == nil || pool.SplitMultiplier.Sign() == 0 {
		pool.SplitMultiplier = new(big.Int).Set(ray)
	}
	return pool, nil
}

func (e *Engine) ensureCycle(index uint64) (*Cycle, error) {
	cycle, err := e.state.GetCycle(index)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, ErrWrongPhase
	}
	if cycle.DepositTotal == nil {
		cycle.DepositTotal = big.NewInt(0)
	}
	if cycle.RedemptionTotal == nil {
		cycle.RedemptionTotal = big.NewInt(0)
	}
	if cycle.LiquidationTotal == nil {
		cycle.LiquidationTotal = big.NewInt(0)
	}
	if cycle.SettledImbalance == nil {
		cycle.SettledImbalance = big.NewInt(0)
	}
	if cycle.SettledInterest == nil {
		cycle.SettledInterest = big.NewInt(0)
	}
	return cycle, nil
}

func (e *Engine) ensurePosition(addr Address) (*Position, error) {
	position, err := e.state.GetPosition(addr)
	if err != nil {
		return nil, err
	}
	if position == nil {
		position = &Position{Address: addr}
	}
	if position.Amount == nil {
		position.Amount = big.NewInt(0)
	}
	if position.Principal == nil {
		position.Principal = big.NewInt(0)
	}
	if position.Collateral == nil {
		position.Collateral = big.NewInt(0)
	}
	if position.InterestIndex == nil || position.InterestIndex.Sign() == 0 {
		position.InterestIndex = new(big.Int).Set(ray)
	}
	if position.Multiplier == nil || position.Multiplier.Sign() == 0 {
		position.Multiplier = new(big.Int).Set(ray)
	}
	return position, nil
}

// normalizePosition re-bases a position's synthetic amount onto the pool's
// current split multiplier. Splits adjust the pool-level multiplier once;
// individual positions catch up lazily here instead of being rewritten en
// masse.
func normalizePosition(pool *Pool, position *Position) {
	if pool == nil || position == nil || pool.SplitMultiplier == nil {
		return
	}
	if position.Multiplier.Cmp(pool.SplitMultiplier) == 0 {
		return
	}
	position.Amount = scaleByMultiplier(position.Amount, position.Multiplier, pool.SplitMultiplier)
	position.Multiplier = new(big.Int).Set(pool.SplitMultiplier)
}

func (e *Engine) ensureLP(addr Address) (*LPPosition, error) {
	position, err := e.state.GetLP(addr)
	if err != nil {
		return nil, err
	}
	if position == nil {
		position = &LPPosition{Address: addr}
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
	return position, nil
}
