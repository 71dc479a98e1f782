package synth

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

// memState is the in-memory EngineState used across the engine tests. Records
// are cloned on the way in and out so forgotten Put calls surface as test
// failures.
type memState struct {
	pool       *Pool
	cycles     map[uint64]*Cycle
	positions  map[Address]*Position
	requests   map[Address]*Request
	lps        map[Address]*LPPosition
	lpRequests map[Address]*Request
}

func newMemState() *memState {
	return &memState{
		cycles:     make(map[uint64]*Cycle),
		positions:  make(map[Address]*Position),
		requests:   make(map[Address]*Request),
		lps:        make(map[Address]*LPPosition),
		lpRequests: make(map[Address]*Request),
	}
}

func (m *memState) GetPool() (*Pool, error)  { return m.pool.Clone(), nil }
func (m *memState) PutPool(pool *Pool) error { m.pool = pool.Clone(); return nil }
func (m *memState) GetCycle(i uint64) (*Cycle, error) {
	return m.cycles[i].Clone(), nil
}
func (m *memState) PutCycle(cycle *Cycle) error {
	m.cycles[cycle.Index] = cycle.Clone()
	return nil
}
func (m *memState) GetPosition(addr Address) (*Position, error) {
	return m.positions[addr].Clone(), nil
}
func (m *memState) PutPosition(position *Position) error {
	m.positions[position.Address] = position.Clone()
	return nil
}
func (m *memState) GetRequest(addr Address) (*Request, error) {
	return m.requests[addr].Clone(), nil
}
func (m *memState) PutRequest(addr Address, req *Request) error {
	m.requests[addr] = req.Clone()
	return nil
}
func (m *memState) DeleteRequest(addr Address) error {
	delete(m.requests, addr)
	return nil
}
func (m *memState) GetLP(addr Address) (*LPPosition, error) {
	return m.lps[addr].Clone(), nil
}
func (m *memState) PutLP(position *LPPosition) error {
	m.lps[position.Address] = position.Clone()
	return nil
}
func (m *memState) DeleteLP(addr Address) error {
	delete(m.lps, addr)
	return nil
}
func (m *memState) GetLPRequest(addr Address) (*Request, error) {
	return m.lpRequests[addr].Clone(), nil
}
func (m *memState) PutLPRequest(addr Address, req *Request) error {
	m.lpRequests[addr] = req.Clone()
	return nil
}
func (m *memState) DeleteLPRequest(addr Address) error {
	delete(m.lpRequests, addr)
	return nil
}

type stubOracle struct {
	price    *big.Int
	open     bool
	updated  int64
	split    bool
	preSplit *big.Int
	num, den uint64
}

func (o *stubOracle) CurrentPrice() (*big.Int, error) {
	if o.price == nil {
		return nil, errors.New("stub oracle: no price")
	}
	return new(big.Int).Set(o.price), nil
}
func (o *stubOracle) IsMarketOpen() bool      { return o.open }
func (o *stubOracle) LastUpdate() time.Time   { return time.Unix(o.updated, 0) }
func (o *stubOracle) SplitDetected() bool     { return o.split }
func (o *stubOracle) PreSplitPrice() *big.Int { return o.preSplit }
func (o *stubOracle) VerifySplit(num, den uint64) bool {
	return o.split && o.num == num && o.den == den
}

// testLedger is a bare reserve balance map.
type testLedger struct {
	balances map[Address]*big.Int
}

func newTestLedger() *testLedger {
	return &testLedger{balances: make(map[Address]*big.Int)}
}

func (l *testLedger) Mint(addr Address, amount int64) {
	current, ok := l.balances[addr]
	if !ok {
		current = big.NewInt(0)
	}
	l.balances[addr] = new(big.Int).Add(current, big.NewInt(amount))
}

func (l *testLedger) MintBig(addr Address, amount *big.Int) {
	current, ok := l.balances[addr]
	if !ok {
		current = big.NewInt(0)
	}
	l.balances[addr] = new(big.Int).Add(current, amount)
}

func (l *testLedger) Transfer(from, to Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("test ledger: negative amount")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	current, ok := l.balances[from]
	if !ok || current.Cmp(amount) < 0 {
		return errors.New("test ledger: insufficient balance")
	}
	l.balances[from] = new(big.Int).Sub(current, amount)
	dest, ok := l.balances[to]
	if !ok {
		dest = big.NewInt(0)
	}
	l.balances[to] = new(big.Int).Add(dest, amount)
	return nil
}

func (l *testLedger) BalanceOf(addr Address) *big.Int {
	current, ok := l.balances[addr]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(current)
}

type testEnv struct {
	t       *testing.T
	engine  *Engine
	state   *memState
	oracle  *stubOracle
	reserve *testLedger
	now     int64
	params  Params
}

func addr(b byte) Address {
	var a Address
	a[19] = b
	return a
}

var (
	admin  = addr(0xAA)
	price2 = big.NewInt(2_000_000_000_000_000_000) // 2 reserve per synthetic
)

// zeroRatePolicy keeps claims bit-exact by disabling interest entirely.
func zeroRatePolicy() Policy {
	return Policy{
		Curve:               InterestCurve{Tier1Bps: 4_000, Tier2Bps: 8_000},
		HealthyRatioBps:     5_000,
		LiquidationRatioBps: 2_000,
	}
}

func newTestEnv(t *testing.T, policy Policy) *testEnv {
	t.Helper()
	env := &testEnv{
		t:       t,
		state:   newMemState(),
		reserve: newTestLedger(),
		now:     1_000_000,
		params:  DefaultParams(),
	}
	env.oracle = &stubOracle{price: new(big.Int).Set(price2), open: true, updated: env.now}

	engine, err := NewPool(PoolConfig{
		ID:     "tsla-usd",
		Asset:  "sTSLA",
		Params: env.params,
		Policy: policy,
	}, env.state, env.oracle, env.reserve, nil, admin)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	engine.SetNowFunc(func() int64 { return env.now })
	env.engine = engine
	// Genesis stamped the wall clock before the test clock was installed;
	// anchor the test clock on it.
	cycle, err := engine.CycleInfo(0)
	if err != nil {
		t.Fatalf("cycle info: %v", err)
	}
	env.now = cycle.StartedAt
	env.oracle.updated = env.now
	return env
}

func (env *testEnv) fund(a Address, amount int64) {
	env.reserve.Mint(a, amount)
}

// runCycle drives the full state machine once: elapse the cycle, fix the
// settlement price and have every active LP settle at it.
func (env *testEnv) runCycle(price *big.Int) {
	env.t.Helper()
	env.now += env.params.CycleLength
	env.oracle.open = true
	if err := env.engine.InitiateOffchainRebalance(); err != nil {
		env.t.Fatalf("offchain: %v", err)
	}
	env.settleAt(price)
}

// settleAt finishes a cycle that already left the active phase.
func (env *testEnv) settleAt(price *big.Int) {
	env.t.Helper()
	env.now += env.params.RebalanceLength
	env.oracle.open = false
	env.oracle.price = new(big.Int).Set(price)
	env.oracle.updated = env.now
	if err := env.engine.InitiateOnchainRebalance(); err != nil {
		env.t.Fatalf("onchain: %v", err)
	}
	env.settleLPs(price)
	env.oracle.open = true
}

func (env *testEnv) settleLPs(price *big.Int) {
	env.t.Helper()
	pool := env.state.pool
	if pool.Status != PoolRebalancingOnchain {
		return
	}
	for _, lp := range append([]Address(nil), pool.ActiveLPs...) {
		if err := env.engine.RebalancePool(lp, price); err != nil {
			env.t.Fatalf("rebalance %s: %v", lp.Hex(), err)
		}
	}
}

// addLP funds and commits liquidity, settling the cycle that applies it.
func (env *testEnv) addLP(a Address, amount int64) {
	env.t.Helper()
	env.fund(a, amount)
	if err := env.engine.AddLiquidityRequest(a, big.NewInt(amount)); err != nil {
		env.t.Fatalf("add liquidity: %v", err)
	}
	env.runCycle(env.oracle.price)
}

func (env *testEnv) balance(a Address) int64 {
	return env.reserve.BalanceOf(a).Int64()
}

func (env *testEnv) pool() *Pool {
	env.t.Helper()
	pool, err := env.engine.PoolInfo()
	if err != nil {
		env.t.Fatalf("pool info: %v", err)
	}
	return pool
}

func (env *testEnv) position(a Address) *Position {
	env.t.Helper()
	position, err := env.engine.PositionOf(a)
	if err != nil {
		env.t.Fatalf("position: %v", err)
	}
	return position
}

func TestGenesisSeedsPoolAndCycleZero(t *testing.T) {
	env := newTestEnv(t, zeroRatePolicy())

	pool := env.pool()
	if pool.Status != PoolActive {
		t.Fatalf("expected active pool, got %s", pool.Status)
	}
	if pool.CycleIndex != 0 {
		t.Fatalf("expected cycle zero, got %d", pool.CycleIndex)
	}
	if pool.LastPrice.Cmp(price2) != 0 {
		t.Fatalf("genesis price not seeded: %s", pool.LastPrice)
	}
	if pool.InterestIndex.Cmp(ray) != 0 {
		t.Fatalf("genesis index not ray: %s", pool.InterestIndex)
	}

	cycle, err := env.engine.CycleInfo(0)
	if err != nil {
		t.Fatalf("cycle info: %v", err)
	}
	if cycle.StartedAt != env.now {
		t.Fatalf("cycle start: %d", cycle.StartedAt)
	}
}

func TestGenesisIdempotentAcrossRestart(t *testing.T) {
	env := newTestEnv(t, zeroRatePolicy())
	env.addLP(addr(1), 10_000)

	// Constructing a second engine over the same state must not reset it.
	engine, err := NewPool(PoolConfig{
		ID:     "tsla-usd",
		Asset:  "sTSLA",
		Params: env.params,
		Policy: zeroRatePolicy(),
	}, env.state, env.oracle, env.reserve, nil, admin)
	if err != nil {
		t.Fatalf("reopen pool: %v", err)
	}
	pool, err := engine.PoolInfo()
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if pool.CycleIndex != 1 || pool.TotalCommitted.Int64() != 10_000 {
		t.Fatalf("state reset on reopen: cycle %d committed %s", pool.CycleIndex, pool.TotalCommitted)
	}
}

func TestModuleAccountsAreDistinctPerPool(t *testing.T) {
	a := moduleAccount("tsla-usd", "reserve")
	b := moduleAccount("tsla-usd", "collateral")
	c := moduleAccount("aapl-usd", "reserve")
	if a == b || a == c || b == c {
		t.Fatal("module custody accounts must be distinct")
	}
}
