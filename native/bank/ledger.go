package bank

import (
	"errors"
	"math/big"
	"sync"

	"synthpool/native/synth"
)

var (
	ErrInvalidAmount       = errors.New("bank: amount must be positive")
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
)

// Ledger is an in-process reserve token: a plain balance map with exact
// transfer semantics. The daemon wires it as the pool's reserve asset; an
// embedding platform substitutes its own implementation of the same surface.
type Ledger struct {
	mu       sync.RWMutex
	symbol   string
	balances map[synth.Address]*big.Int
	supply   *big.Int
}

// NewLedger constructs an empty reserve ledger for the given symbol.
func NewLedger(symbol string) *Ledger {
	return &Ledger{
		symbol:   symbol,
		balances: make(map[synth.Address]*big.Int),
		supply:   big.NewInt(0),
	}
}

// Symbol returns the reserve asset symbol.
func (l *Ledger) Symbol() string {
	return l.symbol
}

// Mint credits freshly issued reserve units to an account.
func (l *Ledger) Mint(addr synth.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	current, ok := l.balances[addr]
	if !ok {
		current = big.NewInt(0)
	}
	l.balances[addr] = new(big.Int).Add(current, amount)
	l.supply = new(big.Int).Add(l.supply, amount)
	return nil
}

// Transfer moves the exact amount between accounts.
func (l *Ledger) Transfer(from, to synth.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	current, ok := l.balances[from]
	if !ok || current.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.balances[from] = new(big.Int).Sub(current, amount)
	if l.balances[from].Sign() == 0 {
		delete(l.balances, from)
	}
	dest, ok := l.balances[to]
	if !ok {
		dest = big.NewInt(0)
	}
	l.balances[to] = new(big.Int).Add(dest, amount)
	return nil
}

// BalanceOf returns a copy of the account balance.
func (l *Ledger) BalanceOf(addr synth.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	current, ok := l.balances[addr]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(current)
}

// TotalSupply returns a copy of the minted supply.
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.supply)
}
