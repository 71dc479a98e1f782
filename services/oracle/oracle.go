package oracle

import (
	"errors"
	"math/big"
	"sync"
	"time"
)

var errInvalidPrice = errors.New("oracle: price must be positive")

// Manual is a feed that operators (or an external attester process) push
// observations into. Prices are reserve units per synthetic unit scaled by
// 1e18. It satisfies the engine's oracle surface including the corporate
// action flags used for split resolution.
type Manual struct {
	mu         sync.RWMutex
	price      *big.Int
	updatedAt  time.Time
	marketOpen bool

	splitFlagged  bool
	preSplitPrice *big.Int
	splitNum      uint64
	splitDen      uint64

	nowFn func() time.Time
}

// NewManual constructs a feed seeded with the given price.
func NewManual(price *big.Int) (*Manual, error) {
	m := &Manual{nowFn: time.Now}
	if err := m.SetPrice(price); err != nil {
		return nil, err
	}
	return m, nil
}

// SetNowFunc overrides the feed clock for tests.
func (m *Manual) SetNowFunc(now func() time.Time) {
	if now == nil {
		return
	}
	m.mu.Lock()
	m.nowFn = now
	m.mu.Unlock()
}

// SetPrice records a fresh observation.
func (m *Manual) SetPrice(price *big.Int) error {
	if price == nil || price.Sign() <= 0 {
		return errInvalidPrice
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.price = new(big.Int).Set(price)
	m.updatedAt = m.nowFn()
	return nil
}

// SetMarketOpen toggles the market session flag.
func (m *Manual) SetMarketOpen(open bool) {
	m.mu.Lock()
	m.marketOpen = open
	m.mu.Unlock()
}

// FlagSplit marks a detected corporate action: the pre-split price and the
// confirmed ratio the engine must verify against.
func (m *Manual) FlagSplit(preSplitPrice *big.Int, ratioNum, ratioDen uint64) error {
	if preSplitPrice == nil || preSplitPrice.Sign() <= 0 {
		return errInvalidPrice
	}
	if ratioNum == 0 || ratioDen == 0 {
		return errors.New("oracle: split ratio must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.splitFlagged = true
	m.preSplitPrice = new(big.Int).Set(preSplitPrice)
	m.splitNum = ratioNum
	m.splitDen = ratioDen
	return nil
}

// ClearSplit resets the corporate action flags after resolution.
func (m *Manual) ClearSplit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.splitFlagged = false
	m.preSplitPrice = nil
	m.splitNum, m.splitDen = 0, 0
}

func (m *Manual) CurrentPrice() (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.price == nil {
		return nil, errInvalidPrice
	}
	return new(big.Int).Set(m.price), nil
}

func (m *Manual) IsMarketOpen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.marketOpen
}

func (m *Manual) LastUpdate() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updatedAt
}

func (m *Manual) SplitDetected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.splitFlagged
}

func (m *Manual) PreSplitPrice() *big.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.preSplitPrice == nil {
		return nil
	}
	return new(big.Int).Set(m.preSplitPrice)
}

func (m *Manual) VerifySplit(ratioNum, ratioDen uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.splitFlagged && m.splitNum == ratioNum && m.splitDen == ratioDen
}
