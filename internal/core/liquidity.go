package core

import (
	"fmt"
	"sync"

	"github.com/adancov/trading-venue/internal/domain"
)

// LiquidityManager tracks the per-instrument processing budget. Both
// order sides reserve capacity at admission; cancellation returns it,
// execution retires it for the rest of the run.
type LiquidityManager struct {
	mu    sync.RWMutex
	pools map[string]*liquidityPool
}

type liquidityPool struct {
	mu        sync.Mutex
	available float64
	max       float64
}

func NewLiquidityManager() *LiquidityManager {
	return &LiquidityManager{pools: make(map[string]*liquidityPool)}
}

// Init registers an instrument with its full budget available. Called
// once per instrument before traffic starts.
func (l *LiquidityManager) Init(instrumentID string, maxCapacity float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pools[instrumentID] = &liquidityPool{available: maxCapacity, max: maxCapacity}
}

func (l *LiquidityManager) pool(instrumentID string) *liquidityPool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pools[instrumentID]
}

// Reserve atomically claims volume from the instrument's budget. It
// fails without side effect when the instrument is unknown or the
// remaining capacity is insufficient. Reservations against different
// instruments do not contend.
func (l *LiquidityManager) Reserve(instrumentID string, volume float64) bool {
	p := l.pool(instrumentID)
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.available < volume {
		return false
	}
	p.available -= volume
	return true
}

// Release returns volume to the instrument's budget. An unknown
// instrument is a no-op: it signals a configuration bug upstream, not
// a condition the caller can act on.
func (l *LiquidityManager) Release(instrumentID string, volume float64) {
	p := l.pool(instrumentID)
	if p == nil {
		return
	}
	p.mu.Lock()
	p.available += volume
	p.mu.Unlock()
}

// Available returns the instrument's current unreserved capacity.
func (l *LiquidityManager) Available(instrumentID string) float64 {
	p := l.pool(instrumentID)
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// CheckIntegrity verifies 0 <= available <= max for every instrument.
// A non-nil error names the first offender. This is a safety net over
// reserve/release bookkeeping, not an enforcement mechanism.
func (l *LiquidityManager) CheckIntegrity(instruments map[string]*domain.Instrument) error {
	for id, inst := range instruments {
		p := l.pool(id)
		if p == nil {
			return fmt.Errorf("liquidity: instrument %s has no pool", id)
		}
		p.mu.Lock()
		available := p.available
		p.mu.Unlock()
		if available < 0 {
			return fmt.Errorf("liquidity: instrument %s has negative capacity %.2f", id, available)
		}
		if available > inst.MaxLiquidity {
			return fmt.Errorf("liquidity: instrument %s has capacity %.2f > max %.2f",
				id, available, inst.MaxLiquidity)
		}
	}
	return nil
}
