package domain

import (
	"fmt"
	"sync"
)

// MinPrice is the floor every simulated price is clamped to.
const MinPrice = 1.0

// Instrument is a tradeable symbol. Identity and risk parameters are
// fixed at startup; only the current price mutates during a run.
type Instrument struct {
	ID           string
	MaxLiquidity float64
	Volatility   float64 // sigma
	Drift        float64 // mu

	mu    sync.RWMutex
	price float64
}

func NewInstrument(id string, initialPrice, maxLiquidity, volatility, drift float64) *Instrument {
	return &Instrument{
		ID:           id,
		MaxLiquidity: maxLiquidity,
		Volatility:   volatility,
		Drift:        drift,
		price:        initialPrice,
	}
}

func (i *Instrument) Price() float64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.price
}

func (i *Instrument) SetPrice(p float64) {
	i.mu.Lock()
	i.price = p
	i.mu.Unlock()
}

func (i *Instrument) String() string {
	return fmt.Sprintf("Instrument[%s, price=%.2f, maxLiq=%.2f]", i.ID, i.Price(), i.MaxLiquidity)
}
