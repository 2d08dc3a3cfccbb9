// Package sim advances instrument prices with a discrete drift-diffusion
// process (Euler-Maruyama step).
package sim

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/adancov/trading-venue/internal/domain"
)

// PriceSimulator draws one standard-normal sample per step and applies
//
//	newPrice = price + drift*dt + volatility*sqrt(dt)*eps
//
// clamped to domain.MinPrice so prices stay strictly positive.
type PriceSimulator struct {
	mu  sync.Mutex
	rng *rand.Rand
	dt  float64
}

// New creates a simulator for the given step interval in seconds.
func New(dt float64) *PriceSimulator {
	return NewWithSource(dt, rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource creates a simulator with a caller-supplied source, for
// deterministic runs.
func NewWithSource(dt float64, src rand.Source) *PriceSimulator {
	return &PriceSimulator{rng: rand.New(src), dt: dt}
}

// Step advances one instrument's price by a single process step.
func (s *PriceSimulator) Step(inst *domain.Instrument) {
	s.mu.Lock()
	eps := s.rng.NormFloat64()
	s.mu.Unlock()

	price := inst.Price() + inst.Drift*s.dt + inst.Volatility*math.Sqrt(s.dt)*eps
	if price < domain.MinPrice {
		price = domain.MinPrice
	}
	inst.SetPrice(price)
}

// StepAll advances every instrument in the set.
func (s *PriceSimulator) StepAll(instruments map[string]*domain.Instrument) {
	for _, inst := range instruments {
		s.Step(inst)
	}
}
