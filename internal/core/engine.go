// Package core implements the admission-liquidity-sweep engine: orders
// are admitted against a per-instrument capacity budget, queued, and
// resolved by the periodic audit sweep.
package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adancov/trading-venue/internal/domain"
	"github.com/adancov/trading-venue/internal/metrics"
	"github.com/adancov/trading-venue/internal/port"
)

// Engine owns the pending-order registry, the liquidity gate, and the
// running commission/P&L accounts. Submissions may arrive concurrently
// from many connections; resolution happens on the audit sweep.
type Engine struct {
	log       *zap.Logger
	liquidity *LiquidityManager
	ledger    port.Ledger
	metrics   *metrics.Metrics
	rate      decimal.Decimal

	instruments map[string]*domain.Instrument

	idSeq atomic.Int64

	mu         sync.Mutex
	pending    map[string]*domain.Order
	orders     []*domain.Order
	commission map[string]decimal.Decimal
	pnl        map[string]decimal.Decimal
}

func NewEngine(
	log *zap.Logger,
	instruments map[string]*domain.Instrument,
	ledger port.Ledger,
	m *metrics.Metrics,
	commissionRate decimal.Decimal,
) *Engine {
	e := &Engine{
		log:         log,
		liquidity:   NewLiquidityManager(),
		ledger:      ledger,
		metrics:     m,
		rate:        commissionRate,
		instruments: instruments,
		pending:     make(map[string]*domain.Order),
		commission:  make(map[string]decimal.Decimal),
		pnl:         make(map[string]decimal.Decimal),
	}
	for id, inst := range instruments {
		e.liquidity.Init(id, inst.MaxLiquidity)
		e.commission[id] = decimal.Zero
		e.pnl[id] = decimal.Zero
	}
	return e
}

// NextOrderID issues a process-unique order id.
func (e *Engine) NextOrderID() string {
	return fmt.Sprintf("ORD-%d", e.idSeq.Add(1))
}

// Submit decides admission synchronously: it reserves capacity and
// queues the order, or rejects it on the spot. Execution is deferred
// entirely to the sweep; callers observe the final status through the
// order's completion handle.
func (e *Engine) Submit(ctx context.Context, o *domain.Order) domain.OrderStatus {
	if !e.liquidity.Reserve(o.Instrument.ID, o.Volume) {
		o.Resolve(domain.Rejected)
		e.mu.Lock()
		e.orders = append(e.orders, o)
		e.mu.Unlock()
		if err := e.ledger.RecordOrder(ctx, o, "REJECTED (insufficient liquidity)"); err != nil {
			e.log.Warn("ledger write failed", zap.String("order", o.ID), zap.Error(err))
		}
		e.metrics.OrdersSubmitted.WithLabelValues(o.Instrument.ID, "rejected").Inc()
		e.log.Info("order rejected",
			zap.String("order", o.ID),
			zap.String("instrument", o.Instrument.ID),
			zap.Float64("volume", o.Volume))
		return domain.Rejected
	}

	e.mu.Lock()
	e.pending[o.ID] = o
	e.orders = append(e.orders, o)
	pendingCount := len(e.pending)
	e.mu.Unlock()

	if err := e.ledger.RecordOrder(ctx, o, "ACCEPTED"); err != nil {
		e.log.Warn("ledger write failed", zap.String("order", o.ID), zap.Error(err))
	}
	e.metrics.OrdersSubmitted.WithLabelValues(o.Instrument.ID, "accepted").Inc()
	e.metrics.PendingOrders.Set(float64(pendingCount))
	e.log.Info("order accepted",
		zap.String("order", o.ID),
		zap.String("instrument", o.Instrument.ID),
		zap.String("side", string(o.Side)),
		zap.Float64("volume", o.Volume),
		zap.Float64("limit", o.LimitPrice))
	return domain.Pending
}

// PendingOrders returns a point-in-time copy of the queue. The sweep
// iterates the copy while submissions keep mutating the live registry.
func (e *Engine) PendingOrders() []*domain.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*domain.Order, 0, len(e.pending))
	for _, o := range e.pending {
		out = append(out, o)
	}
	return out
}

// RemoveFromPending drops a resolved order from the queue. Removing an
// absent order is a no-op.
func (e *Engine) RemoveFromPending(o *domain.Order) {
	e.mu.Lock()
	delete(e.pending, o.ID)
	e.metrics.PendingOrders.Set(float64(len(e.pending)))
	e.mu.Unlock()
}

// Execute fills the order at the instrument's current price and books
// commission and P&L. Only the caller that wins the resolve applies
// side effects; a lost race is a no-op.
func (e *Engine) Execute(ctx context.Context, o *domain.Order) {
	if !o.Resolve(domain.Executed) {
		return
	}
	price := o.Instrument.Price()
	ex := domain.NewExecution(o, price, e.rate)

	e.mu.Lock()
	id := o.Instrument.ID
	e.commission[id] = e.commission[id].Add(ex.Commission)
	e.pnl[id] = e.pnl[id].Add(ex.PnL)
	e.mu.Unlock()

	// Reserved volume is retired, not released: executed volume stays
	// out of the budget for the remainder of the run.
	if err := e.ledger.RecordExecution(ctx, ex); err != nil {
		e.log.Warn("ledger write failed", zap.String("order", o.ID), zap.Error(err))
	}
	e.metrics.Executions.WithLabelValues(id).Inc()
	e.log.Info("order executed",
		zap.String("order", o.ID),
		zap.String("instrument", id),
		zap.Float64("price", price),
		zap.String("commission", ex.Commission.StringFixed(2)))
}

// Cancel expires the order and returns its reserved volume to the
// budget. A lost resolve race is a no-op.
func (e *Engine) Cancel(ctx context.Context, o *domain.Order, reason string) {
	if !o.Resolve(domain.Cancelled) {
		return
	}
	e.liquidity.Release(o.Instrument.ID, o.Volume)

	if err := e.ledger.RecordCancellation(ctx, o, reason); err != nil {
		e.log.Warn("ledger write failed", zap.String("order", o.ID), zap.Error(err))
	}
	e.metrics.Cancellations.WithLabelValues(o.Instrument.ID).Inc()
	e.log.Info("order cancelled",
		zap.String("order", o.ID),
		zap.String("instrument", o.Instrument.ID),
		zap.String("reason", reason))
}

// CommissionPerInstrument snapshots the running commission accounts.
func (e *Engine) CommissionPerInstrument() map[string]decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(e.commission))
	for id, v := range e.commission {
		out[id] = v
	}
	return out
}

// PnLPerInstrument snapshots the running P&L accounts.
func (e *Engine) PnLPerInstrument() map[string]decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(e.pnl))
	for id, v := range e.pnl {
		out[id] = v
	}
	return out
}

// Orders returns the full admission trail, terminal orders included.
func (e *Engine) Orders() []*domain.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*domain.Order, len(e.orders))
	copy(out, e.orders)
	return out
}

// Order looks up any order ever submitted, by id.
func (e *Engine) Order(id string) (*domain.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, o := range e.orders {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// Instrument resolves a configured instrument by id.
func (e *Engine) Instrument(id string) (*domain.Instrument, bool) {
	inst, ok := e.instruments[id]
	return inst, ok
}

// Instruments returns the configured instrument set. The map is built
// at startup and never mutated afterwards.
func (e *Engine) Instruments() map[string]*domain.Instrument {
	return e.instruments
}

func (e *Engine) Liquidity() *LiquidityManager {
	return e.liquidity
}
