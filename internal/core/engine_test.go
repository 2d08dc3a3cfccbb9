package core

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adancov/trading-venue/internal/adapter/in_memory"
	"github.com/adancov/trading-venue/internal/domain"
	"github.com/adancov/trading-venue/internal/metrics"
)

func newTestEngine(instruments ...*domain.Instrument) (*Engine, *in_memory.MemoryLedger) {
	set := make(map[string]*domain.Instrument, len(instruments))
	for _, inst := range instruments {
		set[inst.ID] = inst
	}
	ledger := in_memory.NewMemoryLedger()
	e := NewEngine(zap.NewNop(), set, ledger, metrics.New("venue_test"), decimal.NewFromFloat(0.005))
	return e, ledger
}

func TestSubmitAdmissionScenario(t *testing.T) {
	ctx := context.Background()
	inst := domain.NewInstrument("X", 50, 100, 2, 0.1)
	e, ledger := newTestEngine(inst)

	a := domain.NewOrder(e.NextOrderID(), "C1", inst, domain.BuyLimit, 40, 55)
	require.Equal(t, domain.Pending, e.Submit(ctx, a))
	assert.Equal(t, 60.0, e.Liquidity().Available("X"))
	assert.Len(t, e.PendingOrders(), 1)

	// 70 > 60 remaining: rejected synchronously, handle already fired.
	b := domain.NewOrder(e.NextOrderID(), "C2", inst, domain.SellLimit, 70, 45)
	require.Equal(t, domain.Rejected, e.Submit(ctx, b))
	status, err := b.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Rejected, status)
	assert.Equal(t, 60.0, e.Liquidity().Available("X"))
	assert.Len(t, e.PendingOrders(), 1, "rejected order never enters the queue")

	// Price reaches the buy limit; the sweep executes A at market.
	inst.SetPrice(52)
	e.Execute(ctx, a)
	e.RemoveFromPending(a)

	assert.Equal(t, domain.Executed, a.Status())
	assert.True(t, e.CommissionPerInstrument()["X"].Equal(decimal.NewFromFloat(10.4)),
		"commission = 52*40*0.005")
	assert.True(t, e.PnLPerInstrument()["X"].Equal(decimal.NewFromInt(2080)),
		"buy-side P&L = +52*40")
	// Executed volume is retired from the budget, not restored.
	assert.Equal(t, 60.0, e.Liquidity().Available("X"))

	records := ledger.Orders()
	require.Len(t, records, 2)
	assert.Equal(t, "ACCEPTED", records[0].Decision)
	assert.Contains(t, records[1].Decision, "REJECTED")
	require.Len(t, ledger.Executions(), 1)
	assert.Equal(t, 52.0, ledger.Executions()[0].Price)
}

func TestSellSidePnLIsNegative(t *testing.T) {
	ctx := context.Background()
	inst := domain.NewInstrument("X", 50, 1000, 2, 0.1)
	e, _ := newTestEngine(inst)

	o := domain.NewOrder(e.NextOrderID(), "C1", inst, domain.SellLimit, 10, 45)
	require.Equal(t, domain.Pending, e.Submit(ctx, o))

	e.Execute(ctx, o)

	assert.True(t, e.PnLPerInstrument()["X"].Equal(decimal.NewFromInt(-500)),
		"sell-side P&L = -50*10")
	assert.True(t, e.CommissionPerInstrument()["X"].Equal(decimal.NewFromFloat(2.5)))
}

func TestCancelReleasesReservedVolume(t *testing.T) {
	ctx := context.Background()
	inst := domain.NewInstrument("X", 50, 100, 2, 0.1)
	e, ledger := newTestEngine(inst)

	o := domain.NewOrder(e.NextOrderID(), "C1", inst, domain.BuyLimit, 30, 40)
	require.Equal(t, domain.Pending, e.Submit(ctx, o))
	assert.Equal(t, 70.0, e.Liquidity().Available("X"))

	e.Cancel(ctx, o, "expired")
	assert.Equal(t, domain.Cancelled, o.Status())
	assert.Equal(t, 100.0, e.Liquidity().Available("X"))

	// A losing second cancel must not release again.
	e.Cancel(ctx, o, "expired")
	assert.Equal(t, 100.0, e.Liquidity().Available("X"))
	assert.Len(t, ledger.Cancellations(), 1)
}

func TestExecuteCancelRace(t *testing.T) {
	ctx := context.Background()
	inst := domain.NewInstrument("X", 50, 100, 2, 0.1)
	e, ledger := newTestEngine(inst)

	o := domain.NewOrder(e.NextOrderID(), "C1", inst, domain.BuyLimit, 30, 60)
	require.Equal(t, domain.Pending, e.Submit(ctx, o))

	e.Execute(ctx, o)
	e.Cancel(ctx, o, "expired")

	// The execute won; the cancel was a no-op, so nothing was released
	// and no cancellation was recorded.
	assert.Equal(t, domain.Executed, o.Status())
	assert.Equal(t, 70.0, e.Liquidity().Available("X"))
	assert.Len(t, ledger.Executions(), 1)
	assert.Empty(t, ledger.Cancellations())
}

func TestPendingOrdersIsASnapshot(t *testing.T) {
	ctx := context.Background()
	inst := domain.NewInstrument("X", 50, 10000, 2, 0.1)
	e, _ := newTestEngine(inst)

	for i := 0; i < 5; i++ {
		o := domain.NewOrder(e.NextOrderID(), "C1", inst, domain.BuyLimit, 10, 40)
		require.Equal(t, domain.Pending, e.Submit(ctx, o))
	}

	snap := e.PendingOrders()
	require.Len(t, snap, 5)

	// Mutating the registry does not disturb the copy.
	e.RemoveFromPending(snap[0])
	e.RemoveFromPending(snap[0]) // idempotent
	assert.Len(t, snap, 5)
	assert.Len(t, e.PendingOrders(), 4)
}

func TestNextOrderIDMonotonic(t *testing.T) {
	inst := domain.NewInstrument("X", 50, 100, 2, 0.1)
	e, _ := newTestEngine(inst)

	assert.Equal(t, "ORD-1", e.NextOrderID())
	assert.Equal(t, "ORD-2", e.NextOrderID())
}

func TestOrderLookup(t *testing.T) {
	ctx := context.Background()
	inst := domain.NewInstrument("X", 50, 100, 2, 0.1)
	e, _ := newTestEngine(inst)

	o := domain.NewOrder(e.NextOrderID(), "C1", inst, domain.BuyLimit, 10, 40)
	e.Submit(ctx, o)

	got, ok := e.Order(o.ID)
	require.True(t, ok)
	assert.Same(t, o, got)

	_, ok = e.Order("ORD-999")
	assert.False(t, ok)
}

func TestConcurrentSubmitsRespectBudget(t *testing.T) {
	ctx := context.Background()
	inst := domain.NewInstrument("X", 50, 500, 2, 0.1)
	e, _ := newTestEngine(inst)

	done := make(chan domain.OrderStatus, 100)
	for i := 0; i < 100; i++ {
		go func() {
			o := domain.NewOrder(e.NextOrderID(), "C1", inst, domain.BuyLimit, 10, 40)
			done <- e.Submit(ctx, o)
		}()
	}

	accepted := 0
	for i := 0; i < 100; i++ {
		if <-done == domain.Pending {
			accepted++
		}
	}
	assert.Equal(t, 50, accepted, "500 capacity / 10 volume")
	assert.Equal(t, 0.0, e.Liquidity().Available("X"))
	require.NoError(t, e.Liquidity().CheckIntegrity(e.Instruments()))
}
