package domain

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

type Side string

const (
	BuyLimit  Side = "BUY_LIMIT"
	SellLimit Side = "SELL_LIMIT"
)

// ParseSide maps the wire name of an order type to a Side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case BuyLimit, SellLimit:
		return Side(s), nil
	default:
		return "", fmt.Errorf("unknown order type %q", s)
	}
}

// OrderStatus is the lifecycle state of an order. An order moves from
// Pending to exactly one terminal state and never transitions again.
type OrderStatus int32

const (
	Pending OrderStatus = iota
	Executed
	Cancelled
	Rejected
)

func (s OrderStatus) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Executed:
		return "EXECUTED"
	case Cancelled:
		return "CANCELLED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Order is a price-limited buy or sell request. Identity fields are
// immutable; the status cell doubles as the order's completion handle:
// Resolve flips it once, Done/Wait let callers observe the terminal
// state asynchronously.
type Order struct {
	ID         string
	ClientID   string
	Instrument *Instrument
	Side       Side
	Volume     float64
	LimitPrice float64
	CreatedAt  time.Time

	status atomic.Int32
	done   chan struct{}
}

func NewOrder(id, clientID string, instrument *Instrument, side Side, volume, limitPrice float64) *Order {
	return &Order{
		ID:         id,
		ClientID:   clientID,
		Instrument: instrument,
		Side:       side,
		Volume:     volume,
		LimitPrice: limitPrice,
		CreatedAt:  time.Now(),
		done:       make(chan struct{}),
	}
}

func (o *Order) Status() OrderStatus {
	return OrderStatus(o.status.Load())
}

// Resolve atomically moves the order from Pending to the given terminal
// status and fires the completion handle. It reports whether this call
// won the transition; later calls are no-ops.
func (o *Order) Resolve(status OrderStatus) bool {
	if status == Pending {
		return false
	}
	if !o.status.CompareAndSwap(int32(Pending), int32(status)) {
		return false
	}
	close(o.done)
	return true
}

// Done is closed once the order reaches a terminal status.
func (o *Order) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the order resolves or the context ends.
func (o *Order) Wait(ctx context.Context) (OrderStatus, error) {
	select {
	case <-o.done:
		return o.Status(), nil
	case <-ctx.Done():
		return o.Status(), ctx.Err()
	}
}

// Expired reports whether the order has outlived its time-to-live.
func (o *Order) Expired(now time.Time, ttl time.Duration) bool {
	return now.After(o.CreatedAt.Add(ttl))
}

// CanExecute applies the limit-price test: a buy fills when the market
// is at or below the limit, a sell when at or above it.
func (o *Order) CanExecute(currentPrice float64) bool {
	if o.Side == BuyLimit {
		return currentPrice <= o.LimitPrice
	}
	return currentPrice >= o.LimitPrice
}

func (o *Order) String() string {
	return fmt.Sprintf("Order[%s, client=%s, %s, %s, vol=%.2f, limit=%.2f, status=%s]",
		o.ID, o.ClientID, o.Instrument.ID, o.Side, o.Volume, o.LimitPrice, o.Status())
}
