package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Execution records a filled order for the executions ledger.
type Execution struct {
	ID           string
	OrderID      string
	ClientID     string
	InstrumentID string
	Side         Side
	Volume       float64
	Price        float64
	Commission   decimal.Decimal
	PnL          decimal.Decimal
	ExecutedAt   time.Time
}

// NewExecution captures an order filled at the given market price.
// Commission is price*volume*rate; P&L is the venue-side cash impact,
// positive when the venue sells to a buying client.
func NewExecution(o *Order, price float64, commissionRate decimal.Decimal) *Execution {
	value := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(o.Volume))
	pnl := value
	if o.Side == SellLimit {
		pnl = value.Neg()
	}
	return &Execution{
		ID:           uuid.NewString(),
		OrderID:      o.ID,
		ClientID:     o.ClientID,
		InstrumentID: o.Instrument.ID,
		Side:         o.Side,
		Volume:       o.Volume,
		Price:        price,
		Commission:   value.Mul(commissionRate),
		PnL:          pnl,
		ExecutedAt:   time.Now(),
	}
}

func (e *Execution) String() string {
	return fmt.Sprintf("%s | Order: %s | %s | %s | Vol: %.2f | Price: %.2f | Commission: %s",
		e.ExecutedAt.Format(time.DateTime), e.OrderID, e.InstrumentID, e.Side,
		e.Volume, e.Price, e.Commission.StringFixed(2))
}
