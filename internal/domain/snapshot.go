package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LiquidityLevel is one instrument's capacity reading at audit time.
type LiquidityLevel struct {
	Available float64 `json:"available"`
	Max       float64 `json:"max"`
}

// PendingOrder is the audit-visible view of a queued order.
type PendingOrder struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	Instrument string    `json:"instrument"`
	Side       Side      `json:"side"`
	Volume     float64   `json:"volume"`
	LimitPrice float64   `json:"limit_price"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditSnapshot is the per-cycle state emitted by the audit service:
// prices, capacity, running commission and P&L, and the queue.
type AuditSnapshot struct {
	ID              string                     `json:"id"`
	Timestamp       time.Time                  `json:"timestamp"`
	Prices          map[string]float64         `json:"prices"`
	Liquidity       map[string]LiquidityLevel  `json:"liquidity"`
	Commission      map[string]decimal.Decimal `json:"commission"`
	PnL             map[string]decimal.Decimal `json:"pnl"`
	TotalCommission decimal.Decimal            `json:"total_commission"`
	TotalPnL        decimal.Decimal            `json:"total_pnl"`
	NetProfit       decimal.Decimal            `json:"net_profit"`
	Executed        int                        `json:"executed"`
	Cancelled       int                        `json:"cancelled"`
	Pending         []PendingOrder             `json:"pending"`
	IntegrityOK     bool                       `json:"integrity_ok"`
}
