package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubmitOrderRequest struct {
	ClientID   string  `json:"client_id" binding:"required"`
	Instrument string  `json:"instrument" binding:"required"`
	Type       string  `json:"type" binding:"required"`
	Volume     float64 `json:"volume" binding:"required,gt=0"`
	LimitPrice float64 `json:"limit_price" binding:"required,gt=0"`
	// Wait blocks the request until the order resolves (in-process
	// observation of the completion handle).
	Wait bool `json:"wait,omitempty"`
}

type SubmitOrderResponse struct {
	OrderID string `json:"order_id,omitempty"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

type Order struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	Instrument string    `json:"instrument"`
	Side       string    `json:"side"`
	Volume     float64   `json:"volume"`
	LimitPrice float64   `json:"limit_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type Instrument struct {
	ID           string  `json:"id"`
	Price        float64 `json:"price"`
	MaxLiquidity float64 `json:"max_liquidity"`
	Volatility   float64 `json:"volatility"`
	Drift        float64 `json:"drift"`
}

type Liquidity struct {
	Instrument string  `json:"instrument"`
	Available  float64 `json:"available"`
	Max        float64 `json:"max"`
}

type Profit struct {
	Commission      map[string]decimal.Decimal `json:"commission"`
	PnL             map[string]decimal.Decimal `json:"pnl"`
	TotalCommission decimal.Decimal            `json:"total_commission"`
	TotalPnL        decimal.Decimal            `json:"total_pnl"`
	NetProfit       decimal.Decimal            `json:"net_profit"`
}
