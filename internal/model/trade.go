package model

import "github.com/shopspring/decimal"

// TradeAction is the side of an executed trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// Trade is an immutable record from the backend's append-only trade log.
type Trade struct {
	ID           int64           `json:"id"`
	Timestamp    Timestamp       `json:"timestamp"`
	Symbol       string          `json:"symbol"`
	Action       TradeAction     `json:"action"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Fee          decimal.Decimal `json:"fee"`
	ProfitLoss   decimal.Decimal `json:"profitLoss"`
	FinalBalance decimal.Decimal `json:"finalBalance"`
	StrategyName string          `json:"strategyName"`
}
