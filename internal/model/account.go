package model

import "github.com/shopspring/decimal"

// AccountSummary is the current account state recomputed by the backend on each request.
type AccountSummary struct {
	CurrentBalance        decimal.Decimal `json:"currentBalance"` // cash, USDT
	CurrentPortfolioValue decimal.Decimal `json:"currentPortfolioValue"`
	InitialCapital        decimal.Decimal `json:"initialCapital"`
	TotalProfitLoss       decimal.Decimal `json:"totalProfitLoss"`
}

// Holding is an open position in one asset.
type Holding struct {
	AccountID   int64           `json:"accountId,omitempty"`
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgBuyPrice decimal.Decimal `json:"avgBuyPrice"`
}

// AccountSnapshot is one point of the equity time series.
type AccountSnapshot struct {
	ID            int64           `json:"id"`
	Timestamp     Timestamp       `json:"timestamp"`
	TotalBalance  decimal.Decimal `json:"totalBalance"`
	CashBalance   decimal.Decimal `json:"cashBalance"`
	CryptoBalance decimal.Decimal `json:"cryptoBalance"`
}
