package model

import "github.com/shopspring/decimal"

// MarketBar is one OHLC candle. Only OpenTime and ClosePrice are charted.
type MarketBar struct {
	ID         int64           `json:"id,omitempty"`
	Symbol     string          `json:"symbol,omitempty"`
	Interval   string          `json:"interval,omitempty"`
	OpenTime   Timestamp       `json:"openTime"`
	OpenPrice  decimal.Decimal `json:"openPrice"`
	HighPrice  decimal.Decimal `json:"highPrice"`
	LowPrice   decimal.Decimal `json:"lowPrice"`
	ClosePrice decimal.Decimal `json:"closePrice"`
	Volume     decimal.Decimal `json:"volume"`
}
