package view

import (
	"slices"

	"botdash/internal/model"
)

type TradeRow struct {
	ID           int64  `json:"id"`
	Time         string `json:"time"`
	Symbol       string `json:"symbol"`
	Action       string `json:"action"`
	ActionTone   Tone   `json:"actionTone"`
	Quantity     string `json:"quantity"`
	Price        string `json:"price"`
	Fee          string `json:"fee"`
	PnL          PnL    `json:"pnl"`
	FinalBalance string `json:"finalBalance"`
	Strategy     string `json:"strategy"`
}

// SortTradesDesc returns a copy of trades, newest first. Ties keep their
// input order and trades without a timestamp go last.
func SortTradesDesc(trades []model.Trade) []model.Trade {
	out := slices.Clone(trades)
	slices.SortStableFunc(out, func(a, b model.Trade) int {
		switch {
		case a.Timestamp.IsZero() && b.Timestamp.IsZero():
			return 0
		case a.Timestamp.IsZero():
			return 1
		case b.Timestamp.IsZero():
			return -1
		}
		return b.Timestamp.Compare(a.Timestamp.Time)
	})
	return out
}

func TradeRows(trades []model.Trade) []TradeRow {
	sorted := SortTradesDesc(trades)
	rows := make([]TradeRow, 0, len(sorted))
	for _, t := range sorted {
		tone := ToneNegative
		if t.Action == model.ActionBuy {
			tone = TonePositive
		}
		rows = append(rows, TradeRow{
			ID:           t.ID,
			Time:         FormatTimestamp(t.Timestamp),
			Symbol:       t.Symbol,
			Action:       string(t.Action),
			ActionTone:   tone,
			Quantity:     FormatQuantity(t.Quantity),
			Price:        "$" + FormatCurrency(t.Price),
			Fee:          FormatCurrency(t.Fee),
			PnL:          FormatPnL(t.ProfitLoss),
			FinalBalance: "$" + FormatCurrency(t.FinalBalance),
			Strategy:     t.StrategyName,
		})
	}
	return rows
}
