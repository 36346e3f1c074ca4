package view

import (
	"fmt"

	"botdash/internal/model"

	"github.com/shopspring/decimal"
)

type Card struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Unit        string `json:"unit"`
	Tone        Tone   `json:"tone"`
	Description string `json:"description"`
}

// HoldingSummary describes the single position shown on the summary cards.
type HoldingSummary struct {
	Symbol   string
	Quantity string
	// Open is true when the quantity is positive at display precision.
	Open bool
}

// CurrentHolding returns the first holding, or USDT / 0.00 when there is none.
func CurrentHolding(holdings []model.Holding) HoldingSummary {
	if len(holdings) == 0 {
		return HoldingSummary{Symbol: "USDT", Quantity: "0.00"}
	}
	h := holdings[0]
	return HoldingSummary{
		Symbol:   h.Symbol,
		Quantity: FormatQuantity(h.Quantity),
		Open:     h.Quantity.Round(5).GreaterThan(decimal.Zero),
	}
}

// SummaryCards builds the four headline cards: equity, realized PnL, cash
// and current holdings.
func SummaryCards(summary model.AccountSummary, holdings []model.Holding) []Card {
	pnl := FormatPnL(summary.TotalProfitLoss)
	holding := CurrentHolding(holdings)

	cards := []Card{
		{
			Title:       "Total Portfolio Equity",
			Value:       FormatCurrency(summary.CurrentPortfolioValue),
			Unit:        "USD",
			Tone:        ToneAccent,
			Description: "Initial Capital: $" + FormatCurrency(summary.InitialCapital),
		},
		{
			Title:       "Total Realized PnL",
			Value:       pnl.Text,
			Unit:        "USD",
			Tone:        pnl.Tone,
			Description: "Net profit/loss since inception (after fees).",
		},
		{
			Title:       "Available Cash Balance",
			Value:       FormatCurrency(summary.CurrentBalance),
			Unit:        "USDT",
			Tone:        ToneNeutral,
			Description: "Cash available for new BUY trades.",
		},
	}

	last := Card{Title: fmt.Sprintf("Current Holdings (%s)", holding.Symbol)}
	if holding.Open {
		last.Value = holding.Quantity
		last.Unit = holding.Symbol
		last.Tone = ToneHighlight
		last.Description = "Avg Buy Price: $" + FormatCurrency(holdings[0].AvgBuyPrice)
	} else {
		last.Value = FormatCurrency(summary.CurrentBalance)
		last.Unit = "USDT"
		last.Tone = ToneMuted
		last.Description = "No open position (100% cash)."
	}
	return append(cards, last)
}
