package view

import (
	"botdash/internal/model"
	"botdash/internal/synchronizer"
)

// Empty-state messages.
const (
	MsgAwaitingData = "Awaiting data synchronization..."
	MsgNoTrades     = "No trades recorded for this session."
	MsgNoEquity     = "Run a backtest first to generate historical data."
	MsgNoMarket     = "No market data cached. Run a backtest or check API connection."
)

// Dashboard is everything a renderer needs for one frame.
type Dashboard struct {
	Loading bool `json:"loading"`
	// Ready is false until both config and secondary data have arrived.
	Ready bool `json:"ready"`

	Title     string            `json:"title"`
	Symbol    string            `json:"symbol"`
	Mode      model.TradingMode `json:"mode"`
	ModeLabel string            `json:"modeLabel"`
	Status    model.BotStatus   `json:"status"`
	Running   bool              `json:"running"`
	CanReset  bool              `json:"canReset"`

	Interval      model.Interval `json:"interval"`
	IntervalLabel string         `json:"intervalLabel"`
	// MarketIntervalLabel names the interval Market was fetched at, which
	// lags Interval until the next cycle after a change.
	MarketIntervalLabel string `json:"marketIntervalLabel"`

	Cards      []Card       `json:"cards"`
	Trades     []TradeRow   `json:"trades"`
	TradeCount int          `json:"tradeCount"`
	Equity     EquitySeries `json:"equity"`
	Market     []PricePoint `json:"market"`

	LastUpdated string `json:"lastUpdated"`
	// LastError is diagnostic only: served by the state API, never rendered.
	LastError string `json:"lastError,omitempty"`
}

func Build(snap synchronizer.Snapshot) Dashboard {
	d := Dashboard{
		Loading:       snap.Loading,
		Ready:         snap.HasConfig && snap.HasData && snap.Config.SelectedSymbol != "",
		Interval:      snap.Interval,
		IntervalLabel: snap.Interval.Label(),

		MarketIntervalLabel: snap.Interval.Label(),
		LastError:           snap.LastError,
		LastUpdated:         "never",
	}
	if !snap.LastUpdated.IsZero() {
		d.LastUpdated = FormatTimestamp(model.NewTimestamp(snap.LastUpdated))
	}

	if snap.HasConfig {
		cfg := snap.Config
		d.Symbol = cfg.SelectedSymbol
		d.Mode = cfg.TradingMode
		d.ModeLabel = cfg.TradingMode.Label()
		d.Status = cfg.Status
		d.Running = cfg.IsRunning()
		d.CanReset = cfg.IsTraining()
		d.Title = string(cfg.TradingMode) + " Simulation Dashboard"
	}

	if snap.HasData {
		d.Cards = SummaryCards(snap.Summary, snap.Holdings)
		d.Trades = TradeRows(snap.Trades)
		d.TradeCount = len(snap.Trades)
		d.Equity = EquityCurve(snap.Performance)
		d.Market = MarketSeries(snap.Market)
		if snap.MarketInterval != "" {
			d.MarketIntervalLabel = snap.MarketInterval.Label()
		}
	}
	return d
}
