// Package model mirrors the JSON contracts exposed by the trading bot backend.
// All values are owned by the backend; the dashboard only holds transient
// copies that are replaced on every successful poll.
package model

import (
	"fmt"
	"strings"
)

// TradingMode selects between live trading and backtesting on the backend.
type TradingMode string

const (
	ModeTrading  TradingMode = "TRADING"  // live market
	ModeTraining TradingMode = "TRAINING" // backtest over historical bars
)

// Label returns the human readable name used by the control panel.
func (m TradingMode) Label() string {
	switch m {
	case ModeTrading:
		return "LIVE TRADING"
	case ModeTraining:
		return "BACKTEST (Training)"
	default:
		return string(m)
	}
}

// ParseTradingMode accepts the wire values as well as the LIVE/BACKTEST aliases.
func ParseTradingMode(s string) (TradingMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRADING", "LIVE":
		return ModeTrading, nil
	case "TRAINING", "BACKTEST":
		return ModeTraining, nil
	}
	return "", fmt.Errorf("unknown trading mode %q", s)
}

// BotStatus is the lifecycle state reported by the backend.
type BotStatus string

const (
	StatusRunning BotStatus = "RUNNING"
	StatusPaused  BotStatus = "PAUSED"
	StatusIdle    BotStatus = "IDLE"
)

// BotConfig is both the status payload and the body of a config update.
type BotConfig struct {
	SelectedSymbol string      `json:"selectedSymbol"`
	TradingMode    TradingMode `json:"tradingMode"`
	Status         BotStatus   `json:"status"`
}

// IsRunning reports whether configuration edits must be refused.
func (c BotConfig) IsRunning() bool {
	return c.Status == StatusRunning
}

// IsTraining reports whether the bot is in backtest mode.
func (c BotConfig) IsTraining() bool {
	return c.TradingMode == ModeTraining
}
