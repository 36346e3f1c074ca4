package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTradingMode(t *testing.T) {
	tests := []struct {
		in      string
		want    TradingMode
		wantErr bool
	}{
		{in: "TRADING", want: ModeTrading},
		{in: "live", want: ModeTrading},
		{in: " training ", want: ModeTraining},
		{in: "BACKTEST", want: ModeTraining},
		{in: "paper", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTradingMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBotConfigDecode(t *testing.T) {
	var cfg BotConfig
	err := json.Unmarshal([]byte(`{"selectedSymbol":"ETHUSDT","tradingMode":"TRAINING","status":"RUNNING"}`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", cfg.SelectedSymbol)
	assert.True(t, cfg.IsRunning())
	assert.True(t, cfg.IsTraining())
	assert.Equal(t, "BACKTEST (Training)", cfg.TradingMode.Label())
}

func TestDecimalFieldsAcceptStringsAndNumbers(t *testing.T) {
	var summary AccountSummary
	err := json.Unmarshal([]byte(`{
		"currentBalance": "1000.10",
		"currentPortfolioValue": 1234.5678,
		"initialCapital": "1000",
		"totalProfitLoss": -0.1
	}`), &summary)
	require.NoError(t, err)

	assert.True(t, summary.CurrentBalance.Equal(decimal.RequireFromString("1000.10")))
	assert.True(t, summary.CurrentPortfolioValue.Equal(decimal.RequireFromString("1234.5678")))
	assert.True(t, summary.TotalProfitLoss.Equal(decimal.RequireFromString("-0.1")))
}

func TestTradeDecode(t *testing.T) {
	var trades []Trade
	err := json.Unmarshal([]byte(`[{
		"id": 7,
		"timestamp": "2024-03-01T10:15:30",
		"symbol": "BTCUSDT",
		"action": "SELL",
		"quantity": "0.015",
		"price": "64000.5",
		"fee": "0.96",
		"profitLoss": "12.3",
		"finalBalance": "1012.3",
		"strategyName": "RSI"
	}]`), &trades)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	tr := trades[0]
	assert.Equal(t, int64(7), tr.ID)
	assert.Equal(t, ActionSell, tr.Action)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 15, 30, 0, time.Local), tr.Timestamp.Time)
	assert.Equal(t, "0.015", tr.Quantity.String())
}

func TestTimestampForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "local date time", raw: `"2024-01-01T12:00:00"`, want: time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)},
		{name: "fractional seconds", raw: `"2024-01-01T12:00:00.250"`, want: time.Date(2024, 1, 1, 12, 0, 0, 250_000_000, time.Local)},
		{name: "minutes only", raw: `"2024-01-01T12:00"`, want: time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)},
		{name: "rfc3339", raw: `"2024-01-01T12:00:00Z"`, want: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{name: "epoch millis", raw: `1704110400000`, want: time.UnixMilli(1704110400000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v want %v", ts.Time, tt.want)
		})
	}
}

func TestTimestampNullAndInvalid(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))

	out, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestParseInterval(t *testing.T) {
	iv, err := ParseInterval("4h")
	require.NoError(t, err)
	assert.Equal(t, Interval4h, iv)

	iv, err = ParseInterval("1M")
	require.NoError(t, err)
	assert.Equal(t, Interval1M, iv)

	_, err = ParseInterval("7m")
	assert.Error(t, err)
}

func TestIntervalNextCyclesPanel(t *testing.T) {
	iv := Interval1m
	seen := []Interval{iv}
	for range len(PanelIntervals) {
		iv = iv.Next()
		seen = append(seen, iv)
	}
	assert.Equal(t, []Interval{Interval1m, Interval5m, Interval1h, Interval4h, Interval1d, Interval1m}, seen)
	assert.Equal(t, Interval1m, Interval15m.Next())
	assert.Equal(t, "1 Hour", Interval1h.Label())
	assert.Equal(t, "15m", Interval15m.Label())
}
