package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botdash/internal/control"
	"botdash/internal/model"
	"botdash/internal/synchronizer"
)

type fakeSource struct {
	snap      synchronizer.Snapshot
	intervals []model.Interval
}

func (f *fakeSource) Snapshot() synchronizer.Snapshot { return f.snap }

func (f *fakeSource) SetInterval(iv model.Interval) error {
	f.intervals = append(f.intervals, iv)
	return nil
}

type call struct {
	name string
	cfg  model.BotConfig
	iv   model.Interval
}

type fakeCommander struct {
	calls []call
	err   error
}

func (f *fakeCommander) UpdateConfig(ctx context.Context, cfg model.BotConfig) error {
	f.calls = append(f.calls, call{name: "config", cfg: cfg})
	return f.err
}

func (f *fakeCommander) Start(ctx context.Context, iv model.Interval) error {
	f.calls = append(f.calls, call{name: "start", iv: iv})
	return f.err
}

func (f *fakeCommander) Stop(ctx context.Context) error {
	f.calls = append(f.calls, call{name: "stop"})
	return f.err
}

func (f *fakeCommander) Reset(ctx context.Context) error {
	f.calls = append(f.calls, call{name: "reset"})
	return f.err
}

func snapshot(status model.BotStatus) synchronizer.Snapshot {
	return synchronizer.Snapshot{
		Interval:  model.Interval1h,
		HasConfig: true,
		Config: model.BotConfig{
			SelectedSymbol: "BTCUSDT",
			TradingMode:    model.ModeTraining,
			Status:         status,
		},
		HasData: true,
		Summary: model.AccountSummary{
			CurrentBalance:        decimal.NewFromInt(10000),
			CurrentPortfolioValue: decimal.NewFromInt(10000),
			InitialCapital:        decimal.NewFromInt(10000),
		},
	}
}

func newTestModel(snap synchronizer.Snapshot) (Model, *fakeSource, *fakeCommander) {
	src := &fakeSource{snap: snap}
	cmd := &fakeCommander{}
	updates := make(chan synchronizer.Snapshot, 1)
	m := NewModel(context.Background(), src, updates, control.NewDispatcher(cmd, nil), []string{"BTCUSDT", "ETHUSDT"})
	return m, src, cmd
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes a command and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestNewModelTakesCurrentSnapshot(t *testing.T) {
	m, _, _ := newTestModel(snapshot(model.StatusIdle))

	assert.True(t, m.dash.Ready)
	assert.Equal(t, "BTCUSDT", m.draft.Symbol)
	assert.Equal(t, model.ModeTraining, m.draft.Mode)
	assert.Contains(t, m.View(), "TRAINING Simulation Dashboard")
}

func TestSnapshotMsgUpdatesView(t *testing.T) {
	m, _, _ := newTestModel(synchronizer.Snapshot{Loading: true, Interval: model.Interval1h})
	assert.Contains(t, m.View(), "Loading...")

	next, cmd := m.Update(SnapshotMsg{Snapshot: snapshot(model.StatusRunning)})
	m = next.(Model)
	assert.NotNil(t, cmd, "should keep listening for snapshots")

	view := m.View()
	assert.Contains(t, view, "RUNNING")
	assert.Contains(t, view, "Total Portfolio Equity")
	assert.Contains(t, view, "No trades recorded for this session.")
	assert.Contains(t, view, "s: stop")
	assert.NotContains(t, view, "a: apply")
}

func TestToggleStartsIdleBot(t *testing.T) {
	m, _, cmd := newTestModel(snapshot(model.StatusIdle))

	m, c := press(t, m, "s")
	assert.True(t, m.busy)
	m = run(t, m, c)

	require.Len(t, cmd.calls, 1)
	assert.Equal(t, call{name: "start", iv: model.Interval1h}, cmd.calls[0])
	assert.False(t, m.busy)
	assert.Equal(t, control.LevelSuccess, m.notice.Level)
	assert.Contains(t, m.View(), "Bot starting in TRAINING mode...")
}

func TestToggleIgnoredWhileBusy(t *testing.T) {
	m, _, _ := newTestModel(snapshot(model.StatusIdle))

	m, first := press(t, m, "s")
	require.NotNil(t, first)
	_, second := press(t, m, "s")
	assert.Nil(t, second)
}

func TestDraftEditingAndApply(t *testing.T) {
	m, _, cmd := newTestModel(snapshot(model.StatusIdle))

	m, _ = press(t, m, "y")
	m, _ = press(t, m, "m")
	assert.Equal(t, "ETHUSDT", m.draft.Symbol)
	assert.Equal(t, model.ModeTrading, m.draft.Mode)

	m, c := press(t, m, "a")
	m = run(t, m, c)

	require.Len(t, cmd.calls, 1)
	assert.Equal(t, model.BotConfig{SelectedSymbol: "ETHUSDT", TradingMode: model.ModeTrading, Status: model.StatusIdle}, cmd.calls[0].cfg)
	assert.Equal(t, "Configuration updated successfully! New Mode: TRADING", m.notice.Message)
}

func TestDraftLockedWhileRunning(t *testing.T) {
	m, _, cmd := newTestModel(snapshot(model.StatusRunning))

	m, _ = press(t, m, "y")
	assert.Equal(t, "BTCUSDT", m.draft.Symbol)

	m, c := press(t, m, "a")
	m = run(t, m, c)
	assert.Empty(t, cmd.calls)
	assert.Equal(t, control.LevelWarning, m.notice.Level)
}

func TestIntervalKeyCyclesPanelIntervals(t *testing.T) {
	m, src, _ := newTestModel(snapshot(model.StatusIdle))

	m, _ = press(t, m, "i")
	m, _ = press(t, m, "i")
	assert.Equal(t, []model.Interval{model.Interval4h, model.Interval1d}, src.intervals)
	assert.Contains(t, m.View(), "1 Day")
}

func TestResetRequiresConfirmation(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		wantCalls int
		wantMsg   string
	}{
		{"confirmed", "y", 1, "Backtest data reset"},
		{"declined", "n", 0, "Reset cancelled."},
		{"escaped", "esc", 0, "Reset cancelled."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, cmd := newTestModel(snapshot(model.StatusIdle))

			m, c := press(t, m, "r")
			assert.Nil(t, c)
			assert.True(t, m.confirmingReset)
			assert.Contains(t, m.View(), "(y/n)")

			m, c = press(t, m, tt.answer)
			assert.False(t, m.confirmingReset)
			m = run(t, m, c)

			assert.Len(t, cmd.calls, tt.wantCalls)
			assert.Contains(t, m.notice.Message, tt.wantMsg)
		})
	}
}

func TestResetUnavailableInLiveMode(t *testing.T) {
	snap := snapshot(model.StatusIdle)
	snap.Config.TradingMode = model.ModeTrading
	m, _, _ := newTestModel(snap)

	m, _ = press(t, m, "r")
	assert.False(t, m.confirmingReset)
	assert.False(t, strings.Contains(m.View(), "r: reset"))
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(snapshot(model.StatusIdle))

	_, c := press(t, m, "q")
	require.NotNil(t, c)
	assert.Equal(t, tea.Quit(), c())
}

func TestResetUnavailableWhileRunning(t *testing.T) {
	m, _, _ := newTestModel(snapshot(model.StatusRunning))

	m, _ = press(t, m, "r")
	assert.False(t, m.confirmingReset)
}

// unreachableBackend fails every request the way a refused dial does.
type unreachableBackend struct{}

var errRefused = errors.New("dial tcp 127.0.0.1:8080: connect: connection refused")

func (unreachableBackend) Status(context.Context) (model.BotConfig, error) {
	return model.BotConfig{}, errRefused
}
func (unreachableBackend) Summary(context.Context) (model.AccountSummary, error) {
	return model.AccountSummary{}, errRefused
}
func (unreachableBackend) TradeHistory(context.Context) ([]model.Trade, error) {
	return nil, errRefused
}
func (unreachableBackend) Holdings(context.Context) ([]model.Holding, error) {
	return nil, errRefused
}
func (unreachableBackend) Performance(context.Context) ([]model.AccountSnapshot, error) {
	return nil, errRefused
}
func (unreachableBackend) MarketChart(context.Context, model.Interval) ([]model.MarketBar, error) {
	return nil, errRefused
}

func TestStatusFailureIsNotShown(t *testing.T) {
	syncer := synchronizer.New(unreachableBackend{}, model.Interval1h, time.Hour)
	require.Error(t, syncer.PollOnce(context.Background()))
	require.NotEmpty(t, syncer.Snapshot().LastError)

	m := NewModel(context.Background(), syncer, make(chan synchronizer.Snapshot), control.NewDispatcher(&fakeCommander{}, nil), []string{"BTCUSDT"})
	view := m.View()

	assert.Contains(t, view, "Awaiting data synchronization...")
	assert.NotContains(t, view, "connection refused")
	assert.NotContains(t, strings.ToLower(view), "error")
}
