// Package tui is the terminal dashboard. It renders the same view-state as
// the web dashboard and issues commands through the dispatcher.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"botdash/internal/common"
	"botdash/internal/control"
	"botdash/internal/model"
	"botdash/internal/synchronizer"
	"botdash/internal/view"
)

// Source is the part of the synchronizer the terminal dashboard needs.
type Source interface {
	Snapshot() synchronizer.Snapshot
	SetInterval(iv model.Interval) error
}

// Model is the Bubble Tea model for the terminal dashboard.
type Model struct {
	ctx        context.Context
	source     Source
	updates    <-chan synchronizer.Snapshot
	dispatcher *control.Dispatcher
	symbols    []string

	snap  synchronizer.Snapshot
	dash  view.Dashboard
	draft control.Draft

	trades          table.Model
	notice          control.Notice
	confirmingReset bool
	busy            bool
	width           int
}

// NewModel creates a Model fed by updates. symbols are the choices cycled
// by the symbol key.
func NewModel(ctx context.Context, source Source, updates <-chan synchronizer.Snapshot, d *control.Dispatcher, symbols []string) Model {
	m := Model{
		ctx:        ctx,
		source:     source,
		updates:    updates,
		dispatcher: d,
		symbols:    symbols,
		trades:     NewTradeTable(),
		width:      100,
	}
	m = m.applySnapshot(source.Snapshot())
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func waitForSnapshot(updates <-chan synchronizer.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.trades.SetWidth(msg.Width)
		return m, nil

	case SnapshotMsg:
		m = m.applySnapshot(msg.Snapshot)
		return m, waitForSnapshot(m.updates)

	case CommandResultMsg:
		m.busy = false
		m.notice = msg.Notice
		if errors.Is(msg.Err, control.ErrResetDeclined) {
			m.notice = control.Notice{Level: control.LevelWarning, Message: "Reset cancelled."}
		}
		return m, nil

	case updatesClosedMsg:
		return m, nil
	}

	var cmd tea.Cmd
	m.trades, cmd = m.trades.Update(msg)
	return m, cmd
}

func (m Model) applySnapshot(snap synchronizer.Snapshot) Model {
	m.snap = snap
	m.dash = view.Build(snap)
	if snap.HasConfig {
		if m.draft.Symbol == "" {
			m.draft.Symbol = snap.Config.SelectedSymbol
		}
		if m.draft.Mode == "" {
			m.draft.Mode = snap.Config.TradingMode
		}
	}
	if !m.canReset() {
		m.confirmingReset = false
	}
	m.trades.SetRows(tradeTableRows(m.dash.Trades))
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirmingReset {
		switch key {
		case "y", "Y":
			m.confirmingReset = false
			return m.dispatch(func(d *control.Dispatcher) error {
				return d.Reset(m.ctx, control.Confirmed(true))
			})
		case "n", "N", "esc":
			m.confirmingReset = false
			return m.dispatch(func(d *control.Dispatcher) error {
				return d.Reset(m.ctx, control.Confirmed(false))
			})
		}
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit

	case "i":
		next := m.snap.Interval.Next()
		if err := m.source.SetInterval(next); err != nil {
			m.notice = control.Notice{Level: control.LevelError, Message: err.Error()}
			return m, nil
		}
		m.snap.Interval = next
		m.dash.IntervalLabel = next.Label()
		return m, nil

	case "y":
		if m.editable() && len(m.symbols) > 0 {
			i := slices.Index(m.symbols, m.draft.Symbol)
			m.draft.Symbol = m.symbols[(i+1)%len(m.symbols)]
		}
		return m, nil

	case "m":
		if m.editable() {
			if m.draft.Mode == model.ModeTrading {
				m.draft.Mode = model.ModeTraining
			} else {
				m.draft.Mode = model.ModeTrading
			}
		}
		return m, nil

	case "a":
		if !m.snap.HasConfig {
			return m, nil
		}
		current, draft := m.snap.Config, m.draft
		return m.dispatch(func(d *control.Dispatcher) error {
			return d.UpdateConfig(m.ctx, current, draft)
		})

	case "s", " ":
		if !m.snap.HasConfig {
			return m, nil
		}
		current, iv := m.snap.Config, m.snap.Interval
		return m.dispatch(func(d *control.Dispatcher) error {
			return d.Toggle(m.ctx, current, iv)
		})

	case "r":
		if m.canReset() {
			m.confirmingReset = true
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trades, cmd = m.trades.Update(msg)
	return m, cmd
}

// editable reports whether the config draft may be changed.
func (m Model) editable() bool {
	return m.snap.HasConfig && !m.dash.Running
}

// canReset reports whether backtest data may be reset now.
func (m Model) canReset() bool {
	return m.dash.CanReset && !m.dash.Running
}

// dispatch runs fn off the UI goroutine and reports its notice.
func (m Model) dispatch(fn func(d *control.Dispatcher) error) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	d := m.dispatcher
	return m, func() tea.Msg {
		rec := &control.Recorder{}
		err := fn(d.WithNotifier(rec))
		return CommandResultMsg{Notice: rec.Last, Err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder
	d := m.dash

	title := d.Title
	if title == "" {
		title = "Trading Bot Dashboard"
	}
	s.WriteString(TitleStyle.Render(title))
	s.WriteString("\n\n")

	switch {
	case d.Loading:
		s.WriteString("Loading...\n")
	case !d.Ready:
		s.WriteString(view.MsgAwaitingData + "\n")
	default:
		m.writeBody(&s)
	}

	if m.notice.Message != "" {
		s.WriteString(noticeStyle(m.notice.Level).Render(m.notice.Message))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.confirmingReset {
		s.WriteString(ErrorStyle.Render(common.MsgResetPrompt + " (y/n)"))
	} else {
		s.WriteString(HelpStyle.Render(m.help()))
	}
	return s.String()
}

func (m Model) writeBody(s *strings.Builder) {
	d := m.dash

	status := ToneStyle(view.ToneMuted)
	if d.Running {
		status = ToneStyle(view.TonePositive)
	}
	fmt.Fprintf(s, "%s %s   %s %s   %s %s   %s %s\n",
		LabelStyle.Render("Symbol:"), d.Symbol,
		LabelStyle.Render("Mode:"), d.ModeLabel,
		LabelStyle.Render("Status:"), status.Render(string(d.Status)),
		LabelStyle.Render("Interval:"), d.IntervalLabel)
	fmt.Fprintf(s, "%s %s / %s   %s %s\n\n",
		LabelStyle.Render("Draft:"), m.draft.Symbol, m.draft.Mode.Label(),
		LabelStyle.Render("Updated:"), d.LastUpdated)

	cards := make([]string, 0, len(d.Cards))
	for _, c := range d.Cards {
		cards = append(cards, CardStyle.Render(
			LabelStyle.Render(c.Title)+"\n"+
				ToneStyle(c.Tone).Bold(true).Render(c.Value+" "+c.Unit)+"\n"+
				LabelStyle.Render(c.Description)))
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	s.WriteString("\n\n")

	width := max(m.width-4, 10)

	s.WriteString(TitleStyle.Render(fmt.Sprintf("Market Price Context (%s)", d.MarketIntervalLabel)))
	s.WriteString("\n")
	if len(d.Market) == 0 {
		s.WriteString(view.MsgNoMarket)
	} else {
		s.WriteString(view.Sparkline(view.PriceValues(d.Market), width))
	}
	s.WriteString("\n\n")

	s.WriteString(TitleStyle.Render("Portfolio Equity Curve"))
	s.WriteString("\n")
	if len(d.Equity.Points) == 0 {
		s.WriteString(view.MsgNoEquity)
	} else {
		s.WriteString(ToneStyle(d.Equity.Tone).Render(view.Sparkline(d.Equity.Values(), width)))
	}
	s.WriteString("\n\n")

	s.WriteString(TitleStyle.Render(fmt.Sprintf("Trade History (%d Trades)", d.TradeCount)))
	s.WriteString("\n")
	if len(d.Trades) == 0 {
		s.WriteString(view.MsgNoTrades)
	} else {
		s.WriteString(m.trades.View())
	}
	s.WriteString("\n")
}

func (m Model) help() string {
	toggle := "start"
	if m.dash.Running {
		toggle = "stop"
	}
	parts := []string{"s: " + toggle, "i: interval"}
	if m.editable() {
		parts = append(parts, "y: symbol", "m: mode", "a: apply")
	}
	if m.canReset() {
		parts = append(parts, "r: reset")
	}
	parts = append(parts, "q: quit")
	return strings.Join(parts, " | ")
}
