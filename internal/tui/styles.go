package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"botdash/internal/control"
	"botdash/internal/view"
)

// Style definitions.
var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))

	HelpStyle = lipgloss.NewStyle().Faint(true)

	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("160"))

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(28)

	LabelStyle = lipgloss.NewStyle().Faint(true)
)

var toneColors = map[view.Tone]lipgloss.Color{
	view.TonePositive:  lipgloss.Color("34"),
	view.ToneNegative:  lipgloss.Color("160"),
	view.ToneAccent:    lipgloss.Color("63"),
	view.ToneMuted:     lipgloss.Color("244"),
	view.ToneHighlight: lipgloss.Color("178"),
}

// ToneStyle maps a semantic tone to a terminal colour.
func ToneStyle(t view.Tone) lipgloss.Style {
	s := lipgloss.NewStyle()
	if c, ok := toneColors[t]; ok {
		s = s.Foreground(c)
	}
	return s
}

func noticeStyle(l control.Level) lipgloss.Style {
	switch l {
	case control.LevelSuccess:
		return ToneStyle(view.TonePositive).Bold(true)
	case control.LevelWarning:
		return ToneStyle(view.ToneHighlight).Bold(true)
	default:
		return ErrorStyle
	}
}

// NewTradeTable creates the trade history table.
func NewTradeTable() table.Model {
	columns := []table.Column{
		{Title: "Date", Width: 22},
		{Title: "Symbol", Width: 10},
		{Title: "Action", Width: 6},
		{Title: "Quantity", Width: 12},
		{Title: "Price", Width: 14},
		{Title: "Fee", Width: 8},
		{Title: "Realized PnL", Width: 12},
		{Title: "Final Balance", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func tradeTableRows(trades []view.TradeRow) []table.Row {
	rows := make([]table.Row, 0, len(trades))
	for _, tr := range trades {
		rows = append(rows, table.Row{
			tr.Time,
			tr.Symbol,
			tr.Action,
			tr.Quantity,
			tr.Price,
			tr.Fee,
			tr.PnL.Text,
			tr.FinalBalance,
		})
	}
	return rows
}
