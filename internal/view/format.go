// Package view maps snapshot data to display values. Everything here is a
// pure function of its input.
package view

import (
	"strings"

	"botdash/internal/model"

	"github.com/shopspring/decimal"
)

// Tone is the semantic colour of a displayed value. Renderers map it to
// CSS classes or terminal styles.
type Tone string

const (
	ToneNeutral   Tone = "neutral"
	TonePositive  Tone = "positive"
	ToneNegative  Tone = "negative"
	ToneAccent    Tone = "accent"
	ToneMuted     Tone = "muted"
	ToneHighlight Tone = "highlight"
)

// PnL is a formatted profit/loss value.
type PnL struct {
	Text string `json:"text"`
	Tone Tone   `json:"tone"`
}

// FormatCurrency renders d with en-US thousands separators and exactly two
// decimals, rounding half away from zero. No currency symbol is added.
func FormatCurrency(d decimal.Decimal) string {
	s := d.StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	return sign + groupThousands(intPart) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatPnL renders d with two decimals and no grouping. The tone follows
// the sign of the rounded value, so anything shown as 0.00 is neutral.
func FormatPnL(d decimal.Decimal) PnL {
	rounded := d.Round(2)
	p := PnL{Text: rounded.StringFixed(2), Tone: ToneNeutral}
	switch rounded.Sign() {
	case 1:
		p.Tone = TonePositive
	case -1:
		p.Tone = ToneNegative
	}
	return p
}

// FormatQuantity renders an asset quantity with five decimals.
func FormatQuantity(d decimal.Decimal) string {
	return d.StringFixed(5)
}

// FormatTimestamp renders ts in local time, e.g. "Mar 1, 2024 10:00:00".
func FormatTimestamp(ts model.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("Jan 2, 2006 15:04:05")
}

// FormatClock renders the time of day used on chart axes.
func FormatClock(ts model.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format("15:04")
}
