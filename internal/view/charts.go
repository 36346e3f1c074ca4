package view

import (
	"fmt"
	"math"
	"strings"
	"time"

	"botdash/internal/model"
)

type EquityPoint struct {
	Time   time.Time `json:"time"`
	Label  string    `json:"label"`
	Equity float64   `json:"equity"`
	Cash   float64   `json:"cash"`
	Gain   float64   `json:"gain"`
}

// EquitySeries is the equity curve with gain measured from the first
// snapshot's total balance.
type EquitySeries struct {
	Points    []EquityPoint `json:"points"`
	Baseline  float64       `json:"baseline"`
	FinalGain float64       `json:"finalGain"`
	Tone      Tone          `json:"tone"`
}

func (s EquitySeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Equity
	}
	return out
}

// EquityCurve converts snapshots, in the order given, into chart points.
func EquityCurve(snaps []model.AccountSnapshot) EquitySeries {
	if len(snaps) == 0 {
		return EquitySeries{Tone: ToneNeutral}
	}

	baseline := snaps[0].TotalBalance.InexactFloat64()
	series := EquitySeries{
		Points:   make([]EquityPoint, 0, len(snaps)),
		Baseline: baseline,
	}
	for _, s := range snaps {
		equity := s.TotalBalance.InexactFloat64()
		series.Points = append(series.Points, EquityPoint{
			Time:   s.Timestamp.Time,
			Label:  FormatClock(s.Timestamp),
			Equity: equity,
			Cash:   s.CashBalance.InexactFloat64(),
			Gain:   equity - baseline,
		})
	}

	series.FinalGain = series.Points[len(series.Points)-1].Gain
	series.Tone = TonePositive
	if series.FinalGain < 0 {
		series.Tone = ToneNegative
	}
	return series
}

type PricePoint struct {
	Time  time.Time `json:"time"`
	Label string    `json:"label"`
	Price float64   `json:"price"`
}

// MarketSeries maps bars to close-price points.
func MarketSeries(bars []model.MarketBar) []PricePoint {
	out := make([]PricePoint, 0, len(bars))
	for _, b := range bars {
		out = append(out, PricePoint{
			Time:  b.OpenTime.Time,
			Label: FormatClock(b.OpenTime),
			Price: b.ClosePrice.InexactFloat64(),
		})
	}
	return out
}

func PriceValues(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Price
	}
	return out
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values as a single line of block characters at most
// width runes wide. Longer series are downsampled by taking the last value
// of each bucket.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	values = resample(values, width)

	lo, hi := bounds(values)
	var b strings.Builder
	for _, v := range values {
		idx := len(sparkRunes) / 2
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(len(sparkRunes)-1)))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// Polyline returns SVG polyline points scaling values into a w x h box,
// with the maximum at the top edge.
func Polyline(values []float64, w, h float64) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("0.00,%.2f %.2f,%.2f", h/2, w, h/2)
	}

	lo, hi := bounds(values)
	step := w / float64(len(values)-1)
	parts := make([]string, len(values))
	for i, v := range values {
		y := h / 2
		if hi > lo {
			y = h - (v-lo)/(hi-lo)*h
		}
		parts[i] = fmt.Sprintf("%.2f,%.2f", float64(i)*step, y)
	}
	return strings.Join(parts, " ")
}

// BaselineY is the SVG y coordinate of baseline inside the same box
// Polyline would use for values.
func BaselineY(values []float64, baseline, h float64) float64 {
	lo, hi := bounds(values)
	if hi <= lo {
		return h / 2
	}
	y := h - (baseline-lo)/(hi-lo)*h
	return math.Max(0, math.Min(h, y))
}

func resample(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}
	out := make([]float64, width)
	for i := range out {
		end := (i + 1) * len(values) / width
		out[i] = values[end-1]
	}
	return out
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
