package model

import "fmt"

// Interval is a kline interval code understood by the backend.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval3d  Interval = "3d"
	Interval1w  Interval = "1w"
	Interval1M  Interval = "1M"
)

// DefaultInterval is the chart interval selected on first launch.
const DefaultInterval = Interval1h

var backendIntervals = []Interval{
	Interval1m, Interval3m, Interval5m, Interval15m, Interval30m,
	Interval1h, Interval2h, Interval4h, Interval6h, Interval12h,
	Interval1d, Interval3d, Interval1w, Interval1M,
}

// PanelIntervals are the choices offered by the control panel, in display order.
var PanelIntervals = []Interval{Interval1m, Interval5m, Interval1h, Interval4h, Interval1d}

var intervalLabels = map[Interval]string{
	Interval1m: "1 Minute",
	Interval5m: "5 Minutes",
	Interval1h: "1 Hour",
	Interval4h: "4 Hours",
	Interval1d: "1 Day",
}

// ParseInterval validates s against every interval the backend accepts.
// Codes are case sensitive: "1m" is one minute, "1M" one month.
func ParseInterval(s string) (Interval, error) {
	for _, iv := range backendIntervals {
		if string(iv) == s {
			return iv, nil
		}
	}
	return "", fmt.Errorf("invalid kline interval %q", s)
}

// Label returns the panel label, falling back to the raw code.
func (iv Interval) Label() string {
	if l, ok := intervalLabels[iv]; ok {
		return l
	}
	return string(iv)
}

// Next cycles through PanelIntervals. Intervals outside the panel wrap to the first entry.
func (iv Interval) Next() Interval {
	for i, p := range PanelIntervals {
		if p == iv {
			return PanelIntervals[(i+1)%len(PanelIntervals)]
		}
	}
	return PanelIntervals[0]
}
