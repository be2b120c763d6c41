// Package models provides domain models for the backtesting application.
package models

import (
	"fmt"
	"time"
)

// Canonical indicator column names. The engine and strategies look
// indicators up by these keys; producers (CSV annotation, external
// feeds) must use the same names.
const (
	ColumnATR  = "atr"
	ColumnVWAP = "vwap"
)

// SMAColumn returns the indicator column name for a simple moving
// average of the given period.
func SMAColumn(period int) string {
	return fmt.Sprintf("sma_%d", period)
}

// Candlestick pattern flag names.
const (
	PatternHammer           = "hammer"
	PatternShootingStar     = "shooting_star"
	PatternBullishEngulfing = "bullish_engulfing"
	PatternBearishEngulfing = "bearish_engulfing"
	PatternDoji             = "doji"
	PatternJohnWick         = "john_wick"
	PatternPowerTower       = "power_tower"
)

// Bar represents one OHLCV observation for a fixed time interval,
// annotated with precomputed indicator values and pattern flags.
// Bars are immutable after ingestion.
type Bar struct {
	Timestamp  time.Time          `json:"timestamp"`
	Open       float64            `json:"open"`
	High       float64            `json:"high"`
	Low        float64            `json:"low"`
	Close      float64            `json:"close"`
	Volume     int64              `json:"volume"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
	Patterns   map[string]bool    `json:"patterns,omitempty"`
}

// Indicator returns the named indicator value and whether it is present.
func (b Bar) Indicator(name string) (float64, bool) {
	v, ok := b.Indicators[name]
	return v, ok
}

// Pattern reports whether the named candlestick pattern flag is set.
func (b Bar) Pattern(name string) bool {
	return b.Patterns[name]
}

// Bullish reports whether the bar closed above its open.
func (b Bar) Bullish() bool {
	return b.Close > b.Open
}

// Bearish reports whether the bar closed below its open.
func (b Bar) Bearish() bool {
	return b.Close < b.Open
}

// Range returns the high-low extent of the bar.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Series is a time-ordered sequence of bars.
type Series []Bar

// Validate checks the series invariants: strictly increasing timestamps
// and high >= max(open, close) >= min(open, close) >= low on every bar.
func (s Series) Validate() error {
	for i, b := range s {
		hi := b.Open
		lo := b.Open
		if b.Close > hi {
			hi = b.Close
		}
		if b.Close < lo {
			lo = b.Close
		}
		if b.High < hi || b.Low > lo {
			return fmt.Errorf("bar %d (%s): high/low outside open/close range", i, b.Timestamp.Format(time.RFC3339))
		}
		if i > 0 && !s[i-1].Timestamp.Before(b.Timestamp) {
			return fmt.Errorf("bar %d (%s): timestamp not after previous bar", i, b.Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// Between returns the sub-series with timestamps in [start, end]. A zero
// start or end leaves that side unbounded.
func (s Series) Between(start, end time.Time) Series {
	lo := 0
	hi := len(s)
	if !start.IsZero() {
		for lo < len(s) && s[lo].Timestamp.Before(start) {
			lo++
		}
	}
	if !end.IsZero() {
		for hi > lo && s[hi-1].Timestamp.After(end) {
			hi--
		}
	}
	return s[lo:hi]
}
