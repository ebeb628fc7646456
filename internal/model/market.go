package model

import "time"

// Interval is a candle bucket size.
type Interval string

const (
	Interval1h Interval = "1h"
	Interval4h Interval = "4h"
	Interval1d Interval = "1d"
)

// Valid reports whether the interval is one the pipeline supports.
func (i Interval) Valid() bool {
	switch i {
	case Interval1h, Interval4h, Interval1d:
		return true
	}
	return false
}

// Duration returns the wall-clock length of one candle.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1h:
		return time.Hour
	case Interval4h:
		return 4 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"timestamp"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds raw candles for one symbol, ascending by time.
type PriceSeries struct {
	Symbol    string
	Interval  Interval
	Candles   []OHLCV
	FetchedAt time.Time
}

// Len returns the number of candles.
func (p PriceSeries) Len() int { return len(p.Candles) }

// Asset is display metadata for a tracked symbol.
type Asset struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Pair   string `json:"pair" yaml:"pair"`
	Name   string `json:"name" yaml:"name"`
	Icon   string `json:"icon" yaml:"icon"`
}
