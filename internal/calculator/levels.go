package calculator

import (
	"math"

	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/series"
)

const fibLookback = 50

// AddFibonacci computes retracement levels from the highest high and lowest
// low of the trailing 50 rows and writes them as constant columns.
func AddFibonacci(s *model.IndicatedSeries) {
	n := s.Len()
	start := n - fibLookback
	if start < 0 {
		start = 0
	}
	high, low := math.Inf(-1), math.Inf(1)
	for _, c := range s.Candles[start:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	diff := high - low
	level := func(ratio float64) series.Series {
		return series.Const(n, high-diff*ratio)
	}

	s.Fib0 = level(0)
	s.Fib236 = level(0.236)
	s.Fib382 = level(0.382)
	s.Fib500 = level(0.5)
	s.Fib618 = level(0.618)
	s.Fib786 = level(0.786)
	s.Fib100 = series.Const(n, low)
}

// AddPivots computes classic floor pivots from the previous candle.
func AddPivots(s *model.IndicatedSeries) {
	h := series.Shift(s.Highs(), 1)
	l := series.Shift(s.Lows(), 1)
	c := series.Shift(s.Closes(), 1)

	pp := series.Scale(series.Add(series.Add(h, l), c), 1.0/3.0)
	rng := series.Sub(h, l)

	s.Pivot = pp
	s.R1 = series.Sub(series.Scale(pp, 2), l)
	s.S1 = series.Sub(series.Scale(pp, 2), h)
	s.R2 = series.Add(pp, rng)
	s.S2 = series.Sub(pp, rng)
	s.R3 = series.Add(h, series.Scale(series.Sub(pp, l), 2))
	s.S3 = series.Sub(l, series.Scale(series.Sub(h, pp), 2))
}
