package strategy

import (
	"math"

	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/series"
)

// Rule adds Delta to a row's score when When holds for that row.
type Rule struct {
	Name  string
	Delta float64
	When  func(v *view, i int) bool
}

// view is an indicated series with the derived columns the rules share.
type view struct {
	*model.IndicatedSeries
	closes    series.Series
	prevClose series.Series
	widthMean series.Series
}

func newView(s *model.IndicatedSeries) *view {
	closes := s.Closes()
	return &view{
		IndicatedSeries: s,
		closes:          closes,
		prevClose:       series.Shift(closes, 1),
		widthMean:       series.Mean(s.BBWidth, squeezePeriod),
	}
}

const (
	squeezePeriod = 20
	squeezeFactor = 0.5
	fibProximity  = 0.01
)

// Rules is applied in order to every row. Rules are independent and
// additive; tiered thresholds compound, so RSI at 15 collects both the
// below-20 and below-30 deltas.
var Rules = []Rule{
	{"RSI < 20", 2, func(v *view, i int) bool { return below(v.RSI, i, 20) }},
	{"RSI < 30", 1, func(v *view, i int) bool { return below(v.RSI, i, 30) }},
	{"RSI > 80", -2, func(v *view, i int) bool { return above(v.RSI, i, 80) }},
	{"RSI > 70", -1, func(v *view, i int) bool { return above(v.RSI, i, 70) }},

	{"MACD cross up", 2, func(v *view, i int) bool { return crossUp(v.MACD, v.MACDSignal, i) }},
	{"MACD cross down", -2, func(v *view, i int) bool { return crossDown(v.MACD, v.MACDSignal, i) }},
	{"MACD hist > 0", 0.5, func(v *view, i int) bool { return above(v.MACDHist, i, 0) }},
	{"MACD hist < 0", -0.5, func(v *view, i int) bool { return below(v.MACDHist, i, 0) }},

	{"EMA 9/21 golden cross", 2, func(v *view, i int) bool { return crossUp(v.EMA9, v.EMA21, i) }},
	{"EMA 9/21 death cross", -2, func(v *view, i int) bool { return crossDown(v.EMA9, v.EMA21, i) }},
	{"EMA 50 > 200", 1, func(v *view, i int) bool { return greater(v.EMA50, v.EMA200, i) }},
	{"EMA 50 < 200", -1, func(v *view, i int) bool { return greater(v.EMA200, v.EMA50, i) }},

	{"BB %B < 0", 1.5, func(v *view, i int) bool { return below(v.BBPercent, i, 0) }},
	{"BB %B > 1", -1.5, func(v *view, i int) bool { return above(v.BBPercent, i, 1) }},
	{"BB squeeze", 0.5, func(v *view, i int) bool {
		w, okW := v.BBWidth.At(i)
		m, okM := v.widthMean.At(i)
		return okW && okM && w < m*squeezeFactor
	}},

	{"Stochastic cross up < 20", 2, func(v *view, i int) bool {
		return crossUp(v.StochK, v.StochD, i) && below(v.StochK, i, 20)
	}},
	{"Stochastic cross down > 80", -2, func(v *view, i int) bool {
		return crossDown(v.StochK, v.StochD, i) && above(v.StochK, i, 80)
	}},

	{"ADX > 25, +DI > -DI", 1, func(v *view, i int) bool {
		return above(v.ADX, i, 25) && greater(v.PlusDI, v.MinusDI, i)
	}},
	{"ADX > 25, +DI < -DI", -1, func(v *view, i int) bool {
		return above(v.ADX, i, 25) && greater(v.MinusDI, v.PlusDI, i)
	}},

	{"Volume > 1.5x, price up", 1, func(v *view, i int) bool {
		return above(v.VolumeRatio, i, 1.5) && greater(v.closes, v.prevClose, i)
	}},
	{"Volume > 1.5x, price down", -1, func(v *view, i int) bool {
		return above(v.VolumeRatio, i, 1.5) && greater(v.prevClose, v.closes, i)
	}},

	{"Bullish divergence", 2, func(v *view, i int) bool { return divergenceAt(v, i) == model.DivergenceBullish }},
	{"Bearish divergence", -2, func(v *view, i int) bool { return divergenceAt(v, i) == model.DivergenceBearish }},

	{"Near Fib 61.8%", 1, func(v *view, i int) bool { return near(v.closes, v.Fib618, i) }},
	{"Near Fib 38.2%", 0.5, func(v *view, i int) bool { return near(v.closes, v.Fib382, i) }},

	{"Close > R1", 0.5, func(v *view, i int) bool { return greater(v.closes, v.R1, i) }},
	{"Close > R2", 0.5, func(v *view, i int) bool { return greater(v.closes, v.R2, i) }},
	{"Close < S1", -0.5, func(v *view, i int) bool { return greater(v.S1, v.closes, i) }},
	{"Close < S2", -0.5, func(v *view, i int) bool { return greater(v.S2, v.closes, i) }},
}

func above(s series.Series, i int, x float64) bool {
	v, ok := s.At(i)
	return ok && v > x
}

func below(s series.Series, i int, x float64) bool {
	v, ok := s.At(i)
	return ok && v < x
}

// greater reports a[i] > b[i] with both defined.
func greater(a, b series.Series, i int) bool {
	x, okA := a.At(i)
	y, okB := b.At(i)
	return okA && okB && x > y
}

func atMost(a, b series.Series, i int) bool {
	x, okA := a.At(i)
	y, okB := b.At(i)
	return okA && okB && x <= y
}

// crossUp: a was at or below b on the previous row and is above it now.
func crossUp(a, b series.Series, i int) bool {
	return greater(a, b, i) && atMost(a, b, i-1)
}

// crossDown: a was at or above b on the previous row and is below it now.
func crossDown(a, b series.Series, i int) bool {
	return greater(b, a, i) && atMost(b, a, i-1)
}

func near(closes, level series.Series, i int) bool {
	c, okC := closes.At(i)
	l, okL := level.At(i)
	if !okC || !okL || c == 0 {
		return false
	}
	return math.Abs(c-l)/c < fibProximity
}

func divergenceAt(v *view, i int) model.Divergence {
	if i < len(v.Divergence) {
		return v.Divergence[i]
	}
	return model.DivergenceNone
}
