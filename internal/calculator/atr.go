package calculator

import (
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/series"
)

const atrPeriod = 14

// trueRange is max(high-low, |high-prev close|, |low-prev close|). The
// first row has no previous close and falls back to high-low.
func trueRange(s *model.IndicatedSeries) series.Series {
	highs, lows := s.Highs(), s.Lows()
	prevClose := series.Shift(s.Closes(), 1)
	return series.MaxOf(
		series.Sub(highs, lows),
		series.Abs(series.Sub(highs, prevClose)),
		series.Abs(series.Sub(lows, prevClose)),
	)
}

// AddATR computes ATR(14) as a simple rolling mean of true range, and ATR as
// a percentage of close.
func AddATR(s *model.IndicatedSeries) {
	s.ATR = series.Mean(trueRange(s), atrPeriod)
	s.ATRPct = series.Scale(series.Div(s.ATR, s.Closes()), 100)
}
