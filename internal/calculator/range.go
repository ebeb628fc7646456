package calculator

import (
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/series"
)

const (
	stochK = 14
	stochD = 3

	tenkanPeriod  = 9
	kijunPeriod   = 26
	senkouBPeriod = 52
	cloudShift    = 26
)

// midRange is the midpoint of the trailing high/low range over w rows.
func midRange(s *model.IndicatedSeries, w int) series.Series {
	return series.Scale(series.Add(series.Max(s.Highs(), w), series.Min(s.Lows(), w)), 0.5)
}

// AddStochastic computes %K(14) and its 3-period mean %D. A flat range
// leaves %K undefined.
func AddStochastic(s *model.IndicatedSeries) {
	lowMin := series.Min(s.Lows(), stochK)
	highMax := series.Max(s.Highs(), stochK)

	s.StochK = series.Scale(series.Div(series.Sub(s.Closes(), lowMin), series.Sub(highMax, lowMin)), 100)
	s.StochD = series.Mean(s.StochK, stochD)
}

// AddIchimoku computes tenkan, kijun and both senkou spans, the spans
// projected 26 rows forward.
func AddIchimoku(s *model.IndicatedSeries) {
	s.Tenkan = midRange(s, tenkanPeriod)
	s.Kijun = midRange(s, kijunPeriod)
	s.SenkouA = series.Shift(series.Scale(series.Add(s.Tenkan, s.Kijun), 0.5), cloudShift)
	s.SenkouB = series.Shift(midRange(s, senkouBPeriod), cloudShift)
}
