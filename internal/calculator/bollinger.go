package calculator

import (
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/series"
)

const (
	bbPeriod = 20
	bbStdDev = 2.0
)

// AddBollinger computes 20-period bands at two sample standard deviations,
// plus relative width and %B.
func AddBollinger(s *model.IndicatedSeries) {
	closes := s.Closes()
	middle := series.Mean(closes, bbPeriod)
	band := series.Scale(series.Std(closes, bbPeriod), bbStdDev)

	s.BBMiddle = middle
	s.BBUpper = series.Add(middle, band)
	s.BBLower = series.Sub(middle, band)
	s.BBWidth = series.Div(series.Sub(s.BBUpper, s.BBLower), middle)
	s.BBPercent = series.Div(series.Sub(closes, s.BBLower), series.Sub(s.BBUpper, s.BBLower))
}
