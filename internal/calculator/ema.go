package calculator

import (
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/series"
)

// AddEMA computes the 9, 21, 50 and 200 span exponential averages of close.
func AddEMA(s *model.IndicatedSeries) {
	closes := s.Closes()
	s.EMA9 = series.EWM(closes, 9)
	s.EMA21 = series.EWM(closes, 21)
	s.EMA50 = series.EWM(closes, 50)
	s.EMA200 = series.EWM(closes, 200)
}
