package calculator

import (
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/series"
)

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// AddMACD computes MACD(12,26,9): line, signal and histogram.
func AddMACD(s *model.IndicatedSeries) {
	closes := s.Closes()
	line := series.Sub(series.EWM(closes, macdFast), series.EWM(closes, macdSlow))
	signal := series.EWM(line, macdSignal)

	s.MACD = line
	s.MACDSignal = signal
	s.MACDHist = series.Sub(line, signal)
}
