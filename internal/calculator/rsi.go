package calculator

import (
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/series"
)

const rsiPeriod = 14

// AddRSI computes RSI(14) from simple rolling means of gains and losses.
// The first row counts as a zero change. An all-gain window yields 100;
// a window with neither gains nor losses is undefined.
func AddRSI(s *model.IndicatedSeries) {
	delta := series.Diff(s.Closes())
	gain := series.Where(delta, func(i int) bool { v, ok := delta.At(i); return ok && v > 0 }, 0)
	loss := series.Where(series.Scale(delta, -1), func(i int) bool { v, ok := delta.At(i); return ok && v < 0 }, 0)

	avgGain := series.Mean(gain, rsiPeriod)
	avgLoss := series.Mean(loss, rsiPeriod)

	s.RSI = series.Zip(avgGain, avgLoss, rsiFromAverages)
}

func rsiFromAverages(gain, loss float64) (float64, bool) {
	if loss == 0 {
		if gain == 0 {
			return 0, false
		}
		return 100, true
	}
	rs := gain / loss
	return 100 - 100/(1+rs), true
}
