package calculator

import (
	"math"

	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/series"
)

const adxPeriod = 14

// directionalMovement returns +DM and -DM. +DM is gated first; -DM is then
// compared against the gated +DM, so a tie between the raw moves keeps -DM.
func directionalMovement(s *model.IndicatedSeries) (plusDM, minusDM series.Series) {
	up := series.Diff(s.Highs())
	down := series.Scale(series.Diff(s.Lows()), -1)

	plusDM = series.Where(up, func(i int) bool {
		u, okU := up.At(i)
		d, okD := down.At(i)
		return okU && okD && u > d && u > 0
	}, 0)
	minusDM = series.Where(down, func(i int) bool {
		d, okD := down.At(i)
		p, _ := plusDM.At(i)
		return okD && d > p && d > 0
	}, 0)
	return plusDM, minusDM
}

// AddADX computes ADX(14) with +DI and -DI.
func AddADX(s *model.IndicatedSeries) {
	plusDM, minusDM := directionalMovement(s)

	atr := series.Mean(trueRange(s), adxPeriod)
	plusDI := series.Scale(series.Div(series.Mean(plusDM, adxPeriod), atr), 100)
	minusDI := series.Scale(series.Div(series.Mean(minusDM, adxPeriod), atr), 100)

	dx := series.Zip(plusDI, minusDI, func(p, m float64) (float64, bool) {
		if p+m == 0 {
			return 0, false
		}
		return 100 * math.Abs(p-m) / (p + m), true
	})

	s.ADX = series.Mean(dx, adxPeriod)
	s.PlusDI = plusDI
	s.MinusDI = minusDI
}
