package calculator

import (
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/series"
)

const volumePeriod = 20

// AddVolume computes the 20-period volume average, the current volume
// relative to it, and on-balance volume.
func AddVolume(s *model.IndicatedSeries) {
	volumes := s.Volumes()
	s.VolumeSMA = series.Mean(volumes, volumePeriod)
	s.VolumeRatio = series.Div(volumes, s.VolumeSMA)

	signed := series.Mul(series.Sign(series.Diff(s.Closes())), volumes)
	s.OBV = series.CumSum(series.FillUndefined(signed, 0))
}

// AddVWAP computes the volume weighted typical price cumulated from the
// start of the series. Undefined while cumulative volume is zero.
func AddVWAP(s *model.IndicatedSeries) {
	volumes := s.Volumes()
	typical := series.Scale(series.Add(series.Add(s.Highs(), s.Lows()), s.Closes()), 1.0/3.0)
	s.VWAP = series.Div(series.CumSum(series.Mul(typical, volumes)), series.CumSum(volumes))
}
