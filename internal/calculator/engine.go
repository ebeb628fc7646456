// Package calculator computes technical indicators over a candle series.
// Every indicator is a pure transform that fills one or more columns of a
// model.IndicatedSeries from its candles and never reads other indicator
// columns, so each can run on its own and re-running one is a no-op.
package calculator

import "CryptoSentinel/internal/model"

// Indicator fills its columns of s.
type Indicator func(s *model.IndicatedSeries)

// Pipeline is the fixed order Compute applies indicators in.
var Pipeline = []Indicator{
	AddRSI,
	AddMACD,
	AddBollinger,
	AddEMA,
	AddATR,
	AddVolume,
	AddStochastic,
	AddFibonacci,
	AddPivots,
	AddIchimoku,
	AddADX,
	AddVWAP,
}

// Compute copies the candles of p and applies every indicator.
func Compute(p model.PriceSeries) *model.IndicatedSeries {
	s := model.NewIndicatedSeries(p)
	Apply(s)
	return s
}

// Apply runs the full pipeline on s in place.
func Apply(s *model.IndicatedSeries) {
	for _, ind := range Pipeline {
		ind(s)
	}
}
