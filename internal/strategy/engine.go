// Package strategy turns an indicated series into a composite score, a
// smoothed signal strength and a categorical signal per row.
package strategy

import (
	"github.com/guregu/null/v6"

	"CryptoSentinel/internal/calculator"
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/series"
)

const strengthWindow = 3

// Contribution is one rule that fired on a row.
type Contribution struct {
	Rule  string  `json:"rule"`
	Delta float64 `json:"delta"`
}

// Compose returns a copy of s with Divergence, Score, SignalStrength and
// Signal filled. Indicator columns are read, never modified.
func Compose(s *model.IndicatedSeries) *model.IndicatedSeries {
	out := s.Clone()
	out.Divergence = detectDivergences(out)

	v := newView(out)
	score := make(series.Series, out.Len())
	for i := range score {
		total := 0.0
		for _, r := range Rules {
			if r.When(v, i) {
				total += r.Delta
			}
		}
		score[i] = series.Value(total)
	}
	out.Score = score
	out.SignalStrength = series.Mean(score, strengthWindow)

	out.Signal = make([]model.Signal, out.Len())
	for i := range out.Signal {
		out.Signal[i] = Label(out.SignalStrength[i])
	}
	return out
}

// Analyze runs the indicator pipeline and then Compose.
func Analyze(p model.PriceSeries) *model.IndicatedSeries {
	return Compose(calculator.Compute(p))
}

// Contributions lists the rules that fired on row i of a composed series,
// in rule order. Negative i counts from the end.
func Contributions(s *model.IndicatedSeries, i int) []Contribution {
	if i < 0 {
		i += s.Len()
	}
	if i < 0 || i >= s.Len() {
		return nil
	}
	v := newView(s)
	var out []Contribution
	for _, r := range Rules {
		if r.When(v, i) {
			out = append(out, Contribution{Rule: r.Name, Delta: r.Delta})
		}
	}
	return out
}

// Label maps a signal strength to its category. Upper thresholds are
// exclusive: exactly 3 is BUY and exactly -3 is SELL. Undefined strength is
// NEUTRAL.
func Label(strength null.Float) model.Signal {
	if !strength.Valid {
		return model.SignalNeutral
	}
	v := strength.Float64
	switch {
	case v > 3:
		return model.SignalStrongBuy
	case v > 1:
		return model.SignalBuy
	case v < -3:
		return model.SignalStrongSell
	case v < -1:
		return model.SignalSell
	default:
		return model.SignalNeutral
	}
}
