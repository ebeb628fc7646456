package strategy

import (
	"CryptoSentinel/internal/model"
)

const divergenceLookback = 5

// detectDivergences labels each row by comparing close and RSI against their
// values divergenceLookback rows earlier. Rows with fewer than twice that
// many predecessors stay NONE.
func detectDivergences(s *model.IndicatedSeries) []model.Divergence {
	n := s.Len()
	out := make([]model.Divergence, n)
	for i := range out {
		out[i] = model.DivergenceNone
	}
	if len(s.RSI) != n || n < divergenceLookback*2 {
		return out
	}
	closes := s.Closes()
	for i := divergenceLookback * 2; i < n; i++ {
		j := i - divergenceLookback
		p0, okP0 := closes.At(j)
		p1, okP1 := closes.At(i)
		r0, okR0 := s.RSI.At(j)
		r1, okR1 := s.RSI.At(i)
		if !okP0 || !okP1 || !okR0 || !okR1 {
			continue
		}
		switch {
		case p1 < p0 && r1 > r0:
			out[i] = model.DivergenceBullish
		case p1 > p0 && r1 < r0:
			out[i] = model.DivergenceBearish
		}
	}
	return out
}
