package series

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// window calls f with the trailing w values ending at each index once all w
// are defined. Output is undefined elsewhere.
func window(s Series, w int, f func(vals []float64) float64) Series {
	out := make(Series, len(s))
	if w <= 0 {
		return out
	}
	buf := make([]float64, w)
	run := 0 // consecutive defined values ending at i
	for i, v := range s {
		if !v.Valid {
			run = 0
			continue
		}
		run++
		if run < w {
			continue
		}
		for k := 0; k < w; k++ {
			buf[k] = s[i-w+1+k].Float64
		}
		out[i] = Value(f(buf))
	}
	return out
}

// Mean is the trailing simple moving average over w rows.
func Mean(s Series, w int) Series {
	return window(s, w, func(vals []float64) float64 {
		return stat.Mean(vals, nil)
	})
}

// Std is the trailing sample standard deviation (n-1 denominator) over w rows.
func Std(s Series, w int) Series {
	if w < 2 {
		return New(len(s))
	}
	return window(s, w, func(vals []float64) float64 {
		return stat.StdDev(vals, nil)
	})
}

// Max is the trailing maximum over w rows.
func Max(s Series, w int) Series {
	return window(s, w, func(vals []float64) float64 {
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Max(m, v)
		}
		return m
	})
}

// Min is the trailing minimum over w rows.
func Min(s Series, w int) Series {
	return window(s, w, func(vals []float64) float64 {
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Min(m, v)
		}
		return m
	})
}

// EWM is the exponentially weighted mean with alpha = 2/(span+1), computed
// recursively without bias correction and seeded on the first defined value.
// An undefined input leaves the average unchanged but still decays the
// weight of the history, so the next defined value counts for more.
func EWM(s Series, span int) Series {
	out := make(Series, len(s))
	if span < 1 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	var avg, oldWt float64
	seeded := false
	for i, v := range s {
		if !seeded {
			if v.Valid {
				avg, oldWt, seeded = v.Float64, 1, true
				out[i] = v
			}
			continue
		}
		oldWt *= 1 - alpha
		if v.Valid {
			if avg != v.Float64 {
				avg = (oldWt*avg + alpha*v.Float64) / (oldWt + alpha)
			}
			oldWt = 1
		}
		out[i] = Value(avg)
	}
	return out
}

// Shift moves every value n rows later; the first n rows become undefined.
// A negative n shifts earlier.
func Shift(s Series, n int) Series {
	out := make(Series, len(s))
	for i := range s {
		j := i - n
		if j >= 0 && j < len(s) {
			out[i] = s[j]
		}
	}
	return out
}

// Diff is s[i] - s[i-1]; the first row is undefined.
func Diff(s Series) Series {
	return Sub(s, Shift(s, 1))
}

// CumSum is the running total. Undefined inputs stay undefined and are
// skipped in the total.
func CumSum(s Series) Series {
	out := make(Series, len(s))
	total := 0.0
	for i, v := range s {
		if !v.Valid {
			continue
		}
		total += v.Float64
		out[i] = Value(total)
	}
	return out
}
