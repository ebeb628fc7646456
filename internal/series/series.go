// Package series provides an ordered numeric sequence whose entries may be
// undefined, together with the rolling-window and elementwise primitives the
// indicator engine is built from.
//
// Every function is pure: it never mutates its inputs and always returns a
// new Series of the same length. An undefined operand yields an undefined
// result; rolling windows report undefined until they hold a full window of
// defined values.
package series

import (
	"math"

	"github.com/guregu/null/v6"
)

// Series is an ordered sequence of optional float64 values.
type Series []null.Float

// Undefined is the missing value.
var Undefined = null.Float{}

// Value wraps a defined value. NaN and ±Inf are stored as undefined.
func Value(v float64) null.Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	return null.FloatFrom(v)
}

// New returns a Series of length n with every entry undefined.
func New(n int) Series {
	return make(Series, n)
}

// From converts plain floats to a Series.
func From(values []float64) Series {
	out := make(Series, len(values))
	for i, v := range values {
		out[i] = Value(v)
	}
	return out
}

// Const returns a Series of length n holding v at every index.
func Const(n int, v float64) Series {
	out := make(Series, n)
	for i := range out {
		out[i] = Value(v)
	}
	return out
}

// Clone returns an independent copy of s.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// At returns the value at i and whether it is defined. Out-of-range indexes
// are undefined.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) || !s[i].Valid {
		return 0, false
	}
	return s[i].Float64, true
}

// Last returns the final entry, undefined for an empty Series.
func (s Series) Last() null.Float {
	if len(s) == 0 {
		return Undefined
	}
	return s[len(s)-1]
}

// Floats returns the values with undefined entries as NaN.
func (s Series) Floats() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if v.Valid {
			out[i] = v.Float64
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Map applies f to every defined entry.
func Map(s Series, f func(float64) float64) Series {
	out := make(Series, len(s))
	for i, v := range s {
		if v.Valid {
			out[i] = Value(f(v.Float64))
		}
	}
	return out
}

// Zip combines two equal-length Series with f; the result is undefined where
// either operand is undefined or f reports false.
func Zip(a, b Series, f func(x, y float64) (float64, bool)) Series {
	out := make(Series, len(a))
	for i := range a {
		if i >= len(b) || !a[i].Valid || !b[i].Valid {
			continue
		}
		if v, ok := f(a[i].Float64, b[i].Float64); ok {
			out[i] = Value(v)
		}
	}
	return out
}

func Add(a, b Series) Series {
	return Zip(a, b, func(x, y float64) (float64, bool) { return x + y, true })
}

func Sub(a, b Series) Series {
	return Zip(a, b, func(x, y float64) (float64, bool) { return x - y, true })
}

func Mul(a, b Series) Series {
	return Zip(a, b, func(x, y float64) (float64, bool) { return x * y, true })
}

// Div divides a by b; a zero divisor yields undefined.
func Div(a, b Series) Series {
	return Zip(a, b, func(x, y float64) (float64, bool) {
		if y == 0 {
			return 0, false
		}
		return x / y, true
	})
}

// Scale multiplies every entry by k.
func Scale(s Series, k float64) Series {
	return Map(s, func(v float64) float64 { return v * k })
}

func Abs(s Series) Series {
	return Map(s, math.Abs)
}

// Sign maps every entry to -1, 0 or 1.
func Sign(s Series) Series {
	return Map(s, func(v float64) float64 {
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		default:
			return 0
		}
	})
}

// FillUndefined replaces undefined entries with v.
func FillUndefined(s Series, v float64) Series {
	out := s.Clone()
	for i := range out {
		if !out[i].Valid {
			out[i] = Value(v)
		}
	}
	return out
}

// MaxOf returns the row-wise maximum across the given Series, skipping
// undefined operands. A row is undefined only when every operand is.
func MaxOf(cols ...Series) Series {
	if len(cols) == 0 {
		return nil
	}
	out := make(Series, len(cols[0]))
	for i := range out {
		best, found := math.Inf(-1), false
		for _, c := range cols {
			if v, ok := c.At(i); ok {
				if !found || v > best {
					best = v
				}
				found = true
			}
		}
		if found {
			out[i] = Value(best)
		}
	}
	return out
}

// Where keeps s[i] where cond reports true and replaces it with other
// elsewhere. An undefined s[i] is passed to cond as ok=false.
func Where(s Series, cond func(i int) bool, other float64) Series {
	out := make(Series, len(s))
	for i := range s {
		if cond(i) {
			out[i] = s[i]
		} else {
			out[i] = Value(other)
		}
	}
	return out
}
