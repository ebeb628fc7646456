package series

import (
	"math"
	"testing"

	"github.com/markcheno/go-talib"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/4) + float64(i%7)
	}
	return out
}

func TestMean_MatchesTalib(t *testing.T) {
	in := wave(120)
	got := Mean(From(in), 20)
	want := talib.Sma(in, 20)
	for i := range in {
		if i < 19 {
			if got[i].Valid {
				t.Fatalf("index %d: expected undefined before the window fills", i)
			}
			continue
		}
		assertClose(t, "SMA(20)", got[i].Float64, want[i], 1e-9)
	}
}

func TestMaxMin_MatchTalib(t *testing.T) {
	in := wave(80)
	gotMax, gotMin := Max(From(in), 14), Min(From(in), 14)
	wantMax, wantMin := talib.Max(in, 14), talib.Min(in, 14)
	for i := 13; i < len(in); i++ {
		assertClose(t, "Max(14)", gotMax[i].Float64, wantMax[i], 1e-12)
		assertClose(t, "Min(14)", gotMin[i].Float64, wantMin[i], 1e-12)
	}
	if gotMax[12].Valid || gotMin[12].Valid {
		t.Error("expected undefined at index 12")
	}
}

func TestStd_IsSampleDeviation(t *testing.T) {
	s := From([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	got := Std(s, 8)
	// population std is 2.0; sample std is sqrt(32/7)
	assertClose(t, "Std(8)", got[7].Float64, math.Sqrt(32.0/7.0), 1e-12)
}

func TestWindow_UndefinedInsideWindow(t *testing.T) {
	s := From([]float64{1, 2, 3, 4, 5, 6})
	s[2] = Undefined
	got := Mean(s, 3)
	// every window touching index 2 is undefined
	for i, want := range []bool{false, false, false, false, false, true} {
		if got[i].Valid != want {
			t.Errorf("index %d: valid=%v, want %v", i, got[i].Valid, want)
		}
	}
	assertClose(t, "Mean after gap", got[5].Float64, 5, 1e-12)
}

func TestEWM_MatchesRecursion(t *testing.T) {
	in := wave(300)
	got := EWM(From(in), 9)
	alpha := 2.0 / 10.0
	ref := in[0]
	for i, v := range in {
		if i > 0 {
			ref = alpha*v + (1-alpha)*ref
		}
		if rel := math.Abs(got[i].Float64-ref) / math.Abs(ref); rel > 1e-9 {
			t.Fatalf("index %d: got %.12f, want %.12f", i, got[i].Float64, ref)
		}
	}
}

func TestEWM_SeedsOnFirstDefined(t *testing.T) {
	s := Series{Undefined, Undefined, Value(10), Value(20)}
	got := EWM(s, 3)
	if got[0].Valid || got[1].Valid {
		t.Fatal("expected undefined before the first defined value")
	}
	assertClose(t, "seed", got[2].Float64, 10, 1e-12)
	assertClose(t, "step", got[3].Float64, 15, 1e-12)
}

func TestEWM_GapDecaysHistory(t *testing.T) {
	// alpha=0.5: after one undefined step the old weight is 0.25, so the
	// next value is weighted 0.5/(0.25+0.5).
	s := Series{Value(10), Undefined, Value(20)}
	got := EWM(s, 3)
	assertClose(t, "carried", got[1].Float64, 10, 1e-12)
	assertClose(t, "after gap", got[2].Float64, (0.25*10+0.5*20)/0.75, 1e-12)
}

func TestShiftDiffCumSum(t *testing.T) {
	s := From([]float64{1, 3, 6, 10})

	shifted := Shift(s, 1)
	if shifted[0].Valid || shifted[3].Float64 != 6 {
		t.Errorf("Shift(1) = %v", shifted.Floats())
	}

	d := Diff(s)
	if d[0].Valid {
		t.Error("Diff: first row should be undefined")
	}
	for i, want := range []float64{2, 3, 4} {
		assertClose(t, "Diff", d[i+1].Float64, want, 0)
	}

	c := CumSum(Series{Value(1), Undefined, Value(2)})
	if c[1].Valid {
		t.Error("CumSum: undefined input should stay undefined")
	}
	assertClose(t, "CumSum", c[2].Float64, 3, 0)
}

func TestArithmetic_UndefinedPropagates(t *testing.T) {
	a := Series{Value(1), Undefined, Value(4)}
	b := Series{Value(2), Value(2), Value(0)}

	sum := Add(a, b)
	if !sum[0].Valid || sum[0].Float64 != 3 || sum[1].Valid {
		t.Errorf("Add = %v", sum.Floats())
	}
	q := Div(a, b)
	if q[2].Valid {
		t.Error("division by zero should be undefined")
	}
}

func TestMaxOf_SkipsUndefined(t *testing.T) {
	got := MaxOf(
		Series{Value(1), Undefined, Undefined},
		Series{Undefined, Value(3), Undefined},
		Series{Value(2), Value(-1), Undefined},
	)
	assertClose(t, "row 0", got[0].Float64, 2, 0)
	assertClose(t, "row 1", got[1].Float64, 3, 0)
	if got[2].Valid {
		t.Error("row 2: all operands undefined")
	}
}

func TestValue_RejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if Value(v).Valid {
			t.Errorf("Value(%v) should be undefined", v)
		}
	}
}
