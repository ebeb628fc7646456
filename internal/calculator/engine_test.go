package calculator

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
	"time"

	"CryptoSentinel/internal/model"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func makeSeries(closes []float64) model.PriceSeries {
	candles := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		candles[i] = model.OHLCV{
			Time:   t0.AddDate(0, 0, i),
			Open:   open,
			High:   math.Max(open, c) + 1,
			Low:    math.Min(open, c) - 1,
			Close:  c,
			Volume: 1000 + float64(i%5)*100,
		}
	}
	return model.PriceSeries{Symbol: "TEST", Interval: model.Interval1d, Candles: candles}
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 8*math.Sin(float64(i)/5) + 0.3*float64(i)
	}
	return out
}

func TestRSI_Monotonic(t *testing.T) {
	tests := []struct {
		name string
		step float64
		want float64
	}{
		{"rising", 1, 100},
		{"falling", -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Compute(makeSeries(linear(40, 200, tt.step)))
			if s.RSI[12].Valid {
				t.Fatal("RSI should be undefined before index 13")
			}
			for i := 13; i < s.Len(); i++ {
				if !s.RSI[i].Valid {
					t.Fatalf("RSI undefined at %d", i)
				}
				assertClose(t, "RSI", s.RSI[i].Float64, tt.want, 1e-9)
			}
		})
	}
}

func TestRSI_FlatIsUndefined(t *testing.T) {
	s := Compute(makeSeries(linear(30, 50, 0)))
	for i, v := range s.RSI {
		if v.Valid {
			t.Fatalf("index %d: flat series should have undefined RSI, got %f", i, v.Float64)
		}
	}
}

func TestBollinger_Ordering(t *testing.T) {
	s := Compute(makeSeries(wave(150)))
	checked := 0
	for i := 0; i < s.Len(); i++ {
		lo, okL := s.BBLower.At(i)
		mid, okM := s.BBMiddle.At(i)
		hi, okH := s.BBUpper.At(i)
		if !okL || !okM || !okH {
			continue
		}
		checked++
		if !(lo <= mid && mid <= hi) {
			t.Fatalf("index %d: lower=%f middle=%f upper=%f", i, lo, mid, hi)
		}
	}
	if checked != 150-19 {
		t.Errorf("checked %d rows, want %d", checked, 150-19)
	}
}

func TestEMA9_MatchesRecursion(t *testing.T) {
	closes := wave(250)
	s := Compute(makeSeries(closes))
	alpha := 2.0 / 10.0
	ref := closes[0]
	for i, c := range closes {
		if i > 0 {
			ref = alpha*c + (1-alpha)*ref
		}
		if rel := math.Abs(s.EMA9[i].Float64-ref) / ref; rel > 1e-9 {
			t.Fatalf("index %d: EMA9=%.12f reference=%.12f", i, s.EMA9[i].Float64, ref)
		}
	}
}

func TestMACD_HistIsLineMinusSignal(t *testing.T) {
	s := Compute(makeSeries(wave(80)))
	for i := 0; i < s.Len(); i++ {
		assertClose(t, "hist", s.MACDHist[i].Float64, s.MACD[i].Float64-s.MACDSignal[i].Float64, 1e-12)
	}
	assertClose(t, "first MACD", s.MACD[0].Float64, 0, 0)
}

func TestTrueRange_FirstRowUsesHighLow(t *testing.T) {
	s := model.NewIndicatedSeries(model.PriceSeries{Candles: []model.OHLCV{
		{High: 12, Low: 9, Close: 10},
		{High: 15, Low: 11, Close: 14},
		{High: 13, Low: 7, Close: 8},
	}})
	tr := trueRange(s)
	for i, want := range []float64{3, 5, 7} {
		assertClose(t, "TR", tr[i].Float64, want, 0)
	}
}

func TestStochastic_FlatRangeUndefined(t *testing.T) {
	candles := make([]model.OHLCV, 20)
	for i := range candles {
		candles[i] = model.OHLCV{Time: t0.AddDate(0, 0, i), Open: 5, High: 5, Low: 5, Close: 5, Volume: 1}
	}
	s := Compute(model.PriceSeries{Candles: candles})
	for i, v := range s.StochK {
		if v.Valid {
			t.Fatalf("index %d: %%K should be undefined on a flat range", i)
		}
	}
}

func TestFibonacci_Broadcast(t *testing.T) {
	closes := linear(80, 100, 1)
	s := Compute(makeSeries(closes))
	// trailing 50 rows: highs run 131..180, lows 128..177
	high, low := 180.0, 128.0
	diff := high - low
	for _, i := range []int{0, 40, 79} {
		assertClose(t, "Fib_0", s.Fib0[i].Float64, high, 1e-9)
		assertClose(t, "Fib_618", s.Fib618[i].Float64, high-0.618*diff, 1e-9)
		assertClose(t, "Fib_100", s.Fib100[i].Float64, low, 1e-9)
	}
}

func TestFibonacci_ShortSeriesUsesAllRows(t *testing.T) {
	s := Compute(makeSeries(linear(10, 100, 1)))
	assertClose(t, "Fib_100", s.Fib100[0].Float64, 99, 1e-9)
	assertClose(t, "Fib_0", s.Fib0[0].Float64, 110, 1e-9)
}

func TestPivots_FromPreviousCandle(t *testing.T) {
	s := model.NewIndicatedSeries(model.PriceSeries{Candles: []model.OHLCV{
		{High: 110, Low: 90, Close: 100},
		{High: 120, Low: 95, Close: 115},
	}})
	AddPivots(s)
	if s.Pivot[0].Valid {
		t.Fatal("first row has no previous candle")
	}
	pp := 100.0
	assertClose(t, "PP", s.Pivot[1].Float64, pp, 1e-9)
	assertClose(t, "R1", s.R1[1].Float64, 110, 1e-9)
	assertClose(t, "S1", s.S1[1].Float64, 90, 1e-9)
	assertClose(t, "R2", s.R2[1].Float64, 120, 1e-9)
	assertClose(t, "S2", s.S2[1].Float64, 80, 1e-9)
	assertClose(t, "R3", s.R3[1].Float64, 130, 1e-9)
	assertClose(t, "S3", s.S3[1].Float64, 70, 1e-9)
}

func TestWarmup(t *testing.T) {
	s := Compute(makeSeries(wave(120)))
	tests := []struct {
		name  string
		first int
		valid func(i int) bool
	}{
		{"BB_middle", 19, func(i int) bool { return s.BBMiddle[i].Valid }},
		{"ATR", 13, func(i int) bool { return s.ATR[i].Valid }},
		{"Stoch_D", 15, func(i int) bool { return s.StochD[i].Valid }},
		{"Tenkan", 8, func(i int) bool { return s.Tenkan[i].Valid }},
		{"SenkouA", 51, func(i int) bool { return s.SenkouA[i].Valid }},
		{"SenkouB", 77, func(i int) bool { return s.SenkouB[i].Valid }},
		{"ADX", 26, func(i int) bool { return s.ADX[i].Valid }},
		{"Volume_SMA", 19, func(i int) bool { return s.VolumeSMA[i].Valid }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.valid(tt.first - 1) {
				t.Errorf("expected undefined at %d", tt.first-1)
			}
			if !tt.valid(tt.first) {
				t.Errorf("expected defined at %d", tt.first)
			}
		})
	}
}

func TestOBV(t *testing.T) {
	s := model.NewIndicatedSeries(model.PriceSeries{Candles: []model.OHLCV{
		{Close: 10, Volume: 100},
		{Close: 11, Volume: 200},
		{Close: 11, Volume: 300},
		{Close: 9, Volume: 50},
	}})
	AddVolume(s)
	for i, want := range []float64{0, 200, 200, 150} {
		assertClose(t, "OBV", s.OBV[i].Float64, want, 0)
	}
}

func TestVWAP_ZeroVolumeUndefined(t *testing.T) {
	s := model.NewIndicatedSeries(model.PriceSeries{Candles: []model.OHLCV{
		{High: 11, Low: 9, Close: 10, Volume: 0},
		{High: 12, Low: 10, Close: 11, Volume: 10},
		{High: 14, Low: 12, Close: 13, Volume: 30},
	}})
	AddVWAP(s)
	if s.VWAP[0].Valid {
		t.Error("VWAP with zero cumulative volume should be undefined")
	}
	assertClose(t, "VWAP[1]", s.VWAP[1].Float64, 11, 1e-9)
	assertClose(t, "VWAP[2]", s.VWAP[2].Float64, (11*10+13*30)/40.0, 1e-9)
}

func TestCompute_Idempotent(t *testing.T) {
	p := makeSeries(wave(260))
	a := Compute(p)
	b := Compute(p)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two runs over the same input differ")
	}

	again := a.Clone()
	Apply(again)
	ja, _ := json.Marshal(a.Rows())
	jb, _ := json.Marshal(again.Rows())
	if string(ja) != string(jb) {
		t.Fatal("re-applying the pipeline changed the output")
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	p := makeSeries(wave(60))
	before := append([]model.OHLCV(nil), p.Candles...)
	s := Compute(p)
	s.Candles[0].Close = -1
	if !reflect.DeepEqual(before, p.Candles) {
		t.Fatal("input candles were modified")
	}
}

func hlc(rows ...[3]float64) *model.IndicatedSeries {
	candles := make([]model.OHLCV, len(rows))
	for i, r := range rows {
		candles[i] = model.OHLCV{Time: t0.AddDate(0, 0, i), Open: r[2], High: r[0], Low: r[1], Close: r[2], Volume: 1}
	}
	return model.NewIndicatedSeries(model.PriceSeries{Candles: candles})
}

func TestDirectionalMovement(t *testing.T) {
	s := hlc(
		[3]float64{10, 5, 8},
		[3]float64{12, 6, 9},  // up 2, down -1
		[3]float64{13, 4, 9},  // up 1, down 2
		[3]float64{15, 2, 9},  // up 2, down 2: tie goes to -DM
		[3]float64{14, 3, 9},  // inside bar
		[3]float64{17, -1, 9}, // up 3, down 4
	)
	plus, minus := directionalMovement(s)
	wantPlus := []float64{0, 2, 0, 0, 0, 0}
	wantMinus := []float64{0, 0, 2, 2, 0, 4}
	for i := range wantPlus {
		if !plus[i].Valid || !minus[i].Valid {
			t.Fatalf("row %d: DM should always be defined", i)
		}
		assertClose(t, "+DM", plus[i].Float64, wantPlus[i], 0)
		assertClose(t, "-DM", minus[i].Float64, wantMinus[i], 0)
	}
}

func TestADX_Values(t *testing.T) {
	const n = 40
	rising := make([][3]float64, n)
	falling := make([][3]float64, n)
	widening := make([][3]float64, n)
	for i := range rising {
		f := float64(i)
		rising[i] = [3]float64{110 + 2*f, 100 + 2*f, 105 + 2*f}
		falling[i] = [3]float64{200 - 2*f, 190 - 2*f, 195 - 2*f}
		widening[i] = [3]float64{110 + f, 100 - f, 105}
	}

	t.Run("rising", func(t *testing.T) {
		s := hlc(rising...)
		AddADX(s)
		// true range is 10 on every row; +DM is 2 from row 1
		assertClose(t, "+DI[13]", s.PlusDI[13].Float64, 100*(26.0/14.0)/10, 1e-9)
		assertClose(t, "+DI[20]", s.PlusDI[20].Float64, 20, 1e-9)
		assertClose(t, "-DI[20]", s.MinusDI[20].Float64, 0, 1e-9)
		if s.ADX[25].Valid {
			t.Error("ADX should be undefined at 25")
		}
		assertClose(t, "ADX[26]", s.ADX[26].Float64, 100, 1e-9)
	})

	t.Run("falling", func(t *testing.T) {
		s := hlc(falling...)
		AddADX(s)
		assertClose(t, "+DI[20]", s.PlusDI[20].Float64, 0, 1e-9)
		assertClose(t, "-DI[20]", s.MinusDI[20].Float64, 20, 1e-9)
		assertClose(t, "ADX[39]", s.ADX[39].Float64, 100, 1e-9)
	})

	t.Run("widening ties", func(t *testing.T) {
		s := hlc(widening...)
		AddADX(s)
		// every move is a tie of 1, so only -DM counts; true range is 10+2i
		assertClose(t, "+DI[13]", s.PlusDI[13].Float64, 0, 1e-9)
		assertClose(t, "-DI[13]", s.MinusDI[13].Float64, 100*(13.0/14.0)/23, 1e-9)
		assertClose(t, "-DI[20]", s.MinusDI[20].Float64, 100/37.0, 1e-9)
		assertClose(t, "ADX[30]", s.ADX[30].Float64, 100, 1e-9)
	})
}
