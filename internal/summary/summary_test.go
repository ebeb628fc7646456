package summary

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/series"
	"CryptoSentinel/internal/strategy"
)

func indicated(closes ...float64) *model.IndicatedSeries {
	candles := make([]model.OHLCV, len(closes))
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		candles[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return model.NewIndicatedSeries(model.PriceSeries{Symbol: "BTC", Candles: candles})
}

func TestBuild_Empty(t *testing.T) {
	got := Build(indicated())
	if !got.IsEmpty() {
		t.Fatalf("expected empty summary, got %+v", got)
	}
	if !Build(nil).IsEmpty() {
		t.Fatal("nil series should give an empty summary")
	}
}

func TestBuild_SingleRowDefaults(t *testing.T) {
	got := Build(indicated(123.456))
	if got.IsEmpty() {
		t.Fatal("single row should not be empty")
	}
	if got.ChangePct != 0 {
		t.Errorf("change_pct = %v, want 0", got.ChangePct)
	}
	if got.Price != 123.46 {
		t.Errorf("price = %v, want 123.46", got.Price)
	}
	if got.RSI != 50 || got.StochK != 50 || got.BBPercent != 0.5 {
		t.Errorf("neutral defaults not applied: rsi=%v stoch=%v bb=%v", got.RSI, got.StochK, got.BBPercent)
	}
	if got.Signal != model.SignalNeutral {
		t.Errorf("signal = %s, want NEUTRAL", got.Signal)
	}
	// MACD 0 vs signal 0 is bearish; ADX 0 is range
	wantRules := []string{"MACD Bearish", "Range / Consolidation"}
	if len(got.ActiveRules) != len(wantRules) {
		t.Fatalf("rules = %+v", got.ActiveRules)
	}
	for i, name := range wantRules {
		if got.ActiveRules[i].Rule != name {
			t.Errorf("rule %d = %s, want %s", i, got.ActiveRules[i].Rule, name)
		}
	}
}

func TestBuild_ActiveRules(t *testing.T) {
	s := indicated(100, 95)
	s.RSI[1] = series.Value(22.345)
	s.MACD[1], s.MACDSignal[1] = series.Value(1.5), series.Value(1.0)
	s.EMA50[1], s.EMA200[1] = series.Value(90), series.Value(80)
	s.ADX[1], s.PlusDI[1], s.MinusDI[1] = series.Value(31.27), series.Value(10), series.Value(20)
	s.BBPercent[1] = series.Value(-0.2)
	s.StochK[1] = series.Value(85)
	s.Divergence[1] = model.DivergenceBullish

	got := Build(s)
	want := []model.ActiveRule{
		{Rule: "RSI Oversold", Direction: model.DirectionBuy, Explanation: "RSI = 22.3 < 30"},
		{Rule: "MACD Bullish", Direction: model.DirectionBuy, Explanation: "MACD > Signal"},
		{Rule: "Golden Cross (50/200)", Direction: model.DirectionBuy, Explanation: "EMA50 > EMA200"},
		{Rule: "Strong Trend (ADX)", Direction: model.DirectionSell, Explanation: "ADX = 31.3, bearish trend"},
		{Rule: "Bollinger Oversold", Direction: model.DirectionBuy, Explanation: "Price below lower band"},
		{Rule: "Stochastic Overbought", Direction: model.DirectionSell, Explanation: "%K = 85.0"},
		{Rule: "Bullish RSI Divergence", Direction: model.DirectionBuy, Explanation: "Price down, RSI up"},
	}
	if len(got.ActiveRules) != len(want) {
		t.Fatalf("got %d rules, want %d: %+v", len(got.ActiveRules), len(want), got.ActiveRules)
	}
	for i := range want {
		if got.ActiveRules[i] != want[i] {
			t.Errorf("rule %d = %+v, want %+v", i, got.ActiveRules[i], want[i])
		}
	}
	if got.ChangePct != -5 {
		t.Errorf("change_pct = %v, want -5", got.ChangePct)
	}
	if got.RSI != 22.35 {
		t.Errorf("rsi = %v, want 22.35", got.RSI)
	}
}

func TestBuild_Rounding(t *testing.T) {
	s := indicated(10, 10)
	s.MACD[1] = series.Value(0.123456)
	s.BBWidth[1] = series.Value(0.0456789)
	s.ATR[1] = series.Value(1.005001)
	got := Build(s)
	if got.MACD != 0.1235 {
		t.Errorf("macd = %v", got.MACD)
	}
	if got.BBWidth != 0.0457 {
		t.Errorf("bb_width = %v", got.BBWidth)
	}
	if got.ATR != 1.01 {
		t.Errorf("atr = %v", got.ATR)
	}
}

func TestBuild_ScoreIsSmoothedStrength(t *testing.T) {
	s := indicated(100, 100, 100)
	s.RSI = series.Const(3, 15)
	composed := strategy.Compose(s)
	got := Build(composed)
	if got.Score != 3 || got.Signal != model.SignalBuy {
		t.Errorf("score=%v signal=%s, want 3 BUY", got.Score, got.Signal)
	}
}

func TestBuild_FieldNames(t *testing.T) {
	b, err := json.Marshal(Build(indicated(1, 2)))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{
		"price", "change_pct", "rsi", "macd", "macd_signal", "macd_hist", "bb_upper", "bb_lower",
		"bb_width", "bb_percent", "atr", "atr_pct", "adx", "stoch_k", "ema_9", "ema_21", "ema_50",
		"ema_200", "volume_ratio", "pivot", "r1", "s1", "fib_618", "fib_382", "score", "signal",
		"active_rules",
	} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing field %q", key)
		}
	}
	if v := m["change_pct"].(float64); math.Abs(v-100) > 1e-9 {
		t.Errorf("change_pct = %v", v)
	}
}
