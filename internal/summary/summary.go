// Package summary reduces a composed indicator series to a rounded snapshot
// of its latest row and a list of human-readable active rules.
package summary

import (
	"fmt"
	"math"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"CryptoSentinel/internal/model"
)

// Neutral values used when a field is undefined on the latest row.
const (
	defaultRSI       = 50
	defaultStochK    = 50
	defaultBBPercent = 0.5
)

// Build returns the summary of the last row of s. An empty series yields an
// empty Summary.
func Build(s *model.IndicatedSeries) model.Summary {
	if s == nil || s.Len() == 0 {
		return model.Summary{}
	}
	latest := s.Row(-1)
	prev := latest
	if s.Len() > 1 {
		prev = s.Row(-2)
	}

	changePct := 0.0
	if prev.Close != 0 {
		changePct = (latest.Close - prev.Close) / prev.Close * 100
	}

	rsi := latest.RSI.ValueOrZero()
	if !latest.RSI.Valid {
		rsi = defaultRSI
	}
	stochK := latest.StochK.ValueOrZero()
	if !latest.StochK.Valid {
		stochK = defaultStochK
	}
	bbPct := latest.BBPercent.ValueOrZero()
	if !latest.BBPercent.Valid {
		bbPct = defaultBBPercent
	}
	signal := latest.Signal
	if signal == "" {
		signal = model.SignalNeutral
	}

	return model.Summary{
		Symbol:      s.Symbol,
		Price:       round(latest.Close, 2),
		ChangePct:   round(changePct, 2),
		RSI:         round(rsi, 2),
		MACD:        roundNull(latest.MACD, 4),
		MACDSignal:  roundNull(latest.MACDSignal, 4),
		MACDHist:    roundNull(latest.MACDHist, 4),
		BBUpper:     roundNull(latest.BBUpper, 2),
		BBLower:     roundNull(latest.BBLower, 2),
		BBWidth:     roundNull(latest.BBWidth, 4),
		BBPercent:   round(bbPct, 4),
		ATR:         roundNull(latest.ATR, 2),
		ATRPct:      roundNull(latest.ATRPct, 2),
		ADX:         roundNull(latest.ADX, 2),
		StochK:      round(stochK, 2),
		EMA9:        roundNull(latest.EMA9, 2),
		EMA21:       roundNull(latest.EMA21, 2),
		EMA50:       roundNull(latest.EMA50, 2),
		EMA200:      roundNull(latest.EMA200, 2),
		VolumeRatio: roundNull(latest.VolumeRatio, 2),
		Pivot:       roundNull(latest.Pivot, 2),
		R1:          roundNull(latest.R1, 2),
		S1:          roundNull(latest.S1, 2),
		Fib618:      roundNull(latest.Fib618, 2),
		Fib382:      roundNull(latest.Fib382, 2),
		Score:       roundNull(latest.SignalStrength, 2),
		Signal:      signal,
		ActiveRules: activeRules(latest, rsi, stochK, bbPct),
	}
}

func activeRules(r model.Row, rsi, stochK, bbPct float64) []model.ActiveRule {
	rules := []model.ActiveRule{}
	add := func(name string, dir model.Direction, format string, args ...any) {
		rules = append(rules, model.ActiveRule{Rule: name, Direction: dir, Explanation: fmt.Sprintf(format, args...)})
	}

	switch {
	case rsi < 30:
		add("RSI Oversold", model.DirectionBuy, "RSI = %.1f < 30", rsi)
	case rsi > 70:
		add("RSI Overbought", model.DirectionSell, "RSI = %.1f > 70", rsi)
	}

	if r.MACD.ValueOrZero() > r.MACDSignal.ValueOrZero() {
		add("MACD Bullish", model.DirectionBuy, "MACD > Signal")
	} else {
		add("MACD Bearish", model.DirectionSell, "MACD < Signal")
	}

	ema50, ema200 := r.EMA50.ValueOrZero(), r.EMA200.ValueOrZero()
	switch {
	case ema50 > ema200:
		add("Golden Cross (50/200)", model.DirectionBuy, "EMA50 > EMA200")
	case ema50 < ema200:
		add("Death Cross (50/200)", model.DirectionSell, "EMA50 < EMA200")
	}

	adx := r.ADX.ValueOrZero()
	if adx > 25 {
		if r.PlusDI.ValueOrZero() > r.MinusDI.ValueOrZero() {
			add("Strong Trend (ADX)", model.DirectionBuy, "ADX = %.1f, bullish trend", adx)
		} else {
			add("Strong Trend (ADX)", model.DirectionSell, "ADX = %.1f, bearish trend", adx)
		}
	} else {
		add("Range / Consolidation", model.DirectionNeutral, "ADX = %.1f < 25", adx)
	}

	switch {
	case bbPct < 0:
		add("Bollinger Oversold", model.DirectionBuy, "Price below lower band")
	case bbPct > 1:
		add("Bollinger Overbought", model.DirectionSell, "Price above upper band")
	}

	switch {
	case stochK < 20:
		add("Stochastic Oversold", model.DirectionBuy, "%%K = %.1f", stochK)
	case stochK > 80:
		add("Stochastic Overbought", model.DirectionSell, "%%K = %.1f", stochK)
	}

	switch r.Divergence {
	case model.DivergenceBullish:
		add("Bullish RSI Divergence", model.DirectionBuy, "Price down, RSI up")
	case model.DivergenceBearish:
		add("Bearish RSI Divergence", model.DirectionSell, "Price up, RSI down")
	}

	return rules
}

func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundNull(v null.Float, places int32) float64 {
	return round(v.ValueOrZero(), places)
}
