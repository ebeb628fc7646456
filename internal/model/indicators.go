package model

import (
	"time"

	"github.com/guregu/null/v6"

	"CryptoSentinel/internal/series"
)

// IndicatedSeries is a candle series plus every derived indicator column.
// Each column has one entry per candle; rows without enough history hold
// undefined values.
type IndicatedSeries struct {
	Symbol   string
	Interval Interval
	Candles  []OHLCV

	RSI        series.Series
	MACD       series.Series
	MACDSignal series.Series
	MACDHist   series.Series

	BBMiddle  series.Series
	BBUpper   series.Series
	BBLower   series.Series
	BBWidth   series.Series
	BBPercent series.Series

	EMA9   series.Series
	EMA21  series.Series
	EMA50  series.Series
	EMA200 series.Series

	ATR    series.Series
	ATRPct series.Series

	VolumeSMA   series.Series
	VolumeRatio series.Series
	OBV         series.Series

	StochK series.Series
	StochD series.Series

	Fib0    series.Series
	Fib236  series.Series
	Fib382  series.Series
	Fib500  series.Series
	Fib618  series.Series
	Fib786  series.Series
	Fib100  series.Series

	Pivot series.Series
	R1    series.Series
	R2    series.Series
	R3    series.Series
	S1    series.Series
	S2    series.Series
	S3    series.Series

	Tenkan  series.Series
	Kijun   series.Series
	SenkouA series.Series
	SenkouB series.Series

	ADX     series.Series
	PlusDI  series.Series
	MinusDI series.Series

	VWAP series.Series

	Divergence     []Divergence
	Score          series.Series
	SignalStrength series.Series
	Signal         []Signal
}

// NewIndicatedSeries copies the candles of p into a fresh IndicatedSeries
// with every column undefined.
func NewIndicatedSeries(p PriceSeries) *IndicatedSeries {
	candles := make([]OHLCV, len(p.Candles))
	copy(candles, p.Candles)
	s := &IndicatedSeries{Symbol: p.Symbol, Interval: p.Interval, Candles: candles}
	s.eachColumn(func(c *series.Series) { *c = series.New(len(candles)) })
	s.Divergence = make([]Divergence, len(candles))
	s.Signal = make([]Signal, len(candles))
	return s
}

// Len returns the number of rows.
func (s *IndicatedSeries) Len() int { return len(s.Candles) }

func (s *IndicatedSeries) Highs() series.Series {
	return s.column(func(c OHLCV) float64 { return c.High })
}

func (s *IndicatedSeries) Lows() series.Series {
	return s.column(func(c OHLCV) float64 { return c.Low })
}

func (s *IndicatedSeries) Closes() series.Series {
	return s.column(func(c OHLCV) float64 { return c.Close })
}

func (s *IndicatedSeries) Volumes() series.Series {
	return s.column(func(c OHLCV) float64 { return c.Volume })
}

func (s *IndicatedSeries) column(f func(OHLCV) float64) series.Series {
	out := make(series.Series, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = series.Value(f(c))
	}
	return out
}

// Clone returns a deep copy.
func (s *IndicatedSeries) Clone() *IndicatedSeries {
	out := *s
	out.Candles = make([]OHLCV, len(s.Candles))
	copy(out.Candles, s.Candles)
	out.eachColumn(func(c *series.Series) { *c = c.Clone() })
	out.Divergence = append([]Divergence(nil), s.Divergence...)
	out.Signal = append([]Signal(nil), s.Signal...)
	return &out
}

// Tail returns a copy holding only the last n rows.
func (s *IndicatedSeries) Tail(n int) *IndicatedSeries {
	if n >= s.Len() {
		return s.Clone()
	}
	if n < 0 {
		n = 0
	}
	start := s.Len() - n
	out := s.Clone()
	out.Candles = out.Candles[start:]
	out.eachColumn(func(c *series.Series) { *c = (*c)[start:] })
	out.Divergence = out.Divergence[start:]
	out.Signal = out.Signal[start:]
	return out
}

func (s *IndicatedSeries) eachColumn(f func(*series.Series)) {
	for _, c := range []*series.Series{
		&s.RSI, &s.MACD, &s.MACDSignal, &s.MACDHist,
		&s.BBMiddle, &s.BBUpper, &s.BBLower, &s.BBWidth, &s.BBPercent,
		&s.EMA9, &s.EMA21, &s.EMA50, &s.EMA200,
		&s.ATR, &s.ATRPct,
		&s.VolumeSMA, &s.VolumeRatio, &s.OBV,
		&s.StochK, &s.StochD,
		&s.Fib0, &s.Fib236, &s.Fib382, &s.Fib500, &s.Fib618, &s.Fib786, &s.Fib100,
		&s.Pivot, &s.R1, &s.R2, &s.R3, &s.S1, &s.S2, &s.S3,
		&s.Tenkan, &s.Kijun, &s.SenkouA, &s.SenkouB,
		&s.ADX, &s.PlusDI, &s.MinusDI,
		&s.VWAP,
		&s.Score, &s.SignalStrength,
	} {
		f(c)
	}
}

// Row is one row of an IndicatedSeries in its wire form.
type Row struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`

	RSI        null.Float `json:"rsi"`
	MACD       null.Float `json:"macd"`
	MACDSignal null.Float `json:"macd_signal"`
	MACDHist   null.Float `json:"macd_hist"`

	BBMiddle  null.Float `json:"bb_middle"`
	BBUpper   null.Float `json:"bb_upper"`
	BBLower   null.Float `json:"bb_lower"`
	BBWidth   null.Float `json:"bb_width"`
	BBPercent null.Float `json:"bb_percent"`

	EMA9   null.Float `json:"ema_9"`
	EMA21  null.Float `json:"ema_21"`
	EMA50  null.Float `json:"ema_50"`
	EMA200 null.Float `json:"ema_200"`

	ATR    null.Float `json:"atr"`
	ATRPct null.Float `json:"atr_pct"`

	VolumeSMA   null.Float `json:"volume_sma"`
	VolumeRatio null.Float `json:"volume_ratio"`
	OBV         null.Float `json:"obv"`

	StochK null.Float `json:"stoch_k"`
	StochD null.Float `json:"stoch_d"`

	Fib0    null.Float `json:"fib_0"`
	Fib236  null.Float `json:"fib_236"`
	Fib382  null.Float `json:"fib_382"`
	Fib500  null.Float `json:"fib_500"`
	Fib618  null.Float `json:"fib_618"`
	Fib786  null.Float `json:"fib_786"`
	Fib100  null.Float `json:"fib_100"`

	Pivot null.Float `json:"pivot"`
	R1    null.Float `json:"r1"`
	R2    null.Float `json:"r2"`
	R3    null.Float `json:"r3"`
	S1    null.Float `json:"s1"`
	S2    null.Float `json:"s2"`
	S3    null.Float `json:"s3"`

	Tenkan  null.Float `json:"ichimoku_tenkan"`
	Kijun   null.Float `json:"ichimoku_kijun"`
	SenkouA null.Float `json:"ichimoku_senkou_a"`
	SenkouB null.Float `json:"ichimoku_senkou_b"`

	ADX     null.Float `json:"adx"`
	PlusDI  null.Float `json:"di_plus"`
	MinusDI null.Float `json:"di_minus"`

	VWAP null.Float `json:"vwap"`

	Divergence     Divergence `json:"divergence"`
	Score          null.Float `json:"score"`
	SignalStrength null.Float `json:"signal_strength"`
	Signal         Signal     `json:"signal"`
}

// Row returns the i-th row. Negative i counts from the end.
func (s *IndicatedSeries) Row(i int) Row {
	if i < 0 {
		i += s.Len()
	}
	c := s.Candles[i]
	at := func(col series.Series) null.Float {
		if i < len(col) {
			return col[i]
		}
		return series.Undefined
	}
	r := Row{
		Timestamp: c.Time, Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume,

		RSI: at(s.RSI), MACD: at(s.MACD), MACDSignal: at(s.MACDSignal), MACDHist: at(s.MACDHist),

		BBMiddle: at(s.BBMiddle), BBUpper: at(s.BBUpper), BBLower: at(s.BBLower),
		BBWidth: at(s.BBWidth), BBPercent: at(s.BBPercent),

		EMA9: at(s.EMA9), EMA21: at(s.EMA21), EMA50: at(s.EMA50), EMA200: at(s.EMA200),

		ATR: at(s.ATR), ATRPct: at(s.ATRPct),

		VolumeSMA: at(s.VolumeSMA), VolumeRatio: at(s.VolumeRatio), OBV: at(s.OBV),

		StochK: at(s.StochK), StochD: at(s.StochD),

		Fib0: at(s.Fib0), Fib236: at(s.Fib236), Fib382: at(s.Fib382), Fib500: at(s.Fib500),
		Fib618: at(s.Fib618), Fib786: at(s.Fib786), Fib100: at(s.Fib100),

		Pivot: at(s.Pivot), R1: at(s.R1), R2: at(s.R2), R3: at(s.R3),
		S1: at(s.S1), S2: at(s.S2), S3: at(s.S3),

		Tenkan: at(s.Tenkan), Kijun: at(s.Kijun), SenkouA: at(s.SenkouA), SenkouB: at(s.SenkouB),

		ADX: at(s.ADX), PlusDI: at(s.PlusDI), MinusDI: at(s.MinusDI),

		VWAP: at(s.VWAP),

		Divergence:     DivergenceNone,
		Score:          at(s.Score),
		SignalStrength: at(s.SignalStrength),
		Signal:         SignalNeutral,
	}
	if i < len(s.Divergence) && s.Divergence[i] != "" {
		r.Divergence = s.Divergence[i]
	}
	if i < len(s.Signal) && s.Signal[i] != "" {
		r.Signal = s.Signal[i]
	}
	return r
}

// Rows returns every row in order.
func (s *IndicatedSeries) Rows() []Row {
	out := make([]Row, s.Len())
	for i := range out {
		out[i] = s.Row(i)
	}
	return out
}
