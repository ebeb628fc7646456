package model

// Signal is the categorical trading label derived from signal strength.
type Signal string

const (
	SignalStrongBuy  Signal = "STRONG_BUY"
	SignalBuy        Signal = "BUY"
	SignalNeutral    Signal = "NEUTRAL"
	SignalSell       Signal = "SELL"
	SignalStrongSell Signal = "STRONG_SELL"
)

// Strong reports whether the label is one of the two extreme tiers.
func (s Signal) Strong() bool {
	return s == SignalStrongBuy || s == SignalStrongSell
}

// Divergence labels a price/RSI disagreement.
type Divergence string

const (
	DivergenceNone    Divergence = "NONE"
	DivergenceBullish Divergence = "BULLISH_DIV"
	DivergenceBearish Divergence = "BEARISH_DIV"
)

// Direction is the stance an active rule takes.
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

// ActiveRule is one human-readable explanation in a Summary.
type ActiveRule struct {
	Rule        string    `json:"rule"`
	Direction   Direction `json:"direction"`
	Explanation string    `json:"explanation"`
}

// Summary is the latest-row snapshot of an indicated series with rounded
// values and the rules that currently apply.
type Summary struct {
	Symbol      string       `json:"symbol,omitempty"`
	Price       float64      `json:"price"`
	ChangePct   float64      `json:"change_pct"`
	RSI         float64      `json:"rsi"`
	MACD        float64      `json:"macd"`
	MACDSignal  float64      `json:"macd_signal"`
	MACDHist    float64      `json:"macd_hist"`
	BBUpper     float64      `json:"bb_upper"`
	BBLower     float64      `json:"bb_lower"`
	BBWidth     float64      `json:"bb_width"`
	BBPercent   float64      `json:"bb_percent"`
	ATR         float64      `json:"atr"`
	ATRPct      float64      `json:"atr_pct"`
	ADX         float64      `json:"adx"`
	StochK      float64      `json:"stoch_k"`
	EMA9        float64      `json:"ema_9"`
	EMA21       float64      `json:"ema_21"`
	EMA50       float64      `json:"ema_50"`
	EMA200      float64      `json:"ema_200"`
	VolumeRatio float64      `json:"volume_ratio"`
	Pivot       float64      `json:"pivot"`
	R1          float64      `json:"r1"`
	S1          float64      `json:"s1"`
	Fib618      float64      `json:"fib_618"`
	Fib382      float64      `json:"fib_382"`
	Score       float64      `json:"score"`
	Signal      Signal       `json:"signal"`
	ActiveRules []ActiveRule `json:"active_rules"`
}

// IsEmpty reports whether the summary was built from an empty series.
func (s Summary) IsEmpty() bool { return s.Signal == "" }
