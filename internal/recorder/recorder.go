package recorder

import (
	"context"
	"time"

	"CryptoSentinel/internal/model"
)

// SignalSnapshot is one evaluated summary for a symbol.
type SignalSnapshot struct {
	Symbol   string
	Interval model.Interval
	At       time.Time
	Summary  model.Summary
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSignal(ctx context.Context, snap *SignalSnapshot) error
	RecordForecast(ctx context.Context, res *model.ForecastResult) error
	// LastSignal returns the most recently recorded label for a symbol, or
	// "" when none exists.
	LastSignal(ctx context.Context, symbol string) (model.Signal, error)
	Close() error
}
