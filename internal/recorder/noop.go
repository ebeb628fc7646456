package recorder

import (
	"context"

	"CryptoSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(context.Context, *SignalSnapshot) error         { return nil }
func (n *NoopRecorder) RecordForecast(context.Context, *model.ForecastResult) error { return nil }
func (n *NoopRecorder) LastSignal(context.Context, string) (model.Signal, error)    { return "", nil }
func (n *NoopRecorder) Close() error                                                { return nil }
