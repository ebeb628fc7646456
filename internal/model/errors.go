package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDataInsufficient means a computation got fewer rows than it needs.
	ErrDataInsufficient = errors.New("insufficient data")
	// ErrDataUnavailable means the upstream source returned nothing or failed.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrUnknownSymbol means the symbol is not in the registry.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// ModelFitError reports a failed forecast fit. It is terminal for the
// invocation that produced it.
type ModelFitError struct {
	Symbol string
	Rows   int
	Err    error
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("model fit failed for %s (%d rows): %v", e.Symbol, e.Rows, e.Err)
}

func (e *ModelFitError) Unwrap() error { return e.Err }
