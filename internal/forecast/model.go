// Package forecast fits a univariate model to log prices and turns its
// output into a bounded price forecast with back-test metrics.
package forecast

import (
	"context"
	"sort"
	"time"

	"github.com/guregu/null/v6"
)

// Point is one future value in log space. Lower and Upper are set only when
// the model produces native uncertainty bounds.
type Point struct {
	Time  time.Time
	Yhat  float64
	Lower null.Float
	Upper null.Float
}

// Fit is the output of one FitAndForecast call.
type Fit struct {
	Future   []Point
	InSample []float64 // fitted values aligned with the training timestamps
	Params   any       // model state persisted with the artifact
}

// Model fits (timestamps, logValues) and projects horizon points past the
// last timestamp at the series' native spacing.
type Model interface {
	Name() string
	FitAndForecast(ctx context.Context, timestamps []time.Time, logValues []float64, horizon int) (*Fit, error)
}

// medianStep returns the median gap between consecutive timestamps, one day
// when it cannot be determined.
func medianStep(ts []time.Time) time.Duration {
	if len(ts) < 2 {
		return 24 * time.Hour
	}
	gaps := make([]time.Duration, 0, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		gaps = append(gaps, ts[i].Sub(ts[i-1]))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	m := len(gaps) / 2
	step := gaps[m]
	if len(gaps)%2 == 0 {
		step = (gaps[m-1] + gaps[m]) / 2
	}
	if step <= 0 {
		return 24 * time.Hour
	}
	return step
}

// futureTimes returns horizon timestamps spaced step apart after last.
func futureTimes(last time.Time, step time.Duration, horizon int) []time.Time {
	out := make([]time.Time, horizon)
	for i := range out {
		out[i] = last.Add(time.Duration(i+1) * step)
	}
	return out
}
