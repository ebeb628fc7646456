package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/model"
)

const (
	// MinRows is the fewest valid closes a forecast will fit on.
	MinRows = 15
	// DefaultDays is the horizon used when none is given.
	DefaultDays = 7
	MaxDays     = 30

	bandPct      = 0.05
	evalFraction = 0.2
	maxChangePct = 50.0
	perDayChange = 5.0
)

// ErrInvalidHorizon is returned for a horizon outside 1..MaxDays.
var ErrInvalidHorizon = errors.New("prediction days must be between 1 and 30")

// Forecaster runs a Model over a candle series and shapes its output.
type Forecaster struct {
	model   Model
	store   Store
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewForecaster returns a Forecaster. A nil store discards artifacts.
func NewForecaster(m Model, store Store, mt *metrics.Metrics) *Forecaster {
	if store == nil {
		store = NoopStore{}
	}
	return &Forecaster{model: m, store: store, metrics: mt, now: time.Now}
}

// WithClock replaces the clock used for result timestamps.
func (f *Forecaster) WithClock(now func() time.Time) *Forecaster {
	f.now = now
	return f
}

// Train fits the model to ln(close) and returns a forecast of days points.
// A days value of 0 selects DefaultDays.
func (f *Forecaster) Train(ctx context.Context, symbol string, candles []model.OHLCV, days int) (*model.ForecastResult, error) {
	start := time.Now()
	res, err := f.train(ctx, symbol, candles, days)
	f.metrics.ObserveForecast(symbol, time.Since(start), res, err)
	return res, err
}

func (f *Forecaster) train(ctx context.Context, symbol string, candles []model.OHLCV, days int) (*model.ForecastResult, error) {
	if days == 0 {
		days = DefaultDays
	}
	if days < 1 || days > MaxDays {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, days)
	}

	ts := make([]time.Time, 0, len(candles))
	y := make([]float64, 0, len(candles))
	for _, c := range candles {
		if math.IsNaN(c.Close) || math.IsInf(c.Close, 0) || c.Close <= 0 {
			continue
		}
		ts = append(ts, c.Time)
		y = append(y, math.Log(c.Close))
	}
	n := len(y)
	if n < MinRows {
		return nil, fmt.Errorf("%w: %d valid rows for %s, need %d", model.ErrDataInsufficient, n, symbol, MinRows)
	}

	fit, err := f.model.FitAndForecast(ctx, ts, y, days)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &model.ModelFitError{Symbol: symbol, Rows: n, Err: err}
	}
	if len(fit.InSample) != n {
		return nil, &model.ModelFitError{Symbol: symbol, Rows: n,
			Err: fmt.Errorf("model returned %d fitted values for %d rows", len(fit.InSample), n)}
	}

	step := medianStep(ts)
	predictions := make([]model.Prediction, 0, len(fit.Future))
	for _, pt := range fit.Future {
		price := math.Exp(pt.Yhat)
		lower, upper := price*(1-bandPct), price*(1+bandPct)
		if pt.Lower.Valid && pt.Upper.Valid && math.Exp(pt.Lower.Float64) != price {
			lower, upper = math.Exp(pt.Lower.Float64), math.Exp(pt.Upper.Float64)
		}
		predictions = append(predictions, model.Prediction{
			Date:           formatDate(pt.Time, step),
			PredictedPrice: round2(price),
			LowerBound:     round2(lower),
			UpperBound:     round2(upper),
		})
	}

	current := math.Exp(y[n-1])
	result := &model.ForecastResult{
		RunID:          uuid.NewString(),
		Model:          f.model.Name(),
		Symbol:         symbol,
		CurrentPrice:   round2(current),
		Predictions:    predictions,
		Metrics:        backtest(y, fit.InSample),
		TrainedOn:      n,
		PredictionDays: days,
		Timestamp:      f.now(),
	}

	change := (result.FinalPrice() - current) / current * 100
	limit := math.Min(maxChangePct, float64(days)*perDayChange)
	change = math.Max(-limit, math.Min(limit, change))
	result.PredictedChangePct = round2(change)
	result.Direction = model.DirectionDown
	if change > 0 {
		result.Direction = model.DirectionUp
	}

	f.persist(ctx, result, fit)

	log.Printf("[INFO] forecast %s: %s %.2f%% (%.2f -> %.2f) rmse=%.2f mae=%.2f mape=%.2f%%",
		symbol, result.Direction, math.Abs(result.PredictedChangePct), result.CurrentPrice,
		result.FinalPrice(), result.Metrics.RMSE, result.Metrics.MAE, result.Metrics.MAPE)
	return result, nil
}

// persist saves the fit. Failures are logged and never fail the forecast.
func (f *Forecaster) persist(ctx context.Context, res *model.ForecastResult, fit *Fit) {
	params, err := json.Marshal(fit.Params)
	if err != nil {
		log.Printf("[WARN] encode model params for %s: %v", res.Symbol, err)
		return
	}
	a := &Artifact{
		RunID:     res.RunID,
		Model:     res.Model,
		Symbol:    res.Symbol,
		Rows:      res.TrainedOn,
		TrainedAt: res.Timestamp,
		Params:    params,
	}
	if err := f.store.Save(ctx, a); err != nil {
		log.Printf("[WARN] save model artifact for %s: %v", res.Symbol, err)
	}
}

// backtest compares the trailing evalFraction of the fitted values with the
// actual values, both converted back to prices.
func backtest(y, fitted []float64) model.ForecastMetrics {
	n := len(y)
	size := int(float64(n) * evalFraction)
	if size < 1 {
		size = 1
	}
	var absSum, sqSum, pctSum float64
	for i := n - size; i < n; i++ {
		actual := math.Exp(y[i])
		pred := math.Exp(fitted[i])
		d := actual - pred
		absSum += math.Abs(d)
		sqSum += d * d
		pctSum += math.Abs(d / actual)
	}
	k := float64(size)
	return model.ForecastMetrics{
		MAE:  round2(absSum / k),
		RMSE: round2(math.Sqrt(sqSum / k)),
		MAPE: round2(pctSum / k * 100),
	}
}

// formatDate renders a forecast date, with a clock time for sub-daily series.
func formatDate(t time.Time, step time.Duration) string {
	if step < 24*time.Hour {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return t.UTC().Format("2006-01-02")
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
