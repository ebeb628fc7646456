package model

import "time"

// ForecastDirection is the sign of the predicted move.
type ForecastDirection string

const (
	DirectionUp   ForecastDirection = "UP"
	DirectionDown ForecastDirection = "DOWN"
)

// Prediction is one future point of a forecast, in price space.
type Prediction struct {
	Date           string  `json:"date"`
	PredictedPrice float64 `json:"predicted_price"`
	LowerBound     float64 `json:"lower_bound"`
	UpperBound     float64 `json:"upper_bound"`
}

// ForecastMetrics are in-sample back-test errors in price space.
type ForecastMetrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
}

// ForecastResult is the output of one training invocation.
type ForecastResult struct {
	RunID              string            `json:"run_id"`
	Model              string            `json:"model"`
	Symbol             string            `json:"symbol"`
	CurrentPrice       float64           `json:"current_price"`
	Predictions        []Prediction      `json:"predictions"`
	PredictedChangePct float64           `json:"predicted_change_pct"`
	Direction          ForecastDirection `json:"direction"`
	Metrics            ForecastMetrics   `json:"metrics"`
	TrainedOn          int               `json:"trained_on"`
	PredictionDays     int               `json:"prediction_days"`
	Timestamp          time.Time         `json:"timestamp"`
}

// FinalPrice returns the last predicted price, or the current price when
// there are no predictions.
func (r ForecastResult) FinalPrice() float64 {
	if len(r.Predictions) == 0 {
		return r.CurrentPrice
	}
	return r.Predictions[len(r.Predictions)-1].PredictedPrice
}
