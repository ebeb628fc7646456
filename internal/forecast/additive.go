package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Seasonality is a Fourier series with the given period in days.
type Seasonality struct {
	Name   string  `json:"name"`
	Period float64 `json:"period_days"`
	Order  int     `json:"order"`
}

// AdditiveModel is a piecewise-linear trend plus Fourier seasonalities,
// fitted by maximum a posteriori estimation with Gaussian priors. The fit is
// a ridge regression solved through a Cholesky factorisation, run twice so
// the second pass uses the residual variance of the first as observation
// noise. It produces point forecasts only.
type AdditiveModel struct {
	Changepoints     int
	ChangepointRange float64
	ChangepointScale float64
	SeasonalityScale float64
	TrendScale       float64
	Seasonalities    []Seasonality
}

const (
	initialNoiseVar = 1e-4
	minNoiseVar     = 1e-6
)

// NewAdditiveModel returns the model with weekly and yearly seasonality and
// no daily term.
func NewAdditiveModel() *AdditiveModel {
	return &AdditiveModel{
		Changepoints:     25,
		ChangepointRange: 0.9,
		ChangepointScale: 0.1,
		SeasonalityScale: 5,
		TrendScale:       5,
		Seasonalities: []Seasonality{
			{Name: "weekly", Period: 7, Order: 3},
			{Name: "yearly", Period: 365.25, Order: 10},
		},
	}
}

func (m *AdditiveModel) Name() string { return "additive" }

// AdditiveParams is the fitted state of an AdditiveModel. Time is scaled to
// [0,1] over the training range and values by their largest magnitude.
type AdditiveParams struct {
	Start         time.Time     `json:"start"`
	SpanSeconds   float64       `json:"span_seconds"`
	StepSeconds   float64       `json:"step_seconds"`
	YScale        float64       `json:"y_scale"`
	Changepoints  []float64     `json:"changepoints"`
	Seasonalities []Seasonality `json:"seasonalities"`
	Beta          []float64     `json:"beta"`
	NoiseVar      float64       `json:"noise_var"`
}

// width is the number of design columns: intercept, slope, one per
// changepoint, then sin/cos pairs per seasonal order.
func (p *AdditiveParams) width() int {
	w := 2 + len(p.Changepoints)
	for _, s := range p.Seasonalities {
		w += 2 * s.Order
	}
	return w
}

func (p *AdditiveParams) row(ts time.Time, dst []float64) {
	t := ts.Sub(p.Start).Seconds() / p.SpanSeconds
	dst[0] = 1
	dst[1] = t
	col := 2
	for _, c := range p.Changepoints {
		dst[col] = math.Max(0, t-c)
		col++
	}
	days := float64(ts.UnixNano()) / float64(24*time.Hour)
	for _, s := range p.Seasonalities {
		for k := 1; k <= s.Order; k++ {
			x := 2 * math.Pi * float64(k) * days / s.Period
			dst[col] = math.Sin(x)
			dst[col+1] = math.Cos(x)
			col += 2
		}
	}
}

// Predict evaluates the fitted model at ts, in the units of the training
// values.
func (p *AdditiveParams) Predict(ts time.Time) float64 {
	r := make([]float64, p.width())
	p.row(ts, r)
	sum := 0.0
	for i, b := range p.Beta {
		sum += r[i] * b
	}
	return sum * p.YScale
}

// changepoints places up to m.Changepoints candidates evenly over the first
// ChangepointRange of the history, skipping the first row.
func (m *AdditiveModel) changepoints(ts []time.Time, start time.Time, span float64) []float64 {
	hist := int(math.Floor(float64(len(ts)) * m.ChangepointRange))
	n := m.Changepoints
	if n+1 > hist {
		n = hist - 1
	}
	if n <= 0 {
		return nil
	}
	out := make([]float64, 0, n)
	for i := 1; i <= n; i++ {
		idx := int(math.RoundToEven(float64(i) * float64(hist-1) / float64(n)))
		out = append(out, ts[idx].Sub(start).Seconds()/span)
	}
	return out
}

func (m *AdditiveModel) priorScales(p *AdditiveParams) []float64 {
	scales := make([]float64, 0, p.width())
	scales = append(scales, m.TrendScale, m.TrendScale)
	for range p.Changepoints {
		scales = append(scales, m.ChangepointScale)
	}
	for _, s := range p.Seasonalities {
		for k := 0; k < 2*s.Order; k++ {
			scales = append(scales, m.SeasonalityScale)
		}
	}
	return scales
}

// FitAndForecast fits the model and projects horizon points past the last
// timestamp at the median spacing of the input.
func (m *AdditiveModel) FitAndForecast(ctx context.Context, ts []time.Time, y []float64, horizon int) (*Fit, error) {
	n := len(ts)
	if n != len(y) {
		return nil, fmt.Errorf("timestamps and values differ in length: %d vs %d", n, len(y))
	}
	if n < 2 {
		return nil, errors.New("need at least two observations")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	span := ts[n-1].Sub(ts[0]).Seconds()
	if span <= 0 {
		return nil, errors.New("timestamps do not span a positive range")
	}
	yScale := 0.0
	for _, v := range y {
		yScale = math.Max(yScale, math.Abs(v))
	}
	if yScale == 0 {
		yScale = 1
	}
	step := medianStep(ts)

	p := &AdditiveParams{
		Start:         ts[0],
		SpanSeconds:   span,
		StepSeconds:   step.Seconds(),
		YScale:        yScale,
		Seasonalities: m.Seasonalities,
	}
	p.Changepoints = m.changepoints(ts, ts[0], span)

	cols := p.width()
	X := mat.NewDense(n, cols, nil)
	r := make([]float64, cols)
	for i, t := range ts {
		p.row(t, r)
		X.SetRow(i, r)
	}
	scaled := make([]float64, n)
	for i, v := range y {
		scaled[i] = v / yScale
	}
	yv := mat.NewVecDense(n, scaled)
	priors := m.priorScales(p)

	noise := initialNoiseVar
	var beta *mat.VecDense
	var fitted mat.VecDense
	for pass := 0; pass < 2; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		beta, err = solveRidge(X, yv, priors, noise)
		if err != nil {
			return nil, err
		}
		fitted.MulVec(X, beta)
		if pass == 0 {
			noise = residualVariance(yv, &fitted)
		}
	}

	p.Beta = make([]float64, cols)
	for j := range p.Beta {
		p.Beta[j] = beta.AtVec(j)
		if math.IsNaN(p.Beta[j]) || math.IsInf(p.Beta[j], 0) {
			return nil, errors.New("fit produced non-finite coefficients")
		}
	}
	p.NoiseVar = noise

	fit := &Fit{InSample: make([]float64, n), Params: p}
	for i := range fit.InSample {
		fit.InSample[i] = fitted.AtVec(i) * yScale
	}
	for _, t := range futureTimes(ts[n-1], step, horizon) {
		yhat := p.Predict(t)
		if math.IsNaN(yhat) || math.IsInf(yhat, 0) {
			return nil, fmt.Errorf("non-finite forecast at %s", t.Format(time.RFC3339))
		}
		fit.Future = append(fit.Future, Point{Time: t, Yhat: yhat})
	}
	return fit, nil
}

// solveRidge solves (XᵀX + diag(noise/scale²)) β = Xᵀy.
func solveRidge(X *mat.Dense, y *mat.VecDense, scales []float64, noise float64) (*mat.VecDense, error) {
	_, c := X.Dims()
	var a mat.SymDense
	a.SymOuterK(1, X.T())
	for j := 0; j < c; j++ {
		a.SetSym(j, j, a.At(j, j)+noise/(scales[j]*scales[j]))
	}
	var b mat.VecDense
	b.MulVec(X.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(&a); !ok {
		return nil, errors.New("normal equations are not positive definite")
	}
	beta := mat.NewVecDense(c, nil)
	if err := chol.SolveVecTo(beta, &b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}
	return beta, nil
}

func residualVariance(y, fitted *mat.VecDense) float64 {
	n := y.Len()
	sum := 0.0
	for i := 0; i < n; i++ {
		d := y.AtVec(i) - fitted.AtVec(i)
		sum += d * d
	}
	return math.Max(sum/float64(n), minNoiseVar)
}
