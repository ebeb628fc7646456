package collector

import (
	"context"
	"math"
	"time"

	"CryptoSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price   float64
	Candles []model.OHLCV
	Err     error
	// End is the open time of the last generated bar; zero means now.
	End time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCandles(_ context.Context, _ string, interval model.Interval, lookback time.Duration) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Candles != nil {
		return normalize(append([]model.OHLCV(nil), m.Candles...)), nil
	}
	step := interval.Duration()
	end := m.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(step)
	}
	return generateMockBars(m.Price, int(lookback/step), step, end), nil
}

func (m *MockFetcher) FetchLatestPrice(_ context.Context, _ string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	if n := len(m.Candles); n > 0 {
		return m.Candles[n-1].Close, nil
	}
	return m.Price, nil
}

// generateMockBars draws a slow drift with a superimposed cycle so that
// oscillators move through their zones.
func generateMockBars(basePrice float64, count int, step time.Duration, end time.Time) []model.OHLCV {
	if count < 1 {
		count = 1
	}
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001 + 0.05*math.Sin(float64(i)/8))
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000 * (1 + 0.5*math.Cos(float64(i)/5)),
		}
	}
	return bars
}
