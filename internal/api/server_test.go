package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoSentinel/internal/collector"
	"CryptoSentinel/internal/forecast"
	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var end = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func setupTestServer(f collector.Fetcher) *Server {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	return &Server{
		Collector:      collector.NewCollector(f, nil, m),
		Forecaster:     forecast.NewForecaster(forecast.NewAdditiveModel(), nil, m),
		Metrics:        m,
		Gatherer:       reg,
		Interval:       model.Interval1d,
		Lookback:       120 * 24 * time.Hour,
		Days:           forecast.DefaultDays,
		PredictTimeout: 30 * time.Second,
	}
}

func do(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleHealth(t *testing.T) {
	w := do(t, setupTestServer(&collector.MockFetcher{Price: 100, End: end}), "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"source":"mock"`)
}

func TestHandleSymbols(t *testing.T) {
	w := do(t, setupTestServer(&collector.MockFetcher{Price: 100, End: end}), "/api/symbols")
	require.Equal(t, http.StatusOK, w.Code)
	var assets []model.Asset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assets))
	assert.Len(t, assets, 4)
}

func TestHandlePrices(t *testing.T) {
	s := setupTestServer(&collector.MockFetcher{Price: 100, End: end})

	w := do(t, s, "/api/prices/btc?lookback=300d")
	require.Equal(t, http.StatusOK, w.Code)
	var resp PricesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BTC", resp.Symbol)
	assert.Equal(t, model.Interval1d, resp.Interval)
	assert.Len(t, resp.Rows, priceRows)
	assert.Equal(t, "BTC", resp.Summary.Symbol)
	assert.NotEmpty(t, resp.Summary.Signal)
	assert.Equal(t, end, resp.Rows[len(resp.Rows)-1].Timestamp.UTC())

	var raw struct {
		Rows []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	last := raw.Rows[len(raw.Rows)-1]
	for _, key := range []string{"timestamp", "rsi", "macd_hist", "di_plus", "fib_618", "signal_strength", "signal", "divergence"} {
		assert.Contains(t, last, key)
	}
}

func TestHandlePrices_BadRequests(t *testing.T) {
	s := setupTestServer(&collector.MockFetcher{Price: 100, End: end})
	tests := []struct {
		path string
		code string
	}{
		{"/api/prices/BTC?interval=15m", "invalid_interval"},
		{"/api/prices/BTC?lookback=someday", "invalid_lookback"},
		{"/api/prices/DOGE", "unknown_symbol"},
	}
	for _, tt := range tests {
		w := do(t, s, tt.path)
		assert.Equal(t, http.StatusBadRequest, w.Code, tt.path)
		assert.Equal(t, tt.code, decodeError(t, w).Error, tt.path)
	}
}

func TestHandlePrices_UpstreamFailure(t *testing.T) {
	s := setupTestServer(&collector.MockFetcher{Err: errors.New("connection refused")})
	w := do(t, s, "/api/prices/BTC")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "data_unavailable", decodeError(t, w).Error)
}

func TestHandleLatestPrice(t *testing.T) {
	w := do(t, setupTestServer(&collector.MockFetcher{Price: 42000.5}), "/api/price/BTC/latest")
	require.Equal(t, http.StatusOK, w.Code)
	var resp LatestPriceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BTCUSDT", resp.Pair)
	assert.Equal(t, 42000.5, resp.Price)
}

func TestHandlePredict(t *testing.T) {
	s := setupTestServer(&collector.MockFetcher{Price: 100, End: end})
	w := do(t, s, "/api/predict/eth?days=3")
	require.Equal(t, http.StatusOK, w.Code)

	var res model.ForecastResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "ETH", res.Symbol)
	assert.Equal(t, 3, res.PredictionDays)
	require.Len(t, res.Predictions, 3)
	assert.Equal(t, "2025-07-01", res.Predictions[0].Date)
	assert.Contains(t, []model.ForecastDirection{model.DirectionUp, model.DirectionDown}, res.Direction)
}

func TestHandlePredict_Errors(t *testing.T) {
	short := make([]model.OHLCV, 10)
	for i := range short {
		short[i] = model.OHLCV{Time: end.AddDate(0, 0, i), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}
	}
	tests := []struct {
		name    string
		fetcher collector.Fetcher
		path    string
		status  int
		code    string
	}{
		{"days too large", &collector.MockFetcher{Price: 100, End: end}, "/api/predict/BTC?days=31", http.StatusBadRequest, "invalid_days"},
		{"days not a number", &collector.MockFetcher{Price: 100, End: end}, "/api/predict/BTC?days=week", http.StatusBadRequest, "invalid_days"},
		{"unknown symbol", &collector.MockFetcher{Price: 100, End: end}, "/api/predict/DOGE", http.StatusBadRequest, "unknown_symbol"},
		{"too little history", &collector.MockFetcher{Candles: short}, "/api/predict/BTC", http.StatusUnprocessableEntity, "data_insufficient"},
		{"upstream down", &collector.MockFetcher{Err: errors.New("503")}, "/api/predict/BTC", http.StatusBadGateway, "data_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, setupTestServer(tt.fetcher), tt.path)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Error)
		})
	}
}

func TestHandleDashboard(t *testing.T) {
	w := do(t, setupTestServer(&collector.MockFetcher{Price: 100, End: end}), "/api/dashboard/SOL")
	require.Equal(t, http.StatusOK, w.Code)
	var resp DashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Solana", resp.Asset.Name)
	assert.Len(t, resp.Rows, dashboardRows)
	assert.Equal(t, "SOL", resp.Summary.Symbol)

	last := resp.Rows[len(resp.Rows)-1]
	require.True(t, last.Score.Valid)
	total := 0.0
	for _, d := range resp.Drivers {
		assert.NotEmpty(t, d.Rule)
		total += d.Delta
	}
	assert.InDelta(t, last.Score.Float64, total, 1e-9)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(&collector.MockFetcher{Price: 100, End: end})
	router := s.Router()
	for _, path := range []string{"/api/prices/BTC", "/metrics"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, path)
		if path == "/metrics" {
			assert.Contains(t, w.Body.String(), `sentinel_http_requests_total{code="2xx",route="/api/prices/:symbol"} 1`)
			assert.Contains(t, w.Body.String(), "sentinel_pipeline_duration_seconds")
		}
	}
}
