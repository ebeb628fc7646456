// Package api serves indicated price series, signal summaries and forecasts
// over HTTP.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"CryptoSentinel/internal/collector"
	"CryptoSentinel/internal/forecast"
	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/strategy"
	"CryptoSentinel/internal/summary"
)

const (
	priceRows     = 200
	dashboardRows = 90
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Collector      *collector.Collector
	Forecaster     *forecast.Forecaster
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Interval       model.Interval
	Lookback       time.Duration
	Days           int
	PredictTimeout time.Duration
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// PricesResponse carries indicated rows and the latest summary.
type PricesResponse struct {
	Symbol   string         `json:"symbol"`
	Interval model.Interval `json:"interval"`
	Rows     []model.Row    `json:"rows"`
	Summary  model.Summary  `json:"summary"`
}

// LatestPriceResponse is the last traded price of a symbol.
type LatestPriceResponse struct {
	Symbol    string    `json:"symbol"`
	Pair      string    `json:"pair"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// DashboardResponse combines the summary with a short chart window. Drivers
// are the scoring rules that fired on the latest row.
type DashboardResponse struct {
	Asset    model.Asset             `json:"asset"`
	Interval model.Interval          `json:"interval"`
	Summary  model.Summary           `json:"summary"`
	Drivers  []strategy.Contribution `json:"drivers"`
	Rows     []model.Row             `json:"rows"`
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe())

	r.GET("/health", s.handleHealth)
	if s.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/symbols", s.handleSymbols)
	api.GET("/prices/:symbol", s.handlePrices)
	api.GET("/price/:symbol/latest", s.handleLatestPrice)
	api.GET("/predict/:symbol", s.handlePredict)
	api.GET("/dashboard/:symbol", s.handleDashboard)
	return r
}

// observe records request counts and latency per matched route.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.Metrics.ObserveRequest(route, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"source":    s.Collector.Fetcher.Name(),
		"symbols":   s.Collector.Symbols(),
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, s.Collector.Assets)
}

func (s *Server) handlePrices(c *gin.Context) {
	interval := s.Interval
	if v := c.Query("interval"); v != "" {
		interval = model.Interval(v)
		if !interval.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_interval", Message: "interval must be 1h, 4h or 1d"})
			return
		}
	}
	lookback := s.Lookback
	if v := c.Query("lookback"); v != "" {
		d, err := collector.ParseLookback(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_lookback", Message: err.Error()})
			return
		}
		lookback = d
	}

	series, err := s.Collector.Collect(c.Request.Context(), c.Param("symbol"), interval, lookback)
	if err != nil {
		s.fail(c, err)
		return
	}
	sum := summary.Build(series)
	sum.Symbol = series.Symbol
	c.JSON(http.StatusOK, PricesResponse{
		Symbol:   series.Symbol,
		Interval: interval,
		Rows:     series.Tail(priceRows).Rows(),
		Summary:  sum,
	})
}

func (s *Server) handleLatestPrice(c *gin.Context) {
	asset, err := s.Collector.Resolve(c.Param("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	price, err := s.Collector.LatestPrice(c.Request.Context(), asset.Symbol)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, LatestPriceResponse{
		Symbol:    asset.Symbol,
		Pair:      asset.Pair,
		Price:     price,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handlePredict(c *gin.Context) {
	days := s.Days
	if v := c.Query("days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 || d > forecast.MaxDays {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_days", Message: forecast.ErrInvalidHorizon.Error()})
			return
		}
		days = d
	}

	ctx := c.Request.Context()
	if s.PredictTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.PredictTimeout)
		defer cancel()
	}

	p, err := s.Collector.Fetch(ctx, c.Param("symbol"), s.Interval, s.Lookback)
	if err != nil {
		s.fail(c, err)
		return
	}
	res, err := s.Forecaster.Train(ctx, p.Symbol, p.Candles, days)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleDashboard(c *gin.Context) {
	asset, err := s.Collector.Resolve(c.Param("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	series, err := s.Collector.Collect(c.Request.Context(), asset.Symbol, s.Interval, s.Lookback)
	if err != nil {
		s.fail(c, err)
		return
	}
	sum := summary.Build(series)
	sum.Symbol = asset.Symbol
	c.JSON(http.StatusOK, DashboardResponse{
		Asset:    asset,
		Interval: s.Interval,
		Summary:  sum,
		Drivers:  strategy.Contributions(series, -1),
		Rows:     series.Tail(dashboardRows).Rows(),
	})
}

// fail maps domain errors to HTTP status codes.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal"
	var fitErr *model.ModelFitError
	switch {
	case errors.Is(err, model.ErrUnknownSymbol):
		status, code = http.StatusBadRequest, "unknown_symbol"
	case errors.Is(err, forecast.ErrInvalidHorizon):
		status, code = http.StatusBadRequest, "invalid_days"
	case errors.Is(err, model.ErrDataInsufficient):
		status, code = http.StatusUnprocessableEntity, "data_insufficient"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, model.ErrDataUnavailable):
		status, code = http.StatusBadGateway, "data_unavailable"
	case errors.As(err, &fitErr):
		code = "model_fit"
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
}
