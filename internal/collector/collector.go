package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/strategy"
)

// DefaultAssets is the tracked symbol set used when none is configured.
var DefaultAssets = []model.Asset{
	{Symbol: "BTC", Pair: "BTCUSDT", Name: "Bitcoin", Icon: "₿"},
	{Symbol: "ETH", Pair: "ETHUSDT", Name: "Ethereum", Icon: "Ξ"},
	{Symbol: "SOL", Pair: "SOLUSDT", Name: "Solana", Icon: "◎"},
	{Symbol: "XRP", Pair: "XRPUSDT", Name: "XRP", Icon: "✕"},
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher Fetcher
	Assets  []model.Asset
	Metrics *metrics.Metrics
}

// NewCollector creates a new Collector. An empty asset list selects
// DefaultAssets.
func NewCollector(fetcher Fetcher, assets []model.Asset, m *metrics.Metrics) *Collector {
	if len(assets) == 0 {
		assets = DefaultAssets
	}
	return &Collector{Fetcher: fetcher, Assets: assets, Metrics: m}
}

// Resolve looks up a user symbol such as "btc" and returns its asset.
func (c *Collector) Resolve(symbol string) (model.Asset, error) {
	want := strings.ToUpper(strings.TrimSpace(symbol))
	for _, a := range c.Assets {
		if a.Symbol == want {
			return a, nil
		}
	}
	return model.Asset{}, fmt.Errorf("%w: %q", model.ErrUnknownSymbol, symbol)
}

// Symbols lists the tracked user symbols in configured order.
func (c *Collector) Symbols() []string {
	out := make([]string, len(c.Assets))
	for i, a := range c.Assets {
		out[i] = a.Symbol
	}
	return out
}

// Fetch returns the raw candle series for a symbol.
func (c *Collector) Fetch(ctx context.Context, symbol string, interval model.Interval, lookback time.Duration) (model.PriceSeries, error) {
	asset, err := c.Resolve(symbol)
	if err != nil {
		return model.PriceSeries{}, err
	}
	if !interval.Valid() {
		return model.PriceSeries{}, fmt.Errorf("unsupported interval %q", interval)
	}

	start := time.Now()
	bars, err := c.Fetcher.FetchCandles(ctx, asset.Pair, interval, lookback)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), interval, time.Since(start), err)
	if err != nil {
		log.Printf("[WARN] fetch %s %s from %s: %v", asset.Pair, interval, c.Fetcher.Name(), err)
		return model.PriceSeries{}, fmt.Errorf("%w: fetch %s %s: %w", model.ErrDataUnavailable, asset.Pair, interval, err)
	}
	if len(bars) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: no candles for %s %s", model.ErrDataUnavailable, asset.Pair, interval)
	}
	return model.PriceSeries{
		Symbol:    asset.Symbol,
		Interval:  interval,
		Candles:   bars,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Collect fetches market data and computes all indicators and signals.
func (c *Collector) Collect(ctx context.Context, symbol string, interval model.Interval, lookback time.Duration) (*model.IndicatedSeries, error) {
	p, err := c.Fetch(ctx, symbol, interval, lookback)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	s := strategy.Analyze(p)
	c.Metrics.ObservePipeline(time.Since(start))
	return s, nil
}

// LatestPrice returns the last traded price for a symbol.
func (c *Collector) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	asset, err := c.Resolve(symbol)
	if err != nil {
		return 0, err
	}
	price, err := c.Fetcher.FetchLatestPrice(ctx, asset.Pair)
	if err != nil {
		return 0, fmt.Errorf("%w: latest price %s: %w", model.ErrDataUnavailable, asset.Pair, err)
	}
	return price, nil
}
