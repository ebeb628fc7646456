package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"CryptoSentinel/internal/model"
)

// klinePageSize is the most candles Binance returns per request.
const klinePageSize = 1000

// BinanceFetcher implements Fetcher using the Binance spot REST API.
// Keys are optional; public market data does not need them.
type BinanceFetcher struct {
	Client *binance.Client
	now    func() time.Time
}

// NewBinanceFetcher creates a Binance fetcher, optionally routed through a proxy.
func NewBinanceFetcher(apiKey, secret, proxyURL string) *BinanceFetcher {
	client := binance.NewClient(apiKey, secret)
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client.HTTPClient = &http.Client{Timeout: 30 * time.Second, Transport: transport}
	return &BinanceFetcher{Client: client, now: time.Now}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// FetchCandles pages through klines from now-lookback until the exchange
// returns a short page.
func (f *BinanceFetcher) FetchCandles(ctx context.Context, pair string, interval model.Interval, lookback time.Duration) ([]model.OHLCV, error) {
	if !interval.Valid() {
		return nil, fmt.Errorf("binance: unsupported interval %q", interval)
	}
	start := f.now().Add(-lookback).UnixMilli()
	var bars []model.OHLCV

	for {
		klines, err := f.Client.NewKlinesService().
			Symbol(pair).
			Interval(string(interval)).
			StartTime(start).
			Limit(klinePageSize).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("binance klines %s %s: %w", pair, interval, err)
		}
		for _, k := range klines {
			bar, err := klineToBar(k)
			if err != nil {
				return nil, fmt.Errorf("binance klines %s: %w", pair, err)
			}
			bars = append(bars, bar)
		}
		if len(klines) < klinePageSize {
			break
		}
		next := klines[len(klines)-1].OpenTime + 1
		if next <= start {
			break
		}
		start = next
	}
	return normalize(bars), nil
}

// FetchLatestPrice returns the last traded price for the pair.
func (f *BinanceFetcher) FetchLatestPrice(ctx context.Context, pair string) (float64, error) {
	prices, err := f.Client.NewListPricesService().Symbol(pair).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("binance price %s: %w", pair, err)
	}
	for _, p := range prices {
		if p.Symbol != "" && p.Symbol != pair {
			continue
		}
		v, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			return 0, fmt.Errorf("binance price %s: %w", pair, err)
		}
		return v, nil
	}
	return 0, fmt.Errorf("%w: binance returned no price for %s", model.ErrDataUnavailable, pair)
}

func klineToBar(k *binance.Kline) (model.OHLCV, error) {
	fields := [5]string{k.Open, k.High, k.Low, k.Close, k.Volume}
	var vals [5]float64
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.OHLCV{}, fmt.Errorf("kline at %d: %w", k.OpenTime, err)
		}
		vals[i] = v
	}
	return model.OHLCV{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}
