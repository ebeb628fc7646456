package collector

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"CryptoSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data. Symbols are
// exchange pairs such as BTCUSDT.
type Fetcher interface {
	FetchCandles(ctx context.Context, pair string, interval model.Interval, lookback time.Duration) ([]model.OHLCV, error)
	FetchLatestPrice(ctx context.Context, pair string) (float64, error)
	Name() string
}

// normalize sorts bars ascending and collapses duplicate timestamps, the
// later bar winning.
func normalize(bars []model.OHLCV) []model.OHLCV {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

var (
	agoPattern   = regexp.MustCompile(`^(\d+)\s+(minute|hour|day|week|month|year)s?\s+ago(\s+utc)?$`)
	shortPattern = regexp.MustCompile(`^(\d+)([dw])$`)
)

// ParseLookback accepts a Go duration ("720h"), a day or week count ("90d",
// "4w") or the exchange-style "90 days ago UTC".
func ParseLookback(s string) (time.Duration, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if m := agoPattern.FindStringSubmatch(v); m != nil {
		n, _ := strconv.Atoi(m[1])
		return positive(s, time.Duration(n)*unit(m[2]))
	}
	if m := shortPattern.FindStringSubmatch(v); m != nil {
		n, _ := strconv.Atoi(m[1])
		return positive(s, time.Duration(n)*unit(map[string]string{"d": "day", "w": "week"}[m[2]]))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid lookback %q", s)
	}
	return positive(s, d)
}

func unit(name string) time.Duration {
	const day = 24 * time.Hour
	switch name {
	case "minute":
		return time.Minute
	case "hour":
		return time.Hour
	case "week":
		return 7 * day
	case "month":
		return 30 * day
	case "year":
		return 365 * day
	default:
		return day
	}
}

func positive(s string, d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, fmt.Errorf("lookback %q must be positive", s)
	}
	return d, nil
}

// NewFetcher builds the market data source named by source: "binance",
// "yahoo" or "mock".
func NewFetcher(source, apiKey, apiSecret, proxyURL string) (Fetcher, error) {
	switch source {
	case "binance":
		return NewBinanceFetcher(apiKey, apiSecret, proxyURL), nil
	case "yahoo":
		return NewYahooFetcher(proxyURL), nil
	case "mock":
		return &MockFetcher{Price: 50000}, nil
	default:
		return nil, fmt.Errorf("unknown market source %q", source)
	}
}
