// Command train fits forecasts for one or all tracked symbols, prints the
// predicted path and saves the fitted model.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"CryptoSentinel/internal/collector"
	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/forecast"
	"CryptoSentinel/internal/model"
)

var (
	cfgPath    string
	symbolFlag string
	interval   string
	lookback   string
	days       int
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	root := &cobra.Command{
		Use:   "train",
		Short: "Fit price forecasts for tracked symbols",
		Long: `Fetches candles, fits the additive forecast model to log closes and prints
the predicted path with back-test errors. The fitted model is saved to the
configured store.`,
		SilenceUsage: true,
		RunE:         runTrain,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "configs/config.yaml", "config file")
	root.PersistentFlags().StringVarP(&symbolFlag, "symbol", "s", "BTC", `symbol to train, or "all"`)
	root.Flags().StringVarP(&interval, "interval", "i", "", "candle interval (1h, 4h, 1d)")
	root.Flags().StringVarP(&lookback, "lookback", "l", "", `history to fetch, e.g. "365d" or "365 days ago UTC"`)
	root.Flags().IntVarP(&days, "days", "d", 0, "prediction horizon in days (1-30)")

	root.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Show the saved model for a symbol",
		RunE:  runInspect,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if interval != "" {
		cfg.Market.Interval = model.Interval(interval)
	}
	if lookback != "" {
		cfg.Market.Lookback = lookback
	}
	if days != 0 {
		cfg.Forecast.PredictionDays = days
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func symbols(col *collector.Collector) ([]string, error) {
	if strings.EqualFold(symbolFlag, "all") {
		return col.Symbols(), nil
	}
	asset, err := col.Resolve(symbolFlag)
	if err != nil {
		return nil, err
	}
	return []string{asset.Symbol}, nil
}

func runTrain(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	window, _ := collector.ParseLookback(cfg.Market.Lookback)

	fetcher, err := collector.NewFetcher(cfg.Market.Source, cfg.Market.APIKey, cfg.Market.APISecret, cfg.Proxy)
	if err != nil {
		return err
	}
	col := collector.NewCollector(fetcher, cfg.Market.Assets, nil)
	store, err := forecast.OpenStore(ctx, cfg.Forecast.Store, cfg.Forecast.ModelDir, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	fc := forecast.NewForecaster(forecast.NewAdditiveModel(), store, nil)

	syms, err := symbols(col)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	results := make(map[string]*model.ForecastResult)
	failures := make(map[string]error)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, sym := range syms {
		g.Go(func() error {
			p, err := col.Fetch(gctx, sym, cfg.Market.Interval, window)
			var res *model.ForecastResult
			if err == nil {
				log.Printf("[INFO] training %s on %d candles", sym, p.Len())
				res, err = fc.Train(gctx, sym, p.Candles, cfg.Forecast.PredictionDays)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[sym] = err
				return nil
			}
			results[sym] = res
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	for _, sym := range syms {
		if res, ok := results[sym]; ok {
			asset, _ := col.Resolve(sym)
			renderForecast(out, asset, res)
		}
	}
	renderSummary(out, syms, results, failures)

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d symbols failed", len(failures), len(syms))
	}
	return nil
}

func runInspect(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	store, err := forecast.OpenStore(ctx, cfg.Forecast.Store, cfg.Forecast.ModelDir, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	col := collector.NewCollector(nil, cfg.Market.Assets, nil)
	syms, err := symbols(col)
	if err != nil {
		return err
	}
	for _, sym := range syms {
		a, err := store.Load(ctx, sym)
		if err != nil {
			return fmt.Errorf("load %s: %w", sym, err)
		}
		if err := renderArtifact(cmd.OutOrStdout(), a); err != nil {
			return err
		}
	}
	return nil
}
