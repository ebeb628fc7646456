package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"CryptoSentinel/internal/collector"
	"CryptoSentinel/internal/forecast"
	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/notifier"
	"CryptoSentinel/internal/recorder"
	"CryptoSentinel/internal/summary"
)

// maxConcurrent bounds parallel upstream fetches.
const maxConcurrent = 4

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Forecaster *forecast.Forecaster
	Notifier   notifier.Notifier
	Recorder   recorder.Recorder
	Metrics    *metrics.Metrics
	Interval   model.Interval
	Lookback   time.Duration
	Days       int
	Ctx        context.Context

	mu   sync.Mutex
	last map[string]model.Signal
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, fc *forecast.Forecaster, n notifier.Notifier, rec recorder.Recorder, m *metrics.Metrics) *Scheduler {
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Collector:  col,
		Forecaster: fc,
		Notifier:   n,
		Recorder:   rec,
		Metrics:    m,
		Interval:   model.Interval1d,
		Lookback:   90 * 24 * time.Hour,
		Days:       forecast.DefaultDays,
		Ctx:        ctx,
		last:       make(map[string]model.Signal),
	}
}

// RegisterAll registers the signal refresh and forecast retrain tasks.
func (s *Scheduler) RegisterAll(refreshCron, forecastCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, func() { s.Refresh(s.Ctx) }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(forecastCron, func() { s.Retrain(s.Ctx) }); err != nil {
		return fmt.Errorf("register forecast task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// Refresh recomputes the summary of every tracked symbol concurrently,
// records it and announces strong-tier transitions. Failed symbols are
// logged and left out of the result.
func (s *Scheduler) Refresh(ctx context.Context) map[string]model.Summary {
	log.Println("[INFO] running signal refresh")
	symbols := s.Collector.Symbols()
	results := make([]model.Summary, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, sym := range symbols {
		g.Go(func() error {
			sum, err := s.refreshSymbol(gctx, sym)
			if err != nil {
				log.Printf("[ERROR] refresh %s: %v", sym, err)
				return nil
			}
			results[i] = sum
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]model.Summary, len(symbols))
	for i, sym := range symbols {
		if !results[i].IsEmpty() {
			out[sym] = results[i]
		}
	}
	log.Printf("[INFO] signal refresh done: %d/%d symbols", len(out), len(symbols))
	return out
}

func (s *Scheduler) refreshSymbol(ctx context.Context, symbol string) (model.Summary, error) {
	asset, err := s.Collector.Resolve(symbol)
	if err != nil {
		return model.Summary{}, err
	}
	symbol = asset.Symbol
	series, err := s.Collector.Collect(ctx, symbol, s.Interval, s.Lookback)
	if err != nil {
		return model.Summary{}, err
	}
	sum := summary.Build(series)
	if sum.IsEmpty() {
		return sum, fmt.Errorf("%w: empty series for %s", model.ErrDataUnavailable, symbol)
	}
	sum.Symbol = symbol
	s.Metrics.SetSignal(symbol, sum.Score, sum.Signal)

	prev := s.swapLast(ctx, symbol, sum.Signal)
	if err := s.Recorder.RecordSignal(ctx, &recorder.SignalSnapshot{
		Symbol:   symbol,
		Interval: s.Interval,
		At:       time.Now().UTC(),
		Summary:  sum,
	}); err != nil {
		log.Printf("[ERROR] record signal %s: %v", symbol, err)
	}

	if transition(prev, sum.Signal) {
		s.trySend(ctx, notifier.FormatTransition(asset, s.Interval, prev, sum))
	}
	return sum, nil
}

// swapLast stores cur as the last label seen for a symbol and returns the
// one it replaces, asking the recorder after a restart. Concurrent refreshes
// of one symbol each see a distinct previous label.
func (s *Scheduler) swapLast(ctx context.Context, symbol string, cur model.Signal) model.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, seen := s.last[symbol]
	if !seen {
		var err error
		if prev, err = s.Recorder.LastSignal(ctx, symbol); err != nil {
			log.Printf("[WARN] load last signal %s: %v", symbol, err)
		}
	}
	s.last[symbol] = cur
	return prev
}

// transition reports whether a label change crosses into or out of a strong
// tier.
func transition(prev, cur model.Signal) bool {
	if prev == cur {
		return false
	}
	return prev.Strong() || cur.Strong()
}

// Retrain fits a forecast for every tracked symbol, records each run and
// sends one report per symbol.
func (s *Scheduler) Retrain(ctx context.Context) map[string]*model.ForecastResult {
	log.Println("[INFO] running forecast retrain")
	symbols := s.Collector.Symbols()
	results := make([]*model.ForecastResult, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, sym := range symbols {
		g.Go(func() error {
			res, err := s.forecastSymbol(gctx, sym, s.Days)
			if err != nil {
				log.Printf("[ERROR] forecast %s: %v", sym, err)
				return nil
			}
			results[i] = res
			asset, _ := s.Collector.Resolve(sym)
			s.trySend(gctx, notifier.FormatForecast(asset, res))
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*model.ForecastResult, len(symbols))
	for i, sym := range symbols {
		if results[i] != nil {
			out[sym] = results[i]
		}
	}
	return out
}

func (s *Scheduler) forecastSymbol(ctx context.Context, symbol string, days int) (*model.ForecastResult, error) {
	p, err := s.Collector.Fetch(ctx, symbol, s.Interval, s.Lookback)
	if err != nil {
		return nil, err
	}
	res, err := s.Forecaster.Train(ctx, p.Symbol, p.Candles, days)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordForecast(ctx, res); err != nil {
		log.Printf("[ERROR] record forecast %s: %v", symbol, err)
	}
	return res, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp(s.Collector.Symbols())
	}
	// "/signal@MyBot" addresses the bot explicitly in group chats
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch cmd {
	case "/signal":
		if len(fields) < 2 {
			return "Usage: /signal &lt;SYMBOL&gt;"
		}
		sum, err := s.refreshSymbol(ctx, fields[1])
		if err != nil {
			return replyError(fields[1], err)
		}
		asset, _ := s.Collector.Resolve(fields[1])
		return notifier.FormatSignalReport(asset, s.Interval, sum)
	case "/predict":
		if len(fields) < 2 {
			return "Usage: /predict &lt;SYMBOL&gt; [days]"
		}
		days := s.Days
		if len(fields) > 2 {
			d, err := strconv.Atoi(fields[2])
			if err != nil || d < 1 || d > forecast.MaxDays {
				return fmt.Sprintf("❌ days must be a number between 1 and %d", forecast.MaxDays)
			}
			days = d
		}
		res, err := s.forecastSymbol(ctx, fields[1], days)
		if err != nil {
			return replyError(fields[1], err)
		}
		asset, _ := s.Collector.Resolve(fields[1])
		return notifier.FormatForecast(asset, res)
	default:
		return notifier.FormatHelp(s.Collector.Symbols())
	}
}

func replyError(symbol string, err error) string {
	switch {
	case errors.Is(err, model.ErrUnknownSymbol):
		return fmt.Sprintf("❌ unknown symbol %s", strings.ToUpper(symbol))
	case errors.Is(err, model.ErrDataInsufficient):
		return fmt.Sprintf("❌ not enough history for %s", strings.ToUpper(symbol))
	case errors.Is(err, model.ErrDataUnavailable):
		return fmt.Sprintf("❌ market data for %s is unavailable, try again later", strings.ToUpper(symbol))
	default:
		return fmt.Sprintf("❌ %s failed: %v", strings.ToUpper(symbol), err)
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
