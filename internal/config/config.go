package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"CryptoSentinel/internal/collector"
	"CryptoSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Market struct {
		Source    string         `yaml:"source"`
		APIKey    string         `yaml:"api_key"`
		APISecret string         `yaml:"api_secret"`
		Interval  model.Interval `yaml:"interval"`
		Lookback  string         `yaml:"lookback"`
		Assets    []model.Asset  `yaml:"assets"`
	} `yaml:"market"`
	Forecast struct {
		PredictionDays int    `yaml:"prediction_days"`
		Store          string `yaml:"store"`
		ModelDir       string `yaml:"model_dir"`
	} `yaml:"forecast"`
	Schedule struct {
		RefreshCron  string `yaml:"refresh_cron"`
		ForecastCron string `yaml:"forecast_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	API struct {
		Addr string `yaml:"addr"`
	} `yaml:"api"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file and a YAML file, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("MARKET_SOURCE"); v != "" {
		cfg.Market.Source = v
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.Market.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.Market.APISecret = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("PREDICTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PREDICTION_DAYS: %w", err)
		}
		cfg.Forecast.PredictionDays = days
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		cfg.Forecast.ModelDir = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("FORECAST_CRON"); v != "" {
		cfg.Schedule.ForecastCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}

	// Defaults
	if cfg.Market.Source == "" {
		cfg.Market.Source = "binance"
	}
	if cfg.Market.Interval == "" {
		cfg.Market.Interval = model.Interval1d
	}
	if cfg.Market.Lookback == "" {
		cfg.Market.Lookback = "90 days ago UTC"
	}
	if len(cfg.Market.Assets) == 0 {
		cfg.Market.Assets = append([]model.Asset(nil), collector.DefaultAssets...)
	}
	for i := range cfg.Market.Assets {
		a := &cfg.Market.Assets[i]
		a.Symbol = strings.ToUpper(a.Symbol)
		if a.Pair == "" {
			a.Pair = a.Symbol + "USDT"
		}
	}
	if cfg.Forecast.PredictionDays == 0 {
		cfg.Forecast.PredictionDays = 7
	}
	if cfg.Forecast.Store == "" {
		cfg.Forecast.Store = "file"
		if cfg.Redis.Addr != "" {
			cfg.Forecast.Store = "redis"
		}
	}
	if cfg.Forecast.ModelDir == "" {
		cfg.Forecast.ModelDir = filepath.Join(os.TempDir(), "crypto_models")
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "@every 600s"
	}
	if cfg.Schedule.ForecastCron == "" {
		cfg.Schedule.ForecastCron = "0 0 1 * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/crypto_sentinel.db"
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = ":8000"
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values. Telegram settings are
// optional; notifications are disabled without them.
func (c *Config) Validate() error {
	switch c.Market.Source {
	case "binance", "yahoo", "mock":
	default:
		return fmt.Errorf("market.source %q must be binance, yahoo or mock", c.Market.Source)
	}
	if !c.Market.Interval.Valid() {
		return fmt.Errorf("market.interval %q must be 1h, 4h or 1d", c.Market.Interval)
	}
	if _, err := collector.ParseLookback(c.Market.Lookback); err != nil {
		return fmt.Errorf("market.lookback: %w", err)
	}
	if len(c.Market.Assets) == 0 {
		return fmt.Errorf("market.assets must not be empty")
	}
	seen := make(map[string]bool)
	for _, a := range c.Market.Assets {
		if a.Symbol == "" {
			return fmt.Errorf("market.assets: symbol is required")
		}
		if seen[a.Symbol] {
			return fmt.Errorf("market.assets: duplicate symbol %s", a.Symbol)
		}
		seen[a.Symbol] = true
	}
	if d := c.Forecast.PredictionDays; d < 1 || d > 30 {
		return fmt.Errorf("forecast.prediction_days must be between 1 and 30, got %d", d)
	}
	switch c.Forecast.Store {
	case "file", "none":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis model store")
		}
	default:
		return fmt.Errorf("forecast.store %q must be file, redis or none", c.Forecast.Store)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.refresh_cron":  c.Schedule.RefreshCron,
		"schedule.forecast_cron": c.Schedule.ForecastCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// NotifyEnabled reports whether Telegram credentials are present.
func (c *Config) NotifyEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
