package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the tradewatch system. It is
// loaded once at process start and never re-read during a run.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Trading  TradingConfig  `yaml:"trading"`
	Feeds    FeedsConfig    `yaml:"feeds"`
	Telegram TelegramConfig `yaml:"telegram"`
	Backtest BacktestConfig `yaml:"backtest"`
	Logging  Logging        `yaml:"logging"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`    // parquet bar cache root
	SQLitePath string `yaml:"sqlite_path"` // order/price/alert database
	KlinesDir  string `yaml:"klines_dir"`  // Binance kline zip archives
}

// TradingConfig defines the live watch loop parameters.
type TradingConfig struct {
	ThresholdPercent float64             `yaml:"threshold_percent"`
	PollInterval     int                 `yaml:"poll_interval"` // seconds
	PositionSize     float64             `yaml:"position_size"` // quote notional per fill
	CommissionRate   float64             `yaml:"commission_rate"`
	InitialCash      float64             `yaml:"initial_cash"`
	MaxPositionPct   float64             `yaml:"max_position_pct"`
	Tracking         map[string][]string `yaml:"tracking"` // exchange -> symbols
}

// FeedsConfig holds credentials for the market-data feeds. Binance public
// ticker endpoints need no credentials; Alpaca does.
type FeedsConfig struct {
	AlpacaAPIKey    string `yaml:"alpaca_api_key"`
	AlpacaAPISecret string `yaml:"alpaca_api_secret"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// TelegramConfig configures the notification channel. An empty token
// disables Telegram delivery and falls back to log-only notifications.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// BacktestConfig holds defaults for the backtest and sweep commands.
type BacktestConfig struct {
	Symbol    string  `yaml:"symbol"`
	Exchange  string  `yaml:"exchange"`
	StartDate string  `yaml:"start_date"`
	EndDate   string  `yaml:"end_date"`
	SweepFrom float64 `yaml:"sweep_from"`
	SweepTo   float64 `yaml:"sweep_to"`
	SweepStep float64 `yaml:"sweep_step"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies defaults, and then applies environment variable
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyDefaults fills in the values the reference deployment assumes when the
// YAML leaves them unset.
func applyDefaults(cfg *Config) {
	if cfg.Trading.PollInterval == 0 {
		cfg.Trading.PollInterval = 60
	}
	if cfg.Trading.PositionSize == 0 {
		cfg.Trading.PositionSize = 20
	}
	if cfg.Trading.CommissionRate == 0 {
		cfg.Trading.CommissionRate = 0.001
	}
	if cfg.Trading.InitialCash == 0 {
		cfg.Trading.InitialCash = 1000
	}
	if cfg.Trading.ThresholdPercent == 0 {
		cfg.Trading.ThresholdPercent = 0.5
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("KLINES_DIR"); v != "" {
		cfg.Storage.KlinesDir = v
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Trading.PollInterval = n
		}
	}
	if v := os.Getenv("POSITION_SIZE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Trading.PositionSize = f
		}
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Feeds.AlpacaAPIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Feeds.AlpacaAPISecret = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Feeds.AlpacaAPIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Feeds.AlpacaAPISecret = v
	}
}
