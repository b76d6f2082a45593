package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	yamlContent := []byte(`
storage:
  data_dir: "/tmp/tradewatch/data"
  sqlite_path: "/tmp/tradewatch/tradewatch.db"
  klines_dir: "/tmp/tradewatch/klines"
trading:
  threshold_percent: 2.0
  poll_interval: 30
  position_size: 50
  commission_rate: 0.001
  initial_cash: 1000
  tracking:
    binance: ["BTC/USDT", "TON/USDT"]
    alpaca: ["BTC/USD"]
telegram:
  bot_token: "test-token"
  chat_id: 740130054
backtest:
  symbol: "TON/USDT"
  exchange: "binance"
  sweep_from: 0.5
  sweep_to: 5.0
  sweep_step: 0.5
logging:
  level: "info"
  format: "json"
`)

	tmpFile, err := os.CreateTemp("", "tradewatch-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}

	// Clear any environment overrides that might interfere.
	os.Unsetenv("TELEGRAM_BOT_TOKEN")
	os.Unsetenv("TELEGRAM_CHAT_ID")
	os.Unsetenv("POLL_INTERVAL")
	os.Unsetenv("POSITION_SIZE")
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("SQLITE_PATH")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.SQLitePath != "/tmp/tradewatch/tradewatch.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/tradewatch/tradewatch.db")
	}
	if cfg.Trading.ThresholdPercent != 2.0 {
		t.Errorf("Trading.ThresholdPercent = %v, want 2.0", cfg.Trading.ThresholdPercent)
	}
	if cfg.Trading.PollInterval != 30 {
		t.Errorf("Trading.PollInterval = %d, want 30", cfg.Trading.PollInterval)
	}
	if got := cfg.Trading.Tracking["binance"]; len(got) != 2 || got[0] != "BTC/USDT" {
		t.Errorf("Trading.Tracking[binance] = %v, want [BTC/USDT TON/USDT]", got)
	}
	if cfg.Telegram.ChatID != 740130054 {
		t.Errorf("Telegram.ChatID = %d, want 740130054", cfg.Telegram.ChatID)
	}
	if cfg.Backtest.SweepStep != 0.5 {
		t.Errorf("Backtest.SweepStep = %v, want 0.5", cfg.Backtest.SweepStep)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	yamlContent := []byte(`
storage:
  sqlite_path: "/tmp/db.sqlite3"
`)

	tmpFile, err := os.CreateTemp("", "tradewatch-config-defaults-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())
	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()

	os.Unsetenv("POLL_INTERVAL")
	os.Unsetenv("POSITION_SIZE")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Trading.PollInterval != 60 {
		t.Errorf("default PollInterval = %d, want 60", cfg.Trading.PollInterval)
	}
	if cfg.Trading.PositionSize != 20 {
		t.Errorf("default PositionSize = %v, want 20", cfg.Trading.PositionSize)
	}
	if cfg.Trading.CommissionRate != 0.001 {
		t.Errorf("default CommissionRate = %v, want 0.001", cfg.Trading.CommissionRate)
	}
	if cfg.Trading.InitialCash != 1000 {
		t.Errorf("default InitialCash = %v, want 1000", cfg.Trading.InitialCash)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	yamlContent := []byte(`
storage:
  sqlite_path: "/original/db.sqlite3"
telegram:
  bot_token: "yaml-token"
trading:
  poll_interval: 60
`)

	tmpFile, err := os.CreateTemp("", "tradewatch-config-env-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())
	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()

	os.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	os.Setenv("SQLITE_PATH", "/env/db.sqlite3")
	os.Setenv("POLL_INTERVAL", "15")
	defer os.Unsetenv("TELEGRAM_BOT_TOKEN")
	defer os.Unsetenv("SQLITE_PATH")
	defer os.Unsetenv("POLL_INTERVAL")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("Telegram.BotToken = %q, want %q (env override)", cfg.Telegram.BotToken, "env-token")
	}
	if cfg.Storage.SQLitePath != "/env/db.sqlite3" {
		t.Errorf("Storage.SQLitePath = %q, want %q (env override)", cfg.Storage.SQLitePath, "/env/db.sqlite3")
	}
	if cfg.Trading.PollInterval != 15 {
		t.Errorf("Trading.PollInterval = %d, want 15 (env override)", cfg.Trading.PollInterval)
	}
}
