package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tradewatch/internal/broker"
	"tradewatch/internal/config"
	"tradewatch/internal/engine"
	"tradewatch/internal/feed"
	"tradewatch/internal/notify"
	"tradewatch/internal/store"
	"tradewatch/internal/strategy"
	"tradewatch/internal/strategy/builtins"
	"tradewatch/internal/util"
)

func main() {
	cfgPath := "config/tradewatch.yaml"
	if p := os.Getenv("TRADEWATCH_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	feeds := map[string]feed.PriceFeed{
		"binance": feed.NewBinance(),
	}
	if cfg.Feeds.AlpacaAPIKey != "" {
		feeds["alpaca"] = feed.NewAlpaca(cfg.Feeds.AlpacaAPIKey, cfg.Feeds.AlpacaAPISecret)
	}

	registry := strategy.NewRegistry()
	registry.Register(builtins.NewThreshold(cfg.Trading.ThresholdPercent))
	registry.Register(builtins.NewTrailingInitialThreshold(cfg.Trading.ThresholdPercent))
	registry.Register(builtins.NewVolumeSpike(cfg.Trading.ThresholdPercent * 10))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var notifier notify.Notifier
	var bot *notify.Telegram
	if cfg.Telegram.BotToken != "" {
		bot, err = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, nil)
		if err != nil {
			log.Fatalf("failed to connect telegram: %v", err)
		}
		notifier = bot
	} else {
		slog.Info("no telegram token configured, alerts go to the log")
		notifier = notify.NewLog()
	}

	watcher := engine.NewWatcher(
		feeds,
		registry,
		db,
		db,
		db,
		notifier,
		broker.NewEmulator(),
		engine.NewRiskManager(cfg.Trading.CommissionRate, cfg.Trading.MaxPositionPct),
		cfg.Trading,
		cfg.Feeds.RateLimitPerMin,
	)

	if bot != nil {
		bot.AttachStatus(watcher)
		go func() {
			if err := bot.Run(ctx); err != nil {
				slog.Error("telegram bot stopped", "error", err)
			}
		}()
	}

	slog.Info("starting tradewatch",
		"strategies", registry.List(),
		"exchanges", len(cfg.Trading.Tracking),
	)
	if err := watcher.Run(ctx); err != nil {
		log.Fatalf("watch loop error: %v", err)
	}
}
