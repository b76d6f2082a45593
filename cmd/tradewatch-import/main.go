package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tradewatch/internal/config"
	"tradewatch/internal/store"
	"tradewatch/internal/util"
)

// tradewatch-import decodes Binance kline zip archives into the Parquet bar
// cache so repeated backtests skip the zip/CSV decode.
func main() {
	symbols := flag.String("symbols", "", "comma-separated symbols to import, e.g. BTC/USDT,ETH/USDT")
	flag.Parse()

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

	if *symbols == "" {
		log.Fatal("no symbols given (flag -symbols)")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	klines := store.NewKlineDir(cfg.Storage.KlinesDir)
	parquet := store.NewParquetStore(cfg.Storage.DataDir)

	for _, symbol := range strings.Split(*symbols, ",") {
		symbol = strings.TrimSpace(symbol)
		if symbol == "" {
			continue
		}

		start := time.Now()
		bars, err := klines.ReadBars(ctx, symbol, time.Time{}, time.Time{})
		if err != nil {
			log.Fatalf("reading klines for %s: %v", symbol, err)
		}
		if len(bars) == 0 {
			slog.Warn("no kline archives found", "symbol", symbol)
			continue
		}

		if err := parquet.WriteBars(ctx, bars); err != nil {
			log.Fatalf("writing parquet for %s: %v", symbol, err)
		}
		slog.Info("symbol imported",
			"symbol", symbol,
			"bars", len(bars),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	}
}
