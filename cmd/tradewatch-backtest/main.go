package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradewatch/internal/backtest"
	"tradewatch/internal/config"
	"tradewatch/internal/domain"
	"tradewatch/internal/store"
	"tradewatch/internal/strategy"
	"tradewatch/internal/strategy/builtins"
	"tradewatch/internal/util"
)

func main() {
	symbol := flag.String("symbol", "", "symbol to test, e.g. BTC/USDT (default from config)")
	exchange := flag.String("exchange", "", "exchange label stamped on orders (default from config)")
	start := flag.String("start", "", "start date YYYY-MM-DD (default from config)")
	end := flag.String("end", "", "end date YYYY-MM-DD (default from config)")
	threshold := flag.Float64("threshold", 0, "trailing threshold percent (default from config)")
	source := flag.String("source", "klines", "bar source: klines or parquet")
	optimize := flag.Bool("optimize", false, "sweep the threshold instead of a single run")
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

	if *symbol == "" {
		*symbol = cfg.Backtest.Symbol
	}
	if *exchange == "" {
		*exchange = cfg.Backtest.Exchange
	}
	if *start == "" {
		*start = cfg.Backtest.StartDate
	}
	if *end == "" {
		*end = cfg.Backtest.EndDate
	}
	if *threshold == 0 {
		*threshold = cfg.Trading.ThresholdPercent
	}
	if *symbol == "" {
		log.Fatal("no symbol given (flag -symbol or backtest.symbol in config)")
	}

	startTime, endTime, err := parseRange(*start, *end)
	if err != nil {
		log.Fatalf("bad date range: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var bars []domain.Bar
	switch *source {
	case "parquet":
		bars, err = store.NewParquetStore(cfg.Storage.DataDir).ReadBars(ctx, *symbol, startTime, endTime)
	case "klines":
		bars, err = store.NewKlineDir(cfg.Storage.KlinesDir).ReadBars(ctx, *symbol, startTime, endTime)
	default:
		log.Fatalf("unknown bar source %q", *source)
	}
	if err != nil {
		log.Fatalf("failed to load bars: %v", err)
	}
	slog.Info("bars loaded", "symbol", *symbol, "bars", len(bars), "source", *source)

	runCfg := backtest.Config{
		Exchange:       *exchange,
		Symbol:         *symbol,
		InitialCash:    cfg.Trading.InitialCash,
		CommissionRate: cfg.Trading.CommissionRate,
		PositionSize:   cfg.Trading.PositionSize,
	}

	if *optimize {
		runSweep(ctx, bars, runCfg, cfg)
		return
	}

	registry := strategy.NewRegistry()
	registry.Register(builtins.NewTrailingInitialThreshold(*threshold))

	runner := backtest.NewRunner(store.NewMemoryOrderStore(), registry, runCfg)
	res, err := runner.Run(ctx, bars)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}
	printResult(*symbol, *threshold, res)
}

func runSweep(ctx context.Context, bars []domain.Bar, runCfg backtest.Config, cfg *config.Config) {
	from, to, step := cfg.Backtest.SweepFrom, cfg.Backtest.SweepTo, cfg.Backtest.SweepStep
	if step == 0 {
		from, to, step = 0.5, 5.0, 0.5
	}

	results, err := backtest.Sweep(ctx, bars, runCfg, from, to, step, func(threshold float64) strategy.Strategy {
		return builtins.NewTrailingInitialThreshold(threshold)
	})
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	fmt.Printf("%-12s %-12s %-12s %-12s %-12s\n", "threshold", "equity", "cash", "realized", "unrealized")
	for _, r := range results {
		fmt.Printf("%-12.2f %-12.2f %-12.2f %-12.2f %-12.2f\n",
			r.Threshold, r.Equity, r.Cash, r.RealizedPnL, r.UnrealizedPnL)
	}
	if len(results) > 0 {
		fmt.Printf("\nbest threshold: %.2f%% (equity %.2f)\n", results[0].Threshold, results[0].Equity)
	}
}

func printResult(symbol string, threshold float64, res *backtest.Result) {
	fmt.Printf("symbol:          %s\n", symbol)
	fmt.Printf("threshold:       %.2f%%\n", threshold)
	fmt.Printf("bars:            %d\n", res.Bars)
	fmt.Printf("orders:          %d\n", res.Orders)
	fmt.Printf("final cash:      %.2f\n", res.Account.Cash)
	fmt.Printf("final equity:    %.2f\n", res.Account.Equity)
	fmt.Printf("realized pnl:    %.2f\n", res.Account.RealizedPnL)
	fmt.Printf("unrealized pnl:  %.2f\n", res.Account.UnrealizedPnL)
	for sym, pos := range res.Account.Positions {
		fmt.Printf("open position:   %s %.6f @ %.4f\n", sym, pos.Amount, pos.AvgPrice)
	}
}

// parseRange parses YYYY-MM-DD bounds; empty strings stay unbounded, and the
// end date is pushed to the end of its day so the range is inclusive.
func parseRange(start, end string) (time.Time, time.Time, error) {
	var startTime, endTime time.Time
	var err error
	if start != "" {
		startTime, err = time.Parse("2006-01-02", start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("start %q: %w", start, err)
		}
	}
	if end != "" {
		endTime, err = time.Parse("2006-01-02", end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("end %q: %w", end, err)
		}
		endTime = endTime.Add(24*time.Hour - time.Nanosecond)
	}
	return startTime, endTime, nil
}
