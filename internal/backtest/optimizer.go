package backtest

import (
	"context"
	"log/slog"
	"sort"

	"tradewatch/internal/domain"
	"tradewatch/internal/store"
	"tradewatch/internal/strategy"
)

// SweepResult is the outcome of one sweep candidate.
type SweepResult struct {
	Threshold     float64
	Cash          float64
	Equity        float64
	RealizedPnL   float64
	UnrealizedPnL float64
}

// StrategyFactory builds a fresh strategy instance for a candidate threshold.
// Each candidate gets its own instance so no state leaks across runs.
type StrategyFactory func(thresholdPercent float64) strategy.Strategy

// Sweep runs a full backtest per threshold candidate in [from, to] stepped by
// step, each against its own in-memory order log, and returns the results
// sorted by final equity descending (best first). Candidates run
// sequentially; cancellation is honoured between candidates.
func Sweep(ctx context.Context, bars []domain.Bar, cfg Config, from, to, step float64, factory StrategyFactory) ([]SweepResult, error) {
	log := slog.Default().With("component", "sweep")

	var results []SweepResult
	for threshold := from; threshold <= to+step/2; threshold += step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		registry := strategy.NewRegistry()
		registry.Register(factory(threshold))

		runner := NewRunner(store.NewMemoryOrderStore(), registry, cfg)
		res, err := runner.Run(ctx, bars)
		if err != nil {
			return nil, err
		}

		log.Info("sweep candidate finished",
			"threshold", threshold,
			"equity", res.Account.Equity,
			"realized", res.Account.RealizedPnL,
		)

		results = append(results, SweepResult{
			Threshold:     threshold,
			Cash:          res.Account.Cash,
			Equity:        res.Account.Equity,
			RealizedPnL:   res.Account.RealizedPnL,
			UnrealizedPnL: res.Account.UnrealizedPnL,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Equity > results[j].Equity
	})
	return results, nil
}
