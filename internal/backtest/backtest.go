// Package backtest replays historical bars through a strategy registry,
// emulating fills against an order log, and derives the reported metrics by
// ledger replay over that log.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tradewatch/internal/domain"
	"tradewatch/internal/ledger"
	"tradewatch/internal/store"
	"tradewatch/internal/strategy"
)

// fallbackNotional sizes fills when neither the signal nor the config
// provides a position size.
const fallbackNotional = 10.0

// Config holds the parameters for one backtest run.
type Config struct {
	Exchange       string
	Symbol         string
	InitialCash    float64
	CommissionRate float64
	// PositionSize is the quote notional per fill used when a signal carries
	// no explicit amount.
	PositionSize float64
}

// CurvePoint is one sample of the equity curve, appended once per bar.
type CurvePoint struct {
	Timestamp     time.Time
	RealizedPnL   float64
	UnrealizedPnL float64
	Equity        float64
}

// Result is the outcome of a backtest run. The account fields come from a
// full ledger replay over the order log written during the run; Curve is the
// per-bar incremental view.
type Result struct {
	Account domain.AccountSnapshot
	Curve   []CurvePoint
	Orders  int
	Bars    int
}

// Runner drives strategies over historical bars. Each run owns its own
// strategy instances via the registry, so runs never share state.
type Runner struct {
	orders   store.OrderStore
	registry *strategy.Registry
	cfg      Config
	log      *slog.Logger
}

// NewRunner creates a Runner writing orders to the given store and looking up
// strategies in the provided registry.
func NewRunner(orders store.OrderStore, registry *strategy.Registry, cfg Config) *Runner {
	return &Runner{
		orders:   orders,
		registry: registry,
		cfg:      cfg,
		log:      slog.Default().With("component", "backtest"),
	}
}

// Run executes the backtest over the given bars, assumed chronological. The
// order log is cleared first so the run's replay sees only its own fills.
// An empty bar slice is a successful no-op returning the initial cash. A bad
// bar or a failed fill is logged and skipped, never fatal; cancellation is
// honoured between bars.
func (r *Runner) Run(ctx context.Context, bars []domain.Bar) (*Result, error) {
	if _, err := r.orders.ClearAll(ctx); err != nil {
		return nil, fmt.Errorf("clearing order log: %w", err)
	}

	book := ledger.NewBook(r.cfg.InitialCash, r.cfg.CommissionRate)
	result := &Result{Bars: len(bars)}

	if len(bars) == 0 {
		result.Account = book.Snapshot(nil)
		return result, nil
	}

	var prevClose float64
	var hasPrev bool
	for _, bar := range bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		obs := domain.Observation{
			Exchange:  r.cfg.Exchange,
			Symbol:    r.cfg.Symbol,
			Price:     bar.Close,
			Volume:    bar.Volume,
			PrevPrice: prevClose,
			HasPrev:   hasPrev,
			Timestamp: bar.Timestamp,
		}
		prevClose, hasPrev = bar.Close, true

		for _, strat := range r.registry.All() {
			signals, err := strat.Check(ctx, obs)
			if err != nil {
				r.log.Error("strategy check failed", "strategy", strat.Name(), "bar", bar.Timestamp, "error", err)
				continue
			}
			for _, sig := range signals {
				if sig.Action != domain.ActionBuy && sig.Action != domain.ActionSell {
					continue
				}
				if err := r.applySignal(ctx, book, sig, bar); err != nil {
					r.log.Error("applying signal failed", "strategy", sig.Strategy, "bar", bar.Timestamp, "error", err)
					continue
				}
				result.Orders++
			}
		}

		point := book.Snapshot(map[string]float64{r.cfg.Symbol: bar.Close})
		result.Curve = append(result.Curve, CurvePoint{
			Timestamp:     bar.Timestamp,
			RealizedPnL:   point.RealizedPnL,
			UnrealizedPnL: point.UnrealizedPnL,
			Equity:        point.Equity,
		})
	}

	// The order log is canonical: reported metrics come from a full replay,
	// reconciling the incremental book against the durable log.
	orders, err := r.orders.ListChronological(ctx, domain.OrderStatusClosed)
	if err != nil {
		return nil, fmt.Errorf("replaying order log: %w", err)
	}
	finalPrices := map[string]float64{r.cfg.Symbol: bars[len(bars)-1].Close}
	result.Account = ledger.Replay(orders, finalPrices, r.cfg.InitialCash, r.cfg.CommissionRate)

	return result, nil
}

// applySignal sizes the fill, guards buys against insufficient cash, appends
// the order to the log, and only then applies the fill to the incremental
// book, keeping both views consistent.
func (r *Runner) applySignal(ctx context.Context, book *ledger.Book, sig domain.Signal, bar domain.Bar) error {
	amount := sig.Amount
	if amount == 0 {
		notional := r.cfg.PositionSize
		if notional == 0 {
			notional = fallbackNotional
		}
		amount = notional / bar.Close
	}

	side := domain.OrderSideBuy
	if sig.Action == domain.ActionSell {
		side = domain.OrderSideSell
	}

	if side == domain.OrderSideBuy {
		cost := bar.Close * (1 + r.cfg.CommissionRate) * amount
		if book.Cash < cost {
			r.log.Debug("skipping buy, insufficient cash", "cash", book.Cash, "cost", cost)
			return nil
		}
	}

	order := &domain.Order{
		Strategy:  sig.Strategy,
		Exchange:  r.cfg.Exchange,
		Symbol:    r.cfg.Symbol,
		Type:      domain.OrderTypeMarket,
		Side:      side,
		Amount:    amount,
		Price:     bar.Close,
		Status:    domain.OrderStatusClosed,
		CreatedAt: bar.Timestamp,
	}
	if _, err := r.orders.Append(ctx, order); err != nil {
		return fmt.Errorf("appending order: %w", err)
	}

	book.Fill(side, r.cfg.Symbol, bar.Close, amount)
	return nil
}
