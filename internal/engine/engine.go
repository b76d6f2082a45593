// Package engine runs the live watch loop: poll the configured feeds, run
// the registered strategies over each observation, notify on alerts, and
// emulate fills against the durable order log.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tradewatch/internal/broker"
	"tradewatch/internal/config"
	"tradewatch/internal/domain"
	"tradewatch/internal/feed"
	"tradewatch/internal/ledger"
	"tradewatch/internal/notify"
	"tradewatch/internal/store"
	"tradewatch/internal/strategy"
	"tradewatch/internal/util"
)

// Compile-time check: the watcher answers the bot's query commands.
var _ notify.StatusSource = (*Watcher)(nil)

// Watcher drives the live loop. It owns the incremental ledger book, rebuilt
// from the order log at startup and updated only after an order has been
// durably appended, so the log and the book never diverge.
type Watcher struct {
	feeds    map[string]feed.PriceFeed
	registry *strategy.Registry
	orders   store.OrderStore
	prices   store.PriceStore
	alerts   store.AlertStore
	notifier notify.Notifier
	broker   broker.Broker
	risk     *RiskManager
	limiter  *util.RateLimiter
	cfg      config.TradingConfig
	log      *slog.Logger

	mu    sync.Mutex
	book  *ledger.Book
	marks map[string]float64 // last observed price per symbol
}

// NewWatcher wires a Watcher from its collaborators. rateLimitPerMin bounds
// feed calls across all exchanges; zero disables limiting.
func NewWatcher(
	feeds map[string]feed.PriceFeed,
	registry *strategy.Registry,
	orders store.OrderStore,
	prices store.PriceStore,
	alerts store.AlertStore,
	notifier notify.Notifier,
	b broker.Broker,
	risk *RiskManager,
	cfg config.TradingConfig,
	rateLimitPerMin int,
) *Watcher {
	w := &Watcher{
		feeds:    feeds,
		registry: registry,
		orders:   orders,
		prices:   prices,
		alerts:   alerts,
		notifier: notifier,
		broker:   b,
		risk:     risk,
		cfg:      cfg,
		log:      slog.Default().With("component", "watcher"),
		marks:    make(map[string]float64),
	}
	if rateLimitPerMin > 0 {
		w.limiter = util.NewRateLimiter(rateLimitPerMin)
	}
	return w
}

// Run rebuilds the ledger from the order log, then polls every tracked pair
// at the configured interval until the context is cancelled. A failing pair
// is logged and skipped; the loop itself only stops on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.restore(ctx); err != nil {
		return fmt.Errorf("restoring ledger: %w", err)
	}

	interval := time.Duration(w.cfg.PollInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	w.log.Info("watch loop starting", "interval", interval, "broker", w.broker.Name())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("watch loop stopping")
			return nil
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

// restore folds the durable order log into a fresh book so restarts resume
// with the same cash and positions the log implies.
func (w *Watcher) restore(ctx context.Context) error {
	log, err := w.orders.ListChronological(ctx, domain.OrderStatusClosed)
	if err != nil {
		return err
	}

	book := ledger.NewBook(w.cfg.InitialCash, w.cfg.CommissionRate)
	for _, o := range log {
		book.Fill(o.Side, o.Symbol, o.Price, o.Amount)
	}

	w.mu.Lock()
	w.book = book
	w.mu.Unlock()

	w.log.Info("ledger restored", "orders", len(log), "cash", book.Cash, "realized", book.RealizedPnL)
	return nil
}

func (w *Watcher) runCycle(ctx context.Context) {
	start := time.Now()
	for exchange, symbols := range w.cfg.Tracking {
		f, ok := w.feeds[exchange]
		if !ok {
			w.log.Warn("no feed for exchange", "exchange", exchange)
			continue
		}
		for _, symbol := range symbols {
			if ctx.Err() != nil {
				return
			}
			w.checkPair(ctx, f, exchange, symbol)
		}
	}
	w.log.Info("check cycle finished", "elapsed", time.Since(start).Round(time.Millisecond))
}

// checkPair fetches one ticker, runs every registered strategy over the
// observation, and routes the resulting signals. Feed errors are retried
// briefly and then skipped until the next cycle.
func (w *Watcher) checkPair(ctx context.Context, f feed.PriceFeed, exchange, symbol string) {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
	}

	var ticker domain.Ticker
	err := util.Retry(ctx, 3, 500*time.Millisecond, func() error {
		var err error
		ticker, err = f.Ticker(ctx, symbol)
		return err
	})
	if err != nil {
		w.log.Error("ticker fetch failed", "exchange", exchange, "symbol", symbol, "error", err)
		return
	}

	prev, hasPrev, err := w.prices.LastPrice(ctx, exchange, symbol)
	if err != nil {
		w.log.Error("reading last price failed", "exchange", exchange, "symbol", symbol, "error", err)
		return
	}

	obs := domain.Observation{
		Exchange:  exchange,
		Symbol:    symbol,
		Price:     ticker.Price,
		Volume:    ticker.Volume,
		PrevPrice: prev,
		HasPrev:   hasPrev,
		Timestamp: time.Now().UTC(),
	}

	for _, strat := range w.registry.All() {
		signals, err := strat.Check(ctx, obs)
		if err != nil {
			w.log.Error("strategy check failed", "strategy", strat.Name(), "symbol", symbol, "error", err)
			continue
		}
		for _, sig := range signals {
			w.handleSignal(ctx, sig, obs)
		}
	}

	// The stored price becomes the next cycle's reference point, so it is
	// written only after every strategy has seen this observation.
	if err := w.prices.SavePrice(ctx, exchange, symbol, ticker.Price, ticker.Volume); err != nil {
		w.log.Error("saving price failed", "exchange", exchange, "symbol", symbol, "error", err)
	}

	w.mu.Lock()
	w.marks[symbol] = ticker.Price
	w.mu.Unlock()
}

// handleSignal logs the alert, notifies, and for actionable signals executes
// an emulated fill. Each step failing is logged without blocking the others.
func (w *Watcher) handleSignal(ctx context.Context, sig domain.Signal, obs domain.Observation) {
	if err := w.alerts.SaveAlert(ctx, sig); err != nil {
		w.log.Error("saving alert failed", "strategy", sig.Strategy, "error", err)
	}
	if err := w.notifier.Alert(ctx, sig); err != nil {
		w.log.Error("alert delivery failed", "strategy", sig.Strategy, "error", err)
	}

	if sig.Action == domain.ActionNone {
		return
	}
	if err := w.execute(ctx, sig, obs); err != nil {
		w.log.Warn("order not executed", "strategy", sig.Strategy, "symbol", obs.Symbol, "error", err)
	}
}

// execute sizes the fill, risk-checks it against the current book, and
// appends it to the order log before updating the book.
func (w *Watcher) execute(ctx context.Context, sig domain.Signal, obs domain.Observation) error {
	amount := sig.Amount
	if amount == 0 {
		amount = w.cfg.PositionSize / obs.Price
	}

	var order *domain.Order
	var err error
	switch sig.Action {
	case domain.ActionBuy:
		order, err = w.broker.MarketBuy(ctx, obs.Exchange, obs.Symbol, amount, obs.Price)
	case domain.ActionSell:
		order, err = w.broker.MarketSell(ctx, obs.Exchange, obs.Symbol, amount, obs.Price)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("broker fill: %w", err)
	}
	order.Strategy = sig.Strategy

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.risk.CheckOrder(order, w.book.Snapshot(w.marks)); err != nil {
		return err
	}
	if _, err := w.orders.Append(ctx, order); err != nil {
		return fmt.Errorf("appending order: %w", err)
	}
	w.book.Fill(order.Side, order.Symbol, order.Price, order.Amount)

	w.log.Info("order executed",
		"strategy", order.Strategy,
		"symbol", order.Symbol,
		"side", order.Side,
		"amount", order.Amount,
		"price", order.Price,
		"cash", w.book.Cash,
	)
	return nil
}

// BalanceReport implements notify.StatusSource.
func (w *Watcher) BalanceReport(_ context.Context) (domain.AccountSnapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.book == nil {
		return domain.AccountSnapshot{}, fmt.Errorf("ledger not restored yet")
	}
	return w.book.Snapshot(w.marks), nil
}

// RecentOrders implements notify.StatusSource.
func (w *Watcher) RecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	return w.orders.List(ctx, store.OrderFilter{Limit: limit})
}

// RecentAlerts implements notify.StatusSource.
func (w *Watcher) RecentAlerts(ctx context.Context, page, pageSize int) ([]domain.Signal, error) {
	return w.alerts.ListAlerts(ctx, page, pageSize)
}
