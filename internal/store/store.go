// Package store defines storage interfaces for persisting and retrieving
// orders, last prices, alert history, and historical bar data.
package store

import (
	"context"
	"time"

	"tradewatch/internal/domain"
)

// OrderFilter narrows List queries. Zero values mean "any"; Limit of 0 means
// the store default.
type OrderFilter struct {
	Exchange string
	Symbol   string
	Status   domain.OrderStatus
	Limit    int
}

// OrderStore is the durable append-only order log. Orders are immutable once
// appended.
type OrderStore interface {
	// Append persists a new order and returns its assigned id.
	Append(ctx context.Context, order *domain.Order) (int64, error)

	// List returns orders matching the filter, newest first.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)

	// ListChronological returns orders with the given status oldest first,
	// ties broken by insertion order. Ledger replay consumes this.
	ListChronological(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)

	// ClearAll removes every order and returns the number removed.
	ClearAll(ctx context.Context) (int64, error)
}

// PriceStore keeps the last observed price and volume per exchange/symbol.
type PriceStore interface {
	// SavePrice upserts the latest price and volume for the pair.
	SavePrice(ctx context.Context, exchange, symbol string, price, volume float64) error

	// LastPrice returns the stored price for the pair. The bool reports
	// whether a price has ever been stored.
	LastPrice(ctx context.Context, exchange, symbol string) (float64, bool, error)
}

// AlertStore logs emitted signals for later inspection.
type AlertStore interface {
	// SaveAlert appends one signal to the alert log.
	SaveAlert(ctx context.Context, sig domain.Signal) error

	// ListAlerts returns alerts newest first, paginated from page 1.
	ListAlerts(ctx context.Context, page, pageSize int) ([]domain.Signal, error)

	// DeleteOlderThan removes alerts created before the cutoff and returns
	// the number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// BarSource supplies historical bars for one symbol within an inclusive date
// range, sorted by timestamp ascending. No matching data yields an empty,
// well-formed result, not an error.
type BarSource interface {
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}
