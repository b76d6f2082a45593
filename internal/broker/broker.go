// Package broker defines the order-execution interface and provides the
// emulated broker that fills market orders instantly at the observed price.
package broker

import (
	"context"

	"tradewatch/internal/domain"
)

// Broker abstracts order execution. The engine asks it to turn a sized
// signal into a fill; the returned order carries the final status and price.
type Broker interface {
	// Name returns the broker identifier (e.g. "emulator").
	Name() string

	// MarketBuy executes a market buy of amount base units at the observed
	// price and returns the resulting order, not yet persisted.
	MarketBuy(ctx context.Context, exchange, symbol string, amount, price float64) (*domain.Order, error)

	// MarketSell executes a market sell of amount base units at the observed
	// price and returns the resulting order, not yet persisted.
	MarketSell(ctx context.Context, exchange, symbol string, amount, price float64) (*domain.Order, error)
}
