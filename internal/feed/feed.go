// Package feed provides market-data feed clients that supply the latest
// price and volume for a tracked symbol.
package feed

import (
	"context"

	"tradewatch/internal/domain"
)

// PriceFeed abstracts one exchange's ticker endpoint. Implementations may
// fail transiently; callers log and move on to the next symbol.
type PriceFeed interface {
	// Name returns the feed identifier (e.g. "binance", "alpaca"), matching
	// the exchange keys in the tracking config.
	Name() string

	// Ticker returns the latest price and rolling base volume for a symbol
	// in "BASE/QUOTE" form.
	Ticker(ctx context.Context, symbol string) (domain.Ticker, error)
}
