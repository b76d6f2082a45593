package feed

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"tradewatch/internal/domain"
)

// Compile-time interface check.
var _ PriceFeed = (*Alpaca)(nil)

// Alpaca serves crypto tickers from the Alpaca market-data snapshot endpoint.
// Snapshots carry the latest trade plus the current daily bar, which supplies
// the rolling volume.
type Alpaca struct {
	client *marketdata.Client
}

// NewAlpaca creates an Alpaca feed with the given API credentials.
func NewAlpaca(apiKey, apiSecret string) *Alpaca {
	return &Alpaca{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
	}
}

// Name implements PriceFeed.
func (a *Alpaca) Name() string { return "alpaca" }

// Ticker implements PriceFeed. Alpaca quotes crypto pairs in the same
// "BTC/USD" form the tracking config uses, so the symbol passes through.
// The underlying client manages its own request deadlines.
func (a *Alpaca) Ticker(_ context.Context, symbol string) (domain.Ticker, error) {
	snap, err := a.client.GetCryptoSnapshot(symbol, marketdata.GetCryptoSnapshotRequest{})
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("alpaca snapshot %s: %w", symbol, err)
	}
	if snap == nil || snap.LatestTrade == nil {
		return domain.Ticker{}, fmt.Errorf("alpaca snapshot %s: no trade data", symbol)
	}

	t := domain.Ticker{Price: snap.LatestTrade.Price}
	if snap.DailyBar != nil {
		t.Volume = snap.DailyBar.Volume
	}
	return t, nil
}
