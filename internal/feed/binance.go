package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	binance "github.com/adshao/go-binance/v2"

	"tradewatch/internal/domain"
)

// Compile-time interface check.
var _ PriceFeed = (*Binance)(nil)

// Binance serves tickers from the Binance 24hr price-change endpoint, which
// carries both the last price and the rolling 24h base volume in one call.
// Public market data needs no API credentials.
type Binance struct {
	client *binance.Client
}

// NewBinance creates an unauthenticated Binance feed.
func NewBinance() *Binance {
	return &Binance{client: binance.NewClient("", "")}
}

// Name implements PriceFeed.
func (b *Binance) Name() string { return "binance" }

// Ticker implements PriceFeed. The symbol is given as "BTC/USDT" and mapped
// to Binance's concatenated form.
func (b *Binance) Ticker(ctx context.Context, symbol string) (domain.Ticker, error) {
	stats, err := b.client.NewListPriceChangeStatsService().
		Symbol(BinanceSymbol(symbol)).
		Do(ctx)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("binance ticker %s: %w", symbol, err)
	}
	if len(stats) == 0 {
		return domain.Ticker{}, fmt.Errorf("binance ticker %s: no data", symbol)
	}

	price, err := strconv.ParseFloat(stats[0].LastPrice, 64)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("binance ticker %s: bad price %q: %w", symbol, stats[0].LastPrice, err)
	}
	volume, err := strconv.ParseFloat(stats[0].Volume, 64)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("binance ticker %s: bad volume %q: %w", symbol, stats[0].Volume, err)
	}

	return domain.Ticker{Price: price, Volume: volume}, nil
}

// BinanceSymbol maps "BTC/USDT" to Binance's "BTCUSDT" form. Symbols without
// a slash pass through unchanged.
func BinanceSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}
