package broker

import (
	"context"
	"fmt"
	"time"

	"tradewatch/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*Emulator)(nil)

// Emulator fills every market order instantly at the observed price, with no
// slippage and no partial fills. It holds no state of its own; positions and
// cash live in the ledger, reconstructed from the order log.
type Emulator struct{}

// NewEmulator creates an emulated broker.
func NewEmulator() *Emulator {
	return &Emulator{}
}

// Name returns "emulator".
func (e *Emulator) Name() string { return "emulator" }

// MarketBuy implements Broker.
func (e *Emulator) MarketBuy(ctx context.Context, exchange, symbol string, amount, price float64) (*domain.Order, error) {
	return e.fill(ctx, domain.OrderSideBuy, exchange, symbol, amount, price)
}

// MarketSell implements Broker.
func (e *Emulator) MarketSell(ctx context.Context, exchange, symbol string, amount, price float64) (*domain.Order, error) {
	return e.fill(ctx, domain.OrderSideSell, exchange, symbol, amount, price)
}

func (e *Emulator) fill(ctx context.Context, side domain.OrderSide, exchange, symbol string, amount, price float64) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("emulator %s %s: non-positive amount %g", side, symbol, amount)
	}
	if price <= 0 {
		return nil, fmt.Errorf("emulator %s %s: non-positive price %g", side, symbol, price)
	}

	return &domain.Order{
		Exchange:  exchange,
		Symbol:    symbol,
		Type:      domain.OrderTypeMarket,
		Side:      side,
		Amount:    amount,
		Price:     price,
		Status:    domain.OrderStatusClosed,
		CreatedAt: time.Now().UTC(),
	}, nil
}
