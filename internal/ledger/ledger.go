// Package ledger reconstructs account state from an ordered log of filled
// orders. Replay is a pure function: the same order log, price map, and
// starting cash always produce the same snapshot, so the durable log stays
// the single source of truth for balances and PnL.
package ledger

import (
	"tradewatch/internal/domain"
)

// Book folds fills into cash, per-symbol positions, and realized PnL. The
// live engine and the backtest driver use a Book as an incremental cache;
// Replay folds a whole order log through a fresh one.
type Book struct {
	Cash        float64
	RealizedPnL float64
	Positions   map[string]domain.Position

	commissionRate float64
}

// NewBook creates a Book starting from initialCash with the given per-fill
// commission rate.
func NewBook(initialCash, commissionRate float64) *Book {
	return &Book{
		Cash:           initialCash,
		Positions:      make(map[string]domain.Position),
		commissionRate: commissionRate,
	}
}

// Fill applies one filled order to the book. Commission is charged exactly
// once, inside the cash flow; realized PnL is computed on raw prices. A fill
// that crosses through flat closes the existing position first and opens the
// remainder on the opposite side at the fill price.
func (b *Book) Fill(side domain.OrderSide, symbol string, price, amount float64) {
	switch side {
	case domain.OrderSideBuy:
		b.buy(symbol, price, amount)
	case domain.OrderSideSell:
		b.sell(symbol, price, amount)
	}
}

func (b *Book) buy(symbol string, price, amount float64) {
	b.Cash -= price * (1 + b.commissionRate) * amount

	pos, ok := b.Positions[symbol]
	switch {
	case !ok:
		b.Positions[symbol] = domain.Position{Amount: amount, AvgPrice: price}

	case pos.Amount >= 0:
		// Long (or flat) merges into a quantity-weighted average.
		total := pos.Amount + amount
		avg := (pos.AvgPrice*pos.Amount + price*amount) / total
		b.Positions[symbol] = domain.Position{Amount: total, AvgPrice: avg}

	default:
		// Buying against a short closes it first.
		closing := min(amount, -pos.Amount)
		b.RealizedPnL += (pos.AvgPrice - price) * closing

		remaining := pos.Amount + amount
		switch {
		case remaining > 0:
			// Excess flips into a new long at the fill price.
			b.Positions[symbol] = domain.Position{Amount: remaining, AvgPrice: price}
		case remaining == 0:
			delete(b.Positions, symbol)
		default:
			// Partial cover: the short shrinks, its entry price stands.
			b.Positions[symbol] = domain.Position{Amount: remaining, AvgPrice: pos.AvgPrice}
		}
	}
}

func (b *Book) sell(symbol string, price, amount float64) {
	b.Cash += price * (1 - b.commissionRate) * amount

	pos, ok := b.Positions[symbol]
	switch {
	case !ok:
		b.Positions[symbol] = domain.Position{Amount: -amount, AvgPrice: price}

	case pos.Amount > 0:
		// Selling against a long closes it first.
		closing := min(amount, pos.Amount)
		b.RealizedPnL += (price - pos.AvgPrice) * closing

		remaining := pos.Amount - amount
		switch {
		case remaining < 0:
			// Excess flips into a new short at the fill price.
			b.Positions[symbol] = domain.Position{Amount: remaining, AvgPrice: price}
		case remaining == 0:
			delete(b.Positions, symbol)
		default:
			b.Positions[symbol] = domain.Position{Amount: remaining, AvgPrice: pos.AvgPrice}
		}

	default:
		// Selling while short (or flat) extends the short at a weighted
		// average over absolute quantities.
		total := -pos.Amount + amount
		avg := (pos.AvgPrice*(-pos.Amount) + price*amount) / total
		b.Positions[symbol] = domain.Position{Amount: pos.Amount - amount, AvgPrice: avg}
	}
}

// Snapshot marks the book to market against the given price map. Positions
// without a quote are skipped, not zeroed: they contribute to neither equity
// nor unrealized PnL.
func (b *Book) Snapshot(prices map[string]float64) domain.AccountSnapshot {
	var unrealized, positionValue float64

	positions := make(map[string]domain.Position, len(b.Positions))
	for symbol, pos := range b.Positions {
		positions[symbol] = pos

		price, ok := prices[symbol]
		if !ok {
			continue
		}
		positionValue += pos.Amount * price
		if pos.Amount > 0 {
			unrealized += (price - pos.AvgPrice) * pos.Amount
		} else {
			unrealized += (pos.AvgPrice - price) * -pos.Amount
		}
	}

	return domain.AccountSnapshot{
		Cash:          b.Cash,
		Equity:        b.Cash + positionValue,
		Positions:     positions,
		UnrealizedPnL: unrealized,
		RealizedPnL:   b.RealizedPnL,
	}
}

// Replay folds an order log, in the order given, into an account snapshot.
// Callers must supply the log in chronological order with ties broken by
// insertion order; the store's ListChronological does exactly that.
func Replay(orders []domain.Order, prices map[string]float64, initialCash, commissionRate float64) domain.AccountSnapshot {
	book := NewBook(initialCash, commissionRate)
	for _, o := range orders {
		book.Fill(o.Side, o.Symbol, o.Price, o.Amount)
	}
	return book.Snapshot(prices)
}
