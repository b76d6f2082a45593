package engine

import (
	"fmt"

	"tradewatch/internal/domain"
)

// RiskManager enforces pre-trade rules: buys must be covered by cash, and no
// single fill may push a position's notional past the configured fraction of
// equity.
type RiskManager struct {
	commissionRate float64
	maxPositionPct float64
}

// NewRiskManager creates a RiskManager.
//
//   - commissionRate: per-fill commission, needed to cost buys accurately.
//   - maxPositionPct: maximum fraction of equity allowed in a single
//     position (e.g. 0.25 for 25%); zero disables the check.
func NewRiskManager(commissionRate, maxPositionPct float64) *RiskManager {
	return &RiskManager{
		commissionRate: commissionRate,
		maxPositionPct: maxPositionPct,
	}
}

// CheckOrder evaluates a proposed fill against the current account state.
// A nil error means the order may proceed.
func (rm *RiskManager) CheckOrder(order *domain.Order, account domain.AccountSnapshot) error {
	if order.Side == domain.OrderSideBuy {
		cost := order.Price * (1 + rm.commissionRate) * order.Amount
		if cost > account.Cash {
			return fmt.Errorf("insufficient cash: need %.2f, have %.2f", cost, account.Cash)
		}
	}

	if rm.maxPositionPct > 0 && account.Equity > 0 {
		current := 0.0
		if pos, ok := account.Positions[order.Symbol]; ok {
			current = pos.Amount
		}
		delta := order.Amount
		if order.Side == domain.OrderSideSell {
			delta = -delta
		}
		notional := (current + delta) * order.Price
		if notional < 0 {
			notional = -notional
		}
		if notional > rm.maxPositionPct*account.Equity {
			return fmt.Errorf("position limit: %s notional %.2f exceeds %.0f%% of equity %.2f",
				order.Symbol, notional, rm.maxPositionPct*100, account.Equity)
		}
	}

	return nil
}
