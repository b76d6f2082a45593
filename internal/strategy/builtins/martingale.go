package builtins

import (
	"context"
	"fmt"
	"math"

	"tradewatch/internal/domain"
	"tradewatch/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*Martingale)(nil)

// martingalePosition is the averaging state for one pair.
type martingalePosition struct {
	entry  float64 // quantity-weighted average entry price
	step   int
	amount float64 // cumulative position size
}

// Martingale averages down with doubling tranches. The first observation per
// pair opens a silent baseline position. Each drop of threshold% below the
// average entry buys initialAmount·2^step and folds the tranche into a new
// weighted average, up to maxSteps tranches; once the cap is reached the
// position is simply held until the take-profit reversal. A rise of
// threshold% above the average entry sells the whole accumulated amount and
// clears the state.
type Martingale struct {
	thresholdPercent float64
	maxSteps         int
	initialAmount    float64
	positions        map[pairKey]*martingalePosition
}

// NewMartingale creates a Martingale strategy.
func NewMartingale(thresholdPercent float64, maxSteps int, initialAmount float64) *Martingale {
	return &Martingale{
		thresholdPercent: thresholdPercent,
		maxSteps:         maxSteps,
		initialAmount:    initialAmount,
		positions:        make(map[pairKey]*martingalePosition),
	}
}

// Name returns "Martingale".
func (s *Martingale) Name() string { return "Martingale" }

// Check advances the averaging state machine by one observation.
func (s *Martingale) Check(_ context.Context, obs domain.Observation) ([]domain.Signal, error) {
	key := pairKey{obs.Exchange, obs.Symbol}

	pos, ok := s.positions[key]
	if !ok {
		// Baseline position opens silently.
		s.positions[key] = &martingalePosition{
			entry:  obs.Price,
			step:   0,
			amount: s.initialAmount,
		}
		return nil, nil
	}
	if pos.entry == 0 {
		return nil, nil
	}

	dropPercent := (pos.entry - obs.Price) / pos.entry * 100

	switch {
	case dropPercent >= s.thresholdPercent && pos.step < s.maxSteps:
		tranche := s.initialAmount * math.Pow(2, float64(pos.step))
		newAmount := pos.amount + tranche
		newAvg := (pos.entry*pos.amount + obs.Price*tranche) / newAmount

		oldEntry := pos.entry
		pos.entry = newAvg
		pos.amount = newAmount
		pos.step++

		return []domain.Signal{{
			Exchange:    obs.Exchange,
			Symbol:      obs.Symbol,
			Action:      domain.ActionBuy,
			Amount:      tranche,
			AvgPrice:    newAvg,
			Step:        pos.step,
			Strategy:    fmt.Sprintf("Martingale (%g%% step, %d/%d)", s.thresholdPercent, pos.step, s.maxSteps),
			OldPrice:    oldEntry,
			NewPrice:    obs.Price,
			PercentDiff: dropPercent,
			Direction:   directionDown,
			Timestamp:   obs.Timestamp,
		}}, nil

	case obs.Price > pos.entry*(1+s.thresholdPercent/100):
		// Take-profit exit: sell the full accumulated amount.
		sig := domain.Signal{
			Exchange:    obs.Exchange,
			Symbol:      obs.Symbol,
			Action:      domain.ActionSell,
			Amount:      pos.amount,
			AvgPrice:    pos.entry,
			Step:        pos.step,
			Strategy:    "Martingale EXIT",
			OldPrice:    pos.entry,
			NewPrice:    obs.Price,
			PercentDiff: (obs.Price - pos.entry) / pos.entry * 100,
			Direction:   directionUp,
			Timestamp:   obs.Timestamp,
		}
		delete(s.positions, key)
		return []domain.Signal{sig}, nil
	}

	return nil, nil
}
