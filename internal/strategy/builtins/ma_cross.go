package builtins

import (
	"context"
	"fmt"

	"tradewatch/internal/domain"
	"tradewatch/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*MovingAverageCross)(nil)

// maCrossState is the rolling window and last fast-minus-slow difference for
// one pair.
type maCrossState struct {
	prices   []float64
	prevDiff float64
	hasPrev  bool
}

// MovingAverageCross keeps a bounded rolling price window per pair and
// signals when the fast SMA crosses the slow SMA: buy on a negative-to-
// positive crossing, sell on positive-to-negative. Non-crossing observations
// produce no signal.
type MovingAverageCross struct {
	fastPeriod int
	slowPeriod int
	state      map[pairKey]*maCrossState
}

// NewMovingAverageCross creates a MovingAverageCross strategy with the given
// fast and slow periods.
func NewMovingAverageCross(fastPeriod, slowPeriod int) *MovingAverageCross {
	return &MovingAverageCross{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		state:      make(map[pairKey]*maCrossState),
	}
}

// Name returns "MovingAverageCross".
func (s *MovingAverageCross) Name() string { return "MovingAverageCross" }

// Check appends the observation to the pair's window and evaluates the
// crossing rule once slowPeriod samples exist.
func (s *MovingAverageCross) Check(_ context.Context, obs domain.Observation) ([]domain.Signal, error) {
	if s.fastPeriod <= 0 || s.slowPeriod <= 0 || s.fastPeriod >= s.slowPeriod {
		return nil, nil
	}

	key := pairKey{obs.Exchange, obs.Symbol}
	st, ok := s.state[key]
	if !ok {
		st = &maCrossState{}
		s.state[key] = st
	}

	st.prices = append(st.prices, obs.Price)
	if len(st.prices) > s.slowPeriod {
		st.prices = st.prices[len(st.prices)-s.slowPeriod:]
	}
	if len(st.prices) < s.slowPeriod {
		return nil, nil
	}

	fastMA := mean(st.prices[len(st.prices)-s.fastPeriod:])
	slowMA := mean(st.prices)
	diff := fastMA - slowMA

	prev, hadPrev := st.prevDiff, st.hasPrev
	st.prevDiff = diff
	st.hasPrev = true

	if !hadPrev {
		return nil, nil
	}

	var action domain.SignalAction
	var direction string
	switch {
	case prev < 0 && diff > 0:
		action, direction = domain.ActionBuy, directionUp
	case prev > 0 && diff < 0:
		action, direction = domain.ActionSell, directionDown
	default:
		return nil, nil
	}

	return []domain.Signal{{
		Exchange:    obs.Exchange,
		Symbol:      obs.Symbol,
		Action:      action,
		Strategy:    fmt.Sprintf("MovingAverageCross (%d/%d)", s.fastPeriod, s.slowPeriod),
		OldPrice:    slowMA,
		NewPrice:    fastMA,
		PercentDiff: diff,
		Direction:   direction,
		Timestamp:   obs.Timestamp,
	}}, nil
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
