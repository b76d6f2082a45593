package builtins

import (
	"context"
	"fmt"
	"math"

	"tradewatch/internal/domain"
	"tradewatch/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*InitialThreshold)(nil)

// InitialThreshold anchors on the first observed price per pair and fires a
// mean-reversion signal whenever the price moves threshold% away from the
// anchor: sell after a rise, buy after a dip. Each trigger resets the anchor
// to the current price, re-arming the strategy immediately.
type InitialThreshold struct {
	thresholdPercent float64
	anchors          map[pairKey]float64
}

// NewInitialThreshold creates an InitialThreshold strategy with the given
// trigger percentage.
func NewInitialThreshold(thresholdPercent float64) *InitialThreshold {
	return &InitialThreshold{
		thresholdPercent: thresholdPercent,
		anchors:          make(map[pairKey]float64),
	}
}

// Name returns "InitialThreshold".
func (s *InitialThreshold) Name() string { return "InitialThreshold" }

// Check records the anchor on the first observation per pair and thereafter
// compares the current price against it. A zero anchor produces no signal.
func (s *InitialThreshold) Check(_ context.Context, obs domain.Observation) ([]domain.Signal, error) {
	key := pairKey{obs.Exchange, obs.Symbol}

	anchor, ok := s.anchors[key]
	if !ok {
		s.anchors[key] = obs.Price
		return nil, nil
	}
	if anchor == 0 {
		return nil, nil
	}

	diff := math.Abs(obs.Price-anchor) / anchor * 100
	if diff < s.thresholdPercent {
		return nil, nil
	}

	// Re-arm: the next move is measured from here.
	s.anchors[key] = obs.Price

	action := domain.ActionBuy
	direction := directionDown
	if obs.Price > anchor {
		action = domain.ActionSell
		direction = directionUp
	}

	return []domain.Signal{{
		Exchange:    obs.Exchange,
		Symbol:      obs.Symbol,
		Action:      action,
		Strategy:    fmt.Sprintf("InitialThreshold (%g%%)", s.thresholdPercent),
		OldPrice:    anchor,
		NewPrice:    obs.Price,
		PercentDiff: diff,
		Direction:   direction,
		Timestamp:   obs.Timestamp,
	}}, nil
}
