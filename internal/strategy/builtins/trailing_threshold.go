package builtins

import (
	"context"
	"fmt"

	"tradewatch/internal/domain"
	"tradewatch/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*TrailingInitialThreshold)(nil)

// trailDirection records the side of the last emitted trade signal.
type trailDirection string

const (
	trailNeutral trailDirection = "neutral"
	trailBuy     trailDirection = "buy"
	trailSell    trailDirection = "sell"
)

// TrailingInitialThreshold is a reversing trailing-threshold oscillator. Per
// pair it keeps an anchor price and the direction of the last signal. Before
// the first trigger the anchor stays at the first observed price; a drop of
// threshold% off the anchor emits a buy, a rise of threshold% emits a sell.
// On quiet ticks after a trigger the anchor ratchets with the price, down
// after a buy (tracking the low) and up after a sell (tracking the high), so
// every new signal requires a full threshold% reversal off the extreme.
type TrailingInitialThreshold struct {
	thresholdPercent float64
	anchors          map[pairKey]float64
	directions       map[pairKey]trailDirection
}

// NewTrailingInitialThreshold creates the oscillator with the given reversal
// percentage.
func NewTrailingInitialThreshold(thresholdPercent float64) *TrailingInitialThreshold {
	return &TrailingInitialThreshold{
		thresholdPercent: thresholdPercent,
		anchors:          make(map[pairKey]float64),
		directions:       make(map[pairKey]trailDirection),
	}
}

// Name returns "TrailingInitialThreshold".
func (s *TrailingInitialThreshold) Name() string { return "TrailingInitialThreshold" }

// Check advances the oscillator by one observation.
func (s *TrailingInitialThreshold) Check(_ context.Context, obs domain.Observation) ([]domain.Signal, error) {
	key := pairKey{obs.Exchange, obs.Symbol}

	anchor, ok := s.anchors[key]
	if !ok {
		s.anchors[key] = obs.Price
		s.directions[key] = trailNeutral
		return nil, nil
	}
	if anchor == 0 {
		return nil, nil
	}

	change := (obs.Price - anchor) / anchor * 100

	switch {
	case change <= -s.thresholdPercent:
		s.anchors[key] = obs.Price
		s.directions[key] = trailBuy
		return []domain.Signal{s.signal(obs, domain.ActionBuy, anchor, change)}, nil

	case change >= s.thresholdPercent:
		s.anchors[key] = obs.Price
		s.directions[key] = trailSell
		return []domain.Signal{s.signal(obs, domain.ActionSell, anchor, change)}, nil

	default:
		switch s.directions[key] {
		case trailNeutral:
			// No trigger yet: the initial anchor stands.
		case trailBuy:
			// Ratchet down: a sell must rebound threshold% off the low.
			s.anchors[key] = min(anchor, obs.Price)
		case trailSell:
			// Ratchet up: a buy must drop threshold% off the high.
			s.anchors[key] = max(anchor, obs.Price)
		}
		return nil, nil
	}
}

func (s *TrailingInitialThreshold) signal(obs domain.Observation, action domain.SignalAction, anchor, change float64) domain.Signal {
	direction := directionDown
	if action == domain.ActionSell {
		direction = directionUp
	}
	return domain.Signal{
		Exchange:    obs.Exchange,
		Symbol:      obs.Symbol,
		Action:      action,
		Strategy:    fmt.Sprintf("TrailingInitialThreshold (%g%%)", s.thresholdPercent),
		OldPrice:    anchor,
		NewPrice:    obs.Price,
		PercentDiff: change,
		Direction:   direction,
		Timestamp:   obs.Timestamp,
	}
}
