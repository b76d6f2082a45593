package builtins

import (
	"context"
	"fmt"
	"math"

	"tradewatch/internal/domain"
	"tradewatch/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*Threshold)(nil)

// Threshold is a stateless, notification-only strategy: it fires whenever the
// absolute percent change between the caller-supplied previous price and the
// current price reaches the threshold. It never suggests a trade.
type Threshold struct {
	thresholdPercent float64
}

// NewThreshold creates a Threshold strategy firing at the given percent move.
func NewThreshold(thresholdPercent float64) *Threshold {
	return &Threshold{thresholdPercent: thresholdPercent}
}

// Name returns "Threshold".
func (s *Threshold) Name() string { return "Threshold" }

// Check compares the observation against its previous price. Observations
// without history, or with a zero previous price, produce no signal.
func (s *Threshold) Check(_ context.Context, obs domain.Observation) ([]domain.Signal, error) {
	if !obs.HasPrev || obs.PrevPrice == 0 {
		return nil, nil
	}

	diff := math.Abs(obs.Price-obs.PrevPrice) / obs.PrevPrice * 100
	if diff < s.thresholdPercent {
		return nil, nil
	}

	direction := directionUp
	if obs.Price < obs.PrevPrice {
		direction = directionDown
	}

	return []domain.Signal{{
		Exchange:    obs.Exchange,
		Symbol:      obs.Symbol,
		Action:      domain.ActionNone,
		Strategy:    fmt.Sprintf("Threshold (%g%%)", s.thresholdPercent),
		OldPrice:    obs.PrevPrice,
		NewPrice:    obs.Price,
		PercentDiff: diff,
		Direction:   direction,
		Timestamp:   obs.Timestamp,
	}}, nil
}
