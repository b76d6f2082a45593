package builtins

import (
	"context"
	"fmt"
	"math"

	"tradewatch/internal/domain"
	"tradewatch/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*VolumeSpike)(nil)

// VolumeSpike is a notification-only strategy comparing each observation's
// volume to the previous one per pair. The stored volume is updated on every
// observation whether or not the strategy fires.
type VolumeSpike struct {
	spikePercent float64
	lastVolume   map[pairKey]float64
}

// NewVolumeSpike creates a VolumeSpike strategy firing at the given percent
// change in volume.
func NewVolumeSpike(spikePercent float64) *VolumeSpike {
	return &VolumeSpike{
		spikePercent: spikePercent,
		lastVolume:   make(map[pairKey]float64),
	}
}

// Name returns "VolumeSpike".
func (s *VolumeSpike) Name() string { return "VolumeSpike" }

// Check compares current and previous volume for the pair. A missing or zero
// previous volume produces no signal.
func (s *VolumeSpike) Check(_ context.Context, obs domain.Observation) ([]domain.Signal, error) {
	key := pairKey{obs.Exchange, obs.Symbol}
	oldVolume := s.lastVolume[key]
	s.lastVolume[key] = obs.Volume

	if oldVolume == 0 {
		return nil, nil
	}

	diff := math.Abs(obs.Volume-oldVolume) / oldVolume * 100
	if diff < s.spikePercent {
		return nil, nil
	}

	direction := directionUp
	if obs.Volume < oldVolume {
		direction = directionDown
	}

	return []domain.Signal{{
		Exchange:    obs.Exchange,
		Symbol:      obs.Symbol,
		Action:      domain.ActionNone,
		Strategy:    fmt.Sprintf("VolumeSpike (%g%%)", s.spikePercent),
		OldVolume:   oldVolume,
		NewVolume:   obs.Volume,
		NewPrice:    obs.Price,
		PercentDiff: diff,
		Direction:   direction,
		Timestamp:   obs.Timestamp,
	}}, nil
}
