// Package strategy defines the Strategy interface for signal strategies and
// provides a Registry for managing the set of instances owned by one run.
package strategy

import (
	"context"
	"sort"

	"tradewatch/internal/domain"
)

// Strategy is the interface all signal strategies implement. Check is called
// once per observation per instance and may mutate only that instance's own
// per-key state. Recoverable conditions (zero anchor, missing history) yield
// an empty slice, not an error.
type Strategy interface {
	// Name returns the identifier stamped onto every emitted signal.
	Name() string

	// Check feeds one price/volume observation to the strategy and returns
	// zero or more signals.
	Check(ctx context.Context, obs domain.Observation) ([]domain.Signal, error)
}

// Registry holds a named collection of strategies for lookup and enumeration.
// Each run (live loop, backtest, sweep candidate) constructs its own Registry
// so strategy state never leaks across runs.
type Registry struct {
	strategies map[string]Strategy
	order      []string
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name(). Registering
// the same name twice replaces the earlier instance.
func (r *Registry) Register(s Strategy) {
	if _, ok := r.strategies[s.Name()]; !ok {
		r.order = append(r.order, s.Name())
	}
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// All returns the registered strategies in registration order. Callers
// iterate this on every observation, so the order is stable.
func (r *Registry) All() []Strategy {
	out := make([]Strategy, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.strategies[name])
	}
	return out
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
