// Package builtins provides the built-in signal strategies that ship with
// tradewatch. Every strategy keeps its state per exchange/symbol pair and
// never shares it with other instances.
package builtins

// pairKey identifies the per-strategy state bucket for one tracked pair.
type pairKey struct {
	exchange string
	symbol   string
}

const (
	directionUp   = "up"
	directionDown = "down"
)
