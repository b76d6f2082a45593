package notify

import (
	"context"
	"log/slog"

	"tradewatch/internal/domain"
)

// Compile-time interface check.
var _ Notifier = (*Log)(nil)

// Log writes alerts to the structured log. It is the fallback channel when no
// Telegram token is configured, so the watch loop always has a notifier.
type Log struct {
	log *slog.Logger
}

// NewLog creates a log-backed notifier.
func NewLog() *Log {
	return &Log{log: slog.Default().With("component", "notify")}
}

// Alert implements Notifier.
func (l *Log) Alert(_ context.Context, sig domain.Signal) error {
	l.log.Info("strategy alert",
		"strategy", sig.Strategy,
		"exchange", sig.Exchange,
		"symbol", sig.Symbol,
		"action", sig.Action,
		"old_price", sig.OldPrice,
		"new_price", sig.NewPrice,
		"percent_diff", sig.PercentDiff,
		"direction", sig.Direction,
	)
	return nil
}

// Message implements Notifier.
func (l *Log) Message(_ context.Context, text string) error {
	l.log.Info("notify", "message", text)
	return nil
}
