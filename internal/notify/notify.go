// Package notify delivers strategy alerts and operational messages to a
// human, with Telegram as the primary channel and the log as a fallback.
package notify

import (
	"context"

	"tradewatch/internal/domain"
)

// Notifier delivers alerts out-of-band. Delivery failures are reported to the
// caller, which logs and continues; a notifier outage never stops the watch
// loop.
type Notifier interface {
	// Alert formats and sends one strategy signal.
	Alert(ctx context.Context, sig domain.Signal) error

	// Message sends a free-form operational message.
	Message(ctx context.Context, text string) error
}
