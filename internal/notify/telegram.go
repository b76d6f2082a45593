package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tradewatch/internal/domain"
)

// Compile-time interface check.
var _ Notifier = (*Telegram)(nil)

// StatusSource answers the bot's query commands. The live engine implements
// it; the backtest CLI never wires a bot at all.
type StatusSource interface {
	// BalanceReport returns the current account snapshot marked to the
	// latest known prices.
	BalanceReport(ctx context.Context) (domain.AccountSnapshot, error)

	// RecentOrders returns up to limit orders, newest first.
	RecentOrders(ctx context.Context, limit int) ([]domain.Order, error)

	// RecentAlerts returns one page of the alert log, newest first.
	RecentAlerts(ctx context.Context, page, pageSize int) ([]domain.Signal, error)
}

// Telegram delivers alerts to a single chat and optionally serves query
// commands (/balance, /orders) over long polling.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	status StatusSource
	log    *slog.Logger
}

// NewTelegram connects to the Telegram Bot API. status may be nil, in which
// case the query commands report that no engine is attached.
func NewTelegram(token string, chatID int64, status StatusSource) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting telegram bot: %w", err)
	}
	bot.Debug = false

	t := &Telegram{
		bot:    bot,
		chatID: chatID,
		status: status,
		log:    slog.Default().With("component", "telegram"),
	}
	t.log.Info("telegram connected", "username", bot.Self.UserName)
	return t, nil
}

// AttachStatus wires the source behind /balance and /orders. Call before Run;
// the watcher is built after the notifier, so this closes the cycle.
func (t *Telegram) AttachStatus(s StatusSource) { t.status = s }

// Alert implements Notifier.
func (t *Telegram) Alert(_ context.Context, sig domain.Signal) error {
	return t.send(FormatAlert(sig))
}

// Message implements Notifier.
func (t *Telegram) Message(_ context.Context, text string) error {
	return t.send(text)
}

func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

// Run serves the bot's query commands until the context is cancelled. Only
// messages from the configured chat are answered.
func (t *Telegram) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := t.bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return nil
		case up := <-updates:
			if up.Message == nil || up.Message.Chat.ID != t.chatID {
				continue
			}
			t.handleCommand(ctx, strings.TrimSpace(up.Message.Text))
		}
	}
}

func (t *Telegram) handleCommand(ctx context.Context, text string) {
	var reply string
	switch {
	case strings.HasPrefix(text, "/start"):
		reply = "Commands: /balance, /orders, /alerts"
	case strings.HasPrefix(text, "/balance"):
		reply = t.balanceReply(ctx)
	case strings.HasPrefix(text, "/orders"):
		reply = t.ordersReply(ctx)
	case strings.HasPrefix(text, "/alerts"):
		reply = t.alertsReply(ctx)
	default:
		return
	}
	if err := t.send(reply); err != nil {
		t.log.Error("replying to command failed", "command", text, "error", err)
	}
}

func (t *Telegram) balanceReply(ctx context.Context) string {
	if t.status == nil {
		return "No engine attached."
	}
	snap, err := t.status.BalanceReport(ctx)
	if err != nil {
		return fmt.Sprintf("Balance unavailable: %v", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💰 <b>Cash:</b> <code>%.2f</code>\n", snap.Cash)
	fmt.Fprintf(&b, "📈 <b>Equity:</b> <code>%.2f</code>\n", snap.Equity)
	fmt.Fprintf(&b, "✅ <b>Realized PnL:</b> <code>%.2f</code>\n", snap.RealizedPnL)
	fmt.Fprintf(&b, "⏳ <b>Unrealized PnL:</b> <code>%.2f</code>", snap.UnrealizedPnL)
	for symbol, pos := range snap.Positions {
		fmt.Fprintf(&b, "\n• <i>%s</i>: %.6f @ %.4f", symbol, pos.Amount, pos.AvgPrice)
	}
	return b.String()
}

func (t *Telegram) ordersReply(ctx context.Context) string {
	if t.status == nil {
		return "No engine attached."
	}
	orders, err := t.status.RecentOrders(ctx, 10)
	if err != nil {
		return fmt.Sprintf("Orders unavailable: %v", err)
	}
	if len(orders) == 0 {
		return "No orders yet."
	}

	var b strings.Builder
	b.WriteString("📋 <b>Recent orders</b>")
	for _, o := range orders {
		fmt.Fprintf(&b, "\n• %s <i>%s</i> %s %.6f @ %.4f (%s)",
			o.CreatedAt.Format("01-02 15:04"), o.Symbol, o.Side, o.Amount, o.Price, o.Strategy)
	}
	return b.String()
}

func (t *Telegram) alertsReply(ctx context.Context) string {
	if t.status == nil {
		return "No engine attached."
	}
	alerts, err := t.status.RecentAlerts(ctx, 1, 10)
	if err != nil {
		return fmt.Sprintf("Alerts unavailable: %v", err)
	}
	if len(alerts) == 0 {
		return "No alerts yet."
	}

	var b strings.Builder
	b.WriteString("🔔 <b>Recent alerts</b>")
	for _, a := range alerts {
		fmt.Fprintf(&b, "\n• %s <i>%s</i> %g → %g (%s)",
			a.Timestamp.Format("01-02 15:04"), a.Symbol, a.OldPrice, a.NewPrice, a.Strategy)
	}
	return b.String()
}

// FormatAlert renders a signal as the HTML alert message.
func FormatAlert(sig domain.Signal) string {
	sign, icon, oldIcon, newIcon := "-", "📉", "🔺", "🔻"
	if sig.NewPrice > sig.OldPrice {
		sign, icon, oldIcon, newIcon = "+", "📈", "🔻", "🔺"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Exchange:</b> <i>%s</i>\n", sig.Exchange)
	fmt.Fprintf(&b, "💱 <b>Pair:</b> <i>%s</i>\n\n", sig.Symbol)
	fmt.Fprintf(&b, "%s <b>Change:</b> <b><u>%s%.2f%%</u></b>\n", icon, sign, sig.PercentDiff)
	fmt.Fprintf(&b, "%s <b>Old price:</b> <code>%g</code>\n", oldIcon, sig.OldPrice)
	fmt.Fprintf(&b, "%s <b>New price:</b> <code>%g</code>\n", newIcon, sig.NewPrice)
	fmt.Fprintf(&b, "🕒 <b>Time:</b> <i>%s</i>\n", sig.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "🧭 <b>Direction:</b> %s", sig.Direction)
	if sig.Strategy != "" {
		fmt.Fprintf(&b, "\n📐 <b>Strategy:</b> <i>%s</i>", sig.Strategy)
	}
	return b.String()
}
