// Package notify delivers best-effort staff notifications. Delivery
// failures are logged and never block a booking response.
package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Kind classifies a notification.
type Kind string

const (
	KindHumanRequest   Kind = "human_request"
	KindBookingCreated Kind = "booking_created"
)

// Notifier sends a notification; the returned bool reports delivery.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, message string) bool
}

// TelegramNotifier delivers notifications to the salon's staff chat.
// With no token configured it runs in mock mode and only logs, so
// development setups need no bot.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewTelegram creates a notifier. An empty token yields mock mode.
func NewTelegram(token string, chatID int64, logger zerolog.Logger) (*TelegramNotifier, error) {
	n := &TelegramNotifier{
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(20), 30),
		logger:  logger,
	}
	if token == "" {
		return n, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	n.bot = bot
	return n, nil
}

// Notify sends the message to the staff chat. Best effort: rate-limit
// waits respect ctx, and any failure is logged and reported as false.
func (n *TelegramNotifier) Notify(ctx context.Context, kind Kind, message string) bool {
	if n.bot == nil {
		n.logger.Info().Str("kind", string(kind)).Str("message", message).Msg("notification (mock)")
		return true
	}

	if err := n.limiter.Wait(ctx); err != nil {
		n.logger.Warn().Err(err).Str("kind", string(kind)).Msg("notification rate limit wait cancelled")
		return false
	}

	msg := tgbotapi.NewMessage(n.chatID, message)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Str("kind", string(kind)).Msg("notification send failed")
		return false
	}
	return true
}
