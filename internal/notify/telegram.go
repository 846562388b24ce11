package notify

import (
	"context"
	"errors"
	"fmt"

	"butterfly/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ManagerAlerts forwards new bookings to the restaurant staff chats.
type ManagerAlerts struct {
	bot     domain.TelegramSender
	chatIDs []int64
}

func NewManagerAlerts(bot domain.TelegramSender, chatIDs []int64) *ManagerAlerts {
	return &ManagerAlerts{bot: bot, chatIDs: append([]int64(nil), chatIDs...)}
}

// Enabled reports whether there is anyone to alert.
func (a *ManagerAlerts) Enabled() bool {
	return a != nil && a.bot != nil && len(a.chatIDs) > 0
}

// Send delivers text to every manager chat and joins the failures.
func (a *ManagerAlerts) Send(ctx context.Context, text string) error {
	var errs []error
	for _, chatID := range a.chatIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := a.bot.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}
