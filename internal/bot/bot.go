package bot

import (
	"context"
	"time"

	"butterfly/internal/domain"
	"butterfly/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	updateTimeout   = 30 * time.Second
	defaultPageSize = 5
)

// TelegramAPI is the part of *tgbotapi.BotAPI the manager bot uses.
type TelegramAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// Bot lets restaurant managers review bookings and the menu from Telegram.
// Only chats listed as managers get answers.
type Bot struct {
	api      TelegramAPI
	bookings domain.BookingService
	menu     domain.MenuService
	managers map[int64]struct{}
	pageSize int
	logger   *zerolog.Logger
}

func NewBot(api TelegramAPI, bookings domain.BookingService, menu domain.MenuService, managerIDs []int64, logger *zerolog.Logger) *Bot {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	managers := make(map[int64]struct{}, len(managerIDs))
	for _, id := range managerIDs {
		managers[id] = struct{}{}
	}

	return &Bot{
		api:      api,
		bookings: bookings,
		menu:     menu,
		managers: managers,
		pageSize: defaultPageSize,
		logger:   logger,
	}
}

// Start reads updates until ctx is done or the updates channel closes.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.api.GetSelf().UserName).Msg("manager bot authorized")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("manager bot stopping")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates.
func (b *Bot) Stop() {
	if b == nil || b.api == nil {
		return
	}
	b.api.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		metrics.ObserveBotUpdate(time.Since(start).Seconds())
	}()

	// у каждого апдейта свой таймаут
	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	l := b.logger.With().Str("request_id", uuid.NewString()).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		userID := senderID(update)
		if userID == 0 {
			return
		}

		if !b.isManager(userID) {
			metrics.IncBotUpdate("denied")
			l.Warn().Int64("user_id", userID).Msg("update from non-manager ignored")
			if update.CallbackQuery != nil {
				b.answerCallback(update.CallbackQuery.ID, "")
			} else if update.Message != nil {
				b.sendMessage(update.Message.Chat.ID, msgStaffOnly)
			}
			return
		}

		metrics.IncBotUpdate("handled")
		switch {
		case update.CallbackQuery != nil:
			b.handleCallback(updateCtx, update.CallbackQuery)
		case update.Message != nil:
			b.handleMessage(updateCtx, update.Message)
		}
	})
}

func (b *Bot) withRecovery(handler func()) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncBotUpdate("panic")
			b.logger.Error().Interface("panic", r).Msg("recovered from panic in update handler")
		}
	}()
	handler()
}

func (b *Bot) isManager(userID int64) bool {
	_, ok := b.managers[userID]
	return ok
}

func senderID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}

// Wrapper adapts *tgbotapi.BotAPI to TelegramAPI.
type Wrapper struct {
	*tgbotapi.BotAPI
}

func NewWrapper(api *tgbotapi.BotAPI) *Wrapper {
	return &Wrapper{BotAPI: api}
}

func (w *Wrapper) GetSelf() tgbotapi.User {
	return w.Self
}
