package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"butterfly/internal/domain"
	"butterfly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	msgStaffOnly = "This bot is for Butterfly restaurant staff only."
	msgError     = "Something went wrong, please try again later."
	msgHelp      = "Butterfly manager bot\n\n" +
		"/bookings - all bookings, newest first\n" +
		"/pending - bookings waiting for a decision\n" +
		"/booking <reference> - booking details\n" +
		"/menu - menu availability"
)

// callback data prefixes
const (
	cbBookingsPage = "bookings_page:"
	cbPendingPage  = "pending_page:"
	cbBooking      = "booking:"
	cbStatus       = "status:"
	cbMenuPage     = "menu_page:"
	cbMenuToggle   = "menu_toggle:"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !msg.IsCommand() {
		b.sendMessage(chatID, msgHelp)
		return
	}

	switch msg.Command() {
	case "bookings":
		b.sendBookingsPage(ctx, chatID, 0, 0, false)
	case "pending":
		b.sendBookingsPage(ctx, chatID, 0, 0, true)
	case "booking":
		ref := strings.TrimSpace(msg.CommandArguments())
		if ref == "" {
			b.sendMessage(chatID, "Usage: /booking <reference>")
			return
		}
		b.showBooking(ctx, chatID, ref)
	case "menu":
		b.sendMenuPage(ctx, chatID, 0, 0)
	default:
		b.sendMessage(chatID, msgHelp)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// отвечаем сразу, чтобы убрать "часики" на кнопке
	b.answerCallback(cq.ID, "")
	if cq.Message == nil {
		return
	}

	chatID := cq.Message.Chat.ID
	messageID := cq.Message.MessageID
	data := cq.Data

	switch {
	case strings.HasPrefix(data, cbBookingsPage):
		b.sendBookingsPage(ctx, chatID, messageID, pageArg(data, cbBookingsPage), false)

	case strings.HasPrefix(data, cbPendingPage):
		b.sendBookingsPage(ctx, chatID, messageID, pageArg(data, cbPendingPage), true)

	case strings.HasPrefix(data, cbBooking):
		b.showBooking(ctx, chatID, strings.TrimPrefix(data, cbBooking))

	case strings.HasPrefix(data, cbStatus):
		id, status, ok := strings.Cut(strings.TrimPrefix(data, cbStatus), ":")
		if !ok {
			return
		}
		b.changeStatus(ctx, chatID, id, status)

	case strings.HasPrefix(data, cbMenuPage):
		b.sendMenuPage(ctx, chatID, messageID, pageArg(data, cbMenuPage))

	case strings.HasPrefix(data, cbMenuToggle):
		id, page, _ := strings.Cut(strings.TrimPrefix(data, cbMenuToggle), ":")
		b.toggleMenuItem(ctx, chatID, messageID, id, pageArg(page, ""))

	default:
		zerolog.Ctx(ctx).Warn().Str("data", data).Msg("unknown callback")
	}
}

func (b *Bot) showBooking(ctx context.Context, chatID int64, ref string) {
	booking, err := b.bookings.FindByReference(ctx, ref)
	if err != nil {
		b.replyError(ctx, chatID, err, "find booking")
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatBooking(*booking))
	if booking.Status == models.StatusPending {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", cbStatus+booking.ID+":"+models.StatusConfirmed),
				tgbotapi.NewInlineKeyboardButtonData("❌ Reject", cbStatus+booking.ID+":"+models.StatusRejected),
			),
		)
		msg.ReplyMarkup = keyboard
	}
	b.send(msg)
}

func (b *Bot) changeStatus(ctx context.Context, chatID int64, id, status string) {
	booking, err := b.bookings.UpdateStatus(ctx, models.StatusUpdate{ID: id, Status: status})
	if err != nil {
		b.replyError(ctx, chatID, err, "update booking status")
		return
	}

	zerolog.Ctx(ctx).Info().Str("booking_id", booking.ID).Str("status", booking.Status).Msg("booking status changed from telegram")
	b.sendMessage(chatID, fmt.Sprintf("%s Booking %s is now %s.", statusIcon(booking.Status), booking.Reference, booking.Status))
}

func (b *Bot) toggleMenuItem(ctx context.Context, chatID int64, messageID int, id string, page int) {
	item, err := b.menu.ToggleAvailability(ctx, id)
	if err != nil {
		b.replyError(ctx, chatID, err, "toggle menu item")
		return
	}

	zerolog.Ctx(ctx).Info().Str("item_id", item.ID).Bool("available", item.Available).Msg("menu item toggled from telegram")
	b.sendMenuPage(ctx, chatID, messageID, page)
}

func (b *Bot) sendBookingsPage(ctx context.Context, chatID int64, messageID, page int, pendingOnly bool) {
	list, err := b.bookings.ListBookings(ctx)
	if err != nil {
		b.replyError(ctx, chatID, err, "list bookings")
		return
	}

	title, prefix, empty := "📋 Bookings", cbBookingsPage, "No bookings yet."
	if pendingOnly {
		title, prefix, empty = "⏳ Pending bookings", cbPendingPage, "No pending bookings."
		pending := list[:0:0]
		for _, booking := range list {
			if booking.Status == models.StatusPending {
				pending = append(pending, booking)
			}
		}
		list = pending
	}

	if len(list) == 0 {
		b.sendMessage(chatID, empty)
		return
	}

	b.renderPaginatedList(pageParams{
		ChatID:     chatID,
		MessageID:  messageID,
		Page:       page,
		Title:      title,
		PagePrefix: prefix,
	}, len(list), func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton

		for _, booking := range list[startIdx:endIdx] {
			content.WriteString(fmt.Sprintf("%s %s · %s\n", statusIcon(booking.Status), booking.Reference, booking.Name))
			content.WriteString(fmt.Sprintf("   📅 %s %s · 👥 %s\n\n", booking.Date, booking.Time, booking.Guests))

			keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(booking.Reference+" "+booking.Name, cbBooking+booking.Reference),
			))
		}
		return content.String(), keyboard
	})
}

func (b *Bot) sendMenuPage(ctx context.Context, chatID int64, messageID, page int) {
	items, err := b.menu.ListItems(ctx)
	if err != nil {
		b.replyError(ctx, chatID, err, "list menu")
		return
	}
	if len(items) == 0 {
		b.sendMessage(chatID, "The menu is empty.")
		return
	}

	b.renderPaginatedList(pageParams{
		ChatID:     chatID,
		MessageID:  messageID,
		Page:       page,
		Title:      "🍽 Menu",
		PagePrefix: cbMenuPage,
	}, len(items), func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton

		for _, item := range items[startIdx:endIdx] {
			icon, action := "✅", "Disable"
			if !item.Available {
				icon, action = "🚫", "Enable"
			}
			content.WriteString(fmt.Sprintf("%s %s (%s) - %d\n", icon, item.Name, item.Category, item.Price))

			keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					action+" "+item.Name,
					fmt.Sprintf("%s%s:%d", cbMenuToggle, item.ID, page),
				),
			))
		}
		return content.String(), keyboard
	})
}

func (b *Bot) replyError(ctx context.Context, chatID int64, err error, op string) {
	var de *domain.Error
	if !errors.As(err, &de) {
		zerolog.Ctx(ctx).Error().Err(err).Str("op", op).Msg("manager bot request failed")
	}
	b.sendMessage(chatID, domain.Message(err, msgError))
}

func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error().Err(err).Msg("telegram send failed")
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.logger.Warn().Err(err).Msg("answer callback failed")
	}
}

func formatBooking(booking models.Booking) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s Booking %s\n\n", statusIcon(booking.Status), booking.Reference))
	sb.WriteString(fmt.Sprintf("👤 %s\n📱 %s (%s)\n", booking.Name, booking.Phone, booking.ContactMethod))
	if booking.Email != "" {
		sb.WriteString(fmt.Sprintf("✉️ %s\n", booking.Email))
	}
	sb.WriteString(fmt.Sprintf("📅 %s %s\n👥 %s guests\n", booking.Date, booking.Time, booking.Guests))
	sb.WriteString(fmt.Sprintf("🏷 %s\n", booking.Type))
	if booking.Duration != "" {
		sb.WriteString(fmt.Sprintf("⏱ %s\n", booking.Duration))
	}
	for _, d := range booking.Decorations {
		sb.WriteString(fmt.Sprintf("🎈 %s (%.2f)\n", d.Name, d.Price))
	}
	if booking.TotalPrice != nil {
		sb.WriteString(fmt.Sprintf("💰 %.2f\n", *booking.TotalPrice))
	}
	if booking.SpecialRequests != "" {
		sb.WriteString(fmt.Sprintf("📝 %s\n", booking.SpecialRequests))
	}
	sb.WriteString(fmt.Sprintf("\nStatus: %s", booking.Status))
	return sb.String()
}

func statusIcon(status string) string {
	switch status {
	case models.StatusConfirmed:
		return "✅"
	case models.StatusRejected:
		return "❌"
	default:
		return "⏳"
	}
}

func pageArg(data, prefix string) int {
	page, err := strconv.Atoi(strings.TrimPrefix(data, prefix))
	if err != nil || page < 0 {
		return 0
	}
	return page
}
