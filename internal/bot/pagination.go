package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type pageParams struct {
	ChatID     int64
	MessageID  int // 0 - новое сообщение
	Page       int
	Title      string
	PagePrefix string
}

// renderPaginatedList рисует одну страницу списка с кнопками навигации.
// Если MessageID задан, редактирует существующее сообщение.
func (b *Bot) renderPaginatedList(params pageParams, totalCount int, renderer func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton)) {
	perPage := b.pageSize
	if perPage <= 0 {
		perPage = defaultPageSize
	}

	totalPages := (totalCount + perPage - 1) / perPage
	if params.Page >= totalPages && totalPages > 0 {
		params.Page = totalPages - 1
	}
	if params.Page < 0 {
		params.Page = 0
	}

	startIdx := params.Page * perPage
	endIdx := min(startIdx+perPage, totalCount)

	content, keyboard := renderer(startIdx, endIdx)

	var message strings.Builder
	message.WriteString(params.Title + "\n\n")
	if totalPages > 1 {
		message.WriteString(fmt.Sprintf("Page %d of %d\n\n", params.Page+1, totalPages))
	}
	message.WriteString(content)

	var navButtons []tgbotapi.InlineKeyboardButton
	if params.Page > 0 {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", fmt.Sprintf("%s%d", params.PagePrefix, params.Page-1)))
	}
	if endIdx < totalCount {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("%s%d", params.PagePrefix, params.Page+1)))
	}
	if len(navButtons) > 0 {
		keyboard = append(keyboard, navButtons)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)

	if params.MessageID != 0 {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(params.ChatID, params.MessageID, message.String(), markup))
		return
	}

	msg := tgbotapi.NewMessage(params.ChatID, message.String())
	msg.ReplyMarkup = markup
	b.send(msg)
}
