package telegram

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// clearInlineButtons bosilgan xabardagi tugmalarni olib tashlaydi (ikki marta bosilmasin)
func (h *BotHandler) clearInlineButtons(cq *tgbotapi.CallbackQuery) bool {
	if cq == nil || h.bot == nil {
		return false
	}
	if cq.Message != nil && cq.Message.Chat != nil {
		return h.clearInlineButtonsByMessage(cq.Message.Chat.ID, cq.Message.MessageID, "")
	}
	if cq.InlineMessageID != "" {
		return h.clearInlineButtonsByMessage(0, 0, cq.InlineMessageID)
	}
	return false
}

func (h *BotHandler) clearInlineButtonsByMessage(chatID int64, messageID int, inlineID string) bool {
	empty := [][]tgbotapi.InlineKeyboardButton{}
	edit := tgbotapi.EditMessageReplyMarkupConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:          chatID,
			MessageID:       messageID,
			InlineMessageID: inlineID,
			ReplyMarkup:     &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: empty},
		},
	}
	if _, err := h.bot.Request(edit); err != nil {
		log.Printf("inline keyboard clear failed: %v", err)
		return false
	}
	return true
}
