package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
)

// sendTrackMenu "Отследить заказ"
func (h *BotHandler) sendTrackMenu(chatID int64) {
	h.sendWithMarkup(chatID, "🔎 Отслеживание заказа:", trackKeyboard())
}

// handleTrackCallback holat/tarix/ma'lumot tugmalari
func (h *BotHandler) handleTrackCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	switch cq.Data {
	case cbStatusInfo:
		h.sendWithMarkup(chatID, statusLegend(), trackKeyboard())
		return nil
	case cbCheckStatus:
		orders, err := h.lifecycle.ActiveOrders(ctx, userID)
		if errors.Is(err, usecase.ErrNotRegistered) {
			h.sendRegistrationPrompt(chatID, false)
			return nil
		}
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			h.sendWithMarkup(chatID, "У вас нет активных заказов.", trackKeyboard())
			return nil
		}
		h.sendWithMarkup(chatID, formatUserOrders("📦 Ваши активные заказы:", orders), trackKeyboard())
	case cbOrderHistory:
		orders, err := h.lifecycle.OrderHistory(ctx, userID)
		if errors.Is(err, usecase.ErrNotRegistered) {
			h.sendRegistrationPrompt(chatID, false)
			return nil
		}
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			h.sendWithMarkup(chatID, "История заказов пуста.", trackKeyboard())
			return nil
		}
		h.sendWithMarkup(chatID, formatUserOrders("📜 История ваших заказов:", orders), trackKeyboard())
	}
	return nil
}
