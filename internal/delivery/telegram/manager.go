package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
)

func (h *BotHandler) sendManagerMenu(chatID int64) {
	h.sendWithMarkup(chatID, "📋 Панель менеджера:\nВыберите статус заказов для просмотра или действие:", managerKeyboard())
}

// handleConsoleCallback manager panel tugmalari
func (h *BotHandler) handleConsoleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	if !h.requireStaff(chatID, userID) {
		return nil
	}
	data := cq.Data

	switch {
	case strings.HasPrefix(data, cbManagerByStatus):
		key := strings.TrimPrefix(data, cbManagerByStatus)
		orders, err := h.console.OrdersByStatus(ctx, key)
		if err != nil {
			return err
		}
		st, _ := entity.ParseOrderStatus(key)
		if len(orders) == 0 {
			h.sendMessage(chatID, fmt.Sprintf("Нет заказов со статусом \"%s\".", st.Label()))
			return nil
		}
		h.sendWithMarkup(chatID, formatOrderList(fmt.Sprintf("Заказы со статусом \"%s\":", st.Label()), orders), orderCodesKeyboard(orders))
	case data == cbManagerUpdate:
		h.console.AwaitOrderCode(userID)
		h.sendWithMarkup(chatID, "Введите код заказа (например, A001):", cancelKeyboard(cbConsoleCancel))
	case data == cbManagerByUser:
		h.console.AwaitUserCode(userID)
		h.sendWithMarkup(chatID, "Введите код пользователя (например, A001):", cancelKeyboard(cbConsoleCancel))
	case data == cbManagerTracking:
		h.console.AwaitTracking(userID)
		h.sendWithMarkup(chatID, problemText(usecase.ProblemInvalidTracking), cancelKeyboard(cbConsoleCancel))
	case data == cbConsoleCancel:
		h.clearInlineButtons(cq)
		h.console.Cancel(userID)
		h.sendMessage(chatID, "Действие отменено.")
	case strings.HasPrefix(data, cbOrderIDPrefix):
		r, err := h.console.SelectOrder(ctx, userID, strings.TrimPrefix(data, cbOrderIDPrefix))
		if err != nil {
			return err
		}
		h.replyConsole(chatID, userID, r)
	case strings.HasPrefix(data, cbStatusPrefix):
		r, err := h.console.SelectStatus(ctx, userID, strings.TrimPrefix(data, cbStatusPrefix))
		if err != nil {
			return err
		}
		if r.Problem == usecase.ProblemNone {
			h.clearInlineButtons(cq)
		}
		h.replyConsole(chatID, userID, r)
	}
	return nil
}

func (h *BotHandler) handleConsoleText(ctx context.Context, chatID, userID int64, text string) error {
	if !h.console.IsStaff(userID) {
		h.convs.Reset(userID)
		h.sendMessage(chatID, accessDeniedText)
		return nil
	}
	r, err := h.console.Text(ctx, userID, text)
	if err != nil {
		return err
	}
	h.replyConsole(chatID, userID, r)
	return nil
}

// replyConsole ConsoleReply ni xodimga ko'rsatadi
func (h *BotHandler) replyConsole(chatID, userID int64, r usecase.ConsoleReply) {
	if r.Problem != usecase.ProblemNone {
		h.sendMessage(chatID, problemText(r.Problem))
		return
	}

	switch {
	case r.Previous != "" && r.Order != nil:
		o := *r.Order
		if !r.Changed {
			h.sendMessage(chatID, fmt.Sprintf("Статус заказа %s не изменился: %s", o.Code, o.Status.Label()))
			return
		}
		log.Printf("[console] %d changed order %s: %s -> %s", userID, o.Code, r.Previous, o.Status)
		h.sendMessage(chatID, fmt.Sprintf("✅ Статус заказа %s изменен: %s → %s", o.Code, r.Previous.Label(), o.Status.Label()))
		h.notifyOrderOwner(o, fmt.Sprintf("🔔 Статус Вашего заказа №%s изменен на: %s", o.Code, o.Status.Label()))

	case r.Stage == usecase.ConsoleChoosingStatus && r.Order != nil:
		kb, ok := statusKeyboard(r.Order.Status)
		if !ok {
			h.console.Cancel(userID)
			h.sendMessage(chatID, formatOrderCard(*r.Order)+"\nСтатус окончательный, изменить нельзя.")
			return
		}
		h.sendWithMarkup(chatID, formatOrderCard(*r.Order)+"\nВыберите новый статус:", kb)

	case r.User != nil:
		text := formatUser(r.User)
		if len(r.Orders) == 0 {
			h.sendMessage(chatID, text+"\nАктивных заказов нет.")
			return
		}
		h.sendWithMarkup(chatID, text+"\n"+formatOrderList("Активные заказы:", r.Orders), orderCodesKeyboard(r.Orders))

	case r.Order != nil:
		o := *r.Order
		log.Printf("[console] %d set tracking for %s", userID, o.Code)
		h.sendMessage(chatID, "✅ Трек-номер сохранен.\n\n"+formatOrderCard(o))
		msg := fmt.Sprintf("🚚 Для Вашего заказа №%s добавлен трек-номер: %s", o.Code, o.TrackingNumber)
		if o.EstimatedDelivery != nil {
			msg += "\n📅 Ожидаемая дата доставки: " + o.EstimatedDelivery.Format(dateLayout)
		}
		h.notifyOrderOwner(o, msg)
	}
}

func (h *BotHandler) notifyOrderOwner(o entity.Order, text string) {
	if o.TelegramID == 0 {
		log.Printf("[console] order %s has no owner chat, notification skipped", o.Code)
		return
	}
	h.sendMessage(o.TelegramID, text)
}
