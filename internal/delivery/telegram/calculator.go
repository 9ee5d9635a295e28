package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
)

// startCalculator "Рассчитать стоимость"
func (h *BotHandler) startCalculator(chatID, userID int64) error {
	if _, err := h.calculator.Start(userID); err != nil {
		return err
	}
	h.sendWithMarkup(chatID, "Выберите тип заказа:", orderTypeKeyboard())
	return nil
}

func (h *BotHandler) replyCalc(ctx context.Context, chatID int64, r usecase.CalcReply) {
	if r.NeedsRegistration {
		h.sendRegistrationPrompt(chatID, false)
		return
	}
	if r.Problem != usecase.ProblemNone {
		h.sendMessage(chatID, problemText(r.Problem))
		if isReprompt(r.Problem) {
			return
		}
	}

	switch r.Stage {
	case usecase.CalcChoosingType:
		h.sendWithMarkup(chatID, "Выберите тип заказа:", orderTypeKeyboard())
	case usecase.CalcChoosingCategory:
		h.sendWithMarkup(chatID, "Выберите категорию товара:", calcCategoryKeyboard())
	case usecase.CalcEnteringPrice:
		if r.Category != "" {
			h.sendMessage(chatID, "Вы выбрали категорию: "+r.Category)
		}
		h.sendWithMarkup(chatID, h.pricePrompt(ctx), cancelKeyboard(cbCalcCancel))
	case usecase.CalcChoosingDelivery:
		h.sendWithMarkup(chatID, "Выберите способ доставки:", calcDeliveryKeyboard())
	case usecase.CalcIdle:
		if r.Quote != nil {
			h.sendMessage(chatID, formatQuoteBreakdown(r.Quote))
		}
		h.sendMainMenu(chatID)
	}
}

func (h *BotHandler) handleCalcText(ctx context.Context, chatID, userID int64, text string) error {
	r, err := h.calculator.Text(userID, text)
	if err != nil {
		return err
	}
	h.replyCalc(ctx, chatID, r)
	return nil
}

// handleCalcCallback turi/kategoriya/yetkazib berish tugmalari
func (h *BotHandler) handleCalcCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	data := cq.Data

	var (
		r   usecase.CalcReply
		err error
	)
	switch {
	case data == cbRetail:
		r, err = h.calculator.ChooseRetail(userID)
	case data == cbWholesale:
		r, err = h.calculator.ChooseWholesale(ctx, userID)
		if err == nil && r.Wholesale {
			h.clearInlineButtons(cq)
			h.sendWholesaleRequest(chatID, cq.From, r)
			return nil
		}
	case data == cbOrderTypeBack:
		return h.startCalculator(chatID, userID)
	case data == cbCalcCancel:
		h.clearInlineButtons(cq)
		h.convs.Reset(userID)
		h.sendMessage(chatID, "Расчет отменен.")
		h.sendMainMenu(chatID)
		return nil
	case strings.HasPrefix(data, cbCalcCategoryPrefix):
		r, err = h.calculator.SelectCategory(userID, strings.TrimPrefix(data, cbCalcCategoryPrefix))
	case strings.HasPrefix(data, cbCalcDeliveryPrefix):
		r, err = h.calculator.SelectDelivery(ctx, userID, strings.TrimPrefix(data, cbCalcDeliveryPrefix))
	default:
		return nil
	}
	if err != nil {
		return err
	}
	h.replyCalc(ctx, chatID, r)
	return nil
}

// sendWholesaleRequest optom so'rovi managerga uzatiladi
func (h *BotHandler) sendWholesaleRequest(chatID int64, from *tgbotapi.User, r usecase.CalcReply) {
	h.sendMessage(chatID, "📦 Оптовый заказ рассчитывается индивидуально.\nМенеджер свяжется с Вами в ближайшее время.")
	h.sendMainMenu(chatID)

	managerID := h.console.ManagerID()
	if managerID == 0 {
		log.Printf("[calc] wholesale request from %d, manager not configured", from.ID)
		return
	}
	code := ""
	if r.User != nil {
		code = r.User.ShortCode
	}
	h.sendMessage(managerID, fmt.Sprintf("📦 Запрос оптового заказа\nОт: %s (ID %d)\nКод клиента: %s", displayName(from), from.ID, orDash(code)))
}
