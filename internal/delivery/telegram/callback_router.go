package telegram

import (
	"context"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleCallback inline tugmalar
func (h *BotHandler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if cq == nil || cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return nil
	}
	if h.bot != nil {
		if _, err := h.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			log.Printf("callback ack failed: %v", err)
		}
	}

	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	data := cq.Data

	// Aniq mosliklar prefikslardan oldin (status_info vs status_)
	switch data {
	case cbMainMenu:
		h.convs.Reset(userID)
		h.sendMainMenu(chatID)
		return nil
	case cbCalculatePrice:
		return h.startCalculator(chatID, userID)
	case cbAssembleOrder:
		return h.startOrder(ctx, chatID, userID)
	case cbTrackOrder:
		h.sendTrackMenu(chatID)
		return nil
	case cbRequestHelp:
		h.startSupport(chatID, userID)
		return nil
	case cbRegistration:
		h.clearInlineButtons(cq)
		return h.startRegistration(ctx, chatID, cq.From, false)
	case cbRegistrationOrder:
		h.clearInlineButtons(cq)
		return h.startRegistration(ctx, chatID, cq.From, true)
	case cbCancel:
		h.clearInlineButtons(cq)
		h.cancelCurrent(chatID, userID)
		return nil
	case cbCheckStatus, cbOrderHistory, cbStatusInfo:
		return h.handleTrackCallback(ctx, cq)
	case cbRetail, cbWholesale, cbOrderTypeBack, cbCalcCancel:
		return h.handleCalcCallback(ctx, cq)
	case cbBackToSize, cbCancelOrder, cbContinue, cbAddAnother, cbRemoveItems,
		cbUsePromo, cbBackToCart, cbConfirmPayment:
		return h.handleOrderCallback(ctx, cq)
	case cbManagerUpdate, cbManagerByUser, cbManagerTracking, cbConsoleCancel:
		return h.handleConsoleCallback(ctx, cq)
	case cbActiveOrders, cbAllOrders, cbAdminByTelegram, cbAdminExport, cbAdminRate, cbAdminPrices:
		return h.handleAdminCallback(ctx, cq)
	}

	switch {
	case strings.HasPrefix(data, cbCategoryPrefix), strings.HasPrefix(data, cbDeliveryPrefix):
		return h.handleOrderCallback(ctx, cq)
	case strings.HasPrefix(data, cbCalcCategoryPrefix), strings.HasPrefix(data, cbCalcDeliveryPrefix):
		return h.handleCalcCallback(ctx, cq)
	case strings.HasPrefix(data, cbManagerByStatus),
		strings.HasPrefix(data, cbOrderIDPrefix),
		strings.HasPrefix(data, cbStatusPrefix):
		return h.handleConsoleCallback(ctx, cq)
	}

	log.Printf("unknown callback data=%q user=%d", data, userID)
	return nil
}
