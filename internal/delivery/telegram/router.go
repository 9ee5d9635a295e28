package telegram

import (
	"context"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
)

// Start botni ishga tushirish
func (h *BotHandler) Start(ctx context.Context) error {
	h.workerPool.start(ctx)
	go h.cleanupSessions(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			h.workerPool.shutdown()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				h.workerPool.shutdown()
				return nil
			}
			req, ok := newUpdateRequest(ctx, update)
			if !ok {
				continue
			}
			h.workerPool.submit(req)
		}
	}
}

// handleUpdate bitta update'ni tegishli handlerga yo'naltiradi
func (h *BotHandler) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message != nil {
		return h.handleMessage(ctx, update.Message)
	}
	return nil
}

// handleMessage xabarni qayta ishlash
func (h *BotHandler) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.From == nil || message.Chat == nil {
		return nil
	}
	// Bot faqat shaxsiy chatlarda ishlaydi
	if !message.Chat.IsPrivate() {
		return nil
	}

	// skrinshot kutilayotganda matndan boshqa hamma narsa shu yerga
	if message.Text == "" && h.orders.Stage(message.From.ID) == usecase.OrderAwaitingPaymentProof {
		return h.handleProofMessage(ctx, message)
	}
	if len(message.Photo) > 0 {
		h.sendMessage(message.Chat.ID, "Фото получено, но сейчас оно не ожидается. Откройте основное меню: /menu")
		return nil
	}
	if message.Document != nil {
		return h.handleDocumentMessage(ctx, message)
	}
	if message.IsCommand() || strings.HasPrefix(strings.TrimSpace(message.Text), "/") {
		return h.handleCommand(ctx, message)
	}

	switch strings.TrimSpace(message.Text) {
	case menuButtonText:
		h.sendMainMenu(message.Chat.ID)
		return nil
	case helpButtonText:
		h.startSupport(message.Chat.ID, message.From.ID)
		return nil
	}

	if message.Text != "" || message.Contact != nil {
		return h.handleTextMessage(ctx, message)
	}
	return nil
}

// handleTextMessage matnni faol flow'ga uzatadi
func (h *BotHandler) handleTextMessage(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	chatID := message.Chat.ID
	text := message.Text

	conv, _ := h.convs.Snapshot(userID)
	switch conv.Active {
	case usecase.FlowOrder:
		return h.handleOrderText(ctx, chatID, userID, text)
	case usecase.FlowRegistration:
		if message.Contact != nil && message.Contact.UserID == userID {
			text = message.Contact.PhoneNumber
		}
		return h.handleRegistrationText(ctx, chatID, userID, text)
	case usecase.FlowCalculator:
		return h.handleCalcText(ctx, chatID, userID, text)
	case usecase.FlowConsole:
		return h.handleConsoleText(ctx, chatID, userID, text)
	case usecase.FlowSupport:
		return h.handleSupportText(ctx, message)
	}

	log.Printf("[router] free text without active flow user=%d text=%q", userID, truncateForLog(text, 60))
	h.sendWithMarkup(chatID, "Выберите действие в меню:", h.mainMenuKeyboard())
	return nil
}

func (h *BotHandler) sendMainMenu(chatID int64) {
	h.sendWithMarkup(chatID, "Основное меню:", h.mainMenuKeyboard())
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "пользователь"
	}
	return name
}
