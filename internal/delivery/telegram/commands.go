package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleCommand komandalarni qayta ishlash
func (h *BotHandler) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.From == nil {
		return nil
	}
	userID := message.From.ID
	chatID := message.Chat.ID
	cmd := extractCommand(message)
	if cmd == "" {
		h.sendMessage(chatID, "Неизвестная команда. /help - помощь.")
		return nil
	}

	switch strings.ToLower(cmd) {
	case "start":
		h.handleStartCommand(chatID, userID)
	case "help":
		h.sendMessage(chatID, h.getHelpMessage(userID))
	case "menu":
		h.sendMainMenu(chatID)
	case "cancel":
		h.convs.Reset(userID)
		h.sendWithMarkup(chatID, "Действие отменено.", mainReplyKeyboard())
	case "order":
		return h.startOrder(ctx, chatID, userID)
	case "calc":
		return h.startCalculator(chatID, userID)
	case "track":
		h.sendTrackMenu(chatID)
	case "profile", "register":
		return h.startRegistration(ctx, chatID, message.From, false)
	case "manager":
		if !h.requireStaff(chatID, userID) {
			return nil
		}
		h.sendManagerMenu(chatID)
	case "admin":
		if !h.requireAdmin(chatID, userID) {
			return nil
		}
		h.sendAdminMenu(chatID)
	case "export":
		if !h.requireAdmin(chatID, userID) {
			return nil
		}
		return h.handleExport(ctx, chatID)
	case "rate":
		if !h.requireAdmin(chatID, userID) {
			return nil
		}
		return h.handleRate(ctx, chatID)
	default:
		h.sendMessage(chatID, "Неизвестная команда. /help - помощь.")
	}
	return nil
}

// handleStartCommand holatni tozalaydi va rolga mos menyu yuboradi
func (h *BotHandler) handleStartCommand(chatID, userID int64) {
	h.convs.Reset(userID)
	switch {
	case h.console.IsAdmin(userID):
		h.sendWithMarkup(chatID, "Добро пожаловать, администратор!", mainReplyKeyboard())
		h.sendAdminMenu(chatID)
	case h.console.IsManager(userID):
		h.sendWithMarkup(chatID, "Добро пожаловать, менеджер!", mainReplyKeyboard())
		h.sendManagerMenu(chatID)
	default:
		h.sendWithMarkup(chatID, "Добро пожаловать!", mainReplyKeyboard())
		h.sendMainMenu(chatID)
	}
}

func extractCommand(msg *tgbotapi.Message) string {
	if msg == nil {
		return ""
	}
	if msg.IsCommand() {
		return msg.Command()
	}
	txt := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(txt, "/") {
		return ""
	}
	first := strings.Fields(txt)[0]
	first = strings.TrimPrefix(first, "/")
	if first == "" {
		return ""
	}
	parts := strings.SplitN(first, "@", 2)
	return parts[0]
}
