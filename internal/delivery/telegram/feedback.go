package telegram

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
)

// startSupport "Запросить помощь": keyingi matn managerga yuboriladi
func (h *BotHandler) startSupport(chatID, userID int64) {
	h.support.Start(userID)
	h.sendWithMarkup(chatID, "🆘 Напишите Ваш вопрос одним сообщением, и мы передадим его менеджеру.", cancelKeyboard(cbCancel))
}

func (h *BotHandler) handleSupportText(_ context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	userID := message.From.ID
	question, problem := h.support.Question(userID, message.Text)
	if problem != usecase.ProblemNone {
		h.sendMessage(chatID, problemText(problem))
		return nil
	}

	managerID := h.console.ManagerID()
	if managerID == 0 {
		log.Printf("[support] question from %d dropped, manager not configured", userID)
		h.sendMessage(chatID, "Менеджер сейчас недоступен. Попробуйте позже.")
		h.sendMainMenu(chatID)
		return nil
	}
	h.sendMessage(managerID, fmt.Sprintf("🆘 Вопрос от пользователя %s (ID %d):\n\n%s", displayName(message.From), userID, question))
	h.sendMessage(chatID, "✅ Ваш вопрос отправлен менеджеру. Мы ответим Вам в ближайшее время.")
	h.sendMainMenu(chatID)
	return nil
}
