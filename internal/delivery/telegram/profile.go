package telegram

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
)

func phoneRequestKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact("📱 Отправить мой номер")),
	)
	kb.ResizeKeyboard = true
	return kb
}

// startRegistration FIO -> telefon -> manzil
func (h *BotHandler) startRegistration(ctx context.Context, chatID int64, from *tgbotapi.User, resumeOrder bool) error {
	if from == nil {
		return nil
	}
	if _, err := h.registration.Start(ctx, from.ID, from.UserName, resumeOrder); err != nil {
		return err
	}
	h.sendWithMarkup(chatID, "👤 Регистрация\nВведите Ваше ФИО полностью (например: Иванов Иван Иванович):", cancelKeyboard(cbCancel))
	return nil
}

func (h *BotHandler) handleRegistrationText(ctx context.Context, chatID, userID int64, text string) error {
	r, err := h.registration.Text(ctx, userID, text)
	if err != nil {
		return err
	}
	if r.Problem != usecase.ProblemNone {
		h.sendMessage(chatID, problemText(r.Problem))
		return nil
	}

	switch r.Stage {
	case usecase.RegistrationEnteringPhone:
		h.sendWithMarkup(chatID, "📱 Введите номер телефона в формате +79991234567 или нажмите кнопку ниже:", phoneRequestKeyboard())
	case usecase.RegistrationEnteringAddress:
		h.sendWithMarkup(chatID, "🏠 Введите адрес доставки (город, улица, дом, квартира или адрес пункта выдачи):", mainReplyKeyboard())
	case usecase.RegistrationIdle:
		if r.User == nil {
			return nil
		}
		title := "✅ Регистрация завершена!"
		if r.Updated {
			title = "✅ Данные профиля обновлены."
		}
		log.Printf("[profile] user saved tg=%d code=%s created=%v", userID, r.User.ShortCode, r.Created)
		h.sendWithMarkup(chatID, fmt.Sprintf("%s\nВаш код клиента: %s\n\n%s", title, r.User.ShortCode, formatUser(r.User)), mainReplyKeyboard())
		if r.ResumeOrder {
			return h.startOrder(ctx, chatID, userID)
		}
		h.sendMainMenu(chatID)
	}
	return nil
}

// cancelCurrent "❌ Отмена" ro'yxatdan o'tish yoki yordam so'rovida
func (h *BotHandler) cancelCurrent(chatID, userID int64) {
	text := "Действие отменено."
	if h.registration.Stage(userID) != usecase.RegistrationIdle {
		h.registration.Cancel(userID)
		text = "Регистрация отменена."
	} else {
		h.convs.Reset(userID)
	}
	h.sendWithMarkup(chatID, text, mainReplyKeyboard())
	h.sendMainMenu(chatID)
}
