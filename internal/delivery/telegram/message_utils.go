package telegram

import "github.com/yourusername/poizon-order-bot/internal/usecase"

var problemTexts = map[usecase.Problem]string{
	usecase.ProblemUnexpected:        "Это действие сейчас недоступно. Откройте основное меню: /menu",
	usecase.ProblemEmptyText:         "Пожалуйста, введите значение текстом. Если параметра нет, напишите слово \"НЕТ\".",
	usecase.ProblemInvalidPrice:      "Пожалуйста, введите корректную сумму в формате числа (например, 123.45)",
	usecase.ProblemInvalidLink:       "Пожалуйста, отправьте корректную ссылку на товар (начинается с http:// или https://).",
	usecase.ProblemUnknownCategory:   "Выберите категорию с помощью кнопок.",
	usecase.ProblemUnknownDelivery:   "Выберите способ доставки с помощью кнопок.",
	usecase.ProblemExpectedPhoto:     "Пожалуйста, отправьте скриншот (фото) произведенной оплаты.",
	usecase.ProblemRateMissing:       "Не удалось получить курс юаня. Попробуйте позже или свяжитесь с менеджером.",
	usecase.ProblemFeeMissing:        "Для выбранной категории и способа доставки не найден тариф. Товар не добавлен, свяжитесь с менеджером.",
	usecase.ProblemQuoteChanged:      "⚠️ Курс юаня изменился. Проверьте новую сумму и подтвердите оплату еще раз.",
	usecase.ProblemEmptyCart:         "Корзина пуста. Добавьте товар.",
	usecase.ProblemNoActiveOrder:     "Активный заказ не найден. Оформите заказ через меню.",
	usecase.ProblemInvalidName:       "Пожалуйста, введите ФИО полностью, только буквы (например: Иванов Иван Иванович).",
	usecase.ProblemInvalidPhone:      "Некорректный номер телефона. Введите номер в международном формате, например +79991234567.",
	usecase.ProblemPhoneTaken:        "Этот номер телефона уже зарегистрирован. Введите другой номер.",
	usecase.ProblemInvalidAddress:    "Адрес слишком короткий. Укажите полный адрес доставки.",
	usecase.ProblemOrderNotFound:     "Заказ не найден. Проверьте код заказа (например, A001).",
	usecase.ProblemUserNotFound:      "Пользователь не найден.",
	usecase.ProblemUnknownStatus:     "Неизвестный статус.",
	usecase.ProblemIllegalTransition: "Недопустимая смена статуса.",
	usecase.ProblemStatusConflict:    "Статус заказа уже изменен другим сотрудником. Откройте заказ заново.",
	usecase.ProblemInvalidTelegramID: "Введите числовой Telegram ID.",
	usecase.ProblemInvalidTracking:   "Формат: КОД_ЗАКАЗА ТРЕК_НОМЕР [ДД.ММ.ГГГГ]\nНапример: A001 RB123456789CN 25.12.2026",
}

func problemText(p usecase.Problem) string {
	if text, ok := problemTexts[p]; ok {
		return text
	}
	return genericErrorText
}

// isReprompt validatsiya xatolari: faqat xato matni yuboriladi, bosqich o'zgarmaydi
func isReprompt(p usecase.Problem) bool {
	switch p {
	case usecase.ProblemUnexpected,
		usecase.ProblemEmptyText,
		usecase.ProblemInvalidPrice,
		usecase.ProblemInvalidLink,
		usecase.ProblemUnknownCategory,
		usecase.ProblemUnknownDelivery,
		usecase.ProblemExpectedPhoto,
		usecase.ProblemInvalidName,
		usecase.ProblemInvalidPhone,
		usecase.ProblemPhoneTaken,
		usecase.ProblemInvalidAddress,
		usecase.ProblemInvalidTelegramID,
		usecase.ProblemInvalidTracking:
		return true
	}
	return false
}
