package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
)

// Reply keyboard tugmalari
const (
	menuButtonText = "⚙️ Меню"
	helpButtonText = "❓ Помощь"
)

// Callback data
const (
	cbCalculatePrice = "calculate_price"
	cbAssembleOrder  = "assemble_order"
	cbTrackOrder     = "track_order"
	cbRequestHelp    = "request_help"
	cbMainMenu       = "main_menu"

	cbCategoryPrefix     = "category:"
	cbDeliveryPrefix     = "delivery:"
	cbCalcCategoryPrefix = "calc_category:"
	cbCalcDeliveryPrefix = "calc_delivery:"

	cbBackToSize      = "back_to_size"
	cbCancelOrder     = "cancel_order"
	cbContinue        = "continue_checkout"
	cbAddAnother      = "add_another_item"
	cbRemoveItems     = "remove_items"
	cbConfirmPayment  = "confirm_payment"
	cbUsePromo        = "use_promocode"
	cbBackToCart      = "back_to_cart"
	cbCheckStatus     = "check_status"
	cbOrderHistory    = "order_history"
	cbStatusInfo      = "status_info"
	cbRetail          = "retail"
	cbWholesale       = "wholesale"
	cbRegistration    = "registration"
	cbCancel          = "cancel"
	cbOrderTypeBack   = "order_type_back"
	cbCalcCancel      = "calc_cancel"
	cbConsoleCancel   = "console_cancel"
	cbManagerByStatus = "manager_orders:"
	cbManagerUpdate   = "manager_update_status"
	cbManagerByUser   = "manager_user_orders"
	cbManagerTracking = "manager_tracking"
	cbOrderIDPrefix   = "order_id_"
	cbStatusPrefix    = "status_"
	cbActiveOrders    = "active_orders"
	cbAllOrders       = "all_orders"
	cbAdminByTelegram = "admin_orders_by_tg"
	cbAdminExport     = "admin_export"
	cbAdminRate       = "admin_rate"
	cbAdminPrices     = "admin_prices"

	cbRegistrationOrder = "registration:order"
)

var categoryEmoji = map[string]string{
	"Одежда":         "👚",
	"Верхняя одежда": "🧥",
	"Нижнее белье":   "🩲",
	"Летняя обувь":   "🩴",
	"Зимняя обувь":   "🥾",
	"Кошельки":       "💼",
	"Парфюм":         "🌸",
	"Большие сумки":  "👜",
}

var deliveryEmoji = map[string]string{
	constants.DeliveryAuto: "🚛",
	constants.DeliveryAir:  "✈️",
}

func mainReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuButtonText),
			tgbotapi.NewKeyboardButton(helpButtonText),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func (h *BotHandler) mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💰 Рассчитать стоимость 💰", cbCalculatePrice)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Оформить заказ ✅", cbAssembleOrder)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔎 Отследить заказ 🔎", cbTrackOrder)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🆘 Запросить помощь 🆘", cbRequestHelp)),
	}
	if h.helpURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("💬 Отзывы о нашей работе ↗️", h.helpURL)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// categoryKeyboard 2 ta tugma bir qatorda
func categoryKeyboard(prefix string, footer ...tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range constants.Categories {
		label := c
		if e, ok := categoryEmoji[c]; ok {
			label = e + " " + c
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, prefix+c))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if len(footer) > 0 {
		rows = append(rows, footer)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func deliveryKeyboard(prefix string, footer ...tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, m := range constants.DeliveryMethods {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(deliveryEmoji[m]+" "+m, prefix+m))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{row}
	if len(footer) > 0 {
		rows = append(rows, footer)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func orderCategoryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return categoryKeyboard(cbCategoryPrefix, tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cbCancelOrder))
}

func orderDeliveryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return deliveryKeyboard(cbDeliveryPrefix,
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbBackToSize),
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cbCancelOrder),
	)
}

func cartKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Продолжить оформление", cbContinue)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Добавить товар", cbAddAnother)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🗑️ Удалить товары", cbRemoveItems)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏠 Главное меню", cbMainMenu)),
	)
}

func confirmationKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить оплату", cbConfirmPayment)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏷️ Использовать промокод", cbUsePromo)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbBackToCart),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cbCancelOrder),
		),
	)
}

func trackKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔍 Проверить статус", cbCheckStatus)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📜 История ваших заказов", cbOrderHistory)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("ℹ️ Информация о статусах", cbStatusInfo)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏠 Главное меню", cbMainMenu)),
	)
}

func orderTypeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛍 Розничный", cbRetail),
			tgbotapi.NewInlineKeyboardButtonData("📦 Оптовый", cbWholesale),
		),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔙 ГЛАВНОЕ МЕНЮ ↩️", cbMainMenu)),
	)
}

func calcCategoryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return categoryKeyboard(cbCalcCategoryPrefix,
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbOrderTypeBack),
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cbCalcCancel),
	)
}

func calcDeliveryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return deliveryKeyboard(cbCalcDeliveryPrefix, tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cbCalcCancel))
}

// registrationKeyboard resumeOrder: ro'yxatdan so'ng buyurtma davom etadi
func registrationKeyboard(resumeOrder bool) tgbotapi.InlineKeyboardMarkup {
	data := cbRegistration
	if resumeOrder {
		data = cbRegistrationOrder
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("👤 Регистрация", data)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cbCancel)),
	)
}

func cancelKeyboard(data string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", data)),
	)
}

var managerStatusButtons = []struct {
	status entity.OrderStatus
	label  string
}{
	{entity.StatusCreated, "Оформлены ✅"},
	{entity.StatusPaid, "Оплачены 💰"},
	{entity.StatusProcessing, "В обработке 🛠️"},
	{entity.StatusShippedDomestic, "Доставка по Китаю 🇨🇳"},
	{entity.StatusShippedInternational, "Отправлены в РФ 🇷🇺"},
	{entity.StatusCompleted, "Завершены 🎉"},
	{entity.StatusCancelled, "Отменены ❌"},
}

func managerKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, b := range managerStatusButtons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.label, cbManagerByStatus+string(b.status)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✏️ Обновить статус", cbManagerUpdate)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("👤 Заказы пользователя", cbManagerByUser)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🚚 Трек-номер", cbManagerTracking)),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func adminKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Активные заказы 📦", cbActiveOrders)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Все заказы 🧾", cbAllOrders)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📇 Заказы по Telegram ID", cbAdminByTelegram)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📊 Выгрузить отчет", cbAdminExport)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💱 Курс", cbAdminRate),
			tgbotapi.NewInlineKeyboardButtonData("🚚 Тарифы", cbAdminPrices),
		),
	)
}

// statusKeyboard faqat ruxsat etilgan o'tishlar
func statusKeyboard(current entity.OrderStatus) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, st := range entity.OrderStatuses {
		if !current.CanTransition(st) {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(st.Label(), cbStatusPrefix+string(st)),
		))
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cbConsoleCancel)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func orderCodesKeyboard(orders []entity.Order) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, o := range orders {
		label := fmt.Sprintf("%s · %s", o.Code, o.Status.Label())
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbOrderIDPrefix+o.Code),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *BotHandler) getHelpMessage(userID int64) string {
	var b strings.Builder
	b.WriteString("Доступные команды:\n")
	b.WriteString("/start - Начать работу с ботом\n")
	b.WriteString("/menu - Основное меню\n")
	b.WriteString("/cancel - Отменить текущее действие\n")
	b.WriteString("/help - Помощь\n\n")
	b.WriteString(menuButtonText + " - Основное меню\n")
	b.WriteString(helpButtonText + " - Задать вопрос менеджеру\n")
	if h.console != nil && h.console.IsStaff(userID) {
		b.WriteString("\nДля менеджера:\n/manager - Панель менеджера\n")
	}
	if h.console != nil && h.console.IsAdmin(userID) {
		b.WriteString("\nДля администратора:\n")
		b.WriteString("/admin - Панель администратора\n")
		b.WriteString("/export - Выгрузить отчет (xlsx)\n")
		b.WriteString("/rate - Текущий курс юаня\n")
		b.WriteString("JSON файл с прайсом - обновить курс, тарифы и реквизиты\n")
	}
	return b.String()
}
