package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
)

const (
	dateLayout     = "02.01.2006"
	dateTimeLayout = "02.01.2006 15:04"
)

var itemMarkers = []string{"➀", "➁", "➂", "➃", "➄"}

var statusDescriptions = map[entity.OrderStatus]string{
	entity.StatusCreated:              "⏳ заказ оформлен, ожидаем оплату",
	entity.StatusPaid:                 "💰 оплата получена, готовим выкуп",
	entity.StatusProcessing:           "🛠️ товар выкупается у продавца",
	entity.StatusShippedDomestic:      "🇨🇳 товар едет до нашего склада в Китае",
	entity.StatusShippedInternational: "🇷🇺 посылка отправлена в Россию",
	entity.StatusCompleted:            "🎉 заказ получен, спасибо за покупку!",
	entity.StatusCancelled:            "❌ заказ отменен",
}

func formatRub(d decimal.Decimal) string {
	return d.StringFixed(2) + "₽"
}

func formatCNY(d decimal.Decimal) string {
	return "¥" + d.StringFixed(2)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

func writeProfile(b *strings.Builder, user *entity.User) {
	if user == nil {
		return
	}
	fmt.Fprintf(b, "ФИО: %s\n", user.FullName)
	fmt.Fprintf(b, "Контакт: %s\n", user.Phone)
	fmt.Fprintf(b, "Адрес: %s\n", user.Address)
}

func writeItems(b *strings.Builder, q *usecase.Quote) {
	for i, line := range q.Items {
		if len(q.Items) > 1 {
			fmt.Fprintf(b, "\nТовар %d:\n", i+1)
		}
		fmt.Fprintf(b, "%s Категория товара: %s\n", itemMarkers[0], line.Item.Category)
		fmt.Fprintf(b, "%s Размер товара: %s\n", itemMarkers[1], line.Item.Size)
		fmt.Fprintf(b, "%s Цвет товара: %s\n", itemMarkers[2], line.Item.Color)
		fmt.Fprintf(b, "%s Ссылка на товар: %s\n", itemMarkers[3], line.Item.Link)
		fmt.Fprintf(b, "%s Стоимость товара: %s (%s) + доставка %s - (%s)\n",
			itemMarkers[4], formatRub(line.Converted), formatCNY(line.Item.Price), formatRub(line.Fee), line.Item.DeliveryMethod)
	}
}

// formatCart "КОРЗИНА ЗАКАЗОВ"
func formatCart(q *usecase.Quote, user *entity.User) string {
	var b strings.Builder
	b.WriteString("🛒 КОРЗИНА ЗАКАЗОВ 🛒\n")
	writeProfile(&b, user)
	b.WriteString("\n📦 ВЫБРАННЫЕ ТОВАРЫ 📦\n")
	if q == nil || len(q.Items) == 0 {
		b.WriteString("Корзина пуста\n")
		return b.String()
	}
	writeItems(&b, q)
	fmt.Fprintf(&b, "\n🇨🇳 Курс: ¥1 = %s ₽\n", q.Rate.StringFixed(2))
	fmt.Fprintf(&b, "ОБЩАЯ СТОИМОСТЬ: %s\n", formatRub(q.Total))
	return b.String()
}

// formatConfirmation "ПОДТВЕРЖДЕНИЕ ЗАКАЗА" rekvizitlar bilan
func formatConfirmation(r usecase.OrderReply) string {
	var b strings.Builder
	b.WriteString("✅ ПОДТВЕРЖДЕНИЕ ЗАКАЗА ✅\n")
	writeProfile(&b, r.User)
	b.WriteString("\n📦 СОБРАННЫЕ ТОВАРЫ 📦\n")
	if r.Quote != nil {
		writeItems(&b, r.Quote)
		fmt.Fprintf(&b, "\n🇨🇳 Курс: ¥1 = %s ₽\n", r.Quote.Rate.StringFixed(2))
		fmt.Fprintf(&b, "ОБЩАЯ СТОИМОСТЬ: %s\n", formatRub(r.Quote.Total))
	}
	if r.Promo != "" {
		fmt.Fprintf(&b, "🏷️ Промокод: %s\n", r.Promo)
	}
	b.WriteString("\nМы выкупаем товар в течение 8 часов после оплаты. Если при выкупе цена изменится, с вами свяжется менеджер для доплаты или возврата средств.\n")
	if r.Payment != nil && r.Quote != nil {
		fmt.Fprintf(&b, "\nЕсли Вас устраивает, переведите сумму %s по номеру телефона через:\n", formatRub(r.Quote.Total))
		b.WriteString("🏦 Сбербанк или СБП\n")
		fmt.Fprintf(&b, "📱 %s\n", orDash(r.Payment.PhoneNumber))
		if r.Payment.CardNumber != "" {
			fmt.Fprintf(&b, "💳 %s\n", r.Payment.CardNumber)
		}
		fmt.Fprintf(&b, "👤 %s\n", orDash(r.Payment.Recipient))
	} else {
		b.WriteString("\nРеквизиты для оплаты уточните у менеджера.\n")
	}
	b.WriteString("\nОсуществляя перевод, вы подтверждаете что корректно указали все данные заказа и согласны со сроками доставки. Мы не несем ответственности за соответствие размеров и брак. После оплаты нажмите кнопку 'Подтвердить оплату'")
	return b.String()
}

// formatQuoteBreakdown kalkulyator natijasi
func formatQuoteBreakdown(q *usecase.Quote) string {
	if q == nil || len(q.Items) == 0 {
		return ""
	}
	line := q.Items[0]
	var b strings.Builder
	b.WriteString("💰 Расчет стоимости\n\n")
	fmt.Fprintf(&b, "Категория: %s\n", line.Item.Category)
	fmt.Fprintf(&b, "Доставка: %s\n", line.Item.DeliveryMethod)
	fmt.Fprintf(&b, "Курс: ¥1 = %s ₽\n\n", q.Rate.StringFixed(2))
	fmt.Fprintf(&b, "Стоимость товара: %s × %s = %s\n", formatCNY(line.Item.Price), q.Rate.StringFixed(2), formatRub(line.Converted))
	fmt.Fprintf(&b, "Доставка: %s\n", formatRub(line.Fee))
	fmt.Fprintf(&b, "ИТОГО: %s\n", formatRub(line.Total))
	return b.String()
}

// formatOrderCard to'liq buyurtma kartasi
func formatOrderCard(o entity.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 Заказ №%s\n\n", o.Code)
	if !o.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "🗓️ Дата заказа: %s\n", o.CreatedAt.In(time.Local).Format(dateTimeLayout))
	}
	if o.UserCode != "" {
		fmt.Fprintf(&b, "👤 Код клиента: %s\n", o.UserCode)
	}
	fmt.Fprintf(&b, "🏷️ Категория: %s\n", o.Category)
	fmt.Fprintf(&b, "📏 Размер: %s\n", o.Size)
	fmt.Fprintf(&b, "🎨 Цвет: %s\n", o.Color)
	fmt.Fprintf(&b, "🔗 Ссылка: %s\n", o.Link)
	fmt.Fprintf(&b, "💰 Цена товара: %s\n", formatCNY(o.Price))
	fmt.Fprintf(&b, "🚚 Способ доставки: %s\n", o.DeliveryMethod)
	fmt.Fprintf(&b, "💲 Общая цена (с доставкой): %s\n", formatRub(o.TotalPrice))
	if o.PromoCode != "" {
		fmt.Fprintf(&b, "🎫 Промокод: %s\n", o.PromoCode)
	}
	fmt.Fprintf(&b, "🚦 Статус: %s\n", o.Status.Label())
	if o.PaymentScreenshot != "" {
		b.WriteString("🧾 Скриншот оплаты: получен\n")
	}
	if o.TrackingNumber != "" {
		fmt.Fprintf(&b, "🔎 Номер отслеживания: %s\n", o.TrackingNumber)
	}
	if o.EstimatedDelivery != nil {
		fmt.Fprintf(&b, "📅 Ожидаемая дата доставки: %s\n", o.EstimatedDelivery.Format(dateLayout))
	}
	return b.String()
}

// formatOrderLine qisqa satr (ro'yxatlar uchun)
func formatOrderLine(o entity.Order) string {
	return fmt.Sprintf("Код заказа: %s\nКод пользователя: %s\nСтатус: %s\nАдрес доставки: %s\n---\n",
		o.Code, orDash(o.UserCode), o.Status.Label(), orDash(o.UserAddress))
}

func formatOrderList(title string, orders []entity.Order) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	for _, o := range orders {
		b.WriteString(formatOrderLine(o))
	}
	return b.String()
}

// formatUserOrders foydalanuvchi uchun (status + trek)
func formatUserOrders(title string, orders []entity.Order) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "\n📦 %s · %s · %s\n", o.Code, o.Category, formatRub(o.TotalPrice))
		fmt.Fprintf(&b, "🚦 %s\n", o.Status.Label())
		if o.TrackingNumber != "" {
			fmt.Fprintf(&b, "🔎 Трек-номер: %s\n", o.TrackingNumber)
		}
		if o.EstimatedDelivery != nil {
			fmt.Fprintf(&b, "📅 Ожидаемая доставка: %s\n", o.EstimatedDelivery.Format(dateLayout))
		}
		if !o.CreatedAt.IsZero() {
			fmt.Fprintf(&b, "🗓️ %s\n", o.CreatedAt.In(time.Local).Format(dateLayout))
		}
	}
	return b.String()
}

func statusLegend() string {
	var b strings.Builder
	b.WriteString("ℹ️ Информация о статусах:\n\n")
	for _, st := range entity.OrderStatuses {
		fmt.Fprintf(&b, "• %s - %s\n", st.Label(), statusDescriptions[st])
	}
	return b.String()
}

func formatUser(u *entity.User) string {
	if u == nil {
		return ""
	}
	return fmt.Sprintf("👤 %s (%s)\nТелефон: %s\nАдрес: %s\nTelegram: %s (ID %d)\n",
		u.FullName, u.ShortCode, u.Phone, u.Address, orDash(u.TelegramLink), u.TelegramID)
}
