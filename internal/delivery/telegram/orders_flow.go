package telegram

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
)

const sizePrompt = "📏 Размер товара:\n" +
	"Укажите размер Вашего товара, чтобы мы не ошиблись с заказом.\n" +
	"Пример: XS или 52 (если одежда), 41 или 37,5 (если обувь).\n" +
	"Если размера нет, напишите слово \"НЕТ\""

// startOrder "Оформить заказ"
func (h *BotHandler) startOrder(ctx context.Context, chatID, userID int64) error {
	r, err := h.orders.Start(ctx, userID)
	if err != nil {
		return err
	}
	return h.replyOrder(ctx, chatID, r)
}

func (h *BotHandler) sendRegistrationPrompt(chatID int64, resumeOrder bool) {
	h.sendWithMarkup(chatID, "Вы еще не зарегистрированы в системе! Пройдите простую регистрацию.", registrationKeyboard(resumeOrder))
}

// pricePrompt bugungi kurs bilan
func (h *BotHandler) pricePrompt(ctx context.Context) string {
	text := "Введите сумму товара в CNY:"
	rate, err := h.pricing.Rate(ctx, constants.RateCNYToRUB)
	if err != nil {
		log.Printf("[order] rate for prompt: %v", err)
		return text
	}
	return fmt.Sprintf("%s\n\n🇨🇳 Курс на сегодня (%s):\n👉 ¥1 = %s ₽", text, time.Now().Format(dateLayout), rate.StringFixed(2))
}

// replyOrder OrderReply ni foydalanuvchiga ko'rsatadi
func (h *BotHandler) replyOrder(ctx context.Context, chatID int64, r usecase.OrderReply) error {
	if r.NeedsRegistration {
		h.sendRegistrationPrompt(chatID, true)
		return nil
	}
	if r.Cancelled {
		h.sendMessage(chatID, "Оформление заказа отменено.")
		return nil
	}
	if r.Problem == usecase.ProblemExpectedPhoto {
		h.sendWithMarkup(chatID, problemText(r.Problem), cancelKeyboard(cbCancelOrder))
		return nil
	}
	if r.Problem != usecase.ProblemNone {
		h.sendMessage(chatID, problemText(r.Problem))
		if isReprompt(r.Problem) {
			return nil
		}
	}

	switch r.Stage {
	case usecase.OrderIdle:
		if r.Problem != usecase.ProblemNone {
			h.sendMainMenu(chatID)
		}
	case usecase.OrderChoosingCategory:
		h.sendWithMarkup(chatID, "Выберите категорию товара:\n- От выбора категории зависит стоимость доставки вашего товара", orderCategoryKeyboard())
	case usecase.OrderEnteringPrice:
		if r.Category != "" {
			h.sendMessage(chatID, "Вы выбрали категорию: "+r.Category)
		}
		h.sendWithMarkup(chatID, h.pricePrompt(ctx), cancelKeyboard(cbCancelOrder))
	case usecase.OrderEnteringSize:
		h.sendWithMarkup(chatID, sizePrompt, cancelKeyboard(cbCancelOrder))
	case usecase.OrderEnteringColor:
		h.sendWithMarkup(chatID, "🎨 Введите цвет товара:\nЕсли цвет не важен, напишите слово \"НЕТ\"", cancelKeyboard(cbCancelOrder))
	case usecase.OrderEnteringLink:
		h.sendWithMarkup(chatID, "🔗 Введите ссылку на товар:", cancelKeyboard(cbCancelOrder))
	case usecase.OrderChoosingDelivery:
		h.sendWithMarkup(chatID, "Доставка заказа:\nВыберите наиболее подходящий способ доставки Вашего заказа:", orderDeliveryKeyboard())
	case usecase.OrderReviewingCart:
		h.sendWithMarkup(chatID, formatCart(r.Quote, r.User), cartKeyboard())
	case usecase.OrderConfirming:
		h.sendWithMarkup(chatID, formatConfirmation(r), confirmationKeyboard())
	case usecase.OrderEnteringPromo:
		h.sendWithMarkup(chatID, "Промокоды: Введите пожалуйста Ваш промокод", cancelKeyboard(cbBackToCart))
	case usecase.OrderAwaitingPaymentProof:
		h.sendOrdersCreated(chatID, r)
	}
	return nil
}

func (h *BotHandler) sendOrdersCreated(chatID int64, r usecase.OrderReply) {
	if len(r.Orders) > 0 {
		codes := make([]string, 0, len(r.Orders))
		for _, o := range r.Orders {
			codes = append(codes, o.Code)
		}
		text := fmt.Sprintf("🧾 Заказ оформлен!\nНомера заказов: %s", strings.Join(codes, ", "))
		if r.Quote != nil {
			text += "\nСумма к оплате: " + formatRub(r.Quote.Total)
		}
		h.sendMessage(chatID, text)
	}
	h.sendWithMarkup(chatID, "Подтверждение оплаты:\nОтправьте скриншот (фото) произведенной оплаты, чтобы мы убедились, что Вы правильно оплатили заказ", cancelKeyboard(cbCancelOrder))
}

// handleOrderText narx/o'lcham/rang/havola/promokod
func (h *BotHandler) handleOrderText(ctx context.Context, chatID, userID int64, text string) error {
	before := h.orders.Stage(userID)
	r, err := h.orders.Text(ctx, userID, text)
	if err != nil {
		return err
	}
	if before == usecase.OrderEnteringPromo && r.Problem == usecase.ProblemNone && r.Promo != "" {
		h.sendMessage(chatID, fmt.Sprintf("Промокод '%s' принят.\nСкидка по промокоду рассчитывается менеджером.", r.Promo))
	}
	return h.replyOrder(ctx, chatID, r)
}

// handleOrderCallback savat tugmalari
func (h *BotHandler) handleOrderCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	data := cq.Data

	var (
		r   usecase.OrderReply
		err error
	)
	switch {
	case strings.HasPrefix(data, cbCategoryPrefix):
		r, err = h.orders.SelectCategory(ctx, userID, strings.TrimPrefix(data, cbCategoryPrefix))
	case strings.HasPrefix(data, cbDeliveryPrefix):
		method := strings.TrimPrefix(data, cbDeliveryPrefix)
		r, err = h.orders.SelectDelivery(ctx, userID, method)
		if err == nil && r.Problem == usecase.ProblemNone {
			h.sendMessage(chatID, "Вы выбрали способ доставки: "+method)
		}
	case data == cbBackToSize:
		r, err = h.orders.BackToSize(ctx, userID)
	case data == cbCancelOrder:
		h.clearInlineButtons(cq)
		r, err = h.orders.Cancel(ctx, userID)
	case data == cbContinue:
		r, err = h.orders.Proceed(ctx, userID)
	case data == cbAddAnother:
		r, err = h.orders.AddAnother(ctx, userID)
	case data == cbRemoveItems:
		r, err = h.orders.RemoveLastItem(ctx, userID)
		if err == nil && r.Problem == usecase.ProblemNone {
			h.sendMessage(chatID, "🗑️ Последний добавленный товар удален из корзины.")
		}
	case data == cbUsePromo:
		r, err = h.orders.UsePromo(ctx, userID)
	case data == cbBackToCart:
		r, err = h.orders.BackToCart(ctx, userID)
	case data == cbConfirmPayment:
		r, err = h.orders.Confirm(ctx, userID)
		if err == nil && r.Stage == usecase.OrderAwaitingPaymentProof {
			h.clearInlineButtons(cq)
			h.notifyManagerNewOrders(userID, r)
		}
	default:
		return nil
	}
	if err != nil {
		return err
	}
	return h.replyOrder(ctx, chatID, r)
}

// notifyManagerNewOrders yangi buyurtmalar haqida managerga xabar
func (h *BotHandler) notifyManagerNewOrders(userID int64, r usecase.OrderReply) {
	managerID := h.console.ManagerID()
	if managerID == 0 || len(r.Orders) == 0 {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 Новый заказ (%d шт.)", len(r.Orders))
	if r.User != nil {
		fmt.Fprintf(&b, " от %s (%s)", r.User.FullName, r.User.ShortCode)
	} else {
		fmt.Fprintf(&b, " от %d", userID)
	}
	if r.Quote != nil {
		fmt.Fprintf(&b, "\nСумма: %s", formatRub(r.Quote.Total))
	}
	b.WriteString("\n\n")
	for _, o := range r.Orders {
		b.WriteString(formatOrderCard(o))
		b.WriteString("\n")
	}
	h.sendMessage(managerID, b.String())
}

// proofExtensions rasm hujjatlari uchun ruxsat etilgan kengaytmalar
var proofExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".heic": true}

// proofFile photo yoki image/* hujjat; boshqa kontent uchun "".
func proofFile(message *tgbotapi.Message) (fileID, ext string) {
	if len(message.Photo) > 0 {
		// eng katta o'lchamdagi rasm
		return message.Photo[len(message.Photo)-1].FileID, ".jpg"
	}
	doc := message.Document
	if doc == nil || !strings.HasPrefix(strings.ToLower(doc.MimeType), "image/") {
		return "", ""
	}
	ext = strings.ToLower(filepath.Ext(doc.FileName))
	if !proofExtensions[ext] {
		ext = ".jpg"
	}
	return doc.FileID, ext
}

// handleProofMessage to'lov skrinshoti kutilayotganda kelgan har qanday kontent
func (h *BotHandler) handleProofMessage(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	chatID := message.Chat.ID

	fileID, ext := proofFile(message)
	if fileID == "" {
		r, err := h.orders.SubmitProof(ctx, userID, "", nil)
		if err != nil {
			return err
		}
		return h.replyOrder(ctx, chatID, r)
	}
	if message.Document != nil && message.Document.FileSize > constants.MaxFileUploadSize {
		h.sendMessage(chatID, "❌ Размер файла не должен превышать 5MB!")
		return nil
	}

	data, err := h.fetchFile(fileID)
	if err != nil {
		log.Printf("[order] screenshot download failed user=%d: %v", userID, err)
		h.sendMessage(chatID, "Произошла ошибка при сохранении скриншота. Пожалуйста, попробуйте еще раз.")
		return nil
	}
	if len(data) > constants.MaxFileUploadSize {
		h.sendMessage(chatID, "❌ Размер файла не должен превышать 5MB!")
		return nil
	}

	name := fmt.Sprintf("payment_%d_%d%s", userID, message.MessageID, ext)
	r, err := h.orders.SubmitProof(ctx, userID, name, data)
	if err != nil {
		return err
	}
	if r.Problem != usecase.ProblemNone {
		return h.replyOrder(ctx, chatID, r)
	}
	log.Printf("[order] payment screenshot saved user=%d path=%s orders=%d", userID, r.ProofPath, r.ProofAttached)
	h.sendMessage(chatID, "Скриншот оплаты получен и отправлен на проверку.\nОжидайте подтверждения от менеджера.")

	if managerID := h.console.ManagerID(); managerID != 0 {
		name := displayName(message.From)
		if r.User != nil {
			name = fmt.Sprintf("%s, %s", r.User.FullName, r.User.ShortCode)
		}
		caption := fmt.Sprintf("Новый скриншот оплаты от %s (%d)", name, userID)
		var fwd tgbotapi.Chattable
		if message.Document != nil {
			doc := tgbotapi.NewDocument(managerID, tgbotapi.FileID(fileID))
			doc.Caption = caption
			fwd = doc
		} else {
			photo := tgbotapi.NewPhoto(managerID, tgbotapi.FileID(fileID))
			photo.Caption = caption
			fwd = photo
		}
		if _, err := h.sendAndLog(fwd); err != nil {
			log.Printf("[order] screenshot forward to manager failed: %v", err)
		}
	}
	h.sendMainMenu(chatID)
	return nil
}
