package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
)

const downloadTimeout = 30 * time.Second

var downloadClient = &http.Client{Timeout: downloadTimeout}

func (h *BotHandler) sendAdminMenu(chatID int64) {
	h.sendWithMarkup(chatID, "🛠️ Панель администратора:", adminKeyboard())
}

// downloadFile telegram serveridan faylni yuklab olish
func (h *BotHandler) downloadFile(fileID string) ([]byte, error) {
	file, err := h.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}

	resp, err := downloadClient.Get(file.Link(h.token))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", file.FilePath, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, constants.MaxFileUploadSize+1))
}

// handleDocumentMessage admin JSON prays-listini yuklaydi
func (h *BotHandler) handleDocumentMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	userID := message.From.ID
	if !h.console.IsAdmin(userID) {
		h.sendMessage(chatID, "❌ Файлы может загружать только администратор.")
		return nil
	}

	doc := message.Document
	if doc.FileSize > constants.MaxFileUploadSize {
		h.sendMessage(chatID, "❌ Размер файла не должен превышать 5MB!")
		return nil
	}
	if !strings.EqualFold(filepath.Ext(doc.FileName), ".json") {
		h.sendMessage(chatID, "❌ Поддерживается только JSON файл с прайсом.")
		return nil
	}

	h.sendMessage(chatID, "⏳ Файл обрабатывается...")
	data, err := h.fetchFile(doc.FileID)
	if err != nil {
		log.Printf("[admin] price list download failed: %v", err)
		h.sendMessage(chatID, "❌ Не удалось скачать файл.")
		return nil
	}
	if len(data) > constants.MaxFileUploadSize {
		h.sendMessage(chatID, "❌ Размер файла не должен превышать 5MB!")
		return nil
	}

	res, err := h.console.ImportPriceList(ctx, bytes.NewReader(data))
	if err != nil {
		log.Printf("[admin] price list rejected file=%s: %v", doc.FileName, err)
		h.sendMessage(chatID, "❌ Ошибка чтения JSON: "+err.Error())
		return nil
	}

	var b strings.Builder
	b.WriteString("📥 Загрузка прайса\n")
	for _, s := range res.Sections {
		if s.Err != nil {
			fmt.Fprintf(&b, "❌ %s: %v\n", s.Name, s.Err)
			continue
		}
		fmt.Fprintf(&b, "✅ %s: %d\n", s.Name, s.Count)
	}
	if len(res.Sections) == 0 {
		b.WriteString("Файл не содержит известных разделов.\n")
	}
	log.Printf("[admin] price list imported by %d applied=%v failed=%d", userID, res.Applied(), len(res.Failed()))
	h.sendMessage(chatID, b.String())
	return nil
}

// handleExport Excel hisobot
func (h *BotHandler) handleExport(ctx context.Context, chatID int64) error {
	path, err := h.console.ExportReport(ctx)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	return h.sendDocument(chatID, filepath.Base(path), data, "📊 Отчет по заказам")
}

func (h *BotHandler) handleRate(ctx context.Context, chatID int64) error {
	rate, err := h.console.CurrentRate(ctx)
	if err != nil {
		log.Printf("[admin] rate: %v", err)
		h.sendMessage(chatID, problemText(usecase.ProblemRateMissing))
		return nil
	}
	h.sendMessage(chatID, fmt.Sprintf("🇨🇳 Курс на %s:\n👉 ¥1 = %s ₽", time.Now().Format(dateTimeLayout), rate.StringFixed(4)))
	return nil
}

func (h *BotHandler) handlePrices(ctx context.Context, chatID int64) error {
	prices, err := h.console.DeliveryPrices(ctx)
	if err != nil {
		return err
	}
	h.sendMessage(chatID, formatDeliveryPrices(prices))
	return nil
}

func formatDeliveryPrices(prices []entity.DeliveryPrice) string {
	if len(prices) == 0 {
		return "Тарифы доставки не загружены. Отправьте JSON файл с прайсом."
	}
	var b strings.Builder
	b.WriteString("🚚 Тарифы доставки:\n")
	last := ""
	for _, p := range prices {
		if p.DeliveryMethod != last {
			fmt.Fprintf(&b, "\n%s %s\n", deliveryEmoji[p.DeliveryMethod], p.DeliveryMethod)
			last = p.DeliveryMethod
		}
		fmt.Fprintf(&b, "• %s: %s\n", p.Category, formatRub(p.Price))
	}
	return b.String()
}

// handleAdminCallback admin panel tugmalari
func (h *BotHandler) handleAdminCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	if !h.requireAdmin(chatID, userID) {
		return nil
	}

	switch cq.Data {
	case cbActiveOrders:
		orders, err := h.console.ActiveOrders(ctx)
		if err != nil {
			return err
		}
		h.sendOrderList(chatID, "📦 Активные заказы:", "Активных заказов нет.", orders)
	case cbAllOrders:
		orders, err := h.console.AllOrders(ctx)
		if err != nil {
			return err
		}
		h.sendOrderList(chatID, "🧾 Все заказы:", "Заказов нет.", orders)
	case cbAdminByTelegram:
		h.console.AwaitTelegramID(userID)
		h.sendWithMarkup(chatID, "Введите Telegram ID пользователя:", cancelKeyboard(cbConsoleCancel))
	case cbAdminExport:
		return h.handleExport(ctx, chatID)
	case cbAdminRate:
		return h.handleRate(ctx, chatID)
	case cbAdminPrices:
		return h.handlePrices(ctx, chatID)
	}
	return nil
}

func (h *BotHandler) sendOrderList(chatID int64, title, empty string, orders []entity.Order) {
	if len(orders) == 0 {
		h.sendMessage(chatID, empty)
		return
	}
	h.sendMessage(chatID, formatOrderList(title, orders))
}
