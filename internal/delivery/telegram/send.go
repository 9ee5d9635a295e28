package telegram

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
)

const genericErrorText = "Произошла ошибка. Пожалуйста, попробуйте позже."

// sendText sends a message with optional parseMode/replyMarkup.
func (h *BotHandler) sendText(chatID int64, text string, parseMode string, replyMarkup interface{}) (*tgbotapi.Message, error) {
	if h.bot == nil {
		return nil, fmt.Errorf("telegram bot is nil")
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	msg.DisableWebPagePreview = true
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}
	sent, err := h.sendAndLog(msg)
	if err != nil {
		return nil, err
	}
	return &sent, nil
}

func (h *BotHandler) sendAndLog(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	if h.bot == nil {
		return tgbotapi.Message{}, fmt.Errorf("telegram bot is nil")
	}
	return h.bot.Send(msg)
}

// sendMessage oddiy xabar yuborish
func (h *BotHandler) sendMessage(chatID int64, text string) {
	h.sendWithMarkup(chatID, text, nil)
}

// sendWithMarkup uzun matn bo'laklarga bo'linadi, klaviatura oxirgi bo'lakka qo'shiladi
func (h *BotHandler) sendWithMarkup(chatID int64, text string, markup interface{}) {
	if h.bot == nil {
		log.Printf("sendMessage skipped (bot is nil) chat=%d text=%q", chatID, truncateForLog(text, 120))
		return
	}

	// Bo'sh xabar tekshirish
	if strings.TrimSpace(text) == "" {
		log.Printf("⚠️ Bo'sh xabar yuborilmoqchi bo'ldi! ChatID: %d", chatID)
		text = genericErrorText
	}

	chunks := splitIntoChunks(text, constants.MaxMessageLength)
	for i, chunk := range chunks {
		var m interface{}
		if i == len(chunks)-1 {
			m = markup
		}
		if _, err := h.sendText(chatID, chunk, "", m); err != nil {
			log.Printf("Xabar yuborishda xatolik: %v", err)
			return
		}
	}
}

// sendDocument faylni hujjat sifatida yuborish
func (h *BotHandler) sendDocument(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	_, err := h.sendAndLog(doc)
	return err
}

// splitIntoChunks matnni Telegram limitiga (runelar soni) mos bo'laklarga bo'ladi.
// Imkon bo'lsa qator chegarasida bo'linadi.
func splitIntoChunks(s string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	var chunks []string
	var current strings.Builder
	count := 0

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			count = 0
		}
	}

	for _, line := range strings.SplitAfter(s, "\n") {
		n := utf8.RuneCountInString(line)
		if count+n <= limit {
			current.WriteString(line)
			count += n
			continue
		}
		flush()
		if n <= limit {
			current.WriteString(line)
			count = n
			continue
		}
		// a single line longer than the limit is cut by runes
		for _, r := range line {
			if count == limit {
				flush()
			}
			current.WriteRune(r)
			count++
		}
	}
	flush()
	return chunks
}

func truncateForLog(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string([]rune(s)[:max])) + "…"
}
