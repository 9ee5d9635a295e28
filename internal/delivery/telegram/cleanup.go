package telegram

import (
	"context"
	"log"
	"time"
)

const sessionCleanupInterval = 15 * time.Minute

// cleanupSessions - eski suhbatlarni tozalash (memory leak oldini olish)
func (h *BotHandler) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.expireConversations()
		}
	}
}

func (h *BotHandler) expireConversations() int {
	if h.convs == nil {
		return 0
	}
	n := h.convs.Expire(h.conversationTimeout)
	if n > 0 {
		log.Printf("♻️ %d ta suhbat tozalandi (timeout %v)", n, h.conversationTimeout)
	}
	log.Printf("🧹 Session cleanup bajarildi, faol suhbatlar: %d", h.convs.Len())
	return n
}
