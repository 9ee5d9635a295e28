package telegram

const accessDeniedText = "⛔ Доступ запрещен."

// requireAdmin faqat ADMIN_IDS ro'yxatidagilar
func (h *BotHandler) requireAdmin(chatID, userID int64) bool {
	if h.console.IsAdmin(userID) {
		return true
	}
	h.sendMessage(chatID, accessDeniedText)
	return false
}

// requireStaff manager yoki admin
func (h *BotHandler) requireStaff(chatID, userID int64) bool {
	if h.console.IsStaff(userID) {
		return true
	}
	h.sendMessage(chatID, accessDeniedText)
	return false
}
