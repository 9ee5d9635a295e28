package constants

import "time"

// Narx konstantalari
const (
	// RateCNYToRUB yuan -> rubl kursi nomi
	RateCNYToRUB = "cny_to_rub"

	// NoneMarker size/color uchun "yo'q" belgisi
	NoneMarker = "нет"
)

// Yetkazib berish usullari
const (
	DeliveryAuto = "Автоэкспресс"
	DeliveryAir  = "Авиаэкспресс"
)

// DeliveryMethods keyboard order.
var DeliveryMethods = []string{DeliveryAuto, DeliveryAir}

// Categories tovar kategoriyalari (yetkazish narxi shularga bog'liq)
var Categories = []string{
	"Одежда",
	"Верхняя одежда",
	"Нижнее белье",
	"Летняя обувь",
	"Зимняя обувь",
	"Кошельки",
	"Парфюм",
	"Большие сумки",
}

// Sessiya va fayl konstantalari
const (
	// DefaultConversationTimeout suhbat holati shu vaqtdan keyin tozalanadi
	DefaultConversationTimeout = 2 * time.Hour

	// DefaultRateQuoteTTL kurs shu vaqt davomida muzlatiladi
	DefaultRateQuoteTTL = 30 * time.Minute

	// MaxFileUploadSize maksimal fayl hajmi (bayt)
	MaxFileUploadSize = 5 * 1024 * 1024 // 5MB

	// MaxMessageLength telegram xabar limiti
	MaxMessageLength = 4096
)

func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

func IsDeliveryMethod(name string) bool {
	for _, m := range DeliveryMethods {
		if m == name {
			return true
		}
	}
	return false
}
