package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem savatdagi bitta tovar (hali saqlanmagan)
type LineItem struct {
	Category       string
	Size           string
	Color          string
	Link           string
	Price          decimal.Decimal // CNY
	DeliveryMethod string
}

// Order confirmed line item. Orders of one cart share BatchID.
type Order struct {
	ID                int64
	Code              string
	BatchID           string
	UserID            int64
	Category          string
	Size              string
	Color             string
	Link              string
	Price             decimal.Decimal
	Rate              decimal.Decimal
	DeliveryMethod    string
	DeliveryFee       decimal.Decimal
	TotalPrice        decimal.Decimal
	PromoCode         string
	PaymentScreenshot string
	Status            OrderStatus
	TrackingNumber    string
	EstimatedDelivery *time.Time
	CreatedAt         time.Time

	// owner fields, filled on read
	UserCode    string
	TelegramID  int64
	UserAddress string
}

// ExchangeRate named currency rate, e.g. cny_to_rub.
type ExchangeRate struct {
	Name  string
	Value decimal.Decimal
}

// DeliveryPrice fee for a (category, delivery method) pair.
type DeliveryPrice struct {
	Category       string
	DeliveryMethod string
	Price          decimal.Decimal
}

// PaymentDetails rekvizitlar, checkout paytida ko'rsatiladi
type PaymentDetails struct {
	PhoneNumber string
	CardNumber  string
	Recipient   string
}
