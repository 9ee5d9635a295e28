package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicate      = errors.New("duplicate record")
	ErrStatusConflict = errors.New("order status changed concurrently")
	ErrCodesExhausted = entity.ErrCodeSpaceExhausted
)

// UserRepository foydalanuvchilar bilan ishlash uchun interface
type UserRepository interface {
	// CreateUser saves u and claims a unique short code for it.
	// Returns ErrDuplicate when the telegram id or phone already exists.
	CreateUser(ctx context.Context, u *entity.User) error
	// UpdateUserProfile updates name/phone/address/link; the short code is kept.
	UpdateUserProfile(ctx context.Context, u entity.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*entity.User, error)
	GetUserByCode(ctx context.Context, code string) (*entity.User, error)
	ListUsers(ctx context.Context) ([]entity.User, error)
	// UserCodes all issued user codes (full scan).
	UserCodes(ctx context.Context) ([]string, error)
}

// OrderRepository buyurtmalar uchun interface
type OrderRepository interface {
	// CreateOrderBatch persists all orders in one transaction, claiming a code for each.
	CreateOrderBatch(ctx context.Context, orders []entity.Order) ([]entity.Order, error)
	GetOrderByCode(ctx context.Context, code string) (*entity.Order, error)
	// UpdateOrderStatus sets the status only if it is still from.
	UpdateOrderStatus(ctx context.Context, code string, from, to entity.OrderStatus) error
	// AttachPaymentProof sets the screenshot path on every order of the batch.
	AttachPaymentProof(ctx context.Context, batchID, path string) (int, error)
	SetTracking(ctx context.Context, code, number string, eta *time.Time) error
	// ListOrdersByUser newest first.
	ListOrdersByUser(ctx context.Context, userID int64) ([]entity.Order, error)
	ListOrdersByStatus(ctx context.Context, status entity.OrderStatus) ([]entity.Order, error)
	ListOrders(ctx context.Context) ([]entity.Order, error)
}

// PriceRepository kurslar va yetkazish narxlari
type PriceRepository interface {
	GetExchangeRate(ctx context.Context, name string) (decimal.Decimal, error)
	UpsertExchangeRate(ctx context.Context, name string, value decimal.Decimal) error
	GetDeliveryPrice(ctx context.Context, category, method string) (decimal.Decimal, error)
	UpsertDeliveryPrice(ctx context.Context, category, method string, price decimal.Decimal) error
	ListDeliveryPrices(ctx context.Context) ([]entity.DeliveryPrice, error)
}

// PaymentRepository to'lov rekvizitlari (bitta global yozuv)
type PaymentRepository interface {
	GetPaymentDetails(ctx context.Context) (*entity.PaymentDetails, error)
	UpsertPaymentDetails(ctx context.Context, d entity.PaymentDetails) error
}

// Store barcha repositorylar bitta ulanish ustida
type Store interface {
	UserRepository
	OrderRepository
	PriceRepository
	PaymentRepository
	Close() error
}
