package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/domain/repository"
	"github.com/yourusername/poizon-order-bot/internal/metric"
)

// LifecycleManager confirmed orderlar holatini boshqaradi
type LifecycleManager struct {
	users  repository.UserRepository
	orders repository.OrderRepository
}

func NewLifecycleManager(users repository.UserRepository, orders repository.OrderRepository) *LifecycleManager {
	return &LifecycleManager{users: users, orders: orders}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Order by code.
func (l *LifecycleManager) Order(ctx context.Context, code string) (*entity.Order, error) {
	order, err := l.orders.GetOrderByCode(ctx, normalizeCode(code))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, normalizeCode(code))
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// UpdateStatus moves the order to target (key or russian label).
// Setting the current status again is a no-op.
func (l *LifecycleManager) UpdateStatus(ctx context.Context, code, target string) (*entity.Order, error) {
	st, ok := entity.ParseOrderStatus(target)
	if !ok {
		metric.StatusChangesTotal.WithLabelValues("unknown", "unknown_status").Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, target)
	}
	order, err := l.Order(ctx, code)
	if err != nil {
		metric.StatusChangesTotal.WithLabelValues(string(st), "not_found").Inc()
		return nil, err
	}
	if order.Status == st {
		return order, nil
	}
	if !order.Status.CanTransition(st) {
		metric.StatusChangesTotal.WithLabelValues(string(st), "illegal").Inc()
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, st)
	}
	if err := l.orders.UpdateOrderStatus(ctx, order.Code, order.Status, st); err != nil {
		metric.StatusChangesTotal.WithLabelValues(string(st), "error").Inc()
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, order.Code)
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	metric.StatusChangesTotal.WithLabelValues(string(st), "ok").Inc()
	order.Status = st
	return order, nil
}

// SetTracking records the tracking number and optional ETA.
func (l *LifecycleManager) SetTracking(ctx context.Context, code, number string, eta *time.Time) (*entity.Order, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, errors.New("tracking number is empty")
	}
	code = normalizeCode(code)
	if err := l.orders.SetTracking(ctx, code, number, eta); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, code)
		}
		return nil, fmt.Errorf("set tracking: %w", err)
	}
	return l.Order(ctx, code)
}

// AttachPaymentProof attaches path to the batch of the user's most recent active order.
func (l *LifecycleManager) AttachPaymentProof(ctx context.Context, telegramID int64, path string) (int, error) {
	active, err := l.ActiveOrders(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, ErrNoActiveOrder
	}
	latest := active[0]
	if latest.BatchID == "" {
		return 0, fmt.Errorf("order %s has no batch", latest.Code)
	}
	n, err := l.orders.AttachPaymentProof(ctx, latest.BatchID, path)
	if err != nil {
		return 0, fmt.Errorf("attach proof: %w", err)
	}
	return n, nil
}

// OrderHistory all orders of the user, newest first.
func (l *LifecycleManager) OrderHistory(ctx context.Context, telegramID int64) ([]entity.Order, error) {
	user, err := l.users.GetUserByTelegramID(ctx, telegramID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	orders, err := l.orders.ListOrdersByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ActiveOrders orders not yet Completed or Cancelled, newest first.
func (l *LifecycleManager) ActiveOrders(ctx context.Context, telegramID int64) ([]entity.Order, error) {
	all, err := l.OrderHistory(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return filterActive(all), nil
}

func filterActive(orders []entity.Order) []entity.Order {
	out := make([]entity.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status.IsActive() {
			out = append(out, o)
		}
	}
	return out
}
