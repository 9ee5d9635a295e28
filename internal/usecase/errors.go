package usecase

import "errors"

var (
	ErrRateNotFound      = errors.New("exchange rate not found")
	ErrRateUnavailable   = errors.New("exchange rate source unavailable")
	ErrFeeNotFound       = errors.New("delivery fee not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNoActiveOrder     = errors.New("no active order")
	ErrNotRegistered     = errors.New("user is not registered")
	ErrEmptyCart         = errors.New("cart is empty")
)
