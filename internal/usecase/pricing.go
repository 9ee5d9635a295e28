package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/domain/repository"
)

// RateSource live kurs manbai (CBR)
type RateSource interface {
	CNYToRUB(ctx context.Context) (decimal.Decimal, error)
}

// ItemQuote one line item priced: Converted = price*rate, Total = Converted + Fee.
type ItemQuote struct {
	Item      entity.LineItem
	Converted decimal.Decimal
	Fee       decimal.Decimal
	Total     decimal.Decimal
}

// Quote priced cart.
type Quote struct {
	RateName string
	Rate     decimal.Decimal
	Items    []ItemQuote
	Goods    decimal.Decimal
	Fees     decimal.Decimal
	Total    decimal.Decimal
	QuotedAt time.Time
}

// PricingService kurs va yetkazish narxlari bo'yicha hisob-kitob
type PricingService struct {
	prices repository.PriceRepository
	live   RateSource
	now    func() time.Time
}

// NewPricingService live may be nil; it is only consulted for cny_to_rub missing in storage.
func NewPricingService(prices repository.PriceRepository, live RateSource) *PricingService {
	return &PricingService{prices: prices, live: live, now: time.Now}
}

// Rate current value of a named rate.
func (p *PricingService) Rate(ctx context.Context, name string) (decimal.Decimal, error) {
	v, err := p.prices.GetExchangeRate(ctx, name)
	if err == nil && v.IsPositive() {
		return v, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("rate lookup: %w", err)
	}
	if name == constants.RateCNYToRUB && p.live != nil {
		live, liveErr := p.live.CNYToRUB(ctx)
		if liveErr != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrRateUnavailable, liveErr)
		}
		return live, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrRateNotFound, name)
}

// Convert amount * rate(rateName).
func (p *PricingService) Convert(ctx context.Context, amount decimal.Decimal, rateName string) (decimal.Decimal, error) {
	rate, err := p.Rate(ctx, rateName)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// DeliveryFee never zero-fills: a missing row is ErrFeeNotFound.
func (p *PricingService) DeliveryFee(ctx context.Context, category, method string) (decimal.Decimal, error) {
	fee, err := p.prices.GetDeliveryPrice(ctx, category, method)
	if errors.Is(err, repository.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("%w: %s / %s", ErrFeeNotFound, category, method)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("fee lookup: %w", err)
	}
	return fee, nil
}

// QuoteAt prices items with a fixed rate; fees are looked up live.
func (p *PricingService) QuoteAt(ctx context.Context, items []entity.LineItem, rateName string, rate decimal.Decimal) (Quote, error) {
	q := Quote{
		RateName: rateName,
		Rate:     rate,
		Items:    make([]ItemQuote, 0, len(items)),
		Goods:    decimal.Zero,
		Fees:     decimal.Zero,
		Total:    decimal.Zero,
		QuotedAt: p.now(),
	}
	for _, item := range items {
		fee, err := p.DeliveryFee(ctx, item.Category, item.DeliveryMethod)
		if err != nil {
			return Quote{}, err
		}
		converted := item.Price.Mul(rate)
		line := ItemQuote{
			Item:      item,
			Converted: converted,
			Fee:       fee,
			Total:     converted.Add(fee),
		}
		q.Items = append(q.Items, line)
		q.Goods = q.Goods.Add(converted)
		q.Fees = q.Fees.Add(fee)
		q.Total = q.Total.Add(line.Total)
	}
	return q, nil
}

// Quote prices items at the current rate.
func (p *PricingService) Quote(ctx context.Context, items []entity.LineItem, rateName string) (Quote, error) {
	rate, err := p.Rate(ctx, rateName)
	if err != nil {
		return Quote{}, err
	}
	return p.QuoteAt(ctx, items, rateName, rate)
}

// CartTotal sum of price*rate + fee(category, method) over items.
func (p *PricingService) CartTotal(ctx context.Context, items []entity.LineItem, rateName string) (decimal.Decimal, error) {
	q, err := p.Quote(ctx, items, rateName)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Total, nil
}
