package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/domain/repository"
	"github.com/yourusername/poizon-order-bot/internal/metric"
)

const (
	SectionExchangeRate   = "exchange_rate"
	SectionDeliveryPrices = "delivery_types"
	SectionPaymentDetails = "payment_details"
)

// priceListDocument admin yuboradigan JSON fayl
type priceListDocument struct {
	ExchangeRate   map[string]decimal.Decimal            `json:"exchange_rate"`
	DeliveryTypes  map[string]map[string]decimal.Decimal `json:"delivery_types"`
	PaymentDetails *paymentDetailsDocument               `json:"payment_details"`
}

type paymentDetailsDocument struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	CardNumber  string `json:"card_number" validate:"required"`
	Recipient   string `json:"FIO" validate:"required"`
}

type rateRow struct {
	Name  string          `validate:"required"`
	Value decimal.Decimal `validate:"gt=0"`
}

type deliveryRow struct {
	Method   string          `validate:"required"`
	Category string          `validate:"required"`
	Price    decimal.Decimal `validate:"gte=0"`
}

// ImportSection outcome of one top-level section.
type ImportSection struct {
	Name  string
	Count int
	Err   error
}

type ImportResult struct {
	Sections []ImportSection
}

// Applied names of sections written without error.
func (r ImportResult) Applied() []string {
	var out []string
	for _, s := range r.Sections {
		if s.Err == nil {
			out = append(out, s.Name)
		}
	}
	return out
}

func (r ImportResult) Failed() []ImportSection {
	var out []ImportSection
	for _, s := range r.Sections {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// PriceImporter applies a JSON price list. Sections are independent: a
// failing section does not undo the ones already written.
type PriceImporter struct {
	prices   repository.PriceRepository
	payments repository.PaymentRepository
	validate *validator.Validate
}

func NewPriceImporter(prices repository.PriceRepository, payments repository.PaymentRepository) *PriceImporter {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return &PriceImporter{prices: prices, payments: payments, validate: v}
}

// Import reads the whole document; a malformed document changes nothing.
func (p *PriceImporter) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var doc priceListDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return ImportResult{}, fmt.Errorf("decode price list: %w", err)
	}

	var result ImportResult
	if doc.ExchangeRate != nil {
		result.Sections = append(result.Sections, p.section(SectionExchangeRate, func() (int, error) {
			return p.importRates(ctx, doc.ExchangeRate)
		}))
	}
	if doc.DeliveryTypes != nil {
		result.Sections = append(result.Sections, p.section(SectionDeliveryPrices, func() (int, error) {
			return p.importDelivery(ctx, doc.DeliveryTypes)
		}))
	}
	if doc.PaymentDetails != nil {
		result.Sections = append(result.Sections, p.section(SectionPaymentDetails, func() (int, error) {
			return p.importPayment(ctx, *doc.PaymentDetails)
		}))
	}
	return result, nil
}

func (p *PriceImporter) section(name string, fn func() (int, error)) ImportSection {
	n, err := fn()
	status := "ok"
	if err != nil {
		status = "error"
	}
	metric.PriceImportsTotal.WithLabelValues(name, status).Inc()
	return ImportSection{Name: name, Count: n, Err: err}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *PriceImporter) importRates(ctx context.Context, rates map[string]decimal.Decimal) (int, error) {
	rows := make([]rateRow, 0, len(rates))
	for _, name := range sortedKeys(rates) {
		row := rateRow{Name: strings.TrimSpace(name), Value: rates[name]}
		if err := p.validate.Struct(row); err != nil {
			return 0, fmt.Errorf("rate %q: %w", name, err)
		}
		rows = append(rows, row)
	}
	for i, row := range rows {
		if err := p.prices.UpsertExchangeRate(ctx, row.Name, row.Value); err != nil {
			return i, fmt.Errorf("save rate %s: %w", row.Name, err)
		}
	}
	return len(rows), nil
}

func (p *PriceImporter) importDelivery(ctx context.Context, types map[string]map[string]decimal.Decimal) (int, error) {
	var rows []deliveryRow
	for _, method := range sortedKeys(types) {
		categories := types[method]
		for _, category := range sortedKeys(categories) {
			row := deliveryRow{
				Method:   strings.TrimSpace(method),
				Category: strings.TrimSpace(category),
				Price:    categories[category],
			}
			if err := p.validate.Struct(row); err != nil {
				return 0, fmt.Errorf("delivery %q/%q: %w", method, category, err)
			}
			rows = append(rows, row)
		}
	}
	for i, row := range rows {
		if err := p.prices.UpsertDeliveryPrice(ctx, row.Category, row.Method, row.Price); err != nil {
			return i, fmt.Errorf("save delivery %s/%s: %w", row.Method, row.Category, err)
		}
	}
	return len(rows), nil
}

func (p *PriceImporter) importPayment(ctx context.Context, d paymentDetailsDocument) (int, error) {
	d.PhoneNumber = strings.TrimSpace(d.PhoneNumber)
	d.CardNumber = strings.TrimSpace(d.CardNumber)
	d.Recipient = strings.TrimSpace(d.Recipient)
	if err := p.validate.Struct(d); err != nil {
		return 0, fmt.Errorf("payment details: %w", err)
	}
	err := p.payments.UpsertPaymentDetails(ctx, entity.PaymentDetails{
		PhoneNumber: d.PhoneNumber,
		CardNumber:  d.CardNumber,
		Recipient:   d.Recipient,
	})
	if err != nil {
		return 0, fmt.Errorf("save payment details: %w", err)
	}
	return 1, nil
}
