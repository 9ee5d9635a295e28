package entity

import "strings"

// OrderStatus buyurtma holati (bazada kalit sifatida saqlanadi)
type OrderStatus string

const (
	StatusCreated              OrderStatus = "created"
	StatusPaid                 OrderStatus = "paid"
	StatusProcessing           OrderStatus = "processing"
	StatusShippedDomestic      OrderStatus = "shipped_china"
	StatusShippedInternational OrderStatus = "shipped_rf"
	StatusCompleted            OrderStatus = "completed"
	StatusCancelled            OrderStatus = "cancelled"
)

// OrderStatuses lifecycle order, used for keyboards and reports.
var OrderStatuses = []OrderStatus{
	StatusCreated,
	StatusPaid,
	StatusProcessing,
	StatusShippedDomestic,
	StatusShippedInternational,
	StatusCompleted,
	StatusCancelled,
}

var statusLabels = map[OrderStatus]string{
	StatusCreated:              "Создан",
	StatusPaid:                 "Оплачен",
	StatusProcessing:           "В обработке",
	StatusShippedDomestic:      "Доставка по Китаю",
	StatusShippedInternational: "Доставка по РФ",
	StatusCompleted:            "Завершен",
	StatusCancelled:            "Отменен",
}

// next forward step of the lifecycle
var statusNext = map[OrderStatus]OrderStatus{
	StatusCreated:              StatusPaid,
	StatusPaid:                 StatusProcessing,
	StatusProcessing:           StatusShippedDomestic,
	StatusShippedDomestic:      StatusShippedInternational,
	StatusShippedInternational: StatusCompleted,
}

// Label human readable (russian) status name.
func (s OrderStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsActive - Completed/Cancelled dan boshqa barcha holatlar
func (s OrderStatus) IsActive() bool {
	return s.Valid() && !s.IsTerminal()
}

// CanTransition reports whether an order may move from s to target.
// Forward moves may skip steps, Cancelled is reachable from any non-terminal
// status and terminal statuses are final.
func (s OrderStatus) CanTransition(target OrderStatus) bool {
	if !s.Valid() || !target.Valid() {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	if target == StatusCancelled {
		return true
	}
	for cur, ok := statusNext[s]; ok; cur, ok = statusNext[cur] {
		if cur == target {
			return true
		}
	}
	return false
}

// ParseOrderStatus accepts either the storage key or the russian label.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	raw = strings.TrimSpace(raw)
	if st := OrderStatus(strings.ToLower(raw)); st.Valid() {
		return st, true
	}
	for st, label := range statusLabels {
		if strings.EqualFold(label, raw) {
			return st, true
		}
	}
	return "", false
}
