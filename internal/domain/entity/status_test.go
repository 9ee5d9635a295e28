package entity

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusCreated, StatusPaid, true},
		{StatusCreated, StatusProcessing, true},
		{StatusPaid, StatusCreated, false},
		{StatusShippedDomestic, StatusShippedInternational, true},
		{StatusShippedInternational, StatusCompleted, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusCreated, false},
		{StatusCreated, OrderStatus("lost"), false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsActive(t *testing.T) {
	active := map[OrderStatus]bool{
		StatusCreated:              true,
		StatusPaid:                 true,
		StatusProcessing:           true,
		StatusShippedDomestic:      true,
		StatusShippedInternational: true,
		StatusCompleted:            false,
		StatusCancelled:            false,
	}
	for st, want := range active {
		if st.IsActive() != want {
			t.Errorf("%s.IsActive() = %v", st, !want)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	if st, ok := ParseOrderStatus("Доставка по РФ"); !ok || st != StatusShippedInternational {
		t.Fatalf("label parse failed: %v %v", st, ok)
	}
	if st, ok := ParseOrderStatus("paid"); !ok || st != StatusPaid {
		t.Fatalf("key parse failed: %v %v", st, ok)
	}
	if _, ok := ParseOrderStatus("Отправлен"); ok {
		t.Fatalf("unknown label accepted")
	}
}
