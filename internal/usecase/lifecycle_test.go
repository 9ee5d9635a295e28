package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
)

func seedOrder(t *testing.T, h *harness, tgID int64, status entity.OrderStatus) entity.Order {
	t.Helper()
	ctx := context.Background()
	user, err := h.store.GetUserByTelegramID(ctx, tgID)
	if err != nil {
		user = h.register(t, tgID)
	}
	o := entity.Order{
		BatchID:        "batch-" + string(status),
		UserID:         user.ID,
		Category:       "Одежда",
		DeliveryMethod: "Автоэкспресс",
		Status:         status,
	}
	created, err := h.store.CreateOrderBatch(ctx, []entity.Order{o})
	require.NoError(t, err)
	return created[0]
}

func TestUpdateStatusMissingCodeChangesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seedOrder(t, h, 20, entity.StatusCreated)

	_, err := h.lifecycle.UpdateStatus(ctx, "Z999", "paid")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	all, err := h.store.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, entity.StatusCreated, all[0].Status)
}

func TestUpdateStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    entity.OrderStatus
		target  string
		want    entity.OrderStatus
		wantErr error
	}{
		{"forward", entity.StatusCreated, "paid", entity.StatusPaid, nil},
		{"label", entity.StatusPaid, "В обработке", entity.StatusProcessing, nil},
		{"skip ahead", entity.StatusPaid, "shipped_rf", entity.StatusShippedInternational, nil},
		{"cancel active", entity.StatusShippedDomestic, "cancelled", entity.StatusCancelled, nil},
		{"same status", entity.StatusProcessing, "processing", entity.StatusProcessing, nil},
		{"backwards", entity.StatusPaid, "created", entity.StatusPaid, ErrIllegalTransition},
		{"reopen completed", entity.StatusCompleted, "cancelled", entity.StatusCompleted, ErrIllegalTransition},
		{"unknown literal", entity.StatusCreated, "lost", entity.StatusCreated, ErrUnknownStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			o := seedOrder(t, h, 21, tt.from)

			got, err := h.lifecycle.UpdateStatus(ctx, o.Code, tt.target)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got.Status)
			}
			stored, err := h.store.GetOrderByCode(ctx, o.Code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Status)
		})
	}
}

func TestUpdateStatusAcceptsLowercaseCode(t *testing.T) {
	h := newHarness(t)
	o := seedOrder(t, h, 22, entity.StatusCreated)
	got, err := h.lifecycle.UpdateStatus(context.Background(), " a001 ", "paid")
	require.NoError(t, err)
	assert.Equal(t, o.Code, got.Code)
}

func TestAttachPaymentProofNeedsActiveOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.lifecycle.AttachPaymentProof(ctx, 23, "p.jpg")
	assert.ErrorIs(t, err, ErrNotRegistered)

	seedOrder(t, h, 23, entity.StatusCompleted)
	_, err = h.lifecycle.AttachPaymentProof(ctx, 23, "p.jpg")
	assert.ErrorIs(t, err, ErrNoActiveOrder)
}

func TestActiveOrdersAndHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seedOrder(t, h, 24, entity.StatusCompleted)
	seedOrder(t, h, 24, entity.StatusPaid)
	seedOrder(t, h, 24, entity.StatusCancelled)

	active, err := h.lifecycle.ActiveOrders(ctx, 24)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, entity.StatusPaid, active[0].Status)

	history, err := h.lifecycle.OrderHistory(ctx, 24)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestSetTracking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := seedOrder(t, h, 25, entity.StatusShippedInternational)
	eta := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)

	got, err := h.lifecycle.SetTracking(ctx, o.Code, "RU123456", &eta)
	require.NoError(t, err)
	assert.Equal(t, "RU123456", got.TrackingNumber)
	require.NotNil(t, got.EstimatedDelivery)
	assert.True(t, got.EstimatedDelivery.Equal(eta))

	_, err = h.lifecycle.SetTracking(ctx, "B777", "X", nil)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
