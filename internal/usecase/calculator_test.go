package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
)

func TestCalculatorRetail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	r, err := h.calc.Start(60)
	require.NoError(t, err)
	assert.Equal(t, CalcChoosingType, r.Stage)

	r, err = h.calc.ChooseRetail(60)
	require.NoError(t, err)
	assert.Equal(t, CalcChoosingCategory, r.Stage)

	_, err = h.calc.SelectCategory(60, "Одежда")
	require.NoError(t, err)

	r, err = h.calc.Text(60, "сто")
	require.NoError(t, err)
	assert.Equal(t, ProblemInvalidPrice, r.Problem)
	assert.Equal(t, CalcEnteringPrice, r.Stage)

	r, err = h.calc.Text(60, "100")
	require.NoError(t, err)
	assert.Equal(t, CalcChoosingDelivery, r.Stage)

	r, err = h.calc.SelectDelivery(ctx, 60, constants.DeliveryAuto)
	require.NoError(t, err)
	require.NotNil(t, r.Quote)
	assert.Equal(t, "1250", r.Quote.Goods.String())
	assert.Equal(t, "2050", r.Quote.Total.String())
	assert.Equal(t, CalcIdle, r.Stage)

	// nothing is persisted
	all, err := h.store.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCalculatorMissingFeeEndsFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, _ = h.calc.Start(61)
	_, _ = h.calc.ChooseRetail(61)
	_, _ = h.calc.SelectCategory(61, "Большие сумки")
	_, _ = h.calc.Text(61, "300")

	r, err := h.calc.SelectDelivery(ctx, 61, constants.DeliveryAir)
	require.NoError(t, err)
	assert.Equal(t, ProblemFeeMissing, r.Problem)
	assert.Equal(t, CalcIdle, h.calc.Stage(61))
}

func TestCalculatorWholesale(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _ = h.calc.Start(62)
	r, err := h.calc.ChooseWholesale(ctx, 62)
	require.NoError(t, err)
	assert.True(t, r.NeedsRegistration)

	h.register(t, 62)
	_, _ = h.calc.Start(62)
	r, err = h.calc.ChooseWholesale(ctx, 62)
	require.NoError(t, err)
	assert.True(t, r.Wholesale)
	require.NotNil(t, r.User)
	assert.Equal(t, "A001", r.User.ShortCode)
}

func TestSupportQuestion(t *testing.T) {
	h := newHarness(t)
	support := NewSupportFlow(h.convs)

	_, problem := support.Question(70, "hello")
	assert.Equal(t, ProblemUnexpected, problem)

	support.Start(70)
	assert.True(t, support.Awaiting(70))
	_, problem = support.Question(70, "   ")
	assert.Equal(t, ProblemEmptyText, problem)

	q, problem := support.Question(70, " Где мой заказ? ")
	assert.Equal(t, ProblemNone, problem)
	assert.Equal(t, "Где мой заказ?", q)
	assert.False(t, support.Awaiting(70))
}
