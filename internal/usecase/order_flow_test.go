package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/infrastructure/storage"
)

type memProofs struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (p *memProofs) Save(_ context.Context, name string, data []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saved == nil {
		p.saved = make(map[string][]byte)
	}
	path := "pay_screens/" + name
	p.saved[path] = data
	return path, nil
}

type harness struct {
	store     *storage.MemoryStore
	convs     *ConversationStore
	pricing   *PricingService
	lifecycle *LifecycleManager
	proofs    *memProofs
	orders    *OrderFlow
	reg       *RegistrationFlow
	calc      *Calculator
	console   *Console
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := seededPrices(t)
	h := &harness{
		store:  store,
		convs:  NewConversationStore(),
		proofs: &memProofs{},
	}
	h.pricing = NewPricingService(store, nil)
	h.lifecycle = NewLifecycleManager(store, store)
	h.orders = NewOrderFlow(h.convs, store, store, store, h.pricing, h.lifecycle, h.proofs, time.Hour)
	h.reg = NewRegistrationFlow(h.convs, store)
	h.calc = NewCalculator(h.convs, store, h.pricing)
	h.console = NewConsole(ConsoleDeps{
		Convs:     h.convs,
		Users:     store,
		Orders:    store,
		Pricing:   h.pricing,
		Lifecycle: h.lifecycle,
		Importer:  NewPriceImporter(store, store),
		Reporter:  NewReporter(store, store, t.TempDir()),
		AdminIDs:  []int64{1},
		ManagerID: 2,
	})
	return h
}

func (h *harness) register(t *testing.T, tgID int64) *entity.User {
	t.Helper()
	u := &entity.User{
		TelegramID: tgID,
		FullName:   "Иван Иванов",
		Phone:      fmt.Sprintf("+7999%07d", tgID),
		Address:    "Москва, ул. Ленина 1",
	}
	require.NoError(t, h.store.CreateUser(context.Background(), u))
	return u
}

// addItem walks one item from category choice to the cart view.
func (h *harness) addItem(t *testing.T, tgID int64, category, price, method string) OrderReply {
	t.Helper()
	ctx := context.Background()
	r, err := h.orders.SelectCategory(ctx, tgID, category)
	require.NoError(t, err)
	require.Equal(t, ProblemNone, r.Problem)
	for _, text := range []string{price, "M", "нет", "https://dw4.co/t/A/abc"} {
		r, err = h.orders.Text(ctx, tgID, text)
		require.NoError(t, err)
		require.Equal(t, ProblemNone, r.Problem, text)
	}
	require.Equal(t, OrderChoosingDelivery, r.Stage)
	r, err = h.orders.SelectDelivery(ctx, tgID, method)
	require.NoError(t, err)
	return r
}

func TestOrderStartRedirectsUnregisteredUser(t *testing.T) {
	h := newHarness(t)
	r, err := h.orders.Start(context.Background(), 500)
	require.NoError(t, err)
	assert.True(t, r.NeedsRegistration)
	assert.Equal(t, OrderIdle, r.Stage)
	assert.Zero(t, h.convs.Len())
}

func TestOrderFlowEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, 10)

	r, err := h.orders.Start(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, OrderChoosingCategory, r.Stage)

	r = h.addItem(t, 10, "Одежда", "100", constants.DeliveryAuto)
	require.Equal(t, ProblemNone, r.Problem)
	require.Equal(t, OrderReviewingCart, r.Stage)
	require.NotNil(t, r.Quote)
	assert.Equal(t, "2050", r.Quote.Total.String())
	assert.Equal(t, "m", r.Quote.Items[0].Item.Size)
	assert.Equal(t, constants.NoneMarker, r.Quote.Items[0].Item.Color)

	r, err = h.orders.Proceed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, OrderConfirming, r.Stage)
	assert.Nil(t, r.Payment)

	r, err = h.orders.Confirm(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, ProblemNone, r.Problem)
	assert.Equal(t, OrderAwaitingPaymentProof, r.Stage)
	require.Len(t, r.Orders, 1)
	assert.Equal(t, "A001", r.Orders[0].Code)
	assert.Equal(t, entity.StatusCreated, r.Orders[0].Status)
	assert.True(t, r.Orders[0].TotalPrice.Equal(decimal.NewFromInt(2050)))

	r, err = h.orders.Text(ctx, 10, "вот оплата")
	require.NoError(t, err)
	assert.Equal(t, ProblemExpectedPhoto, r.Problem)
	assert.Equal(t, OrderAwaitingPaymentProof, r.Stage)

	r, err = h.orders.SubmitProof(ctx, 10, "payment_10_77.jpg", []byte{0xff, 0xd8})
	require.NoError(t, err)
	assert.Equal(t, 1, r.ProofAttached)
	assert.Equal(t, OrderIdle, r.Stage)

	stored, err := h.store.GetOrderByCode(ctx, "A001")
	require.NoError(t, err)
	assert.Equal(t, "pay_screens/payment_10_77.jpg", stored.PaymentScreenshot)
	assert.Equal(t, OrderIdle, h.orders.Stage(10))
}

func TestOrderFlowRepromptsInPlace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, 11)
	_, err := h.orders.Start(ctx, 11)
	require.NoError(t, err)

	r, err := h.orders.SelectCategory(ctx, 11, "Носки")
	require.NoError(t, err)
	assert.Equal(t, ProblemUnknownCategory, r.Problem)
	assert.Equal(t, OrderChoosingCategory, r.Stage)

	_, err = h.orders.SelectCategory(ctx, 11, "Одежда")
	require.NoError(t, err)

	for _, bad := range []string{"abc", "-5", "0", ""} {
		r, err = h.orders.Text(ctx, 11, bad)
		require.NoError(t, err)
		assert.Equal(t, ProblemInvalidPrice, r.Problem, bad)
		assert.Equal(t, OrderEnteringPrice, r.Stage)
	}
	r, err = h.orders.Text(ctx, 11, "99,5")
	require.NoError(t, err)
	assert.Equal(t, OrderEnteringSize, r.Stage)

	_, _ = h.orders.Text(ctx, 11, "42")
	_, _ = h.orders.Text(ctx, 11, "белый")
	r, err = h.orders.Text(ctx, 11, "ftp://shop/item")
	require.NoError(t, err)
	assert.Equal(t, ProblemInvalidLink, r.Problem)
	assert.Equal(t, OrderEnteringLink, r.Stage)

	r, err = h.orders.Confirm(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, ProblemUnexpected, r.Problem)
	assert.Equal(t, OrderEnteringLink, r.Stage)
}

func TestOrderFlowBackToSizeKeepsCategoryAndPrice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, 12)
	_, err := h.orders.Start(ctx, 12)
	require.NoError(t, err)
	_, _ = h.orders.SelectCategory(ctx, 12, "Одежда")
	for _, text := range []string{"100", "s", "red", "https://x.y/1"} {
		_, err = h.orders.Text(ctx, 12, text)
		require.NoError(t, err)
	}
	r, err := h.orders.BackToSize(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, OrderEnteringSize, r.Stage)

	for _, text := range []string{"l", "blue", "https://x.y/2"} {
		_, err = h.orders.Text(ctx, 12, text)
		require.NoError(t, err)
	}
	r, err = h.orders.SelectDelivery(ctx, 12, constants.DeliveryAir)
	require.NoError(t, err)
	require.NotNil(t, r.Quote)
	assert.Equal(t, "l", r.Quote.Items[0].Item.Size)
	assert.Equal(t, "2750", r.Quote.Total.String())
}

func TestOrderFlowMissingFeeDropsItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, 13)
	_, err := h.orders.Start(ctx, 13)
	require.NoError(t, err)

	r := h.addItem(t, 13, "Кошельки", "10", constants.DeliveryAir)
	assert.Equal(t, ProblemFeeMissing, r.Problem)
	assert.Equal(t, OrderIdle, r.Stage)
	assert.Equal(t, OrderIdle, h.orders.Stage(13))

	// with items already in the cart the conversation survives
	_, err = h.orders.Start(ctx, 13)
	require.NoError(t, err)
	r = h.addItem(t, 13, "Одежда", "100", constants.DeliveryAuto)
	require.Equal(t, ProblemNone, r.Problem)
	_, err = h.orders.AddAnother(ctx, 13)
	require.NoError(t, err)
	r = h.addItem(t, 13, "Парфюм", "10", constants.DeliveryAir)
	assert.Equal(t, ProblemFeeMissing, r.Problem)
	assert.Equal(t, OrderReviewingCart, r.Stage)
	require.NotNil(t, r.Quote)
	assert.Len(t, r.Quote.Items, 1)
}

func TestOrderFlowCartBecomesOneBatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, 14)
	_, err := h.orders.Start(ctx, 14)
	require.NoError(t, err)

	h.addItem(t, 14, "Одежда", "100", constants.DeliveryAuto)
	_, err = h.orders.AddAnother(ctx, 14)
	require.NoError(t, err)
	r := h.addItem(t, 14, "Парфюм", "20", constants.DeliveryAuto)
	require.NotNil(t, r.Quote)
	assert.Equal(t, "2700", r.Quote.Total.String())

	_, err = h.orders.Proceed(ctx, 14)
	require.NoError(t, err)
	_, err = h.orders.UsePromo(ctx, 14)
	require.NoError(t, err)
	r, err = h.orders.Text(ctx, 14, "SALE10")
	require.NoError(t, err)
	assert.Equal(t, OrderConfirming, r.Stage)
	assert.Equal(t, "SALE10", r.Promo)

	r, err = h.orders.Confirm(ctx, 14)
	require.NoError(t, err)
	require.Len(t, r.Orders, 2)
	assert.Equal(t, r.Orders[0].BatchID, r.Orders[1].BatchID)
	assert.NotEmpty(t, r.Orders[0].BatchID)
	assert.Equal(t, "A001", r.Orders[0].Code)
	assert.Equal(t, "A002", r.Orders[1].Code)
	// promo is recorded, not applied
	assert.Equal(t, "SALE10", r.Orders[1].PromoCode)
	assert.Equal(t, "2700", r.Quote.Total.String())

	n, err := h.lifecycle.AttachPaymentProof(ctx, 14, "pay_screens/p.jpg")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOrderFlowConfirmRequotesStaleRate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h.orders.now = func() time.Time { return clock }
	h.register(t, 15)
	_, err := h.orders.Start(ctx, 15)
	require.NoError(t, err)
	h.addItem(t, 15, "Одежда", "100", constants.DeliveryAuto)
	_, err = h.orders.Proceed(ctx, 15)
	require.NoError(t, err)

	require.NoError(t, h.store.UpsertExchangeRate(ctx, constants.RateCNYToRUB, decimal.NewFromInt(13)))

	// within the TTL the frozen rate is used
	clock = clock.Add(30 * time.Minute)
	r, err := h.orders.BackToCart(ctx, 15)
	require.NoError(t, err)
	assert.Equal(t, "2050", r.Quote.Total.String())
	_, err = h.orders.Proceed(ctx, 15)
	require.NoError(t, err)

	clock = clock.Add(31 * time.Minute)
	r, err = h.orders.Confirm(ctx, 15)
	require.NoError(t, err)
	assert.Equal(t, ProblemQuoteChanged, r.Problem)
	assert.Equal(t, OrderConfirming, r.Stage)
	require.NotNil(t, r.Quote)
	assert.Equal(t, "2100", r.Quote.Total.String())
	assert.Empty(t, r.Orders)

	r, err = h.orders.Confirm(ctx, 15)
	require.NoError(t, err)
	require.Equal(t, ProblemNone, r.Problem)
	require.Len(t, r.Orders, 1)
	assert.Equal(t, "13", r.Orders[0].Rate.String())
	assert.Equal(t, "2100", r.Orders[0].TotalPrice.String())
}

func TestOrderFlowCancelAndRemove(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, 16)
	_, err := h.orders.Start(ctx, 16)
	require.NoError(t, err)
	h.addItem(t, 16, "Одежда", "100", constants.DeliveryAuto)

	r, err := h.orders.RemoveLastItem(ctx, 16)
	require.NoError(t, err)
	assert.Equal(t, OrderChoosingCategory, r.Stage)

	r, err = h.orders.Cancel(ctx, 16)
	require.NoError(t, err)
	assert.True(t, r.Cancelled)
	assert.Equal(t, OrderIdle, h.orders.Stage(16))

	r, err = h.orders.Text(ctx, 16, "100")
	require.NoError(t, err)
	assert.Equal(t, ProblemUnexpected, r.Problem)
}

func TestSubmitProofOutsideCheckoutIsRejected(t *testing.T) {
	h := newHarness(t)
	h.register(t, 17)
	r, err := h.orders.SubmitProof(context.Background(), 17, "p.jpg", []byte{1})
	require.NoError(t, err)
	assert.Equal(t, ProblemUnexpected, r.Problem)
	assert.Empty(t, h.proofs.saved)
}
