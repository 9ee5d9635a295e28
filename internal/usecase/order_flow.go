package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/domain/repository"
	"github.com/yourusername/poizon-order-bot/internal/metric"
)

// ProofStore saves payment screenshots and returns a local path.
type ProofStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// OrderReply result of one order-flow event; the delivery layer renders it.
type OrderReply struct {
	Stage             OrderStage
	Problem           Problem
	NeedsRegistration bool
	Cancelled         bool
	Category          string
	Quote             *Quote
	User              *entity.User
	Payment           *entity.PaymentDetails
	Orders            []entity.Order
	Promo             string
	ProofPath         string
	ProofAttached     int
}

// OrderFlow savat yig'ish va buyurtma berish state machine
type OrderFlow struct {
	convs      *ConversationStore
	users      repository.UserRepository
	orders     repository.OrderRepository
	payments   repository.PaymentRepository
	pricing    *PricingService
	lifecycle  *LifecycleManager
	proofs     ProofStore
	rateTTL    time.Duration
	newBatchID func() string
	now        func() time.Time
}

func NewOrderFlow(
	convs *ConversationStore,
	users repository.UserRepository,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	pricing *PricingService,
	lifecycle *LifecycleManager,
	proofs ProofStore,
	rateTTL time.Duration,
) *OrderFlow {
	if rateTTL <= 0 {
		rateTTL = constants.DefaultRateQuoteTTL
	}
	return &OrderFlow{
		convs:      convs,
		users:      users,
		orders:     orders,
		payments:   payments,
		pricing:    pricing,
		lifecycle:  lifecycle,
		proofs:     proofs,
		rateTTL:    rateTTL,
		newBatchID: func() string { return uuid.NewString() },
		now:        time.Now,
	}
}

func resetOrder(c *Conversation) {
	c.Order = OrderState{}
	if c.Active == FlowOrder {
		c.Active = FlowNone
	}
}

// step runs fn when the conversation is in one of the allowed order stages.
func (f *OrderFlow) step(userID int64, allowed []OrderStage, fn func(c *Conversation, r *OrderReply) error) (OrderReply, error) {
	var reply OrderReply
	err := f.convs.With(userID, func(c *Conversation) error {
		ok := c.Active == FlowOrder
		if ok {
			ok = false
			for _, st := range allowed {
				if c.Order.Stage == st {
					ok = true
					break
				}
			}
		}
		if !ok {
			reply.Problem = ProblemUnexpected
		} else if err := fn(c, &reply); err != nil {
			return err
		}
		reply.Stage = c.Order.Stage
		if c.Active != FlowOrder {
			reply.Stage = OrderIdle
		}
		return nil
	})
	return reply, err
}

// Start begins a new cart. Unregistered users are not let in.
func (f *OrderFlow) Start(ctx context.Context, userID int64) (OrderReply, error) {
	user, err := f.users.GetUserByTelegramID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return OrderReply{Stage: OrderIdle, NeedsRegistration: true}, nil
	}
	if err != nil {
		return OrderReply{}, fmt.Errorf("order start: %w", err)
	}
	err = f.convs.With(userID, func(c *Conversation) error {
		*c = Conversation{UserID: userID, Active: FlowOrder}
		c.Order.Stage = OrderChoosingCategory
		return nil
	})
	if err != nil {
		return OrderReply{}, err
	}
	return OrderReply{Stage: OrderChoosingCategory, User: user}, nil
}

// Stage current order stage (Idle when another flow is active).
func (f *OrderFlow) Stage(userID int64) OrderStage {
	c, _ := f.convs.Snapshot(userID)
	if c.Active != FlowOrder {
		return OrderIdle
	}
	return c.Order.Stage
}

func (f *OrderFlow) SelectCategory(ctx context.Context, userID int64, category string) (OrderReply, error) {
	return f.step(userID, []OrderStage{OrderChoosingCategory}, func(c *Conversation, r *OrderReply) error {
		if !constants.IsCategory(category) {
			r.Problem = ProblemUnknownCategory
			return nil
		}
		c.Order.Pending = entity.LineItem{Category: category}
		c.Order.Stage = OrderEnteringPrice
		r.Category = category
		return nil
	})
}

// Text free-text reply for the current stage.
func (f *OrderFlow) Text(ctx context.Context, userID int64, text string) (OrderReply, error) {
	return f.step(userID, []OrderStage{
		OrderEnteringPrice, OrderEnteringSize, OrderEnteringColor, OrderEnteringLink,
		OrderEnteringPromo, OrderAwaitingPaymentProof,
	}, func(c *Conversation, r *OrderReply) error {
		switch c.Order.Stage {
		case OrderEnteringPrice:
			price, ok := ParsePrice(text)
			if !ok {
				r.Problem = ProblemInvalidPrice
				return nil
			}
			c.Order.Pending.Price = price
			c.Order.Stage = OrderEnteringSize
		case OrderEnteringSize:
			size, ok := NormalizeFreeText(text)
			if !ok {
				r.Problem = ProblemEmptyText
				return nil
			}
			c.Order.Pending.Size = size
			c.Order.Stage = OrderEnteringColor
		case OrderEnteringColor:
			color, ok := NormalizeFreeText(text)
			if !ok {
				r.Problem = ProblemEmptyText
				return nil
			}
			c.Order.Pending.Color = color
			c.Order.Stage = OrderEnteringLink
		case OrderEnteringLink:
			if !ValidateLink(text) {
				r.Problem = ProblemInvalidLink
				return nil
			}
			c.Order.Pending.Link = strings.TrimSpace(text)
			c.Order.Stage = OrderChoosingDelivery
		case OrderEnteringPromo:
			promo := strings.TrimSpace(text)
			if promo == "" {
				r.Problem = ProblemEmptyText
				return nil
			}
			c.Order.Promo = promo
			c.Order.Stage = OrderConfirming
			r.Promo = promo
			return f.fillConfirmation(ctx, c, r)
		case OrderAwaitingPaymentProof:
			r.Problem = ProblemExpectedPhoto
		}
		return nil
	})
}

// quote prices items at the conversation's frozen rate, freezing it on first use.
func (f *OrderFlow) quote(ctx context.Context, c *Conversation, items []entity.LineItem) (Quote, error) {
	if !c.Order.Rate.IsPositive() {
		rate, err := f.pricing.Rate(ctx, constants.RateCNYToRUB)
		if err != nil {
			return Quote{}, err
		}
		c.Order.Rate = rate
		c.Order.RateAt = f.now()
	}
	return f.pricing.QuoteAt(ctx, items, constants.RateCNYToRUB, c.Order.Rate)
}

// pricingProblem maps missing references to problems; other errors stay errors.
func pricingProblem(err error) (Problem, bool) {
	switch {
	case errors.Is(err, ErrFeeNotFound):
		return ProblemFeeMissing, true
	case errors.Is(err, ErrRateNotFound), errors.Is(err, ErrRateUnavailable):
		return ProblemRateMissing, true
	}
	return ProblemNone, false
}

// SelectDelivery completes the pending item and shows the cart.
// A missing fee or rate drops the item; an empty cart then ends the conversation.
func (f *OrderFlow) SelectDelivery(ctx context.Context, userID int64, method string) (OrderReply, error) {
	return f.step(userID, []OrderStage{OrderChoosingDelivery}, func(c *Conversation, r *OrderReply) error {
		if !constants.IsDeliveryMethod(method) {
			r.Problem = ProblemUnknownDelivery
			return nil
		}
		pending := c.Order.Pending
		pending.DeliveryMethod = method
		items := append(append([]entity.LineItem(nil), c.Order.Cart...), pending)

		q, err := f.quote(ctx, c, items)
		if err != nil {
			problem, ok := pricingProblem(err)
			if !ok {
				return err
			}
			r.Problem = problem
			c.Order.Pending = entity.LineItem{}
			if len(c.Order.Cart) == 0 {
				resetOrder(c)
				return nil
			}
			c.Order.Stage = OrderReviewingCart
			if prev, prevErr := f.quote(ctx, c, c.Order.Cart); prevErr == nil {
				r.Quote = &prev
			}
			return nil
		}

		c.Order.Cart = items
		c.Order.Pending = entity.LineItem{}
		c.Order.Stage = OrderReviewingCart
		r.Quote = &q
		return f.fillUser(ctx, c, r)
	})
}

func (f *OrderFlow) fillUser(ctx context.Context, c *Conversation, r *OrderReply) error {
	user, err := f.users.GetUserByTelegramID(ctx, c.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("load user: %w", err)
	}
	r.User = user
	return nil
}

// BackToSize from delivery choice back to the size prompt; category and price are kept.
func (f *OrderFlow) BackToSize(ctx context.Context, userID int64) (OrderReply, error) {
	return f.step(userID, []OrderStage{OrderChoosingDelivery}, func(c *Conversation, r *OrderReply) error {
		c.Order.Stage = OrderEnteringSize
		return nil
	})
}

// AddAnother loops back to category selection.
func (f *OrderFlow) AddAnother(ctx context.Context, userID int64) (OrderReply, error) {
	return f.step(userID, []OrderStage{OrderReviewingCart, OrderConfirming}, func(c *Conversation, r *OrderReply) error {
		c.Order.Pending = entity.LineItem{}
		c.Order.Stage = OrderChoosingCategory
		return nil
	})
}

// RemoveLastItem drops the most recently added item.
func (f *OrderFlow) RemoveLastItem(ctx context.Context, userID int64) (OrderReply, error) {
	return f.step(userID, []OrderStage{OrderReviewingCart}, func(c *Conversation, r *OrderReply) error {
		if len(c.Order.Cart) == 0 {
			r.Problem = ProblemEmptyCart
			c.Order.Stage = OrderChoosingCategory
			return nil
		}
		c.Order.Cart = c.Order.Cart[:len(c.Order.Cart)-1]
		if len(c.Order.Cart) == 0 {
			c.Order.Stage = OrderChoosingCategory
			return nil
		}
		q, err := f.quote(ctx, c, c.Order.Cart)
		if err != nil {
			if problem, ok := pricingProblem(err); ok {
				r.Problem = problem
				return nil
			}
			return err
		}
		r.Quote = &q
		return f.fillUser(ctx, c, r)
	})
}

// BackToCart from confirmation back to the cart view.
func (f *OrderFlow) BackToCart(ctx context.Context, userID int64) (OrderReply, error) {
	return f.step(userID, []OrderStage{OrderConfirming, OrderEnteringPromo}, func(c *Conversation, r *OrderReply) error {
		c.Order.Stage = OrderReviewingCart
		q, err := f.quote(ctx, c, c.Order.Cart)
		if err != nil {
			if problem, ok := pricingProblem(err); ok {
				r.Problem = problem
				return nil
			}
			return err
		}
		r.Quote = &q
		return f.fillUser(ctx, c, r)
	})
}

// Proceed renders the full cart with payment details for confirmation.
func (f *OrderFlow) Proceed(ctx context.Context, userID int64) (OrderReply, error) {
	return f.step(userID, []OrderStage{OrderReviewingCart}, func(c *Conversation, r *OrderReply) error {
		if len(c.Order.Cart) == 0 {
			r.Problem = ProblemEmptyCart
			return nil
		}
		c.Order.Stage = OrderConfirming
		return f.fillConfirmation(ctx, c, r)
	})
}

func (f *OrderFlow) fillConfirmation(ctx context.Context, c *Conversation, r *OrderReply) error {
	q, err := f.quote(ctx, c, c.Order.Cart)
	if err != nil {
		if problem, ok := pricingProblem(err); ok {
			r.Problem = problem
			c.Order.Stage = OrderReviewingCart
			return nil
		}
		return err
	}
	r.Quote = &q
	r.Promo = c.Order.Promo
	payment, err := f.payments.GetPaymentDetails(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("payment details: %w", err)
	}
	r.Payment = payment
	return f.fillUser(ctx, c, r)
}

// UsePromo asks for a promo code (recorded on the orders, no discount).
func (f *OrderFlow) UsePromo(ctx context.Context, userID int64) (OrderReply, error) {
	return f.step(userID, []OrderStage{OrderConfirming}, func(c *Conversation, r *OrderReply) error {
		c.Order.Stage = OrderEnteringPromo
		return nil
	})
}

// Confirm persists the cart as one batch of Created orders and waits for the
// payment screenshot. A quote older than the TTL is re-priced first; if the
// rate moved the user has to confirm the new total.
func (f *OrderFlow) Confirm(ctx context.Context, userID int64) (OrderReply, error) {
	return f.step(userID, []OrderStage{OrderConfirming}, func(c *Conversation, r *OrderReply) error {
		if len(c.Order.Cart) == 0 {
			r.Problem = ProblemEmptyCart
			return nil
		}
		if c.Order.Rate.IsPositive() && f.now().Sub(c.Order.RateAt) > f.rateTTL {
			fresh, err := f.pricing.Rate(ctx, constants.RateCNYToRUB)
			if err != nil {
				if problem, ok := pricingProblem(err); ok {
					r.Problem = problem
					return nil
				}
				return err
			}
			changed := !fresh.Equal(c.Order.Rate)
			c.Order.Rate = fresh
			c.Order.RateAt = f.now()
			if changed {
				r.Problem = ProblemQuoteChanged
				return f.fillConfirmation(ctx, c, r)
			}
		}

		q, err := f.quote(ctx, c, c.Order.Cart)
		if err != nil {
			if problem, ok := pricingProblem(err); ok {
				r.Problem = problem
				return nil
			}
			return err
		}
		user, err := f.users.GetUserByTelegramID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				resetOrder(c)
				r.NeedsRegistration = true
				return nil
			}
			return fmt.Errorf("load user: %w", err)
		}

		batchID := f.newBatchID()
		pending := make([]entity.Order, 0, len(q.Items))
		for _, line := range q.Items {
			pending = append(pending, entity.Order{
				BatchID:        batchID,
				UserID:         user.ID,
				Category:       line.Item.Category,
				Size:           line.Item.Size,
				Color:          line.Item.Color,
				Link:           line.Item.Link,
				Price:          line.Item.Price,
				Rate:           q.Rate,
				DeliveryMethod: line.Item.DeliveryMethod,
				DeliveryFee:    line.Fee,
				TotalPrice:     line.Total,
				PromoCode:      c.Order.Promo,
				Status:         entity.StatusCreated,
			})
		}
		created, err := f.orders.CreateOrderBatch(ctx, pending)
		if err != nil {
			return fmt.Errorf("create orders: %w", err)
		}
		metric.OrdersCreatedTotal.Add(float64(len(created)))

		c.Order.Cart = nil
		c.Order.BatchID = batchID
		c.Order.Stage = OrderAwaitingPaymentProof
		r.Quote = &q
		r.Orders = created
		r.User = user
		r.Promo = c.Order.Promo
		return nil
	})
}

// SubmitProof stores the screenshot and attaches it to the user's latest active order batch.
func (f *OrderFlow) SubmitProof(ctx context.Context, userID int64, name string, data []byte) (OrderReply, error) {
	return f.step(userID, []OrderStage{OrderAwaitingPaymentProof}, func(c *Conversation, r *OrderReply) error {
		if len(data) == 0 {
			r.Problem = ProblemExpectedPhoto
			return nil
		}
		path, err := f.proofs.Save(ctx, name, data)
		if err != nil {
			return fmt.Errorf("save proof: %w", err)
		}
		n, err := f.lifecycle.AttachPaymentProof(ctx, userID, path)
		if err != nil {
			if errors.Is(err, ErrNoActiveOrder) || errors.Is(err, ErrNotRegistered) {
				r.Problem = ProblemNoActiveOrder
				resetOrder(c)
				return nil
			}
			return err
		}
		r.ProofPath = path
		r.ProofAttached = n
		if err := f.fillUser(ctx, c, r); err != nil {
			return err
		}
		resetOrder(c)
		return nil
	})
}

// Cancel drops the cart from any stage.
func (f *OrderFlow) Cancel(ctx context.Context, userID int64) (OrderReply, error) {
	err := f.convs.With(userID, func(c *Conversation) error {
		resetOrder(c)
		return nil
	})
	return OrderReply{Stage: OrderIdle, Cancelled: true}, err
}
