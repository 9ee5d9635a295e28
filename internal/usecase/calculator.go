package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/domain/repository"
)

// CalcReply narx kalkulyatori javobi
type CalcReply struct {
	Stage             CalcStage
	Problem           Problem
	Category          string
	Quote             *Quote
	Wholesale         bool
	NeedsRegistration bool
	User              *entity.User
}

// Calculator one-off price estimate, nothing is persisted.
type Calculator struct {
	convs   *ConversationStore
	users   repository.UserRepository
	pricing *PricingService
}

func NewCalculator(convs *ConversationStore, users repository.UserRepository, pricing *PricingService) *Calculator {
	return &Calculator{convs: convs, users: users, pricing: pricing}
}

func (k *Calculator) Start(userID int64) (CalcReply, error) {
	err := k.convs.With(userID, func(c *Conversation) error {
		*c = Conversation{UserID: userID, Active: FlowCalculator}
		c.Calc.Stage = CalcChoosingType
		return nil
	})
	return CalcReply{Stage: CalcChoosingType}, err
}

func (k *Calculator) Stage(userID int64) CalcStage {
	c, _ := k.convs.Snapshot(userID)
	if c.Active != FlowCalculator {
		return CalcIdle
	}
	return c.Calc.Stage
}

func (k *Calculator) step(userID int64, want CalcStage, fn func(c *Conversation, r *CalcReply) error) (CalcReply, error) {
	var reply CalcReply
	err := k.convs.With(userID, func(c *Conversation) error {
		if c.Active != FlowCalculator || c.Calc.Stage != want {
			reply.Problem = ProblemUnexpected
		} else if err := fn(c, &reply); err != nil {
			return err
		}
		reply.Stage = c.Calc.Stage
		if c.Active != FlowCalculator {
			reply.Stage = CalcIdle
		}
		return nil
	})
	return reply, err
}

func finishCalc(c *Conversation) {
	c.Calc = CalcState{}
	c.Active = FlowNone
}

// ChooseRetail asks for the category.
func (k *Calculator) ChooseRetail(userID int64) (CalcReply, error) {
	return k.step(userID, CalcChoosingType, func(c *Conversation, r *CalcReply) error {
		c.Calc.Stage = CalcChoosingCategory
		return nil
	})
}

// ChooseWholesale wholesale orders go to the manager; unregistered users are sent to registration.
func (k *Calculator) ChooseWholesale(ctx context.Context, userID int64) (CalcReply, error) {
	return k.step(userID, CalcChoosingType, func(c *Conversation, r *CalcReply) error {
		user, err := k.users.GetUserByTelegramID(ctx, userID)
		finishCalc(c)
		if errors.Is(err, repository.ErrNotFound) {
			r.NeedsRegistration = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		r.Wholesale = true
		r.User = user
		return nil
	})
}

func (k *Calculator) SelectCategory(userID int64, category string) (CalcReply, error) {
	return k.step(userID, CalcChoosingCategory, func(c *Conversation, r *CalcReply) error {
		if !constants.IsCategory(category) {
			r.Problem = ProblemUnknownCategory
			return nil
		}
		c.Calc.Category = category
		c.Calc.Stage = CalcEnteringPrice
		r.Category = category
		return nil
	})
}

func (k *Calculator) Text(userID int64, text string) (CalcReply, error) {
	return k.step(userID, CalcEnteringPrice, func(c *Conversation, r *CalcReply) error {
		price, ok := ParsePrice(text)
		if !ok {
			r.Problem = ProblemInvalidPrice
			return nil
		}
		c.Calc.Price = price
		c.Calc.Stage = CalcChoosingDelivery
		r.Category = c.Calc.Category
		return nil
	})
}

// SelectDelivery prints the estimate and ends the calculator.
func (k *Calculator) SelectDelivery(ctx context.Context, userID int64, method string) (CalcReply, error) {
	return k.step(userID, CalcChoosingDelivery, func(c *Conversation, r *CalcReply) error {
		if !constants.IsDeliveryMethod(method) {
			r.Problem = ProblemUnknownDelivery
			return nil
		}
		item := entity.LineItem{Category: c.Calc.Category, Price: c.Calc.Price, DeliveryMethod: method}
		finishCalc(c)
		q, err := k.pricing.Quote(ctx, []entity.LineItem{item}, constants.RateCNYToRUB)
		if err != nil {
			if problem, ok := pricingProblem(err); ok {
				r.Problem = problem
				return nil
			}
			return err
		}
		r.Quote = &q
		return nil
	})
}
