package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/domain/repository"
)

const trackingDateLayout = "02.01.2006"

// ConsoleReply result of a console step.
type ConsoleReply struct {
	Stage    ConsoleStage
	Problem  Problem
	Order    *entity.Order
	Orders   []entity.Order
	User     *entity.User
	Previous entity.OrderStatus
	Changed  bool
}

// Console admin va manager operatsiyalari
type Console struct {
	convs     *ConversationStore
	users     repository.UserRepository
	orders    repository.OrderRepository
	pricing   *PricingService
	lifecycle *LifecycleManager
	importer  *PriceImporter
	reporter  *Reporter
	admins    map[int64]struct{}
	managerID int64
}

type ConsoleDeps struct {
	Convs     *ConversationStore
	Users     repository.UserRepository
	Orders    repository.OrderRepository
	Pricing   *PricingService
	Lifecycle *LifecycleManager
	Importer  *PriceImporter
	Reporter  *Reporter
	AdminIDs  []int64
	ManagerID int64
}

func NewConsole(d ConsoleDeps) *Console {
	admins := make(map[int64]struct{}, len(d.AdminIDs))
	for _, id := range d.AdminIDs {
		admins[id] = struct{}{}
	}
	return &Console{
		convs:     d.Convs,
		users:     d.Users,
		orders:    d.Orders,
		pricing:   d.Pricing,
		lifecycle: d.Lifecycle,
		importer:  d.Importer,
		reporter:  d.Reporter,
		admins:    admins,
		managerID: d.ManagerID,
	}
}

func (c *Console) IsAdmin(userID int64) bool {
	_, ok := c.admins[userID]
	return ok
}

func (c *Console) IsManager(userID int64) bool {
	return c.managerID != 0 && userID == c.managerID
}

// IsStaff admins can use the manager console too.
func (c *Console) IsStaff(userID int64) bool {
	return c.IsAdmin(userID) || c.IsManager(userID)
}

func (c *Console) ManagerID() int64 {
	return c.managerID
}

// OrdersByStatus status accepts a key or russian label.
func (c *Console) OrdersByStatus(ctx context.Context, status string) ([]entity.Order, error) {
	st, ok := entity.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	orders, err := c.orders.ListOrdersByStatus(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (c *Console) AllOrders(ctx context.Context) ([]entity.Order, error) {
	orders, err := c.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ActiveOrders across all users.
func (c *Console) ActiveOrders(ctx context.Context) ([]entity.Order, error) {
	all, err := c.AllOrders(ctx)
	if err != nil {
		return nil, err
	}
	return filterActive(all), nil
}

// ActiveOrdersByUserCode looks the user up by short code.
func (c *Console) ActiveOrdersByUserCode(ctx context.Context, code string) (*entity.User, []entity.Order, error) {
	user, err := c.users.GetUserByCode(ctx, normalizeCode(code))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrNotRegistered
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	orders, err := c.orders.ListOrdersByUser(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list orders: %w", err)
	}
	return user, filterActive(orders), nil
}

func (c *Console) ActiveOrdersByTelegramID(ctx context.Context, telegramID int64) (*entity.User, []entity.Order, error) {
	user, err := c.users.GetUserByTelegramID(ctx, telegramID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrNotRegistered
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	orders, err := c.lifecycle.ActiveOrders(ctx, telegramID)
	if err != nil {
		return nil, nil, err
	}
	return user, orders, nil
}

// CurrentRate for /rate.
func (c *Console) CurrentRate(ctx context.Context) (decimal.Decimal, error) {
	return c.pricing.Rate(ctx, constants.RateCNYToRUB)
}

func (c *Console) DeliveryPrices(ctx context.Context) ([]entity.DeliveryPrice, error) {
	return c.pricing.prices.ListDeliveryPrices(ctx)
}

func (c *Console) ImportPriceList(ctx context.Context, r io.Reader) (ImportResult, error) {
	return c.importer.Import(ctx, r)
}

func (c *Console) ExportReport(ctx context.Context) (string, error) {
	return c.reporter.Export(ctx)
}

func (c *Console) await(userID int64, stage ConsoleStage, orderCode string) ConsoleReply {
	_ = c.convs.With(userID, func(conv *Conversation) error {
		*conv = Conversation{UserID: userID, Active: FlowConsole}
		conv.Console = ConsoleState{Stage: stage, OrderCode: orderCode}
		return nil
	})
	return ConsoleReply{Stage: stage}
}

func (c *Console) AwaitOrderCode(userID int64) ConsoleReply {
	return c.await(userID, ConsoleAwaitingOrderCode, "")
}

func (c *Console) AwaitUserCode(userID int64) ConsoleReply {
	return c.await(userID, ConsoleAwaitingUserCode, "")
}

func (c *Console) AwaitTelegramID(userID int64) ConsoleReply {
	return c.await(userID, ConsoleAwaitingTelegramID, "")
}

func (c *Console) AwaitTracking(userID int64) ConsoleReply {
	return c.await(userID, ConsoleAwaitingTracking, "")
}

func (c *Console) Stage(userID int64) ConsoleStage {
	conv, _ := c.convs.Snapshot(userID)
	if conv.Active != FlowConsole {
		return ConsoleIdle
	}
	return conv.Console.Stage
}

func finishConsole(conv *Conversation) {
	conv.Console = ConsoleState{}
	conv.Active = FlowNone
}

// SelectOrder picks an order and asks for the new status.
func (c *Console) SelectOrder(ctx context.Context, userID int64, code string) (ConsoleReply, error) {
	order, err := c.lifecycle.Order(ctx, code)
	if errors.Is(err, ErrOrderNotFound) {
		return ConsoleReply{Stage: c.Stage(userID), Problem: ProblemOrderNotFound}, nil
	}
	if err != nil {
		return ConsoleReply{}, err
	}
	reply := c.await(userID, ConsoleChoosingStatus, order.Code)
	reply.Order = order
	return reply, nil
}

// SelectStatus applies the status to the selected order and ends the step.
func (c *Console) SelectStatus(ctx context.Context, userID int64, status string) (ConsoleReply, error) {
	var reply ConsoleReply
	err := c.convs.With(userID, func(conv *Conversation) error {
		if conv.Active != FlowConsole || conv.Console.Stage != ConsoleChoosingStatus || conv.Console.OrderCode == "" {
			reply.Problem = ProblemUnexpected
			reply.Stage = ConsoleIdle
			return nil
		}
		code := conv.Console.OrderCode
		r, err := c.ChangeStatus(ctx, code, status)
		if err != nil {
			return err
		}
		reply = r
		if reply.Problem != ProblemUnknownStatus {
			finishConsole(conv)
		}
		reply.Stage = conv.Console.Stage
		return nil
	})
	return reply, err
}

// ChangeStatus one-shot status change (callbacks carry the code).
func (c *Console) ChangeStatus(ctx context.Context, code, status string) (ConsoleReply, error) {
	var reply ConsoleReply
	before, err := c.lifecycle.Order(ctx, code)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			reply.Problem = ProblemOrderNotFound
			return reply, nil
		}
		return reply, err
	}
	reply.Previous = before.Status
	order, err := c.lifecycle.UpdateStatus(ctx, code, status)
	switch {
	case err == nil:
		reply.Order = order
		reply.Changed = order.Status != before.Status
	case errors.Is(err, ErrUnknownStatus):
		reply.Problem = ProblemUnknownStatus
	case errors.Is(err, ErrOrderNotFound):
		reply.Problem = ProblemOrderNotFound
	case errors.Is(err, ErrIllegalTransition):
		reply.Problem = ProblemIllegalTransition
		reply.Order = before
	case errors.Is(err, repository.ErrStatusConflict):
		reply.Problem = ProblemStatusConflict
	default:
		return reply, err
	}
	return reply, nil
}

// Text answers for the awaiting console prompt.
func (c *Console) Text(ctx context.Context, userID int64, text string) (ConsoleReply, error) {
	text = strings.TrimSpace(text)
	conv, _ := c.convs.Snapshot(userID)
	if conv.Active != FlowConsole {
		return ConsoleReply{Problem: ProblemUnexpected}, nil
	}
	switch conv.Console.Stage {
	case ConsoleAwaitingOrderCode:
		if !entity.IsValidCode(normalizeCode(text)) {
			return ConsoleReply{Stage: conv.Console.Stage, Problem: ProblemOrderNotFound}, nil
		}
		return c.SelectOrder(ctx, userID, text)

	case ConsoleAwaitingUserCode:
		user, orders, err := c.ActiveOrdersByUserCode(ctx, text)
		if errors.Is(err, ErrNotRegistered) {
			return ConsoleReply{Stage: conv.Console.Stage, Problem: ProblemUserNotFound}, nil
		}
		if err != nil {
			return ConsoleReply{}, err
		}
		c.finish(userID)
		return ConsoleReply{Stage: ConsoleIdle, User: user, Orders: orders}, nil

	case ConsoleAwaitingTelegramID:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil || id <= 0 {
			return ConsoleReply{Stage: conv.Console.Stage, Problem: ProblemInvalidTelegramID}, nil
		}
		user, orders, err := c.ActiveOrdersByTelegramID(ctx, id)
		if errors.Is(err, ErrNotRegistered) {
			return ConsoleReply{Stage: conv.Console.Stage, Problem: ProblemUserNotFound}, nil
		}
		if err != nil {
			return ConsoleReply{}, err
		}
		c.finish(userID)
		return ConsoleReply{Stage: ConsoleIdle, User: user, Orders: orders}, nil

	case ConsoleAwaitingTracking:
		code, number, eta, ok := ParseTrackingInput(text)
		if !ok {
			return ConsoleReply{Stage: conv.Console.Stage, Problem: ProblemInvalidTracking}, nil
		}
		order, err := c.lifecycle.SetTracking(ctx, code, number, eta)
		if errors.Is(err, ErrOrderNotFound) {
			return ConsoleReply{Stage: conv.Console.Stage, Problem: ProblemOrderNotFound}, nil
		}
		if err != nil {
			return ConsoleReply{}, err
		}
		c.finish(userID)
		return ConsoleReply{Stage: ConsoleIdle, Order: order}, nil
	}
	return ConsoleReply{Stage: conv.Console.Stage, Problem: ProblemUnexpected}, nil
}

func (c *Console) finish(userID int64) {
	_ = c.convs.With(userID, func(conv *Conversation) error {
		finishConsole(conv)
		return nil
	})
}

func (c *Console) Cancel(userID int64) {
	c.finish(userID)
}

// ParseTrackingInput "A001 TRACK123 [25.12.2026]".
func ParseTrackingInput(text string) (code, number string, eta *time.Time, ok bool) {
	parts := strings.Fields(text)
	if len(parts) < 2 || len(parts) > 3 {
		return "", "", nil, false
	}
	code = normalizeCode(parts[0])
	if !entity.IsValidCode(code) {
		return "", "", nil, false
	}
	number = parts[1]
	if len(parts) == 3 {
		t, err := time.ParseInLocation(trackingDateLayout, parts[2], time.Local)
		if err != nil {
			return "", "", nil, false
		}
		eta = &t
	}
	return code, number, eta, true
}
