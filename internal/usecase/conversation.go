package usecase

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
)

// Flow which conversation owns free-text input right now.
type Flow int

const (
	FlowNone Flow = iota
	FlowOrder
	FlowRegistration
	FlowCalculator
	FlowConsole
	FlowSupport
)

// OrderStage cart/order state machine stages
type OrderStage int

const (
	OrderIdle OrderStage = iota
	OrderChoosingCategory
	OrderEnteringPrice
	OrderEnteringSize
	OrderEnteringColor
	OrderEnteringLink
	OrderChoosingDelivery
	OrderReviewingCart
	OrderConfirming
	OrderEnteringPromo
	OrderAwaitingPaymentProof
)

// OrderState accumulated cart plus the item being entered.
type OrderState struct {
	Stage   OrderStage
	Pending entity.LineItem
	Cart    []entity.LineItem
	Promo   string
	// rate frozen at first quote
	Rate    decimal.Decimal
	RateAt  time.Time
	BatchID string
}

type RegistrationStage int

const (
	RegistrationIdle RegistrationStage = iota
	RegistrationEnteringName
	RegistrationEnteringPhone
	RegistrationEnteringAddress
)

type RegistrationState struct {
	Stage    RegistrationStage
	FullName string
	Phone    string
	Username string
	Existing bool
	// ResumeOrder restart the order flow once the profile is saved
	ResumeOrder bool
}

type CalcStage int

const (
	CalcIdle CalcStage = iota
	CalcChoosingType
	CalcChoosingCategory
	CalcEnteringPrice
	CalcChoosingDelivery
)

type CalcState struct {
	Stage    CalcStage
	Category string
	Price    decimal.Decimal
}

type ConsoleStage int

const (
	ConsoleIdle ConsoleStage = iota
	ConsoleAwaitingOrderCode
	ConsoleAwaitingUserCode
	ConsoleAwaitingTelegramID
	ConsoleAwaitingTracking
	ConsoleChoosingStatus
)

type ConsoleState struct {
	Stage     ConsoleStage
	OrderCode string
}

type SupportState struct {
	AwaitingQuestion bool
}

// Conversation per-user suhbat holati, har bir flow uchun alohida typed maydon
type Conversation struct {
	UserID       int64
	Active       Flow
	Order        OrderState
	Registration RegistrationState
	Calc         CalcState
	Console      ConsoleState
	Support      SupportState
	UpdatedAt    time.Time
}

// clone copies slices so snapshots do not alias stored state.
func (c Conversation) clone() Conversation {
	out := c
	if c.Order.Cart != nil {
		out.Order.Cart = append([]entity.LineItem(nil), c.Order.Cart...)
	}
	return out
}

type conversationEntry struct {
	mu      sync.Mutex
	conv    Conversation
	removed bool
}

// ConversationStore holds one Conversation per user. Work on the same user is
// serialized, different users proceed in parallel.
type ConversationStore struct {
	mu    sync.Mutex
	items map[int64]*conversationEntry
	now   func() time.Time
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		items: make(map[int64]*conversationEntry),
		now:   time.Now,
	}
}

func (s *ConversationStore) entry(userID int64) *conversationEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[userID]
	if !ok {
		e = &conversationEntry{conv: Conversation{UserID: userID, UpdatedAt: s.now()}}
		s.items[userID] = e
	}
	return e
}

// With runs fn with exclusive access to the user's conversation.
func (s *ConversationStore) With(userID int64, fn func(c *Conversation) error) error {
	for {
		e := s.entry(userID)
		e.mu.Lock()
		if e.removed {
			e.mu.Unlock()
			continue
		}
		err := fn(&e.conv)
		e.conv.UserID = userID
		e.conv.UpdatedAt = s.now()
		e.mu.Unlock()
		return err
	}
}

// Snapshot copy of the current conversation.
func (s *ConversationStore) Snapshot(userID int64) (Conversation, bool) {
	s.mu.Lock()
	e, ok := s.items[userID]
	s.mu.Unlock()
	if !ok {
		return Conversation{UserID: userID}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conv.clone(), !e.removed
}

// Reset drops all flow state of the user.
func (s *ConversationStore) Reset(userID int64) {
	_ = s.With(userID, func(c *Conversation) error {
		*c = Conversation{UserID: userID}
		return nil
	})
}

// Expire removes conversations idle longer than maxIdle. Busy entries are skipped.
func (s *ConversationStore) Expire(maxIdle time.Duration) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, e := range s.items {
		if !e.mu.TryLock() {
			continue
		}
		if now.Sub(e.conv.UpdatedAt) > maxIdle {
			e.removed = true
			delete(s.items, userID)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// Len active conversations.
func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
