package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/domain/repository"
)

type priceKey struct {
	category string
	method   string
}

// MemoryStore fallback store (server ish davomida). Tests use it as a fake.
type MemoryStore struct {
	mu sync.RWMutex

	users      map[int64]*entity.User // by internal id
	byTelegram map[int64]int64
	userCodes  map[string]int64
	nextUserID int64

	orders      []*entity.Order
	orderCodes  map[string]*entity.Order
	nextOrderID int64

	counters map[string]int

	rates    map[string]decimal.Decimal
	prices   map[priceKey]decimal.Decimal
	payment  *entity.PaymentDetails
	clock    func() time.Time
}

// NewMemoryStore in-memory store yaratish
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[int64]*entity.User),
		byTelegram: make(map[int64]int64),
		userCodes:  make(map[string]int64),
		orderCodes: make(map[string]*entity.Order),
		counters:   make(map[string]int),
		rates:      make(map[string]decimal.Decimal),
		prices:     make(map[priceKey]decimal.Decimal),
		clock:      time.Now,
	}
}

var _ repository.Store = (*MemoryStore)(nil)

func (m *MemoryStore) Close() error { return nil }

// claimCodeLocked mirrors the SQL counter row: start at the counter, skip taken codes.
func (m *MemoryStore) claimCodeLocked(namespace string, taken func(string) bool) (string, error) {
	code, err := entity.NextFreeCode(m.counters[namespace], taken)
	if err != nil {
		return "", err
	}
	idx, _ := entity.CodeIndex(code)
	m.counters[namespace] = (idx + 1) % entity.CodeSpace
	return code, nil
}

func (m *MemoryStore) phoneTakenLocked(phone string, exceptID int64) bool {
	for id, u := range m.users {
		if id != exceptID && u.Phone == phone {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateUser(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byTelegram[u.TelegramID]; ok {
		return repository.ErrDuplicate
	}
	if m.phoneTakenLocked(u.Phone, 0) {
		return repository.ErrDuplicate
	}
	code, err := m.claimCodeLocked(codeNamespaceUser, func(c string) bool {
		_, ok := m.userCodes[c]
		return ok
	})
	if err != nil {
		return err
	}
	m.nextUserID++
	u.ID = m.nextUserID
	u.ShortCode = code
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.clock()
	}
	stored := *u
	m.users[u.ID] = &stored
	m.byTelegram[u.TelegramID] = u.ID
	m.userCodes[code] = u.ID
	return nil
}

func (m *MemoryStore) UpdateUserProfile(_ context.Context, u entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byTelegram[u.TelegramID]
	if !ok {
		return repository.ErrNotFound
	}
	if m.phoneTakenLocked(u.Phone, id) {
		return repository.ErrDuplicate
	}
	stored := m.users[id]
	stored.FullName = u.FullName
	stored.Phone = u.Phone
	stored.Address = u.Address
	stored.TelegramLink = u.TelegramLink
	return nil
}

func (m *MemoryStore) GetUserByTelegramID(_ context.Context, telegramID int64) (*entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byTelegram[telegramID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := *m.users[id]
	return &u, nil
}

func (m *MemoryStore) GetUserByCode(_ context.Context, code string) (*entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.userCodes[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := *m.users[id]
	return &u, nil
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]entity.User, 0, len(m.users))
	for _, u := range m.users {
		res = append(res, *u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *MemoryStore) UserCodes(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]string, 0, len(m.userCodes))
	for code := range m.userCodes {
		res = append(res, code)
	}
	sort.Strings(res)
	return res, nil
}

func (m *MemoryStore) withOwnerLocked(o *entity.Order) entity.Order {
	out := *o
	if u, ok := m.users[o.UserID]; ok {
		out.UserCode = u.ShortCode
		out.TelegramID = u.TelegramID
		out.UserAddress = u.Address
	}
	return out
}

func (m *MemoryStore) CreateOrderBatch(_ context.Context, orders []entity.Order) ([]entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// validate everything first so the batch is all-or-nothing
	for _, o := range orders {
		if _, ok := m.users[o.UserID]; !ok {
			return nil, repository.ErrNotFound
		}
	}

	counter := m.counters[codeNamespaceOrder]
	pending := make(map[string]struct{}, len(orders))
	created := make([]*entity.Order, 0, len(orders))
	now := m.clock()
	for _, o := range orders {
		code, err := m.claimCodeLocked(codeNamespaceOrder, func(c string) bool {
			if _, ok := pending[c]; ok {
				return true
			}
			_, ok := m.orderCodes[c]
			return ok
		})
		if err != nil {
			m.counters[codeNamespaceOrder] = counter
			return nil, err
		}
		pending[code] = struct{}{}
		stored := o
		stored.Code = code
		if stored.Status == "" {
			stored.Status = entity.StatusCreated
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		created = append(created, &stored)
	}

	res := make([]entity.Order, 0, len(created))
	for _, o := range created {
		m.nextOrderID++
		o.ID = m.nextOrderID
		m.orders = append(m.orders, o)
		m.orderCodes[o.Code] = o
		res = append(res, m.withOwnerLocked(o))
	}
	return res, nil
}

func (m *MemoryStore) GetOrderByCode(_ context.Context, code string) (*entity.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orderCodes[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := m.withOwnerLocked(o)
	return &out, nil
}

func (m *MemoryStore) UpdateOrderStatus(_ context.Context, code string, from, to entity.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orderCodes[code]
	if !ok {
		return repository.ErrNotFound
	}
	if o.Status != from {
		return repository.ErrStatusConflict
	}
	o.Status = to
	return nil
}

func (m *MemoryStore) AttachPaymentProof(_ context.Context, batchID, path string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.orders {
		if o.BatchID == batchID {
			o.PaymentScreenshot = path
			n++
		}
	}
	if n == 0 {
		return 0, repository.ErrNotFound
	}
	return n, nil
}

func (m *MemoryStore) SetTracking(_ context.Context, code, number string, eta *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orderCodes[code]
	if !ok {
		return repository.ErrNotFound
	}
	o.TrackingNumber = number
	if eta != nil {
		t := *eta
		o.EstimatedDelivery = &t
	} else {
		o.EstimatedDelivery = nil
	}
	return nil
}

func (m *MemoryStore) listLocked(keep func(o *entity.Order) bool) []entity.Order {
	res := make([]entity.Order, 0)
	for _, o := range m.orders {
		if keep(o) {
			res = append(res, m.withOwnerLocked(o))
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res
}

func (m *MemoryStore) ListOrdersByUser(_ context.Context, userID int64) ([]entity.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(func(o *entity.Order) bool { return o.UserID == userID }), nil
}

func (m *MemoryStore) ListOrdersByStatus(_ context.Context, status entity.OrderStatus) ([]entity.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(func(o *entity.Order) bool { return o.Status == status }), nil
}

func (m *MemoryStore) ListOrders(_ context.Context) ([]entity.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(func(*entity.Order) bool { return true }), nil
}

func (m *MemoryStore) GetExchangeRate(_ context.Context, name string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.rates[name]
	if !ok {
		return decimal.Zero, repository.ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) UpsertExchangeRate(_ context.Context, name string, value decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[name] = value
	return nil
}

func (m *MemoryStore) GetDeliveryPrice(_ context.Context, category, method string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.prices[priceKey{category: category, method: method}]
	if !ok {
		return decimal.Zero, repository.ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) UpsertDeliveryPrice(_ context.Context, category, method string, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[priceKey{category: category, method: method}] = price
	return nil
}

func (m *MemoryStore) ListDeliveryPrices(_ context.Context) ([]entity.DeliveryPrice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]entity.DeliveryPrice, 0, len(m.prices))
	for k, v := range m.prices {
		res = append(res, entity.DeliveryPrice{Category: k.category, DeliveryMethod: k.method, Price: v})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].DeliveryMethod != res[j].DeliveryMethod {
			return res[i].DeliveryMethod < res[j].DeliveryMethod
		}
		return res[i].Category < res[j].Category
	})
	return res, nil
}

func (m *MemoryStore) GetPaymentDetails(_ context.Context) (*entity.PaymentDetails, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.payment == nil {
		return nil, repository.ErrNotFound
	}
	d := *m.payment
	return &d, nil
}

func (m *MemoryStore) UpsertPaymentDetails(_ context.Context, d entity.PaymentDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payment = &d
	return nil
}
