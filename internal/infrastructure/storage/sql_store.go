package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/domain/repository"
)

// codeClaimAttempts retries when a concurrent writer took the same short code.
const codeClaimAttempts = 5

// SQLStore persistent saqlash (postgres yoki sqlite)
type SQLStore struct {
	db      *sql.DB
	dialect string
	clock   func() time.Time
}

var _ repository.Store = (*SQLStore)(nil)

func newSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect, clock: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	schema := postgresSchema
	if s.dialect == dialectSQLite {
		schema = sqliteSchema
	}
	for _, stmt := range append(schema, counterSeed...) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind converts ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) now() time.Time {
	return s.clock().UTC()
}

// withTx bitta tranzaksiya: xato bo'lsa rollback, aks holda commit
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// isCodeCollision unique violation on a short code column (retryable).
func isCodeCollision(err error) bool {
	if !isUniqueViolation(err) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "short_code") || strings.Contains(msg, "order_code")
}

// claimCode atomically takes the next free code of namespace inside tx.
// The counter row is locked (FOR UPDATE on postgres, immediate tx on sqlite).
func (s *SQLStore) claimCode(ctx context.Context, tx *sql.Tx, namespace, table, column string, reserved map[string]struct{}) (string, error) {
	q := `SELECT next_value FROM code_counters WHERE namespace = ?`
	if s.dialect == dialectPostgres {
		q += ` FOR UPDATE`
	}
	var next int
	if err := tx.QueryRowContext(ctx, s.rebind(q), namespace).Scan(&next); err != nil {
		return "", fmt.Errorf("read code counter: %w", err)
	}

	var lookupErr error
	lookup := s.rebind(`SELECT 1 FROM ` + table + ` WHERE ` + column + ` = ?`)
	code, err := entity.NextFreeCode(next, func(c string) bool {
		if lookupErr != nil {
			return false
		}
		if _, ok := reserved[c]; ok {
			return true
		}
		var one int
		err := tx.QueryRowContext(ctx, lookup, c).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return false
		}
		if err != nil {
			lookupErr = err
			return false
		}
		return true
	})
	if lookupErr != nil {
		return "", fmt.Errorf("code lookup: %w", lookupErr)
	}
	if err != nil {
		return "", err
	}

	idx, _ := entity.CodeIndex(code)
	if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE code_counters SET next_value = ? WHERE namespace = ?`), (idx+1)%entity.CodeSpace, namespace); err != nil {
		return "", fmt.Errorf("advance code counter: %w", err)
	}
	return code, nil
}

const userColumns = `id, telegram_id, full_name, phone, address, telegram_link, short_code, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.TelegramID, &u.FullName, &u.Phone, &u.Address, &u.TelegramLink, &u.ShortCode, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, u *entity.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	var lastErr error
	for attempt := 0; attempt < codeClaimAttempts; attempt++ {
		var id int64
		var code string
		err := s.withTx(ctx, func(tx *sql.Tx) error {
			var err error
			code, err = s.claimCode(ctx, tx, codeNamespaceUser, "users", "short_code", nil)
			if err != nil {
				return err
			}
			return tx.QueryRowContext(ctx, s.rebind(`
INSERT INTO users (telegram_id, full_name, phone, address, telegram_link, short_code, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
				u.TelegramID, u.FullName, u.Phone, u.Address, u.TelegramLink, code, u.CreatedAt).Scan(&id)
		})
		if err == nil {
			u.ID = id
			u.ShortCode = code
			return nil
		}
		if isCodeCollision(err) {
			lastErr = err
			continue
		}
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return fmt.Errorf("create user: %w", lastErr)
}

func (s *SQLStore) UpdateUserProfile(ctx context.Context, u entity.User) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
UPDATE users SET full_name = ?, phone = ?, address = ?, telegram_link = ? WHERE telegram_id = ?`),
		u.FullName, u.Phone, u.Address, u.TelegramLink, u.TelegramID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *SQLStore) getUser(ctx context.Context, where string, arg any) (*entity.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE `+where), arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *SQLStore) GetUserByTelegramID(ctx context.Context, telegramID int64) (*entity.User, error) {
	return s.getUser(ctx, `telegram_id = ?`, telegramID)
}

func (s *SQLStore) GetUserByCode(ctx context.Context, code string) (*entity.User, error) {
	return s.getUser(ctx, `short_code = ?`, strings.ToUpper(strings.TrimSpace(code)))
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]entity.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var res []entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

func (s *SQLStore) UserCodes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT short_code FROM users ORDER BY short_code`)
	if err != nil {
		return nil, fmt.Errorf("user codes: %w", err)
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		res = append(res, code)
	}
	return res, rows.Err()
}

const orderSelect = `
SELECT o.id, o.order_code, o.batch_id, o.user_id, o.category, o.size, o.color, o.link,
	o.price, o.rate, o.delivery_method, o.delivery_fee, o.total_price, o.promo_code,
	o.payment_screenshot, o.status, o.tracking_number, o.estimated_delivery, o.created_at,
	u.short_code, u.telegram_id, u.address
FROM orders o JOIN users u ON u.id = o.user_id`

const orderNewestFirst = ` ORDER BY o.created_at DESC, o.id DESC`

func scanOrder(row rowScanner) (*entity.Order, error) {
	var o entity.Order
	var status string
	var eta sql.NullTime
	err := row.Scan(&o.ID, &o.Code, &o.BatchID, &o.UserID, &o.Category, &o.Size, &o.Color, &o.Link,
		&o.Price, &o.Rate, &o.DeliveryMethod, &o.DeliveryFee, &o.TotalPrice, &o.PromoCode,
		&o.PaymentScreenshot, &status, &o.TrackingNumber, &eta, &o.CreatedAt,
		&o.UserCode, &o.TelegramID, &o.UserAddress)
	if err != nil {
		return nil, err
	}
	o.Status = entity.OrderStatus(status)
	if eta.Valid {
		t := eta.Time
		o.EstimatedDelivery = &t
	}
	return &o, nil
}

func (s *SQLStore) queryOrders(ctx context.Context, where string, args ...any) ([]entity.Order, error) {
	q := orderSelect
	if where != "" {
		q += ` WHERE ` + where
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(q+orderNewestFirst), args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	res := make([]entity.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *o)
	}
	return res, rows.Err()
}

func (s *SQLStore) CreateOrderBatch(ctx context.Context, orders []entity.Order) ([]entity.Order, error) {
	var lastErr error
	for attempt := 0; attempt < codeClaimAttempts; attempt++ {
		created, err := s.createOrderBatchOnce(ctx, orders)
		if err == nil {
			return created, nil
		}
		if isCodeCollision(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("create orders: %w", lastErr)
}

func (s *SQLStore) createOrderBatchOnce(ctx context.Context, orders []entity.Order) ([]entity.Order, error) {
	created := make([]entity.Order, 0, len(orders))
	now := s.now()
	owners := make(map[int64]*entity.User)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		reserved := make(map[string]struct{}, len(orders))
		for _, o := range orders {
			owner, ok := owners[o.UserID]
			if !ok {
				row := tx.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), o.UserID)
				u, err := scanUser(row)
				if errors.Is(err, sql.ErrNoRows) {
					return repository.ErrNotFound
				}
				if err != nil {
					return fmt.Errorf("order owner: %w", err)
				}
				owners[o.UserID] = u
				owner = u
			}

			code, err := s.claimCode(ctx, tx, codeNamespaceOrder, "orders", "order_code", reserved)
			if err != nil {
				return err
			}
			reserved[code] = struct{}{}

			o.Code = code
			if o.Status == "" {
				o.Status = entity.StatusCreated
			}
			if o.CreatedAt.IsZero() {
				o.CreatedAt = now
			}
			err = tx.QueryRowContext(ctx, s.rebind(`
INSERT INTO orders (order_code, batch_id, user_id, category, size, color, link, price, rate,
	delivery_method, delivery_fee, total_price, promo_code, payment_screenshot, status,
	tracking_number, estimated_delivery, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
				o.Code, o.BatchID, o.UserID, o.Category, o.Size, o.Color, o.Link, o.Price, o.Rate,
				o.DeliveryMethod, o.DeliveryFee, o.TotalPrice, o.PromoCode, o.PaymentScreenshot, string(o.Status),
				o.TrackingNumber, nullTime(o.EstimatedDelivery), o.CreatedAt).Scan(&o.ID)
			if err != nil {
				return fmt.Errorf("insert order: %w", err)
			}
			o.UserCode = owner.ShortCode
			o.TelegramID = owner.TelegramID
			o.UserAddress = owner.Address
			created = append(created, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func (s *SQLStore) GetOrderByCode(ctx context.Context, code string) (*entity.Order, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(orderSelect+` WHERE o.order_code = ?`), strings.ToUpper(strings.TrimSpace(code)))
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *SQLStore) UpdateOrderStatus(ctx context.Context, code string, from, to entity.OrderStatus) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE orders SET status = ? WHERE order_code = ? AND status = ?`), string(to), code, string(from))
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := s.GetOrderByCode(ctx, code); err != nil {
		return err
	}
	return repository.ErrStatusConflict
}

func (s *SQLStore) AttachPaymentProof(ctx context.Context, batchID, path string) (int, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE orders SET payment_screenshot = ? WHERE batch_id = ?`), path, batchID)
	if err != nil {
		return 0, fmt.Errorf("attach proof: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return 0, repository.ErrNotFound
	}
	return int(n), nil
}

func (s *SQLStore) SetTracking(ctx context.Context, code, number string, eta *time.Time) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE orders SET tracking_number = ?, estimated_delivery = ? WHERE order_code = ?`), number, nullTime(eta), code)
	if err != nil {
		return fmt.Errorf("set tracking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListOrdersByUser(ctx context.Context, userID int64) ([]entity.Order, error) {
	return s.queryOrders(ctx, `o.user_id = ?`, userID)
}

func (s *SQLStore) ListOrdersByStatus(ctx context.Context, status entity.OrderStatus) ([]entity.Order, error) {
	return s.queryOrders(ctx, `o.status = ?`, string(status))
}

func (s *SQLStore) ListOrders(ctx context.Context) ([]entity.Order, error) {
	return s.queryOrders(ctx, "")
}

func (s *SQLStore) GetExchangeRate(ctx context.Context, name string) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT rate_value FROM exchange_rates WHERE rate_name = ?`), name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, repository.ErrNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get rate: %w", err)
	}
	return v, nil
}

func (s *SQLStore) UpsertExchangeRate(ctx context.Context, name string, value decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO exchange_rates (rate_name, rate_value) VALUES (?, ?)
ON CONFLICT (rate_name) DO UPDATE SET rate_value = excluded.rate_value`), name, value)
	if err != nil {
		return fmt.Errorf("upsert rate: %w", err)
	}
	return nil
}

func (s *SQLStore) GetDeliveryPrice(ctx context.Context, category, method string) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT price FROM delivery_prices WHERE category = ? AND delivery_type = ?`), category, method).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, repository.ErrNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get delivery price: %w", err)
	}
	return v, nil
}

func (s *SQLStore) UpsertDeliveryPrice(ctx context.Context, category, method string, price decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO delivery_prices (category, delivery_type, price) VALUES (?, ?, ?)
ON CONFLICT (category, delivery_type) DO UPDATE SET price = excluded.price`), category, method, price)
	if err != nil {
		return fmt.Errorf("upsert delivery price: %w", err)
	}
	return nil
}

func (s *SQLStore) ListDeliveryPrices(ctx context.Context) ([]entity.DeliveryPrice, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, delivery_type, price FROM delivery_prices ORDER BY delivery_type, category`)
	if err != nil {
		return nil, fmt.Errorf("list delivery prices: %w", err)
	}
	defer rows.Close()
	var res []entity.DeliveryPrice
	for rows.Next() {
		var p entity.DeliveryPrice
		if err := rows.Scan(&p.Category, &p.DeliveryMethod, &p.Price); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s *SQLStore) GetPaymentDetails(ctx context.Context) (*entity.PaymentDetails, error) {
	var d entity.PaymentDetails
	err := s.db.QueryRowContext(ctx, `SELECT phone_number, card_number, recipient FROM payment_details WHERE id = 1`).
		Scan(&d.PhoneNumber, &d.CardNumber, &d.Recipient)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment details: %w", err)
	}
	return &d, nil
}

func (s *SQLStore) UpsertPaymentDetails(ctx context.Context, d entity.PaymentDetails) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO payment_details (id, phone_number, card_number, recipient) VALUES (1, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET phone_number = excluded.phone_number,
	card_number = excluded.card_number, recipient = excluded.recipient`), d.PhoneNumber, d.CardNumber, d.Recipient)
	if err != nil {
		return fmt.Errorf("upsert payment details: %w", err)
	}
	return nil
}
