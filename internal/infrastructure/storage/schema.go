package storage

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite3"

	codeNamespaceUser  = "user"
	codeNamespaceOrder = "order"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	telegram_id BIGINT NOT NULL UNIQUE,
	full_name TEXT NOT NULL,
	phone TEXT NOT NULL UNIQUE,
	address TEXT NOT NULL,
	telegram_link TEXT NOT NULL DEFAULT '',
	short_code TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS orders (
	id BIGSERIAL PRIMARY KEY,
	order_code TEXT NOT NULL UNIQUE,
	batch_id TEXT NOT NULL,
	user_id BIGINT NOT NULL REFERENCES users(id),
	category TEXT NOT NULL,
	size TEXT NOT NULL,
	color TEXT NOT NULL,
	link TEXT NOT NULL,
	price TEXT NOT NULL,
	rate TEXT NOT NULL,
	delivery_method TEXT NOT NULL,
	delivery_fee TEXT NOT NULL,
	total_price TEXT NOT NULL,
	promo_code TEXT NOT NULL DEFAULT '',
	payment_screenshot TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	tracking_number TEXT NOT NULL DEFAULT '',
	estimated_delivery TIMESTAMPTZ NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS orders_user_idx ON orders(user_id)`,
	`CREATE INDEX IF NOT EXISTS orders_batch_idx ON orders(batch_id)`,
	`CREATE INDEX IF NOT EXISTS orders_status_idx ON orders(status)`,
	`CREATE TABLE IF NOT EXISTS exchange_rates (
	rate_name TEXT PRIMARY KEY,
	rate_value TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS delivery_prices (
	category TEXT NOT NULL,
	delivery_type TEXT NOT NULL,
	price TEXT NOT NULL,
	UNIQUE (category, delivery_type)
)`,
	`CREATE TABLE IF NOT EXISTS payment_details (
	id INTEGER PRIMARY KEY,
	phone_number TEXT NOT NULL,
	card_number TEXT NOT NULL,
	recipient TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS code_counters (
	namespace TEXT PRIMARY KEY,
	next_value INTEGER NOT NULL
)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	telegram_id INTEGER NOT NULL UNIQUE,
	full_name TEXT NOT NULL,
	phone TEXT NOT NULL UNIQUE,
	address TEXT NOT NULL,
	telegram_link TEXT NOT NULL DEFAULT '',
	short_code TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	order_code TEXT NOT NULL UNIQUE,
	batch_id TEXT NOT NULL,
	user_id INTEGER NOT NULL REFERENCES users(id),
	category TEXT NOT NULL,
	size TEXT NOT NULL,
	color TEXT NOT NULL,
	link TEXT NOT NULL,
	price TEXT NOT NULL,
	rate TEXT NOT NULL,
	delivery_method TEXT NOT NULL,
	delivery_fee TEXT NOT NULL,
	total_price TEXT NOT NULL,
	promo_code TEXT NOT NULL DEFAULT '',
	payment_screenshot TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	tracking_number TEXT NOT NULL DEFAULT '',
	estimated_delivery DATETIME NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS orders_user_idx ON orders(user_id)`,
	`CREATE INDEX IF NOT EXISTS orders_batch_idx ON orders(batch_id)`,
	`CREATE INDEX IF NOT EXISTS orders_status_idx ON orders(status)`,
	`CREATE TABLE IF NOT EXISTS exchange_rates (
	rate_name TEXT PRIMARY KEY,
	rate_value TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS delivery_prices (
	category TEXT NOT NULL,
	delivery_type TEXT NOT NULL,
	price TEXT NOT NULL,
	UNIQUE (category, delivery_type)
)`,
	`CREATE TABLE IF NOT EXISTS payment_details (
	id INTEGER PRIMARY KEY,
	phone_number TEXT NOT NULL,
	card_number TEXT NOT NULL,
	recipient TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS code_counters (
	namespace TEXT PRIMARY KEY,
	next_value INTEGER NOT NULL
)`,
}

// seed rows shared by both dialects (ON CONFLICT works in both)
var counterSeed = []string{
	`INSERT INTO code_counters (namespace, next_value) VALUES ('user', 0) ON CONFLICT (namespace) DO NOTHING`,
	`INSERT INTO code_counters (namespace, next_value) VALUES ('order', 0) ON CONFLICT (namespace) DO NOTHING`,
}
