package storage

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/poizon-order-bot/internal/domain/repository"
)

// Options qaysi baza ishlatilishini belgilaydi
type Options struct {
	// Driver: postgres | sqlite3 | memory. Empty picks postgres when a DSN is set, sqlite3 otherwise.
	Driver          string
	PostgresDSN     string
	PostgresAdmin   string
	SQLiteFile      string
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// Open konfiguratsiya bo'yicha store yaratish
func Open(opts Options) (repository.Store, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		driver = dialectSQLite
		if strings.TrimSpace(opts.PostgresDSN) != "" {
			driver = dialectPostgres
		}
	}

	switch driver {
	case "memory":
		log.Printf("[storage] in-memory store (ma'lumotlar restartdan keyin yo'qoladi)")
		return NewMemoryStore(), nil
	case dialectPostgres, "postgresql":
		return OpenPostgres(opts.PostgresDSN, opts.PostgresAdmin, opts.ConnectAttempts, opts.ConnectDelay)
	case dialectSQLite, "sqlite":
		return OpenSQLite(opts.SQLiteFile)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", opts.Driver)
	}
}

// OpenPostgres lib/pq orqali ulanish
func OpenPostgres(dsn, adminDSN string, attempts int, delay time.Duration) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}
	db, err := openPostgresWithRetry(dsn, adminDSN, attempts, delay)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	store, err := newSQLStore(db, dialectPostgres)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenSQLite one writer connection; transactions take the write lock at BEGIN.
func OpenSQLite(path string) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "poizon.db"
	}
	q := url.Values{}
	q.Set("_txlock", "immediate")
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "on")
	db, err := sql.Open(dialectSQLite, "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	store, err := newSQLStore(db, dialectSQLite)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
