package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	postgresConnectAttemptsDefault = 20
	postgresConnectDelayDefault    = 2 * time.Second

	pqInvalidCatalogName = "3D000"
	pqDuplicateDatabase  = "42P04"
)

// openPostgresWithRetry pings until the server answers; a missing database is created once.
func openPostgresWithRetry(dsn, adminDSN string, attempts int, delay time.Duration) (*sql.DB, error) {
	if attempts <= 0 {
		attempts = postgresConnectAttemptsDefault
	}
	if delay <= 0 {
		delay = postgresConnectDelayDefault
	}

	var lastErr error
	created := false
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := pingPostgres(dsn)
		if err == nil {
			return db, nil
		}
		lastErr = err
		if !created && hasPQCode(err, pqInvalidCatalogName) {
			if lastErr = ensurePostgresDatabase(dsn, adminDSN); lastErr == nil {
				created = true
				continue
			}
		}
		if attempt < attempts {
			log.Printf("[storage] postgres ulanmadi (%d/%d): %v", attempt, attempts, err)
			time.Sleep(delay)
		}
	}
	return nil, fmt.Errorf("postgres connection failed: %w", lastErr)
}

func pingPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ensurePostgresDatabase creates the dsn's database through the "postgres"
// maintenance db of the same server, or through adminDSN when that fails.
func ensurePostgresDatabase(dsn, adminDSN string) error {
	maintenance, dbName, err := maintenanceDSN(dsn)
	if err != nil {
		return err
	}
	err = createDatabase(maintenance, dbName)
	if err != nil && adminDSN != "" && adminDSN != maintenance {
		err = createDatabase(adminDSN, dbName)
	}
	if err == nil {
		log.Printf("[storage] database %q yaratildi", dbName)
	}
	return err
}

// maintenanceDSN postgres://u@h/poizon -> (postgres://u@h/postgres, poizon).
// Only URL DSNs are supported; config builds POSTGRES_* parts into that form.
func maintenanceDSN(dsn string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(dsn))
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") || u.Host == "" {
		return "", "", fmt.Errorf("database yaratish uchun postgres:// URL kerak")
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", "", fmt.Errorf("dsn da database nomi yo'q")
	}
	u.Path = "/postgres"
	return u.String(), dbName, nil
}

func createDatabase(dsn, dbName string) error {
	db, err := pingPostgres(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	if hasPQCode(err, pqDuplicateDatabase) {
		return nil
	}
	return err
}

func hasPQCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
