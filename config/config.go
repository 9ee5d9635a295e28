package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
	"github.com/yourusername/poizon-order-bot/internal/infrastructure/currency"
)

// Config ilovaning konfiguratsiyasi
type Config struct {
	TelegramToken     string
	AllowEmptySecrets bool
	AdminIDs          []int64
	ManagerID         int64
	HelpURL           string

	PayScreensDir string
	ExportDir     string

	DBDriver        string
	PostgresDSN     string
	PostgresAdmin   string
	SQLiteFile      string
	ConnectAttempts int
	ConnectDelay    time.Duration

	RateQuoteTTL        time.Duration
	ConversationTimeout time.Duration
	UpdateTimeout       time.Duration
	UpdateWorkers       int
	UpdateQueueSize     int
	CBRRateURL          string
	MetricsAddr         string
}

// Load konfiguratsiyani yuklash
func Load() (*Config, error) {
	// .env faylini yuklash (mavjud bo'lsa)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:     firstEnv("TELEGRAM_BOT_TOKEN", "BOT_TOKEN"),
		AllowEmptySecrets: getEnvBool("ALLOW_EMPTY_SECRETS", false),
		HelpURL:           strings.TrimSpace(os.Getenv("HELP_URL")),
		PayScreensDir:     getEnv("PAY_SCREENS_DIR", "pay_screens"),
		ExportDir:         getEnv("EXPORT_DIR", "exports"),
		DBDriver:          strings.TrimSpace(os.Getenv("DB_DRIVER")),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		PostgresAdmin:     strings.TrimSpace(os.Getenv("POSTGRES_ADMIN_DSN")),
		SQLiteFile:        getEnv("SQLITE_FILE", "poizon.db"),
		CBRRateURL:        getEnv("CBR_RATE_URL", currency.DefaultCBRURL),
		MetricsAddr:       strings.TrimSpace(os.Getenv("METRICS_ADDR")),
	}
	if cfg.PostgresDSN == "" {
		cfg.PostgresDSN = buildPostgresDSNFromEnv()
	}

	var err error
	if cfg.AdminIDs, err = parseIDList(os.Getenv("ADMIN_TELEGRAM_IDS")); err != nil {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_IDS noto'g'ri formatda: %v", err)
	}
	if raw := strings.TrimSpace(os.Getenv("MANAGER_TELEGRAM_ID")); raw != "" {
		if cfg.ManagerID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("MANAGER_TELEGRAM_ID noto'g'ri formatda: %v", err)
		}
	}
	if cfg.RateQuoteTTL, err = getEnvDuration("RATE_QUOTE_TTL", constants.DefaultRateQuoteTTL); err != nil {
		return nil, err
	}
	if cfg.ConversationTimeout, err = getEnvDuration("CONVERSATION_TIMEOUT", constants.DefaultConversationTimeout); err != nil {
		return nil, err
	}
	if cfg.UpdateTimeout, err = getEnvDuration("UPDATE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ConnectDelay, err = getEnvDuration("POSTGRES_CONNECT_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	cfg.ConnectAttempts = getEnvInt("POSTGRES_CONNECT_ATTEMPTS", 10)
	cfg.UpdateWorkers = getEnvInt("UPDATE_WORKERS", 30)
	cfg.UpdateQueueSize = getEnvInt("UPDATE_QUEUE_SIZE", 100)
	if cfg.UpdateWorkers <= 0 || cfg.UpdateQueueSize <= 0 {
		return nil, fmt.Errorf("UPDATE_WORKERS va UPDATE_QUEUE_SIZE musbat bo'lishi kerak")
	}

	switch strings.ToLower(cfg.DBDriver) {
	case "", "memory", "postgres", "postgresql", "sqlite", "sqlite3":
	default:
		return nil, fmt.Errorf("DB_DRIVER noma'lum: %q", cfg.DBDriver)
	}

	// Validatsiya
	if !cfg.AllowEmptySecrets {
		if cfg.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable bo'sh")
		}
		if len(cfg.AdminIDs) == 0 && cfg.ManagerID == 0 {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_IDS yoki MANAGER_TELEGRAM_ID kerak")
		}
	}

	return cfg, nil
}

// LiveRateEnabled CBR_RATE_URL=disabled turns the live fallback off.
func (c *Config) LiveRateEnabled() bool {
	return c.CBRRateURL != "" && !strings.EqualFold(c.CBRRateURL, "disabled")
}

func buildPostgresDSNFromEnv() string {
	host := strings.TrimSpace(os.Getenv("POSTGRES_HOST"))
	user := strings.TrimSpace(os.Getenv("POSTGRES_USER"))
	password := os.Getenv("POSTGRES_PASSWORD")
	db := strings.TrimSpace(os.Getenv("POSTGRES_DB"))
	port := getEnv("POSTGRES_PORT", "5432")
	sslmode := getEnv("POSTGRES_SSLMODE", "disable")

	if host == "" || user == "" || db == "" {
		return ""
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + strings.TrimPrefix(db, "/"),
	}
	if password == "" {
		u.User = url.User(user)
	} else {
		u.User = url.UserPassword(user, password)
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

// parseIDList "1, 2;3" -> [1 2 3]. Inline "# izoh" qo'llab-quvvatlanadi.
func parseIDList(raw string) ([]int64, error) {
	if idx := strings.Index(raw, "#"); idx >= 0 {
		raw = raw[:idx]
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %v", f, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return val
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s noto'g'ri: %q", key, raw)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}
