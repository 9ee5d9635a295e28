package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/yourusername/poizon-order-bot/config"
	"github.com/yourusername/poizon-order-bot/internal/delivery/telegram"
	"github.com/yourusername/poizon-order-bot/internal/infrastructure/currency"
	"github.com/yourusername/poizon-order-bot/internal/infrastructure/storage"
	"github.com/yourusername/poizon-order-bot/internal/metric"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
	"github.com/yourusername/poizon-order-bot/pkg/logger"
)

func main() {
	initDefaultTimezone()

	// Logger ni ishga tushirish
	logger.Init()
	logger.InfoLogger.Println("🚀 Ilova ishga tushmoqda...")

	// Konfiguratsiyani yuklash
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Konfiguratsiya yuklanmadi: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if cfg.AllowEmptySecrets {
		missing := []string{}
		if isEmptyOrDisabled(cfg.TelegramToken) {
			missing = append(missing, "TELEGRAM_BOT_TOKEN")
		}
		if len(cfg.AdminIDs) == 0 && cfg.ManagerID == 0 {
			missing = append(missing, "ADMIN_TELEGRAM_IDS/MANAGER_TELEGRAM_ID")
		}
		if len(missing) > 0 {
			logger.InfoLogger.Printf("Secretlar yetishmayapti (%s). Bot vaqtincha ishga tushmaydi.", strings.Join(missing, ", "))
			<-sigChan
			return
		}
	}

	// 1. Storage
	store, err := storage.Open(storage.Options{
		Driver:          cfg.DBDriver,
		PostgresDSN:     cfg.PostgresDSN,
		PostgresAdmin:   cfg.PostgresAdmin,
		SQLiteFile:      cfg.SQLiteFile,
		ConnectAttempts: cfg.ConnectAttempts,
		ConnectDelay:    cfg.ConnectDelay,
	})
	if err != nil {
		log.Fatalf("❌ Baza ochilmadi: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.ErrorLogger.Printf("baza yopilmadi: %v", err)
		}
	}()
	logger.InfoLogger.Println("✅ Storage tayyor")

	// 2. Kurs manbai (CBR) - bazada kurs bo'lmasa ishlatiladi
	var live usecase.RateSource
	if cfg.LiveRateEnabled() {
		live = currency.NewCBRClient(cfg.CBRRateURL)
		logger.InfoLogger.Printf("✅ CBR kurs manbai: %s", cfg.CBRRateURL)
	}

	// 3. Use cases
	convs := usecase.NewConversationStore()
	pricing := usecase.NewPricingService(store, live)
	lifecycle := usecase.NewLifecycleManager(store, store)
	orders := usecase.NewOrderFlow(convs, store, store, store, pricing, lifecycle, storage.NewProofFiles(cfg.PayScreensDir), cfg.RateQuoteTTL)
	console := usecase.NewConsole(usecase.ConsoleDeps{
		Convs:     convs,
		Users:     store,
		Orders:    store,
		Pricing:   pricing,
		Lifecycle: lifecycle,
		Importer:  usecase.NewPriceImporter(store, store),
		Reporter:  usecase.NewReporter(store, store, cfg.ExportDir),
		AdminIDs:  cfg.AdminIDs,
		ManagerID: cfg.ManagerID,
	})
	logger.InfoLogger.Println("✅ Use cases tayyor")

	// 4. Telegram bot handler
	botHandler, err := telegram.NewBotHandler(cfg.TelegramToken, telegram.Dependencies{
		Orders:              orders,
		Registration:        usecase.NewRegistrationFlow(convs, store),
		Calculator:          usecase.NewCalculator(convs, store, pricing),
		Support:             usecase.NewSupportFlow(convs),
		Lifecycle:           lifecycle,
		Console:             console,
		Pricing:             pricing,
		Conversations:       convs,
		HelpURL:             cfg.HelpURL,
		UpdateTimeout:       cfg.UpdateTimeout,
		ConversationTimeout: cfg.ConversationTimeout,
		Workers:             cfg.UpdateWorkers,
		QueueSize:           cfg.UpdateQueueSize,
	})
	if err != nil {
		log.Fatalf("❌ Bot handler yaratilmadi: %v", err)
	}
	logger.InfoLogger.Printf("✅ Telegram bot tayyor: @%s", botHandler.GetBotUsername())

	// Context yaratish
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsServer := startMetricsServer(cfg.MetricsAddr)

	// Botni alohida goroutine da ishga tushirish
	go func() {
		if err := botHandler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorLogger.Printf("❌ Bot xatosi: %v", err)
		}
	}()

	logger.InfoLogger.Println("🤖 Bot ishlayapti. To'xtatish uchun Ctrl+C ni bosing.")

	// Signal kutish
	<-sigChan
	logger.InfoLogger.Println("⏳ To'xtatish signali qabul qilindi...")

	// Graceful shutdown
	cancel()
	if metricsServer != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorLogger.Printf("metrics server: %v", err)
		}
		stop()
	}
	logger.InfoLogger.Println("✅ Bot to'xtatildi.")
}

// startMetricsServer METRICS_ADDR bo'sh bo'lsa o'chiq
func startMetricsServer(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metric.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorLogger.Printf("metrics server: %v", err)
		}
	}()
	logger.InfoLogger.Printf("📈 Metrics: http://%s/metrics", addr)
	return srv
}

func initDefaultTimezone() {
	const tzName = "Europe/Moscow"
	if loc, err := time.LoadLocation(tzName); err == nil {
		time.Local = loc
		return
	}
	time.Local = time.FixedZone(tzName, 3*60*60)
}

func isEmptyOrDisabled(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	return strings.EqualFold(value, "disabled")
}
