package telegram

import (
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
)

// botAPI tgbotapi.BotAPI ning handler ishlatadigan qismi (testlarda fake bilan almashtiriladi)
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Dependencies handler uchun usecase'lar va sozlamalar
type Dependencies struct {
	Orders        *usecase.OrderFlow
	Registration  *usecase.RegistrationFlow
	Calculator    *usecase.Calculator
	Support       *usecase.SupportFlow
	Lifecycle     *usecase.LifecycleManager
	Console       *usecase.Console
	Pricing       *usecase.PricingService
	Conversations *usecase.ConversationStore

	HelpURL             string
	UpdateTimeout       time.Duration
	ConversationTimeout time.Duration
	Workers             int
	QueueSize           int
}

// BotHandler Telegram bot handler
type BotHandler struct {
	bot      botAPI
	token    string
	username string

	orders       *usecase.OrderFlow
	registration *usecase.RegistrationFlow
	calculator   *usecase.Calculator
	support      *usecase.SupportFlow
	lifecycle    *usecase.LifecycleManager
	console      *usecase.Console
	pricing      *usecase.PricingService
	convs        *usecase.ConversationStore

	helpURL             string
	updateTimeout       time.Duration
	conversationTimeout time.Duration

	// fetchFile Telegram fayl yuklash (testlarda almashtiriladi)
	fetchFile func(fileID string) ([]byte, error)

	// Performance optimizations
	workerPool *workerPool
}

// NewBotHandler yangi bot handler yaratish
func NewBotHandler(token string, deps Dependencies) (*BotHandler, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h := newBotHandler(bot, deps)
	h.token = token
	h.username = bot.Self.UserName
	log.Printf("Authorized on account %s", bot.Self.UserName)
	return h, nil
}

func newBotHandler(bot botAPI, deps Dependencies) *BotHandler {
	h := &BotHandler{
		bot:                 bot,
		orders:              deps.Orders,
		registration:        deps.Registration,
		calculator:          deps.Calculator,
		support:             deps.Support,
		lifecycle:           deps.Lifecycle,
		console:             deps.Console,
		pricing:             deps.Pricing,
		convs:               deps.Conversations,
		helpURL:             deps.HelpURL,
		updateTimeout:       deps.UpdateTimeout,
		conversationTimeout: deps.ConversationTimeout,
	}
	if h.updateTimeout <= 0 {
		h.updateTimeout = defaultUpdateTimeout
	}
	if h.conversationTimeout <= 0 {
		h.conversationTimeout = constants.DefaultConversationTimeout
	}
	h.fetchFile = h.downloadFile
	h.workerPool = newWorkerPool(h, deps.Workers, deps.QueueSize)
	return h
}

// GetBotUsername returns the bot's username from Telegram API state.
func (h *BotHandler) GetBotUsername() string {
	return h.username
}
