package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/poizon-order-bot/internal/domain/constants"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/infrastructure/storage"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
)

const (
	testAdminID   int64 = 1
	testManagerID int64 = 2
)

type sentMessage struct {
	chatID int64
	text   string
	markup interface{}
}

// fakeBot yuborilgan xabarlarni yozib boradi
type fakeBot struct {
	mu       sync.Mutex
	sent     []sentMessage
	requests []tgbotapi.Chattable
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.sent = append(f.sent, sentMessage{chatID: m.ChatID, text: m.Text, markup: m.ReplyMarkup})
	case tgbotapi.PhotoConfig:
		f.sent = append(f.sent, sentMessage{chatID: m.ChatID, text: m.Caption})
	case tgbotapi.DocumentConfig:
		f.sent = append(f.sent, sentMessage{chatID: m.ChatID, text: m.Caption})
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) GetFile(tgbotapi.FileConfig) (tgbotapi.File, error) {
	return tgbotapi.File{}, errors.New("no network in tests")
}

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeBot) StopReceivingUpdates() {}

// to chatID ga yuborilgan matnlar
func (f *fakeBot) textsTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		if m.chatID == chatID {
			out = append(out, m.text)
		}
	}
	return out
}

func (f *fakeBot) last(chatID int64) sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].chatID == chatID {
			return f.sent[i]
		}
	}
	return sentMessage{}
}

func (f *fakeBot) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
	f.requests = nil
}

func (f *fakeBot) sawText(chatID int64, substr string) bool {
	for _, text := range f.textsTo(chatID) {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

type testEnv struct {
	h     *BotHandler
	bot   *fakeBot
	store *storage.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.UpsertExchangeRate(ctx, constants.RateCNYToRUB, decimal.RequireFromString("12.5")))
	require.NoError(t, store.UpsertDeliveryPrice(ctx, "Одежда", constants.DeliveryAuto, decimal.NewFromInt(800)))
	require.NoError(t, store.UpsertDeliveryPrice(ctx, "Одежда", constants.DeliveryAir, decimal.NewFromInt(1500)))

	convs := usecase.NewConversationStore()
	pricing := usecase.NewPricingService(store, nil)
	lifecycle := usecase.NewLifecycleManager(store, store)
	proofs := storage.NewProofFiles(t.TempDir())

	bot := &fakeBot{}
	h := newBotHandler(bot, Dependencies{
		Orders:       usecase.NewOrderFlow(convs, store, store, store, pricing, lifecycle, proofs, time.Hour),
		Registration: usecase.NewRegistrationFlow(convs, store),
		Calculator:   usecase.NewCalculator(convs, store, pricing),
		Support:      usecase.NewSupportFlow(convs),
		Lifecycle:    lifecycle,
		Console: usecase.NewConsole(usecase.ConsoleDeps{
			Convs:     convs,
			Users:     store,
			Orders:    store,
			Pricing:   pricing,
			Lifecycle: lifecycle,
			Importer:  usecase.NewPriceImporter(store, store),
			Reporter:  usecase.NewReporter(store, store, t.TempDir()),
			AdminIDs:  []int64{testAdminID},
			ManagerID: testManagerID,
		}),
		Pricing:       pricing,
		Conversations: convs,
	})
	return &testEnv{h: h, bot: bot, store: store}
}

func privateChat(id int64) *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: id, Type: "private"}
}

func (e *testEnv) text(t *testing.T, userID int64, text string) {
	t.Helper()
	require.NoError(t, e.h.handleUpdate(context.Background(), textUpdate(userID, text)))
}

func (e *testEnv) press(t *testing.T, userID int64, data string) {
	t.Helper()
	require.NoError(t, e.h.handleUpdate(context.Background(), callbackUpdate(userID, data)))
}

func (e *testEnv) register(t *testing.T, userID int64, resumeOrder bool) {
	t.Helper()
	data := cbRegistration
	if resumeOrder {
		data = cbRegistrationOrder
	}
	e.press(t, userID, data)
	e.text(t, userID, "Иван Иванов")
	e.text(t, userID, "+79991234567")
	e.text(t, userID, "Москва, ул. Ленина 1")
	require.True(t, e.bot.sawText(userID, "Регистрация завершена"))
}

// placeOrder ro'yxatdan o'tgan foydalanuvchi uchun bitta tovarli buyurtma
func (e *testEnv) placeOrder(t *testing.T, userID int64) entity.Order {
	t.Helper()
	e.press(t, userID, cbAssembleOrder)
	e.press(t, userID, cbCategoryPrefix+"Одежда")
	for _, text := range []string{"100", "M", "нет", "https://dw4.co/t/A/abc"} {
		e.text(t, userID, text)
	}
	e.press(t, userID, cbDeliveryPrefix+constants.DeliveryAuto)
	require.True(t, e.bot.sawText(userID, "ОБЩАЯ СТОИМОСТЬ: 2050.00₽"))
	e.press(t, userID, cbContinue)
	e.press(t, userID, cbConfirmPayment)
	require.True(t, e.bot.sawText(userID, "Заказ оформлен"))

	orders, err := e.store.ListOrders(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, orders)
	return orders[len(orders)-1]
}

func TestSplitIntoChunks(t *testing.T) {
	assert.Equal(t, []string{"qisqa"}, splitIntoChunks("qisqa", 10))

	text := strings.Repeat("строка номер один\n", 50)
	chunks := splitIntoChunks(text, 100)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 100)
		assert.True(t, strings.HasSuffix(c, "\n"), "chunks end on a line boundary")
	}
	assert.Equal(t, text, strings.Join(chunks, ""))

	long := strings.Repeat("я", 250)
	chunks = splitIntoChunks(long, 100)
	require.Len(t, chunks, 3)
	assert.Equal(t, long, strings.Join(chunks, ""))
}

func TestExtractCommand(t *testing.T) {
	cases := map[string]string{
		"/start":           "start",
		"/help@poizon_bot": "help",
		"  /export  now ":  "export",
		"salom":            "",
		"/":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, extractCommand(&tgbotapi.Message{Text: in}), in)
	}
	assert.Equal(t, "", extractCommand(nil))
}

func TestStatusKeyboardOffersLegalTransitionsOnly(t *testing.T) {
	kb, ok := statusKeyboard(entity.StatusShippedInternational)
	require.True(t, ok)
	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			data = append(data, *b.CallbackData)
		}
	}
	assert.Equal(t, []string{
		cbStatusPrefix + string(entity.StatusCompleted),
		cbStatusPrefix + string(entity.StatusCancelled),
		cbConsoleCancel,
	}, data)

	_, ok = statusKeyboard(entity.StatusCompleted)
	assert.False(t, ok)
	_, ok = statusKeyboard(entity.StatusCancelled)
	assert.False(t, ok)
}

func TestStartCommandShowsRoleMenu(t *testing.T) {
	e := newTestEnv(t)
	e.text(t, testAdminID, "/start")
	e.text(t, testManagerID, "/start")
	e.text(t, 50, "/start")

	assert.True(t, e.bot.sawText(testAdminID, "администратор"))
	assert.True(t, e.bot.sawText(testAdminID, "Панель администратора"))
	assert.True(t, e.bot.sawText(testManagerID, "менеджер"))
	assert.True(t, e.bot.sawText(testManagerID, "Панель менеджера"))
	assert.True(t, e.bot.sawText(50, "Основное меню"))
	assert.False(t, e.bot.sawText(50, "Панель"))
}

func TestStaffCommandsAreDenied(t *testing.T) {
	e := newTestEnv(t)
	e.text(t, 50, "/admin")
	e.text(t, 50, "/manager")
	e.press(t, 50, cbManagerUpdate)
	e.press(t, 50, cbAdminExport)

	denied := 0
	for _, text := range e.bot.textsTo(50) {
		if text == accessDeniedText {
			denied++
		}
	}
	assert.Equal(t, 4, denied)
}

func TestOrderRequiresRegistrationThenResumes(t *testing.T) {
	e := newTestEnv(t)
	e.press(t, 10, cbAssembleOrder)
	assert.True(t, e.bot.sawText(10, "не зарегистрированы"))

	reg := e.bot.last(10)
	kb, ok := reg.markup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, cbRegistrationOrder, *kb.InlineKeyboard[0][0].CallbackData)

	e.bot.reset()
	e.register(t, 10, true)
	last := e.bot.last(10)
	assert.Contains(t, last.text, "Выберите категорию товара")
}

func TestRegistrationRepromptsOnInvalidInput(t *testing.T) {
	e := newTestEnv(t)
	e.press(t, 11, cbRegistration)
	e.text(t, 11, "Иван123")
	assert.Equal(t, problemText(usecase.ProblemInvalidName), e.bot.last(11).text)
	assert.Equal(t, usecase.RegistrationEnteringName, e.h.registration.Stage(11))

	e.text(t, 11, "Иван Иванов")
	e.text(t, 11, "abc")
	assert.Equal(t, problemText(usecase.ProblemInvalidPhone), e.bot.last(11).text)
	assert.Equal(t, usecase.RegistrationEnteringPhone, e.h.registration.Stage(11))
}

func TestOrderFlowNotifiesManager(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, false)
	order := e.placeOrder(t, 10)

	assert.Equal(t, entity.StatusCreated, order.Status)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(2050)), order.TotalPrice.String())
	assert.True(t, e.bot.sawText(testManagerID, "Новый заказ"))
	assert.True(t, e.bot.sawText(testManagerID, order.Code))
	assert.Equal(t, usecase.OrderAwaitingPaymentProof, e.h.orders.Stage(10))

	// skrinshot o'rniga matn
	e.text(t, 10, "оплатил")
	assert.Equal(t, problemText(usecase.ProblemExpectedPhoto), e.bot.last(10).text)
}

func (e *testEnv) message(t *testing.T, userID int64, fill func(m *tgbotapi.Message)) {
	t.Helper()
	m := &tgbotapi.Message{MessageID: 101, From: &tgbotapi.User{ID: userID}, Chat: privateChat(userID)}
	fill(m)
	require.NoError(t, e.h.handleUpdate(context.Background(), tgbotapi.Update{Message: m}))
}

func TestProofStageRepromptsOnNonImageContent(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, false)
	e.placeOrder(t, 10)

	cases := map[string]func(m *tgbotapi.Message){
		"sticker": func(m *tgbotapi.Message) { m.Sticker = &tgbotapi.Sticker{FileID: "st"} },
		"voice":   func(m *tgbotapi.Message) { m.Voice = &tgbotapi.Voice{FileID: "vc"} },
		"pdf": func(m *tgbotapi.Message) {
			m.Document = &tgbotapi.Document{FileID: "doc", FileName: "receipt.pdf", MimeType: "application/pdf"}
		},
	}
	for name, fill := range cases {
		e.bot.reset()
		e.message(t, 10, fill)
		msgs := e.bot.textsTo(10)
		require.Len(t, msgs, 1, name)
		assert.Equal(t, problemText(usecase.ProblemExpectedPhoto), msgs[0], name)
		assert.Equal(t, cancelKeyboard(cbCancelOrder), e.bot.last(10).markup, name)
		assert.Equal(t, usecase.OrderAwaitingPaymentProof, e.h.orders.Stage(10), name)
	}
	assert.False(t, e.bot.sawText(10, "администратор"))
}

func TestProofAcceptsImageDocument(t *testing.T) {
	e := newTestEnv(t)
	e.h.fetchFile = func(string) ([]byte, error) { return []byte("png-bytes"), nil }
	e.register(t, 10, false)
	order := e.placeOrder(t, 10)

	e.message(t, 10, func(m *tgbotapi.Message) {
		m.Document = &tgbotapi.Document{FileID: "doc", FileName: "receipt.PNG", MimeType: "image/png", FileSize: 9}
	})
	assert.True(t, e.bot.sawText(10, "Скриншот оплаты получен"))
	assert.True(t, e.bot.sawText(testManagerID, "Новый скриншот оплаты"))
	assert.Equal(t, usecase.OrderIdle, e.h.orders.Stage(10))

	saved, err := e.store.GetOrderByCode(context.Background(), order.Code)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(saved.PaymentScreenshot, ".png"), saved.PaymentScreenshot)
}

func TestPhotoOutsideProofStage(t *testing.T) {
	e := newTestEnv(t)
	e.message(t, 15, func(m *tgbotapi.Message) { m.Photo = []tgbotapi.PhotoSize{{FileID: "p"}} })
	assert.True(t, e.bot.sawText(15, "не ожидается"))
}

func TestInvalidPriceKeepsStage(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 12, false)
	e.press(t, 12, cbAssembleOrder)
	e.press(t, 12, cbCategoryPrefix+"Одежда")
	e.text(t, 12, "сто юаней")
	assert.Equal(t, problemText(usecase.ProblemInvalidPrice), e.bot.last(12).text)
	assert.Equal(t, usecase.OrderEnteringPrice, e.h.orders.Stage(12))
}

func TestManagerChangesStatusAndOwnerIsNotified(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, false)
	order := e.placeOrder(t, 10)
	e.bot.reset()

	e.press(t, testManagerID, cbOrderIDPrefix+order.Code)
	assert.Contains(t, e.bot.last(testManagerID).text, "Выберите новый статус")

	e.press(t, testManagerID, cbStatusPrefix+string(entity.StatusPaid))
	assert.True(t, e.bot.sawText(testManagerID, "изменен"))
	assert.True(t, e.bot.sawText(10, "Статус Вашего заказа №"+order.Code))

	got, err := e.store.GetOrderByCode(context.Background(), order.Code)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, got.Status)
}

func TestManagerUpdateStatusByTypedCode(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, false)
	order := e.placeOrder(t, 10)

	e.press(t, testManagerID, cbManagerUpdate)
	e.text(t, testManagerID, "Z999")
	assert.Equal(t, problemText(usecase.ProblemOrderNotFound), e.bot.last(testManagerID).text)

	e.text(t, testManagerID, strings.ToLower(order.Code))
	assert.Contains(t, e.bot.last(testManagerID).text, "№"+order.Code)

	e.press(t, testManagerID, cbStatusPrefix+string(entity.StatusCancelled))
	got, err := e.store.GetOrderByCode(context.Background(), order.Code)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, got.Status)
}

func TestManagerTrackingNotifiesOwner(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, false)
	order := e.placeOrder(t, 10)

	e.press(t, testManagerID, cbManagerTracking)
	e.text(t, testManagerID, "нет")
	assert.Equal(t, problemText(usecase.ProblemInvalidTracking), e.bot.last(testManagerID).text)

	e.text(t, testManagerID, order.Code+" RB123456789CN 25.12.2026")
	assert.True(t, e.bot.sawText(testManagerID, "Трек-номер сохранен"))
	assert.True(t, e.bot.sawText(10, "RB123456789CN"))
	assert.True(t, e.bot.sawText(10, "25.12.2026"))
}

func TestTrackCallbacks(t *testing.T) {
	e := newTestEnv(t)
	e.press(t, 13, cbStatusInfo)
	assert.Contains(t, e.bot.last(13).text, "Информация о статусах")

	e.press(t, 13, cbOrderHistory)
	assert.True(t, e.bot.sawText(13, "не зарегистрированы"))

	e.register(t, 13, false)
	e.press(t, 13, cbCheckStatus)
	assert.Equal(t, "У вас нет активных заказов.", e.bot.last(13).text)

	order := e.placeOrder(t, 13)
	e.press(t, 13, cbCheckStatus)
	assert.Contains(t, e.bot.last(13).text, order.Code)
}

func TestCalculatorThroughButtons(t *testing.T) {
	e := newTestEnv(t)
	e.press(t, 14, cbCalculatePrice)
	e.press(t, 14, cbRetail)
	e.press(t, 14, cbCalcCategoryPrefix+"Одежда")
	e.text(t, 14, "100")
	e.press(t, 14, cbCalcDeliveryPrefix+constants.DeliveryAuto)

	assert.True(t, e.bot.sawText(14, "ИТОГО: 2050.00₽"))
	assert.Equal(t, usecase.CalcIdle, e.h.calculator.Stage(14))

	orders, err := e.store.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestWholesaleRequestGoesToManager(t *testing.T) {
	e := newTestEnv(t)
	e.press(t, 15, cbCalculatePrice)
	e.press(t, 15, cbWholesale)
	assert.True(t, e.bot.sawText(15, "не зарегистрированы"))

	e.register(t, 15, false)
	e.press(t, 15, cbCalculatePrice)
	e.press(t, 15, cbWholesale)
	assert.True(t, e.bot.sawText(testManagerID, "Запрос оптового заказа"))
}

func TestSupportQuestionForwardedToManager(t *testing.T) {
	e := newTestEnv(t)
	e.text(t, 16, helpButtonText)
	e.text(t, 16, "Когда придет мой заказ?")

	assert.True(t, e.bot.sawText(testManagerID, "Когда придет мой заказ?"))
	assert.True(t, e.bot.sawText(testManagerID, "ID 16"))
	assert.True(t, e.bot.sawText(16, "отправлен менеджеру"))
}

func TestCancelCommandResetsConversation(t *testing.T) {
	e := newTestEnv(t)
	e.press(t, 17, cbRegistration)
	require.Equal(t, usecase.RegistrationEnteringName, e.h.registration.Stage(17))

	e.text(t, 17, "/cancel")
	assert.Equal(t, usecase.RegistrationIdle, e.h.registration.Stage(17))
	assert.Equal(t, "Действие отменено.", e.bot.last(17).text)
}

func TestGroupChatsAreIgnored(t *testing.T) {
	e := newTestEnv(t)
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 18},
		Chat: &tgbotapi.Chat{ID: -100, Type: "supergroup"},
		Text: "/start",
	}}
	require.NoError(t, e.h.handleUpdate(context.Background(), update))
	assert.Empty(t, e.bot.textsTo(-100))
}

func TestAdminRateAndPrices(t *testing.T) {
	e := newTestEnv(t)
	e.text(t, testAdminID, "/rate")
	assert.Contains(t, e.bot.last(testAdminID).text, "12.5000")

	e.press(t, testAdminID, cbAdminPrices)
	last := e.bot.last(testAdminID).text
	assert.Contains(t, last, "Одежда: 800.00₽")
	assert.Contains(t, last, constants.DeliveryAir)
}

func TestAdminExportSendsDocument(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, 10, false)
	e.placeOrder(t, 10)

	e.text(t, testAdminID, "/export")
	assert.Equal(t, "📊 Отчет по заказам", e.bot.last(testAdminID).text)
}

func TestExpireConversations(t *testing.T) {
	e := newTestEnv(t)
	e.text(t, 19, helpButtonText)
	require.Equal(t, 1, e.h.convs.Len())

	e.h.conversationTimeout = time.Hour
	assert.Zero(t, e.h.expireConversations())

	e.h.conversationTimeout = time.Nanosecond
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, e.h.expireConversations())
	assert.Zero(t, e.h.convs.Len())
}
