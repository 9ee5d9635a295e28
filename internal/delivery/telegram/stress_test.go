package telegram

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/poizon-order-bot/internal/usecase"
)

// TestStressMultipleConcurrentUsers - parallel foydalanuvchilar kalkulyatordan o'tadi
func TestStressMultipleConcurrentUsers(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	numUsers := 50
	var wg sync.WaitGroup
	var failed int64

	startTime := time.Now()
	for i := 0; i < numUsers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			steps := []tgbotapi.Update{
				callbackUpdate(userID, cbCalculatePrice),
				callbackUpdate(userID, cbRetail),
				callbackUpdate(userID, cbCalcCategoryPrefix+"Одежда"),
				textUpdate(userID, "100"),
				callbackUpdate(userID, cbCalcDeliveryPrefix+"Автоэкспресс"),
			}
			for _, u := range steps {
				if err := e.h.handleUpdate(ctx, u); err != nil {
					atomic.AddInt64(&failed, 1)
					t.Errorf("user %d: %v", userID, err)
					return
				}
			}
		}(int64(1000 + i))
	}
	wg.Wait()

	t.Logf("📊 %d users, %v", numUsers, time.Since(startTime))
	assert.Zero(t, failed)
	for i := 0; i < numUsers; i++ {
		userID := int64(1000 + i)
		assert.True(t, e.bot.sawText(userID, "ИТОГО: 2050.00₽"), "user %d", userID)
		assert.Equal(t, usecase.CalcIdle, e.h.calculator.Stage(userID))
	}
}

// TestStressRateLimiting - 3 so'rov/soniya
func TestStressRateLimiting(t *testing.T) {
	e := newTestEnv(t)
	wp := e.h.workerPool
	userID := int64(12345)

	var accepted, rejected int
	for i := 0; i < 10; i++ {
		if wp.checkRateLimit(userID) {
			accepted++
		} else {
			rejected++
		}
	}
	assert.Equal(t, maxRequestsPerSecond, accepted)
	assert.Equal(t, 10-maxRequestsPerSecond, rejected)

	time.Sleep(1100 * time.Millisecond)
	assert.True(t, wp.checkRateLimit(userID), "limit resets after a second")
}

func TestDropIdleRateLimits(t *testing.T) {
	e := newTestEnv(t)
	wp := e.h.workerPool
	wp.checkRateLimit(1)
	wp.checkRateLimit(2)

	wp.dropIdleRateLimits(time.Now())
	assert.Len(t, wp.rateLimiter, 2)

	wp.dropIdleRateLimits(time.Now().Add(rateLimiterMaxIdleTime + time.Minute))
	assert.Empty(t, wp.rateLimiter)
}

// TestStressWorkerPoolQueue - navbat to'lganda update rad etiladi
func TestStressWorkerPoolQueue(t *testing.T) {
	e := newTestEnv(t)
	wp := newWorkerPool(e.h, 2, 4)
	ctx := context.Background()

	// workerlar ishga tushirilmagan, navbat bo'shatilmaydi
	var submitted, rejected int
	for i := 0; i < 4+5; i++ {
		req, ok := newUpdateRequest(ctx, textUpdate(10, fmt.Sprintf("test %d", i)))
		require.True(t, ok)
		if wp.submit(req) {
			submitted++
		} else {
			rejected++
		}
	}
	assert.Equal(t, 4, submitted)
	assert.Equal(t, 5, rejected)
	assert.True(t, e.bot.sawText(10, "перегружен"))

	// boshqa worker navbatidagi foydalanuvchi ta'sirlanmaydi
	req, ok := newUpdateRequest(ctx, textUpdate(11, "salom"))
	require.True(t, ok)
	assert.True(t, wp.submit(req))
}

func TestWorkerPoolPinsUserToOneQueue(t *testing.T) {
	e := newTestEnv(t)
	wp := newWorkerPool(e.h, 4, 10)
	ctx := context.Background()

	for step := 0; step < 3; step++ {
		for userID := int64(20); userID < 28; userID++ {
			req, ok := newUpdateRequest(ctx, textUpdate(userID, fmt.Sprintf("%d", step)))
			require.True(t, ok)
			require.True(t, wp.submit(req))
		}
	}

	seen := map[int64][]string{}
	for idx, q := range wp.queues {
		close(q)
		for req := range q {
			assert.Equal(t, idx, wp.queueFor(req.userID))
			seen[req.userID] = append(seen[req.userID], req.update.Message.Text)
		}
	}
	require.Len(t, seen, 8)
	for userID, texts := range seen {
		assert.Equal(t, []string{"0", "1", "2"}, texts, "user %d", userID)
	}
	assert.Equal(t, 3, wp.queueFor(-7))
}

func TestWorkerPoolAppliesUserStepsInOrder(t *testing.T) {
	e := newTestEnv(t)
	wp := newWorkerPool(e.h, 8, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.start(ctx)

	users := 30
	for i := 0; i < users; i++ {
		userID := int64(700 + i)
		for _, u := range []tgbotapi.Update{
			callbackUpdate(userID, cbCalculatePrice),
			callbackUpdate(userID, cbRetail),
			callbackUpdate(userID, cbCalcCategoryPrefix+"Одежда"),
		} {
			req, ok := newUpdateRequest(ctx, u)
			require.True(t, ok)
			require.True(t, wp.submit(req))
		}
	}
	wp.shutdown()

	for i := 0; i < users; i++ {
		assert.Equal(t, usecase.CalcEnteringPrice, e.h.calculator.Stage(int64(700+i)), "user %d", 700+i)
	}
}

func TestWorkerPoolProcessesUpdates(t *testing.T) {
	e := newTestEnv(t)
	wp := e.h.workerPool
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.start(ctx)

	for i := 0; i < 10; i++ {
		req, ok := newUpdateRequest(ctx, textUpdate(int64(500+i), "/start"))
		require.True(t, ok)
		assert.Equal(t, "command", req.kind)
		require.True(t, wp.submit(req))
	}
	wp.shutdown()

	for i := 0; i < 10; i++ {
		assert.True(t, e.bot.sawText(int64(500+i), "Добро пожаловать"))
	}
}

func TestNewUpdateRequestKinds(t *testing.T) {
	ctx := context.Background()
	req, ok := newUpdateRequest(ctx, callbackUpdate(7, cbMainMenu))
	require.True(t, ok)
	assert.Equal(t, "callback", req.kind)
	assert.Equal(t, int64(7), req.userID)

	req, ok = newUpdateRequest(ctx, textUpdate(7, "salom"))
	require.True(t, ok)
	assert.Equal(t, "message", req.kind)

	_, ok = newUpdateRequest(ctx, tgbotapi.Update{})
	assert.False(t, ok)
}

func textUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 100,
		From:      &tgbotapi.User{ID: userID},
		Chat:      privateChat(userID),
		Text:      text,
	}}
}

func callbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: 1, Chat: privateChat(userID)},
		Data:    data,
	}}
}
