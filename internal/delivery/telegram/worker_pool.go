package telegram

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/poizon-order-bot/internal/metric"
)

// updateRequest represents an update to be processed
type updateRequest struct {
	ctx      context.Context
	userID   int64
	chatID   int64
	kind     string
	update   tgbotapi.Update
	received time.Time
}

// workerPool manages parallel processing of updates.
// Each user is pinned to one worker queue, so a user's updates run in arrival order.
type workerPool struct {
	queues    []chan *updateRequest
	queueSize int
	handler   *BotHandler
	wg        sync.WaitGroup

	// Rate limiting per user
	rateLimiter   map[int64]*userRateLimit
	rateLimiterMu sync.RWMutex
}

// userRateLimit tracks rate limiting per user
type userRateLimit struct {
	lastRequest  time.Time
	requestCount int
	mu           sync.Mutex
}

const (
	maxRequestsPerSecond   = 3
	requestQueueSize       = 100 // per worker
	defaultWorkerCount     = 30
	defaultUpdateTimeout   = 30 * time.Second
	rateLimiterCleanupTime = 5 * time.Minute  // How often to clean up rate limiters
	rateLimiterMaxIdleTime = 10 * time.Minute // Max idle time before removing rate limiter
	maxRateLimitersInCache = 10000            // Max number of rate limiters to keep in memory
)

// newWorkerPool creates a new worker pool; queueSize is per worker
func newWorkerPool(handler *BotHandler, workerCount, queueSize int) *workerPool {
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}
	if queueSize <= 0 {
		queueSize = requestQueueSize
	}
	queues := make([]chan *updateRequest, workerCount)
	for i := range queues {
		queues[i] = make(chan *updateRequest, queueSize)
	}
	return &workerPool{
		queues:      queues,
		queueSize:   queueSize,
		handler:     handler,
		rateLimiter: make(map[int64]*userRateLimit),
	}
}

// queueFor user -> doimiy worker navbati
func (wp *workerPool) queueFor(userID int64) int {
	idx := userID % int64(len(wp.queues))
	if idx < 0 {
		idx = -idx
	}
	return int(idx)
}

// newUpdateRequest false for updates the bot does not handle (channel posts, edits...)
func newUpdateRequest(ctx context.Context, update tgbotapi.Update) (*updateRequest, bool) {
	req := &updateRequest{ctx: ctx, update: update, received: time.Now()}
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
			return nil, false
		}
		req.kind = "callback"
		req.userID = cq.From.ID
		req.chatID = cq.Message.Chat.ID
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat == nil {
			return nil, false
		}
		req.kind = "message"
		if extractCommand(msg) != "" {
			req.kind = "command"
		}
		req.userID = msg.From.ID
		req.chatID = msg.Chat.ID
	default:
		return nil, false
	}
	return req, true
}

// start starts all workers
func (wp *workerPool) start(ctx context.Context) {
	log.Printf("Starting %d workers for parallel update processing", len(wp.queues))

	for i := range wp.queues {
		wp.wg.Add(1)
		go wp.worker(ctx, i, wp.queues[i])
	}

	// Cleanup old rate limit entries periodically
	go wp.cleanupRateLimits(ctx)
}

// worker processes updates from the queue
func (wp *workerPool) worker(ctx context.Context, id int, queue <-chan *updateRequest) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		case req, ok := <-queue:
			if !ok {
				log.Printf("Worker %d shutting down (queue closed)", id)
				return
			}
			if req == nil {
				continue
			}

			// Check rate limit
			if !wp.checkRateLimit(req.userID) {
				wp.handler.sendMessage(req.chatID, "⚠️ Слишком много запросов. Пожалуйста, подождите немного.")
				metric.ObserveUpdate(req.kind, req.received, "rate_limited")
				continue
			}

			// Process with timeout
			wp.processUpdateWithTimeout(req)
		}
	}
}

// processUpdateWithTimeout processes an update with context timeout
func (wp *workerPool) processUpdateWithTimeout(req *updateRequest) {
	if wp.handler == nil {
		log.Printf("worker pool: handler is nil, skipping request user=%d", req.userID)
		return
	}

	ctx, cancel := context.WithTimeout(req.ctx, wp.handler.updateTimeout)
	defer cancel()

	status := "ok"
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in update processing for user %d: %v", req.userID, r)
			wp.handler.sendMessage(req.chatID, "⚠️ Произошла внутренняя ошибка. Пожалуйста, попробуйте еще раз.")
			status = "panic"
		}
		metric.ObserveUpdate(req.kind, req.received, status)
	}()

	if err := wp.handler.handleUpdate(ctx, req.update); err != nil {
		status = "error"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = "timeout"
			log.Printf("Update timeout for user %d after %v", req.userID, wp.handler.updateTimeout)
			wp.handler.sendMessage(req.chatID, "⏱️ Время обработки запроса истекло. Пожалуйста, попробуйте еще раз.")
			return
		}
		log.Printf("Update error for user %d: %v", req.userID, err)
		wp.handler.sendMessage(req.chatID, genericErrorText)
	}
}

// checkRateLimit checks if user is within rate limit
func (wp *workerPool) checkRateLimit(userID int64) bool {
	wp.rateLimiterMu.Lock()
	defer wp.rateLimiterMu.Unlock()

	limiter, exists := wp.rateLimiter[userID]
	if !exists {
		wp.rateLimiter[userID] = &userRateLimit{
			lastRequest:  time.Now(),
			requestCount: 1,
		}
		return true
	}

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := time.Now()
	// Reset counter if more than 1 second has passed
	if now.Sub(limiter.lastRequest) >= time.Second {
		limiter.requestCount = 1
		limiter.lastRequest = now
		return true
	}

	if limiter.requestCount >= maxRequestsPerSecond {
		log.Printf("Rate limit exceeded for user %d", userID)
		return false
	}

	limiter.requestCount++
	return true
}

// cleanupRateLimits removes old rate limit entries
func (wp *workerPool) cleanupRateLimits(ctx context.Context) {
	ticker := time.NewTicker(rateLimiterCleanupTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			wp.dropIdleRateLimits(time.Now())
		}
	}
}

func (wp *workerPool) dropIdleRateLimits(now time.Time) {
	toDelete := []int64{}

	// First pass: collect users to delete (without holding both locks)
	wp.rateLimiterMu.RLock()
	cacheSize := len(wp.rateLimiter)
	for userID, limiter := range wp.rateLimiter {
		limiter.mu.Lock()
		if now.Sub(limiter.lastRequest) > rateLimiterMaxIdleTime {
			toDelete = append(toDelete, userID)
		}
		limiter.mu.Unlock()
	}
	wp.rateLimiterMu.RUnlock()

	if len(toDelete) > 0 {
		wp.rateLimiterMu.Lock()
		for _, userID := range toDelete {
			delete(wp.rateLimiter, userID)
		}
		wp.rateLimiterMu.Unlock()
		log.Printf("Cleaned up %d inactive rate limiters (total: %d -> %d)", len(toDelete), cacheSize, cacheSize-len(toDelete))
		cacheSize -= len(toDelete)
	}

	// If cache is still too large, remove oldest entries
	if cacheSize > maxRateLimitersInCache {
		wp.evictOldestRateLimiters(cacheSize - maxRateLimitersInCache)
	}
}

// evictOldestRateLimiters removes oldest rate limiters when cache is full
func (wp *workerPool) evictOldestRateLimiters(count int) {
	type userTime struct {
		userID      int64
		lastRequest time.Time
	}

	wp.rateLimiterMu.RLock()
	users := make([]userTime, 0, len(wp.rateLimiter))
	for userID, limiter := range wp.rateLimiter {
		limiter.mu.Lock()
		users = append(users, userTime{userID: userID, lastRequest: limiter.lastRequest})
		limiter.mu.Unlock()
	}
	wp.rateLimiterMu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		return users[i].lastRequest.Before(users[j].lastRequest)
	})

	wp.rateLimiterMu.Lock()
	deleted := 0
	for i := 0; i < len(users) && deleted < count; i++ {
		delete(wp.rateLimiter, users[i].userID)
		deleted++
	}
	wp.rateLimiterMu.Unlock()

	if deleted > 0 {
		log.Printf("Evicted %d oldest rate limiters to prevent memory leak", deleted)
	}
}

// submit submits an update to the user's worker queue.
// A full queue drops the update; the user is told to wait and resend.
func (wp *workerPool) submit(req *updateRequest) bool {
	idx := wp.queueFor(req.userID)
	select {
	case wp.queues[idx] <- req:
		return true
	default:
		log.Printf("Worker queue %d is full (%d/%d), rejecting update from user %d", idx, len(wp.queues[idx]), wp.queueSize, req.userID)
		wp.handler.sendMessage(req.chatID, "⚠️ Бот сейчас перегружен, сообщение не обработано. Пожалуйста, отправьте его еще раз через минуту.")
		metric.ObserveUpdate(req.kind, req.received, "rejected")
		return false
	}
}

// shutdown gracefully shuts down the worker pool
func (wp *workerPool) shutdown() {
	pending := 0
	for _, q := range wp.queues {
		pending += len(q)
		close(q)
	}
	log.Printf("Shutting down worker pool, %d updates in queue", pending)
	wp.wg.Wait()
	log.Println("Worker pool shut down successfully")
}
