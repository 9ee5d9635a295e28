package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
)

func TestConversationSnapshotIsACopy(t *testing.T) {
	s := NewConversationStore()
	require.NoError(t, s.With(1, func(c *Conversation) error {
		c.Active = FlowOrder
		c.Order.Cart = []entity.LineItem{{Category: "Одежда"}}
		return nil
	}))

	snap, ok := s.Snapshot(1)
	require.True(t, ok)
	snap.Order.Cart[0].Category = "changed"

	again, _ := s.Snapshot(1)
	assert.Equal(t, "Одежда", again.Order.Cart[0].Category)
}

func TestConversationExpire(t *testing.T) {
	s := NewConversationStore()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Reset(1)
	now = now.Add(90 * time.Minute)
	s.Reset(2)
	now = now.Add(45 * time.Minute)

	assert.Equal(t, 1, s.Expire(2*time.Hour))
	assert.Equal(t, 1, s.Len())
	_, ok := s.Snapshot(1)
	assert.False(t, ok)
	_, ok = s.Snapshot(2)
	assert.True(t, ok)
}

func TestConversationSerializesSameUser(t *testing.T) {
	s := NewConversationStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.With(7, func(c *Conversation) error {
				c.Order.Cart = append(c.Order.Cart, entity.LineItem{})
				return nil
			})
		}()
	}
	wg.Wait()
	snap, _ := s.Snapshot(7)
	assert.Len(t, snap.Order.Cart, 100)
}
