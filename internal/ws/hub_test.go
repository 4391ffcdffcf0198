// internal/ws/hub_test.go
package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastDuringClientShutdown(t *testing.T) {
	h := NewHub()
	c := h.AddClient("user-1", nil)

	// A disconnecting client whose write loop has already stopped must still
	// be safe to send to while it remains registered.
	c.cancel()
	time.Sleep(100 * time.Millisecond)

	assert.NotPanics(t, func() {
		h.BroadcastToUsers([]string{"user-1"}, Event{Type: "message.created"})
	})
	assert.Len(t, c.Send, 1)
}

func TestBroadcastToUnknownUserIsNoop(t *testing.T) {
	h := NewHub()

	assert.NotPanics(t, func() {
		h.BroadcastToUsers([]string{"nobody"}, Event{Type: "message.created"})
	})
}

func TestSlowConsumerDropsEvents(t *testing.T) {
	h := NewHub()
	c := h.AddClient("user-1", nil)
	c.cancel()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 100; i++ {
		h.BroadcastToUsers([]string{"user-1"}, Event{Type: "message.created"})
	}

	// Buffer capacity bounds the backlog; overflow is dropped, never blocks.
	assert.Len(t, c.Send, cap(c.Send))
}

func TestPublishToUsersWrapsEvent(t *testing.T) {
	h := NewHub()
	c := h.AddClient("user-1", nil)
	c.cancel()
	time.Sleep(100 * time.Millisecond)

	h.PublishToUsers([]string{"user-1"}, "offer.completed", map[string]string{"id": "x"})

	ev := <-c.Send
	assert.Equal(t, "offer.completed", ev.Type)
	assert.NotNil(t, ev.Data)
}
