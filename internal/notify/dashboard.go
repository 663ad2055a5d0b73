package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// DashboardChannel fans alert notifications out to in-process subscribers
// (a dashboard, a CLI tail, tests). Each subscriber gets a buffered channel
// of JSON-encoded notifications; slow subscribers with a full buffer have
// the event dropped so one slow client cannot block the others.
type DashboardChannel struct {
	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
}

// NewDashboardChannel creates the dashboard push channel.
func NewDashboardChannel() *DashboardChannel {
	return &DashboardChannel{
		subscribers: make(map[chan []byte]struct{}),
	}
}

// Name returns "dashboard".
func (c *DashboardChannel) Name() string { return "dashboard" }

// Subscribe returns a channel that receives JSON-encoded notifications.
// The caller must call Unsubscribe when done.
func (c *DashboardChannel) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel and closes it.
func (c *DashboardChannel) Unsubscribe(ch chan []byte) {
	c.mu.Lock()
	delete(c.subscribers, ch)
	c.mu.Unlock()
	close(ch)
}

// Notify broadcasts the notification to all subscribers.
func (c *DashboardChannel) Notify(_ context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("dashboard: marshal notification: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for ch := range c.subscribers {
		select {
		case ch <- payload:
		default:
			// Subscriber buffer full — drop this event for them.
		}
	}
	return nil
}
