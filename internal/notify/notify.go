// Package notify delivers alert notifications through pluggable channels.
// Channels attempt delivery, report success or failure, and never let a
// failure escape the dispatch boundary — a failing channel is logged and
// skipped, it cannot roll back alert creation.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ashita-ai/mihari/internal/model"
)

// Notification is the structured payload handed to every channel.
type Notification struct {
	AlertID        uuid.UUID      `json:"alert_id"`
	Severity       model.Severity `json:"severity"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Timestamp      time.Time      `json:"timestamp"`
	MetricValue    float64        `json:"metric_value"`
	ThresholdValue float64        `json:"threshold_value"`
	SessionID      *uuid.UUID     `json:"session_id,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
}

// FromAlert builds the channel payload for an alert.
func FromAlert(a model.Alert) Notification {
	return Notification{
		AlertID:        a.ID,
		Severity:       a.Severity,
		Title:          a.Title,
		Message:        a.Message,
		Timestamp:      a.Timestamp,
		MetricValue:    a.MetricValue,
		ThresholdValue: a.ThresholdValue,
		SessionID:      a.SessionID,
		Details:        a.Details,
	}
}

// Channel is one notification delivery mechanism.
type Channel interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// Dispatcher fans a notification out to a set of named channels.
type Dispatcher struct {
	logger *slog.Logger

	mu       sync.RWMutex
	channels map[string]Channel
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		channels: make(map[string]Channel),
	}
}

// Register adds or replaces a channel under its own name.
func (d *Dispatcher) Register(ch Channel) {
	d.mu.Lock()
	d.channels[ch.Name()] = ch
	d.mu.Unlock()
}

// Channel returns a registered channel by name.
func (d *Dispatcher) Channel(name string) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, ok := d.channels[name]
	return ch, ok
}

// Names returns the registered channel names.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.channels))
	for name := range d.channels {
		out = append(out, name)
	}
	return out
}

// Dispatch delivers n to each named channel concurrently and returns the
// number of successful deliveries. Channel failures are independent: an
// unknown channel, a returned error, or a panic in one channel never
// affects the others.
func (d *Dispatcher) Dispatch(ctx context.Context, names []string, n Notification) int {
	var delivered atomic.Int64
	g, gctx := errgroup.WithContext(ctx)

	for _, name := range names {
		ch, ok := d.Channel(name)
		if !ok {
			d.logger.Warn("notify: unknown channel", "channel", name, "alert_id", n.AlertID)
			continue
		}
		g.Go(func() error {
			if err := d.deliver(gctx, ch, n); err != nil {
				d.logger.Warn("notify: delivery failed",
					"channel", ch.Name(),
					"alert_id", n.AlertID,
					"error", err,
				)
				return nil // failures are independent, never cancel siblings
			}
			delivered.Add(1)
			return nil
		})
	}

	_ = g.Wait()
	return int(delivered.Load())
}

// deliver invokes one channel, converting panics into errors so a broken
// channel implementation cannot take down the dispatch goroutine.
func (d *Dispatcher) deliver(ctx context.Context, ch Channel, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notify: channel %s panicked: %v", ch.Name(), r)
		}
	}()
	return ch.Notify(ctx, n)
}
