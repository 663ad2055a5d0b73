// Package tracker owns generation-session lifecycle and event buffering.
// Workflow events are recorded synchronously against their session, mirrored
// into a shared ring buffer, and fanned out to subscribed consumers by a
// background flush loop.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/ashita-ai/mihari/internal/model"
	"github.com/ashita-ai/mihari/internal/telemetry"
)

// Consumer receives buffered workflow events from the flush loop.
type Consumer interface {
	Name() string
	ConsumeEvent(ctx context.Context, ev model.WorkflowEvent) error
}

// Config holds the tracker's tuning knobs.
type Config struct {
	MaxSessionDuration  time.Duration
	CleanupInterval     time.Duration
	FlushInterval       time.Duration
	MaxEventsPerSession int
	BufferSoftCap       int
}

// Tracker is the session/event correlation layer. All mutation goes through
// its methods; the active-session map and event buffer are mutex-protected.
type Tracker struct {
	logger *slog.Logger
	cfg    Config
	now    func() time.Time

	mu        sync.Mutex
	active    map[uuid.UUID]*model.Session
	buffer    []model.WorkflowEvent
	consumers []Consumer

	droppedEvents atomic.Int64
	totalSessions atomic.Int64
	timedOut      atomic.Int64
}

// New creates a session tracker.
func New(logger *slog.Logger, cfg Config) *Tracker {
	return &Tracker{
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
		active: make(map[uuid.UUID]*model.Session),
	}
}

// Subscribe registers a consumer for the flush fan-out. Not safe to call
// after Run has started.
func (t *Tracker) Subscribe(c Consumer) {
	t.consumers = append(t.consumers, c)
}

// StartSession allocates a new session, registers it as active, and
// synchronously records the session_start event.
func (t *Tracker) StartSession(requirements, metadata map[string]any) *model.Session {
	id := uuid.New()
	now := t.now().UTC()

	s := &model.Session{
		ID:            id,
		CorrelationID: model.NewCorrelationID(now, id),
		StartTime:     now,
		Status:        model.SessionActive,
		Requirements:  requirements,
		Metadata:      metadata,
	}

	t.mu.Lock()
	t.active[id] = s
	t.recordLocked(s, model.WorkflowEvent{
		Type:      model.EventSessionStart,
		Component: "tracker",
		Operation: "start_session",
		Data:      map[string]any{"requirements": requirements, "metadata": metadata},
		Success:   true,
	})
	t.mu.Unlock()

	t.totalSessions.Add(1)
	t.logger.Info("session started",
		"session_id", id,
		"correlation_id", s.CorrelationID,
	)
	return s.Clone()
}

// TrackStep records one workflow step against its session. An unknown
// session id is logged and ignored — a step arriving after eviction must
// never raise or mutate anything.
func (t *Tracker) TrackStep(sessionID uuid.UUID, eventType model.EventType, component, operation string, data map[string]any, durationMs *float64, success bool, errMsg string) {
	t.mu.Lock()
	s, ok := t.active[sessionID]
	if !ok {
		t.mu.Unlock()
		t.logger.Warn("tracker: step for unknown session",
			"session_id", sessionID,
			"event_type", eventType,
		)
		return
	}
	t.recordLocked(s, model.WorkflowEvent{
		Type:         eventType,
		Component:    component,
		Operation:    operation,
		Data:         data,
		DurationMs:   durationMs,
		Success:      success,
		ErrorMessage: errMsg,
	})
	t.mu.Unlock()
}

// CompleteSession finalizes a session and removes it from the active set.
// Returns nil if the session was already gone.
func (t *Tracker) CompleteSession(sessionID uuid.UUID, result map[string]any, metrics map[string]any, success bool, errMsg string) *model.Session {
	t.mu.Lock()
	s, ok := t.active[sessionID]
	if !ok {
		t.mu.Unlock()
		return nil
	}

	now := t.now().UTC()
	s.EndTime = &now
	eventType := model.EventSessionComplete
	if success {
		s.Status = model.SessionCompleted
	} else {
		s.Status = model.SessionError
		eventType = model.EventSessionError
	}

	data := map[string]any{"result": result, "metrics": metrics}
	t.recordLocked(s, model.WorkflowEvent{
		Type:         eventType,
		Component:    "tracker",
		Operation:    "complete_session",
		Data:         data,
		Success:      success,
		ErrorMessage: errMsg,
	})
	delete(t.active, sessionID)
	out := s.Clone()
	t.mu.Unlock()

	t.logger.Info("session completed",
		"session_id", sessionID,
		"correlation_id", out.CorrelationID,
		"status", out.Status,
		"duration", now.Sub(out.StartTime),
	)
	return out
}

// Session returns a copy of an active session.
func (t *Tracker) Session(sessionID uuid.UUID) (*model.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.active[sessionID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// ActiveCount returns the number of active sessions.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// BufferLen returns the current shared-buffer depth.
func (t *Tracker) BufferLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buffer)
}

// DroppedEvents returns the count of events dropped at the buffer soft cap.
// A non-zero value indicates fan-out data loss.
func (t *Tracker) DroppedEvents() int64 { return t.droppedEvents.Load() }

// TimedOutSessions returns the count of sessions evicted by the cleanup loop.
func (t *Tracker) TimedOutSessions() int64 { return t.timedOut.Load() }

// recordLocked stamps ids/timestamps on ev, appends it to the session's
// FIFO-capped event log, and mirrors it into the shared buffer.
// Caller holds t.mu.
func (t *Tracker) recordLocked(s *model.Session, ev model.WorkflowEvent) {
	ev.ID = uuid.New()
	ev.SessionID = s.ID
	ev.CorrelationID = s.CorrelationID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = t.now().UTC()
	}

	if len(s.Events) >= t.cfg.MaxEventsPerSession {
		// FIFO eviction: oldest dropped first.
		drop := len(s.Events) - t.cfg.MaxEventsPerSession + 1
		s.Events = append(s.Events[:0], s.Events[drop:]...)
	}
	s.Events = append(s.Events, ev)

	if len(t.buffer) >= t.cfg.BufferSoftCap {
		t.buffer = t.buffer[1:]
		t.droppedEvents.Add(1)
	}
	t.buffer = append(t.buffer, ev)
}

// Run starts the cleanup and flush loops and registers OTEL gauges.
// It blocks until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	t.registerMetrics()
	go t.cleanupLoop(ctx)
	go t.flushLoop(ctx)
	<-ctx.Done()
}

func (t *Tracker) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.safeIteration(ctx, "cleanup", func() {
				if n := t.evictExpired(); n > 0 {
					t.logger.Info("tracker: evicted expired sessions", "count", n)
				}
			})
		}
	}
}

func (t *Tracker) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.safeIteration(ctx, "flush", func() { t.Flush(ctx) })
		}
	}
}

func (t *Tracker) safeIteration(ctx context.Context, loop string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("tracker: loop iteration panicked", "loop", loop, "panic", r)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}()
	fn()
}

// evictExpired times out sessions older than the configured max duration,
// completing each with a synthetic failure.
func (t *Tracker) evictExpired() int {
	t.mu.Lock()
	now := t.now().UTC()
	var expired []*model.Session
	for id, s := range t.active {
		if now.Sub(s.StartTime) <= t.cfg.MaxSessionDuration {
			continue
		}
		s.Status = model.SessionTimeout
		end := now
		s.EndTime = &end
		t.recordLocked(s, model.WorkflowEvent{
			Type:         model.EventSessionError,
			Component:    "tracker",
			Operation:    "cleanup",
			Success:      false,
			ErrorMessage: fmt.Sprintf("session timed out after %s", t.cfg.MaxSessionDuration),
		})
		delete(t.active, id)
		expired = append(expired, s)
	}
	t.mu.Unlock()

	for _, s := range expired {
		t.timedOut.Add(1)
		t.logger.Warn("session timed out",
			"session_id", s.ID,
			"correlation_id", s.CorrelationID,
			"age", t.now().UTC().Sub(s.StartTime),
		)
	}
	return len(expired)
}

// Flush drains the shared buffer and fans each event out to every
// subscribed consumer. When any consumer fails, the most recent half of the
// batch is put back for retry so memory stays bounded without silently
// losing the whole batch.
func (t *Tracker) Flush(ctx context.Context) {
	t.mu.Lock()
	if len(t.buffer) == 0 {
		t.mu.Unlock()
		return
	}
	batch := t.buffer
	t.buffer = nil
	t.mu.Unlock()

	start := t.now()
	failed := false
	for _, ev := range batch {
		for _, c := range t.consumers {
			if err := t.consume(ctx, c, ev); err != nil {
				failed = true
				t.logger.Warn("tracker: consumer failed",
					"consumer", c.Name(),
					"event_type", ev.Type,
					"session_id", ev.SessionID,
					"error", err,
				)
			}
		}
	}

	if failed {
		keep := batch[len(batch)/2:]
		t.mu.Lock()
		if len(t.buffer)+len(keep) <= t.cfg.BufferSoftCap {
			t.buffer = append(keep, t.buffer...)
		} else {
			t.droppedEvents.Add(int64(len(keep)))
			t.logger.Error("tracker: dropping events, buffer at soft cap after consumer failure", "dropped", len(keep))
		}
		t.mu.Unlock()
		return
	}

	t.logger.Debug("tracker: batch flushed",
		"batch_size", len(batch),
		"flush_duration_ms", time.Since(start).Milliseconds(),
	)
}

// consume invokes one consumer with panic isolation.
func (t *Tracker) consume(ctx context.Context, c Consumer, ev model.WorkflowEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tracker: consumer %s panicked: %v", c.Name(), r)
		}
	}()
	return c.ConsumeEvent(ctx, ev)
}

// ForceCompleteAll completes every remaining active session with an error
// status. Used during shutdown.
func (t *Tracker) ForceCompleteAll(reason string) int {
	t.mu.Lock()
	ids := make([]uuid.UUID, 0, len(t.active))
	for id := range t.active {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	n := 0
	for _, id := range ids {
		if s := t.CompleteSession(id, nil, nil, false, reason); s != nil {
			n++
		}
	}
	return n
}

// registerMetrics registers observable OTEL gauges for tracker health.
func (t *Tracker) registerMetrics() {
	meter := telemetry.Meter("mihari/tracker")

	_, _ = meter.Int64ObservableGauge("mihari.tracker.buffer_depth",
		metric.WithDescription("Current number of events in the shared fan-out buffer"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(t.BufferLen()))
			return nil
		}),
	)

	_, _ = meter.Int64ObservableGauge("mihari.tracker.active_sessions",
		metric.WithDescription("Current number of active generation sessions"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(t.ActiveCount()))
			return nil
		}),
	)

	_, _ = meter.Int64ObservableGauge("mihari.tracker.dropped_total",
		metric.WithDescription("Total events dropped at the buffer soft cap"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(t.DroppedEvents())
			return nil
		}),
	)
}
