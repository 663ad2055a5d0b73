package tracker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/mihari/internal/model"
)

func testConfig() Config {
	return Config{
		MaxSessionDuration:  30 * time.Minute,
		CleanupInterval:     5 * time.Minute,
		FlushInterval:       5 * time.Second,
		MaxEventsPerSession: 100,
		BufferSoftCap:       10000,
	}
}

// recordingConsumer captures events; fails while failing is set.
type recordingConsumer struct {
	mu      sync.Mutex
	events  []model.WorkflowEvent
	failing bool
}

func (c *recordingConsumer) Name() string { return "recording" }

func (c *recordingConsumer) ConsumeEvent(_ context.Context, ev model.WorkflowEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("consumer unavailable")
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *recordingConsumer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestStartSessionAssignsCorrelationID(t *testing.T) {
	trk := New(slog.Default(), testConfig())
	s := trk.StartSession(map[string]any{"text": "build me an api"}, nil)

	require.NotNil(t, s)
	assert.True(t, strings.HasPrefix(s.CorrelationID, "tsg_"), "correlation id %q", s.CorrelationID)
	assert.Contains(t, s.CorrelationID, s.ID.String()[:8])
	assert.Equal(t, model.SessionActive, s.Status)
	require.Len(t, s.Events, 1)
	assert.Equal(t, model.EventSessionStart, s.Events[0].Type)
	assert.Equal(t, s.CorrelationID, s.Events[0].CorrelationID)
	assert.Equal(t, 1, trk.ActiveCount())
}

func TestTrackStepUnknownSessionIsNoOp(t *testing.T) {
	trk := New(slog.Default(), testConfig())
	before := trk.BufferLen()
	trk.TrackStep(uuid.New(), model.EventParsingComplete, "parser", "parse", nil, nil, true, "")
	assert.Equal(t, before, trk.BufferLen(), "step for unknown session must not buffer anything")
}

func TestEveryEventCarriesSessionCorrelation(t *testing.T) {
	trk := New(slog.Default(), testConfig())
	s := trk.StartSession(nil, nil)

	dur := 12.5
	trk.TrackStep(s.ID, model.EventParsingComplete, "parser", "parse", nil, &dur, true, "")
	trk.TrackStep(s.ID, model.EventExtractionComplete, "extractor", "extract", nil, &dur, true, "")
	done := trk.CompleteSession(s.ID, nil, nil, true, "")

	require.NotNil(t, done)
	assert.Equal(t, model.SessionCompleted, done.Status)
	require.Len(t, done.Events, 4)
	for _, ev := range done.Events {
		assert.Equal(t, s.ID, ev.SessionID)
		assert.Equal(t, s.CorrelationID, ev.CorrelationID)
		assert.NotEqual(t, uuid.Nil, ev.ID)
	}
}

func TestCompleteSessionTwice(t *testing.T) {
	trk := New(slog.Default(), testConfig())
	s := trk.StartSession(nil, nil)

	require.NotNil(t, trk.CompleteSession(s.ID, nil, nil, true, ""))
	assert.Nil(t, trk.CompleteSession(s.ID, nil, nil, true, ""), "second completion returns nil")
	assert.Zero(t, trk.ActiveCount())
}

func TestPerSessionEventCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEventsPerSession = 10
	trk := New(slog.Default(), cfg)
	s := trk.StartSession(nil, nil)

	for i := 0; i < 25; i++ {
		trk.TrackStep(s.ID, model.EventLLMCallComplete, "llm", "call", map[string]any{"i": i}, nil, true, "")
	}

	got, ok := trk.Session(s.ID)
	require.True(t, ok)
	assert.Len(t, got.Events, 10, "per-session log is FIFO-capped")
	// Oldest events evicted: the session_start and early calls are gone.
	assert.Equal(t, model.EventLLMCallComplete, got.Events[0].Type)
	assert.Equal(t, 24, got.Events[len(got.Events)-1].Data["i"])
}

func TestBufferSoftCapDropsOldest(t *testing.T) {
	cfg := testConfig()
	cfg.BufferSoftCap = 5
	trk := New(slog.Default(), cfg)
	s := trk.StartSession(nil, nil)

	for i := 0; i < 10; i++ {
		trk.TrackStep(s.ID, model.EventLLMCallComplete, "llm", "call", nil, nil, true, "")
	}

	assert.Equal(t, 5, trk.BufferLen())
	// 1 session_start + 10 steps = 11 events into a cap of 5.
	assert.Equal(t, int64(6), trk.DroppedEvents())
}

func TestEvictExpiredMarksTimeout(t *testing.T) {
	trk := New(slog.Default(), testConfig())
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	trk.now = func() time.Time { return now }

	old := trk.StartSession(nil, nil)
	now = start.Add(20 * time.Minute)
	fresh := trk.StartSession(nil, nil)

	now = start.Add(31 * time.Minute)
	evicted := trk.evictExpired()

	assert.Equal(t, 1, evicted)
	assert.Equal(t, int64(1), trk.TimedOutSessions())
	_, ok := trk.Session(old.ID)
	assert.False(t, ok, "timed-out session leaves the active set")
	_, ok = trk.Session(fresh.ID)
	assert.True(t, ok, "younger session survives")

	// The synthetic failure event reaches the buffer.
	var sawTimeout bool
	trk.mu.Lock()
	for _, ev := range trk.buffer {
		if ev.SessionID == old.ID && ev.Type == model.EventSessionError {
			sawTimeout = true
			assert.Contains(t, ev.ErrorMessage, "timed out")
		}
	}
	trk.mu.Unlock()
	assert.True(t, sawTimeout)
}

func TestFlushFansOutToAllConsumers(t *testing.T) {
	trk := New(slog.Default(), testConfig())
	c1 := &recordingConsumer{}
	c2 := &recordingConsumer{}
	trk.Subscribe(c1)
	trk.Subscribe(c2)

	s := trk.StartSession(nil, nil)
	trk.TrackStep(s.ID, model.EventParsingComplete, "parser", "parse", nil, nil, true, "")

	trk.Flush(context.Background())

	assert.Equal(t, 2, c1.count())
	assert.Equal(t, 2, c2.count())
	assert.Zero(t, trk.BufferLen())
}

func TestFlushRetainsHalfBatchOnConsumerFailure(t *testing.T) {
	trk := New(slog.Default(), testConfig())
	c := &recordingConsumer{failing: true}
	trk.Subscribe(c)

	s := trk.StartSession(nil, nil)
	for i := 0; i < 7; i++ {
		trk.TrackStep(s.ID, model.EventLLMCallComplete, "llm", "call", nil, nil, true, "")
	}
	require.Equal(t, 8, trk.BufferLen())

	trk.Flush(context.Background())
	assert.Equal(t, 4, trk.BufferLen(), "most recent half retained for retry")

	// Consumer recovers; the retained half drains.
	c.mu.Lock()
	c.failing = false
	c.mu.Unlock()
	trk.Flush(context.Background())
	assert.Zero(t, trk.BufferLen())
	assert.Equal(t, 4, c.count())
}

func TestFlushIsolatesPanickingConsumer(t *testing.T) {
	trk := New(slog.Default(), testConfig())
	trk.Subscribe(panickyConsumer{})
	ok := &recordingConsumer{}
	trk.Subscribe(ok)

	trk.StartSession(nil, nil)
	trk.Flush(context.Background())

	assert.Equal(t, 1, ok.count(), "healthy consumer still receives the batch")
}

type panickyConsumer struct{}

func (panickyConsumer) Name() string { return "panicky" }
func (panickyConsumer) ConsumeEvent(context.Context, model.WorkflowEvent) error {
	panic("boom")
}

func TestForceCompleteAll(t *testing.T) {
	trk := New(slog.Default(), testConfig())
	trk.StartSession(nil, nil)
	trk.StartSession(nil, nil)

	n := trk.ForceCompleteAll("shutdown")
	assert.Equal(t, 2, n)
	assert.Zero(t, trk.ActiveCount())
}
