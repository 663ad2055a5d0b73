package perf

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/mihari/internal/model"
)

func interactionAt(segment string, at time.Time) model.Interaction {
	return model.Interaction{
		SessionID:   uuid.New(),
		UserSegment: segment,
		Type:        "generation_request",
		Timestamp:   at,
	}
}

func TestUsageAnomalyNeedsBaseline(t *testing.T) {
	a := testAnalyzer()
	// First interactions for a segment have nothing to deviate from.
	assert.Nil(t, a.TrackInteraction(interactionAt("free", time.Now().UTC())))
	assert.Nil(t, a.TrackInteraction(interactionAt("free", time.Now().UTC())))
}

// seedInteractions backfills the interaction buffer without running
// detection on each historical point.
func seedInteractions(a *Analyzer, segment string, at time.Time, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < n; i++ {
		a.interactions = append(a.interactions, interactionAt(segment, at.Add(time.Duration(i)*time.Second)))
	}
}

func TestUsageSpikeDetected(t *testing.T) {
	a := testAnalyzer()
	now := time.Now().UTC()
	a.now = func() time.Time { return now }

	// 23 baseline interactions spread one per hour, plus one already in
	// the current hour.
	for i := 2; i <= 24; i++ {
		seedInteractions(a, "free", now.Add(-time.Duration(i)*time.Hour+time.Minute), 1)
	}
	seedInteractions(a, "free", now.Add(-30*time.Minute), 1)

	// The second in-hour interaction doubles the ~1/h baseline.
	pattern := a.TrackInteraction(interactionAt("free", now.Add(-10*time.Minute)))
	require.NotNil(t, pattern)
	assert.Equal(t, "free", pattern.UserSegment)
	assert.Equal(t, 2.0, pattern.ActualPerHour)
	assert.InDelta(t, 1.0, pattern.BaselinePerHour, 0.001)
	assert.InDelta(t, 100, pattern.DeviationPct, 0.1)
	assert.Contains(t, pattern.Description, "spike")

	got := a.UsagePatterns(time.Hour)
	require.Len(t, got, 1)
}

func TestUsageDropDetected(t *testing.T) {
	cfg := testPerfConfig()
	cfg.UsageDeviationPct = 40
	a := New(slog.Default(), testPerfAlerts(), cfg)
	now := time.Now().UTC()
	a.now = func() time.Time { return now }

	// 46 baseline interactions over 23 hours is 2/h; a single one in the
	// current hour is a 50% drop.
	seedInteractions(a, "pro", now.Add(-2*time.Hour), 46)

	pattern := a.TrackInteraction(interactionAt("pro", now.Add(-5*time.Minute)))
	require.NotNil(t, pattern)
	assert.InDelta(t, -50, pattern.DeviationPct, 0.1)
	assert.Contains(t, pattern.Description, "drop")
}

func TestUsageSegmentsAreIndependent(t *testing.T) {
	a := testAnalyzer()
	now := time.Now().UTC()
	a.now = func() time.Time { return now }

	seedInteractions(a, "free", now.Add(-2*time.Hour), 24)
	// A different segment has no baseline of its own.
	assert.Nil(t, a.TrackInteraction(interactionAt("pro", now)))
}

func TestEmptySegmentDefaults(t *testing.T) {
	a := testAnalyzer()
	a.TrackInteraction(model.Interaction{SessionID: uuid.New(), Type: "generation_request"})

	a.mu.Lock()
	defer a.mu.Unlock()
	require.Len(t, a.interactions, 1)
	assert.Equal(t, "default", a.interactions[0].UserSegment)
}
