package perf

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/mihari/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func TestConsumeStepEventTracksMetric(t *testing.T) {
	a := testAnalyzer()
	sid := uuid.New()

	err := a.ConsumeEvent(context.Background(), model.WorkflowEvent{
		Type:       model.EventLLMCallComplete,
		SessionID:  sid,
		Component:  "llm",
		Operation:  "llm_interaction",
		DurationMs: floatPtr(1250),
		Timestamp:  time.Now().UTC(),
	})
	require.NoError(t, err)

	b, ok := a.Baseline("llm_interaction_duration_ms")
	require.True(t, ok)
	assert.Equal(t, 1, b.Samples)
	assert.Equal(t, 1250.0, b.Mean)

	// The metric context carries the session for later correlation.
	a.mu.Lock()
	defer a.mu.Unlock()
	require.Len(t, a.metrics, 1)
	assert.Equal(t, sid.String(), a.metrics[0].Context["session_id"])
}

func TestDurationMetricNameFallsBackToEventType(t *testing.T) {
	ev := model.WorkflowEvent{Type: model.EventParsingComplete}
	assert.Equal(t, "parsing_duration_ms", durationMetricName(ev))

	ev.Operation = "requirement_parsing"
	assert.Equal(t, "requirement_parsing_duration_ms", durationMetricName(ev))
}

func TestConsumeSessionStartTracksInteraction(t *testing.T) {
	a := testAnalyzer()

	err := a.ConsumeEvent(context.Background(), model.WorkflowEvent{
		Type:      model.EventSessionStart,
		SessionID: uuid.New(),
		Data:      map[string]any{"user_segment": "pro"},
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	a.mu.Lock()
	defer a.mu.Unlock()
	require.Len(t, a.interactions, 1)
	assert.Equal(t, "pro", a.interactions[0].UserSegment)
	assert.Equal(t, "generation_request", a.interactions[0].Type)
}

func TestConsumeSessionCompleteEvaluatesRules(t *testing.T) {
	alerts := testPerfAlerts()
	a := New(slog.Default(), alerts, testPerfConfig())

	err := a.ConsumeEvent(context.Background(), model.WorkflowEvent{
		Type:      model.EventSessionComplete,
		SessionID: uuid.New(),
		Success:   true,
		Data: map[string]any{
			"duration_seconds": 50.0,
			"failed_steps":     1,
			"total_steps":      2,
		},
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	// 50s breaches both processing time rules, 0.5 breaches error_rate.
	active := alerts.ActiveAlerts("")
	ruleIDs := make(map[string]bool, len(active))
	for _, al := range active {
		ruleIDs[al.RuleID] = true
	}
	assert.True(t, ruleIDs["performance_critical"])
	assert.True(t, ruleIDs["performance_warning"])
	assert.True(t, ruleIDs["error_rate_high"])
}

func TestConsumeSessionErrorDefaultsErrorRate(t *testing.T) {
	alerts := testPerfAlerts()
	a := New(slog.Default(), alerts, testPerfConfig())

	err := a.ConsumeEvent(context.Background(), model.WorkflowEvent{
		Type:      model.EventSessionError,
		SessionID: uuid.New(),
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	active := alerts.ActiveAlerts("")
	require.Len(t, active, 1)
	assert.Equal(t, "error_rate_high", active[0].RuleID)
	assert.Equal(t, 1.0, active[0].MetricValue)
}

func TestAnalyticsSummary(t *testing.T) {
	a := testAnalyzer()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		a.TrackMetric(ctx, latencyMetric(100))
	}
	a.TrackMetric(ctx, latencyMetric(500))
	a.TrackSatisfaction(ctx, uuid.New(), map[string]float64{"accuracy": 4}, "")

	sum := a.Summary(time.Hour)
	assert.Equal(t, 11, sum.BufferedMetrics)
	assert.Len(t, sum.Bottlenecks, 1)
	assert.Contains(t, sum.Baselines, "llm_interaction_duration_ms")
	assert.Equal(t, 1, sum.Satisfaction.Records)
}
