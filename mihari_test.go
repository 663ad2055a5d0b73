package mihari

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithStateDir(t.TempDir())}, opts...)
	app, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app
}

func TestNewWithDefaults(t *testing.T) {
	app := testApp(t)
	assert.Zero(t, app.ActiveSessionCount())
	assert.NotEmpty(t, app.AlertRules(), "default rules are installed")
}

func TestSessionLifecycle(t *testing.T) {
	app := testApp(t)

	s := app.StartSession(map[string]any{"text": "need a REST API"}, map[string]any{"user_segment": "free"})
	assert.True(t, strings.HasPrefix(s.CorrelationID, "tsg_"))
	assert.Equal(t, 1, app.ActiveSessionCount())

	got, ok := app.ActiveSession(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.CorrelationID, got.CorrelationID)

	app.TrackParsingStep(s.ID, "requirement_parsing", nil, 120, true, "")
	app.TrackExtractionStep(s.ID, "tech_extraction", map[string]any{
		"technologies": []string{"FastAPI", "PostgreSQL"},
		"requirements": "need a REST API with FastAPI and PostgreSQL",
	}, 310, true, "")

	done := app.CompleteSession(s.ID, map[string]any{"stack": []string{"FastAPI", "PostgreSQL"}}, map[string]any{"duration_seconds": 4.2}, true, "")
	require.NotNil(t, done)
	assert.Equal(t, "completed", done.Status)
	assert.Zero(t, app.ActiveSessionCount())

	// Completing again is a no-op.
	assert.Nil(t, app.CompleteSession(s.ID, nil, nil, true, ""))
}

func TestUnknownSessionLookups(t *testing.T) {
	app := testApp(t)
	_, ok := app.ActiveSession(uuid.New())
	assert.False(t, ok)
	assert.Nil(t, app.CompleteSession(uuid.New(), nil, nil, true, ""))
}

func TestRecordMetricBuildsBaseline(t *testing.T) {
	app := testApp(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		assert.Nil(t, app.RecordMetric(ctx, "llm", "llm_interaction", "llm_duration_ms", 100, nil))
	}
	bn := app.RecordMetric(ctx, "llm", "llm_interaction", "llm_duration_ms", 900, nil)
	require.NotNil(t, bn)
	assert.Equal(t, "llm", bn.Component)
	assert.Equal(t, "critical", string(bn.Severity))
}

func TestRecordSatisfaction(t *testing.T) {
	app := testApp(t)

	sentiment, areas := app.RecordSatisfaction(context.Background(), uuid.New(), map[string]float64{
		"accuracy": 5,
		"speed":    2,
	}, "fast enough, accurate")

	assert.Equal(t, "negative", sentiment) // mean 3.5 is not above the positive cutoff
	assert.Equal(t, []string{"speed"}, areas)
}

func TestRegisterAlertRuleAndStats(t *testing.T) {
	app := testApp(t)

	ok := app.RegisterAlertRule(AlertRule{
		RuleID:         "latency_p99_high",
		Name:           "p99 latency too high",
		MetricName:     "latency_p99_ms",
		Condition:      "gt",
		ThresholdValue: 2000,
		Severity:       SeverityWarning,
		Enabled:        true,
		Channels:       []string{"log"},
	})
	assert.True(t, ok)

	var found bool
	for _, r := range app.AlertRules() {
		if r.RuleID == "latency_p99_high" {
			found = true
		}
	}
	assert.True(t, found)

	// Invalid rules are rejected.
	assert.False(t, app.RegisterAlertRule(AlertRule{RuleID: "broken"}))

	stats := app.AlertStats()
	assert.Zero(t, stats.TotalAlerts)
}

func TestQualityStatusAfterScoring(t *testing.T) {
	app := testApp(t)

	s := app.StartSession(map[string]any{"text": "api"}, nil)
	app.TrackValidationStep(s.ID, "stack_validation", map[string]any{
		"stack": []string{"PostgreSQL", "Redis", "Docker"},
	}, 80, true, "")
	app.CompleteSession(s.ID, nil, nil, true, "")

	// Consumers only see events after a flush.
	require.NoError(t, app.Shutdown(context.Background()))

	status := app.QualityStatus()
	assert.Equal(t, "healthy", status.Overall)
	require.NotEmpty(t, status.Metrics)
}

func TestDashboardSubscription(t *testing.T) {
	app := testApp(t)
	sub := app.SubscribeDashboard()
	app.UnsubscribeDashboard(sub)
	_, open := <-sub
	assert.False(t, open)
}
