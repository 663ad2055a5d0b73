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

func TestTrackSatisfactionPositive(t *testing.T) {
	a := testAnalyzer()
	sid := uuid.New()

	rec := a.TrackSatisfaction(context.Background(), sid, map[string]float64{
		"accuracy":  5,
		"speed":     2,
		"relevance": 4,
	}, "pretty good overall")

	assert.InDelta(t, 11.0/3, rec.Overall, 0.001)
	assert.Equal(t, "positive", rec.Sentiment)
	assert.Equal(t, []string{"speed"}, rec.ImprovementAreas)
	assert.Equal(t, "pretty good overall", rec.Feedback)
}

func TestTrackSatisfactionNegativeRaisesAlert(t *testing.T) {
	alerts := testPerfAlerts()
	a := New(slog.Default(), alerts, testPerfConfig())
	sid := uuid.New()

	rec := a.TrackSatisfaction(context.Background(), sid, map[string]float64{
		"accuracy": 2,
		"speed":    2,
	}, "")

	assert.Equal(t, "negative", rec.Sentiment)
	assert.Equal(t, []string{"accuracy", "speed"}, rec.ImprovementAreas)

	// Normalized overall (2-1)/4 = 0.25 is below the satisfaction rule.
	active := alerts.ActiveAlerts("")
	require.Len(t, active, 1)
	assert.Equal(t, "satisfaction_low", active[0].RuleID)
}

func TestTrackSatisfactionCorrelatesSessionMetrics(t *testing.T) {
	a := testAnalyzer()
	ctx := context.Background()
	sid := uuid.New()

	a.TrackMetric(ctx, model.PerformanceMetric{
		Name:    "parsing_duration_ms",
		Value:   120,
		Context: map[string]any{"session_id": sid.String()},
	})
	a.TrackMetric(ctx, model.PerformanceMetric{
		Name:    "parsing_duration_ms",
		Value:   480,
		Context: map[string]any{"session_id": uuid.New().String()},
	})

	rec := a.TrackSatisfaction(ctx, sid, map[string]float64{"accuracy": 4}, "")
	require.Len(t, rec.Correlated, 1)
	assert.Equal(t, 120.0, rec.Correlated[0].Value)
}

func TestTrackSatisfactionNoScores(t *testing.T) {
	alerts := testPerfAlerts()
	a := New(slog.Default(), alerts, testPerfConfig())

	rec := a.TrackSatisfaction(context.Background(), uuid.New(), nil, "just a comment")
	assert.Zero(t, rec.Overall)
	assert.Equal(t, "negative", rec.Sentiment)
	assert.Empty(t, alerts.ActiveAlerts(""), "no ratings means nothing to evaluate")
}

func TestSatisfactionSummary(t *testing.T) {
	a := testAnalyzer()
	ctx := context.Background()

	a.TrackSatisfaction(ctx, uuid.New(), map[string]float64{"accuracy": 5, "speed": 4}, "")
	a.TrackSatisfaction(ctx, uuid.New(), map[string]float64{"accuracy": 2, "speed": 3}, "")

	sum := a.Satisfaction(time.Hour)
	assert.Equal(t, 2, sum.Records)
	assert.InDelta(t, 3.5, sum.MeanOverall, 0.001) // (4.5 + 2.5) / 2
	assert.InDelta(t, 50, sum.PositivePct, 0.001)
	assert.InDelta(t, 3.5, sum.ByDimension["accuracy"], 0.001)
	assert.InDelta(t, 3.5, sum.ByDimension["speed"], 0.001)
}

func TestSatisfactionSummaryEmptyWindow(t *testing.T) {
	a := testAnalyzer()
	sum := a.Satisfaction(time.Hour)
	assert.Zero(t, sum.Records)
	assert.Zero(t, sum.MeanOverall)
	assert.Nil(t, sum.ByDimension)
}
