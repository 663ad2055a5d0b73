package quality

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/mihari/internal/model"
)

func TestConsumeExtractionComplete(t *testing.T) {
	s := testScorer()

	err := s.ConsumeEvent(context.Background(), model.WorkflowEvent{
		Type:      model.EventExtractionComplete,
		SessionID: uuid.New(),
		Data: map[string]any{
			"technologies": []string{"FastAPI", "PostgreSQL", "Redis", "Docker"},
			"requirements": "Build a REST API with the FastAPI framework, PostgreSQL database, Redis caching, and Docker containerization.",
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, s.StoredScores())

	rep := s.Status()
	require.Len(t, rep.Metrics, 1)
	assert.Equal(t, model.MetricExtractionAccuracy, rep.Metrics[0].Metric)
}

func TestConsumeValidationCompleteFallsBackToTechnologies(t *testing.T) {
	s := testScorer()

	// JSON round-tripped payload with no "stack" key.
	err := s.ConsumeEvent(context.Background(), model.WorkflowEvent{
		Type:      model.EventValidationComplete,
		SessionID: uuid.New(),
		Data: map[string]any{
			"technologies": []any{"PostgreSQL", "Redis", "Docker"},
		},
	})
	require.NoError(t, err)

	rep := s.Status()
	require.Len(t, rep.Metrics, 1)
	assert.Equal(t, model.MetricEcosystemConsistency, rep.Metrics[0].Metric)
	assert.Equal(t, 1.0, rep.Metrics[0].Latest)
}

func TestConsumeSessionCompleteSkipsFailures(t *testing.T) {
	s := testScorer()

	err := s.ConsumeEvent(context.Background(), model.WorkflowEvent{
		Type:      model.EventSessionComplete,
		SessionID: uuid.New(),
		Success:   false,
		Data:      map[string]any{"stack": []string{"Redis"}},
	})
	require.NoError(t, err)
	assert.Zero(t, s.StoredScores())
}

func TestConsumeSessionCompletePredictsSatisfaction(t *testing.T) {
	s := testScorer()

	err := s.ConsumeEvent(context.Background(), model.WorkflowEvent{
		Type:      model.EventSessionComplete,
		SessionID: uuid.New(),
		Success:   true,
		Data: map[string]any{
			"stack":             []any{"FastAPI", "PostgreSQL", "Redis"},
			"requirements":      "Build an API with FastAPI, PostgreSQL, and Redis.",
			"step_durations":    []any{0.5, 2.0},
			"validation_passed": true,
			"conflict_count":    0,
			"feedback_ratings":  map[string]any{"overall": 4.0},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, s.StoredScores())

	rep := s.Status()
	require.Len(t, rep.Metrics, 1)
	assert.Equal(t, model.MetricUserSatisfaction, rep.Metrics[0].Metric)
}

func TestConsumeUnknownEventIgnored(t *testing.T) {
	s := testScorer()
	err := s.ConsumeEvent(context.Background(), model.WorkflowEvent{
		Type:      model.EventSessionStart,
		SessionID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Zero(t, s.StoredScores())
}

func TestDataCoercion(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, toStringSlice([]any{"a", 3, "b"}))
	assert.Nil(t, toStringSlice("not a slice"))
	assert.Equal(t, 2.5, toFloat(2.5))
	assert.Equal(t, 3.0, toFloat(3))
	assert.Equal(t, 0.0, toFloat("nope"))
	assert.Equal(t, []float64{1, 2}, toFloatSlice([]any{1.0, 2}))
	assert.Nil(t, toBoolPtr("true"))
	require.NotNil(t, toBoolPtr(false))
	assert.Nil(t, toFeedback(map[string]any{}))
	fb := toFeedback(map[string]any{"overall": 5})
	require.NotNil(t, fb)
	assert.Equal(t, 5.0, fb.Ratings["overall"])
}
