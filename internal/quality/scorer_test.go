package quality

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/mihari/internal/alert"
	"github.com/ashita-ai/mihari/internal/catalog"
	"github.com/ashita-ai/mihari/internal/model"
)

func testQualityConfig() Config {
	return Config{
		MaxStoredScores:       1000,
		ScoreRetention:        7 * 24 * time.Hour,
		RetentionInterval:     time.Hour,
		RecalibrateInterval:   6 * time.Hour,
		RecalibrateMinSamples: 10,
		DegradationMargin:     0.10,
		ThresholdFloor:        0.5,
		TrendCheckInterval:    10 * time.Minute,
		TrendWindowHours:      24,
	}
}

func testAlerts() *alert.Manager {
	return alert.NewManager(slog.Default(), nil, alert.Config{
		EscalationCheckInterval: time.Minute,
		EscalationAfter:         30 * time.Minute,
		RetentionInterval:       time.Hour,
		RetentionDays:           7,
		ResolvedRetention:       24 * time.Hour,
		MaxActiveAlerts:         500,
	})
}

func testScorer() *Scorer {
	return New(slog.Default(), catalog.NewStatic(), testAlerts(), testQualityConfig())
}

// A clean extraction where every technology is named in the requirements
// scores high on every component.
func TestScoreExtractionCleanStack(t *testing.T) {
	s := testScorer()

	extracted := []string{"FastAPI", "PostgreSQL", "Redis", "Docker"}
	requirements := "Build a REST API with the FastAPI framework, PostgreSQL database, Redis caching, and Docker containerization."

	score := s.ScoreExtraction(context.Background(), extracted, requirements, nil)

	assert.Equal(t, model.MetricExtractionAccuracy, score.Metric)
	assert.GreaterOrEqual(t, score.Overall, 0.8)
	assert.LessOrEqual(t, score.Overall, 1.0)
	assert.InDelta(t, 0.8, score.ComponentScores["completeness"], 0.001)
	assert.InDelta(t, 1.0, score.ComponentScores["accuracy"], 0.001)
	assert.InDelta(t, 1.0, score.ComponentScores["relevance"], 0.001)
	assert.InDelta(t, 1.0, score.ComponentScores["catalog_coverage"], 0.001)
	assert.Greater(t, score.Confidence, 0.5)
	assert.Equal(t, 1, s.StoredScores())
}

func TestScoreExtractionHallucinatedTechnologies(t *testing.T) {
	s := testScorer()

	// Nothing extracted appears in the requirements text.
	extracted := []string{"Kafka", "Elasticsearch"}
	requirements := "Build a REST API with a framework and a database."

	score := s.ScoreExtraction(context.Background(), extracted, requirements, nil)
	assert.Zero(t, score.ComponentScores["accuracy"])
	assert.Less(t, score.Overall, 0.7)
}

func TestScoreExtractionNoIndicators(t *testing.T) {
	s := testScorer()
	score := s.ScoreExtraction(context.Background(), []string{"Redis"}, "make it good", nil)
	assert.InDelta(t, 0.5, score.ComponentScores["completeness"], 0.001,
		"requirements without technology indicators score neutral completeness")
}

func TestScoreExtractionEmptyExtraction(t *testing.T) {
	s := testScorer()
	score := s.ScoreExtraction(context.Background(), nil, "need an api framework and database", nil)
	assert.Zero(t, score.ComponentScores["accuracy"])
	assert.Zero(t, score.ComponentScores["relevance"])
	assert.Less(t, score.Overall, 0.5)
}

func TestScoreExtractionWithoutCatalog(t *testing.T) {
	s := New(slog.Default(), nil, testAlerts(), testQualityConfig())
	score := s.ScoreExtraction(context.Background(), []string{"Redis"}, "need redis caching", nil)
	assert.InDelta(t, defaultCatalogCoverage, score.ComponentScores["catalog_coverage"], 0.001)
}

func TestLowScoreRaisesThresholdAlert(t *testing.T) {
	alerts := testAlerts()
	s := New(slog.Default(), catalog.NewStatic(), alerts, testQualityConfig())

	// Hallucinated extraction lands well below the 0.7 default threshold.
	s.ScoreExtraction(context.Background(), []string{"Kafka", "Elasticsearch"}, "Build a REST API with a framework and a database.", nil)

	active := alerts.ActiveAlerts("")
	require.NotEmpty(t, active)
	assert.Equal(t, "direct:extraction_accuracy", active[0].RuleID)
}

func TestHistoryFIFOCap(t *testing.T) {
	cfg := testQualityConfig()
	cfg.MaxStoredScores = 5
	s := New(slog.Default(), catalog.NewStatic(), testAlerts(), cfg)

	for i := 0; i < 12; i++ {
		s.ScoreExtraction(context.Background(), []string{"Redis"}, "need redis caching", nil)
	}
	assert.Equal(t, 5, s.StoredScores())
}

func TestMultiMetricDegradationAlert(t *testing.T) {
	alerts := testAlerts()
	s := New(slog.Default(), catalog.NewStatic(), alerts, testQualityConfig())
	ctx := context.Background()

	// Two distinct metrics below threshold minus margin within the hour.
	s.ScoreExtraction(ctx, []string{"Kafka"}, "Build a REST API with a framework and a database.", nil)
	s.ScoreConsistency(ctx, []string{"AWS Lambda", "Azure Functions", "Google Cloud Storage"}, nil)

	var found bool
	for _, a := range alerts.ActiveAlerts("") {
		if a.RuleID == "multi_metric_degradation" {
			found = true
			assert.Equal(t, 2.0, a.MetricValue)
		}
	}
	assert.True(t, found, "expected multi_metric_degradation alert")
}

func TestStatusReport(t *testing.T) {
	s := testScorer()
	ctx := context.Background()

	rep := s.Status()
	assert.Equal(t, "insufficient_data", rep.Overall)

	s.ScoreExtraction(ctx, []string{"FastAPI", "PostgreSQL", "Redis", "Docker"},
		"Build a REST API with the FastAPI framework, PostgreSQL database, Redis caching, and Docker containerization.", nil)
	rep = s.Status()
	assert.Equal(t, "healthy", rep.Overall)
	require.Len(t, rep.Metrics, 1)
	assert.False(t, rep.Metrics[0].BelowThreshold)

	s.ScoreExtraction(ctx, []string{"Kafka"}, "Build a REST API with a framework and a database.", nil)
	rep = s.Status()
	assert.Equal(t, "needs_attention", rep.Overall)
}
