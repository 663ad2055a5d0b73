package perf

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/mihari/internal/model"
)

// seedMetrics backfills the metric buffer at fixed offsets without running
// bottleneck detection.
func seedMetrics(a *Analyzer, name string, at time.Time, values ...float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, v := range values {
		a.metrics = append(a.metrics, model.PerformanceMetric{
			Name:      name,
			Value:     v,
			Timestamp: at.Add(time.Duration(i) * time.Second),
		})
	}
}

func TestCapacityInsightGrowth(t *testing.T) {
	a := testAnalyzer()
	now := time.Now().UTC()
	a.now = func() time.Time { return now }

	// 10 observations in the first half-day, 30 in the second.
	first := make([]float64, 10)
	second := make([]float64, 30)
	seedMetrics(a, "step_duration_ms", now.Add(-18*time.Hour), first...)
	seedMetrics(a, "step_duration_ms", now.Add(-6*time.Hour), second...)

	in := a.capacityInsight()
	require.NotNil(t, in)
	assert.Equal(t, model.InsightCapacityPlanning, in.Kind)
	assert.InDelta(t, 200, in.Predictions["growth_rate_12h_pct"], 0.001)
	assert.Equal(t, 40.0, in.Predictions["current_daily_observations"])
	assert.InDelta(t, 0.36, in.Confidence, 0.001) // min(1, 40/100) * 0.9
	require.Len(t, in.Recommendations, 1)
	assert.Contains(t, in.Recommendations[0], "growing rapidly")
}

func TestCapacityInsightNeedsVolume(t *testing.T) {
	a := testAnalyzer()
	now := time.Now().UTC()
	a.now = func() time.Time { return now }

	seedMetrics(a, "step_duration_ms", now.Add(-18*time.Hour), make([]float64, 5)...)
	seedMetrics(a, "step_duration_ms", now.Add(-6*time.Hour), make([]float64, 5)...)
	assert.Nil(t, a.capacityInsight(), "fewer than 20 observations in the day")
}

func TestCapacityInsightConfidenceGate(t *testing.T) {
	cfg := testPerfConfig()
	cfg.PredictionConfidence = 0.5
	a := New(slog.Default(), testPerfAlerts(), cfg)
	now := time.Now().UTC()
	a.now = func() time.Time { return now }

	// 40 observations gives confidence 0.36, below the 0.5 gate.
	seedMetrics(a, "step_duration_ms", now.Add(-18*time.Hour), make([]float64, 10)...)
	seedMetrics(a, "step_duration_ms", now.Add(-6*time.Hour), make([]float64, 30)...)
	assert.Nil(t, a.capacityInsight())
}

func TestTrendInsightDegradingMetric(t *testing.T) {
	a := testAnalyzer()
	now := time.Now().UTC()
	a.now = func() time.Time { return now }

	// First half around 100ms, second half around 150ms: +50%.
	values := make([]float64, 0, 20)
	for i := 0; i < 10; i++ {
		values = append(values, 100)
	}
	for i := 0; i < 10; i++ {
		values = append(values, 150)
	}
	seedMetrics(a, "llm_duration_ms", now.Add(-time.Hour), values...)

	insights := a.trendInsights()
	require.Len(t, insights, 1)
	in := insights[0]
	assert.Equal(t, model.InsightPerformanceTrend, in.Kind)
	assert.InDelta(t, 50, in.Predictions["change_pct"], 0.001)
	assert.Equal(t, 150.0, in.Predictions["current_mean"])
	assert.InDelta(t, 0.34, in.Confidence, 0.001) // min(1, 20/50) * 0.85
}

func TestTrendInsightIgnoresRateMetricsAndStableOnes(t *testing.T) {
	a := testAnalyzer()
	now := time.Now().UTC()
	a.now = func() time.Time { return now }

	// Rate-like metrics never produce latency trend insights.
	degrading := make([]float64, 0, 20)
	for i := 0; i < 10; i++ {
		degrading = append(degrading, 100)
	}
	for i := 0; i < 10; i++ {
		degrading = append(degrading, 200)
	}
	seedMetrics(a, "requests_per_second", now.Add(-time.Hour), degrading...)

	// Stable latency stays below the 10% change cutoff.
	stable := make([]float64, 20)
	for i := range stable {
		stable[i] = 100
	}
	seedMetrics(a, "parse_duration_ms", now.Add(-time.Hour), stable...)

	assert.Empty(t, a.trendInsights())
}

func TestGenerateInsightsStoresAndCaps(t *testing.T) {
	a := testAnalyzer()
	now := time.Now().UTC()
	a.now = func() time.Time { return now }

	seedMetrics(a, "step_duration_ms", now.Add(-18*time.Hour), make([]float64, 10)...)
	seedMetrics(a, "step_duration_ms", now.Add(-6*time.Hour), make([]float64, 30)...)

	generated := a.GenerateInsights()
	require.NotEmpty(t, generated)

	stored := a.Insights(time.Hour)
	assert.Len(t, stored, len(generated))
}

func TestRefreshBaselinesRecomputes(t *testing.T) {
	a := testAnalyzer()
	now := time.Now().UTC()
	a.now = func() time.Time { return now }

	seedMetrics(a, "step_duration_ms", now.Add(-time.Minute), 10, 20, 30)
	a.mu.Lock()
	a.baselines["step_duration_ms"] = model.Baseline{}
	a.mu.Unlock()

	a.refreshBaselines()
	b, ok := a.Baseline("step_duration_ms")
	require.True(t, ok)
	assert.Equal(t, 3, b.Samples)
	assert.Equal(t, 20.0, b.Mean)
}
