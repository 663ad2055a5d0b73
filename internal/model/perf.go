package model

import (
	"time"

	"github.com/google/uuid"
)

// PerformanceMetric is one raw timing/throughput observation.
type PerformanceMetric struct {
	Component string         `json:"component"`
	Operation string         `json:"operation"`
	Name      string         `json:"metric_name"`
	Value     float64        `json:"value"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Baseline is a rolling statistical summary of a metric's recent history,
// used both for bottleneck detection and dynamic threshold recalibration.
type Baseline struct {
	Mean      float64   `json:"mean"`
	Median    float64   `json:"median"`
	P95       float64   `json:"p95"`
	Std       float64   `json:"std"`
	Samples   int       `json:"samples"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bottleneck is a detected deviation of a performance metric beyond its
// statistical baseline. Immutable after creation.
type Bottleneck struct {
	ID           uuid.UUID `json:"bottleneck_id"`
	Component    string    `json:"component"`
	Operation    string    `json:"operation"`
	MetricName   string    `json:"metric_name"`
	Value        float64   `json:"value"`
	BaselineP95  float64   `json:"baseline_p95"`
	BaselineMean float64   `json:"baseline_mean"`
	DeviationPct float64   `json:"deviation_pct"`
	Severity     Severity  `json:"severity"`
	Description  string    `json:"description"`
	DetectedAt   time.Time `json:"detected_at"`
}

// Interaction is one recorded user interaction, used for frequency-anomaly
// detection over the usage baseline.
type Interaction struct {
	SessionID   uuid.UUID      `json:"session_id"`
	UserSegment string         `json:"user_segment"`
	Type        string         `json:"interaction_type"`
	Data        map[string]any `json:"data,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// UsagePattern is a detected anomaly in interaction frequency.
// Immutable after creation.
type UsagePattern struct {
	ID               uuid.UUID `json:"pattern_id"`
	UserSegment      string    `json:"user_segment"`
	ActualPerHour    float64   `json:"actual_per_hour"`
	BaselinePerHour  float64   `json:"baseline_per_hour"`
	DeviationPct     float64   `json:"deviation_pct"`
	Description      string    `json:"description"`
	DetectedAt       time.Time `json:"detected_at"`
}

// SatisfactionRecord aggregates per-dimension satisfaction scores (1-5 scale)
// for one session.
type SatisfactionRecord struct {
	SessionID        uuid.UUID           `json:"session_id"`
	Scores           map[string]float64  `json:"scores"`
	Overall          float64             `json:"overall"`
	Sentiment        string              `json:"sentiment"` // "positive" or "negative"
	ImprovementAreas []string            `json:"improvement_areas,omitempty"`
	Feedback         string              `json:"feedback,omitempty"`
	Correlated       []PerformanceMetric `json:"correlated_metrics,omitempty"`
	Timestamp        time.Time           `json:"timestamp"`
}

// InsightKind is the category of a predictive insight.
type InsightKind string

const (
	InsightCapacityPlanning InsightKind = "capacity_planning"
	InsightPerformanceTrend InsightKind = "performance_trend"
)

// PredictiveInsight carries concrete numeric predictions plus qualitative
// recommendations. Only emitted when confidence clears the configured
// threshold. Immutable after creation.
type PredictiveInsight struct {
	ID              uuid.UUID          `json:"insight_id"`
	Kind            InsightKind        `json:"kind"`
	Confidence      float64            `json:"confidence"`
	HorizonDays     int                `json:"horizon_days"`
	Predictions     map[string]float64 `json:"predictions"`
	Recommendations []string           `json:"recommendations"`
	CreatedAt       time.Time          `json:"created_at"`
}
