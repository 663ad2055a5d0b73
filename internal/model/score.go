package model

import (
	"time"

	"github.com/google/uuid"
)

// MetricType identifies one aspect of generation quality.
type MetricType string

const (
	MetricExtractionAccuracy   MetricType = "extraction_accuracy"
	MetricEcosystemConsistency MetricType = "ecosystem_consistency"
	MetricTechnologyInclusion  MetricType = "technology_inclusion"
	MetricCatalogCompleteness  MetricType = "catalog_completeness"
	MetricUserSatisfaction     MetricType = "user_satisfaction"
	MetricResponseQuality      MetricType = "response_quality"
)

// QualityScore is a normalized [0,1] assessment of one generation aspect.
// Immutable once created; appended to a capped, time-ordered history.
type QualityScore struct {
	Overall         float64            `json:"overall_score"`
	Metric          MetricType         `json:"metric_type"`
	ComponentScores map[string]float64 `json:"component_scores,omitempty"`
	Confidence      float64            `json:"confidence"`
	Timestamp       time.Time          `json:"timestamp"`
	SessionID       *uuid.UUID         `json:"session_id,omitempty"`
	Details         map[string]any     `json:"details,omitempty"`
}

// Inconsistency is one technology that breaks the dominant ecosystem.
type Inconsistency struct {
	Technology string `json:"technology"`
	Ecosystem  string `json:"ecosystem"`
	Severity   string `json:"severity"` // "high" or "medium"
}

// ConsistencyScore measures how well a stack stays within one ecosystem.
type ConsistencyScore struct {
	Score             float64         `json:"consistency_score"`
	DominantEcosystem string          `json:"dominant_ecosystem"`
	EcosystemMatches  map[string]int  `json:"ecosystem_matches,omitempty"`
	Inconsistencies   []Inconsistency `json:"inconsistencies,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
}

// TrendDirection is the sign of a score trend over a window.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// Trend summarizes the movement of one quality metric inside a time window.
// Produced only when the window holds at least five data points.
type Trend struct {
	Metric         MetricType     `json:"metric_type"`
	Direction      TrendDirection `json:"trend_direction"`
	Strength       float64        `json:"strength"`    // min(1, |delta|/0.3)
	ChangeRate     float64        `json:"change_rate"` // second-half mean minus first-half mean
	DataPoints     int            `json:"data_points"`
	WindowHours    int            `json:"window_hours"`
	FirstHalfMean  float64        `json:"first_half_mean"`
	SecondHalfMean float64        `json:"second_half_mean"`
}
