package mihari

import (
	"time"

	"github.com/google/uuid"
)

// Severity is an alert severity level.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Session is the public view of a tracked generation session.
// It is a curated copy of internal/model.Session for use from outside the
// module. No internal package imports — safe to embed in consumer code.
type Session struct {
	ID            uuid.UUID
	CorrelationID string
	StartTime     time.Time
	EndTime       *time.Time
	Status        string
	Requirements  map[string]any
	Metadata      map[string]any
	EventCount    int
}

// Alert is the public view of a raised alert.
type Alert struct {
	ID              uuid.UUID
	RuleID          string
	Timestamp       time.Time
	Severity        Severity
	Status          string
	Title           string
	Message         string
	MetricValue     float64
	ThresholdValue  float64
	SessionID       *uuid.UUID
	AcknowledgedBy  string
	AcknowledgedAt  *time.Time
	ResolvedAt      *time.Time
	Escalated       bool
	EscalationLevel int
	Details         map[string]any
}

// AlertRule configures when a metric value raises an alert.
// Used with WithAlertRule to install rules beyond the built-in defaults.
type AlertRule struct {
	RuleID          string
	Name            string
	MetricName      string
	Condition       string // "gt", "lt", "eq", "gte", "lte"
	ThresholdValue  float64
	Severity        Severity
	Enabled         bool
	CooldownMinutes int
	// Channels names the notification channels this rule dispatches to.
	// Empty means log only.
	Channels []string
}

// AlertMetrics is the aggregate alerting counter view.
type AlertMetrics struct {
	TotalAlerts          int
	ActiveAlerts         int
	BySeverity           map[Severity]int
	ByStatus             map[string]int
	Escalated            int
	ResolvedCount        int
	AvgResolutionMinutes float64
}

// QualityMetricStatus is the current health of one quality metric.
type QualityMetricStatus struct {
	Metric         string
	Latest         float64
	Mean24h        float64
	Samples24h     int
	Threshold      float64
	BelowThreshold bool
}

// QualityStatus summarizes quality health across all scored metrics.
// Overall is "healthy", "needs_attention", or "insufficient_data".
type QualityStatus struct {
	Overall     string
	Metrics     []QualityMetricStatus
	StoredCount int
	GeneratedAt time.Time
}

// Trend summarizes the movement of one quality metric inside a window.
type Trend struct {
	Metric         string
	Direction      string // "improving", "declining", "stable"
	Strength       float64
	ChangeRate     float64
	DataPoints     int
	WindowHours    int
	FirstHalfMean  float64
	SecondHalfMean float64
}

// Baseline is the rolling statistical summary of one performance metric.
type Baseline struct {
	Mean      float64
	Median    float64
	P95       float64
	Std       float64
	Samples   int
	UpdatedAt time.Time
}

// Bottleneck is a detected performance deviation beyond a baseline.
type Bottleneck struct {
	ID           uuid.UUID
	Component    string
	Operation    string
	MetricName   string
	Value        float64
	DeviationPct float64
	Severity     Severity
	Description  string
	DetectedAt   time.Time
}

// UsagePattern is a detected interaction-frequency anomaly.
type UsagePattern struct {
	ID              uuid.UUID
	UserSegment     string
	ActualPerHour   float64
	BaselinePerHour float64
	DeviationPct    float64
	Description     string
	DetectedAt      time.Time
}

// SatisfactionSummary aggregates recorded satisfaction over a window.
type SatisfactionSummary struct {
	Records     int
	MeanOverall float64
	PositivePct float64
	ByDimension map[string]float64
}

// Insight is a predictive capacity or performance projection.
type Insight struct {
	ID              uuid.UUID
	Kind            string // "capacity_planning" or "performance_trend"
	Confidence      float64
	HorizonDays     int
	Predictions     map[string]float64
	Recommendations []string
	CreatedAt       time.Time
}

// Analytics is a point-in-time view of the performance analyzer's state.
type Analytics struct {
	BufferedMetrics int
	Baselines       map[string]Baseline
	Bottlenecks     []Bottleneck
	UsagePatterns   []UsagePattern
	Satisfaction    SatisfactionSummary
	Insights        []Insight
	GeneratedAt     time.Time
}

// CatalogEntry describes one known technology.
type CatalogEntry struct {
	Name      string
	Category  string
	Ecosystem string
	Aliases   []string
}

// AlertNotification is the payload delivered to external notification
// channels registered via WithChannel.
type AlertNotification struct {
	AlertID        uuid.UUID
	Severity       Severity
	Title          string
	Message        string
	Timestamp      time.Time
	MetricValue    float64
	ThresholdValue float64
	SessionID      *uuid.UUID
	Details        map[string]any
}
