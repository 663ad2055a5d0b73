package model

import (
	"time"

	"github.com/google/uuid"
)

// Severity is the alert severity tier.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for comparison and sorting (info lowest).
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool { return s.Rank() >= 0 }

// AlertStatus is the alert lifecycle state.
// Transitions: active → acknowledged → resolved, active → resolved,
// active → suppressed. resolved and suppressed are terminal.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
	AlertSuppressed   AlertStatus = "suppressed"
)

// Terminal reports whether no further transitions are allowed.
func (s AlertStatus) Terminal() bool {
	return s == AlertResolved || s == AlertSuppressed
}

// Condition is a threshold comparison operator.
type Condition string

const (
	CondGT  Condition = "gt"
	CondLT  Condition = "lt"
	CondEQ  Condition = "eq"
	CondGTE Condition = "gte"
	CondLTE Condition = "lte"
)

// Met reports whether value crosses threshold under the condition.
func (c Condition) Met(value, threshold float64) bool {
	switch c {
	case CondGT:
		return value > threshold
	case CondLT:
		return value < threshold
	case CondGTE:
		return value >= threshold
	case CondLTE:
		return value <= threshold
	case CondEQ:
		return value == threshold
	default:
		return false
	}
}

// Word returns the human-readable comparison word used in alert messages.
func (c Condition) Word() string {
	switch c {
	case CondGT, CondGTE:
		return "above"
	case CondLT, CondLTE:
		return "below"
	case CondEQ:
		return "at"
	default:
		return "crossed"
	}
}

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	switch c {
	case CondGT, CondLT, CondEQ, CondGTE, CondLTE:
		return true
	}
	return false
}

// Alert is one raised monitoring alert. Owned by the alert manager;
// moves between the active index and the append-only history log.
type Alert struct {
	ID              uuid.UUID      `json:"alert_id"`
	RuleID          string         `json:"rule_id"`
	Timestamp       time.Time      `json:"timestamp"`
	Severity        Severity       `json:"severity"`
	Status          AlertStatus    `json:"status"`
	Title           string         `json:"title"`
	Message         string         `json:"message"`
	MetricValue     float64        `json:"metric_value"`
	ThresholdValue  float64        `json:"threshold_value"`
	SessionID       *uuid.UUID     `json:"session_id,omitempty"`
	AcknowledgedBy  string         `json:"acknowledged_by,omitempty"`
	AcknowledgedAt  *time.Time     `json:"acknowledged_at,omitempty"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
	Escalated       bool           `json:"escalated"`
	EscalationLevel int            `json:"escalation_level"`
	Details         map[string]any `json:"details,omitempty"`
}

// AlertRule is a mutable configuration entity matched against metric values.
// Created at startup from defaults and optionally overridden from the
// persisted JSON snapshot.
type AlertRule struct {
	RuleID               string    `json:"rule_id"`
	Name                 string    `json:"name"`
	MetricName           string    `json:"metric_name"`
	Condition            Condition `json:"condition"`
	ThresholdValue       float64   `json:"threshold_value"`
	Severity             Severity  `json:"severity"`
	Enabled              bool      `json:"enabled"`
	CooldownMinutes      int       `json:"cooldown_minutes"`
	NotificationChannels []string  `json:"notification_channels"`
}

// AlertMetrics is the aggregate counter view exposed to the query surface.
type AlertMetrics struct {
	TotalAlerts          int                 `json:"total_alerts"`
	ActiveAlerts         int                 `json:"active_alerts"`
	BySeverity           map[Severity]int    `json:"by_severity"`
	ByStatus             map[AlertStatus]int `json:"by_status"`
	Escalated            int                 `json:"escalated"`
	AvgResolutionMinutes float64             `json:"avg_resolution_minutes"`
	ResolvedCount        int                 `json:"resolved_count"`
}
