package alert

import (
	"fmt"

	"github.com/ashita-ai/mihari/internal/model"
)

// DefaultRules is the rule set installed at startup. Persisted overrides
// (see persist.go) replace entries by rule id.
func DefaultRules() []model.AlertRule {
	return []model.AlertRule{
		{
			RuleID:               "quality_critical",
			Name:                 "Overall quality critically low",
			MetricName:           "quality_score",
			Condition:            model.CondLT,
			ThresholdValue:       0.5,
			Severity:             model.SeverityCritical,
			Enabled:              true,
			CooldownMinutes:      15,
			NotificationChannels: []string{"log", "dashboard"},
		},
		{
			RuleID:               "quality_warning",
			Name:                 "Overall quality degraded",
			MetricName:           "quality_score",
			Condition:            model.CondLT,
			ThresholdValue:       0.7,
			Severity:             model.SeverityWarning,
			Enabled:              true,
			CooldownMinutes:      30,
			NotificationChannels: []string{"log", "dashboard"},
		},
		{
			RuleID:               "extraction_accuracy_low",
			Name:                 "Extraction accuracy below target",
			MetricName:           "extraction_accuracy",
			Condition:            model.CondLT,
			ThresholdValue:       0.6,
			Severity:             model.SeverityError,
			Enabled:              true,
			CooldownMinutes:      30,
			NotificationChannels: []string{"log", "dashboard"},
		},
		{
			RuleID:               "consistency_low",
			Name:                 "Ecosystem consistency below target",
			MetricName:           "ecosystem_consistency",
			Condition:            model.CondLT,
			ThresholdValue:       0.6,
			Severity:             model.SeverityWarning,
			Enabled:              true,
			CooldownMinutes:      30,
			NotificationChannels: []string{"log", "dashboard"},
		},
		{
			RuleID:               "satisfaction_low",
			Name:                 "Predicted user satisfaction low",
			MetricName:           "user_satisfaction",
			Condition:            model.CondLT,
			ThresholdValue:       0.6,
			Severity:             model.SeverityError,
			Enabled:              true,
			CooldownMinutes:      30,
			NotificationChannels: []string{"log", "dashboard"},
		},
		{
			RuleID:               "performance_critical",
			Name:                 "Processing time critically high",
			MetricName:           "processing_time_seconds",
			Condition:            model.CondGT,
			ThresholdValue:       45.0,
			Severity:             model.SeverityCritical,
			Enabled:              true,
			CooldownMinutes:      10,
			NotificationChannels: []string{"log", "dashboard"},
		},
		{
			RuleID:               "performance_warning",
			Name:                 "Processing time elevated",
			MetricName:           "processing_time_seconds",
			Condition:            model.CondGT,
			ThresholdValue:       30.0,
			Severity:             model.SeverityWarning,
			Enabled:              true,
			CooldownMinutes:      20,
			NotificationChannels: []string{"log", "dashboard"},
		},
		{
			RuleID:               "quality_degradation",
			Name:                 "Quality metric trending down",
			MetricName:           "trend_strength",
			Condition:            model.CondGT,
			ThresholdValue:       0.7,
			Severity:             model.SeverityWarning,
			Enabled:              true,
			CooldownMinutes:      60,
			NotificationChannels: []string{"log", "dashboard"},
		},
		{
			RuleID:               "multi_metric_degradation",
			Name:                 "Multiple quality metrics degraded",
			MetricName:           "degraded_metrics",
			Condition:            model.CondGTE,
			ThresholdValue:       2,
			Severity:             model.SeverityError,
			Enabled:              true,
			CooldownMinutes:      60,
			NotificationChannels: []string{"log", "dashboard"},
		},
		{
			RuleID:               "error_rate_high",
			Name:                 "Workflow error rate high",
			MetricName:           "error_rate",
			Condition:            model.CondGT,
			ThresholdValue:       0.25,
			Severity:             model.SeverityError,
			Enabled:              true,
			CooldownMinutes:      15,
			NotificationChannels: []string{"log", "dashboard"},
		},
	}
}

// ValidateRule checks a rule's fields at registration time.
func ValidateRule(r model.AlertRule) error {
	if r.RuleID == "" {
		return fmt.Errorf("alert: rule id is required")
	}
	if r.Name == "" {
		return fmt.Errorf("alert: rule %s: name is required", r.RuleID)
	}
	if r.MetricName == "" {
		return fmt.Errorf("alert: rule %s: metric name is required", r.RuleID)
	}
	if !r.Condition.Valid() {
		return fmt.Errorf("alert: rule %s: unknown condition %q", r.RuleID, r.Condition)
	}
	if !r.Severity.Valid() {
		return fmt.Errorf("alert: rule %s: unknown severity %q", r.RuleID, r.Severity)
	}
	if r.CooldownMinutes < 0 {
		return fmt.Errorf("alert: rule %s: cooldown must not be negative", r.RuleID)
	}
	return nil
}
