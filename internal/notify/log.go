package notify

import (
	"context"
	"log/slog"
)

// LogChannel writes notifications to the structured log. It always succeeds
// and is the default delivery channel for every rule.
type LogChannel struct {
	logger *slog.Logger
}

// NewLogChannel creates the log delivery channel.
func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

// Name returns "log".
func (c *LogChannel) Name() string { return "log" }

// Notify logs the alert at a level matching its severity.
func (c *LogChannel) Notify(_ context.Context, n Notification) error {
	attrs := []any{
		"alert_id", n.AlertID,
		"severity", n.Severity,
		"title", n.Title,
		"metric_value", n.MetricValue,
		"threshold_value", n.ThresholdValue,
	}
	if n.SessionID != nil {
		attrs = append(attrs, "session_id", *n.SessionID)
	}

	switch n.Severity {
	case "critical", "error":
		c.logger.Error(n.Message, attrs...)
	case "warning":
		c.logger.Warn(n.Message, attrs...)
	default:
		c.logger.Info(n.Message, attrs...)
	}
	return nil
}
