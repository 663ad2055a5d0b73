package perf

import (
	"context"
	"strings"

	"github.com/ashita-ai/mihari/internal/model"
)

// ConsumeEvent feeds workflow events from the tracker's flush loop into the
// analyzer: step durations become performance metrics, session boundaries
// become interactions, and completed sessions are evaluated against the
// workflow alert rules.
func (a *Analyzer) ConsumeEvent(ctx context.Context, ev model.WorkflowEvent) error {
	if ev.DurationMs != nil {
		a.TrackMetric(ctx, model.PerformanceMetric{
			Component: ev.Component,
			Operation: ev.Operation,
			Name:      durationMetricName(ev),
			Value:     *ev.DurationMs,
			Context: map[string]any{
				"session_id": ev.SessionID.String(),
				"event_type": string(ev.Type),
			},
			Timestamp: ev.Timestamp,
		})
	}

	switch ev.Type {
	case model.EventSessionStart:
		segment, _ := ev.Data["user_segment"].(string)
		a.TrackInteraction(model.Interaction{
			SessionID:   ev.SessionID,
			UserSegment: segment,
			Type:        "generation_request",
			Timestamp:   ev.Timestamp,
		})

	case model.EventSessionComplete, model.EventSessionError:
		sid := ev.SessionID
		if seconds, ok := sessionSeconds(ev); ok {
			a.alerts.EvaluateMetric(ctx, "processing_time_seconds", seconds, &sid, map[string]any{
				"correlation_id": ev.CorrelationID,
			})
		}
		if rate, ok := sessionErrorRate(ev); ok {
			a.alerts.EvaluateMetric(ctx, "error_rate", rate, &sid, map[string]any{
				"correlation_id": ev.CorrelationID,
			})
		}
	}
	return nil
}

// durationMetricName derives a stable metric name so the same step shares
// one baseline across sessions.
func durationMetricName(ev model.WorkflowEvent) string {
	base := strings.TrimSuffix(string(ev.Type), "_complete")
	if ev.Operation != "" {
		base = ev.Operation
	}
	return base + "_duration_ms"
}

func sessionSeconds(ev model.WorkflowEvent) (float64, bool) {
	if v, ok := floatValue(ev.Data["duration_seconds"]); ok {
		return v, true
	}
	if ev.DurationMs != nil {
		return *ev.DurationMs / 1000, true
	}
	return 0, false
}

func sessionErrorRate(ev model.WorkflowEvent) (float64, bool) {
	if v, ok := floatValue(ev.Data["error_rate"]); ok {
		return v, true
	}
	if failed, ok := floatValue(ev.Data["failed_steps"]); ok {
		if total, ok := floatValue(ev.Data["total_steps"]); ok && total > 0 {
			return failed / total, true
		}
	}
	if ev.Type == model.EventSessionError {
		return 1.0, true
	}
	return 0, false
}

func floatValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}
