package quality

import (
	"context"

	"github.com/ashita-ai/mihari/internal/model"
)

// ConsumeEvent scores workflow events as they flow out of the tracker's
// flush loop. Events the scorer has no opinion on are ignored.
func (s *Scorer) ConsumeEvent(ctx context.Context, ev model.WorkflowEvent) error {
	switch ev.Type {
	case model.EventExtractionComplete:
		extracted := toStringSlice(ev.Data["technologies"])
		requirements, _ := ev.Data["requirements"].(string)
		sid := ev.SessionID
		s.ScoreExtraction(ctx, extracted, requirements, &sid)

	case model.EventValidationComplete:
		stack := toStringSlice(ev.Data["stack"])
		if len(stack) == 0 {
			stack = toStringSlice(ev.Data["technologies"])
		}
		sid := ev.SessionID
		s.ScoreConsistency(ctx, stack, &sid)

	case model.EventSessionComplete:
		if !ev.Success {
			return nil
		}
		result := GenerationResult{
			Stack:            toStringSlice(ev.Data["stack"]),
			Requirements:     toString(ev.Data["requirements"]),
			StepDurations:    toFloatSlice(ev.Data["step_durations"]),
			ValidationPassed: toBoolPtr(ev.Data["validation_passed"]),
			ConflictCount:    int(toFloat(ev.Data["conflict_count"])),
		}
		feedback := toFeedback(ev.Data["feedback_ratings"])
		sid := ev.SessionID
		s.PredictSatisfaction(ctx, result, feedback, &sid)
	}
	return nil
}

// Event payloads arrive as map[string]any, so values may be typed loosely
// depending on whether they came straight from callers or through a JSON
// round trip.

func toString(v any) string {
	str, _ := v.(string)
	return str
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return 0
	}
}

func toFloatSlice(v any) []float64 {
	switch t := v.(type) {
	case []float64:
		return t
	case []any:
		out := make([]float64, 0, len(t))
		for _, item := range t {
			out = append(out, toFloat(item))
		}
		return out
	default:
		return nil
	}
}

func toBoolPtr(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

func toFeedback(v any) *Feedback {
	switch t := v.(type) {
	case map[string]float64:
		if len(t) == 0 {
			return nil
		}
		return &Feedback{Ratings: t}
	case map[string]any:
		ratings := make(map[string]float64, len(t))
		for k, item := range t {
			ratings[k] = toFloat(item)
		}
		if len(ratings) == 0 {
			return nil
		}
		return &Feedback{Ratings: ratings}
	default:
		return nil
	}
}
