package quality

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/ashita-ai/mihari/internal/catalog"
	"github.com/ashita-ai/mihari/internal/model"
)

// Satisfaction component weights.
const (
	satWeightRelevance    = 0.25
	satWeightCompleteness = 0.20
	satWeightPerformance  = 0.15
	satWeightQuality      = 0.20
	satWeightFeedback     = 0.20
)

// GenerationResult is a finished generation as seen by the satisfaction
// predictor.
type GenerationResult struct {
	Stack            []string
	Requirements     string
	StepDurations    []float64 // seconds
	ValidationPassed *bool
	ConflictCount    int
}

// Feedback carries optional explicit user ratings on a 1-5 scale.
type Feedback struct {
	Ratings map[string]float64
}

// PredictSatisfaction estimates how satisfied a user would be with a
// generation, combining result shape, runtime behavior, and any explicit
// feedback.
func (s *Scorer) PredictSatisfaction(ctx context.Context, result GenerationResult, feedback *Feedback, sessionID *uuid.UUID) (score model.QualityScore) {
	defer s.recoverScore(&score, model.MetricUserSatisfaction, sessionID)

	relevance := satisfactionRelevance(result)
	completeness := s.satisfactionCompleteness(result.Stack)
	performance := satisfactionPerformance(result.StepDurations)
	qualityScore := satisfactionQuality(result)
	feedbackScore := satisfactionFeedback(feedback)

	components := map[string]float64{
		"relevance":    relevance,
		"completeness": completeness,
		"performance":  performance,
		"quality":      qualityScore,
		"feedback":     feedbackScore,
	}
	overall := satWeightRelevance*relevance +
		satWeightCompleteness*completeness +
		satWeightPerformance*performance +
		satWeightQuality*qualityScore +
		satWeightFeedback*feedbackScore

	confidence := 0.6
	if feedback != nil && len(feedback.Ratings) > 0 {
		confidence = 0.9
	}

	score = model.QualityScore{
		Overall:         clamp01(overall),
		Metric:          model.MetricUserSatisfaction,
		ComponentScores: components,
		Confidence:      confidence,
		Timestamp:       s.now().UTC(),
		SessionID:       sessionID,
		Details: map[string]any{
			"stack_size":   len(result.Stack),
			"has_feedback": feedback != nil,
		},
	}
	s.record(ctx, score)
	return score
}

// satisfactionRelevance rewards stacks whose items were explicitly asked
// for, and penalizes stacks that are too small or too large to be useful.
func satisfactionRelevance(result GenerationResult) float64 {
	base := 0.8
	if len(result.Stack) > 0 && result.Requirements != "" {
		reqNorm := catalog.Normalize(result.Requirements)
		explicit := 0
		for _, tech := range result.Stack {
			if t := catalog.Normalize(tech); t != "" && strings.Contains(reqNorm, t) {
				explicit++
			}
		}
		if explicit > 0 {
			base = float64(explicit) / float64(len(result.Stack))
		}
	}
	if len(result.Stack) < 3 {
		base -= 0.2
	} else if len(result.Stack) > 15 {
		base -= 0.1
	}
	return clamp01(base)
}

// satisfactionCompleteness bases coverage on catalog lookups over the
// recommended stack, deducting per unknown item up to a 0.3 cap.
func (s *Scorer) satisfactionCompleteness(stack []string) float64 {
	if s.catalog == nil || len(stack) == 0 {
		return defaultCatalogCoverage
	}
	hits := 0
	for _, tech := range stack {
		if _, ok := s.catalog.Lookup(tech); ok {
			hits++
		}
	}
	coverage := float64(hits) / float64(len(stack))
	missing := len(stack) - hits
	coverage -= math.Min(0.3, 0.05*float64(missing))
	return clamp01(coverage)
}

// satisfactionPerformance grades the slowest workflow step.
func satisfactionPerformance(durations []float64) float64 {
	if len(durations) == 0 {
		return 0.8
	}
	worst := durations[0]
	for _, d := range durations[1:] {
		if d > worst {
			worst = d
		}
	}
	switch {
	case worst <= 5:
		return 1.0
	case worst <= 15:
		return 0.9
	case worst <= 30:
		return 0.7
	case worst <= 60:
		return 0.5
	default:
		return 0.3
	}
}

func satisfactionQuality(result GenerationResult) float64 {
	q := 0.8
	if result.ValidationPassed != nil {
		if *result.ValidationPassed {
			q = 1.0
		} else {
			q = 0.4
		}
	}
	q -= 0.1 * float64(result.ConflictCount)
	return clamp01(q)
}

// satisfactionFeedback maps mean explicit 1-5 ratings onto [0,1], or a
// neutral-positive default when no feedback exists.
func satisfactionFeedback(feedback *Feedback) float64 {
	if feedback == nil || len(feedback.Ratings) == 0 {
		return 0.75
	}
	sum := 0.0
	for _, r := range feedback.Ratings {
		sum += r
	}
	mean := sum / float64(len(feedback.Ratings))
	return clamp01((mean - 1) / 4)
}
