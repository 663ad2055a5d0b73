package perf

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/mihari/internal/model"
)

const (
	sentimentPositiveMin = 3.5 // 1-5 scale
	improvementAreaMax   = 3.0
)

// TrackSatisfaction records per-dimension satisfaction scores (1-5 scale)
// for a session, derives sentiment and improvement areas, and correlates
// the record with that session's buffered performance metrics. The derived
// overall is also fed to the alert rules as a normalized user_satisfaction
// value.
func (a *Analyzer) TrackSatisfaction(ctx context.Context, sessionID uuid.UUID, scores map[string]float64, feedback string) model.SatisfactionRecord {
	rec := model.SatisfactionRecord{
		SessionID: sessionID,
		Scores:    scores,
		Feedback:  feedback,
		Timestamp: a.now().UTC(),
	}

	if len(scores) > 0 {
		sum := 0.0
		dims := make([]string, 0, len(scores))
		for dim, v := range scores {
			sum += v
			dims = append(dims, dim)
		}
		rec.Overall = sum / float64(len(scores))
		sort.Strings(dims)
		for _, dim := range dims {
			if scores[dim] < improvementAreaMax {
				rec.ImprovementAreas = append(rec.ImprovementAreas, dim)
			}
		}
	}
	rec.Sentiment = "negative"
	if rec.Overall > sentimentPositiveMin {
		rec.Sentiment = "positive"
	}

	a.mu.Lock()
	rec.Correlated = a.sessionMetricsLocked(sessionID)
	a.satisfaction = append(a.satisfaction, rec)
	if len(a.satisfaction) > a.cfg.InteractionBufferSize {
		a.satisfaction = a.satisfaction[1:]
	}
	a.mu.Unlock()

	if len(scores) > 0 {
		normalized := (rec.Overall - 1) / 4
		a.alerts.EvaluateMetric(ctx, "user_satisfaction", normalized, &sessionID, map[string]any{
			"sentiment":         rec.Sentiment,
			"improvement_areas": rec.ImprovementAreas,
		})
	}

	a.logger.Info("perf: satisfaction recorded",
		"session_id", sessionID,
		"overall", rec.Overall,
		"sentiment", rec.Sentiment,
		"improvement_areas", len(rec.ImprovementAreas))
	return rec
}

// sessionMetricsLocked returns buffered metrics whose context carries this
// session id. Caller holds a.mu.
func (a *Analyzer) sessionMetricsLocked(sessionID uuid.UUID) []model.PerformanceMetric {
	id := sessionID.String()
	var out []model.PerformanceMetric
	for _, m := range a.metrics {
		if sid, ok := m.Context["session_id"].(string); ok && sid == id {
			out = append(out, m)
		}
	}
	return out
}

// SatisfactionSummary aggregates recorded satisfaction over a trailing
// window.
type SatisfactionSummary struct {
	Records     int                `json:"records"`
	MeanOverall float64            `json:"mean_overall"`
	PositivePct float64            `json:"positive_pct"`
	ByDimension map[string]float64 `json:"by_dimension,omitempty"`
}

// Satisfaction summarizes recorded satisfaction from the trailing window.
func (a *Analyzer) Satisfaction(window time.Duration) SatisfactionSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.now().UTC().Add(-window)
	sum := 0.0
	positive := 0
	count := 0
	dimSums := make(map[string]float64)
	dimCounts := make(map[string]int)
	for _, rec := range a.satisfaction {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		count++
		sum += rec.Overall
		if rec.Sentiment == "positive" {
			positive++
		}
		for dim, v := range rec.Scores {
			dimSums[dim] += v
			dimCounts[dim]++
		}
	}

	out := SatisfactionSummary{Records: count}
	if count == 0 {
		return out
	}
	out.MeanOverall = sum / float64(count)
	out.PositivePct = float64(positive) / float64(count) * 100
	out.ByDimension = make(map[string]float64, len(dimSums))
	for dim, s := range dimSums {
		out.ByDimension[dim] = s / float64(dimCounts[dim])
	}
	return out
}
