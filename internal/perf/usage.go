package perf

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/mihari/internal/model"
)

// usageBaselineWindow is how far back the per-hour interaction baseline
// looks; the most recent hour is the comparison window.
const usageBaselineWindow = 24 * time.Hour

// TrackInteraction records one user interaction and checks the segment's
// hourly frequency against its trailing baseline. Returns a usage pattern
// when the deviation exceeds the configured percentage, nil otherwise.
func (a *Analyzer) TrackInteraction(interaction model.Interaction) *model.UsagePattern {
	if interaction.Timestamp.IsZero() {
		interaction.Timestamp = a.now().UTC()
	}
	if interaction.UserSegment == "" {
		interaction.UserSegment = "default"
	}

	a.mu.Lock()
	if len(a.interactions) >= a.cfg.InteractionBufferSize {
		drop := len(a.interactions) - a.cfg.InteractionBufferSize + 1
		a.interactions = append(a.interactions[:0], a.interactions[drop:]...)
	}
	a.interactions = append(a.interactions, interaction)

	pattern := a.detectUsageAnomalyLocked(interaction.UserSegment)
	if pattern != nil {
		a.patterns = append(a.patterns, *pattern)
		if len(a.patterns) > a.cfg.InteractionBufferSize {
			a.patterns = a.patterns[1:]
		}
	}
	a.mu.Unlock()

	if pattern != nil {
		a.logger.Warn("perf: usage anomaly",
			"segment", pattern.UserSegment,
			"actual_per_hour", pattern.ActualPerHour,
			"baseline_per_hour", pattern.BaselinePerHour,
			"deviation_pct", pattern.DeviationPct)
	}
	return pattern
}

// detectUsageAnomalyLocked compares the last hour's interaction rate for a
// segment against the mean hourly rate of the preceding baseline window.
// Caller holds a.mu.
func (a *Analyzer) detectUsageAnomalyLocked(segment string) *model.UsagePattern {
	now := a.now().UTC()
	hourAgo := now.Add(-time.Hour)
	windowStart := now.Add(-usageBaselineWindow)

	recent := 0
	baseline := 0
	for _, in := range a.interactions {
		if in.UserSegment != segment || in.Timestamp.Before(windowStart) {
			continue
		}
		if in.Timestamp.Before(hourAgo) {
			baseline++
		} else {
			recent++
		}
	}
	if baseline == 0 {
		// No history to deviate from.
		return nil
	}

	baselineHours := usageBaselineWindow.Hours() - 1
	baselinePerHour := float64(baseline) / baselineHours
	actualPerHour := float64(recent)
	if baselinePerHour == 0 {
		return nil
	}

	deviationPct := (actualPerHour - baselinePerHour) / baselinePerHour * 100
	if absFloat(deviationPct) <= a.cfg.UsageDeviationPct {
		return nil
	}

	direction := "spike"
	if deviationPct < 0 {
		direction = "drop"
	}
	return &model.UsagePattern{
		ID:              uuid.New(),
		UserSegment:     segment,
		ActualPerHour:   actualPerHour,
		BaselinePerHour: baselinePerHour,
		DeviationPct:    deviationPct,
		Description: fmt.Sprintf("interaction %s for segment %s: %.1f/h vs baseline %.1f/h (%.0f%%)",
			direction, segment, actualPerHour, baselinePerHour, deviationPct),
		DetectedAt: now,
	}
}

// UsagePatterns returns detected anomalies from the trailing window,
// newest first.
func (a *Analyzer) UsagePatterns(window time.Duration) []model.UsagePattern {
	a.mu.Lock()
	defer a.mu.Unlock()
	cutoff := a.now().UTC().Add(-window)
	var out []model.UsagePattern
	for i := len(a.patterns) - 1; i >= 0; i-- {
		if a.patterns[i].DetectedAt.Before(cutoff) {
			break
		}
		out = append(out, a.patterns[i])
	}
	return out
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
