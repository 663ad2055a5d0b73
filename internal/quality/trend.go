package quality

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/ashita-ai/mihari/internal/model"
)

const (
	trendMinPoints    = 5
	trendStableDelta  = 0.05
	trendStrengthSpan = 0.3
	trendAlertMin     = 0.7
	recalSigmaFactor  = 2.0
	recalMinShift     = 0.05
)

// AnalyzeTrend compares the first and second half of a metric's scores
// inside the trailing window. Returns nil when there is not enough data.
func (s *Scorer) AnalyzeTrend(metric model.MetricType, windowHours int) *model.Trend {
	s.mu.Lock()
	points := s.metricValuesLocked(metric, windowHours)
	s.mu.Unlock()

	if len(points) < trendMinPoints {
		return nil
	}

	half := len(points) / 2
	firstMean := mean(points[:half])
	secondMean := mean(points[half:])
	delta := secondMean - firstMean

	direction := model.TrendStable
	if delta >= trendStableDelta {
		direction = model.TrendImproving
	} else if delta <= -trendStableDelta {
		direction = model.TrendDeclining
	}

	return &model.Trend{
		Metric:         metric,
		Direction:      direction,
		Strength:       math.Min(1, math.Abs(delta)/trendStrengthSpan),
		ChangeRate:     delta,
		DataPoints:     len(points),
		WindowHours:    windowHours,
		FirstHalfMean:  firstMean,
		SecondHalfMean: secondMean,
	}
}

// Trends analyzes every metric type with recorded history.
func (s *Scorer) Trends(windowHours int) []model.Trend {
	s.mu.Lock()
	metrics := make(map[model.MetricType]struct{})
	for _, sc := range s.history {
		metrics[sc.Metric] = struct{}{}
	}
	s.mu.Unlock()

	names := make([]model.MetricType, 0, len(metrics))
	for m := range metrics {
		names = append(names, m)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	var out []model.Trend
	for _, m := range names {
		if t := s.AnalyzeTrend(m, windowHours); t != nil {
			out = append(out, *t)
		}
	}
	return out
}

// checkTrendDegradation raises an alert for any metric declining with
// strength above the alert minimum. The alert rule's own cooldown keeps
// this from firing on every pass.
func (s *Scorer) checkTrendDegradation(ctx context.Context) {
	for _, trend := range s.Trends(s.cfg.TrendWindowHours) {
		if trend.Direction != model.TrendDeclining || trend.Strength <= trendAlertMin {
			continue
		}
		s.alerts.CreateAlert(ctx, "quality_degradation", trend.Strength, nil, map[string]any{
			"metric":           string(trend.Metric),
			"change_rate":      trend.ChangeRate,
			"first_half_mean":  trend.FirstHalfMean,
			"second_half_mean": trend.SecondHalfMean,
		})
	}
}

// RecalibrateThresholds moves each metric's threshold toward mean minus two
// standard deviations of the trailing week, when enough samples exist and
// the shift is material. Thresholds never drop below the configured floor.
func (s *Scorer) RecalibrateThresholds() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	adjusted := 0
	for metric, current := range s.thresholds {
		points := s.metricValuesLocked(metric, 24*7)
		if len(points) < s.cfg.RecalibrateMinSamples {
			continue
		}
		m := mean(points)
		candidate := m - recalSigmaFactor*stddev(points, m)
		if candidate < s.cfg.ThresholdFloor {
			candidate = s.cfg.ThresholdFloor
		}
		if current > 0 && math.Abs(candidate-current)/current <= recalMinShift {
			continue
		}
		s.logger.Info("quality: threshold recalibrated",
			"metric", metric, "old", current, "new", candidate, "samples", len(points))
		s.thresholds[metric] = candidate
		adjusted++
	}
	return adjusted
}

// sweepRetention drops scores older than the retention window.
func (s *Scorer) sweepRetention() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().UTC().Add(-s.cfg.ScoreRetention)
	kept := s.history[:0]
	for _, sc := range s.history {
		if !sc.Timestamp.Before(cutoff) {
			kept = append(kept, sc)
		}
	}
	removed := len(s.history) - len(kept)
	s.history = kept
	return removed
}

// Run starts the trend, recalibration, and retention loops. It blocks until
// ctx is canceled.
func (s *Scorer) Run(ctx context.Context) {
	trendTick := time.NewTicker(s.cfg.TrendCheckInterval)
	recalTick := time.NewTicker(s.cfg.RecalibrateInterval)
	retainTick := time.NewTicker(s.cfg.RetentionInterval)
	defer trendTick.Stop()
	defer recalTick.Stop()
	defer retainTick.Stop()

	s.logger.Info("quality: loops started",
		"trend_interval", s.cfg.TrendCheckInterval,
		"recalibrate_interval", s.cfg.RecalibrateInterval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("quality: loops stopped")
			return
		case <-trendTick.C:
			s.safeIteration(ctx, "trend", func() {
				s.checkTrendDegradation(ctx)
			})
		case <-recalTick.C:
			s.safeIteration(ctx, "recalibrate", func() {
				if n := s.RecalibrateThresholds(); n > 0 {
					s.logger.Info("quality: recalibration pass", "adjusted", n)
				}
			})
		case <-retainTick.C:
			s.safeIteration(ctx, "retention", func() {
				if n := s.sweepRetention(); n > 0 {
					s.logger.Debug("quality: retention sweep", "removed", n)
				}
			})
		}
	}
}

func (s *Scorer) safeIteration(ctx context.Context, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("quality: loop iteration panicked", "loop", name, "panic", r)
		}
	}()
	if ctx.Err() != nil {
		return
	}
	fn()
}

// metricValuesLocked returns time-ordered values for one metric inside the
// trailing window. Caller holds s.mu.
func (s *Scorer) metricValuesLocked(metric model.MetricType, windowHours int) []float64 {
	cutoff := s.now().UTC().Add(-time.Duration(windowHours) * time.Hour)
	var out []float64
	for _, sc := range s.history {
		if sc.Metric == metric && !sc.Timestamp.Before(cutoff) {
			out = append(out, sc.Overall)
		}
	}
	return out
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stddev(vals []float64, m float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(vals)))
}
