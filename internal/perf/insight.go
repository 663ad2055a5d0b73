package perf

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/mihari/internal/model"
)

const maxStoredInsights = 100

// Run starts the insight loop. Baselines are refreshed on the same tick so
// metrics that stopped receiving observations still age correctly. Blocks
// until ctx is canceled.
func (a *Analyzer) Run(ctx context.Context) {
	tick := time.NewTicker(a.cfg.InsightInterval)
	defer tick.Stop()

	a.logger.Info("perf: insight loop started", "interval", a.cfg.InsightInterval)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("perf: insight loop stopped")
			return
		case <-tick.C:
			a.safeIteration(ctx, func() {
				a.refreshBaselines()
				generated := a.GenerateInsights()
				if len(generated) > 0 {
					a.logger.Info("perf: insights generated", "count", len(generated))
				}
			})
		}
	}
}

func (a *Analyzer) safeIteration(ctx context.Context, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("perf: loop iteration panicked", "panic", r)
		}
	}()
	if ctx.Err() != nil {
		return
	}
	fn()
}

// refreshBaselines recomputes every known baseline from the current buffer.
func (a *Analyzer) refreshBaselines() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for name := range a.baselines {
		a.baselines[name] = a.computeBaselineLocked(name)
	}
}

// GenerateInsights produces capacity-planning and performance-trend
// insights from the buffered observations. Insights below the confidence
// threshold are discarded.
func (a *Analyzer) GenerateInsights() []model.PredictiveInsight {
	var generated []model.PredictiveInsight
	if in := a.capacityInsight(); in != nil {
		generated = append(generated, *in)
	}
	generated = append(generated, a.trendInsights()...)

	if len(generated) == 0 {
		return nil
	}
	a.mu.Lock()
	a.insights = append(a.insights, generated...)
	if len(a.insights) > maxStoredInsights {
		a.insights = a.insights[len(a.insights)-maxStoredInsights:]
	}
	a.mu.Unlock()
	return generated
}

// capacityInsight extrapolates observation volume growth over the
// configured horizon by comparing the halves of the trailing day.
func (a *Analyzer) capacityInsight() *model.PredictiveInsight {
	a.mu.Lock()
	now := a.now().UTC()
	dayAgo := now.Add(-24 * time.Hour)
	halfAgo := now.Add(-12 * time.Hour)

	firstHalf := 0
	secondHalf := 0
	for _, m := range a.metrics {
		if m.Timestamp.Before(dayAgo) {
			continue
		}
		if m.Timestamp.Before(halfAgo) {
			firstHalf++
		} else {
			secondHalf++
		}
	}
	a.mu.Unlock()

	total := firstHalf + secondHalf
	if firstHalf == 0 || total < 20 {
		return nil
	}

	growthRate := float64(secondHalf-firstHalf) / float64(firstHalf)
	confidence := math.Min(1, float64(total)/100.0) * 0.9
	if confidence < a.cfg.PredictionConfidence {
		return nil
	}

	// Compound the 12h growth rate across the horizon.
	periods := float64(a.cfg.InsightHorizonDays) * 2
	projectedDaily := float64(total) * math.Pow(1+growthRate, periods)

	in := &model.PredictiveInsight{
		ID:          uuid.New(),
		Kind:        model.InsightCapacityPlanning,
		Confidence:  confidence,
		HorizonDays: a.cfg.InsightHorizonDays,
		Predictions: map[string]float64{
			"current_daily_observations":   float64(total),
			"projected_daily_observations": projectedDaily,
			"growth_rate_12h_pct":          growthRate * 100,
		},
		CreatedAt: now,
	}
	switch {
	case growthRate > 0.5:
		in.Recommendations = append(in.Recommendations,
			"observation volume growing rapidly; review buffer sizes and downstream capacity")
	case growthRate > 0.1:
		in.Recommendations = append(in.Recommendations,
			"observation volume trending up; monitor capacity headroom")
	case growthRate < -0.3:
		in.Recommendations = append(in.Recommendations,
			"observation volume dropping sharply; verify upstream workflow health")
	default:
		in.Recommendations = append(in.Recommendations,
			"observation volume stable; no capacity action needed")
	}
	return in
}

// trendInsights extrapolates the direction of each latency-like metric
// with enough history, one insight covering all worsening metrics.
func (a *Analyzer) trendInsights() []model.PredictiveInsight {
	a.mu.Lock()
	byName := make(map[string][]float64)
	for _, m := range a.metrics {
		if rateLike(m.Name) {
			continue
		}
		byName[m.Name] = append(byName[m.Name], m.Value)
	}
	minSamples := a.cfg.BaselineMinSamples
	now := a.now().UTC()
	a.mu.Unlock()

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []model.PredictiveInsight
	for _, name := range names {
		values := byName[name]
		if len(values) < minSamples*2 {
			continue
		}
		half := len(values) / 2
		firstMean := mean(values[:half])
		secondMean := mean(values[half:])
		if firstMean == 0 {
			continue
		}
		change := (secondMean - firstMean) / firstMean
		if change < 0.10 {
			continue
		}

		confidence := math.Min(1, float64(len(values))/50.0) * 0.85
		if confidence < a.cfg.PredictionConfidence {
			continue
		}

		projected := secondMean * math.Pow(1+change, float64(a.cfg.InsightHorizonDays))
		in := model.PredictiveInsight{
			ID:          uuid.New(),
			Kind:        model.InsightPerformanceTrend,
			Confidence:  confidence,
			HorizonDays: a.cfg.InsightHorizonDays,
			Predictions: map[string]float64{
				"current_mean":   secondMean,
				"projected_mean": projected,
				"change_pct":     change * 100,
			},
			Recommendations: []string{
				fmt.Sprintf("%s degrading %.0f%% between windows; investigate before it breaches thresholds", name, change*100),
			},
			CreatedAt: now,
		}
		out = append(out, in)
	}
	return out
}

// Insights returns stored insights from the trailing window, newest first.
func (a *Analyzer) Insights(window time.Duration) []model.PredictiveInsight {
	a.mu.Lock()
	defer a.mu.Unlock()
	cutoff := a.now().UTC().Add(-window)
	var out []model.PredictiveInsight
	for i := len(a.insights) - 1; i >= 0; i-- {
		if a.insights[i].CreatedAt.Before(cutoff) {
			break
		}
		out = append(out, a.insights[i])
	}
	return out
}
