// Package perf keeps rolling statistical baselines over raw timing and
// throughput observations, flags bottlenecks and usage anomalies against
// those baselines, and periodically extrapolates the recent load into
// capacity and trend insights.
package perf

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/mihari/internal/alert"
	"github.com/ashita-ai/mihari/internal/model"
)

// Config holds the analyzer's tuning knobs.
type Config struct {
	MetricBufferSize      int
	InteractionBufferSize int
	BaselineMinSamples    int
	BaselineStdFactor     float64
	UsageDeviationPct     float64
	InsightInterval       time.Duration
	InsightHorizonDays    int
	PredictionConfidence  float64
}

// Analyzer ingests performance observations and maintains the derived
// state: baselines, bottlenecks, usage patterns, satisfaction records, and
// predictive insights.
type Analyzer struct {
	logger *slog.Logger
	alerts *alert.Manager
	cfg    Config
	now    func() time.Time

	mu           sync.Mutex
	metrics      []model.PerformanceMetric // time-ordered, FIFO-capped
	interactions []model.Interaction      // time-ordered, FIFO-capped
	baselines    map[string]model.Baseline
	bottlenecks  []model.Bottleneck
	patterns     []model.UsagePattern
	satisfaction []model.SatisfactionRecord
	insights     []model.PredictiveInsight
}

// New creates a performance analyzer.
func New(logger *slog.Logger, alerts *alert.Manager, cfg Config) *Analyzer {
	return &Analyzer{
		logger:    logger,
		alerts:    alerts,
		cfg:       cfg,
		now:       time.Now,
		baselines: make(map[string]model.Baseline),
	}
}

// Name implements tracker.Consumer.
func (a *Analyzer) Name() string { return "perf" }

// TrackMetric records one observation, refreshes the metric's baseline, and
// returns a bottleneck when the value deviates beyond it. Returns nil for
// in-range values.
func (a *Analyzer) TrackMetric(ctx context.Context, metric model.PerformanceMetric) *model.Bottleneck {
	if metric.Timestamp.IsZero() {
		metric.Timestamp = a.now().UTC()
	}

	a.mu.Lock()
	if len(a.metrics) >= a.cfg.MetricBufferSize {
		drop := len(a.metrics) - a.cfg.MetricBufferSize + 1
		a.metrics = append(a.metrics[:0], a.metrics[drop:]...)
	}
	a.metrics = append(a.metrics, metric)

	// Baseline before this observation; comparing a point against a
	// baseline it is part of softens real outliers.
	prior, hadBaseline := a.baselines[metric.Name]
	a.baselines[metric.Name] = a.computeBaselineLocked(metric.Name)

	var bn *model.Bottleneck
	if hadBaseline && prior.Samples >= a.cfg.BaselineMinSamples {
		bn = a.detectBottleneckLocked(metric, prior)
	}
	if bn != nil {
		a.bottlenecks = append(a.bottlenecks, *bn)
		if len(a.bottlenecks) > a.cfg.MetricBufferSize {
			a.bottlenecks = a.bottlenecks[1:]
		}
	}
	a.mu.Unlock()

	if bn != nil {
		a.logger.Warn("perf: bottleneck detected",
			"component", bn.Component,
			"operation", bn.Operation,
			"metric", bn.MetricName,
			"value", bn.Value,
			"deviation_pct", bn.DeviationPct,
			"severity", bn.Severity)
	}
	return bn
}

// computeBaselineLocked recomputes the rolling baseline for one metric name
// over the buffered observations. Caller holds a.mu.
func (a *Analyzer) computeBaselineLocked(name string) model.Baseline {
	var values []float64
	for _, m := range a.metrics {
		if m.Name == name {
			values = append(values, m.Value)
		}
	}
	return baselineOf(values, a.now().UTC())
}

func baselineOf(values []float64, at time.Time) model.Baseline {
	if len(values) == 0 {
		return model.Baseline{UpdatedAt: at}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	m := mean(sorted)
	return model.Baseline{
		Mean:      m,
		Median:    percentile(sorted, 0.50),
		P95:       percentile(sorted, 0.95),
		Std:       stddev(sorted, m),
		Samples:   len(sorted),
		UpdatedAt: at,
	}
}

// detectBottleneckLocked flags an observation that lands beyond its
// baseline. Latency-like metrics are bad when high; rate-like metrics are
// bad when low. Caller holds a.mu.
func (a *Analyzer) detectBottleneckLocked(metric model.PerformanceMetric, base model.Baseline) *model.Bottleneck {
	var deviationPct float64
	if rateLike(metric.Name) {
		floor := base.Mean - a.cfg.BaselineStdFactor*base.Std
		if base.Std == 0 || metric.Value >= floor || base.Mean == 0 {
			return nil
		}
		deviationPct = (base.Mean - metric.Value) / base.Mean * 100
	} else {
		if base.P95 == 0 || metric.Value <= base.P95 {
			return nil
		}
		deviationPct = (metric.Value - base.P95) / base.P95 * 100
	}

	bn := &model.Bottleneck{
		ID:           uuid.New(),
		Component:    metric.Component,
		Operation:    metric.Operation,
		MetricName:   metric.Name,
		Value:        metric.Value,
		BaselineP95:  base.P95,
		BaselineMean: base.Mean,
		DeviationPct: deviationPct,
		Severity:     deviationSeverity(deviationPct),
		DetectedAt:   a.now().UTC(),
	}
	bn.Description = fmt.Sprintf("%s/%s %s=%.2f deviates %.0f%% from baseline (mean %.2f, p95 %.2f)",
		bn.Component, bn.Operation, bn.MetricName, bn.Value, bn.DeviationPct, base.Mean, base.P95)
	return bn
}

// deviationSeverity maps a percentage deviation onto severity using the
// same bands as threshold-shortfall alerts.
func deviationSeverity(pct float64) model.Severity {
	switch {
	case pct >= 25:
		return model.SeverityCritical
	case pct >= 15:
		return model.SeverityError
	case pct >= 5:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// rateLike reports whether a metric is bad when low rather than bad when
// high.
func rateLike(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range []string{"throughput", "rate_per", "per_second", "success_rate", "hit_rate", "qps", "rps"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Baseline returns the current baseline for a metric name.
func (a *Analyzer) Baseline(name string) (model.Baseline, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.baselines[name]
	return b, ok
}

// Bottlenecks returns detected bottlenecks from the trailing window,
// newest first.
func (a *Analyzer) Bottlenecks(window time.Duration) []model.Bottleneck {
	a.mu.Lock()
	defer a.mu.Unlock()
	cutoff := a.now().UTC().Add(-window)
	var out []model.Bottleneck
	for i := len(a.bottlenecks) - 1; i >= 0; i-- {
		if a.bottlenecks[i].DetectedAt.Before(cutoff) {
			break
		}
		out = append(out, a.bottlenecks[i])
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

// percentile interpolates over a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
