package perf

import (
	"sort"
	"time"

	"github.com/ashita-ai/mihari/internal/model"
)

// AnalyticsSummary is a point-in-time view of the analyzer's derived state.
type AnalyticsSummary struct {
	BufferedMetrics int                       `json:"buffered_metrics"`
	Baselines       map[string]model.Baseline `json:"baselines,omitempty"`
	Bottlenecks     []model.Bottleneck        `json:"recent_bottlenecks,omitempty"`
	UsagePatterns   []model.UsagePattern      `json:"recent_usage_patterns,omitempty"`
	Satisfaction    SatisfactionSummary       `json:"satisfaction"`
	Insights        []model.PredictiveInsight `json:"recent_insights,omitempty"`
	GeneratedAt     time.Time                 `json:"generated_at"`
}

// Summary builds the analytics summary over the trailing window.
func (a *Analyzer) Summary(window time.Duration) AnalyticsSummary {
	a.mu.Lock()
	buffered := len(a.metrics)
	baselines := make(map[string]model.Baseline, len(a.baselines))
	names := make([]string, 0, len(a.baselines))
	for name := range a.baselines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		baselines[name] = a.baselines[name]
	}
	now := a.now().UTC()
	a.mu.Unlock()

	return AnalyticsSummary{
		BufferedMetrics: buffered,
		Baselines:       baselines,
		Bottlenecks:     a.Bottlenecks(window),
		UsagePatterns:   a.UsagePatterns(window),
		Satisfaction:    a.Satisfaction(window),
		Insights:        a.Insights(window),
		GeneratedAt:     now,
	}
}
