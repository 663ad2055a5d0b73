package quality

import (
	"sort"
	"time"

	"github.com/ashita-ai/mihari/internal/model"
)

// MetricStatus is the current health of one quality metric.
type MetricStatus struct {
	Metric         model.MetricType `json:"metric"`
	Latest         float64          `json:"latest"`
	Mean24h        float64          `json:"mean_24h"`
	Samples24h     int              `json:"samples_24h"`
	Threshold      float64          `json:"threshold"`
	BelowThreshold bool             `json:"below_threshold"`
}

// StatusReport summarizes quality health across all metrics.
type StatusReport struct {
	Overall     string         `json:"overall"` // healthy, needs_attention, insufficient_data
	Metrics     []MetricStatus `json:"metrics"`
	StoredCount int            `json:"stored_count"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Status builds the current quality health report.
func (s *Scorer) Status() StatusReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	cutoff := now.Add(-24 * time.Hour)

	type agg struct {
		latest   float64
		latestAt time.Time
		sum      float64
		count    int
	}
	byMetric := make(map[model.MetricType]*agg)
	for _, sc := range s.history {
		a := byMetric[sc.Metric]
		if a == nil {
			a = &agg{}
			byMetric[sc.Metric] = a
		}
		if !sc.Timestamp.Before(a.latestAt) {
			a.latest = sc.Overall
			a.latestAt = sc.Timestamp
		}
		if !sc.Timestamp.Before(cutoff) {
			a.sum += sc.Overall
			a.count++
		}
	}

	report := StatusReport{
		StoredCount: len(s.history),
		GeneratedAt: now,
	}
	if len(byMetric) == 0 {
		report.Overall = "insufficient_data"
		return report
	}

	names := make([]model.MetricType, 0, len(byMetric))
	for m := range byMetric {
		names = append(names, m)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	anyBelow := false
	for _, m := range names {
		a := byMetric[m]
		ms := MetricStatus{
			Metric:     m,
			Latest:     a.latest,
			Samples24h: a.count,
			Threshold:  s.thresholds[m],
		}
		if a.count > 0 {
			ms.Mean24h = a.sum / float64(a.count)
		}
		if ms.Threshold > 0 && a.latest < ms.Threshold {
			ms.BelowThreshold = true
			anyBelow = true
		}
		report.Metrics = append(report.Metrics, ms)
	}

	report.Overall = "healthy"
	if anyBelow {
		report.Overall = "needs_attention"
	}
	return report
}
