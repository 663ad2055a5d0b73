// Package quality converts raw generation output into normalized [0,1]
// quality scores, tracks their history, and turns that history into trends,
// degradation alerts, and recalibrated thresholds.
package quality

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/mihari/internal/alert"
	"github.com/ashita-ai/mihari/internal/catalog"
	"github.com/ashita-ai/mihari/internal/model"
)

// Component score weights for extraction scoring.
const (
	weightCompleteness = 0.30
	weightAccuracy     = 0.30
	weightRelevance    = 0.25
	weightCatalog      = 0.15
)

// defaultCatalogCoverage is used when no catalog collaborator is configured.
const defaultCatalogCoverage = 0.8

// Config holds the scorer's tuning knobs.
type Config struct {
	MaxStoredScores       int
	ScoreRetention        time.Duration
	RetentionInterval     time.Duration
	RecalibrateInterval   time.Duration
	RecalibrateMinSamples int
	DegradationMargin     float64
	ThresholdFloor        float64
	TrendCheckInterval    time.Duration
	TrendWindowHours      int
}

// Scorer is the quality scoring engine. Scoring operations are pure given a
// snapshot of stored history; the history itself is mutex-protected.
type Scorer struct {
	logger  *slog.Logger
	catalog catalog.Lookup // nil means no catalog collaborator
	alerts  *alert.Manager
	cfg     Config
	now     func() time.Time

	mu                sync.Mutex
	history           []model.QualityScore // time-ordered, FIFO-capped
	thresholds        map[model.MetricType]float64
	lastMultiDegraded time.Time
}

// DefaultThresholds are the starting alert thresholds per metric type,
// later adjusted by recalibration.
func DefaultThresholds() map[model.MetricType]float64 {
	return map[model.MetricType]float64{
		model.MetricExtractionAccuracy:   0.7,
		model.MetricEcosystemConsistency: 0.7,
		model.MetricTechnologyInclusion:  0.7,
		model.MetricCatalogCompleteness:  0.6,
		model.MetricUserSatisfaction:     0.7,
		model.MetricResponseQuality:      0.7,
	}
}

// New creates a quality scorer. cat may be nil; coverage scoring then falls
// back to the default coverage score.
func New(logger *slog.Logger, cat catalog.Lookup, alerts *alert.Manager, cfg Config) *Scorer {
	return &Scorer{
		logger:     logger,
		catalog:    cat,
		alerts:     alerts,
		cfg:        cfg,
		now:        time.Now,
		thresholds: DefaultThresholds(),
	}
}

// Name implements tracker.Consumer.
func (s *Scorer) Name() string { return "quality" }

// ScoreExtraction scores an extracted technology list against the
// requirements text it was extracted from. A panic anywhere inside scoring
// is converted into a minimal zero-confidence result so one bad session
// never stops monitoring of others.
func (s *Scorer) ScoreExtraction(ctx context.Context, extracted []string, requirements string, sessionID *uuid.UUID) (score model.QualityScore) {
	defer s.recoverScore(&score, model.MetricExtractionAccuracy, sessionID)

	reqNorm := catalog.Normalize(requirements)
	reqLower := strings.ToLower(requirements)

	completeness := s.scoreCompleteness(extracted, reqLower)
	accuracy := scoreAccuracy(extracted, reqNorm)
	relevance := scoreRelevance(extracted)
	coverage := s.catalogCoverage(extracted)

	components := map[string]float64{
		"completeness":     completeness,
		"accuracy":         accuracy,
		"relevance":        relevance,
		"catalog_coverage": coverage,
	}
	overall := weightCompleteness*completeness +
		weightAccuracy*accuracy +
		weightRelevance*relevance +
		weightCatalog*coverage

	score = model.QualityScore{
		Overall:         clamp01(overall),
		Metric:          model.MetricExtractionAccuracy,
		ComponentScores: components,
		Confidence:      extractionConfidence(requirements, len(extracted), components),
		Timestamp:       s.now().UTC(),
		SessionID:       sessionID,
		Details: map[string]any{
			"extracted_count": len(extracted),
		},
	}
	s.record(ctx, score)
	return score
}

// scoreCompleteness compares the extraction count against the number of
// technology-indicating keywords found in the requirements text.
func (s *Scorer) scoreCompleteness(extracted []string, reqLower string) float64 {
	indicators := 0
	for _, group := range techIndicators {
		for _, kw := range group {
			if strings.Contains(reqLower, kw) {
				indicators++
				break
			}
		}
	}
	if indicators == 0 {
		// Nothing in the text suggests technologies; treat any extraction
		// as neither complete nor incomplete.
		return 0.5
	}
	return clamp01(float64(len(extracted)) / float64(indicators))
}

// scoreAccuracy is the fraction of extracted items whose normalized tokens
// literally appear in the requirements text.
func scoreAccuracy(extracted []string, reqNorm string) float64 {
	if len(extracted) == 0 {
		return 0
	}
	hits := 0
	for _, tech := range extracted {
		if t := catalog.Normalize(tech); t != "" && strings.Contains(reqNorm, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(extracted))
}

// scoreRelevance is the fraction of extracted items matching the domain
// context heuristic (web/data/cloud/AI keyword buckets).
func scoreRelevance(extracted []string) float64 {
	if len(extracted) == 0 {
		return 0
	}
	hits := 0
	for _, tech := range extracted {
		if matchesDomainContext(tech) {
			hits++
		}
	}
	return float64(hits) / float64(len(extracted))
}

// catalogCoverage is the fraction of extracted items found in the catalog,
// or the default coverage score when no catalog is available.
func (s *Scorer) catalogCoverage(extracted []string) float64 {
	if s.catalog == nil || len(extracted) == 0 {
		return defaultCatalogCoverage
	}
	hits := 0
	for _, tech := range extracted {
		if _, ok := s.catalog.Lookup(tech); ok {
			hits++
		}
	}
	return float64(hits) / float64(len(extracted))
}

// extractionConfidence blends requirements length, extraction-count
// reasonableness, mean component score, and inverse score variance.
func extractionConfidence(requirements string, extractedCount int, components map[string]float64) float64 {
	lengthFactor := math.Min(1, float64(len(requirements))/200.0)

	var countFactor float64
	switch {
	case extractedCount >= 3 && extractedCount <= 15:
		countFactor = 1.0
	case extractedCount >= 1 && extractedCount <= 20:
		countFactor = 0.7
	default:
		countFactor = 0.4
	}

	mean := meanOf(components)
	variance := 0.0
	for _, v := range components {
		variance += (v - mean) * (v - mean)
	}
	if len(components) > 0 {
		variance /= float64(len(components))
	}
	varianceFactor := 1 - math.Min(1, variance*4)

	return clamp01((lengthFactor + countFactor + mean + varianceFactor) / 4)
}

// record appends a score to the capped history and immediately checks it
// against the alert threshold for its metric type.
func (s *Scorer) record(ctx context.Context, score model.QualityScore) {
	s.mu.Lock()
	if len(s.history) >= s.cfg.MaxStoredScores {
		// FIFO eviction.
		drop := len(s.history) - s.cfg.MaxStoredScores + 1
		s.history = append(s.history[:0], s.history[drop:]...)
	}
	s.history = append(s.history, score)
	threshold := s.thresholds[score.Metric]
	s.mu.Unlock()

	if threshold > 0 && score.Overall < threshold {
		s.alerts.RaiseThreshold(ctx, string(score.Metric), score.Overall, threshold, score.SessionID, score.Details)
	}
	s.checkMultiMetricDegradation(ctx)
}

// checkMultiMetricDegradation raises a single combined alert when two or
// more distinct metric types sit below (threshold - margin) within the last
// hour. Raised at most once per hour.
func (s *Scorer) checkMultiMetricDegradation(ctx context.Context) {
	s.mu.Lock()
	now := s.now().UTC()
	if now.Sub(s.lastMultiDegraded) < time.Hour {
		s.mu.Unlock()
		return
	}

	cutoff := now.Add(-time.Hour)
	latest := make(map[model.MetricType]float64)
	for _, sc := range s.history {
		if sc.Timestamp.Before(cutoff) {
			continue
		}
		latest[sc.Metric] = sc.Overall // history is time-ordered; last write wins
	}

	var degraded []string
	for metric, value := range latest {
		threshold, ok := s.thresholds[metric]
		if ok && value < threshold-s.cfg.DegradationMargin {
			degraded = append(degraded, string(metric))
		}
	}
	if len(degraded) < 2 {
		s.mu.Unlock()
		return
	}
	s.lastMultiDegraded = now
	s.mu.Unlock()

	s.alerts.CreateAlert(ctx, "multi_metric_degradation", float64(len(degraded)), nil, map[string]any{
		"degraded_metrics": degraded,
	})
}

// recoverScore converts a scoring panic into a minimal valid
// zero-confidence result.
func (s *Scorer) recoverScore(out *model.QualityScore, metric model.MetricType, sessionID *uuid.UUID) {
	if r := recover(); r != nil {
		s.logger.Error("quality: scoring panicked", "metric", metric, "panic", r)
		*out = model.QualityScore{
			Metric:     metric,
			Confidence: 0,
			Timestamp:  s.now().UTC(),
			SessionID:  sessionID,
		}
	}
}

// Thresholds returns a copy of the current per-metric alert thresholds.
func (s *Scorer) Thresholds() map[model.MetricType]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.MetricType]float64, len(s.thresholds))
	for k, v := range s.thresholds {
		out[k] = v
	}
	return out
}

// StoredScores returns the current history length.
func (s *Scorer) StoredScores() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

func meanOf(m map[string]float64) float64 {
	if len(m) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range m {
		sum += v
	}
	return sum / float64(len(m))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// techIndicators are keyword groups in requirements text that suggest a
// concrete technology choice is expected. Each group counts at most once
// regardless of how many of its variants appear.
var techIndicators = [][]string{
	{"api"},
	{"framework"},
	{"database"},
	{"caching", "cache"},
	{"queue", "messaging"},
	{"frontend"},
	{"backend", "server"},
	{"storage"},
	{"containerization", "container"},
	{"deployment", "orchestration"},
	{"monitoring"},
	{"authentication"},
	{"search"},
	{"analytics"},
	{"pipeline", "streaming"},
	{"serverless"},
	{"machine learning", "llm", " ai "},
}

// Domain-context keyword buckets (web/data/cloud/AI). A technology matching
// any bucket counts as relevant. This is a heuristic, not a taxonomy.
var domainBuckets = map[string][]string{
	"web":   {"api", "fastapi", "django", "flask", "express", "react", "vue", "angular", "nginx", "graphql", "http", "rest", "web"},
	"data":  {"postgres", "postgresql", "mysql", "mongo", "redis", "kafka", "elasticsearch", "sql", "database", "spark", "pandas", "warehouse", "bigquery"},
	"cloud": {"aws", "amazon", "azure", "gcp", "google cloud", "docker", "kubernetes", "terraform", "lambda", "serverless", "s3", "ec2"},
	"ai":    {"openai", "ollama", "llm", "gpt", "claude", "bedrock", "pytorch", "tensorflow", "embedding", "vertex", "watson", "ml"},
}

func matchesDomainContext(tech string) bool {
	lower := strings.ToLower(tech)
	for _, bucket := range domainBuckets {
		for _, kw := range bucket {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
