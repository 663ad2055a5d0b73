package quality

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/mihari/internal/model"
)

// Ecosystem keyword buckets. "cloud" alone is deliberately absent since it
// appears in names across every vendor.
var ecosystemKeywords = map[string][]string{
	"aws":         {"aws", "amazon", "lambda", "dynamodb", "s3", "ec2", "cloudfront", "sqs", "sns", "bedrock"},
	"azure":       {"azure", "microsoft", "cosmos"},
	"gcp":         {"gcp", "google", "bigquery", "firestore", "spanner", "vertex"},
	"open_source": {"postgres", "postgresql", "mysql", "redis", "kafka", "elasticsearch", "mongodb", "docker", "kubernetes", "nginx", "rabbitmq", "fastapi", "django", "flask", "react", "vue"},
}

// ScoreConsistency measures how much of a recommended stack belongs to a
// single ecosystem. Mixing managed services across cloud vendors is the
// main failure mode this catches.
func (s *Scorer) ScoreConsistency(ctx context.Context, stack []string, sessionID *uuid.UUID) (score model.QualityScore) {
	defer s.recoverScore(&score, model.MetricEcosystemConsistency, sessionID)

	result := classifyEcosystems(stack)

	details := map[string]any{
		"stack_size":      len(stack),
		"matched":         result.matched,
		"dominant":        result.dominant,
		"inconsistencies": len(result.inconsistencies),
	}
	score = model.QualityScore{
		Overall: result.score,
		Metric:  model.MetricEcosystemConsistency,
		ComponentScores: map[string]float64{
			"dominant_share": result.dominantShare,
		},
		Confidence: consistencyConfidence(len(stack), result.matched),
		Timestamp:  s.now().UTC(),
		SessionID:  sessionID,
		Details:    details,
	}
	s.record(ctx, score)
	return score
}

// ConsistencyReport returns the full classification for a stack without
// recording a score, for callers that want the inconsistency list itself.
func ConsistencyReport(stack []string) model.ConsistencyScore {
	result := classifyEcosystems(stack)
	return model.ConsistencyScore{
		Score:             result.score,
		DominantEcosystem: result.dominant,
		EcosystemMatches:  result.counts,
		Inconsistencies:   result.inconsistencies,
		Timestamp:         time.Now().UTC(),
	}
}

type ecosystemResult struct {
	score           float64
	dominant        string
	dominantShare   float64
	matched         int
	counts          map[string]int
	inconsistencies []model.Inconsistency
}

func classifyEcosystems(stack []string) ecosystemResult {
	// tech -> ecosystem for every stack item that matched a bucket.
	assigned := make(map[string]string)
	counts := make(map[string]int)
	for _, tech := range stack {
		lower := strings.ToLower(tech)
		for _, eco := range ecosystemOrder() {
			if matchesAny(lower, ecosystemKeywords[eco]) {
				assigned[tech] = eco
				counts[eco]++
				break
			}
		}
	}

	matched := len(assigned)
	if matched == 0 {
		// Nothing classifiable; neither consistent nor inconsistent.
		return ecosystemResult{score: 0.5, counts: counts}
	}

	dominant := ""
	best := 0
	for _, eco := range ecosystemOrder() {
		if counts[eco] > best {
			dominant = eco
			best = counts[eco]
		}
	}

	share := float64(best) / float64(matched)
	score := share
	if share >= 0.6 {
		// Mild boost toward a clear winner.
		score = math.Min(1.0, share*1.2)
	}

	var inconsistencies []model.Inconsistency
	for _, tech := range sortedKeys(assigned) {
		eco := assigned[tech]
		if eco == dominant {
			continue
		}
		// A tech matching two or more foreign buckets is a stronger
		// signal than a single stray vendor match.
		severity := "medium"
		if foreignMatches(strings.ToLower(tech), dominant) >= 2 {
			severity = "high"
		}
		inconsistencies = append(inconsistencies, model.Inconsistency{
			Technology: tech,
			Ecosystem:  eco,
			Severity:   severity,
		})
	}

	return ecosystemResult{
		score:           score,
		dominant:        dominant,
		dominantShare:   share,
		matched:         matched,
		counts:          counts,
		inconsistencies: inconsistencies,
	}
}

// ecosystemOrder fixes iteration order so classification is deterministic
// when keyword buckets overlap.
func ecosystemOrder() []string {
	return []string{"aws", "azure", "gcp", "open_source"}
}

func consistencyConfidence(stackSize, matched int) float64 {
	if stackSize == 0 {
		return 0
	}
	matchRate := float64(matched) / float64(stackSize)
	sizeFactor := math.Min(1, float64(stackSize)/5.0)
	return clamp01((matchRate + sizeFactor) / 2)
}

// foreignMatches counts how many non-dominant keyword buckets a
// technology name matches.
func foreignMatches(lower, dominant string) int {
	n := 0
	for _, eco := range ecosystemOrder() {
		if eco == dominant {
			continue
		}
		if matchesAny(lower, ecosystemKeywords[eco]) {
			n++
		}
	}
	return n
}

func matchesAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
