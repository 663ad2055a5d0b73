// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Session tracking settings.
	MaxSessionDuration  time.Duration // sessions older than this are timed out
	CleanupInterval     time.Duration // cadence of the session eviction loop
	FlushInterval       time.Duration // cadence of the event fan-out loop
	MaxEventsPerSession int           // per-session FIFO event cap
	EventBufferSoftCap  int           // shared event buffer soft cap

	// Quality scoring settings.
	MaxStoredScores       int
	ScoreRetention        time.Duration // scores older than this are swept
	RetentionInterval     time.Duration // cadence of the retention sweep loop
	RecalibrateInterval   time.Duration // cadence of threshold recalibration
	RecalibrateMinSamples int
	DegradationMargin     float64 // multi-metric degradation slack below threshold
	ThresholdFloor        float64 // recalibrated thresholds never drop below this
	TrendCheckInterval    time.Duration
	TrendWindowHours      int

	// Performance analysis settings.
	MetricBufferSize       int
	InteractionBufferSize  int
	BaselineMinSamples     int
	BaselineStdFactor      float64 // k in mean - k*std for rate-like metrics
	UsageDeviationPct      float64 // flag usage anomalies beyond this deviation
	InsightInterval        time.Duration
	InsightHorizonDays     int
	PredictionConfidence   float64 // minimum confidence to emit an insight

	// Alerting settings.
	EscalationCheckInterval time.Duration
	EscalationAfter         time.Duration // unresolved alerts older than this escalate
	AlertRetentionDays      int
	ResolvedRetention       time.Duration // resolved alerts older than this are swept
	MaxActiveAlerts         int

	// Notification channel settings.
	WebhookURL     string
	WebhookTimeout time.Duration
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SMTPFrom       string
	EmailTo        string // comma-separated recipient list

	// Persistence settings.
	StateDir string // directory for JSON rule/config snapshots

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		MaxSessionDuration:  envDuration("MIHARI_MAX_SESSION_DURATION", 30*time.Minute),
		CleanupInterval:     envDuration("MIHARI_CLEANUP_INTERVAL", 5*time.Minute),
		FlushInterval:       envDuration("MIHARI_FLUSH_INTERVAL", 5*time.Second),
		MaxEventsPerSession: envInt("MIHARI_MAX_EVENTS_PER_SESSION", 100),
		EventBufferSoftCap:  envInt("MIHARI_EVENT_BUFFER_SOFT_CAP", 10_000),

		MaxStoredScores:       envInt("MIHARI_MAX_STORED_SCORES", 1000),
		ScoreRetention:        envDuration("MIHARI_SCORE_RETENTION", 7*24*time.Hour),
		RetentionInterval:     envDuration("MIHARI_RETENTION_INTERVAL", time.Hour),
		RecalibrateInterval:   envDuration("MIHARI_RECALIBRATE_INTERVAL", 6*time.Hour),
		RecalibrateMinSamples: envInt("MIHARI_RECALIBRATE_MIN_SAMPLES", 10),
		DegradationMargin:     envFloat("MIHARI_DEGRADATION_MARGIN", 0.10),
		ThresholdFloor:        envFloat("MIHARI_THRESHOLD_FLOOR", 0.5),
		TrendCheckInterval:    envDuration("MIHARI_TREND_CHECK_INTERVAL", 10*time.Minute),
		TrendWindowHours:      envInt("MIHARI_TREND_WINDOW_HOURS", 24),

		MetricBufferSize:      envInt("MIHARI_METRIC_BUFFER_SIZE", 5000),
		InteractionBufferSize: envInt("MIHARI_INTERACTION_BUFFER_SIZE", 2000),
		BaselineMinSamples:    envInt("MIHARI_BASELINE_MIN_SAMPLES", 10),
		BaselineStdFactor:     envFloat("MIHARI_BASELINE_STD_FACTOR", 2.0),
		UsageDeviationPct:     envFloat("MIHARI_USAGE_DEVIATION_PCT", 50),
		InsightInterval:       envDuration("MIHARI_INSIGHT_INTERVAL", 15*time.Minute),
		InsightHorizonDays:    envInt("MIHARI_INSIGHT_HORIZON_DAYS", 7),
		PredictionConfidence:  envFloat("MIHARI_PREDICTION_CONFIDENCE", 0.7),

		EscalationCheckInterval: envDuration("MIHARI_ESCALATION_CHECK_INTERVAL", time.Minute),
		EscalationAfter:         envDuration("MIHARI_ESCALATION_AFTER", 30*time.Minute),
		AlertRetentionDays:      envInt("MIHARI_ALERT_RETENTION_DAYS", 7),
		ResolvedRetention:       envDuration("MIHARI_RESOLVED_RETENTION", 24*time.Hour),
		MaxActiveAlerts:         envInt("MIHARI_MAX_ACTIVE_ALERTS", 500),

		WebhookURL:     envStr("MIHARI_WEBHOOK_URL", ""),
		WebhookTimeout: envDuration("MIHARI_WEBHOOK_TIMEOUT", 10*time.Second),
		SMTPHost:       envStr("MIHARI_SMTP_HOST", ""),
		SMTPPort:       envInt("MIHARI_SMTP_PORT", 587),
		SMTPUser:       envStr("MIHARI_SMTP_USER", ""),
		SMTPPassword:   envStr("MIHARI_SMTP_PASSWORD", ""),
		SMTPFrom:       envStr("MIHARI_SMTP_FROM", "alerts@mihari.dev"),
		EmailTo:        envStr("MIHARI_EMAIL_TO", ""),

		StateDir: envStr("MIHARI_STATE_DIR", ".mihari"),

		OTELEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:  envStr("OTEL_SERVICE_NAME", "mihari"),

		LogLevel: envStr("MIHARI_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that configuration values are internally consistent.
func (c Config) Validate() error {
	if c.MaxEventsPerSession <= 0 {
		return fmt.Errorf("config: MIHARI_MAX_EVENTS_PER_SESSION must be positive")
	}
	if c.MaxSessionDuration <= 0 {
		return fmt.Errorf("config: MIHARI_MAX_SESSION_DURATION must be positive")
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("config: MIHARI_FLUSH_INTERVAL must be positive")
	}
	if c.MaxStoredScores <= 0 {
		return fmt.Errorf("config: MIHARI_MAX_STORED_SCORES must be positive")
	}
	if c.DegradationMargin < 0 || c.DegradationMargin > 1 {
		return fmt.Errorf("config: MIHARI_DEGRADATION_MARGIN must be in [0,1]")
	}
	if c.ThresholdFloor < 0 || c.ThresholdFloor > 1 {
		return fmt.Errorf("config: MIHARI_THRESHOLD_FLOOR must be in [0,1]")
	}
	if c.PredictionConfidence < 0 || c.PredictionConfidence > 1 {
		return fmt.Errorf("config: MIHARI_PREDICTION_CONFIDENCE must be in [0,1]")
	}
	if c.MaxActiveAlerts <= 0 {
		return fmt.Errorf("config: MIHARI_MAX_ACTIVE_ALERTS must be positive")
	}
	if c.StateDir == "" {
		return fmt.Errorf("config: MIHARI_STATE_DIR is required")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
