// Package mihari is the public API for embedding the Mihari generation
// monitoring pipeline.
//
// Consumers import this package to construct and extend the monitor without
// forking it:
//
//	app, err := mihari.New(
//	    mihari.WithVersion(version),
//	    mihari.WithLogger(logger),
//	    mihari.WithChannel(mySlackChannel{}),
//	)
//	if err != nil { ... }
//	go app.Run(ctx)
//
//	s := app.StartSession(requirements, nil)
//	app.TrackExtractionStep(s.ID, "extract_technologies", data, 812.4, true, "")
//	app.CompleteSession(s.ID, result, metrics, true, "")
//
// The import graph enforces a strict no-cycle rule: mihari (root) imports
// internal/*, but internal/* never imports mihari (root). Public types
// (Session, Alert, etc.) are standalone structs with no internal imports;
// conversion helpers (toPublicSession, toPublicAlert) live here because
// this is the only file that sees both sides of the boundary.
package mihari

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ashita-ai/mihari/internal/alert"
	"github.com/ashita-ai/mihari/internal/catalog"
	"github.com/ashita-ai/mihari/internal/config"
	"github.com/ashita-ai/mihari/internal/model"
	"github.com/ashita-ai/mihari/internal/notify"
	"github.com/ashita-ai/mihari/internal/perf"
	"github.com/ashita-ai/mihari/internal/quality"
	"github.com/ashita-ai/mihari/internal/telemetry"
	"github.com/ashita-ai/mihari/internal/tracker"
)

// App is the monitoring pipeline lifecycle. Construct with New(), run with
// Run(). App has no public fields — use New() options to configure it.
type App struct {
	cfg          config.Config
	tracker      *tracker.Tracker
	quality      *quality.Scorer
	perf         *perf.Analyzer
	alerts       *alert.Manager
	dispatcher   *notify.Dispatcher
	dashboard    *notify.DashboardChannel
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger
	version      string

	cancelLoops context.CancelFunc
	loops       sync.WaitGroup
	shutdownOne sync.Once
}

// New initialises the monitoring pipeline: loads configuration, wires the
// notification channels, alert manager, quality scorer, performance
// analyzer, and session tracker, and restores persisted alert rules.
// It does NOT start any goroutines — call Run().
func New(opts ...Option) (*App, error) {
	// Apply options.
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.stateDir != "" {
		cfg.StateDir = o.stateDir
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("mihari starting", "version", version, "state_dir", cfg.StateDir)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Notification channels. Log and dashboard are always available;
	// webhook and email join when configured.
	dispatcher := notify.NewDispatcher(logger)
	dispatcher.Register(notify.NewLogChannel(logger))
	dashboard := notify.NewDashboardChannel()
	dispatcher.Register(dashboard)
	if cfg.WebhookURL != "" {
		dispatcher.Register(notify.NewWebhookChannel(cfg.WebhookURL, cfg.WebhookTimeout))
		logger.Info("webhook channel: enabled", "url", cfg.WebhookURL)
	} else {
		logger.Info("webhook channel: disabled (no MIHARI_WEBHOOK_URL)")
	}
	if cfg.EmailTo != "" {
		dispatcher.Register(notify.NewEmailChannel(logger, notify.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       splitRecipients(cfg.EmailTo),
		}))
		logger.Info("email channel: enabled", "to", cfg.EmailTo)
	}
	for _, ch := range o.channels {
		dispatcher.Register(&channelAdapter{ch: ch})
		logger.Info("external channel registered", "name", ch.Name())
	}

	// Alert manager with default rules, then option rules, then the
	// persisted snapshot (snapshot wins on RuleID conflict).
	alerts := alert.NewManager(logger, dispatcher, alert.Config{
		EscalationCheckInterval: cfg.EscalationCheckInterval,
		EscalationAfter:         cfg.EscalationAfter,
		RetentionInterval:       cfg.RetentionInterval,
		RetentionDays:           cfg.AlertRetentionDays,
		ResolvedRetention:       cfg.ResolvedRetention,
		MaxActiveAlerts:         cfg.MaxActiveAlerts,
	})
	for _, r := range o.rules {
		if !alerts.RegisterRule(toInternalRule(r)) {
			_ = otelShutdown(context.Background())
			return nil, fmt.Errorf("alert rule %q: invalid", r.RuleID)
		}
	}
	if err := os.MkdirAll(cfg.StateDir, 0o750); err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("state dir %s: %w", cfg.StateDir, err)
	}
	if n, err := alerts.LoadRules(cfg.StateDir); err != nil {
		logger.Warn("alert rule snapshot load failed (using defaults)", "error", err)
	} else if n > 0 {
		logger.Info("alert rules restored from snapshot", "count", n)
	}

	// Technology catalog — external override takes priority over built-in.
	var cat catalog.Lookup
	if o.catalog != nil {
		cat = &catalogAdapter{c: o.catalog}
		logger.Info("catalog: external")
	} else {
		cat = catalog.NewStatic()
		logger.Info("catalog: built-in static")
	}

	// Quality scorer.
	scorer := quality.New(logger, cat, alerts, quality.Config{
		MaxStoredScores:       cfg.MaxStoredScores,
		ScoreRetention:        cfg.ScoreRetention,
		RetentionInterval:     cfg.RetentionInterval,
		RecalibrateInterval:   cfg.RecalibrateInterval,
		RecalibrateMinSamples: cfg.RecalibrateMinSamples,
		DegradationMargin:     cfg.DegradationMargin,
		ThresholdFloor:        cfg.ThresholdFloor,
		TrendCheckInterval:    cfg.TrendCheckInterval,
		TrendWindowHours:      cfg.TrendWindowHours,
	})

	// Performance analyzer.
	analyzer := perf.New(logger, alerts, perf.Config{
		MetricBufferSize:      cfg.MetricBufferSize,
		InteractionBufferSize: cfg.InteractionBufferSize,
		BaselineMinSamples:    cfg.BaselineMinSamples,
		BaselineStdFactor:     cfg.BaselineStdFactor,
		UsageDeviationPct:     cfg.UsageDeviationPct,
		InsightInterval:       cfg.InsightInterval,
		InsightHorizonDays:    cfg.InsightHorizonDays,
		PredictionConfidence:  cfg.PredictionConfidence,
	})

	// Session tracker fanning events out to both consumers.
	trk := tracker.New(logger, tracker.Config{
		MaxSessionDuration:  cfg.MaxSessionDuration,
		CleanupInterval:     cfg.CleanupInterval,
		FlushInterval:       cfg.FlushInterval,
		MaxEventsPerSession: cfg.MaxEventsPerSession,
		BufferSoftCap:       cfg.EventBufferSoftCap,
	})
	trk.Subscribe(scorer)
	trk.Subscribe(analyzer)

	return &App{
		cfg:          cfg,
		tracker:      trk,
		quality:      scorer,
		perf:         analyzer,
		alerts:       alerts,
		dispatcher:   dispatcher,
		dashboard:    dashboard,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}, nil
}

// Run starts all background loops, then blocks until ctx is cancelled.
// On return, Shutdown is called automatically — callers should not call
// Shutdown separately.
func (a *App) Run(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(context.Background())
	a.cancelLoops = cancel

	a.loops.Add(4)
	go func() { defer a.loops.Done(); a.tracker.Run(loopCtx) }()
	go func() { defer a.loops.Done(); a.alerts.Run(loopCtx) }()
	go func() { defer a.loops.Done(); a.quality.Run(loopCtx) }()
	go func() { defer a.loops.Done(); a.perf.Run(loopCtx) }()

	<-ctx.Done()
	return a.Shutdown(context.Background())
}

// Shutdown performs a graceful shutdown:
// (1) stop the background loops,
// (2) force-complete remaining active sessions,
// (3) flush the event buffer through every consumer,
// (4) persist the alert rule snapshot.
// It then shuts the OTEL provider down. Safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.shutdownOne.Do(func() {
		a.logger.Info("mihari shutting down")

		// Phase 1: stop loops.
		if a.cancelLoops != nil {
			a.cancelLoops()
			a.loops.Wait()
		}

		// Phase 2: terminate active sessions so their final events reach
		// the consumers in phase 3.
		if n := a.tracker.ForceCompleteAll("shutdown"); n > 0 {
			a.logger.Info("force-completed active sessions", "count", n)
		}

		// Phase 3: final flush.
		a.tracker.Flush(ctx)
		if remaining := a.tracker.BufferLen(); remaining > 0 {
			a.logger.Error("event buffer flush incomplete — remaining events will be lost",
				"remaining_events", remaining)
		}

		// Phase 4: persist rules.
		if saveErr := a.alerts.SaveRules(a.cfg.StateDir); saveErr != nil {
			a.logger.Error("alert rule snapshot save failed", "error", saveErr)
			err = fmt.Errorf("save alert rules: %w", saveErr)
		}

		_ = a.otelShutdown(context.Background())
		a.logger.Info("mihari stopped")
	})
	return err
}

// ── Ingress (workflow instrumentation) ─────────────────────────────────────────

// StartSession opens a new generation session and returns its public view,
// including the correlation id shared by every event the session emits.
func (a *App) StartSession(requirements, metadata map[string]any) Session {
	return toPublicSession(a.tracker.StartSession(requirements, metadata))
}

// TrackParsingStep records a completed requirements-parsing step.
func (a *App) TrackParsingStep(sessionID uuid.UUID, operation string, data map[string]any, durationMs float64, success bool, errMsg string) {
	a.tracker.TrackStep(sessionID, model.EventParsingComplete, "parser", operation, data, &durationMs, success, errMsg)
}

// TrackExtractionStep records a completed technology-extraction step.
// data should carry "technologies" ([]string) and "requirements" (string)
// so the extraction gets scored.
func (a *App) TrackExtractionStep(sessionID uuid.UUID, operation string, data map[string]any, durationMs float64, success bool, errMsg string) {
	a.tracker.TrackStep(sessionID, model.EventExtractionComplete, "extractor", operation, data, &durationMs, success, errMsg)
}

// TrackLLMInteraction records a completed LLM call.
func (a *App) TrackLLMInteraction(sessionID uuid.UUID, operation string, data map[string]any, durationMs float64, success bool, errMsg string) {
	a.tracker.TrackStep(sessionID, model.EventLLMCallComplete, "llm", operation, data, &durationMs, success, errMsg)
}

// TrackValidationStep records a completed stack-validation step.
// data should carry "stack" ([]string) so ecosystem consistency gets scored.
func (a *App) TrackValidationStep(sessionID uuid.UUID, operation string, data map[string]any, durationMs float64, success bool, errMsg string) {
	a.tracker.TrackStep(sessionID, model.EventValidationComplete, "validator", operation, data, &durationMs, success, errMsg)
}

// CompleteSession finalizes a session. result should carry the generated
// "stack" and session-level metrics ("duration_seconds", "error_rate") so
// downstream scoring and rule evaluation fire. Returns nil if the session
// was already gone.
func (a *App) CompleteSession(sessionID uuid.UUID, result, metrics map[string]any, success bool, errMsg string) *Session {
	s := a.tracker.CompleteSession(sessionID, result, metrics, success, errMsg)
	if s == nil {
		return nil
	}
	pub := toPublicSession(s)
	return &pub
}

// ActiveSession returns the current view of an active session.
func (a *App) ActiveSession(sessionID uuid.UUID) (Session, bool) {
	s, ok := a.tracker.Session(sessionID)
	if !ok {
		return Session{}, false
	}
	return toPublicSession(s), true
}

// ActiveSessionCount reports how many sessions are currently open.
func (a *App) ActiveSessionCount() int { return a.tracker.ActiveCount() }

// RecordMetric feeds one performance observation to the analyzer and
// returns the detected bottleneck, if any.
func (a *App) RecordMetric(ctx context.Context, component, operation, name string, value float64, extra map[string]any) *Bottleneck {
	bn := a.perf.TrackMetric(ctx, model.PerformanceMetric{
		Component: component,
		Operation: operation,
		Name:      name,
		Value:     value,
		Context:   extra,
	})
	if bn == nil {
		return nil
	}
	pub := toPublicBottleneck(*bn)
	return &pub
}

// RecordInteraction feeds one user interaction to the usage-pattern
// detector and returns the detected anomaly, if any.
func (a *App) RecordInteraction(sessionID uuid.UUID, userSegment, interactionType string) *UsagePattern {
	p := a.perf.TrackInteraction(model.Interaction{
		SessionID:   sessionID,
		UserSegment: userSegment,
		Type:        interactionType,
	})
	if p == nil {
		return nil
	}
	pub := toPublicUsagePattern(*p)
	return &pub
}

// RecordSatisfaction records per-dimension satisfaction ratings (1-5
// scale) for a session and returns the derived sentiment with any
// dimensions rated low enough to need improvement.
func (a *App) RecordSatisfaction(ctx context.Context, sessionID uuid.UUID, scores map[string]float64, feedback string) (sentiment string, improvementAreas []string) {
	rec := a.perf.TrackSatisfaction(ctx, sessionID, scores, feedback)
	return rec.Sentiment, rec.ImprovementAreas
}

// ── Query surface ──────────────────────────────────────────────────────────────

// ActiveAlerts returns non-terminal alerts, newest first, optionally
// filtered by severity (empty string means all).
func (a *App) ActiveAlerts(severity Severity) []Alert {
	return toPublicAlerts(a.alerts.ActiveAlerts(model.Severity(severity)))
}

// AlertHistory returns alerts raised in the trailing window, newest first,
// optionally filtered by severity.
func (a *App) AlertHistory(hours int, severity Severity) []Alert {
	return toPublicAlerts(a.alerts.History(hours, model.Severity(severity)))
}

// AlertStats returns the aggregate alerting counters.
func (a *App) AlertStats() AlertMetrics {
	m := a.alerts.Metrics()
	out := AlertMetrics{
		TotalAlerts:          m.TotalAlerts,
		ActiveAlerts:         m.ActiveAlerts,
		BySeverity:           make(map[Severity]int, len(m.BySeverity)),
		ByStatus:             make(map[string]int, len(m.ByStatus)),
		Escalated:            m.Escalated,
		ResolvedCount:        m.ResolvedCount,
		AvgResolutionMinutes: m.AvgResolutionMinutes,
	}
	for sev, n := range m.BySeverity {
		out.BySeverity[Severity(sev)] = n
	}
	for st, n := range m.ByStatus {
		out.ByStatus[string(st)] = n
	}
	return out
}

// AcknowledgeAlert marks an active alert as acknowledged by a user.
// Returns false for unknown or terminal alerts.
func (a *App) AcknowledgeAlert(alertID uuid.UUID, user string) bool {
	return a.alerts.Acknowledge(alertID, user)
}

// ResolveAlert marks an alert as resolved. Returns false for unknown or
// already-terminal alerts.
func (a *App) ResolveAlert(alertID uuid.UUID, user string) bool {
	return a.alerts.Resolve(alertID, user)
}

// SuppressAlert silences an alert without resolving the condition.
// Returns false for unknown or terminal alerts.
func (a *App) SuppressAlert(alertID uuid.UUID, user, reason string) bool {
	return a.alerts.Suppress(alertID, user, reason)
}

// RegisterAlertRule installs or replaces an alert rule at runtime.
// Returns false when the rule fails validation.
func (a *App) RegisterAlertRule(r AlertRule) bool {
	return a.alerts.RegisterRule(toInternalRule(r))
}

// AlertRules returns the currently installed rules.
func (a *App) AlertRules() []AlertRule {
	rules := a.alerts.Rules()
	out := make([]AlertRule, len(rules))
	for i, r := range rules {
		out[i] = toPublicRule(r)
	}
	return out
}

// QualityStatus returns current quality health across all scored metrics.
func (a *App) QualityStatus() QualityStatus {
	rep := a.quality.Status()
	out := QualityStatus{
		Overall:     rep.Overall,
		StoredCount: rep.StoredCount,
		GeneratedAt: rep.GeneratedAt,
	}
	for _, m := range rep.Metrics {
		out.Metrics = append(out.Metrics, QualityMetricStatus{
			Metric:         string(m.Metric),
			Latest:         m.Latest,
			Mean24h:        m.Mean24h,
			Samples24h:     m.Samples24h,
			Threshold:      m.Threshold,
			BelowThreshold: m.BelowThreshold,
		})
	}
	return out
}

// QualityTrends analyzes score movement per metric over the trailing
// window.
func (a *App) QualityTrends(windowHours int) []Trend {
	trends := a.quality.Trends(windowHours)
	out := make([]Trend, len(trends))
	for i, t := range trends {
		out[i] = Trend{
			Metric:         string(t.Metric),
			Direction:      string(t.Direction),
			Strength:       t.Strength,
			ChangeRate:     t.ChangeRate,
			DataPoints:     t.DataPoints,
			WindowHours:    t.WindowHours,
			FirstHalfMean:  t.FirstHalfMean,
			SecondHalfMean: t.SecondHalfMean,
		}
	}
	return out
}

// Analytics returns the performance analyzer's summary over the trailing
// window.
func (a *App) Analytics(window time.Duration) Analytics {
	sum := a.perf.Summary(window)
	out := Analytics{
		BufferedMetrics: sum.BufferedMetrics,
		Baselines:       make(map[string]Baseline, len(sum.Baselines)),
		Satisfaction: SatisfactionSummary{
			Records:     sum.Satisfaction.Records,
			MeanOverall: sum.Satisfaction.MeanOverall,
			PositivePct: sum.Satisfaction.PositivePct,
			ByDimension: sum.Satisfaction.ByDimension,
		},
		GeneratedAt: sum.GeneratedAt,
	}
	for name, b := range sum.Baselines {
		out.Baselines[name] = Baseline{
			Mean:      b.Mean,
			Median:    b.Median,
			P95:       b.P95,
			Std:       b.Std,
			Samples:   b.Samples,
			UpdatedAt: b.UpdatedAt,
		}
	}
	for _, bn := range sum.Bottlenecks {
		out.Bottlenecks = append(out.Bottlenecks, toPublicBottleneck(bn))
	}
	for _, p := range sum.UsagePatterns {
		out.UsagePatterns = append(out.UsagePatterns, toPublicUsagePattern(p))
	}
	for _, in := range sum.Insights {
		out.Insights = append(out.Insights, Insight{
			ID:              in.ID,
			Kind:            string(in.Kind),
			Confidence:      in.Confidence,
			HorizonDays:     in.HorizonDays,
			Predictions:     in.Predictions,
			Recommendations: in.Recommendations,
			CreatedAt:       in.CreatedAt,
		})
	}
	return out
}

// SubscribeDashboard returns a channel receiving every alert notification
// as JSON, for live dashboard consumers. Slow subscribers are dropped, not
// blocked on. Callers must Unsubscribe when done.
func (a *App) SubscribeDashboard() chan []byte { return a.dashboard.Subscribe() }

// UnsubscribeDashboard removes and closes a dashboard subscription.
func (a *App) UnsubscribeDashboard(ch chan []byte) { a.dashboard.Unsubscribe(ch) }

// ── Adapters (defined here because this file imports both sides) ───────────────

// catalogAdapter wraps a public mihari.Catalog to satisfy catalog.Lookup.
type catalogAdapter struct {
	c Catalog
}

func (a *catalogAdapter) Lookup(name string) (catalog.Entry, bool) {
	e, ok := a.c.Lookup(name)
	if !ok {
		return catalog.Entry{}, false
	}
	return catalog.Entry{
		Name:      e.Name,
		Category:  e.Category,
		Ecosystem: e.Ecosystem,
		Aliases:   e.Aliases,
	}, true
}

// channelAdapter wraps a public mihari.NotificationChannel to satisfy
// notify.Channel. It converts internal payloads to public ones at the
// boundary.
type channelAdapter struct {
	ch NotificationChannel
}

func (a *channelAdapter) Name() string { return a.ch.Name() }

func (a *channelAdapter) Notify(ctx context.Context, n notify.Notification) error {
	return a.ch.Notify(ctx, AlertNotification{
		AlertID:        n.AlertID,
		Severity:       Severity(n.Severity),
		Title:          n.Title,
		Message:        n.Message,
		Timestamp:      n.Timestamp,
		MetricValue:    n.MetricValue,
		ThresholdValue: n.ThresholdValue,
		SessionID:      n.SessionID,
		Details:        n.Details,
	})
}

// ── Type converters ────────────────────────────────────────────────────────────

// toPublicSession converts an internal model.Session to the public
// mihari.Session. Lives here because this is the only file that imports
// both sides of the boundary.
func toPublicSession(s *model.Session) Session {
	return Session{
		ID:            s.ID,
		CorrelationID: s.CorrelationID,
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		Status:        string(s.Status),
		Requirements:  s.Requirements,
		Metadata:      s.Metadata,
		EventCount:    len(s.Events),
	}
}

func toPublicAlert(a model.Alert) Alert {
	return Alert{
		ID:              a.ID,
		RuleID:          a.RuleID,
		Timestamp:       a.Timestamp,
		Severity:        Severity(a.Severity),
		Status:          string(a.Status),
		Title:           a.Title,
		Message:         a.Message,
		MetricValue:     a.MetricValue,
		ThresholdValue:  a.ThresholdValue,
		SessionID:       a.SessionID,
		AcknowledgedBy:  a.AcknowledgedBy,
		AcknowledgedAt:  a.AcknowledgedAt,
		ResolvedAt:      a.ResolvedAt,
		Escalated:       a.Escalated,
		EscalationLevel: a.EscalationLevel,
		Details:         a.Details,
	}
}

func toPublicAlerts(alerts []model.Alert) []Alert {
	out := make([]Alert, len(alerts))
	for i, a := range alerts {
		out[i] = toPublicAlert(a)
	}
	return out
}

func toPublicBottleneck(b model.Bottleneck) Bottleneck {
	return Bottleneck{
		ID:           b.ID,
		Component:    b.Component,
		Operation:    b.Operation,
		MetricName:   b.MetricName,
		Value:        b.Value,
		DeviationPct: b.DeviationPct,
		Severity:     Severity(b.Severity),
		Description:  b.Description,
		DetectedAt:   b.DetectedAt,
	}
}

func toPublicUsagePattern(p model.UsagePattern) UsagePattern {
	return UsagePattern{
		ID:              p.ID,
		UserSegment:     p.UserSegment,
		ActualPerHour:   p.ActualPerHour,
		BaselinePerHour: p.BaselinePerHour,
		DeviationPct:    p.DeviationPct,
		Description:     p.Description,
		DetectedAt:      p.DetectedAt,
	}
}

func toInternalRule(r AlertRule) model.AlertRule {
	return model.AlertRule{
		RuleID:               r.RuleID,
		Name:                 r.Name,
		MetricName:           r.MetricName,
		Condition:            model.Condition(r.Condition),
		ThresholdValue:       r.ThresholdValue,
		Severity:             model.Severity(r.Severity),
		Enabled:              r.Enabled,
		CooldownMinutes:      r.CooldownMinutes,
		NotificationChannels: r.Channels,
	}
}

func toPublicRule(r model.AlertRule) AlertRule {
	return AlertRule{
		RuleID:          r.RuleID,
		Name:            r.Name,
		MetricName:      r.MetricName,
		Condition:       string(r.Condition),
		ThresholdValue:  r.ThresholdValue,
		Severity:        Severity(r.Severity),
		Enabled:         r.Enabled,
		CooldownMinutes: r.CooldownMinutes,
		Channels:        r.NotificationChannels,
	}
}

func splitRecipients(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
