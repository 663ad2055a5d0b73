// Package alert owns the alert lifecycle: rule matching, cooldown
// suppression, severity classification, escalation, retention, and
// notification dispatch.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/mihari/internal/model"
	"github.com/ashita-ai/mihari/internal/notify"
)

// directRulePrefix marks synthetic rule ids for threshold-crossing alerts
// raised directly by the scorers rather than by a configured rule.
const directRulePrefix = "direct:"

// Config holds the manager's maintenance knobs.
type Config struct {
	EscalationCheckInterval time.Duration
	EscalationAfter         time.Duration
	RetentionInterval       time.Duration
	RetentionDays           int
	ResolvedRetention       time.Duration
	MaxActiveAlerts         int
}

// Manager owns all alert state. The active index and history share the same
// underlying Alert values, so lifecycle transitions are visible in both.
type Manager struct {
	logger     *slog.Logger
	dispatcher *notify.Dispatcher
	cfg        Config
	now        func() time.Time

	mu        sync.Mutex
	rules     map[string]model.AlertRule
	active    map[uuid.UUID]*model.Alert
	history   []*model.Alert
	lastFired map[string]time.Time // per rule id; the linearizable cooldown index

	totalAlerts   int
	bySeverity    map[model.Severity]int
	byStatus      map[model.AlertStatus]int
	escalated     int
	resolvedCount int
	avgResolution float64 // minutes, running average
}

// NewManager creates an alert manager with the default rule set installed.
func NewManager(logger *slog.Logger, dispatcher *notify.Dispatcher, cfg Config) *Manager {
	m := &Manager{
		logger:     logger,
		dispatcher: dispatcher,
		cfg:        cfg,
		now:        time.Now,
		rules:      make(map[string]model.AlertRule),
		active:     make(map[uuid.UUID]*model.Alert),
		lastFired:  make(map[string]time.Time),
		bySeverity: make(map[model.Severity]int),
		byStatus:   make(map[model.AlertStatus]int),
	}
	for _, r := range DefaultRules() {
		m.rules[r.RuleID] = r
	}
	return m
}

// RegisterRule validates and installs (or replaces) a rule.
// Invalid rules are rejected with a false return, never an error.
func (m *Manager) RegisterRule(r model.AlertRule) bool {
	if err := ValidateRule(r); err != nil {
		m.logger.Warn("alert: rule rejected", "rule_id", r.RuleID, "error", err)
		return false
	}
	m.mu.Lock()
	m.rules[r.RuleID] = r
	m.mu.Unlock()
	return true
}

// Rule returns a copy of the named rule.
func (m *Manager) Rule(ruleID string) (model.AlertRule, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[ruleID]
	return r, ok
}

// Rules returns all installed rules sorted by rule id.
func (m *Manager) Rules() []model.AlertRule {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AlertRule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RuleID < out[j].RuleID })
	return out
}

// CreateAlert raises an alert for a configured rule. Returns nil when the
// rule is unknown, disabled, or within its cooldown window. The cooldown
// check and the alert record are updated in one critical section, so two
// near-simultaneous triggers for the same rule cannot both pass.
func (m *Manager) CreateAlert(ctx context.Context, ruleID string, value float64, sessionID *uuid.UUID, details map[string]any) *model.Alert {
	m.mu.Lock()

	rule, ok := m.rules[ruleID]
	if !ok {
		m.mu.Unlock()
		m.logger.Warn("alert: unknown rule", "rule_id", ruleID)
		return nil
	}
	if !rule.Enabled {
		m.mu.Unlock()
		return nil
	}

	now := m.now().UTC()
	cooldown := time.Duration(rule.CooldownMinutes) * time.Minute
	if last, fired := m.lastFired[ruleID]; fired && cooldown > 0 && now.Sub(last) < cooldown {
		m.mu.Unlock()
		m.logger.Debug("alert: suppressed by cooldown",
			"rule_id", ruleID,
			"since_last", now.Sub(last),
			"cooldown", cooldown,
		)
		return nil
	}
	m.lastFired[ruleID] = now

	a := &model.Alert{
		ID:             uuid.New(),
		RuleID:         ruleID,
		Timestamp:      now,
		Severity:       rule.Severity,
		Status:         model.AlertActive,
		Title:          rule.Name,
		Message:        fmt.Sprintf("%s %s threshold: %.2f (threshold: %.2f)", rule.MetricName, rule.Condition.Word(), value, rule.ThresholdValue),
		MetricValue:    value,
		ThresholdValue: rule.ThresholdValue,
		SessionID:      sessionID,
		Details:        details,
	}
	m.store(a)
	channels := rule.NotificationChannels
	m.mu.Unlock()

	m.dispatch(ctx, channels, *a)
	return cloneAlert(a)
}

// RaiseThreshold raises a threshold-crossing alert directly from a scorer.
// Unlike rule-driven alerts, severity comes from the percentage shortfall
// below threshold: >=25% critical, >=15% error, >=5% warning, else info.
func (m *Manager) RaiseThreshold(ctx context.Context, metric string, value, threshold float64, sessionID *uuid.UUID, details map[string]any) *model.Alert {
	severity := ShortfallSeverity(value, threshold)

	m.mu.Lock()
	now := m.now().UTC()
	a := &model.Alert{
		ID:             uuid.New(),
		RuleID:         directRulePrefix + metric,
		Timestamp:      now,
		Severity:       severity,
		Status:         model.AlertActive,
		Title:          fmt.Sprintf("%s below threshold", metric),
		Message:        fmt.Sprintf("%s below threshold: %.2f (threshold: %.2f)", metric, value, threshold),
		MetricValue:    value,
		ThresholdValue: threshold,
		SessionID:      sessionID,
		Details:        details,
	}
	m.store(a)
	m.mu.Unlock()

	m.dispatch(ctx, []string{"log", "dashboard"}, *a)
	return cloneAlert(a)
}

// EvaluateMetric checks value against every enabled rule for metric and
// raises an alert per matching rule. Returns the raised alerts (cooldown
// suppressions produce no entry).
func (m *Manager) EvaluateMetric(ctx context.Context, metric string, value float64, sessionID *uuid.UUID, details map[string]any) []*model.Alert {
	m.mu.Lock()
	var matched []string
	for id, r := range m.rules {
		if r.Enabled && r.MetricName == metric && r.Condition.Met(value, r.ThresholdValue) {
			matched = append(matched, id)
		}
	}
	m.mu.Unlock()

	sort.Strings(matched)
	var out []*model.Alert
	for _, id := range matched {
		if a := m.CreateAlert(ctx, id, value, sessionID, details); a != nil {
			out = append(out, a)
		}
	}
	return out
}

// ShortfallSeverity maps the percentage shortfall below a threshold onto
// the scorer severity ladder.
func ShortfallSeverity(value, threshold float64) model.Severity {
	if threshold == 0 {
		return model.SeverityInfo
	}
	shortfall := (threshold - value) / threshold
	switch {
	case shortfall >= 0.25:
		return model.SeverityCritical
	case shortfall >= 0.15:
		return model.SeverityError
	case shortfall >= 0.05:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// store indexes a new alert and updates the aggregate counters.
// Caller holds m.mu.
func (m *Manager) store(a *model.Alert) {
	m.active[a.ID] = a
	m.history = append(m.history, a)
	m.totalAlerts++
	m.bySeverity[a.Severity]++
	m.byStatus[model.AlertActive]++
}

func (m *Manager) dispatch(ctx context.Context, channels []string, a model.Alert) {
	if m.dispatcher == nil || len(channels) == 0 {
		return
	}
	delivered := m.dispatcher.Dispatch(ctx, channels, notify.FromAlert(a))
	if delivered < len(channels) {
		m.logger.Warn("alert: partial notification delivery",
			"alert_id", a.ID,
			"delivered", delivered,
			"channels", len(channels),
		)
	}
}

// Acknowledge moves an active alert to acknowledged. Returns false when the
// alert is unknown or already terminal.
func (m *Manager) Acknowledge(alertID uuid.UUID, user string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.active[alertID]
	if !ok || a.Status.Terminal() || a.Status == model.AlertAcknowledged {
		return false
	}
	now := m.now().UTC()
	m.transition(a, model.AlertAcknowledged)
	a.AcknowledgedBy = user
	a.AcknowledgedAt = &now
	return true
}

// Resolve terminates an alert and folds its resolution latency into the
// running average. Returns false when unknown or already terminal.
func (m *Manager) Resolve(alertID uuid.UUID, user string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.active[alertID]
	if !ok || a.Status.Terminal() {
		return false
	}
	now := m.now().UTC()
	m.transition(a, model.AlertResolved)
	a.ResolvedAt = &now
	if user != "" {
		if a.Details == nil {
			a.Details = make(map[string]any)
		}
		a.Details["resolved_by"] = user
	}

	minutes := now.Sub(a.Timestamp).Minutes()
	m.resolvedCount++
	m.avgResolution = (m.avgResolution*float64(m.resolvedCount-1) + minutes) / float64(m.resolvedCount)
	return true
}

// Suppress terminates an alert without resolution. Returns false when
// unknown or already terminal.
func (m *Manager) Suppress(alertID uuid.UUID, user, reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.active[alertID]
	if !ok || a.Status.Terminal() {
		return false
	}
	m.transition(a, model.AlertSuppressed)
	if a.Details == nil {
		a.Details = make(map[string]any)
	}
	a.Details["suppressed_by"] = user
	a.Details["suppressed_reason"] = reason
	return true
}

// transition updates status and the status counters. Caller holds m.mu.
func (m *Manager) transition(a *model.Alert, to model.AlertStatus) {
	m.byStatus[a.Status]--
	a.Status = to
	m.byStatus[to]++
}

// ActiveAlerts returns non-terminal alerts, newest first, optionally
// filtered by severity (empty severity means all).
func (m *Manager) ActiveAlerts(severity model.Severity) []model.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Alert
	for _, a := range m.active {
		if a.Status.Terminal() {
			continue
		}
		if severity != "" && a.Severity != severity {
			continue
		}
		out = append(out, *cloneAlert(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// History returns alerts raised within the trailing window, newest first,
// optionally filtered by severity.
func (m *Manager) History(hours int, severity model.Severity) []model.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().UTC().Add(-time.Duration(hours) * time.Hour)
	var out []model.Alert
	for _, a := range m.history {
		if a.Timestamp.Before(cutoff) {
			continue
		}
		if severity != "" && a.Severity != severity {
			continue
		}
		out = append(out, *cloneAlert(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// Metrics returns the aggregate counter view.
func (m *Manager) Metrics() model.AlertMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	activeCount := 0
	for _, a := range m.active {
		if !a.Status.Terminal() {
			activeCount++
		}
	}
	bySev := make(map[model.Severity]int, len(m.bySeverity))
	for k, v := range m.bySeverity {
		bySev[k] = v
	}
	byStatus := make(map[model.AlertStatus]int, len(m.byStatus))
	for k, v := range m.byStatus {
		byStatus[k] = v
	}
	return model.AlertMetrics{
		TotalAlerts:          m.totalAlerts,
		ActiveAlerts:         activeCount,
		BySeverity:           bySev,
		ByStatus:             byStatus,
		Escalated:            m.escalated,
		AvgResolutionMinutes: m.avgResolution,
		ResolvedCount:        m.resolvedCount,
	}
}

func cloneAlert(a *model.Alert) *model.Alert {
	out := *a
	return &out
}
