package alert

import (
	"context"
	"time"

	"github.com/ashita-ai/mihari/internal/model"
)

// Run starts the maintenance loops (escalation check, history retention,
// active-set capping) and blocks until ctx is cancelled. Each iteration is
// isolated: a panic is logged and the loop continues after a short backoff.
func (m *Manager) Run(ctx context.Context) {
	go m.escalationLoop(ctx)
	go m.retentionLoop(ctx)
	<-ctx.Done()
}

func (m *Manager) escalationLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.EscalationCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.safeIteration(ctx, "escalation", func() {
				m.escalateOverdue()
				m.capActiveSet()
			})
		}
	}
}

func (m *Manager) retentionLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.RetentionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.safeIteration(ctx, "retention", func() {
				dropped := m.sweepHistory()
				if dropped > 0 {
					m.logger.Info("alert: history retention sweep", "dropped", dropped)
				}
			})
		}
	}
}

// safeIteration runs one loop body with panic isolation so nothing inside
// the manager can kill a maintenance loop. On panic it sleeps briefly
// before the next tick to avoid a hot failure loop.
func (m *Manager) safeIteration(ctx context.Context, loop string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("alert: maintenance iteration panicked", "loop", loop, "panic", r)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}()
	fn()
}

// escalateOverdue marks unresolved alerts past the escalation window and
// bumps their level. An alert at level n escalates again only after
// (n+1) windows have elapsed since it was raised.
func (m *Manager) escalateOverdue() {
	m.mu.Lock()
	var bumped []model.Alert
	now := m.now().UTC()
	for _, a := range m.active {
		if a.Status.Terminal() {
			continue
		}
		due := a.Timestamp.Add(time.Duration(a.EscalationLevel+1) * m.cfg.EscalationAfter)
		if now.Before(due) {
			continue
		}
		if !a.Escalated {
			a.Escalated = true
			m.escalated++
		}
		a.EscalationLevel++
		bumped = append(bumped, *a)
	}
	m.mu.Unlock()

	for _, a := range bumped {
		m.logger.Warn("alert: escalated",
			"alert_id", a.ID,
			"rule_id", a.RuleID,
			"severity", a.Severity,
			"escalation_level", a.EscalationLevel,
			"age", m.now().UTC().Sub(a.Timestamp),
		)
	}
}

// capActiveSet evicts the oldest resolved alerts from the active index when
// it exceeds the configured cap. Unresolved alerts are never evicted.
func (m *Manager) capActiveSet() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.active) <= m.cfg.MaxActiveAlerts {
		return
	}

	var resolved []*model.Alert
	for _, a := range m.active {
		if a.Status == model.AlertResolved || a.Status == model.AlertSuppressed {
			resolved = append(resolved, a)
		}
	}
	// Oldest first.
	for i := 0; i < len(resolved); i++ {
		for j := i + 1; j < len(resolved); j++ {
			if resolved[j].Timestamp.Before(resolved[i].Timestamp) {
				resolved[i], resolved[j] = resolved[j], resolved[i]
			}
		}
	}

	excess := len(m.active) - m.cfg.MaxActiveAlerts
	for i := 0; i < excess && i < len(resolved); i++ {
		delete(m.active, resolved[i].ID)
	}
}

// sweepHistory drops alerts past the retention horizon, plus resolved
// alerts older than the resolved-retention window. The active index is
// pruned of any alert removed from history.
func (m *Manager) sweepHistory() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	historyCutoff := now.AddDate(0, 0, -m.cfg.RetentionDays)
	resolvedCutoff := now.Add(-m.cfg.ResolvedRetention)

	kept := m.history[:0]
	dropped := 0
	for _, a := range m.history {
		expired := a.Timestamp.Before(historyCutoff)
		if !expired && a.Status == model.AlertResolved && a.ResolvedAt != nil && a.ResolvedAt.Before(resolvedCutoff) {
			expired = true
		}
		if expired {
			delete(m.active, a.ID)
			dropped++
			continue
		}
		kept = append(kept, a)
	}
	m.history = kept
	return dropped
}
