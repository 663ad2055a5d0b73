package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a generation session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionError     SessionStatus = "error"
	SessionTimeout   SessionStatus = "timeout"
)

// Session is one tracked generation workflow run. Events is FIFO-capped by
// the tracker; all access goes through the tracker's mutex.
type Session struct {
	ID            uuid.UUID       `json:"session_id"`
	CorrelationID string          `json:"correlation_id"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       *time.Time      `json:"end_time,omitempty"`
	Status        SessionStatus   `json:"status"`
	Requirements  map[string]any  `json:"requirements,omitempty"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	Events        []WorkflowEvent `json:"events,omitempty"`
}

// NewCorrelationID builds the id stamped on every event a session emits:
// tsg_<unix seconds>_<first 8 uuid chars>.
func NewCorrelationID(at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("tsg_%d_%s", at.Unix(), id.String()[:8])
}

// Clone returns a copy safe to hand out after the tracker's lock is
// released. Events are copied; the Data maps inside them are shared but
// treated as immutable after append.
func (s *Session) Clone() *Session {
	out := *s
	if s.EndTime != nil {
		end := *s.EndTime
		out.EndTime = &end
	}
	out.Events = make([]WorkflowEvent, len(s.Events))
	copy(out.Events, s.Events)
	return &out
}
