package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType categorizes workflow events by pipeline phase.
type EventType string

const (
	// Session lifecycle events.
	EventSessionStart    EventType = "session_start"
	EventSessionComplete EventType = "session_complete"
	EventSessionError    EventType = "session_error"

	// Pipeline step events.
	EventParsingStart       EventType = "parsing_start"
	EventParsingComplete    EventType = "parsing_complete"
	EventExtractionStart    EventType = "extraction_start"
	EventExtractionComplete EventType = "extraction_complete"
	EventLLMCallStart       EventType = "llm_call_start"
	EventLLMCallComplete    EventType = "llm_call_complete"
	EventValidationStart    EventType = "validation_start"
	EventValidationComplete EventType = "validation_complete"
)

// WorkflowEvent is an append-only record of one workflow step.
// Owned exclusively by the session it belongs to; never mutated after append.
type WorkflowEvent struct {
	ID            uuid.UUID      `json:"event_id"`
	SessionID     uuid.UUID      `json:"session_id"`
	CorrelationID string         `json:"correlation_id"`
	Type          EventType      `json:"event_type"`
	Timestamp     time.Time      `json:"timestamp"`
	Component     string         `json:"component"`
	Operation     string         `json:"operation"`
	Data          map[string]any `json:"data,omitempty"`
	DurationMs    *float64       `json:"duration_ms,omitempty"`
	Success       bool           `json:"success"`
	ErrorMessage  string         `json:"error_message,omitempty"`
}
