// Package audit defines the audit event model and publisher contract.
// Events are emitted from domain logic to capture key workflow actions.
// Keep the model transport-agnostic so sinks (Kafka, memory) can fan out.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// Consent stamps and screening submissions fall here; these require
	// long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility, such as refresh attempts and provider failures.
	CategoryOperations EventCategory = "operations"
)

// Event captures a single auditable action in the screening workflow.
type Event struct {
	Category      EventCategory `json:"category"`
	Timestamp     time.Time     `json:"timestamp"`
	Action        string        `json:"action"`
	CheckID       string        `json:"check_id,omitempty"`
	ApplicationID string        `json:"application_id,omitempty"`
	// ActorID is the operator who performed the action. The workflow never
	// fabricates this; it comes from the authenticated request context.
	ActorID   string `json:"actor_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Workflow actions emitted by the check service.
const (
	ActionCheckSubmitted     = "check_submitted"
	ActionCheckStatusChanged = "check_status_changed"
	ActionCheckRefreshFailed = "check_refresh_failed"
)

// Publisher emits audit events for compliance-relevant operations.
// Implementations must be safe for concurrent use.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
