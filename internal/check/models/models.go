// Package models defines the background check aggregate and its lifecycle.
package models

import (
	"time"

	"vetgate/pkg/domain"
	dErrors "vetgate/pkg/domain-errors"
)

// Status is the local lifecycle state of a background check.
type Status string

const (
	// StatusPending covers every in-flight provider state. A check stays
	// pending until the provider reaches a terminal outcome.
	StatusPending Status = "pending"

	// StatusComplete means the check finished with no findings requiring review.
	StatusComplete Status = "complete"

	// StatusConsider means the check finished with findings an operator must
	// weigh before a hiring decision.
	StatusConsider Status = "consider"

	// StatusSuspended means the check stopped without a result, for example a
	// cancellation or an unresolved dispute.
	StatusSuspended Status = "suspended"
)

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusConsider || s == StatusSuspended
}

// CanTransitionTo reports whether moving to target is a legal lifecycle step.
// The lifecycle is forward-only: pending may move to any terminal status, and
// terminal statuses never move again.
func (s Status) CanTransitionTo(target Status) bool {
	if s != StatusPending {
		return false
	}
	return target.IsTerminal()
}

// TimelineEvent is one append-only progress entry on a check.
type TimelineEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// BackgroundCheck is the aggregate tracking one screening request from
// submission to a terminal outcome. Raw candidate data is never stored here;
// only the provider's request handle and derived progress survive intake.
type BackgroundCheck struct {
	ID                domain.CheckID       `json:"id"`
	ApplicationID     domain.ApplicationID `json:"application_id"`
	PackageID         string               `json:"package_id"`
	ProviderRequestID string               `json:"provider_request_id"`
	ProviderReportURL string               `json:"provider_report_url,omitempty"`
	Status            Status               `json:"status"`
	ConsentAffirmedBy string               `json:"consent_affirmed_by"`
	ConsentAffirmedAt time.Time            `json:"consent_affirmed_at"`
	InitiatedAt       time.Time            `json:"initiated_at"`
	CompletedAt       *time.Time           `json:"completed_at,omitempty"`
	Timeline          []TimelineEvent      `json:"timeline"`
	Version           int                  `json:"version"`
}

// AppendEvent adds a timeline entry. The timeline is append-only; entries are
// never rewritten or removed.
func (c *BackgroundCheck) AppendEvent(at time.Time, description string) {
	c.Timeline = append(c.Timeline, TimelineEvent{Timestamp: at, Description: description})
}

// TransitionTo moves the check to target, stamping CompletedAt on terminal
// transitions. Illegal transitions return an invariant violation so callers
// surface them loudly instead of silently corrupting state.
func (c *BackgroundCheck) TransitionTo(target Status, at time.Time) error {
	if !c.Status.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"illegal status transition from "+string(c.Status)+" to "+string(target))
	}
	c.Status = target
	if target.IsTerminal() {
		completed := at
		c.CompletedAt = &completed
	}
	return nil
}

// Clone returns a deep copy so stores can hand out values without sharing the
// timeline slice with callers.
func (c *BackgroundCheck) Clone() *BackgroundCheck {
	cp := *c
	if c.CompletedAt != nil {
		completed := *c.CompletedAt
		cp.CompletedAt = &completed
	}
	cp.Timeline = make([]TimelineEvent, len(c.Timeline))
	copy(cp.Timeline, c.Timeline)
	return &cp
}
