// Package consent implements the legal-affirmation gate that precedes every
// screening submission.
package consent

import (
	"time"

	dErrors "vetgate/pkg/domain-errors"
)

// Record captures an operator's affirmation that the candidate consented to a
// background check. It is a precondition value, not long-lived state: the
// orchestrator stamps AffirmedBy/AffirmedAt onto the persisted check for audit
// and discards the record.
type Record struct {
	Obtained   bool      `json:"obtained"`
	AffirmedBy string    `json:"affirmed_by"`
	AffirmedAt time.Time `json:"affirmed_at"`
}

// Ensure enforces the consent gate. This is a hard compliance requirement:
// no caller may submit a screening request without an affirmed consent and an
// identified affirming operator.
func Ensure(rec Record, now time.Time) error {
	if !rec.Obtained {
		return dErrors.New(dErrors.CodeConsentRequired, "candidate consent must be affirmed before submission")
	}
	if rec.AffirmedBy == "" {
		return dErrors.New(dErrors.CodeConsentRequired, "consent affirmation requires an identified operator")
	}
	if !rec.AffirmedAt.IsZero() && rec.AffirmedAt.After(now) {
		return dErrors.New(dErrors.CodeConsentRequired, "consent affirmation time cannot be in the future")
	}
	return nil
}

// Stamp normalizes the record for persistence, defaulting AffirmedAt to now
// when the caller did not set it.
func Stamp(rec Record, now time.Time) Record {
	if rec.AffirmedAt.IsZero() {
		rec.AffirmedAt = now
	}
	return rec
}
