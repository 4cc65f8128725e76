package consent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	dErrors "vetgate/pkg/domain-errors"
	"vetgate/pkg/testutil"
)

func TestEnsure(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	testutil.Given(t, "consent was not obtained", func(t *testing.T) {
		err := Ensure(Record{Obtained: false, AffirmedBy: "ops@example.com"}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConsentRequired))
	})

	testutil.Given(t, "no operator is identified", func(t *testing.T) {
		err := Ensure(Record{Obtained: true}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConsentRequired))
	})

	testutil.Given(t, "the affirmation is dated in the future", func(t *testing.T) {
		err := Ensure(Record{Obtained: true, AffirmedBy: "ops@example.com", AffirmedAt: now.Add(time.Hour)}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConsentRequired))
	})

	testutil.Given(t, "consent is affirmed by an operator", func(t *testing.T) {
		err := Ensure(Record{Obtained: true, AffirmedBy: "ops@example.com", AffirmedAt: now}, now)
		assert.NoError(t, err)
	})
}

func TestStamp(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("defaults affirmation time to now", func(t *testing.T) {
		stamped := Stamp(Record{Obtained: true, AffirmedBy: "ops@example.com"}, now)
		assert.Equal(t, now, stamped.AffirmedAt)
	})

	t.Run("preserves an explicit affirmation time", func(t *testing.T) {
		explicit := now.Add(-time.Hour)
		stamped := Stamp(Record{Obtained: true, AffirmedBy: "ops@example.com", AffirmedAt: explicit}, now)
		assert.Equal(t, explicit, stamped.AffirmedAt)
	})
}
