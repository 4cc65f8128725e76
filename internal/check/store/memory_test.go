package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetgate/internal/check/models"
	"vetgate/pkg/domain"
	"vetgate/pkg/platform/sentinel"
)

func mustAppID(t *testing.T, raw string) domain.ApplicationID {
	t.Helper()
	id, err := domain.ParseApplicationID(raw)
	require.NoError(t, err)
	return id
}

func pendingCheck(t *testing.T, appID domain.ApplicationID) *models.BackgroundCheck {
	t.Helper()
	return &models.BackgroundCheck{
		ID:                domain.NewCheckID(),
		ApplicationID:     appID,
		PackageID:         "standard",
		ProviderRequestID: "req-1",
		Status:            models.StatusPending,
		InitiatedAt:       time.Now().UTC(),
		Version:           1,
	}
}

func TestMemoryCreate(t *testing.T) {
	ctx := context.Background()
	appID := mustAppID(t, "0d4f3f4d-9f8e-4f7a-8a6e-1f2b3c4d5e6f")

	t.Run("second active check for an application conflicts", func(t *testing.T) {
		s := NewMemory()
		require.NoError(t, s.Create(ctx, pendingCheck(t, appID)))

		err := s.Create(ctx, pendingCheck(t, appID))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("new check allowed after the previous one is terminal", func(t *testing.T) {
		s := NewMemory()
		first := pendingCheck(t, appID)
		require.NoError(t, s.Create(ctx, first))

		require.NoError(t, first.TransitionTo(models.StatusComplete, time.Now()))
		first.Version++
		require.NoError(t, s.Update(ctx, first))

		assert.NoError(t, s.Create(ctx, pendingCheck(t, appID)))
	})

	t.Run("stored record is isolated from caller mutation", func(t *testing.T) {
		s := NewMemory()
		check := pendingCheck(t, appID)
		require.NoError(t, s.Create(ctx, check))

		check.AppendEvent(time.Now(), "mutation after create")

		loaded, err := s.FindByID(ctx, check.ID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Timeline)
	})
}

func TestMemoryFind(t *testing.T) {
	ctx := context.Background()
	appID := mustAppID(t, "0d4f3f4d-9f8e-4f7a-8a6e-1f2b3c4d5e6f")

	t.Run("not found", func(t *testing.T) {
		s := NewMemory()
		_, err := s.FindByID(ctx, domain.NewCheckID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		_, err = s.FindByApplication(ctx, appID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		_, err = s.FindActiveByApplication(ctx, appID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("find by application returns the most recent check", func(t *testing.T) {
		s := NewMemory()
		first := pendingCheck(t, appID)
		require.NoError(t, s.Create(ctx, first))
		require.NoError(t, first.TransitionTo(models.StatusSuspended, time.Now()))
		first.Version++
		require.NoError(t, s.Update(ctx, first))

		second := pendingCheck(t, appID)
		require.NoError(t, s.Create(ctx, second))

		found, err := s.FindByApplication(ctx, appID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, found.ID)
	})

	t.Run("find active skips terminal checks", func(t *testing.T) {
		s := NewMemory()
		first := pendingCheck(t, appID)
		require.NoError(t, s.Create(ctx, first))
		require.NoError(t, first.TransitionTo(models.StatusComplete, time.Now()))
		first.Version++
		require.NoError(t, s.Update(ctx, first))

		_, err := s.FindActiveByApplication(ctx, appID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("find pending honors the limit", func(t *testing.T) {
		s := NewMemory()
		for _, raw := range []string{
			"11111111-1111-4111-8111-111111111111",
			"22222222-2222-4222-8222-222222222222",
			"33333333-3333-4333-8333-333333333333",
		} {
			require.NoError(t, s.Create(ctx, pendingCheck(t, mustAppID(t, raw))))
		}

		pending, err := s.FindPending(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, pending, 2)
	})
}

func TestMemoryUpdate(t *testing.T) {
	ctx := context.Background()
	appID := mustAppID(t, "0d4f3f4d-9f8e-4f7a-8a6e-1f2b3c4d5e6f")

	t.Run("version guard rejects stale writers", func(t *testing.T) {
		// Justification: two concurrent refreshes read version 1. The first
		// writes version 2; the second must fail rather than overwrite.
		s := NewMemory()
		check := pendingCheck(t, appID)
		require.NoError(t, s.Create(ctx, check))

		winner := check.Clone()
		winner.Version++
		require.NoError(t, s.Update(ctx, winner))

		loser := check.Clone()
		loser.Version++
		assert.ErrorIs(t, s.Update(ctx, loser), sentinel.ErrConflict)
	})

	t.Run("updating a missing check", func(t *testing.T) {
		s := NewMemory()
		check := pendingCheck(t, appID)
		check.Version++
		assert.ErrorIs(t, s.Update(ctx, check), sentinel.ErrNotFound)
	})
}
