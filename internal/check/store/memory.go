// Package store provides the persistence implementations for background
// checks: an in-memory store for development and tests, and a Postgres store
// for production.
package store

import (
	"context"
	"sync"

	"vetgate/internal/check/models"
	"vetgate/pkg/domain"
	"vetgate/pkg/platform/sentinel"
)

// Memory is an in-memory check store. It enforces the same invariants as the
// Postgres store: one active check per application and version-guarded updates.
type Memory struct {
	mu     sync.RWMutex
	checks map[domain.CheckID]*models.BackgroundCheck
	// byApp keeps insertion order per application so FindByApplication can
	// return the most recent check.
	byApp map[domain.ApplicationID][]domain.CheckID
}

func NewMemory() *Memory {
	return &Memory{
		checks: make(map[domain.CheckID]*models.BackgroundCheck),
		byApp:  make(map[domain.ApplicationID][]domain.CheckID),
	}
}

func (s *Memory) Create(_ context.Context, check *models.BackgroundCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.checks[check.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, id := range s.byApp[check.ApplicationID] {
		if !s.checks[id].Status.IsTerminal() {
			return sentinel.ErrConflict
		}
	}

	s.checks[check.ID] = check.Clone()
	s.byApp[check.ApplicationID] = append(s.byApp[check.ApplicationID], check.ID)
	return nil
}

func (s *Memory) FindByID(_ context.Context, id domain.CheckID) (*models.BackgroundCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	check, ok := s.checks[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return check.Clone(), nil
}

func (s *Memory) FindByApplication(_ context.Context, appID domain.ApplicationID) (*models.BackgroundCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byApp[appID]
	if len(ids) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return s.checks[ids[len(ids)-1]].Clone(), nil
}

func (s *Memory) FindActiveByApplication(_ context.Context, appID domain.ApplicationID) (*models.BackgroundCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.byApp[appID] {
		if !s.checks[id].Status.IsTerminal() {
			return s.checks[id].Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) FindPending(_ context.Context, limit int) ([]*models.BackgroundCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*models.BackgroundCheck
	for _, check := range s.checks {
		if check.Status.IsTerminal() {
			continue
		}
		pending = append(pending, check.Clone())
		if limit > 0 && len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

// Update applies the check guarded by its version. The stored record must be
// exactly one version behind the incoming one; anything else means a
// concurrent writer won and the caller must re-read.
func (s *Memory) Update(_ context.Context, check *models.BackgroundCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.checks[check.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != check.Version-1 {
		return sentinel.ErrConflict
	}
	s.checks[check.ID] = check.Clone()
	return nil
}
