// Package reviewer persists portal accounts.
package reviewer

import (
	"context"
	"sync"
	"time"

	"safedesk/internal/auth/models"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/sentinel"
)

type InMemory struct {
	mu        sync.RWMutex
	reviewers map[id.ReviewerID]*models.Reviewer
	byEmail   map[string]id.ReviewerID
}

func NewInMemory() *InMemory {
	return &InMemory{
		reviewers: make(map[id.ReviewerID]*models.Reviewer),
		byEmail:   make(map[string]id.ReviewerID),
	}
}

// Save inserts or replaces a reviewer. An email held by another reviewer
// returns sentinel.ErrConflict.
func (s *InMemory) Save(_ context.Context, r *models.Reviewer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.byEmail[r.Email]; ok && owner != r.ID {
		return sentinel.ErrConflict
	}
	if prev, ok := s.reviewers[r.ID]; ok && prev.Email != r.Email {
		delete(s.byEmail, prev.Email)
	}
	c := clone(r)
	s.reviewers[r.ID] = c
	s.byEmail[r.Email] = r.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, reviewerID id.ReviewerID) (*models.Reviewer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviewers[reviewerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Reviewer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reviewerID, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.reviewers[reviewerID]), nil
}

func (s *InMemory) RecordLogin(_ context.Context, reviewerID id.ReviewerID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviewers[reviewerID]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.LastLoginAt = &at
	return nil
}

func clone(r *models.Reviewer) *models.Reviewer {
	c := *r
	if r.LastLoginAt != nil {
		t := *r.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}
