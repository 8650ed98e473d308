package store

import (
	"context"
	"sync"

	"safedesk/internal/organization/models"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/sentinel"
)

type InMemory struct {
	mu   sync.RWMutex
	orgs map[id.OrganizationID]*models.Organization
}

func NewInMemory() *InMemory {
	return &InMemory{orgs: make(map[id.OrganizationID]*models.Organization)}
}

// Save inserts or replaces an organization.
func (s *InMemory) Save(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *org
	s.orgs[org.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *org
	return &clone, nil
}
