package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"safedesk/internal/complaint/models"
	"safedesk/internal/identity"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/sentinel"
)

// InMemory keeps complaints in a map guarded by one RWMutex. Execute holds
// the write lock across validate and mutate.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[id.ComplaintID]*models.Complaint
	byCase map[identity.CaseNumber]id.ComplaintID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[id.ComplaintID]*models.Complaint),
		byCase: make(map[identity.CaseNumber]id.ComplaintID),
	}
}

func (s *InMemory) Create(_ context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCase[c.CaseNumber]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byID[c.ID]; ok {
		return sentinel.ErrConflict
	}
	clone := *c
	s.byID[c.ID] = &clone
	s.byCase[c.CaseNumber] = c.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[complaintID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *InMemory) FindByCaseNumber(_ context.Context, caseNumber identity.CaseNumber) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	complaintID, ok := s.byCase[caseNumber]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[complaintID]
	return &clone, nil
}

// List returns matching complaints, newest first.
func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Complaint
	for _, c := range s.byID {
		if c.OrganizationID != filter.OrganizationID {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, c.Status) {
			continue
		}
		if len(filter.Severities) > 0 && !slices.Contains(filter.Severities, c.Severity) {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CaseNumber > out[j].CaseNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Execute loads, validates and mutates a complaint under the write lock.
// On validation failure nothing is written and the error is returned as-is.
func (s *InMemory) Execute(_ context.Context, complaintID id.ComplaintID, validate func(*models.Complaint) error, mutate func(*models.Complaint)) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[complaintID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := *current
	if err := validate(&working); err != nil {
		return nil, err
	}
	mutate(&working)
	s.byID[complaintID] = &working
	result := working
	return &result, nil
}

func (s *InMemory) Stats(_ context.Context, orgID id.OrganizationID, monthStart time.Time) (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.NewStats()
	for _, c := range s.byID {
		if c.OrganizationID == orgID {
			stats.Add(c, monthStart)
		}
	}
	return stats, nil
}
