package store

import (
	"context"
	"sort"
	"sync"

	"safedesk/internal/evidence/models"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	evidence map[id.EvidenceID]*models.Evidence
	order    []id.EvidenceID
}

func NewInMemory() *InMemory {
	return &InMemory{evidence: make(map[id.EvidenceID]*models.Evidence)}
}

func (s *InMemory) Create(_ context.Context, e *models.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.evidence[e.ID]; exists {
		return sentinel.ErrConflict
	}
	s.evidence[e.ID] = clone(e)
	s.order = append(s.order, e.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, evidenceID id.EvidenceID) (*models.Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.evidence[evidenceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(e), nil
}

// ListByComplaint returns evidence oldest upload first.
func (s *InMemory) ListByComplaint(_ context.Context, complaintID id.ComplaintID) ([]*models.Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Evidence{}
	for _, evidenceID := range s.order {
		if e := s.evidence[evidenceID]; e.ComplaintID == complaintID {
			out = append(out, clone(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out, nil
}

// Execute validates and mutates one record under the write lock.
func (s *InMemory) Execute(_ context.Context, evidenceID id.EvidenceID, validate func(*models.Evidence) error, mutate func(*models.Evidence)) (*models.Evidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.evidence[evidenceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(current)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.evidence[evidenceID] = working
	return clone(working), nil
}

func clone(e *models.Evidence) *models.Evidence {
	c := *e
	if e.Assessment != nil {
		a := *e.Assessment
		c.Assessment = &a
	}
	return &c
}
