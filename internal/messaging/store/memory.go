package store

import (
	"context"
	"sync"

	"safedesk/internal/messaging/models"
	id "safedesk/pkg/domain"
)

// InMemory keeps each case's messages in insertion order.
type InMemory struct {
	mu     sync.RWMutex
	byCase map[id.ComplaintID][]*models.Message
}

func NewInMemory() *InMemory {
	return &InMemory{byCase: make(map[id.ComplaintID][]*models.Message)}
}

func (s *InMemory) Append(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *msg
	s.byCase[msg.ComplaintID] = append(s.byCase[msg.ComplaintID], &clone)
	return nil
}

// ListByComplaint returns messages oldest first. Messages sharing a
// timestamp keep their append order.
func (s *InMemory) ListByComplaint(_ context.Context, complaintID id.ComplaintID) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.byCase[complaintID]
	out := make([]*models.Message, 0, len(msgs))
	for _, m := range msgs {
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}
