// Package sequence provides per-year case sequence counters.
package sequence

import (
	"context"
	"sync"
)

// InMemory is a process-local counter.
type InMemory struct {
	mu     sync.Mutex
	values map[int]int64
}

func NewInMemory() *InMemory {
	return &InMemory{values: make(map[int]int64)}
}

func (s *InMemory) Next(_ context.Context, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[year]++
	return s.values[year], nil
}
