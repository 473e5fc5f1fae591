// Package memory keeps the audit trail in process for local runs and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	id "talaty/pkg/domain"
	audit "talaty/pkg/platform/audit"
)

// DefaultCapacity bounds the log when no capacity is given.
const DefaultCapacity = 10_000

// InMemoryStore is an append-only ring. Once full, the oldest event is
// overwritten so a long-running dev server does not grow without bound.
type InMemoryStore struct {
	mu       sync.RWMutex
	events   []audit.Event
	next     int
	full     bool
	capacity int
}

func NewInMemoryStore() *InMemoryStore {
	return NewWithCapacity(DefaultCapacity)
}

func NewWithCapacity(capacity int) *InMemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &InMemoryStore{events: make([]audit.Event, 0, capacity), capacity: capacity}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.full {
		s.events = append(s.events, event)
		s.full = len(s.events) == s.capacity
		return nil
	}
	s.events[s.next] = event
	s.next = (s.next + 1) % s.capacity
	return nil
}

// ListByUser returns the retained events for a user ordered by timestamp,
// matching the Postgres store. Events with equal timestamps keep append order.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Event
	for i := range s.events {
		e := s.events[(s.next+i)%len(s.events)]
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b audit.Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out, nil
}
