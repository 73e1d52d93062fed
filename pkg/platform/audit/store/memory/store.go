package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	audit "licences/pkg/platform/audit"
)

// InMemoryStore keeps audit events in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
	nextID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	event.ID = s.nextID
	event.Changes = maps.Clone(event.Changes)
	s.events = append(s.events, event)
	return event.ID, nil
}

func (s *InMemoryStore) ListByLicence(_ context.Context, licenceID int64) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.LicenceID != nil && *e.LicenceID == licenceID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every stored event in insertion order.
func (s *InMemoryStore) All() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// Snapshot implements tx.Snapshotter.
func (s *InMemoryStore) Snapshot() func() {
	s.mu.RLock()
	saved := slices.Clone(s.events)
	savedID := s.nextID
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = saved
		s.nextID = savedID
	}
}
