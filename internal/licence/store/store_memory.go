package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"licences/internal/licence/models"
	"licences/pkg/platform/sentinel"
)

// InMemoryStore keeps licences in process memory. It implements
// tx.Snapshotter so a MemoryTx can roll it back.
type InMemoryStore struct {
	mu       sync.RWMutex
	licences map[int64]models.Licence
	nextID   int64
}

// New constructs an empty in-memory licence store.
func New() *InMemoryStore {
	return &InMemoryStore{licences: make(map[int64]models.Licence)}
}

// Create assigns an id and the first row version.
func (s *InMemoryStore) Create(_ context.Context, l models.Licence) (models.Licence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	l = l.Clone()
	l.ID = s.nextID
	l.RowVersion = 1
	s.licences[l.ID] = l
	return l.Clone(), nil
}

// Update replaces the stored licence when the caller's RowVersion is current.
func (s *InMemoryStore) Update(_ context.Context, l models.Licence) (models.Licence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.licences[l.ID]
	if !ok {
		return models.Licence{}, sentinel.ErrNotFound
	}
	if existing.RowVersion != l.RowVersion {
		return models.Licence{}, sentinel.ErrConflict
	}
	l = l.Clone()
	l.RowVersion++
	s.licences[l.ID] = l
	return l.Clone(), nil
}

func (s *InMemoryStore) Get(_ context.Context, id int64) (models.Licence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.licences[id]
	if !ok {
		return models.Licence{}, sentinel.ErrNotFound
	}
	return l.Clone(), nil
}

// List returns matching licences ordered by id.
func (s *InMemoryStore) List(_ context.Context, f Filter) ([]models.Licence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := slices.Sorted(maps.Keys(s.licences))
	var out []models.Licence
	for _, id := range ids {
		l := s.licences[id]
		if f.Matches(l) {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

// Snapshot implements tx.Snapshotter.
func (s *InMemoryStore) Snapshot() func() {
	s.mu.RLock()
	saved := make(map[int64]models.Licence, len(s.licences))
	for id, l := range s.licences {
		saved[id] = l.Clone()
	}
	savedID := s.nextID
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.licences = saved
		s.nextID = savedID
	}
}

// InMemoryEventStore keeps licence events in process memory.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events []models.LicenceEvent
}

func NewEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{}
}

func (s *InMemoryEventStore) Append(_ context.Context, e models.LicenceEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = int64(len(s.events) + 1)
	s.events = append(s.events, e)
	return e.ID, nil
}

func (s *InMemoryEventStore) ListByLicence(_ context.Context, licenceID int64) ([]models.LicenceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.LicenceEvent
	for _, e := range s.events {
		if e.LicenceID == licenceID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every event in append order.
func (s *InMemoryEventStore) All() []models.LicenceEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// Snapshot implements tx.Snapshotter.
func (s *InMemoryEventStore) Snapshot() func() {
	s.mu.RLock()
	saved := slices.Clone(s.events)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = saved
	}
}
