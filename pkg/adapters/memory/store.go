package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/tonnetz/pkg/domain"
)

// Store implements ports.SelectionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Selection
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Selection),
	}
}

// Save persists a copy of the selection.
func (s *Store) Save(ctx context.Context, sessionID string, sel *domain.Selection) error {
	cp := sel.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = cp
	return nil
}

// Load returns a copy so callers cannot mutate stored state through the pointer.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sel.Snapshot(), nil
}

// Delete removes the selection.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the stored session IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}
