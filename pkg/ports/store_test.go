package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/ports"
)

// MockStore is a minimal SelectionStore used to validate the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]domain.Selection
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]domain.Selection)}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, sel *domain.Selection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = *sel.Snapshot()
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sel, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sel.Snapshot(), nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestMockStore_Contract(t *testing.T) {
	ports.RunSelectionStoreContract(t, NewMockStore())
}
