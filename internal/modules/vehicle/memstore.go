// README: Vehicle store backed by memory (tests and local runs).
package vehicle

import (
	"context"
	"sync"

	"ridepool/internal/types"
)

// MemoryStore keeps vehicles in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	vehicles map[types.ID]Vehicle
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vehicles: make(map[types.ID]Vehicle)}
}

func (m *MemoryStore) Create(_ context.Context, v *Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[v.ID] = *v
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}
