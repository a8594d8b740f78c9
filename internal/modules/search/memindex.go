// README: In-memory geo index for tests and single-process runs.
package search

import (
	"context"
	"sync"

	"ridepool/internal/geo"
	"ridepool/internal/types"
)

// MemoryIndex is the in-process index used when Redis is not configured.
type MemoryIndex struct {
	mu      sync.RWMutex
	origins map[types.ID]types.Point
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{origins: make(map[types.ID]types.Point)}
}

func (m *MemoryIndex) Add(_ context.Context, id types.ID, origin types.Point) error {
	m.mu.Lock()
	m.origins[id] = origin
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Remove(_ context.Context, id types.ID) error {
	m.mu.Lock()
	delete(m.origins, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Within(_ context.Context, p types.Point, radiusKm float64, limit int) ([]Hit, error) {
	m.mu.RLock()
	var hits []Hit
	for id, origin := range m.origins {
		if d := geo.HaversineKm(p, origin); d <= radiusKm {
			hits = append(hits, Hit{RideID: id, DistanceKm: d})
		}
	}
	m.mu.RUnlock()

	geo.SortByDistance(hits, func(h Hit) float64 { return h.DistanceKm })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
