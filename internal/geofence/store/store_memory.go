package store

import (
	"context"
	"sync"

	"smartourism/internal/geofence/models"
	"smartourism/pkg/platform/sentinel"
)

// InMemoryStore keeps fences in insertion order.
type InMemoryStore struct {
	mu     sync.RWMutex
	fences []*models.GeoFence
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Create(_ context.Context, fence *models.GeoFence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.fences {
		if f.ID == fence.ID {
			return sentinel.ErrConflict
		}
	}
	s.fences = append(s.fences, fence)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.GeoFence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.GeoFence, len(s.fences))
	copy(out, s.fences)
	return out, nil
}
