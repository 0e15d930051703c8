package store

import (
	"context"
	"sync"

	"smartourism/internal/location/models"
	id "smartourism/pkg/domain"
	"smartourism/pkg/platform/sentinel"
)

// InMemoryStore keeps each entity's points in append order. Because the
// store clamps timestamps, append order is also timestamp order.
type InMemoryStore struct {
	mu       sync.RWMutex
	byEntity map[id.EntityID][]*models.LocationPoint
	byID     map[id.PointID]*models.LocationPoint
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byEntity: make(map[id.EntityID][]*models.LocationPoint),
		byID:     make(map[id.PointID]*models.LocationPoint),
	}
}

func (s *InMemoryStore) Append(_ context.Context, point *models.LocationPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[point.ID]; exists {
		return sentinel.ErrConflict
	}
	points := s.byEntity[point.EntityID]
	if n := len(points); n > 0 && point.Timestamp.Before(points[n-1].Timestamp) {
		point.Timestamp = points[n-1].Timestamp
	}
	stored := point.Clone()
	s.byEntity[point.EntityID] = append(points, stored)
	s.byID[point.ID] = stored
	return nil
}

func (s *InMemoryStore) RecentWindow(_ context.Context, entityID id.EntityID, n int) ([]*models.LocationPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.byEntity[entityID]
	if n > len(points) {
		n = len(points)
	}
	out := make([]*models.LocationPoint, 0, n)
	for i := len(points) - 1; i >= len(points)-n; i-- {
		out = append(out, points[i].Clone())
	}
	return out, nil
}

func (s *InMemoryStore) Latest(_ context.Context, entityID id.EntityID) (*models.LocationPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.byEntity[entityID]
	if len(points) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return points[len(points)-1].Clone(), nil
}

func (s *InMemoryStore) History(_ context.Context, entityID id.EntityID) ([]*models.LocationPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.byEntity[entityID]
	out := make([]*models.LocationPoint, len(points))
	for i, p := range points {
		out[i] = p.Clone()
	}
	return out, nil
}

func (s *InMemoryStore) UpdateRisk(_ context.Context, pointID id.PointID, score float64, label string) (*models.LocationPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[pointID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	p.ApplyRisk(score, label)
	return p.Clone(), nil
}
