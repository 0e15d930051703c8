package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"smartourism/internal/alert/models"
	id "smartourism/pkg/domain"
	"smartourism/pkg/platform/sentinel"
)

type memoryAlert struct {
	seq   int64
	alert *models.Alert
}

// InMemoryStore keeps alerts in process memory. Listings are newest first,
// with insertion order breaking created_at ties.
type InMemoryStore struct {
	mu        sync.RWMutex
	seq       int64
	alerts    map[id.AlertID]*memoryAlert
	responses map[id.AlertID][]*models.AlertResponse
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		alerts:    make(map[id.AlertID]*memoryAlert),
		responses: make(map[id.AlertID][]*models.AlertResponse),
	}
}

func (s *InMemoryStore) Create(_ context.Context, alert *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[alert.ID]; ok {
		return sentinel.ErrConflict
	}
	s.seq++
	s.alerts[alert.ID] = &memoryAlert{seq: s.seq, alert: alert.Clone()}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, alertID id.AlertID) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.alerts[alertID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return stored.alert.Clone(), nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*models.Alert, error) {
	s.mu.RLock()
	matched := make([]*memoryAlert, 0, len(s.alerts))
	for _, stored := range s.alerts {
		if filter.matches(stored.alert) {
			matched = append(matched, stored)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.alert.CreatedAt.Equal(b.alert.CreatedAt) {
			return a.alert.CreatedAt.After(b.alert.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]*models.Alert, len(matched))
	for i, stored := range matched {
		out[i] = stored.alert.Clone()
	}
	return out, nil
}

// Resolve transitions the alert under the store lock. It reports whether
// the status changed.
func (s *InMemoryStore) Resolve(_ context.Context, alertID id.AlertID, now time.Time) (*models.Alert, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.alerts[alertID]
	if !ok {
		return nil, false, sentinel.ErrNotFound
	}
	changed := stored.alert.Resolve(now)
	return stored.alert.Clone(), changed, nil
}

func (s *InMemoryStore) AddResponse(_ context.Context, response *models.AlertResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[response.AlertID]; !ok {
		return sentinel.ErrNotFound
	}
	r := *response
	s.responses[response.AlertID] = append(s.responses[response.AlertID], &r)
	return nil
}

func (s *InMemoryStore) ListResponses(_ context.Context, alertID id.AlertID) ([]*models.AlertResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.alerts[alertID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	stored := s.responses[alertID]
	out := make([]*models.AlertResponse, len(stored))
	for i, r := range stored {
		c := *r
		out[i] = &c
	}
	return out, nil
}
