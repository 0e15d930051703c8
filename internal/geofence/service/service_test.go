package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"smartourism/internal/geofence/geometry"
	"smartourism/internal/geofence/index"
	"smartourism/internal/geofence/models"
	"smartourism/internal/geofence/store"
	locationService "smartourism/internal/location/service"
	locationStore "smartourism/internal/location/store"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
	"smartourism/pkg/platform/sentinel"
	"smartourism/pkg/requestcontext"
)

var downtown = geometry.Ring{
	{-74.006, 40.7128},
	{-74.005, 40.7128},
	{-74.005, 40.7138},
	{-74.006, 40.7138},
	{-74.006, 40.7128},
}

type ServiceSuite struct {
	suite.Suite
	locations *locationService.Service
	service   *Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.locations = locationService.New(locationStore.NewInMemoryStore())
	s.service = New(index.New(store.NewInMemoryStore()), s.locations)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
}

func (s *ServiceSuite) TestAddAndContains() {
	fence, err := s.service.Add(s.ctx, "  Financial District ", models.RiskLevelHigh, downtown)
	s.Require().NoError(err)
	s.Equal("Financial District", fence.Name)

	inside := s.service.Contains(40.7130, -74.0055)
	s.True(inside.Inside)
	s.Require().Len(inside.Fences, 1)
	s.Equal(fence.ID, inside.Fences[0].ID)
	s.Equal(models.RiskLevelHigh, inside.MaxLevel())

	outside := s.service.Contains(41.0, -75.0)
	s.False(outside.Inside)
	s.Empty(outside.Fences)

	s.Len(s.service.List(s.ctx), 1)
}

func (s *ServiceSuite) TestAddRejectsInvalidFences() {
	open := downtown[:4]
	_, err := s.service.Add(s.ctx, "Open ring", models.RiskLevelLow, open)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Add(s.ctx, "", models.RiskLevelLow, downtown)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.Empty(s.service.List(s.ctx))
}

func (s *ServiceSuite) TestAddClassifiesStoreFailures() {
	svc := New(index.New(failingStore{err: fmt.Errorf("insert: %w", sentinel.ErrUnavailable)}), s.locations)
	_, err := svc.Add(s.ctx, "Harbor", models.RiskLevelMedium, downtown)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Empty(svc.List(s.ctx))
}

func (s *ServiceSuite) TestCheckUsesLatestPoint() {
	entity := id.EntityID(uuid.New())
	_, err := s.service.Check(s.ctx, entity)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Add(s.ctx, "Financial District", models.RiskLevelHigh, downtown)
	s.Require().NoError(err)

	_, err = s.locations.Append(s.ctx, entity, 41.0, -75.0, nil, nil)
	s.Require().NoError(err)
	result, err := s.service.Check(s.ctx, entity)
	s.Require().NoError(err)
	s.False(result.Inside)

	later := requestcontext.WithTime(context.Background(), time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC))
	latest, err := s.locations.Append(later, entity, 40.7130, -74.0055, nil, nil)
	s.Require().NoError(err)
	result, err = s.service.Check(s.ctx, entity)
	s.Require().NoError(err)
	s.True(result.Inside)
	s.Equal(latest.ID, result.Location.ID)
}

type failingStore struct {
	err error
}

func (f failingStore) Create(context.Context, *models.GeoFence) error { return f.err }
func (f failingStore) List(context.Context) ([]*models.GeoFence, error) {
	return nil, f.err
}
