package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"smartourism/internal/location/models"
	"smartourism/internal/location/store"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
	"smartourism/pkg/platform/sentinel"
	"smartourism/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *Service
	entity  id.EntityID
	base    time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.service = New(s.store)
	s.entity = id.EntityID(uuid.New())
	s.base = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.base.Add(offset))
}

func (s *ServiceSuite) TestAppendPersistsExactCoordinates() {
	p, err := s.service.Append(s.at(0), s.entity, 40.7130, -74.0055, nil, nil)
	s.Require().NoError(err)

	latest, err := s.service.Latest(context.Background(), s.entity)
	s.Require().NoError(err)
	s.Equal(p.ID, latest.ID)
	s.Equal(40.7130, latest.Lat)
	s.Equal(-74.0055, latest.Lon)
	s.Equal(s.base, latest.Timestamp)
	s.Nil(latest.RiskScore)
	s.Equal(models.DefaultRiskLabel, latest.Label())
}

func (s *ServiceSuite) TestAppendRejectsOutOfRangeWithoutWriting() {
	_, err := s.service.Append(s.at(0), s.entity, 95, 0, nil, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	history, err := s.service.History(context.Background(), s.entity)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *ServiceSuite) TestTimestampsNeverRunBackwards() {
	_, err := s.service.Append(s.at(time.Minute), s.entity, 1, 1, nil, nil)
	s.Require().NoError(err)

	// A ping whose request clock is behind the stored latest.
	late, err := s.service.Append(s.at(0), s.entity, 2, 2, nil, nil)
	s.Require().NoError(err)
	s.Equal(s.base.Add(time.Minute), late.Timestamp)

	history, err := s.service.History(context.Background(), s.entity)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.False(history[1].Timestamp.Before(history[0].Timestamp))
}

func (s *ServiceSuite) TestRecentWindowIsMostRecentFirstAndBounded() {
	for i := 0; i < 12; i++ {
		_, err := s.service.Append(s.at(time.Duration(i)*time.Second), s.entity, float64(i), 0, nil, nil)
		s.Require().NoError(err)
	}

	window, err := s.service.RecentWindow(context.Background(), s.entity, 10)
	s.Require().NoError(err)
	s.Require().Len(window, 10)
	s.Equal(11.0, window[0].Lat)
	s.Equal(2.0, window[9].Lat)

	_, err = s.service.RecentWindow(context.Background(), s.entity, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestHistoryIsOldestFirst() {
	for i := 0; i < 3; i++ {
		_, err := s.service.Append(s.at(time.Duration(i)*time.Second), s.entity, float64(i), float64(i), nil, nil)
		s.Require().NoError(err)
	}
	history, err := s.service.History(context.Background(), s.entity)
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	s.Equal(0.0, history[0].Lat)
	s.Equal(2.0, history[2].Lat)
}

func (s *ServiceSuite) TestLatestNotFound() {
	_, err := s.service.Latest(context.Background(), s.entity)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdateRiskRoundTrip() {
	p, err := s.service.Append(s.at(0), s.entity, 10, 20, nil, nil)
	s.Require().NoError(err)

	updated, err := s.service.UpdateRisk(context.Background(), p.ID, 0.85, "high")
	s.Require().NoError(err)
	s.Equal(0.85, updated.Score())

	// Idempotent for identical values.
	again, err := s.service.UpdateRisk(context.Background(), p.ID, 0.85, "high")
	s.Require().NoError(err)
	s.Equal(updated, again)

	latest, err := s.service.Latest(context.Background(), s.entity)
	s.Require().NoError(err)
	s.Equal(updated, latest)

	history, err := s.service.History(context.Background(), s.entity)
	s.Require().NoError(err)
	s.Equal(updated, history[0])
}

func (s *ServiceSuite) TestUpdateRiskErrors() {
	_, err := s.service.UpdateRisk(context.Background(), id.NewPointID(), 0.5, "medium")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.UpdateRisk(context.Background(), id.NewPointID(), 1.5, "high")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestStorageFailuresAreClassified() {
	svc := New(brokenStore{err: fmt.Errorf("insert: %w", sentinel.ErrUnavailable)})
	_, err := svc.Append(s.at(0), s.entity, 0, 0, nil, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	svc = New(brokenStore{err: errors.New("check constraint")})
	_, err = svc.Append(s.at(0), s.entity, 0, 0, nil, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

type brokenStore struct {
	store.Store
	err error
}

func (b brokenStore) Append(context.Context, *models.LocationPoint) error { return b.err }
