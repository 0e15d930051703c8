package service

import (
	"context"
	"errors"
	"log/slog"

	"smartourism/internal/geofence/geometry"
	"smartourism/internal/geofence/models"
	locationModels "smartourism/internal/location/models"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
	"smartourism/pkg/platform/sentinel"
	"smartourism/pkg/requestcontext"
)

// Index is the in-process fence index.
type Index interface {
	Add(ctx context.Context, fence *models.GeoFence) error
	Containing(p geometry.Point) []*models.GeoFence
	List() []*models.GeoFence
}

// LocationReader resolves an entity's most recent position.
type LocationReader interface {
	Latest(ctx context.Context, entityID id.EntityID) (*locationModels.LocationPoint, error)
}

// CheckResult is the containment of an entity's latest point.
type CheckResult struct {
	models.Containment
	Location *locationModels.LocationPoint `json:"location"`
}

// Service manages danger zones and answers containment queries.
type Service struct {
	index     Index
	locations LocationReader
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(index Index, locations LocationReader, opts ...Option) *Service {
	s := &Service{index: index, locations: locations, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add validates and stores a new fence. It is visible to containment
// queries once Add returns.
func (s *Service) Add(ctx context.Context, name string, level models.RiskLevel, polygon geometry.Ring) (*models.GeoFence, error) {
	fence, err := models.NewGeoFence(id.NewFenceID(), name, level, polygon, requestcontext.Now(ctx).UTC())
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	if err := s.index.Add(ctx, fence); err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "fence store unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save fence")
	}
	s.logger.InfoContext(ctx, "geofence created",
		"request_id", requestcontext.RequestID(ctx),
		"fence_id", fence.ID,
		"risk_level", fence.RiskLevel,
	)
	return fence, nil
}

// List returns every fence in creation order.
func (s *Service) List(_ context.Context) []*models.GeoFence {
	return s.index.List()
}

// Contains tests a raw coordinate against every fence.
func (s *Service) Contains(lat, lon float64) models.Containment {
	return models.NewContainment(s.index.Containing(geometry.Point{Lat: lat, Lon: lon}))
}

// Check tests the entity's latest point. An entity without points is
// NotFound.
func (s *Service) Check(ctx context.Context, entityID id.EntityID) (*CheckResult, error) {
	latest, err := s.locations.Latest(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return &CheckResult{
		Containment: s.Contains(latest.Lat, latest.Lon),
		Location:    latest,
	}, nil
}
