package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"smartourism/internal/location/metrics"
	"smartourism/internal/location/models"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
	"smartourism/pkg/platform/sentinel"
	"smartourism/pkg/requestcontext"
)

// Store persists location points. Implementations clamp each appended
// point's timestamp so an entity's history never runs backwards.
type Store interface {
	Append(ctx context.Context, point *models.LocationPoint) error
	RecentWindow(ctx context.Context, entityID id.EntityID, n int) ([]*models.LocationPoint, error)
	Latest(ctx context.Context, entityID id.EntityID) (*models.LocationPoint, error)
	History(ctx context.Context, entityID id.EntityID) ([]*models.LocationPoint, error)
	UpdateRisk(ctx context.Context, pointID id.PointID, score float64, label string) (*models.LocationPoint, error)
}

// Service is the location history: validated appends, windowed reads and
// the one permitted mutation (risk enrichment).
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append validates and stores a new point. Out-of-range coordinates are a
// validation error; nothing is written.
func (s *Service) Append(ctx context.Context, entityID id.EntityID, lat, lon float64, score *float64, label *string) (*models.LocationPoint, error) {
	point, err := models.NewLocationPoint(id.NewPointID(), entityID, lat, lon, score, label, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	start := time.Now()
	err = s.store.Append(ctx, point)
	s.metrics.ObserveAppend(start)
	if err != nil {
		return nil, storageError(err, "failed to save location")
	}
	return point, nil
}

// RecentWindow returns up to n points, most recent first.
func (s *Service) RecentWindow(ctx context.Context, entityID id.EntityID, n int) ([]*models.LocationPoint, error) {
	if n <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "window size must be positive")
	}
	points, err := s.store.RecentWindow(ctx, entityID, n)
	if err != nil {
		return nil, storageError(err, "failed to load recent locations")
	}
	return points, nil
}

// Latest returns the entity's most recent point.
func (s *Service) Latest(ctx context.Context, entityID id.EntityID) (*models.LocationPoint, error) {
	p, err := s.store.Latest(ctx, entityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no location found for entity")
		}
		return nil, storageError(err, "failed to load latest location")
	}
	return p, nil
}

// History returns every point for the entity, oldest first. An entity with
// no points yields an empty slice.
func (s *Service) History(ctx context.Context, entityID id.EntityID) ([]*models.LocationPoint, error) {
	points, err := s.store.History(ctx, entityID)
	if err != nil {
		return nil, storageError(err, "failed to load location history")
	}
	return points, nil
}

// UpdateRisk records an enrichment result on an existing point. Repeating
// the call with the same values is a no-op; otherwise the last write wins.
func (s *Service) UpdateRisk(ctx context.Context, pointID id.PointID, score float64, label string) (*models.LocationPoint, error) {
	if err := models.ValidateScore(score); err != nil {
		return nil, err
	}
	p, err := s.store.UpdateRisk(ctx, pointID, score, label)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "location point not found")
		}
		return nil, storageError(err, "failed to update location risk")
	}
	return p, nil
}

func storageError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "location store unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
