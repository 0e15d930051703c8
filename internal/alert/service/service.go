package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smartourism/internal/alert/metrics"
	"smartourism/internal/alert/models"
	"smartourism/internal/alert/publisher"
	"smartourism/internal/alert/store"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
	"smartourism/pkg/platform/sentinel"
	"smartourism/pkg/requestcontext"
)

// Store persists alerts and responses.
type Store interface {
	Create(ctx context.Context, alert *models.Alert) error
	Get(ctx context.Context, alertID id.AlertID) (*models.Alert, error)
	List(ctx context.Context, filter store.Filter) ([]*models.Alert, error)
	Resolve(ctx context.Context, alertID id.AlertID, now time.Time) (*models.Alert, bool, error)
	AddResponse(ctx context.Context, response *models.AlertResponse) error
	ListResponses(ctx context.Context, alertID id.AlertID) ([]*models.AlertResponse, error)
}

// Publisher hands lifecycle events to downstream notification systems.
// Publish must not block on I/O.
type Publisher interface {
	Publish(ctx context.Context, event publisher.Event)
}

// DefaultSOSMode labels distress calls that do not say how they were sent.
const DefaultSOSMode = "one-tap"

// Service is the alert sink. Every Raise creates a new open alert; there is
// no de-duplication across triggers.
type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
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

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Raise creates and stores a new open alert.
func (s *Service) Raise(ctx context.Context, entityID id.EntityID, alertType models.Type, description string) (*models.Alert, error) {
	alert, err := models.NewAlert(id.NewAlertID(), entityID, alertType, description, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	if err := s.store.Create(ctx, alert); err != nil {
		return nil, storageError(err, "failed to save alert")
	}

	s.metrics.IncrementRaised(string(alert.Type))
	s.logger.InfoContext(ctx, "alert raised",
		"request_id", requestcontext.RequestID(ctx),
		"alert_id", alert.ID,
		"entity_id", alert.EntityID,
		"type", alert.Type,
	)
	s.publish(ctx, publisher.KindRaised, alert)
	return alert, nil
}

// ListOpen returns every open alert, newest first.
func (s *Service) ListOpen(ctx context.Context) ([]*models.Alert, error) {
	alerts, err := s.store.List(ctx, store.Filter{Statuses: []models.Status{models.StatusOpen}})
	if err != nil {
		return nil, storageError(err, "failed to list alerts")
	}
	return alerts, nil
}

// ListFor returns the entity's alerts newest first, optionally restricted
// to the given statuses.
func (s *Service) ListFor(ctx context.Context, entityID id.EntityID, statuses ...models.Status) ([]*models.Alert, error) {
	alerts, err := s.store.List(ctx, store.Filter{EntityID: &entityID, Statuses: statuses})
	if err != nil {
		return nil, storageError(err, "failed to list entity alerts")
	}
	return alerts, nil
}

// Resolve closes an alert. Resolving an already resolved alert returns it
// unchanged.
func (s *Service) Resolve(ctx context.Context, alertID id.AlertID) (*models.Alert, error) {
	alert, changed, err := s.store.Resolve(ctx, alertID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "alert not found")
		}
		return nil, storageError(err, "failed to resolve alert")
	}
	if changed {
		s.metrics.IncrementResolved()
		s.logger.InfoContext(ctx, "alert resolved",
			"request_id", requestcontext.RequestID(ctx),
			"alert_id", alert.ID,
			"entity_id", alert.EntityID,
		)
		s.publish(ctx, publisher.KindResolved, alert)
	}
	return alert, nil
}

// Respond records an authority's reply to an alert.
func (s *Service) Respond(ctx context.Context, alertID id.AlertID, response string, mode models.ResponseMode) (*models.AlertResponse, error) {
	r, err := models.NewAlertResponse(id.NewResponseID(), alertID, response, mode, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	if err := s.store.AddResponse(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "alert not found")
		}
		return nil, storageError(err, "failed to save response")
	}
	return r, nil
}

// Responses lists an alert's responses, oldest first.
func (s *Service) Responses(ctx context.Context, alertID id.AlertID) ([]*models.AlertResponse, error) {
	responses, err := s.store.ListResponses(ctx, alertID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "alert not found")
		}
		return nil, storageError(err, "failed to list responses")
	}
	return responses, nil
}

// TriggerSOS classifies a distress message and raises exactly one open
// alert described as "<mode> SOS: <message>".
func (s *Service) TriggerSOS(ctx context.Context, entityID id.EntityID, mode, message string) (*models.Alert, error) {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		mode = DefaultSOSMode
	}
	message = strings.TrimSpace(message)
	return s.Raise(ctx, entityID, models.ClassifySOS(message), fmt.Sprintf("%s SOS: %s", mode, message))
}

func (s *Service) publish(ctx context.Context, kind publisher.Kind, alert *models.Alert) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, publisher.Event{
		Kind:       kind,
		Alert:      *alert,
		OccurredAt: alert.UpdatedAt,
	})
}

func storageError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "alert store unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
