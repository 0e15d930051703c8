// Package service runs the per-ping pipeline: persist, enrich, test
// containment and raise alerts. Only the persist step can fail a request.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	alertModels "smartourism/internal/alert/models"
	fenceModels "smartourism/internal/geofence/models"
	"smartourism/internal/ingest/metrics"
	locationModels "smartourism/internal/location/models"
	"smartourism/internal/risk"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
	"smartourism/pkg/requestcontext"
)

// Locations is the location history used by the pipeline.
type Locations interface {
	Append(ctx context.Context, entityID id.EntityID, lat, lon float64, score *float64, label *string) (*locationModels.LocationPoint, error)
	RecentWindow(ctx context.Context, entityID id.EntityID, n int) ([]*locationModels.LocationPoint, error)
	UpdateRisk(ctx context.Context, pointID id.PointID, score float64, label string) (*locationModels.LocationPoint, error)
}

// Fences answers containment for a raw coordinate.
type Fences interface {
	Contains(lat, lon float64) fenceModels.Containment
}

// Alerts raises new open alerts.
type Alerts interface {
	Raise(ctx context.Context, entityID id.EntityID, alertType alertModels.Type, description string) (*alertModels.Alert, error)
}

// Policy holds the pipeline's tunable thresholds.
type Policy struct {
	// WindowSize is how many recent points are sent to the oracle.
	WindowSize int
	// HighRiskThreshold is the enriched score at or above which an anomaly
	// alert is raised.
	HighRiskThreshold float64
	// GeofenceMinLevel is the lowest fence level that raises a geo-fence
	// alert. Empty disables geo-fence alerts.
	GeofenceMinLevel fenceModels.RiskLevel
	// SerializePerEntity processes one ping per entity at a time.
	SerializePerEntity bool
}

// DefaultPolicy mirrors the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		WindowSize:        10,
		HighRiskThreshold: 0.7,
		GeofenceMinLevel:  fenceModels.RiskLevelHigh,
	}
}

// ParseGeofenceMinLevel maps a config value onto a level; "none" disables
// geo-fence alerts.
func ParseGeofenceMinLevel(s string) (fenceModels.RiskLevel, error) {
	if strings.EqualFold(strings.TrimSpace(s), "none") {
		return "", nil
	}
	return fenceModels.ParseRiskLevel(s)
}

// Input is one GPS ping.
type Input struct {
	EntityID  id.EntityID
	Lat       float64
	Lon       float64
	RiskScore *float64
	RiskLabel *string
}

// Result is what the pipeline reports back for a ping.
type Result struct {
	Location *locationModels.LocationPoint `json:"location"`
	Geofence fenceModels.Containment       `json:"geofence"`
	Alerts   []*alertModels.Alert          `json:"alerts"`
}

// Service is the ingestion pipeline.
type Service struct {
	locations Locations
	assessor  risk.Assessor
	fences    Fences
	alerts    Alerts
	policy    Policy
	locks     *keyedMutex
	tracer    trace.Tracer
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

func WithPolicy(p Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func New(locations Locations, assessor risk.Assessor, fences Fences, alerts Alerts, opts ...Option) *Service {
	s := &Service{
		locations: locations,
		assessor:  assessor,
		fences:    fences,
		alerts:    alerts,
		policy:    DefaultPolicy(),
		tracer:    otel.Tracer("smartourism/internal/ingest"),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.assessor == nil {
		s.assessor = risk.Noop{}
	}
	if s.policy.WindowSize < risk.MinTrackPoints {
		s.policy.WindowSize = DefaultPolicy().WindowSize
	}
	if s.policy.SerializePerEntity {
		s.locks = newKeyedMutex()
	}
	return s
}

// Ingest validates and stores a ping, then enriches it and tests
// containment concurrently. Enrichment and alerting failures are logged and
// never fail the call once the point is stored.
func (s *Service) Ingest(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	defer s.metrics.ObservePipeline(start)

	ctx, span := s.tracer.Start(ctx, "ingest.location", trace.WithAttributes(
		attribute.String("entity.id", in.EntityID.String()),
	))
	defer span.End()

	if err := validate(in); err != nil {
		span.SetStatus(codes.Error, "invalid ping")
		return nil, err
	}

	if s.locks != nil {
		unlock, err := s.locks.Lock(ctx, in.EntityID)
		if err != nil {
			span.SetStatus(codes.Error, "lock wait abandoned")
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "gave up waiting for an earlier ping of this entity")
		}
		defer unlock()
	}

	point, err := s.locations.Append(ctx, in.EntityID, in.Lat, in.Lon, in.RiskScore, in.RiskLabel)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("point.id", point.ID.String()))

	var (
		enriched    *locationModels.LocationPoint
		assessment  *risk.Assessment
		containment fenceModels.Containment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		enriched, assessment = s.enrich(gctx, point)
		return nil
	})
	g.Go(func() error {
		containment = s.contain(gctx, point)
		return nil
	})
	_ = g.Wait()

	result := &Result{Location: point, Geofence: containment, Alerts: []*alertModels.Alert{}}
	if enriched != nil {
		result.Location = enriched
	}

	if assessment != nil && s.isAnomalous(*assessment) {
		if alert := s.raise(ctx, in.EntityID, alertModels.TypeAnomaly, anomalyDescription(*assessment)); alert != nil {
			result.Alerts = append(result.Alerts, alert)
		}
	}
	if level, ok := s.fenceAlertLevel(containment); ok {
		if alert := s.raise(ctx, in.EntityID, alertModels.TypeGeoFence, fenceDescription(level, containment)); alert != nil {
			result.Alerts = append(result.Alerts, alert)
		}
	}
	span.SetAttributes(attribute.Int("alerts.raised", len(result.Alerts)))
	return result, nil
}

// enrich scores the recent window and records the verdict on the saved
// point. It returns nils when enrichment did not happen.
func (s *Service) enrich(ctx context.Context, point *locationModels.LocationPoint) (*locationModels.LocationPoint, *risk.Assessment) {
	ctx, span := s.tracer.Start(ctx, "ingest.enrich")
	defer span.End()

	window, err := s.locations.RecentWindow(ctx, point.EntityID, s.policy.WindowSize)
	if err != nil {
		s.metrics.IncrementEnrichment(metrics.OutcomeUnavailable)
		s.logger.WarnContext(ctx, "risk window unavailable, skipping enrichment",
			"request_id", requestcontext.RequestID(ctx),
			"entity_id", point.EntityID,
			"error", err,
		)
		return nil, nil
	}
	if len(window) < risk.MinTrackPoints {
		s.metrics.IncrementEnrichment(metrics.OutcomeSkipped)
		s.logger.DebugContext(ctx, "not enough history for risk scoring",
			"entity_id", point.EntityID,
			"points", len(window),
		)
		return nil, nil
	}

	track := make([]risk.TrackPoint, len(window))
	for i, p := range window {
		// window is newest first; the oracle wants chronological order
		track[len(window)-1-i] = risk.TrackPoint{Lat: p.Lat, Lon: p.Lon, Timestamp: p.Timestamp}
	}

	assessment, err := s.assessor.Assess(ctx, track)
	if err != nil {
		s.metrics.IncrementEnrichment(metrics.OutcomeUnavailable)
		span.RecordError(err)
		if !errors.Is(err, risk.ErrUnavailable) {
			s.logger.ErrorContext(ctx, "unexpected risk assessor error",
				"request_id", requestcontext.RequestID(ctx),
				"entity_id", point.EntityID,
				"error", err,
			)
			return nil, nil
		}
		s.logger.WarnContext(ctx, "risk enrichment unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"entity_id", point.EntityID,
			"category", risk.CategoryOf(err),
		)
		return nil, nil
	}

	updated, err := s.locations.UpdateRisk(ctx, point.ID, assessment.Score, assessment.Label)
	if err != nil {
		s.metrics.IncrementEnrichment(metrics.OutcomeUpdateFailed)
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "failed to record risk enrichment, dropping it",
			"request_id", requestcontext.RequestID(ctx),
			"point_id", point.ID,
			"error", err,
		)
		return nil, nil
	}
	s.metrics.IncrementEnrichment(metrics.OutcomeEnriched)
	span.SetAttributes(
		attribute.Float64("risk.score", assessment.Score),
		attribute.String("risk.label", assessment.Label),
	)
	return updated, &assessment
}

func (s *Service) contain(ctx context.Context, point *locationModels.LocationPoint) fenceModels.Containment {
	_, span := s.tracer.Start(ctx, "ingest.containment")
	defer span.End()
	c := s.fences.Contains(point.Lat, point.Lon)
	span.SetAttributes(attribute.Bool("geofence.inside", c.Inside), attribute.Int("geofence.count", len(c.Fences)))
	return c
}

func (s *Service) isAnomalous(a risk.Assessment) bool {
	return a.Score >= s.policy.HighRiskThreshold || len(a.Findings) > 0
}

func (s *Service) fenceAlertLevel(c fenceModels.Containment) (fenceModels.RiskLevel, bool) {
	if s.policy.GeofenceMinLevel == "" || !c.Inside {
		return "", false
	}
	top := c.MaxLevel()
	return top, top.Rank() >= s.policy.GeofenceMinLevel.Rank()
}

func (s *Service) raise(ctx context.Context, entityID id.EntityID, t alertModels.Type, description string) *alertModels.Alert {
	alert, err := s.alerts.Raise(ctx, entityID, t, description)
	if err != nil {
		s.metrics.IncrementAlertRaiseFailure(string(t))
		trace.SpanFromContext(ctx).RecordError(err)
		s.logger.ErrorContext(ctx, "failed to raise alert",
			"request_id", requestcontext.RequestID(ctx),
			"entity_id", entityID,
			"type", t,
			"error", err,
		)
		return nil
	}
	return alert
}

func validate(in Input) error {
	if in.EntityID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "entity_id is required")
	}
	if err := locationModels.ValidateCoordinates(in.Lat, in.Lon); err != nil {
		return err
	}
	if in.RiskScore != nil {
		if err := locationModels.ValidateScore(*in.RiskScore); err != nil {
			return err
		}
	}
	return nil
}

func anomalyDescription(a risk.Assessment) string {
	desc := fmt.Sprintf("AI risk=%s, label=%s", strconv.FormatFloat(a.Score, 'f', -1, 64), a.Label)
	if len(a.Findings) > 0 {
		desc += ", alerts: " + strings.Join(a.Findings, "; ")
	}
	return desc
}

func fenceDescription(level fenceModels.RiskLevel, c fenceModels.Containment) string {
	names := make([]string, 0, len(c.Fences))
	for _, f := range c.Fences {
		if !slices.Contains(names, f.Name) {
			names = append(names, f.Name)
		}
	}
	return fmt.Sprintf("Entered %s-risk geo-fence: %s", level, strings.Join(names, ", "))
}
