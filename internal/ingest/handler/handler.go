package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"smartourism/internal/ingest/service"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
	"smartourism/pkg/platform/httputil"
	"smartourism/pkg/requestcontext"
)

// Service runs the ingestion pipeline for one ping.
type Service interface {
	Ingest(ctx context.Context, in service.Input) (*service.Result, error)
}

// PingRequest is the body for POST /api/locations. tourist_id is accepted
// for older clients when entity_id is absent.
type PingRequest struct {
	EntityID  string   `json:"entity_id"`
	TouristID string   `json:"tourist_id,omitempty"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	RiskScore *float64 `json:"risk_score,omitempty"`
	RiskLabel *string  `json:"risk_label,omitempty"`

	parsedEntityID id.EntityID
}

func (r *PingRequest) Normalize() {
	r.EntityID = strings.TrimSpace(r.EntityID)
	if r.EntityID == "" {
		r.EntityID = strings.TrimSpace(r.TouristID)
	}
	if r.RiskLabel != nil {
		label := strings.TrimSpace(*r.RiskLabel)
		if label == "" {
			r.RiskLabel = nil
		} else {
			r.RiskLabel = &label
		}
	}
}

// Validate implements httputil.Validatable. Coordinate ranges are checked
// by the pipeline.
func (r *PingRequest) Validate() error {
	if r.EntityID == "" {
		return dErrors.New(dErrors.CodeValidation, "entity_id is required")
	}
	entityID, err := id.ParseEntityID(r.EntityID)
	if err != nil {
		return err
	}
	r.parsedEntityID = entityID
	if r.Lat == nil || r.Lon == nil {
		return dErrors.New(dErrors.CodeValidation, "lat and lon are required")
	}
	if r.RiskLabel != nil && len(*r.RiskLabel) > 64 {
		return dErrors.New(dErrors.CodeValidation, "risk_label must be at most 64 characters")
	}
	return nil
}

// PingResponse is returned by POST /api/locations.
type PingResponse struct {
	Message string `json:"message"`
	*service.Result
}

// Handler accepts GPS pings.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the ingest endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/locations", h.HandleIngest)
}

func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[PingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Ingest(ctx, service.Input{
		EntityID:  req.parsedEntityID,
		Lat:       *req.Lat,
		Lon:       *req.Lon,
		RiskScore: req.RiskScore,
		RiskLabel: req.RiskLabel,
	})
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "location ingest failed",
				"request_id", requestID,
				"entity_id", req.parsedEntityID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, PingResponse{Message: "Location saved", Result: result})
}
