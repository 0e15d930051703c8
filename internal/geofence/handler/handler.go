package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"smartourism/internal/geofence/geometry"
	"smartourism/internal/geofence/models"
	"smartourism/internal/geofence/service"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
	"smartourism/pkg/platform/httputil"
	"smartourism/pkg/requestcontext"
)

// Service defines the fence operations exposed over HTTP.
type Service interface {
	Add(ctx context.Context, name string, level models.RiskLevel, polygon geometry.Ring) (*models.GeoFence, error)
	List(ctx context.Context) []*models.GeoFence
	Check(ctx context.Context, entityID id.EntityID) (*service.CheckResult, error)
}

// CreateFenceRequest is the body for POST /api/geofences. Coordinates are
// [lon, lat] pairs forming a closed ring.
type CreateFenceRequest struct {
	Name        string        `json:"name"`
	RiskLevel   string        `json:"risk_level"`
	Coordinates geometry.Ring `json:"coordinates"`

	parsedLevel models.RiskLevel
}

func (r *CreateFenceRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

// Validate implements httputil.Validatable. Polygon checks happen in the
// domain constructor.
func (r *CreateFenceRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Coordinates) == 0 {
		return dErrors.New(dErrors.CodeValidation, "coordinates are required")
	}
	if len(r.Coordinates) > 10000 {
		return dErrors.New(dErrors.CodeValidation, "coordinates must have at most 10000 vertices")
	}
	level, err := models.ParseRiskLevel(r.RiskLevel)
	if err != nil {
		return err
	}
	r.parsedLevel = level
	return nil
}

// CreateFenceResponse is returned by POST /api/geofences.
type CreateFenceResponse struct {
	Message string           `json:"message"`
	Fence   *models.GeoFence `json:"fence"`
}

// Handler serves geofence endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the geofence endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/geofences", h.HandleCreate)
	r.Get("/api/geofences", h.HandleList)
	r.Get("/api/geofences/check/{entityID}", h.HandleCheck)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[CreateFenceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	fence, err := h.service.Add(ctx, req.Name, req.parsedLevel, req.Coordinates)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "create geofence failed", "request_id", requestID, "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreateFenceResponse{Message: "Geo-fence created", Fence: fence})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	fences := h.service.List(r.Context())
	if fences == nil {
		fences = []*models.GeoFence{}
	}
	httputil.WriteJSON(w, http.StatusOK, fences)
}

func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Check(ctx, entityID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "geofence check failed",
				"request_id", requestcontext.RequestID(ctx),
				"entity_id", entityID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
