package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"smartourism/internal/location/models"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
	"smartourism/pkg/platform/httputil"
	"smartourism/pkg/requestcontext"
)

// Service defines the read side of the location history.
type Service interface {
	Latest(ctx context.Context, entityID id.EntityID) (*models.LocationPoint, error)
	History(ctx context.Context, entityID id.EntityID) ([]*models.LocationPoint, error)
}

// HistoryResponse is returned by GET /api/locations/history/{entityID}.
type HistoryResponse struct {
	EntityID id.EntityID             `json:"entity_id"`
	History  []*models.LocationPoint `json:"history"`
}

// Handler serves location reads. Writes go through the ingest handler.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts location read endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/locations/latest/{entityID}", h.HandleLatest)
	r.Get("/api/locations/history/{entityID}", h.HandleHistory)
}

func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	point, err := h.service.Latest(ctx, entityID)
	if err != nil {
		h.logFailure(ctx, "latest location lookup failed", entityID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, point)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	history, err := h.service.History(ctx, entityID)
	if err != nil {
		h.logFailure(ctx, "location history lookup failed", entityID, err)
		httputil.WriteError(w, err)
		return
	}
	if len(history) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no location history for entity"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{EntityID: entityID, History: history})
}

func (h *Handler) logFailure(ctx context.Context, msg string, entityID id.EntityID, err error) {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"entity_id", entityID,
		"error", err,
	)
}
