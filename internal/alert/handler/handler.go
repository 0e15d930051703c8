package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"smartourism/internal/alert/models"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
	"smartourism/pkg/platform/httputil"
	platformstrings "smartourism/pkg/platform/strings"
	"smartourism/pkg/requestcontext"
)

// Service defines the alert operations exposed over HTTP.
type Service interface {
	Raise(ctx context.Context, entityID id.EntityID, alertType models.Type, description string) (*models.Alert, error)
	ListOpen(ctx context.Context) ([]*models.Alert, error)
	ListFor(ctx context.Context, entityID id.EntityID, statuses ...models.Status) ([]*models.Alert, error)
	Resolve(ctx context.Context, alertID id.AlertID) (*models.Alert, error)
	Respond(ctx context.Context, alertID id.AlertID, response string, mode models.ResponseMode) (*models.AlertResponse, error)
	Responses(ctx context.Context, alertID id.AlertID) ([]*models.AlertResponse, error)
	TriggerSOS(ctx context.Context, entityID id.EntityID, mode, message string) (*models.Alert, error)
}

// Handler serves alert, response and SOS endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the alert endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/alerts", h.HandleCreate)
	r.Get("/api/alerts", h.HandleListOpen)
	r.Get("/api/alerts/entity/{entityID}", h.HandleListForEntity)
	r.Put("/api/alerts/resolve/{alertID}", h.HandleResolve)
	r.Post("/api/alerts/{alertID}/responses", h.HandleRespond)
	r.Get("/api/alerts/{alertID}/responses", h.HandleListResponses)
	r.Post("/api/sos", h.HandleSOS)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateAlertRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	alert, err := h.service.Raise(ctx, req.parsedEntityID, req.parsedType, req.Description)
	if err != nil {
		h.logFailure(ctx, "create alert failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, AlertResponse{Message: "Alert created", Alert: alert})
}

func (h *Handler) HandleListOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alerts, err := h.service.ListOpen(ctx)
	if err != nil {
		h.logFailure(ctx, "list open alerts failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nonNil(alerts))
}

func (h *Handler) HandleListForEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	statuses, err := parseStatuses(r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	alerts, err := h.service.ListFor(ctx, entityID, statuses...)
	if err != nil {
		h.logFailure(ctx, "list entity alerts failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nonNil(alerts))
}

func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alertID, err := id.ParseAlertID(chi.URLParam(r, "alertID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	alert, err := h.service.Resolve(ctx, alertID)
	if err != nil {
		h.logFailure(ctx, "resolve alert failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AlertResponse{Message: "Alert resolved", Alert: alert})
}

func (h *Handler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alertID, err := id.ParseAlertID(chi.URLParam(r, "alertID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RespondRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	reply, err := h.service.Respond(ctx, alertID, req.Response, req.parsedMode)
	if err != nil {
		h.logFailure(ctx, "save alert response failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ReplyResponse{Message: "Response saved", Reply: reply})
}

func (h *Handler) HandleListResponses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alertID, err := id.ParseAlertID(chi.URLParam(r, "alertID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	responses, err := h.service.Responses(ctx, alertID)
	if err != nil {
		h.logFailure(ctx, "list alert responses failed", err)
		httputil.WriteError(w, err)
		return
	}
	if responses == nil {
		responses = []*models.AlertResponse{}
	}
	httputil.WriteJSON(w, http.StatusOK, responses)
}

func (h *Handler) HandleSOS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SOSRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	alert, err := h.service.TriggerSOS(ctx, req.parsedEntityID, req.Mode, req.Message)
	if err != nil {
		h.logFailure(ctx, "trigger sos failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, AlertResponse{Message: "SOS triggered", Alert: alert})
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotFound, dErrors.CodeValidation:
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

// parseStatuses reads a comma separated status filter; empty means all.
func parseStatuses(raw string) ([]models.Status, error) {
	values := platformstrings.SplitCSV(raw)
	statuses := make([]models.Status, 0, len(values))
	for _, v := range values {
		st, err := models.ParseStatus(v)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func nonNil(alerts []*models.Alert) []*models.Alert {
	if alerts == nil {
		return []*models.Alert{}
	}
	return alerts
}
