package handler

import (
	"strings"

	"smartourism/internal/alert/models"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
)

// entityRef accepts the entity id under its current name or the legacy
// tourist_id key still sent by older mobile clients.
type entityRef struct {
	EntityID  string `json:"entity_id"`
	TouristID string `json:"tourist_id,omitempty"`

	parsedEntityID id.EntityID
}

func (e *entityRef) parse() error {
	raw := strings.TrimSpace(e.EntityID)
	if raw == "" {
		raw = strings.TrimSpace(e.TouristID)
	}
	if raw == "" {
		return dErrors.New(dErrors.CodeValidation, "entity_id is required")
	}
	entityID, err := id.ParseEntityID(raw)
	if err != nil {
		return err
	}
	e.parsedEntityID = entityID
	return nil
}

// CreateAlertRequest is the body for POST /api/alerts.
type CreateAlertRequest struct {
	entityRef
	Type        string `json:"type"`
	Description string `json:"description"`

	parsedType models.Type
}

// Validate implements httputil.Validatable.
func (r *CreateAlertRequest) Validate() error {
	if len(r.Description) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "description must be at most 2000 characters")
	}
	if err := r.parse(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Type) == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	t, err := models.ParseType(r.Type)
	if err != nil {
		return err
	}
	r.parsedType = t
	return nil
}

// SOSRequest is the body for POST /api/sos.
type SOSRequest struct {
	entityRef
	Mode    string `json:"mode"`
	Message string `json:"message"`
}

func (r *SOSRequest) Validate() error {
	if len(r.Message) > 1000 {
		return dErrors.New(dErrors.CodeValidation, "message must be at most 1000 characters")
	}
	if len(r.Mode) > 32 {
		return dErrors.New(dErrors.CodeValidation, "mode must be at most 32 characters")
	}
	return r.parse()
}

// RespondRequest is the body for POST /api/alerts/{alertID}/responses.
type RespondRequest struct {
	Response string `json:"response"`
	Mode     string `json:"mode"`

	parsedMode models.ResponseMode
}

func (r *RespondRequest) Normalize() {
	r.Response = strings.TrimSpace(r.Response)
}

func (r *RespondRequest) Validate() error {
	if r.Response == "" {
		return dErrors.New(dErrors.CodeValidation, "response is required")
	}
	mode, err := models.ParseResponseMode(r.Mode)
	if err != nil {
		return err
	}
	r.parsedMode = mode
	return nil
}

// AlertResponse wraps a single alert in write responses.
type AlertResponse struct {
	Message string        `json:"message"`
	Alert   *models.Alert `json:"alert"`
}

// ReplyResponse wraps a saved authority response.
type ReplyResponse struct {
	Message string                `json:"message"`
	Reply   *models.AlertResponse `json:"reply"`
}
