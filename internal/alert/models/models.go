package models

import (
	"strings"
	"time"

	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
)

// Type classifies what triggered an alert.
type Type string

const (
	TypePanic    Type = "panic"
	TypeAnomaly  Type = "anomaly"
	TypeLost     Type = "lost"
	TypeMedical  Type = "medical"
	TypeGeoFence Type = "geo-fence"
	TypeVoice    Type = "voice"
)

// ParseType accepts a case-insensitive alert type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if t.IsValid() {
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "type must be one of panic, anomaly, lost, medical, geo-fence, voice")
}

func (t Type) IsValid() bool {
	switch t {
	case TypePanic, TypeAnomaly, TypeLost, TypeMedical, TypeGeoFence, TypeVoice:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }

// Status is the alert lifecycle state. Open is the only state that can
// change, and only to Resolved.
type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
)

// ParseStatus accepts a case-insensitive status.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusOpen:
		return StatusOpen, nil
	case StatusResolved:
		return StatusResolved, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be open or resolved")
}

func (s Status) String() string { return string(s) }

const maxDescriptionLength = 2000

// Alert is a safety notification about an entity.
//
// Invariants:
//   - Type is one of the known alert types
//   - Status moves open -> resolved once and never back
//   - UpdatedAt is never before CreatedAt
type Alert struct {
	ID          id.AlertID  `json:"id"`
	EntityID    id.EntityID `json:"entity_id"`
	Type        Type        `json:"type"`
	Description string      `json:"description"`
	Status      Status      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewAlert builds an open alert.
func NewAlert(alertID id.AlertID, entityID id.EntityID, t Type, description string, now time.Time) (*Alert, error) {
	if entityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "alert entity is required")
	}
	if !t.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid alert type")
	}
	description = strings.TrimSpace(description)
	if len(description) > maxDescriptionLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "description must be at most 2000 characters")
	}
	now = now.UTC().Truncate(time.Microsecond)
	return &Alert{
		ID:          alertID,
		EntityID:    entityID,
		Type:        t,
		Description: description,
		Status:      StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (a *Alert) IsOpen() bool { return a.Status == StatusOpen }

// Resolve marks the alert resolved. It reports whether the status changed;
// resolving an already resolved alert leaves it untouched.
func (a *Alert) Resolve(now time.Time) bool {
	if a.Status == StatusResolved {
		return false
	}
	a.Status = StatusResolved
	now = now.UTC().Truncate(time.Microsecond)
	if now.Before(a.CreatedAt) {
		now = a.CreatedAt
	}
	a.UpdatedAt = now
	return true
}

// Clone returns a copy safe to hand out of a store.
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// ResponseMode is how an authority replied to an alert.
type ResponseMode string

const (
	ResponseModeText  ResponseMode = "text"
	ResponseModeVoice ResponseMode = "voice"
	ResponseModeCall  ResponseMode = "call"
)

// ParseResponseMode defaults an empty mode to text.
func ParseResponseMode(s string) (ResponseMode, error) {
	switch m := ResponseMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ResponseModeText, nil
	case ResponseModeText, ResponseModeVoice, ResponseModeCall:
		return m, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "mode must be one of text, voice, call")
}

// AlertResponse is an authority's reply to an alert. Responses are
// append-only.
type AlertResponse struct {
	ID        id.ResponseID `json:"id"`
	AlertID   id.AlertID    `json:"alert_id"`
	Response  string        `json:"response"`
	Mode      ResponseMode  `json:"mode"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewAlertResponse validates and builds a response.
func NewAlertResponse(responseID id.ResponseID, alertID id.AlertID, response string, mode ResponseMode, now time.Time) (*AlertResponse, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "response text is required")
	}
	if len(response) > maxDescriptionLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "response must be at most 2000 characters")
	}
	return &AlertResponse{
		ID:        responseID,
		AlertID:   alertID,
		Response:  response,
		Mode:      mode,
		CreatedAt: now.UTC().Truncate(time.Microsecond),
	}, nil
}

// ClassifySOS picks the alert type for a distress message. Matching is a
// case-insensitive substring test with precedence medical, lost, geo-fence,
// then panic.
func ClassifySOS(message string) Type {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "doctor"), strings.Contains(m, "medical"):
		return TypeMedical
	case strings.Contains(m, "lost"):
		return TypeLost
	case strings.Contains(m, "unsafe"):
		return TypeGeoFence
	default:
		return TypePanic
	}
}
