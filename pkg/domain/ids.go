// Package domain holds typed identifiers shared across modules. Each ID is a
// distinct named type over uuid.UUID so an alert id can never be passed where
// an entity id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "smartourism/pkg/domain-errors"
)

type (
	// EntityID identifies a tracked individual. Entities are owned by an
	// external registry; this module only references them.
	EntityID uuid.UUID
	// PointID identifies a stored location point.
	PointID uuid.UUID
	// FenceID identifies a geofence.
	FenceID uuid.UUID
	// AlertID identifies a safety alert.
	AlertID uuid.UUID
	// ResponseID identifies an authority response to an alert.
	ResponseID uuid.UUID
)

const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is too long")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return u, nil
}

func ParseEntityID(s string) (EntityID, error) {
	u, err := parseUUID("entity_id", s)
	return EntityID(u), err
}

func ParsePointID(s string) (PointID, error) {
	u, err := parseUUID("point_id", s)
	return PointID(u), err
}

func ParseFenceID(s string) (FenceID, error) {
	u, err := parseUUID("fence_id", s)
	return FenceID(u), err
}

func ParseAlertID(s string) (AlertID, error) {
	u, err := parseUUID("alert_id", s)
	return AlertID(u), err
}

func ParseResponseID(s string) (ResponseID, error) {
	u, err := parseUUID("response_id", s)
	return ResponseID(u), err
}

func NewPointID() PointID       { return PointID(uuid.New()) }
func NewFenceID() FenceID       { return FenceID(uuid.New()) }
func NewAlertID() AlertID       { return AlertID(uuid.New()) }
func NewResponseID() ResponseID { return ResponseID(uuid.New()) }

func (id EntityID) String() string   { return uuid.UUID(id).String() }
func (id PointID) String() string    { return uuid.UUID(id).String() }
func (id FenceID) String() string    { return uuid.UUID(id).String() }
func (id AlertID) String() string    { return uuid.UUID(id).String() }
func (id ResponseID) String() string { return uuid.UUID(id).String() }

func (id EntityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AlertID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// Text marshalling keeps IDs rendered as plain UUID strings in JSON.

func (id EntityID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id PointID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id FenceID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id AlertID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id ResponseID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *EntityID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PointID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *FenceID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AlertID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ResponseID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
