package sentinel

import "errors"

// Stores and infrastructure adapters return these (optionally wrapped) and
// services translate them into domain errors:
//   - ErrNotFound: no row for the requested id or entity
//   - ErrInvalidState: the record exists but cannot take the requested transition
//   - ErrUnavailable: the backing store or collaborator cannot be reached
//
// Input validation failures use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
