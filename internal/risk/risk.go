// Package risk scores a recent trajectory through an external oracle.
// Enrichment is opportunistic: every failure surfaces as ErrUnavailable and
// callers carry on without a score.
package risk

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MinTrackPoints is the smallest window worth sending to the oracle.
const MinTrackPoints = 2

// ErrUnavailable means no assessment could be obtained for this call.
var ErrUnavailable = errors.New("risk assessment unavailable")

// TrackPoint is one point of a chronological trajectory.
type TrackPoint struct {
	Lat       float64
	Lon       float64
	Timestamp time.Time
}

// Assessment is a successful oracle verdict.
type Assessment struct {
	Score    float64
	Label    string
	Findings []string
}

// Assessor scores a chronological (oldest first) trajectory.
type Assessor interface {
	Assess(ctx context.Context, points []TrackPoint) (Assessment, error)
}

// Category normalizes oracle failures for logs and metrics.
type Category string

const (
	CategoryTimeout        Category = "timeout"
	CategoryProviderOutage Category = "provider_outage"
	CategoryBadData        Category = "bad_data"
	CategoryRateLimited    Category = "rate_limited"
	CategoryCircuitOpen    Category = "circuit_open"
	CategoryInsufficient   Category = "insufficient_points"
	CategoryDisabled       Category = "disabled"
)

// Error describes why an assessment was unavailable. It always matches
// ErrUnavailable under errors.Is.
type Error struct {
	Category   Category
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("risk oracle [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("risk oracle [%s]: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Underlying != nil {
		return []error{ErrUnavailable, e.Underlying}
	}
	return []error{ErrUnavailable}
}

func unavailable(category Category, msg string, err error) *Error {
	return &Error{Category: category, Message: msg, Underlying: err}
}

// CategoryOf extracts the failure category, or "" for non-oracle errors.
func CategoryOf(err error) Category {
	var re *Error
	if errors.As(err, &re) {
		return re.Category
	}
	return ""
}

// LabelForScore mirrors the oracle's own banding, used when a response
// omits the label.
func LabelForScore(score float64) string {
	switch {
	case score > 0.7:
		return "high"
	case score > 0.4:
		return "medium"
	default:
		return "low"
	}
}

// Noop is the assessor used when no oracle is configured.
type Noop struct{}

func (Noop) Assess(context.Context, []TrackPoint) (Assessment, error) {
	return Assessment{}, unavailable(CategoryDisabled, "risk oracle not configured", nil)
}
