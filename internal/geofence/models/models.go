package models

import (
	"strings"
	"time"

	"smartourism/internal/geofence/geometry"
	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
)

// RiskLevel grades how dangerous a zone is.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// ParseRiskLevel accepts a case-insensitive level name.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case RiskLevelLow:
		return RiskLevelLow, nil
	case RiskLevelMedium:
		return RiskLevelMedium, nil
	case RiskLevelHigh:
		return RiskLevelHigh, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "risk_level must be one of low, medium, high")
}

// Rank orders levels so policies can compare them; unknown levels rank 0.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLevelLow:
		return 1
	case RiskLevelMedium:
		return 2
	case RiskLevelHigh:
		return 3
	}
	return 0
}

func (l RiskLevel) String() string { return string(l) }

const maxNameLength = 200

// GeoFence is a named danger zone. Fences are immutable once created.
//
// Invariants:
//   - Name is non-empty and at most 200 characters
//   - Polygon is a closed ring of at least 4 (lon, lat) vertices in range
//     with non-zero area; self-intersection is not checked
type GeoFence struct {
	ID        id.FenceID    `json:"id"`
	Name      string        `json:"name"`
	RiskLevel RiskLevel     `json:"risk_level"`
	Polygon   geometry.Ring `json:"coordinates"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewGeoFence validates and constructs a fence.
func NewGeoFence(fenceID id.FenceID, name string, level RiskLevel, ring geometry.Ring, now time.Time) (*GeoFence, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "fence name is required")
	}
	if len(name) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "fence name must be at most 200 characters")
	}
	if level.Rank() == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid fence risk level")
	}
	if err := ring.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "invalid fence polygon")
	}
	return &GeoFence{
		ID:        fenceID,
		Name:      name,
		RiskLevel: level,
		Polygon:   ring.Clone(),
		CreatedAt: now,
	}, nil
}

// Summary is the compact form returned alongside containment results.
type Summary struct {
	ID        id.FenceID `json:"id"`
	Name      string     `json:"name"`
	RiskLevel RiskLevel  `json:"risk_level"`
}

func (f *GeoFence) Summary() Summary {
	return Summary{ID: f.ID, Name: f.Name, RiskLevel: f.RiskLevel}
}

// Containment is the result of testing a point against every fence.
type Containment struct {
	Inside bool      `json:"inside"`
	Fences []Summary `json:"fences,omitempty"`
}

// NewContainment builds a result from the matching fences.
func NewContainment(fences []*GeoFence) Containment {
	c := Containment{Inside: len(fences) > 0}
	for _, f := range fences {
		c.Fences = append(c.Fences, f.Summary())
	}
	return c
}

// MaxLevel returns the highest risk level among matched fences.
func (c Containment) MaxLevel() RiskLevel {
	var top RiskLevel
	for _, f := range c.Fences {
		if f.RiskLevel.Rank() > top.Rank() {
			top = f.RiskLevel
		}
	}
	return top
}
