package models

import (
	"math"
	"strings"
	"time"

	id "smartourism/pkg/domain"
	dErrors "smartourism/pkg/domain-errors"
)

// DefaultRiskLabel is stored when the caller supplies no label.
const DefaultRiskLabel = "safe"

const maxLabelLength = 64

// LocationPoint is one stored ping.
//
// Invariants:
//   - Lat in [-90, 90], Lon in [-180, 180]
//   - RiskScore, when set, is in [0, 1]
//   - Timestamps for one entity never decrease (enforced by the store)
//   - Risk fields change at most once, during the ingestion that created the point
type LocationPoint struct {
	ID        id.PointID  `json:"id"`
	EntityID  id.EntityID `json:"entity_id"`
	Lat       float64     `json:"lat"`
	Lon       float64     `json:"lon"`
	RiskScore *float64    `json:"risk_score"`
	RiskLabel *string     `json:"risk_label"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewLocationPoint validates coordinates and risk fields and builds an
// unsaved point. A nil label defaults to DefaultRiskLabel.
func NewLocationPoint(pointID id.PointID, entityID id.EntityID, lat, lon float64, score *float64, label *string, now time.Time) (*LocationPoint, error) {
	if entityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "entity_id is required")
	}
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if score != nil {
		if err := ValidateScore(*score); err != nil {
			return nil, err
		}
	}

	l := DefaultRiskLabel
	if label != nil {
		l = strings.TrimSpace(*label)
		if len(l) > maxLabelLength {
			return nil, dErrors.New(dErrors.CodeValidation, "risk_label must be at most 64 characters")
		}
	}

	return &LocationPoint{
		ID:        pointID,
		EntityID:  entityID,
		Lat:       lat,
		Lon:       lon,
		RiskScore: copyFloat(score),
		RiskLabel: &l,
		Timestamp: NormalizeTime(now),
	}, nil
}

// ValidateCoordinates rejects NaN and out-of-range values.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return dErrors.New(dErrors.CodeValidation, "lat must be within [-90, 90]")
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return dErrors.New(dErrors.CodeValidation, "lon must be within [-180, 180]")
	}
	return nil
}

// ValidateScore rejects scores outside [0, 1].
func ValidateScore(score float64) error {
	if math.IsNaN(score) || score < 0 || score > 1 {
		return dErrors.New(dErrors.CodeValidation, "risk_score must be within [0, 1]")
	}
	return nil
}

// NormalizeTime truncates to the precision the database keeps so a point
// read back compares equal to the one written.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// ApplyRisk sets the enrichment result.
func (p *LocationPoint) ApplyRisk(score float64, label string) {
	p.RiskScore = &score
	p.RiskLabel = &label
}

// Clone returns a deep copy so stores never share pointers with callers.
func (p *LocationPoint) Clone() *LocationPoint {
	if p == nil {
		return nil
	}
	c := *p
	c.RiskScore = copyFloat(p.RiskScore)
	if p.RiskLabel != nil {
		l := *p.RiskLabel
		c.RiskLabel = &l
	}
	return &c
}

// Score returns the risk score or 0 when unset.
func (p *LocationPoint) Score() float64 {
	if p.RiskScore == nil {
		return 0
	}
	return *p.RiskScore
}

// Label returns the risk label or "" when unset.
func (p *LocationPoint) Label() string {
	if p.RiskLabel == nil {
		return ""
	}
	return *p.RiskLabel
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
