// Package geometry implements planar point-in-polygon tests over (lon, lat)
// rings. Fences are small enough (city blocks to districts) that treating
// degrees as planar coordinates is accurate for containment.
package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// epsilon is the tolerance for the on-edge test, in squared degrees.
const epsilon = 1e-12

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point is within latitude/longitude range.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 &&
		p.Lon >= -180 && p.Lon <= 180
}

// Vertex is a ring vertex encoded as [lon, lat], the GeoJSON order.
type Vertex [2]float64

func (v Vertex) Lon() float64 { return v[0] }
func (v Vertex) Lat() float64 { return v[1] }

// Ring is a polygon exterior ring. A valid ring is closed: the first and
// last vertices are equal.
type Ring []Vertex

var (
	ErrTooFewVertices = errors.New("ring needs at least 4 vertices")
	ErrNotClosed      = errors.New("ring must be closed (first vertex equals last)")
	ErrOutOfRange     = errors.New("ring vertex out of range")
	ErrZeroArea       = errors.New("ring has zero area")
)

// Validate checks closure, vertex count, range and area.
func (r Ring) Validate() error {
	if len(r) < 4 {
		return ErrTooFewVertices
	}
	if r[0] != r[len(r)-1] {
		return ErrNotClosed
	}
	for i, v := range r {
		if !(Point{Lat: v.Lat(), Lon: v.Lon()}).Valid() {
			return fmt.Errorf("%w: vertex %d (%v, %v)", ErrOutOfRange, i, v.Lon(), v.Lat())
		}
	}
	if r.signedArea() == 0 {
		return ErrZeroArea
	}
	return nil
}

func (r Ring) Clone() Ring {
	out := make(Ring, len(r))
	copy(out, r)
	return out
}

// signedArea is the shoelace sum; its sign gives orientation.
func (r Ring) signedArea() float64 {
	var sum float64
	for i := 0; i+1 < len(r); i++ {
		sum += r[i].Lon()*r[i+1].Lat() - r[i+1].Lon()*r[i].Lat()
	}
	return sum / 2
}

// Box is an axis-aligned bounding box.
type Box struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// Bounds returns the ring's bounding box.
func (r Ring) Bounds() Box {
	b := Box{MinLon: math.Inf(1), MinLat: math.Inf(1), MaxLon: math.Inf(-1), MaxLat: math.Inf(-1)}
	for _, v := range r {
		b.MinLon = math.Min(b.MinLon, v.Lon())
		b.MaxLon = math.Max(b.MaxLon, v.Lon())
		b.MinLat = math.Min(b.MinLat, v.Lat())
		b.MaxLat = math.Max(b.MaxLat, v.Lat())
	}
	return b
}

// Contains reports whether p lies within the box, edges included.
func (b Box) Contains(p Point) bool {
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon && p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Contains reports whether p is inside the ring. Points on an edge or vertex
// count as inside.
func (r Ring) Contains(p Point) bool {
	if len(r) < 3 {
		return false
	}
	if r.OnBoundary(p) {
		return true
	}

	// Even-odd ray cast towards +lon.
	inside := false
	x, y := p.Lon, p.Lat
	for i, j := 0, len(r)-1; i < len(r); j, i = i, i+1 {
		xi, yi := r[i].Lon(), r[i].Lat()
		xj, yj := r[j].Lon(), r[j].Lat()
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// OnBoundary reports whether p lies on any edge of the ring.
func (r Ring) OnBoundary(p Point) bool {
	for i := 0; i+1 < len(r); i++ {
		if onSegment(r[i], r[i+1], p) {
			return true
		}
	}
	if len(r) > 1 && r[0] != r[len(r)-1] {
		return onSegment(r[len(r)-1], r[0], p)
	}
	return false
}

func onSegment(a, b Vertex, p Point) bool {
	cross := (b.Lon()-a.Lon())*(p.Lat-a.Lat()) - (b.Lat()-a.Lat())*(p.Lon-a.Lon())
	if math.Abs(cross) > epsilon {
		return false
	}
	return p.Lon >= math.Min(a.Lon(), b.Lon())-epsilon && p.Lon <= math.Max(a.Lon(), b.Lon())+epsilon &&
		p.Lat >= math.Min(a.Lat(), b.Lat())-epsilon && p.Lat <= math.Max(a.Lat(), b.Lat())+epsilon
}

// WKT renders the ring as a POLYGON for ST_GeomFromText.
func (r Ring) WKT() string {
	var sb strings.Builder
	sb.WriteString("POLYGON((")
	for i, v := range r {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(v.Lon(), 'f', -1, 64))
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(v.Lat(), 'f', -1, 64))
	}
	sb.WriteString("))")
	return sb.String()
}

type geoJSONPolygon struct {
	Type        string     `json:"type"`
	Coordinates [][]Vertex `json:"coordinates"`
}

// RingFromGeoJSON decodes the exterior ring of a GeoJSON Polygon, as
// produced by ST_AsGeoJSON.
func RingFromGeoJSON(data []byte) (Ring, error) {
	var poly geoJSONPolygon
	if err := json.Unmarshal(data, &poly); err != nil {
		return nil, fmt.Errorf("decode polygon geojson: %w", err)
	}
	if poly.Type != "Polygon" {
		return nil, fmt.Errorf("expected Polygon geometry, got %q", poly.Type)
	}
	if len(poly.Coordinates) == 0 {
		return nil, errors.New("polygon has no rings")
	}
	return Ring(poly.Coordinates[0]), nil
}
