package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Lower Manhattan block used throughout the containment tests.
var block = Ring{
	{-74.006, 40.7128},
	{-74.005, 40.7128},
	{-74.005, 40.7138},
	{-74.006, 40.7138},
	{-74.006, 40.7128},
}

func TestRing_Contains(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"interior point", Point{Lat: 40.7130, Lon: -74.0055}, true},
		{"far away", Point{Lat: 41.0, Lon: -75.0}, false},
		{"east of block on same latitude", Point{Lat: 40.7130, Lon: -74.004}, false},
		{"on south edge", Point{Lat: 40.7128, Lon: -74.0055}, true},
		{"on west edge", Point{Lat: 40.7133, Lon: -74.006}, true},
		{"on vertex", Point{Lat: 40.7138, Lon: -74.005}, true},
		{"just outside north edge", Point{Lat: 40.71381, Lon: -74.0055}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, block.Contains(tt.p))
		})
	}
}

func TestRing_Contains_Concave(t *testing.T) {
	// U shape opening north; the notch is outside.
	u := Ring{
		{0, 0}, {3, 0}, {3, 3}, {2, 3}, {2, 1}, {1, 1}, {1, 3}, {0, 3}, {0, 0},
	}
	require.NoError(t, u.Validate())

	assert.True(t, u.Contains(Point{Lat: 2, Lon: 0.5}))
	assert.True(t, u.Contains(Point{Lat: 2, Lon: 2.5}))
	assert.False(t, u.Contains(Point{Lat: 2, Lon: 1.5}))
	assert.True(t, u.Contains(Point{Lat: 1, Lon: 1.5}), "notch floor is boundary")
}

func TestRing_Contains_OrientationIndependent(t *testing.T) {
	reversed := make(Ring, len(block))
	for i := range block {
		reversed[len(block)-1-i] = block[i]
	}
	p := Point{Lat: 40.7130, Lon: -74.0055}
	assert.Equal(t, block.Contains(p), reversed.Contains(p))
}

func TestRing_Validate(t *testing.T) {
	t.Run("valid block", func(t *testing.T) {
		assert.NoError(t, block.Validate())
	})

	t.Run("too few vertices", func(t *testing.T) {
		assert.ErrorIs(t, Ring{{0, 0}, {1, 1}, {0, 0}}.Validate(), ErrTooFewVertices)
	})

	t.Run("open ring", func(t *testing.T) {
		open := Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
		assert.ErrorIs(t, open.Validate(), ErrNotClosed)
	})

	t.Run("vertex out of range", func(t *testing.T) {
		bad := Ring{{0, 0}, {181, 0}, {1, 1}, {0, 0}}
		assert.ErrorIs(t, bad.Validate(), ErrOutOfRange)
	})

	t.Run("collinear ring", func(t *testing.T) {
		flat := Ring{{0, 0}, {1, 0}, {2, 0}, {0, 0}}
		assert.ErrorIs(t, flat.Validate(), ErrZeroArea)
	})
}

func TestRing_Bounds(t *testing.T) {
	b := block.Bounds()
	assert.Equal(t, Box{MinLon: -74.006, MinLat: 40.7128, MaxLon: -74.005, MaxLat: 40.7138}, b)
	assert.True(t, b.Contains(Point{Lat: 40.7130, Lon: -74.0055}))
	assert.False(t, b.Contains(Point{Lat: 41.0, Lon: -75.0}))
}

func TestRing_WKTAndGeoJSON(t *testing.T) {
	assert.Equal(t,
		"POLYGON((-74.006 40.7128, -74.005 40.7128, -74.005 40.7138, -74.006 40.7138, -74.006 40.7128))",
		block.WKT())

	geo := []byte(`{"type":"Polygon","coordinates":[[[-74.006,40.7128],[-74.005,40.7128],[-74.005,40.7138],[-74.006,40.7138],[-74.006,40.7128]]]}`)
	ring, err := RingFromGeoJSON(geo)
	require.NoError(t, err)
	assert.Equal(t, block, ring)

	_, err = RingFromGeoJSON([]byte(`{"type":"Point","coordinates":[1,2]}`))
	assert.Error(t, err)
}

func TestPoint_Valid(t *testing.T) {
	assert.True(t, Point{Lat: 90, Lon: -180}.Valid())
	assert.False(t, Point{Lat: 90.0001, Lon: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lon: -180.5}.Valid())
}
