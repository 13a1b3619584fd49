package geomath

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hanoi = orb.Point{105.85242472181584, 21.029579719995272}

func TestApproximateCircleShape(t *testing.T) {
	ring := ApproximateCircle(hanoi, 500, 64)

	require.Len(t, ring, 65)
	assert.Equal(t, ring[0], ring[len(ring)-1])
	assert.True(t, ring.Closed())
}

func TestApproximateCircleDefaultPoints(t *testing.T) {
	assert.Len(t, ApproximateCircle(hanoi, 500, 0), DefaultCirclePoints+1)
	assert.Len(t, ApproximateCircle(hanoi, 500, -3), DefaultCirclePoints+1)
	assert.Len(t, ApproximateCircle(hanoi, 500, 8), 9)
}

func TestApproximateCircleDistance(t *testing.T) {
	centers := []orb.Point{
		hanoi,
		{0, 0},
		{-0.1278, 51.5074},
		{-74.006, 40.7128},
		{151.2093, -33.8688},
	}
	for _, center := range centers {
		for _, radius := range []float64{50, 500, 1000} {
			ring := ApproximateCircle(center, radius, 64)
			for i, p := range ring {
				d := geo.Distance(center, p)
				assert.InDeltaf(t, radius, d, radius*0.02,
					"center %v radius %.0f point %d at %.2fm", center, radius, i, d)
			}
		}
	}
}

func TestApproximateCircleDeterministic(t *testing.T) {
	a := ApproximateCircle(hanoi, 750, 64)
	b := ApproximateCircle(hanoi, 750, 64)
	assert.Equal(t, a, b)
}

func TestApproximateCircleFirstPointEast(t *testing.T) {
	ring := ApproximateCircle(hanoi, 1000, 4)
	assert.Greater(t, ring[0].Lon(), hanoi.Lon())
	assert.InDelta(t, hanoi.Lat(), ring[0].Lat(), 1e-12)
	assert.Greater(t, ring[1].Lat(), hanoi.Lat())
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(hanoi))
	assert.True(t, Valid(orb.Point{-180, -90}))
	assert.True(t, Valid(orb.Point{180, 90}))
	assert.False(t, Valid(orb.Point{180.5, 0}))
	assert.False(t, Valid(orb.Point{0, -91}))
}

func TestCircleFeatureCollection(t *testing.T) {
	fc := CircleFeatureCollection(hanoi, 500, 64)
	require.Len(t, fc.Features, 1)

	poly, ok := fc.Features[0].Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	assert.Len(t, poly[0], 65)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"FeatureCollection"`)
	assert.Contains(t, string(data), `"type":"Polygon"`)
}
