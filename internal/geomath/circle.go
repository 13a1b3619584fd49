// Package geomath approximates geodesic shapes for map overlays.
//
// The approximations are local and flat: offsets are computed in degrees with
// a fixed km-per-degree factor, so accuracy degrades towards the poles and for
// radii beyond a few tens of kilometres.
package geomath

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultCirclePoints is the ring resolution used when none is given.
const DefaultCirclePoints = 64

const (
	kmPerDegreeLon = 111.320 // at the equator, scaled by cos(lat)
	kmPerDegreeLat = 110.574
)

// Valid reports whether p is a WGS84 longitude/latitude pair.
func Valid(p orb.Point) bool {
	return p.Lon() >= -180 && p.Lon() <= 180 && p.Lat() >= -90 && p.Lat() <= 90
}

// ApproximateCircle returns a closed ring of points+1 coordinates around
// center. The last coordinate equals the first. points <= 0 selects
// DefaultCirclePoints.
func ApproximateCircle(center orb.Point, radiusMeters float64, points int) orb.Ring {
	if points <= 0 {
		points = DefaultCirclePoints
	}

	km := radiusMeters / 1000
	distanceX := km / (kmPerDegreeLon * math.Cos(center.Lat()*math.Pi/180))
	distanceY := km / kmPerDegreeLat

	ring := make(orb.Ring, 0, points+1)
	for i := 0; i < points; i++ {
		theta := float64(i) / float64(points) * (2 * math.Pi)
		ring = append(ring, orb.Point{
			center.Lon() + distanceX*math.Cos(theta),
			center.Lat() + distanceY*math.Sin(theta),
		})
	}
	return append(ring, ring[0])
}

// CircleFeatureCollection wraps ApproximateCircle as a single Polygon feature,
// the shape a GeoJSON map source expects.
func CircleFeatureCollection(center orb.Point, radiusMeters float64, points int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Polygon{ApproximateCircle(center, radiusMeters, points)})
	f.Properties["radius"] = radiusMeters
	fc.Append(f)
	return fc
}
