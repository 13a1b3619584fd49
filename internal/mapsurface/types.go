// Package mapsurface owns a map renderer and the state drawn on it: camera,
// base style, GeoJSON overlays and markers.
//
// The surface keeps its own copy of everything it has asked the renderer to
// draw, so the drawing can be replayed after the renderer loses it (a style
// swap drops custom sources and layers).
package mapsurface

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// CircleID keys the search-radius overlay's source and layer.
const CircleID = "circle"

// ViewState is the camera plus the radius drawn around selected places.
type ViewState struct {
	Center       orb.Point `json:"center" yaml:"center"`
	Zoom         float64   `json:"zoom" yaml:"zoom"`
	RadiusMeters float64   `json:"radius" yaml:"radius"`
}

// Camera is the part of ViewState the renderer animates.
type Camera struct {
	Center orb.Point `json:"center"`
	Zoom   float64   `json:"zoom"`
}

// Paint is the fixed styling of a fill overlay.
type Paint struct {
	FillColor   string  `json:"fill-color" yaml:"fill"`
	FillOpacity float64 `json:"fill-opacity" yaml:"opacity"`
}

// DefaultCirclePaint matches the search radius styling of the web page.
var DefaultCirclePaint = Paint{FillColor: "#588888", FillOpacity: 0.5}

// Layer declares how a source is drawn.
type Layer struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Source string `json:"source"`
	Paint  Paint  `json:"paint"`
}

// Overlay is a named source+layer pair.
type Overlay struct {
	ID    string
	Data  *geojson.FeatureCollection
	Layer Layer
}

// Renderer draws on a map instance. Calls are fire-and-forget; completion of
// asynchronous work (style loads) is reported back through Surface.Loaded.
type Renderer interface {
	Create(style string, camera Camera)
	AddSource(id string, data *geojson.FeatureCollection)
	SetSourceData(id string, data *geojson.FeatureCollection)
	AddLayer(layer Layer)
	AddMarker(at orb.Point)
	FlyTo(camera Camera)
	SetStyle(style string)
	Remove()
}
