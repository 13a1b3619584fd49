package service

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-map/internal/mapsurface"
)

// Command ops understood by the map page.
const (
	OpCreate    = "create"
	OpAddSource = "addSource"
	OpSetData   = "setData"
	OpAddLayer  = "addLayer"
	OpAddMarker = "addMarker"
	OpFlyTo     = "flyTo"
	OpSetStyle  = "setStyle"
	OpRemove    = "remove"
)

// Command is one instruction for the MapLibre instance in the browser.
type Command struct {
	Op     string                     `json:"op"`
	ID     string                     `json:"id,omitempty"`
	Style  string                     `json:"style,omitempty"`
	Camera *mapsurface.Camera         `json:"camera,omitempty"`
	Data   *geojson.FeatureCollection `json:"data,omitempty"`
	Layer  *mapsurface.Layer          `json:"layer,omitempty"`
	At     *orb.Point                 `json:"at,omitempty"`
}

// BusRenderer implements mapsurface.Renderer by publishing commands.
type BusRenderer struct {
	bus *Bus
}

// NewBusRenderer creates a renderer that publishes to bus.
func NewBusRenderer(bus *Bus) *BusRenderer {
	return &BusRenderer{bus: bus}
}

func (r *BusRenderer) Create(style string, camera mapsurface.Camera) {
	r.bus.Publish(Command{Op: OpCreate, Style: style, Camera: &camera})
}

func (r *BusRenderer) AddSource(id string, data *geojson.FeatureCollection) {
	r.bus.Publish(Command{Op: OpAddSource, ID: id, Data: data})
}

func (r *BusRenderer) SetSourceData(id string, data *geojson.FeatureCollection) {
	r.bus.Publish(Command{Op: OpSetData, ID: id, Data: data})
}

func (r *BusRenderer) AddLayer(layer mapsurface.Layer) {
	r.bus.Publish(Command{Op: OpAddLayer, ID: layer.ID, Layer: &layer})
}

func (r *BusRenderer) AddMarker(at orb.Point) {
	r.bus.Publish(Command{Op: OpAddMarker, At: &at})
}

func (r *BusRenderer) FlyTo(camera mapsurface.Camera) {
	r.bus.Publish(Command{Op: OpFlyTo, Camera: &camera})
}

func (r *BusRenderer) SetStyle(style string) {
	r.bus.Publish(Command{Op: OpSetStyle, Style: style})
}

func (r *BusRenderer) Remove() {
	r.bus.Publish(Command{Op: OpRemove})
}
