// Package api defines the Huma API routes and handlers.
package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-map/internal/geomath"
	"github.com/joeblew999/plat-map/internal/places"
	"github.com/joeblew999/plat-map/internal/search"
	"github.com/joeblew999/plat-map/internal/styles"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Places search.Lookup
	Styles []styles.Option
	// CirclePoints is the default vertex count of circle geometry.
	CirclePoints int
}

// Types

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type AutocompleteInput struct {
	Input string `query:"input" doc:"Text typed by the user; fewer than 2 characters returns no suggestions" example:"hoan kiem"`
}

type AutocompleteOutput struct {
	Body []places.Suggestion
}

type PlaceInput struct {
	PlaceID string `path:"placeId" doc:"Place identifier from an autocomplete suggestion"`
}

type PlaceBody struct {
	PlaceID string    `json:"placeId" doc:"Place identifier"`
	Lon     float64   `json:"lon" doc:"Longitude in degrees"`
	Lat     float64   `json:"lat" doc:"Latitude in degrees"`
	Point   orb.Point `json:"point" doc:"Location as [lon, lat]"`
}

type CircleInput struct {
	Lon    float64 `query:"lon" required:"true" minimum:"-180" maximum:"180" doc:"Center longitude"`
	Lat    float64 `query:"lat" required:"true" minimum:"-90" maximum:"90" doc:"Center latitude"`
	Radius float64 `query:"radius" default:"500" minimum:"0" doc:"Radius in meters"`
	Points int     `query:"points" minimum:"0" maximum:"1024" doc:"Vertex count, 0 for the default of 64"`
}

type CircleOutput struct {
	Body *geojson.FeatureCollection
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterStyles registers the style catalog route.
func (h *APIHandler) RegisterStyles(api huma.API) {
	huma.Get(api, "/api/v1/styles", h.GetStyles, huma.OperationTags("styles"))
}

// RegisterPlaces registers the place lookup proxy routes.
func (h *APIHandler) RegisterPlaces(api huma.API) {
	huma.Get(api, "/api/v1/places/autocomplete", h.Autocomplete, huma.OperationTags("places"))
	huma.Get(api, "/api/v1/places/{placeId}", h.GetPlace, huma.OperationTags("places"))
}

// RegisterGeometry registers geometry helper routes.
func (h *APIHandler) RegisterGeometry(api huma.API) {
	huma.Get(api, "/api/v1/geometry/circle", h.GetCircle, huma.OperationTags("geometry"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetStyles(ctx context.Context, input *struct{}) (*struct{ Body []styles.Option }, error) {
	if h.svc == nil || h.svc.Styles == nil {
		return &struct{ Body []styles.Option }{Body: []styles.Option{}}, nil
	}
	return &struct{ Body []styles.Option }{Body: h.svc.Styles}, nil
}

func (h *APIHandler) Autocomplete(ctx context.Context, input *AutocompleteInput) (*AutocompleteOutput, error) {
	if h.svc == nil || h.svc.Places == nil {
		return nil, huma.Error503ServiceUnavailable("place lookup not configured")
	}
	return &AutocompleteOutput{Body: h.svc.Places.Autocomplete(ctx, input.Input)}, nil
}

func (h *APIHandler) GetPlace(ctx context.Context, input *PlaceInput) (*struct{ Body PlaceBody }, error) {
	if h.svc == nil || h.svc.Places == nil {
		return nil, huma.Error503ServiceUnavailable("place lookup not configured")
	}
	d, ok := h.svc.Places.Detail(ctx, input.PlaceID)
	if !ok {
		return nil, huma.Error404NotFound("place not found")
	}
	return &struct{ Body PlaceBody }{Body: PlaceBody{
		PlaceID: d.PlaceID, Lon: d.Location.Lon(), Lat: d.Location.Lat(), Point: d.Location,
	}}, nil
}

func (h *APIHandler) GetCircle(ctx context.Context, input *CircleInput) (*CircleOutput, error) {
	center := orb.Point{input.Lon, input.Lat}
	if !geomath.Valid(center) {
		return nil, huma.Error422UnprocessableEntity("center out of range")
	}
	points := input.Points
	if points == 0 && h.svc != nil {
		points = h.svc.CirclePoints
	}
	return &CircleOutput{Body: geomath.CircleFeatureCollection(center, input.Radius, points)}, nil
}
