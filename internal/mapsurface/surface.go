package mapsurface

import (
	"errors"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-map/internal/geomath"
)

// ErrNotInitialized is returned by operations that need a renderer.
var ErrNotInitialized = errors.New("map surface not initialized")

// Config holds the surface defaults.
type Config struct {
	View        ViewState
	CirclePaint Paint
	// CirclePoints is the ring resolution of the circle overlay.
	CirclePoints int
}

// Surface owns one renderer instance and the overlay state drawn on it.
type Surface struct {
	mu sync.Mutex

	cfg      Config
	log      zerolog.Logger
	renderer Renderer
	loaded   bool
	placed   bool // markers handed to the current renderer

	view     ViewState
	style    string
	overlays map[string]Overlay
	order    []string
	markers  []orb.Point
	rendered map[string]bool // sources the renderer currently holds
}

// New creates a surface with no renderer.
func New(cfg Config, log zerolog.Logger) *Surface {
	if cfg.CirclePaint == (Paint{}) {
		cfg.CirclePaint = DefaultCirclePaint
	}
	return &Surface{
		cfg:      cfg,
		log:      log,
		view:     cfg.View,
		overlays: make(map[string]Overlay),
		rendered: make(map[string]bool),
	}
}

// Initialize creates the renderer with style and the current camera. It is a
// no-op when a renderer already exists.
func (s *Surface) Initialize(r Renderer, style string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.renderer != nil {
		s.log.Debug().Msg("map already initialized")
		return
	}
	s.renderer = r
	s.style = style
	s.loaded = false
	s.placed = false
	s.rendered = make(map[string]bool)
	r.Create(style, s.camera())
}

// Initialized reports whether a renderer is attached.
func (s *Surface) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer != nil
}

// Dispose removes the renderer. Overlay and marker state is kept and is drawn
// again by the next renderer.
func (s *Surface) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.renderer == nil {
		return
	}
	s.renderer.Remove()
	s.renderer = nil
	s.loaded = false
	s.placed = false
	s.rendered = make(map[string]bool)
}

// Loaded is called when the renderer finished loading its style. All
// registered overlays are declared again; markers are placed once per
// renderer because they outlive style swaps.
func (s *Surface) Loaded() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.renderer == nil {
		return ErrNotInitialized
	}
	s.loaded = true
	for _, id := range s.order {
		s.declare(s.overlays[id])
	}
	if !s.placed {
		for _, m := range s.markers {
			s.renderer.AddMarker(m)
		}
		s.placed = true
	}
	return nil
}

// UpsertCircle draws the search radius around center, replacing the data of
// an existing circle overlay.
func (s *Surface) UpsertCircle(center orb.Point, radiusMeters float64) {
	s.Upsert(Overlay{
		ID:   CircleID,
		Data: geomath.CircleFeatureCollection(center, radiusMeters, s.cfg.CirclePoints),
		Layer: Layer{
			ID:     CircleID,
			Type:   "fill",
			Source: CircleID,
			Paint:  s.cfg.CirclePaint,
		},
	})
}

// Upsert registers an overlay by ID. Existing sources only get their data
// replaced; no second layer is ever added for the same ID.
func (s *Surface) Upsert(o Overlay) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.overlays[o.ID]; !ok {
		s.order = append(s.order, o.ID)
	}
	s.overlays[o.ID] = o
	if s.renderer != nil && s.loaded {
		s.declare(o)
	}
}

func (s *Surface) declare(o Overlay) {
	if s.rendered[o.ID] {
		s.renderer.SetSourceData(o.ID, o.Data)
		return
	}
	s.renderer.AddSource(o.ID, o.Data)
	s.renderer.AddLayer(o.Layer)
	s.rendered[o.ID] = true
}

// AddMarker places a marker. Markers accumulate.
func (s *Surface) AddMarker(at orb.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markers = append(s.markers, at)
	if s.renderer != nil && s.placed {
		s.renderer.AddMarker(at)
	}
}

// FlyTo animates the camera to center and zoom.
func (s *Surface) FlyTo(center orb.Point, zoom float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.view.Center = center
	s.view.Zoom = zoom
	if s.renderer != nil {
		s.renderer.FlyTo(s.camera())
	}
}

// SetStyle swaps the base style. The renderer drops custom sources on a swap,
// so overlays are declared again on the next Loaded.
func (s *Surface) SetStyle(style string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.renderer == nil {
		return ErrNotInitialized
	}
	s.style = style
	s.loaded = false
	s.rendered = make(map[string]bool)
	s.renderer.SetStyle(style)
	return nil
}

// View returns the current view state.
func (s *Surface) View() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Style returns the current style URL.
func (s *Surface) Style() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.style
}

// Overlay returns a registered overlay.
func (s *Surface) Overlay(id string) (Overlay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overlays[id]
	return o, ok
}

// Overlays returns the number of registered overlays.
func (s *Surface) Overlays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.overlays)
}

// Markers returns a copy of the placed markers.
func (s *Surface) Markers() []orb.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]orb.Point(nil), s.markers...)
}

func (s *Surface) camera() Camera {
	return Camera{Center: s.view.Center, Zoom: s.view.Zoom}
}
