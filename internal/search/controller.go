// Package search drives the place search inputs: free-text search and the two
// directions endpoints. Each slot keeps its own text and suggestions.
//
// Lookups run without holding any lock. Every text change takes a new
// sequence number for its slot and a lookup result is only applied when its
// sequence number is still the latest one, so a slow response can never
// overwrite the suggestions of a newer keystroke.
package search

import (
	"context"
	"errors"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-map/internal/mapsurface"
	"github.com/joeblew999/plat-map/internal/places"
)

// ErrUnknownSuggestion is returned when a selected place is not in the slot's
// current suggestion list.
var ErrUnknownSuggestion = errors.New("suggestion not in current list")

// Lookup resolves text and place IDs. *places.Client implements it.
type Lookup interface {
	Autocomplete(ctx context.Context, query string) []places.Suggestion
	Detail(ctx context.Context, placeID string) (places.Detail, bool)
}

// Map is the part of the map surface a selection draws on.
type Map interface {
	AddMarker(at orb.Point)
	UpsertCircle(center orb.Point, radiusMeters float64)
	FlyTo(center orb.Point, zoom float64)
	View() mapsurface.ViewState
}

// Options tunes controller behaviour.
type Options struct {
	// VisualizeRouteEndpoints adds a marker for resolved directions
	// endpoints. The main slot always draws marker, circle and camera move.
	VisualizeRouteEndpoints bool
}

// State is a snapshot of one slot.
type State struct {
	Slot        Slot
	Text        string
	Suggestions []places.Suggestion
	Phase       Phase
	// Location is set once a selection resolved.
	Location *orb.Point
}

type slotState struct {
	text        string
	suggestions []places.Suggestion
	phase       Phase
	location    *orb.Point
	seq         uint64
}

// Controller holds the state of all slots for one map.
type Controller struct {
	lookup Lookup
	m      Map
	opts   Options
	log    zerolog.Logger

	mu    sync.Mutex
	slots [3]slotState
}

// NewController creates a controller with every slot idle.
func NewController(lookup Lookup, m Map, opts Options, log zerolog.Logger) *Controller {
	return &Controller{lookup: lookup, m: m, opts: opts, log: log}
}

// TextChanged stores text for the slot and looks up suggestions for it. The
// bool is false when a newer change superseded this one; the returned state
// then reflects the newer change.
func (c *Controller) TextChanged(ctx context.Context, slot Slot, text string) (State, bool) {
	c.mu.Lock()
	s := &c.slots[slot]
	s.seq++
	seq := s.seq
	s.text = text
	s.location = nil
	if text == "" {
		s.phase = Idle
	} else {
		s.phase = Typing
	}
	c.mu.Unlock()

	results := c.lookup.Autocomplete(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	s = &c.slots[slot]
	if s.seq != seq {
		c.log.Debug().Stringer("slot", slot).Str("text", text).Msg("discarding stale suggestions")
		return c.snapshot(slot), false
	}
	s.suggestions = results
	switch {
	case len(results) > 0:
		s.phase = Suggested
	case text == "":
		s.phase = Idle
	}
	return c.snapshot(slot), true
}

// Select picks a suggestion from the slot's current list. The text becomes
// the suggestion's description and the list is cleared before the place is
// resolved. A place that cannot be resolved leaves the map untouched.
func (c *Controller) Select(ctx context.Context, slot Slot, placeID string) (State, error) {
	c.mu.Lock()
	s := &c.slots[slot]
	var picked *places.Suggestion
	for i := range s.suggestions {
		if s.suggestions[i].PlaceID == placeID {
			picked = &s.suggestions[i]
			break
		}
	}
	if picked == nil {
		st := c.snapshot(slot)
		c.mu.Unlock()
		return st, ErrUnknownSuggestion
	}
	s.seq++
	seq := s.seq
	s.text = picked.Description
	s.suggestions = nil
	s.phase = Selected
	s.location = nil
	c.mu.Unlock()

	detail, ok := c.lookup.Detail(ctx, placeID)

	c.mu.Lock()
	s = &c.slots[slot]
	if s.seq != seq {
		st := c.snapshot(slot)
		c.mu.Unlock()
		c.log.Debug().Stringer("slot", slot).Str("placeId", placeID).Msg("discarding stale selection")
		return st, nil
	}
	if !ok {
		st := c.snapshot(slot)
		c.mu.Unlock()
		return st, nil
	}
	loc := detail.Location
	s.location = &loc
	st := c.snapshot(slot)
	c.mu.Unlock()

	switch {
	case slot == Main:
		view := c.m.View()
		c.m.AddMarker(loc)
		c.m.UpsertCircle(loc, view.RadiusMeters)
		c.m.FlyTo(loc, view.Zoom)
	case c.opts.VisualizeRouteEndpoints:
		c.m.AddMarker(loc)
	}
	return st, nil
}

// State returns a snapshot of a slot.
func (c *Controller) State(slot Slot) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(slot)
}

// Endpoints returns the resolved directions endpoints, nil where unresolved.
func (c *Controller) Endpoints() (start, end *orb.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyPoint(c.slots[RouteStart].location), copyPoint(c.slots[RouteEnd].location)
}

func (c *Controller) snapshot(slot Slot) State {
	s := c.slots[slot]
	return State{
		Slot:        slot,
		Text:        s.text,
		Suggestions: append([]places.Suggestion(nil), s.suggestions...),
		Phase:       s.phase,
		Location:    copyPoint(s.location),
	}
}

func copyPoint(p *orb.Point) *orb.Point {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
