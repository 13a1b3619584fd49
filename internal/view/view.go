// Package view holds the panel visibility of the map page.
package view

import (
	"sync"

	"github.com/joeblew999/plat-map/internal/search"
)

// Mode selects which input panel is shown. The search box and the
// directions panel are never visible together.
type Mode int

const (
	SearchMode Mode = iota
	DirectionsMode
)

func (m Mode) String() string {
	if m == DirectionsMode {
		return "directions"
	}
	return "search"
}

// Root is the visibility state of one page.
type Root struct {
	mu   sync.Mutex
	mode Mode
}

// NewRoot returns a root in SearchMode.
func NewRoot() *Root {
	return &Root{}
}

// Mode returns the current mode.
func (r *Root) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// OpenDirections shows the directions panel and hides the search box.
func (r *Root) OpenDirections() Mode {
	return r.set(DirectionsMode)
}

// CloseDirections returns to the search box.
func (r *Root) CloseDirections() Mode {
	return r.set(SearchMode)
}

func (r *Root) set(m Mode) Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = m
	return m
}

// Accepts reports whether input for slot is allowed in the current mode.
func (r *Root) Accepts(slot search.Slot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot.IsRoute() {
		return r.mode == DirectionsMode
	}
	return r.mode == SearchMode
}
