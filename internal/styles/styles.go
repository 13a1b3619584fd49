// Package styles holds the map style catalog and the style picker state.
package styles

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrUnknownStyle is returned for a style name missing from the catalog.
var ErrUnknownStyle = errors.New("unknown map style")

// Option is one selectable base style.
type Option struct {
	Name string `json:"name" yaml:"name" doc:"Display name" example:"Normal"`
	URL  string `json:"url" yaml:"url" doc:"Style document URL"`
}

// DefaultTilesBase is where Goong serves its style documents.
const DefaultTilesBase = "https://tiles.goong.io/assets/"

var goongStyles = []struct{ name, file string }{
	{"Normal", "goong_map_web.json"},
	{"Satellite", "goong_satellite.json"},
	{"Dark", "goong_map_dark.json"},
	{"Light", "navigation_day.json"},
	{"Night", "navigation_night.json"},
}

// GoongCatalog builds the stock Goong styles for a map key.
func GoongCatalog(tilesBase, mapKey string) []Option {
	if tilesBase == "" {
		tilesBase = DefaultTilesBase
	}
	opts := make([]Option, len(goongStyles))
	for i, s := range goongStyles {
		opts[i] = Option{Name: s.name, URL: fmt.Sprintf("%s%s?api_key=%s", tilesBase, s.file, mapKey)}
	}
	return opts
}

// Surface is the map the switcher applies styles to.
type Surface interface {
	SetStyle(url string) error
}

// Switcher tracks the current style and the picker popover.
type Switcher struct {
	catalog []Option
	surface Surface
	log     zerolog.Logger

	mu          sync.Mutex
	current     Option
	previous    *Option
	popoverOpen bool
}

// NewSwitcher creates a switcher showing the first catalog entry.
func NewSwitcher(catalog []Option, surface Surface, log zerolog.Logger) *Switcher {
	s := &Switcher{catalog: catalog, surface: surface, log: log}
	if len(catalog) > 0 {
		s.current = catalog[0]
	}
	return s
}

// Catalog returns the selectable styles.
func (s *Switcher) Catalog() []Option {
	return s.catalog
}

// Current returns the style shown on the picker button.
func (s *Switcher) Current() Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// PopoverOpen reports whether the style list is shown.
func (s *Switcher) PopoverOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.popoverOpen
}

// TogglePopover opens or closes the style list and returns the new state.
func (s *Switcher) TogglePopover() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popoverOpen = !s.popoverOpen
	return s.popoverOpen
}

// Lookup finds a catalog entry by name.
func (s *Switcher) Lookup(name string) (Option, bool) {
	for _, o := range s.catalog {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// Select applies the named style, updates the label and closes the popover.
func (s *Switcher) Select(name string) (Option, error) {
	opt, ok := s.Lookup(name)
	if !ok {
		return Option{}, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
	if err := s.surface.SetStyle(opt.URL); err != nil {
		return Option{}, fmt.Errorf("set style %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != opt {
		prev := s.current
		s.previous = &prev
	}
	s.current = opt
	s.popoverOpen = false
	return opt, nil
}

// StyleFailed reverts to the style in use before the last selection. It
// returns the failed style and the restored one; restored is false when there
// was nothing to go back to.
func (s *Switcher) StyleFailed() (failed, restored Option, ok bool) {
	s.mu.Lock()
	failed = s.current
	prev := s.previous
	s.previous = nil
	if prev == nil {
		s.mu.Unlock()
		s.log.Warn().Str("style", failed.Name).Msg("style failed to load, nothing to revert to")
		return failed, Option{}, false
	}
	s.current = *prev
	s.mu.Unlock()

	s.log.Warn().Str("style", failed.Name).Str("revert", prev.Name).Msg("style failed to load")
	if err := s.surface.SetStyle(prev.URL); err != nil {
		s.log.Error().Err(err).Msg("revert style")
	}
	return failed, *prev, true
}
