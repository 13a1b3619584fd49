// Package config assembles runtime configuration from CLI options and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-map/internal/geomath"
	"github.com/joeblew999/plat-map/internal/mapsurface"
	"github.com/joeblew999/plat-map/internal/places"
	"github.com/joeblew999/plat-map/internal/search"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/styles"
)

// MapKeyPlaceholder in a style URL from the config file is replaced with the
// configured map key.
const MapKeyPlaceholder = "{map_key}"

// DefaultView is the initial camera: central Hanoi, street level, 500 m radius.
var DefaultView = mapsurface.ViewState{
	Center:       orb.Point{105.85242472181584, 21.029579719995272},
	Zoom:         14,
	RadiusMeters: 500,
}

// File is the YAML configuration file. Every field is optional.
type File struct {
	Styles       []styles.Option       `yaml:"styles,omitempty"`
	View         *mapsurface.ViewState `yaml:"view,omitempty"`
	Circle       *mapsurface.Paint     `yaml:"circle,omitempty"`
	CirclePoints int                   `yaml:"circle_points,omitempty"`
	SessionIdle  time.Duration         `yaml:"session_idle,omitempty"`
}

// Config is the resolved configuration of the map server.
type Config struct {
	Places       places.Config
	MapKey       string
	Styles       []styles.Option
	View         mapsurface.ViewState
	CirclePaint  mapsurface.Paint
	CirclePoints int
	Search       search.Options
	SessionIdle  time.Duration
}

// Default returns the built-in configuration for a map key and tiles base.
func Default(mapKey, tilesBase string) Config {
	return Config{
		Places:       places.Config{BaseURL: places.DefaultBaseURL},
		MapKey:       mapKey,
		Styles:       styles.GoongCatalog(tilesBase, mapKey),
		View:         DefaultView,
		CirclePaint:  mapsurface.DefaultCirclePaint,
		CirclePoints: 64,
		SessionIdle:  30 * time.Minute,
	}
}

// ReadFile parses a YAML configuration file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// Load merges the file at path over base. An empty path returns base.
func Load(path string, base Config) (Config, error) {
	if path == "" {
		return base, nil
	}
	f, err := ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return f.Apply(base), nil
}

// Apply returns base with the fields set in f replaced.
func (f *File) Apply(base Config) Config {
	cfg := base
	if len(f.Styles) > 0 {
		cfg.Styles = make([]styles.Option, len(f.Styles))
		for i, o := range f.Styles {
			o.URL = strings.ReplaceAll(o.URL, MapKeyPlaceholder, base.MapKey)
			cfg.Styles[i] = o
		}
	}
	if f.View != nil {
		cfg.View = *f.View
	}
	if f.Circle != nil {
		cfg.CirclePaint = *f.Circle
	}
	if f.CirclePoints > 0 {
		cfg.CirclePoints = f.CirclePoints
	}
	if f.SessionIdle > 0 {
		cfg.SessionIdle = f.SessionIdle
	}
	return cfg
}

// Validate reports every problem with the configuration.
func (c Config) Validate() error {
	var errs []error
	if len(c.Styles) == 0 {
		errs = append(errs, errors.New("style catalog is empty"))
	}
	seen := make(map[string]bool, len(c.Styles))
	for i, o := range c.Styles {
		switch {
		case o.Name == "":
			errs = append(errs, fmt.Errorf("style %d has no name", i))
		case seen[o.Name]:
			errs = append(errs, fmt.Errorf("duplicate style %q", o.Name))
		}
		seen[o.Name] = true
		if o.URL == "" {
			errs = append(errs, fmt.Errorf("style %q has no url", o.Name))
		}
	}
	if !geomath.Valid(c.View.Center) {
		errs = append(errs, fmt.Errorf("initial center %v out of range", c.View.Center))
	}
	if c.View.Zoom < 0 || c.View.Zoom > 24 {
		errs = append(errs, fmt.Errorf("initial zoom %v out of range [0, 24]", c.View.Zoom))
	}
	if c.View.RadiusMeters < 0 {
		errs = append(errs, fmt.Errorf("radius %v is negative", c.View.RadiusMeters))
	}
	if c.CirclePaint.FillOpacity < 0 || c.CirclePaint.FillOpacity > 1 {
		errs = append(errs, fmt.Errorf("circle opacity %v out of range [0, 1]", c.CirclePaint.FillOpacity))
	}
	return errors.Join(errs...)
}

// Session returns the per-session configuration.
func (c Config) Session() service.SessionConfig {
	return service.SessionConfig{
		Surface: mapsurface.Config{
			View:         c.View,
			CirclePaint:  c.CirclePaint,
			CirclePoints: c.CirclePoints,
		},
		Styles:  c.Styles,
		Search:  c.Search,
		MaxIdle: c.SessionIdle,
	}
}
