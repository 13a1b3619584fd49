package server

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-map/internal/api"
	"github.com/joeblew999/plat-map/internal/api/mapui"
	"github.com/joeblew999/plat-map/internal/config"
	"github.com/joeblew999/plat-map/internal/search"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/templates"
	"github.com/joeblew999/plat-map/web"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	Version string
	WebDir  string // Optional path to a web/ directory overriding the embedded assets
	Map     config.Config
	Places  search.Lookup
	Log     zerolog.Logger
}

// Server is the map HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	sessions *service.SessionService
	renderer *templates.Renderer
	log      zerolog.Logger
}

// New creates a new map server.
func New(cfg Config) (*Server, error) {
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-map API", cfg.Version)
	humaConfig.Info.Description = "Interactive map API: place search, search radius geometry, map styles and the Datastar map UI."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	assets, static := web.Templates, web.Static()
	if cfg.WebDir != "" {
		assets = os.DirFS(cfg.WebDir)
		static = os.DirFS(filepath.Join(cfg.WebDir, "static"))
	}
	renderer, err := templates.New(assets, web.TemplatePatterns...)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		sessions: service.NewSessionService(cfg.Map.Session(), cfg.Places, cfg.Log),
		renderer: renderer,
		log:      cfg.Log,
	}
	s.routes(static)
	s.handler = RequestLogger(s.log, mux)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Sessions exposes the map session store.
func (s *Server) Sessions() *service.SessionService {
	return s.sessions
}

// PruneSessions drops idle sessions every interval until ctx is done.
func (s *Server) PruneSessions(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sessions.Prune()
		}
	}
}

func (s *Server) routes(static fs.FS) {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(&api.Services{
		Places:       s.config.Places,
		Styles:       s.config.Map.Styles,
		CirclePoints: s.config.Map.CirclePoints,
	}))
	api.NewInfoHandler(s.config.Version, s.sessions.Len).RegisterRoutes(s.humaAPI)

	// Register map UI SSE routes using Huma + Datastar SDK
	mapHandler := mapui.NewHandler(s.sessions, s.renderer, "plat-map", s.log)
	mapHandler.RegisterRoutes(s.humaAPI)

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	// Page routes
	s.mux.HandleFunc("GET /{$}", mapHandler.WritePage)
}
