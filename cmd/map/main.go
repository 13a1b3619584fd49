package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-map/internal/config"
	"github.com/joeblew999/plat-map/internal/geomath"
	"github.com/joeblew999/plat-map/internal/places"
	"github.com/joeblew999/plat-map/internal/server"
)

const version = "0.1.0"

// Options defines all CLI flags and env vars for the map server.
// Flags: --host, --port, --api-key, --map-key, --config, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_API_KEY, SERVICE_MAP_KEY, SERVICE_CONFIG, ...
type Options struct {
	Host         string `doc:"Host to bind to" default:"0.0.0.0"`
	Port         int    `doc:"Port to listen on" short:"p" default:"8086"`
	LogLevel     string `doc:"Log level: debug, info, warn, error" default:"info"`
	LogFormat    string `doc:"Log format: console or json" default:"console"`
	APIKey       string `doc:"Goong REST API key used for place lookups"`
	MapKey       string `doc:"Goong map key used in style URLs"`
	APIBase      string `doc:"Goong REST API base URL" default:"https://rsapi.goong.io"`
	TilesBase    string `doc:"Base URL of the Goong style documents" default:"https://tiles.goong.io/assets/"`
	Config       string `doc:"Path to a YAML file overriding styles, initial view and circle paint" short:"c"`
	WebDir       string `doc:"Serve the page from this web/ directory instead of the embedded copy"`
	Timeout      int    `doc:"Place lookup timeout in seconds" default:"10"`
	RateLimit    int    `doc:"Maximum place lookups per second, 0 for no limit" default:"10"`
	RouteMarkers bool   `doc:"Mark resolved directions endpoints on the map"`
}

func setupLogger(opts *Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if opts.LogFormat != "json" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

func loadConfig(opts *Options) (config.Config, error) {
	base := config.Default(opts.MapKey, opts.TilesBase)
	base.Places = places.Config{
		BaseURL:   opts.APIBase,
		APIKey:    opts.APIKey,
		Timeout:   time.Duration(opts.Timeout) * time.Second,
		RateLimit: float64(opts.RateLimit),
		Burst:     opts.RateLimit,
	}
	base.Search.VisualizeRouteEndpoints = opts.RouteMarkers

	cfg, err := config.Load(opts.Config, base)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newServer(opts *Options, logger zerolog.Logger) (*server.Server, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return server.New(server.Config{
		Host:    opts.Host,
		Port:    fmt.Sprintf("%d", opts.Port),
		Version: version,
		WebDir:  opts.WebDir,
		Map:     cfg,
		Places:  places.New(cfg.Places, places.WithLogger(logger)),
		Log:     logger,
	})
}

func serve(opts *Options) error {
	logger := setupLogger(opts)
	if opts.APIKey == "" {
		logger.Warn().Msg("no Goong API key set, place search will return nothing")
	}

	srv, err := newServer(opts, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with ctx so open command streams let go on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	displayHost := opts.Host
	if displayHost == "0.0.0.0" {
		displayHost = "localhost"
	}
	baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

	fmt.Println()
	fmt.Printf("plat-map server starting...\n")
	fmt.Printf("  Map:     %s/\n", baseURL)
	fmt.Printf("  Docs:    %s/docs\n", baseURL)
	fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
	fmt.Println()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info().Msg("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		srv.PruneSessions(gctx, time.Minute)
		return nil
	})
	return g.Wait()
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		hooks.OnStart(func() {
			if err := serve(opts); err != nil {
				log.Fatal().Err(err).Msg("Server error")
			}
		})
	})

	cli.Root().Use = "map"
	cli.Root().Short = "Interactive map server: place search, search radius, styles and directions"
	cli.Root().Version = version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(opts, zerolog.Nop())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
				os.Exit(1)
			}
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Root().AddCommand(circleCmd())
	cli.Root().AddCommand(stylesCmd())

	cli.Run()
}

// circleCmd prints the search radius polygon for a point as GeoJSON.
func circleCmd() *cobra.Command {
	var lon, lat, radius float64
	var points int

	cmd := &cobra.Command{
		Use:   "circle",
		Short: "Print the search radius polygon around a point as GeoJSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			center := orb.Point{lon, lat}
			if !geomath.Valid(center) {
				return fmt.Errorf("center %v out of range", center)
			}
			out, err := json.MarshalIndent(geomath.CircleFeatureCollection(center, radius, points), "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().Float64Var(&lon, "lon", config.DefaultView.Center.Lon(), "Center longitude")
	cmd.Flags().Float64Var(&lat, "lat", config.DefaultView.Center.Lat(), "Center latitude")
	cmd.Flags().Float64VarP(&radius, "radius", "r", config.DefaultView.RadiusMeters, "Radius in meters")
	cmd.Flags().IntVarP(&points, "points", "n", geomath.DefaultCirclePoints, "Number of vertices")
	return cmd
}

// stylesCmd lists the style catalog the server would offer.
func stylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List the map style catalog",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := loadConfig(opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			w := cmd.OutOrStdout()
			for _, o := range cfg.Styles {
				fmt.Fprintf(w, "%-10s %s\n", o.Name, o.URL)
			}
		}),
	}
}
