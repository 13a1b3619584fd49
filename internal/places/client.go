// Package places is a client for the Goong Places REST API.
//
// Both lookups absorb failures: callers always get a (possibly empty) list or
// a found/not-found answer, never an error. Failures are logged.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Goong REST API root.
const DefaultBaseURL = "https://rsapi.goong.io"

// MinQueryLength is the shortest input that is sent to the autocomplete API.
const MinQueryLength = 2

const (
	autocompletePath = "/Place/AutoComplete"
	detailPath       = "/Place/Detail"
	defaultTimeout   = 10 * time.Second
)

// Suggestion is one autocomplete prediction.
type Suggestion struct {
	PlaceID     string `json:"placeId" doc:"Place identifier" example:"abc123"`
	Description string `json:"description" doc:"Human readable place description" example:"Hồ Hoàn Kiếm, Hà Nội"`
}

// Detail is a resolved place.
type Detail struct {
	PlaceID  string    `json:"placeId" doc:"Place identifier"`
	Location orb.Point `json:"location" doc:"Longitude, latitude"`
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// RateLimit caps outgoing requests per second; 0 disables throttling.
	RateLimit float64
	Burst     int
}

// Client issues autocomplete and detail requests. It holds no per-request
// state and is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a new places client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        zerolog.Nop(),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type autocompleteResponse struct {
	Predictions []struct {
		PlaceID     string `json:"place_id"`
		Description string `json:"description"`
	} `json:"predictions"`
}

type detailResponse struct {
	Result *struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
}

// Autocomplete returns predictions for query. Queries shorter than
// MinQueryLength return an empty list without a request.
func (c *Client) Autocomplete(ctx context.Context, query string) []Suggestion {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []Suggestion{}
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("input", query)

	var resp autocompleteResponse
	if err := c.get(ctx, autocompletePath, q, &resp); err != nil {
		c.log.Warn().Err(err).Str("input", query).Msg("autocomplete failed")
		return []Suggestion{}
	}

	results := make([]Suggestion, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		if p.PlaceID == "" {
			continue
		}
		results = append(results, Suggestion{PlaceID: p.PlaceID, Description: p.Description})
	}

	c.log.Debug().Str("input", query).Int("results", len(results)).Msg("autocomplete completed")
	return results
}

// Detail resolves a place ID to its location. The bool is false when the
// place could not be resolved for any reason.
func (c *Client) Detail(ctx context.Context, placeID string) (Detail, bool) {
	if placeID == "" {
		return Detail{}, false
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("place_id", placeID)

	var resp detailResponse
	if err := c.get(ctx, detailPath, q, &resp); err != nil {
		c.log.Warn().Err(err).Str("placeId", placeID).Msg("place detail failed")
		return Detail{}, false
	}
	if resp.Result == nil {
		c.log.Warn().Str("placeId", placeID).Msg("place detail has no result")
		return Detail{}, false
	}

	loc := resp.Result.Geometry.Location
	return Detail{
		PlaceID:  placeID,
		Location: orb.Point{loc.Lng, loc.Lat},
	}, true
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("goong request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("goong returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
