// Package mapui contains the Datastar SSE handlers driving the map page.
//
// Every page load gets its own session. Its id travels with the page's
// Datastar signals, so two tabs never share a session; the map_session
// cookie is only consulted when a request carries no signals. UI state
// changes come back as Datastar signal and element patches; drawing
// instructions travel over the session's command stream (Events).
package mapui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/places"
	"github.com/joeblew999/plat-map/internal/search"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/templates"
)

// SessionCookie names the cookie carrying the most recent map session id.
const SessionCookie = "map_session"

// SessionSignal names the Datastar signal carrying the page's session id.
const SessionSignal = "session"

// CommandEvent is the DOM event name map commands are dispatched under.
const CommandEvent = "map-command"

// Handler serves the map page and its Datastar endpoints.
type Handler struct {
	humastar.Handler
	sessions *service.SessionService
	title    string
	log      zerolog.Logger
}

// NewHandler creates a new map UI handler.
func NewHandler(sessions *service.SessionService, renderer *templates.Renderer, title string, log zerolog.Logger) *Handler {
	return &Handler{
		Handler:  humastar.Handler{Renderer: renderer},
		sessions: sessions,
		title:    title,
		log:      log,
	}
}

// RegisterRoutes registers the map UI SSE routes.
func (h *Handler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags("mapui")

	huma.Get(api, "/api/v1/map/events", h.Events, tags)
	huma.Post(api, "/api/v1/map/renderer/loaded", h.RendererLoaded, tags)
	huma.Post(api, "/api/v1/map/renderer/style-error", h.StyleError, tags)
	huma.Post(api, "/api/v1/map/search/{slot}", h.Search, tags)
	huma.Post(api, "/api/v1/map/search/{slot}/select", h.Select, tags)
	huma.Post(api, "/api/v1/map/styles/popover", h.TogglePopover, tags)
	huma.Post(api, "/api/v1/map/styles/select", h.SelectStyle, tags)
	huma.Post(api, "/api/v1/map/directions/open", h.OpenDirections, tags)
	huma.Post(api, "/api/v1/map/directions/close", h.CloseDirections, tags)
	huma.Post(api, "/api/v1/map/route", h.Route, tags)
}

// Input types

// SessionInput is a Datastar POST: the body holds the page's signals.
type SessionInput struct {
	Cookie  string `cookie:"map_session" doc:"Fallback map session id"`
	RawBody []byte
}

// EventsInput is a Datastar GET: the signals arrive in the query string.
type EventsInput struct {
	Cookie   string `cookie:"map_session" doc:"Fallback map session id"`
	Datastar string `query:"datastar" doc:"Datastar signals as JSON"`
}

type SlotInput struct {
	Cookie  string `cookie:"map_session" doc:"Fallback map session id"`
	Slot    string `path:"slot" enum:"main,start,end" doc:"Search input"`
	RawBody []byte
}

// session resolves the page's session from its signals, falling back to
// the cookie.
func (h *Handler) session(cookie string, signals humastar.Signals) (*service.Session, error) {
	id := signals.String(SessionSignal)
	if id == "" {
		id = cookie
	}
	if id == "" {
		return nil, huma.Error400BadRequest("missing map session, reload the page")
	}
	sess, ok := h.sessions.Get(id)
	if !ok {
		return nil, huma.Error404NotFound("map session not found, reload the page")
	}
	return sess, nil
}

// resolve parses the signals of a Datastar request and finds its session.
func (h *Handler) resolve(cookie string, raw []byte) (*service.Session, humastar.Signals, error) {
	signals, err := (&humastar.SignalsInput{RawBody: raw}).MustParse()
	if err != nil {
		return nil, nil, err
	}
	sess, err := h.session(cookie, signals)
	if err != nil {
		return nil, nil, err
	}
	return sess, signals, nil
}

// Events streams map commands for the session until the page goes away.
// Connecting creates the map in the page; disconnecting disposes it.
func (h *Handler) Events(ctx context.Context, input *EventsInput) (*huma.StreamResponse, error) {
	sess, _, err := h.resolve(input.Cookie, []byte(input.Datastar))
	if err != nil {
		return nil, err
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := humastar.NewSSE(humaCtx)
			ch := sess.Bus.Subscribe()
			defer func() { sess.Bus.Unsubscribe(ch) }()

			sess.Open()
			defer sess.Close()

			done := humaCtx.Context().Done()
			for {
				select {
				case <-done:
					return
				case cmd, ok := <-ch:
					if !ok {
						// Evicted after falling behind; the page's map is
						// out of date, so it is rebuilt from scratch.
						h.log.Warn().Str("session", sess.ID).Msg("command stream fell behind, redrawing map")
						ch = sess.Bus.Subscribe()
						sess.Resync()
						continue
					}
					if err := sse.Dispatch(CommandEvent, cmd); err != nil {
						h.log.Debug().Err(err).Str("session", sess.ID).Msg("command stream closed")
						return
					}
				}
			}
		},
	}, nil
}

// RendererLoaded is posted by the page whenever a map style finished
// loading; overlays are (re)declared in response.
func (h *Handler) RendererLoaded(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	sess, _, err := h.resolve(input.Cookie, input.RawBody)
	if err != nil {
		return nil, err
	}
	if err := sess.Surface.Loaded(); err != nil {
		return nil, huma.Error409Conflict(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {}), nil
}

// signalName is the Datastar signal bound to a slot's text input.
func signalName(slot search.Slot) string {
	return slot.String() + "text"
}

func (h *Handler) slot(sess *service.Session, name string) (search.Slot, error) {
	slot, err := search.ParseSlot(name)
	if err != nil {
		return 0, huma.Error422UnprocessableEntity(err.Error())
	}
	if !sess.View.Accepts(slot) {
		return 0, huma.Error409Conflict(slot.String() + " search is not available in " + sess.View.Mode().String() + " mode")
	}
	return slot, nil
}

// Search handles typing in one of the search inputs.
func (h *Handler) Search(ctx context.Context, input *SlotInput) (*huma.StreamResponse, error) {
	sess, signals, err := h.resolve(input.Cookie, input.RawBody)
	if err != nil {
		return nil, err
	}
	slot, err := h.slot(sess, input.Slot)
	if err != nil {
		return nil, err
	}

	state, applied := sess.Search.TextChanged(ctx, slot, signals.String(signalName(slot)))

	return h.Stream(func(sse humastar.SSE) {
		if !applied {
			// A newer keystroke owns the dropdown.
			return
		}
		sse.PatchElements(h.renderResults(slot, state.Suggestions))
	}), nil
}

// Select handles a click on a suggestion.
func (h *Handler) Select(ctx context.Context, input *SlotInput) (*huma.StreamResponse, error) {
	sess, signals, err := h.resolve(input.Cookie, input.RawBody)
	if err != nil {
		return nil, err
	}
	slot, err := h.slot(sess, input.Slot)
	if err != nil {
		return nil, err
	}

	state, err := sess.Search.Select(ctx, slot, signals.String("placeid"))
	if errors.Is(err, search.ErrUnknownSuggestion) {
		return nil, huma.Error409Conflict(err.Error())
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("select failed", err)
	}

	return h.Stream(func(sse humastar.SSE) {
		if state.Phase != search.Selected {
			// Superseded by newer input while resolving.
			return
		}
		sse.Signals(map[string]any{signalName(slot): state.Text, "placeid": ""})
		sse.PatchElements(h.renderResults(slot, nil))
	}), nil
}

// Route is the directions action. Route computation is not provided; the
// handler only reports which endpoints are still missing.
func (h *Handler) Route(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	sess, _, err := h.resolve(input.Cookie, input.RawBody)
	if err != nil {
		return nil, err
	}
	start, end := sess.Search.Endpoints()

	return h.Stream(func(sse humastar.SSE) {
		switch {
		case start == nil && end == nil:
			sse.Notice("Choose a starting point and a destination")
		case start == nil:
			sse.Notice("Choose a starting point")
		case end == nil:
			sse.Notice("Choose a destination")
		default:
			sse.Notice("Routing is not available")
		}
	}), nil
}

// WritePage creates a session and renders the map page carrying its id.
func (h *Handler) WritePage(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Create()

	signals, err := json.Marshal(h.pageSignals(sess))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	err = h.Renderer.Execute(w, "map.html", pageData{
		Title:   h.title,
		Signals: string(signals),
		Style:   sess.Styles.Current().Name,
		Styles:  styleItems(sess),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("render map page")
	}
}

type pageData struct {
	Title   string
	Signals string
	Style   string
	Styles  []styleItem
}

func (h *Handler) pageSignals(sess *service.Session) map[string]any {
	signals := map[string]any{
		SessionSignal:  sess.ID,
		"placeid":      "",
		"stylechoice":  "",
		"stylename":    sess.Styles.Current().Name,
		"stylepopover": sess.Styles.PopoverOpen(),
		"directions":   false,
		"notice":       "",
	}
	for _, slot := range search.Slots {
		signals[signalName(slot)] = sess.Search.State(slot).Text
	}
	return signals
}

type suggestionItem struct {
	Slot        string
	PlaceID     string
	Description string
}

func (h *Handler) renderResults(slot search.Slot, suggestions []places.Suggestion) string {
	items := make([]suggestionItem, 0, len(suggestions))
	for _, s := range suggestions {
		items = append(items, suggestionItem{Slot: slot.String(), PlaceID: s.PlaceID, Description: s.Description})
	}
	return h.Render("results", map[string]any{"Slot": slot.String(), "Items": items})
}
