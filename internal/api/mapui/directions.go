package mapui

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/view"
)

// OpenDirections swaps the search box for the directions panel.
func (h *Handler) OpenDirections(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	sess, _, err := h.resolve(input.Cookie, input.RawBody)
	if err != nil {
		return nil, err
	}
	mode := sess.View.OpenDirections()
	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(map[string]any{"directions": mode == view.DirectionsMode})
	}), nil
}

// CloseDirections returns to the search box.
func (h *Handler) CloseDirections(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	sess, _, err := h.resolve(input.Cookie, input.RawBody)
	if err != nil {
		return nil, err
	}
	mode := sess.View.CloseDirections()
	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(map[string]any{"directions": mode == view.DirectionsMode})
	}), nil
}
