package mapui

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/styles"
)

type styleItem struct {
	Name    string
	Current bool
}

func styleItems(sess *service.Session) []styleItem {
	current := sess.Styles.Current().Name
	catalog := sess.Styles.Catalog()
	items := make([]styleItem, 0, len(catalog))
	for _, o := range catalog {
		items = append(items, styleItem{Name: o.Name, Current: o.Name == current})
	}
	return items
}

// TogglePopover opens or closes the style list.
func (h *Handler) TogglePopover(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	sess, _, err := h.resolve(input.Cookie, input.RawBody)
	if err != nil {
		return nil, err
	}
	open := sess.Styles.TogglePopover()
	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(map[string]any{"stylepopover": open})
	}), nil
}

// SelectStyle switches the base map style.
func (h *Handler) SelectStyle(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	sess, signals, err := h.resolve(input.Cookie, input.RawBody)
	if err != nil {
		return nil, err
	}

	opt, err := sess.Styles.Select(signals.String("stylechoice"))
	switch {
	case errors.Is(err, styles.ErrUnknownStyle):
		return nil, huma.Error422UnprocessableEntity(err.Error())
	case err != nil:
		return nil, huma.Error409Conflict(err.Error())
	}

	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(map[string]any{
			"stylename":    opt.Name,
			"stylechoice":  "",
			"stylepopover": false,
		})
		sse.PatchElements(h.Render("style-options", styleItems(sess)))
	}), nil
}

// StyleError is posted by the page when a style failed to load. The
// previous style is restored and the user gets a notice.
func (h *Handler) StyleError(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	sess, _, err := h.resolve(input.Cookie, input.RawBody)
	if err != nil {
		return nil, err
	}
	failed, restored, ok := sess.Styles.StyleFailed()

	return h.Stream(func(sse humastar.SSE) {
		if !ok {
			sse.Notice(fmt.Sprintf("Map style %s could not be loaded", failed.Name))
			return
		}
		sse.Signals(map[string]any{
			"stylename": restored.Name,
			"notice":    fmt.Sprintf("Map style %s could not be loaded, switched back to %s", failed.Name, restored.Name),
		})
		sse.PatchElements(h.Render("style-options", styleItems(sess)))
	}), nil
}
