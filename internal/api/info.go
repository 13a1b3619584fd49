package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	version  string
	sessions func() int
}

// NewInfoHandler creates the info handler. sessions reports the number of
// live map sessions and may be nil.
func NewInfoHandler(version string, sessions func() int) *InfoHandler {
	return &InfoHandler{version: version, sessions: sessions}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	Sessions int      `json:"sessions" doc:"Live map sessions"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	n := 0
	if h.sessions != nil {
		n = h.sessions()
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "plat-map",
		Version:  h.version,
		Sessions: n,
		Features: []string{"autocomplete", "place-detail", "search-radius", "styles", "directions"},
	}}, nil
}
