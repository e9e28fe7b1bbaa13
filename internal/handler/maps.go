package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/maps"
	"github.com/iliyamo/green-city-platform/internal/repository"
)

// fullscreenTile is the provider a fullscreen map starts with.
const fullscreenTile = "openstreetmap"

// MapHandler renders zone maps as HTML.
type MapHandler struct {
	Zones    *repository.ZoneRepo
	Renderer *maps.Renderer
}

// Embedded returns the map card for the caller's city.
func (h *MapHandler) Embedded(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	zones, err := h.Zones.Summaries(ctx, scopeCity(c))
	if err != nil {
		return serverError(c, "list zones", err)
	}
	html, err := h.Renderer.RenderEmbedded(deref(zones))
	if err != nil {
		return serverError(c, "render map", err)
	}
	return c.HTML(http.StatusOK, html)
}

// Fullscreen returns a standalone map page; ?tile= picks the provider.
func (h *MapHandler) Fullscreen(c echo.Context) error {
	tile := strings.TrimSpace(c.QueryParam("tile"))
	if tile == "" {
		tile = fullscreenTile
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	zones, err := h.Zones.Summaries(ctx, scopeCity(c))
	if err != nil {
		return serverError(c, "list zones", err)
	}
	html, err := h.Renderer.RenderFullscreen(deref(zones), tile)
	if err != nil {
		return serverError(c, "render map", err)
	}
	return c.HTML(http.StatusOK, html)
}

func deref[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, *v)
	}
	return out
}
