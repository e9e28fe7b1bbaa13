package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/geocode"
	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/repository"
)

const suggestionLimit = 10

// Geocoder resolves places. Implementations report failure as nil.
type Geocoder interface {
	CityCoordinates(ctx context.Context, city string) *geocode.Point
	GeocodeAddress(ctx context.Context, address, city string) *geocode.Point
	ReverseGeocode(ctx context.Context, lat, lon float64) *string
}

// APIHandler serves the JSON endpoints used by the map widgets. Responses
// carry a "success" flag.
type APIHandler struct {
	Zones  *repository.ZoneRepo
	Cities *repository.CityRepo
	Geo    Geocoder
}

func apiFail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}

// ZoneSummaries lists approved zones with health and open work, scoped to ?city=
// or the caller's city.
func (h *APIHandler) ZoneSummaries(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	zones, err := h.Zones.Summaries(ctx, scopeCity(c))
	if err != nil {
		return serverError(c, "list zones", err)
	}
	for _, z := range zones {
		z.AvgHealth = math.Round(z.AvgHealth*10) / 10
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "zones": orEmpty(zones)})
}

func (h *APIHandler) CityCoordinates(c echo.Context) error {
	city := strings.TrimSpace(c.Param("city"))
	if city == "" {
		return apiFail(c, http.StatusBadRequest, "city is required")
	}
	p := h.Geo.CityCoordinates(c.Request().Context(), city)
	if p == nil {
		return apiFail(c, http.StatusNotFound, "city not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "lat": p.Lat, "lon": p.Lon})
}

// CitySuggestions autocompletes city names from the local directory.
func (h *APIHandler) CitySuggestions(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if utf8.RuneCountInString(q) < 2 {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "cities": []*model.City{}})
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	cities, err := h.Cities.Suggest(ctx, q, suggestionLimit)
	if err != nil {
		return serverError(c, "suggest cities", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "cities": orEmpty(cities)})
}

func (h *APIHandler) Geocode(c echo.Context) error {
	address := strings.TrimSpace(c.QueryParam("address"))
	if address == "" {
		return apiFail(c, http.StatusBadRequest, "address is required")
	}
	p := h.Geo.GeocodeAddress(c.Request().Context(), address, c.QueryParam("city"))
	if p == nil {
		return apiFail(c, http.StatusNotFound, "address not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "lat": p.Lat, "lon": p.Lon})
}

func (h *APIHandler) ReverseGeocode(c echo.Context) error {
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(c.QueryParam("lat")), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(c.QueryParam("lon")), 64)
	if err1 != nil || err2 != nil {
		return apiFail(c, http.StatusBadRequest, "lat and lon are required numbers")
	}
	addr := h.Geo.ReverseGeocode(c.Request().Context(), lat, lon)
	if addr == nil {
		return apiFail(c, http.StatusNotFound, "address not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "address": *addr})
}
