package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/handler"
)

// RegisterAPI registers the JSON endpoints used by the map widgets. The
// geocoding routes call out to Nominatim, so they are rate limited and
// their responses cached.
func RegisterAPI(e *echo.Echo, a *handler.APIHandler, auth Auth, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/api", auth.optional())
	g.GET("/zones", a.ZoneSummaries)
	g.GET("/city_suggestions", a.CitySuggestions)

	geo := g.Group("", limit, cache)
	geo.GET("/city_coordinates/:city", a.CityCoordinates)
	geo.GET("/geocode", a.Geocode)
	geo.GET("/reverse_geocode", a.ReverseGeocode)
}
