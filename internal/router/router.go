package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/handler"
	"github.com/iliyamo/green-city-platform/internal/middleware"
	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/session"
)

// Auth carries what the JWT middlewares need to verify access tokens.
type Auth struct {
	Secret   string
	Sessions session.Store
}

func (a Auth) required() echo.MiddlewareFunc { return middleware.JWTAuth(a.Secret, a.Sessions) }
func (a Auth) optional() echo.MiddlewareFunc { return middleware.OptionalAuth(a.Secret, a.Sessions) }

// moderators guards routes for admins and the creator.
func (a Auth) moderators() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{a.required(), middleware.RequireAtLeast(model.RoleAdmin)}
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the session endpoints. limit throttles the
// unauthenticated ones against credential stuffing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth Auth, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/refresh", a.Refresh, limit)
	// logout needs the access token so its jti can be revoked
	g.POST("/logout", a.Logout, auth.required())
}

// RegisterUsers registers profile endpoints for signed-in users.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, auth Auth) {
	g := e.Group("/v1", auth.required())
	g.GET("/me", u.Me)
	g.PUT("/me/city", u.ChangeCity)
	g.GET("/users/:id", u.Get)
}

// RegisterPublic registers browse endpoints that work for guests and scope
// themselves to the caller's city when a token is presented.
func RegisterPublic(e *echo.Echo, c *handler.CityHandler, o *handler.OrganizationHandler, d *handler.DashboardHandler, m *handler.MapHandler, auth Auth) {
	e.GET("/v1/cities", c.Grouped)
	e.GET("/v1/cities/:id/organizations", o.ForCity)

	g := e.Group("/v1", auth.optional())
	g.GET("/dashboard", d.Dashboard)
	g.GET("/analytics", d.Analytics)
	g.GET("/map", m.Embedded)
	g.GET("/map/fullscreen", m.Fullscreen)
}
