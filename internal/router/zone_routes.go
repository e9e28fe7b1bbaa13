package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/handler"
)

// RegisterZones registers the zone, task and report endpoints. Reading is
// open to guests; contributing needs an account; editing and deleting need a
// moderator.
func RegisterZones(e *echo.Echo, z *handler.ZoneHandler, t *handler.TaskHandler, r *handler.ReportHandler, auth Auth) {
	public := e.Group("/v1", auth.optional())
	public.GET("/zones", z.List)
	public.GET("/zones/:id", z.Get)

	g := e.Group("/v1", auth.required())
	g.POST("/zones", z.Create)
	g.POST("/zones/:id/tasks", t.Create)
	g.PATCH("/tasks/:id/status", t.SetStatus)
	g.POST("/zones/:id/reports", r.Create)

	mod := e.Group("/v1", auth.moderators()...)
	mod.PUT("/zones/:id", z.Update)
	mod.DELETE("/zones/:id", z.Delete)
	mod.DELETE("/tasks/:id", t.Delete)
}
