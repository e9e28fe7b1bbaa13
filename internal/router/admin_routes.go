package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/handler"
	"github.com/iliyamo/green-city-platform/internal/middleware"
	"github.com/iliyamo/green-city-platform/internal/model"
)

// AdminHandlers groups the handlers behind /v1/admin.
type AdminHandlers struct {
	Zones  *handler.ZoneHandler
	Tasks  *handler.TaskHandler
	Orgs   *handler.OrganizationHandler
	Cities *handler.CityHandler
	Users  *handler.UserHandler
}

// RegisterAdmin registers the moderation panel. Everything requires admin or
// creator; the admin list and user activity are creator only.
func RegisterAdmin(e *echo.Echo, h AdminHandlers, auth Auth) {
	g := e.Group("/v1/admin", auth.moderators()...)

	// ---- Moderation ----
	g.GET("/moderation/zones", h.Zones.Pending)
	g.POST("/moderation/zones/:id/approve", h.Zones.Approve)
	g.POST("/moderation/zones/:id/reject", h.Zones.Reject)
	g.GET("/tasks/verification", h.Tasks.Verification)

	// ---- Organizations ----
	g.GET("/organizations", h.Orgs.List)
	g.POST("/organizations", h.Orgs.Create)
	g.PUT("/organizations/:id", h.Orgs.Update)
	g.DELETE("/organizations/:id", h.Orgs.Delete)
	g.POST("/zones/:id/organizations", h.Orgs.Link)
	g.DELETE("/zones/:id/organizations/:org_id", h.Orgs.Unlink)

	// ---- Cities ----
	g.GET("/cities", h.Cities.AdminList)
	g.POST("/cities", h.Cities.Create)
	g.DELETE("/cities/:id", h.Cities.Delete)

	// ---- Users ----
	g.GET("/users", h.Users.List)
	g.POST("/users/:id/role", h.Users.ToggleRole)
	g.POST("/users/:id/status", h.Users.ToggleStatus)

	creator := middleware.RequireRole(model.RoleCreator)
	g.GET("/admins", h.Users.Admins, creator)
	g.GET("/users/:id/activity", h.Users.Activity, creator)
}
