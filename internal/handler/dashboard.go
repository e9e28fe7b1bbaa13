package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/repository"
)

const (
	recentTaskLimit  = 5
	problemZoneLimit = 5
)

// DashboardHandler serves the overview and analytics pages.
type DashboardHandler struct {
	Stats *repository.StatsRepo
	Zones *repository.ZoneRepo
	Tasks *repository.TaskRepo
}

type dashboardResp struct {
	Stats       model.DashboardStats `json:"stats"`
	RecentTasks []*model.Task        `json:"recent_tasks"`
}

// Dashboard reports headline numbers for the scoped city. Moderators also
// get the size of their queues.
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	city := scopeCity(c)
	ctx, cancel := dbContext(c)
	defer cancel()

	st, err := h.Stats.Dashboard(ctx, city)
	if err != nil {
		return serverError(c, "load dashboard", err)
	}
	recent, err := h.Tasks.Recent(ctx, city, recentTaskLimit)
	if err != nil {
		return serverError(c, "load recent tasks", err)
	}
	if model.CanModerate(caller(c).Role) {
		pending, err := h.Zones.CountPending(ctx)
		if err != nil {
			return serverError(c, "count pending zones", err)
		}
		awaiting, err := h.Tasks.CountAwaitingVerification(ctx)
		if err != nil {
			return serverError(c, "count verification queue", err)
		}
		st.PendingZones, st.TasksAwaitingVerification = &pending, &awaiting
	}
	return c.JSON(http.StatusOK, dashboardResp{Stats: st, RecentTasks: orEmpty(recent)})
}

type analyticsResp struct {
	City         string                `json:"city,omitempty"`
	Tasks        []model.TaskBreakdown `json:"tasks"`
	Health       []model.HealthBucket  `json:"health"`
	ProblemZones []model.ProblemZone   `json:"problem_zones"`
}

func (h *DashboardHandler) Analytics(c echo.Context) error {
	city := scopeCity(c)
	ctx, cancel := dbContext(c)
	defer cancel()

	var (
		out = analyticsResp{City: city}
		err error
	)
	if out.Tasks, err = h.Stats.TaskBreakdown(ctx, city); err != nil {
		return serverError(c, "load task breakdown", err)
	}
	if out.Health, err = h.Stats.HealthBuckets(ctx, city); err != nil {
		return serverError(c, "load health buckets", err)
	}
	if out.ProblemZones, err = h.Stats.ProblemZones(ctx, city, problemZoneLimit); err != nil {
		return serverError(c, "load problem zones", err)
	}
	out.Tasks = orEmpty(out.Tasks)
	out.ProblemZones = orEmpty(out.ProblemZones)
	return c.JSON(http.StatusOK, out)
}
