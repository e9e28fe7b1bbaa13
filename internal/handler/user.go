package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/config"
	"github.com/iliyamo/green-city-platform/internal/logger"
	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/repository"
	"github.com/iliyamo/green-city-platform/internal/session"
)

const activityLimit = 50

// UserHandler serves profiles and the account administration panel.
type UserHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Cities   *repository.CityRepo
	Zones    *repository.ZoneRepo
	Tasks    *repository.TaskRepo
	Reports  *repository.ReportRepo
	Sessions session.Store
}

type profileResp struct {
	User  *model.User     `json:"user"`
	Stats model.UserStats `json:"stats"`
}

// Me returns the caller's profile with contribution counters.
func (h *UserHandler) Me(c echo.Context) error {
	return h.profile(c, caller(c).UserID)
}

// Get returns a profile. Users see only themselves; admins see anyone.
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	me := caller(c)
	if id != me.UserID && !model.CanModerate(me.Role) {
		return jsonError(c, http.StatusForbidden, "forbidden")
	}
	return h.profile(c, id)
}

func (h *UserHandler) profile(c echo.Context, id uint64) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(c, "load user", err)
	}
	st, err := h.Users.Stats(ctx, id)
	if err != nil {
		return serverError(c, "load stats", err)
	}
	return c.JSON(http.StatusOK, profileResp{User: u, Stats: st})
}

type cityReq struct {
	City string `json:"city"`
}

// ChangeCity moves the caller to another city and returns an access token
// carrying the new city.
func (h *UserHandler) ChangeCity(c echo.Context) error {
	var req cityReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	city := strings.TrimSpace(req.City)
	if city == "" {
		return jsonError(c, http.StatusBadRequest, "city is required")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if _, err := h.Cities.GetByName(ctx, city); err != nil {
		if errors.Is(err, repository.ErrCityNotFound) {
			return jsonError(c, http.StatusBadRequest, "unknown city")
		}
		return serverError(c, "load city", err)
	}
	me := caller(c)
	if err := h.Users.SetCity(ctx, me.UserID, city); err != nil {
		return notFoundOr(c, "change city", err)
	}
	u, err := h.Users.GetByID(ctx, me.UserID)
	if err != nil {
		return notFoundOr(c, "load user", err)
	}
	access, err := accessToken(h.Cfg, u)
	if err != nil {
		return serverError(c, "issue access", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":   u,
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// List is the admin users panel.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return serverError(c, "list users", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": orEmpty(users)})
}

// Admins lists admins and creators; creator only.
func (h *UserHandler) Admins(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	users, err := h.Users.ListAdmins(ctx)
	if err != nil {
		return serverError(c, "list admins", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"admins": orEmpty(users)})
}

// ToggleRole flips a user between user and admin.
func (h *UserHandler) ToggleRole(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(c, "load user", err)
	}
	me := caller(c)
	next, err := model.RoleChange(me.Role, me.UserID, target.Role, target.ID)
	if err != nil {
		return policyError(c, err)
	}
	if err := h.Users.SetRole(ctx, id, next); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return jsonError(c, http.StatusForbidden, model.ErrCreatorImmutable.Error())
		}
		return notFoundOr(c, "change role", err)
	}
	h.revokeSessions(c, id)
	logger.InfoContext(ctx, "role changed", "actor_id", me.UserID, "user_id", id, "from", target.Role, "to", next)
	return c.JSON(http.StatusOK, echo.Map{"user_id": id, "role": next})
}

// ToggleStatus activates or deactivates an account.
func (h *UserHandler) ToggleStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(c, "load user", err)
	}
	me := caller(c)
	if err := model.CanToggleActive(me.Role, me.UserID, target.Role, target.ID); err != nil {
		return policyError(c, err)
	}
	active := !target.IsActive
	if err := h.Users.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return jsonError(c, http.StatusForbidden, model.ErrCreatorImmutable.Error())
		}
		return notFoundOr(c, "change status", err)
	}
	if !active {
		h.revokeSessions(c, id)
	}
	logger.InfoContext(ctx, "account status changed", "actor_id", me.UserID, "user_id", id, "active", active)
	return c.JSON(http.StatusOK, echo.Map{"user_id": id, "is_active": active})
}

// revokeSessions logs a user out everywhere so a changed role or a
// deactivation takes effect before the current access token expires.
func (h *UserHandler) revokeSessions(c echo.Context, id uint64) {
	ttl := time.Duration(h.Cfg.AccessTTLMin) * time.Minute
	if err := h.Sessions.RevokeAllForUser(c.Request().Context(), id, ttl); err != nil {
		logger.WarnContext(c.Request().Context(), "revoke sessions failed", "user_id", id, "error", err)
	}
}

// Activity is the creator's audit of one account.
func (h *UserHandler) Activity(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(c, "load user", err)
	}
	act := model.UserActivity{User: u}
	if act.ZonesCreated, err = h.Zones.CreatedBy(ctx, id, activityLimit); err != nil {
		return serverError(c, "load activity", err)
	}
	if act.ZonesModerated, err = h.Zones.ModeratedBy(ctx, id, activityLimit); err != nil {
		return serverError(c, "load activity", err)
	}
	if act.TasksCreated, err = h.Tasks.CreatedBy(ctx, id, activityLimit); err != nil {
		return serverError(c, "load activity", err)
	}
	if act.Reports, err = h.Reports.ByReporter(ctx, id, activityLimit); err != nil {
		return serverError(c, "load activity", err)
	}
	act.ZonesCreated = orEmpty(act.ZonesCreated)
	act.ZonesModerated = orEmpty(act.ZonesModerated)
	act.TasksCreated = orEmpty(act.TasksCreated)
	act.Reports = orEmpty(act.Reports)
	return c.JSON(http.StatusOK, act)
}
