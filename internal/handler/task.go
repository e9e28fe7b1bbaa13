package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/queue"
	"github.com/iliyamo/green-city-platform/internal/repository"
	"github.com/iliyamo/green-city-platform/internal/service"
)

// TaskHandler serves the maintenance task lifecycle.
type TaskHandler struct {
	Tasks  *repository.TaskRepo
	Zones  *repository.ZoneRepo
	Orgs   *repository.OrganizationRepo
	Events service.Publisher
}

type taskReq struct {
	TaskType             string  `json:"task_type"`
	Priority             string  `json:"priority"`
	Description          string  `json:"description"`
	DueDate              string  `json:"due_date"`
	AssignedOrganization *uint64 `json:"assigned_organization"`
}

// Create opens a pending task on an approved zone.
func (h *TaskHandler) Create(c echo.Context) error {
	zoneID, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var req taskReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.TaskType = strings.TrimSpace(req.TaskType)
	if req.TaskType == "" {
		return jsonError(c, http.StatusBadRequest, "task_type is required")
	}
	prio, err := model.ParsePriority(strings.TrimSpace(req.Priority))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "priority must be low, medium or high")
	}
	due, err := optDate(req.DueDate)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	z, err := h.Zones.GetByID(ctx, zoneID)
	if err != nil {
		return notFoundOr(c, "load zone", err)
	}
	if z.Status != model.ZoneApproved {
		return jsonError(c, http.StatusBadRequest, "zone is not approved")
	}
	if req.AssignedOrganization != nil {
		if _, err := h.Orgs.GetByID(ctx, *req.AssignedOrganization); err != nil {
			if errors.Is(err, repository.ErrOrganizationNotFound) {
				return jsonError(c, http.StatusBadRequest, "unknown organization")
			}
			return serverError(c, "load organization", err)
		}
	}

	me := caller(c)
	uid := me.UserID
	t := &model.Task{
		ZoneID:               z.ID,
		CityID:               z.CityID,
		TaskType:             req.TaskType,
		Priority:             prio,
		Description:          optString(req.Description),
		CreatedBy:            &uid,
		AssignedOrganization: req.AssignedOrganization,
		DueDate:              due,
	}
	if err := h.Tasks.Create(ctx, t); err != nil {
		return serverError(c, "create task", err)
	}
	service.Emit(h.Events, queue.ActivityEvent{
		Type: queue.TaskCreated, ActorID: uid, ActorRole: string(me.Role),
		ZoneID: z.ID, TaskID: t.ID, CityID: z.CityID, Detail: t.TaskType,
	})

	created, err := h.Tasks.GetByID(ctx, t.ID)
	if err != nil {
		return notFoundOr(c, "load task", err)
	}
	return c.JSON(http.StatusCreated, created)
}

type statusReq struct {
	Status string `json:"status"`
}

// SetStatus moves a task. Users may only ask for verification; every other
// target status needs a moderator.
func (h *TaskHandler) SetStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	to, err := model.ParseTaskStatus(strings.TrimSpace(req.Status))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid status")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	t, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(c, "load task", err)
	}
	me := caller(c)
	if err := model.CanSetTaskStatus(me.Role, t.Status, to); err != nil {
		return policyError(c, err)
	}
	if err := h.Tasks.SetStatus(ctx, id, t.Status, to, me.UserID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return jsonError(c, http.StatusConflict, "task was changed concurrently")
		}
		return notFoundOr(c, "update task", err)
	}
	service.Emit(h.Events, queue.ActivityEvent{
		Type: queue.TaskStatusChanged, ActorID: me.UserID, ActorRole: string(me.Role),
		ZoneID: t.ZoneID, TaskID: id, CityID: t.CityID, From: string(t.Status), To: string(to),
	})

	updated, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(c, "load task", err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *TaskHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Tasks.Delete(ctx, id); err != nil {
		return notFoundOr(c, "delete task", err)
	}
	me := caller(c)
	service.Emit(h.Events, queue.ActivityEvent{Type: queue.TaskDeleted, ActorID: me.UserID, ActorRole: string(me.Role), TaskID: id})
	return c.NoContent(http.StatusNoContent)
}

// Verification lists tasks waiting for a moderator to confirm completion.
func (h *TaskHandler) Verification(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	tasks, err := h.Tasks.AwaitingVerification(ctx)
	if err != nil {
		return serverError(c, "list tasks", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": orEmpty(tasks)})
}
