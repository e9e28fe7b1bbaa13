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

// ZoneHandler serves the green zone workflow: submission, browsing,
// editing, deletion and moderation.
type ZoneHandler struct {
	Zones   *repository.ZoneRepo
	Cities  *repository.CityRepo
	Tasks   *repository.TaskRepo
	Reports *repository.ReportRepo
	Orgs    *repository.OrganizationRepo
	Events  service.Publisher
}

type zoneReq struct {
	Name        string   `json:"name"`
	ZoneType    string   `json:"zone_type"`
	Area        *float64 `json:"area"`
	Location    string   `json:"location"`
	Coordinates string   `json:"coordinates"`
}

func (r *zoneReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	r.ZoneType = strings.TrimSpace(r.ZoneType)
	switch {
	case r.Name == "" || r.ZoneType == "":
		return "name and zone_type are required"
	case strings.TrimSpace(r.Coordinates) == "":
		return "coordinates are required"
	case r.Area != nil && *r.Area < 0:
		return "area must not be negative"
	}
	return ""
}

// Create submits a zone in the caller's city. Moderators' zones are
// approved immediately; everybody else's wait in the moderation queue.
func (h *ZoneHandler) Create(c echo.Context) error {
	var req zoneReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return jsonError(c, http.StatusBadRequest, msg)
	}
	me := caller(c)
	if me.City == "" {
		return jsonError(c, http.StatusBadRequest, "set your city before adding zones")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	city, err := h.Cities.GetByName(ctx, me.City)
	if err != nil {
		if errors.Is(err, repository.ErrCityNotFound) {
			return jsonError(c, http.StatusBadRequest, "your city is not in the directory")
		}
		return serverError(c, "load city", err)
	}
	uid := me.UserID
	z := &model.Zone{
		CityID:      city.ID,
		CityName:    city.Name,
		Name:        req.Name,
		ZoneType:    req.ZoneType,
		Area:        req.Area,
		Location:    optString(req.Location),
		Coordinates: optString(req.Coordinates),
		CreatedBy:   &uid,
		CreatorName: me.Username,
		Status:      model.InitialZoneStatus(me.Role),
	}
	if err := h.Zones.Create(ctx, z); err != nil {
		return serverError(c, "create zone", err)
	}
	service.Emit(h.Events, queue.ActivityEvent{
		Type: queue.ZoneSubmitted, ActorID: uid, ActorRole: string(me.Role),
		ZoneID: z.ID, CityID: city.ID, To: string(z.Status),
	})

	created, err := h.Zones.GetByID(ctx, z.ID)
	if err != nil {
		return notFoundOr(c, "load zone", err)
	}
	return c.JSON(http.StatusCreated, created)
}

type zoneDetail struct {
	Zone          *model.Zone               `json:"zone"`
	City          *model.City               `json:"city"`
	Tasks         []*model.Task             `json:"tasks"`
	Reports       []*model.Report           `json:"reports"`
	Organizations []*model.ZoneOrganization `json:"organizations"`
	Available     []*model.Organization     `json:"available_organizations,omitempty"`
}

// Get returns a zone with its tasks, reports and organizations. Zones that
// are not approved are visible to moderators only.
func (h *ZoneHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	z, err := h.Zones.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(c, "load zone", err)
	}
	me := caller(c)
	if z.Status != model.ZoneApproved && !model.SeesUnapproved(me.Role) {
		return jsonError(c, http.StatusForbidden, "zone is awaiting moderation")
	}

	out := zoneDetail{Zone: z}
	if out.City, err = h.Cities.GetByID(ctx, z.CityID); err != nil {
		return notFoundOr(c, "load city", err)
	}
	if out.Tasks, err = h.Tasks.ListForZone(ctx, id); err != nil {
		return serverError(c, "load tasks", err)
	}
	if out.Reports, err = h.Reports.ListForZone(ctx, id); err != nil {
		return serverError(c, "load reports", err)
	}
	if out.Organizations, err = h.Orgs.LinksForZone(ctx, id); err != nil {
		return serverError(c, "load organizations", err)
	}
	if model.CanModerate(me.Role) {
		avail, err := h.Orgs.AvailableForZone(ctx, id, z.CityID)
		if err != nil {
			return serverError(c, "load organizations", err)
		}
		out.Available = orEmpty(avail)
	}
	out.Tasks = orEmpty(out.Tasks)
	out.Reports = orEmpty(out.Reports)
	out.Organizations = orEmpty(out.Organizations)
	return c.JSON(http.StatusOK, out)
}

// List pages through zones. Only moderators may look past approved ones.
func (h *ZoneHandler) List(c echo.Context) error {
	f := repository.ZoneFilter{Status: model.ZoneApproved}
	if s := c.QueryParam("status"); s != "" && model.SeesUnapproved(caller(c).Role) {
		if s == "all" {
			f.Status = ""
		} else {
			st, err := model.ParseZoneStatus(s)
			if err != nil {
				return jsonError(c, http.StatusBadRequest, "invalid status")
			}
			f.Status = st
		}
	}
	if v := c.QueryParam("city_id"); v != "" {
		id, ok := parseUint(v)
		if !ok {
			return jsonError(c, http.StatusBadRequest, "invalid city_id")
		}
		f.CityID = id
	}
	p := pagination(c)
	f.Limit, f.Offset = p.PageSize, p.offset()

	ctx, cancel := dbContext(c)
	defer cancel()
	zones, err := h.Zones.List(ctx, f)
	if err != nil {
		return serverError(c, "list zones", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"zones": orEmpty(zones), "page": p.Page, "page_size": p.PageSize})
}

// Update edits a zone's descriptive attributes.
func (h *ZoneHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var req zoneReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return jsonError(c, http.StatusBadRequest, msg)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	err := h.Zones.Update(ctx, id, repository.ZoneUpdate{
		Name:        req.Name,
		ZoneType:    req.ZoneType,
		Area:        req.Area,
		Location:    optString(req.Location),
		Coordinates: optString(req.Coordinates),
	})
	if err != nil {
		return notFoundOr(c, "update zone", err)
	}
	z, err := h.Zones.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(c, "load zone", err)
	}
	return c.JSON(http.StatusOK, z)
}

// Delete removes a zone together with its reports, links and tasks.
func (h *ZoneHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Zones.Delete(ctx, id); err != nil {
		return notFoundOr(c, "delete zone", err)
	}
	me := caller(c)
	service.Emit(h.Events, queue.ActivityEvent{Type: queue.ZoneDeleted, ActorID: me.UserID, ActorRole: string(me.Role), ZoneID: id})
	return c.NoContent(http.StatusNoContent)
}

// Pending is the moderation queue.
func (h *ZoneHandler) Pending(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	zones, err := h.Zones.ListPending(ctx)
	if err != nil {
		return serverError(c, "list pending zones", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"zones": orEmpty(zones)})
}

type rejectReq struct {
	Reason string `json:"reason"`
}

func (h *ZoneHandler) Approve(c echo.Context) error {
	return h.moderate(c, model.ZoneApproved, "")
}

func (h *ZoneHandler) Reject(c echo.Context) error {
	var req rejectReq
	_ = c.Bind(&req)
	return h.moderate(c, model.ZoneRejected, strings.TrimSpace(req.Reason))
}

func (h *ZoneHandler) moderate(c echo.Context, to model.ZoneStatus, reason string) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	z, err := h.Zones.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(c, "load zone", err)
	}
	me := caller(c)
	if err := model.Moderate(me.Role, z.Status, to); err != nil {
		return policyError(c, err)
	}
	if err := h.Zones.Moderate(ctx, id, to, me.UserID, reason); err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			return policyError(c, err)
		}
		return notFoundOr(c, "moderate zone", err)
	}

	ev := queue.ActivityEvent{
		Type: queue.ZoneApproved, ActorID: me.UserID, ActorRole: string(me.Role),
		ZoneID: id, CityID: z.CityID, From: string(z.Status), To: string(to),
	}
	if to == model.ZoneRejected {
		ev.Type, ev.Detail = queue.ZoneRejected, reason
	}
	service.Emit(h.Events, ev)

	z, err = h.Zones.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(c, "load zone", err)
	}
	return c.JSON(http.StatusOK, z)
}
