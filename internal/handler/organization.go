package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/repository"
)

const defaultResponsibility = "maintenance"

// OrganizationHandler manages organizations and their zone assignments.
type OrganizationHandler struct {
	Orgs   *repository.OrganizationRepo
	Cities *repository.CityRepo
	Zones  *repository.ZoneRepo
}

type orgReq struct {
	Name          string  `json:"name"`
	OrgType       string  `json:"org_type"`
	Description   *string `json:"description"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Website       *string `json:"website"`
	CityID        *uint64 `json:"city_id"`
	IsActive      *bool   `json:"is_active"`
}

// List is the admin listing of every organization.
func (h *OrganizationHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	orgs, err := h.Orgs.ListAll(ctx)
	if err != nil {
		return serverError(c, "list organizations", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"organizations": orEmpty(orgs)})
}

// ForCity lists active organizations serving a city.
func (h *OrganizationHandler) ForCity(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if _, err := h.Cities.GetByID(ctx, id); err != nil {
		return notFoundOr(c, "load city", err)
	}
	orgs, err := h.Orgs.ListActiveForCity(ctx, id)
	if err != nil {
		return serverError(c, "list organizations", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"organizations": orEmpty(orgs)})
}

func (h *OrganizationHandler) Create(c echo.Context) error {
	var req orgReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Name, req.OrgType = strings.TrimSpace(req.Name), strings.TrimSpace(req.OrgType)
	if req.Name == "" || req.OrgType == "" || req.CityID == nil {
		return jsonError(c, http.StatusBadRequest, "name, org_type and city_id are required")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	city, err := h.Cities.GetByID(ctx, *req.CityID)
	if err != nil {
		if errors.Is(err, repository.ErrCityNotFound) {
			return jsonError(c, http.StatusBadRequest, "unknown city")
		}
		return serverError(c, "load city", err)
	}
	uid := caller(c).UserID
	o := &model.Organization{
		Name:          req.Name,
		OrgType:       req.OrgType,
		Description:   trimmed(req.Description),
		ContactPerson: trimmed(req.ContactPerson),
		Phone:         trimmed(req.Phone),
		Email:         trimmed(req.Email),
		Website:       trimmed(req.Website),
		CityID:        req.CityID,
		CityName:      &city.Name,
		CreatedBy:     &uid,
	}
	if err := h.Orgs.Create(ctx, o); err != nil {
		return serverError(c, "create organization", err)
	}
	return c.JSON(http.StatusCreated, o)
}

// Update applies the fields present in the body.
func (h *OrganizationHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var req orgReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	o, err := h.Orgs.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(c, "load organization", err)
	}
	if s := strings.TrimSpace(req.Name); s != "" {
		o.Name = s
	}
	if s := strings.TrimSpace(req.OrgType); s != "" {
		o.OrgType = s
	}
	for _, f := range []struct {
		dst **string
		src *string
	}{
		{&o.Description, req.Description},
		{&o.ContactPerson, req.ContactPerson},
		{&o.Phone, req.Phone},
		{&o.Email, req.Email},
		{&o.Website, req.Website},
	} {
		if f.src != nil {
			*f.dst = trimmed(f.src)
		}
	}
	if req.CityID != nil {
		city, err := h.Cities.GetByID(ctx, *req.CityID)
		if err != nil {
			if errors.Is(err, repository.ErrCityNotFound) {
				return jsonError(c, http.StatusBadRequest, "unknown city")
			}
			return serverError(c, "load city", err)
		}
		o.CityID, o.CityName = req.CityID, &city.Name
	}
	if req.IsActive != nil {
		o.IsActive = *req.IsActive
	}
	if err := h.Orgs.Update(ctx, o); err != nil {
		return notFoundOr(c, "update organization", err)
	}
	return c.JSON(http.StatusOK, o)
}

// Delete removes an organization, its zone links and task assignments.
func (h *OrganizationHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Orgs.Delete(ctx, id); err != nil {
		return notFoundOr(c, "delete organization", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type linkReq struct {
	OrganizationID     uint64 `json:"organization_id"`
	ResponsibilityType string `json:"responsibility_type"`
	StartDate          string `json:"start_date"`
	EndDate            string `json:"end_date"`
	Notes              string `json:"notes"`
}

// Link assigns an organization to a zone. A pair can exist only once.
func (h *OrganizationHandler) Link(c echo.Context) error {
	zoneID, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var req linkReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	if req.OrganizationID == 0 {
		return jsonError(c, http.StatusBadRequest, "organization_id is required")
	}
	start, err := optDate(req.StartDate)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
	}
	end, err := optDate(req.EndDate)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
	}
	if start != nil && end != nil && end.Before(*start) {
		return jsonError(c, http.StatusBadRequest, "end_date is before start_date")
	}
	resp := strings.TrimSpace(req.ResponsibilityType)
	if resp == "" {
		resp = defaultResponsibility
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if _, err := h.Zones.GetByID(ctx, zoneID); err != nil {
		return notFoundOr(c, "load zone", err)
	}
	if _, err := h.Orgs.GetByID(ctx, req.OrganizationID); err != nil {
		return notFoundOr(c, "load organization", err)
	}
	uid := caller(c).UserID
	l := &model.ZoneOrganization{
		ZoneID:             zoneID,
		OrganizationID:     req.OrganizationID,
		ResponsibilityType: resp,
		StartDate:          start,
		EndDate:            end,
		Notes:              optString(req.Notes),
		CreatedBy:          &uid,
	}
	if err := h.Orgs.LinkZone(ctx, l); err != nil {
		if errors.Is(err, repository.ErrAlreadyLinked) {
			return jsonError(c, http.StatusConflict, err.Error())
		}
		return serverError(c, "link organization", err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *OrganizationHandler) Unlink(c echo.Context) error {
	zoneID, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	orgID, ok := pathID(c, "org_id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid org_id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Orgs.UnlinkZone(ctx, zoneID, orgID); err != nil {
		return notFoundOr(c, "unlink organization", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return optString(*s)
}
