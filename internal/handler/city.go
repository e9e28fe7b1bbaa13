package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/repository"
)

// CityHandler serves the city directory.
type CityHandler struct {
	Cities *repository.CityRepo
}

// Grouped lists cities by region for the registration picker.
func (h *CityHandler) Grouped(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	cities, err := h.Cities.ListAll(ctx)
	if err != nil {
		return serverError(c, "list cities", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"regions": repository.GroupByRegion(cities)})
}

type cityListResp struct {
	Cities []*model.City `json:"cities"`
	model.CityOverview
}

// AdminList searches the directory (?q= on name or region) and adds totals.
func (h *CityHandler) AdminList(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	cities, err := h.Cities.Search(ctx, c.QueryParam("q"))
	if err != nil {
		return serverError(c, "search cities", err)
	}
	ov, err := h.Cities.Overview(ctx)
	if err != nil {
		return serverError(c, "city overview", err)
	}
	return c.JSON(http.StatusOK, cityListResp{Cities: orEmpty(cities), CityOverview: ov})
}

type createCityReq struct {
	Name       string `json:"name"`
	Region     string `json:"region"`
	Population int64  `json:"population"`
}

func (h *CityHandler) Create(c echo.Context) error {
	var req createCityReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	city := &model.City{
		Name:       strings.TrimSpace(req.Name),
		Region:     strings.TrimSpace(req.Region),
		Population: req.Population,
	}
	if city.Name == "" || city.Region == "" {
		return jsonError(c, http.StatusBadRequest, "name and region are required")
	}
	if city.Population < 0 {
		return jsonError(c, http.StatusBadRequest, "population must not be negative")
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Cities.Create(ctx, city); err != nil {
		if errors.Is(err, repository.ErrCityExists) {
			return jsonError(c, http.StatusConflict, err.Error())
		}
		return serverError(c, "create city", err)
	}
	return c.JSON(http.StatusCreated, city)
}

// Delete removes a city that no user, zone or organization refers to.
func (h *CityHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Cities.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return jsonError(c, http.StatusConflict, "city is still in use")
		}
		return notFoundOr(c, "delete city", err)
	}
	return c.NoContent(http.StatusNoContent)
}
