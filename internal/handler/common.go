package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/logger"
	"github.com/iliyamo/green-city-platform/internal/middleware"
	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/repository"
)

const (
	dbTimeout  = 5 * time.Second
	dateLayout = "2006-01-02"
)

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// serverError logs err and answers with a generic 500.
func serverError(c echo.Context, op string, err error) error {
	logger.ErrorContext(c.Request().Context(), op+" failed", "error", err, "path", c.Path())
	return jsonError(c, http.StatusInternalServerError, op+" failed")
}

// notFoundOr maps the repository not-found sentinels to 404 and anything
// else to 500.
func notFoundOr(c echo.Context, op string, err error) error {
	for _, nf := range []error{
		repository.ErrZoneNotFound,
		repository.ErrTaskNotFound,
		repository.ErrCityNotFound,
		repository.ErrUserNotFound,
		repository.ErrOrganizationNotFound,
		repository.ErrLinkNotFound,
	} {
		if errors.Is(err, nf) {
			return jsonError(c, http.StatusNotFound, nf.Error())
		}
	}
	return serverError(c, op, err)
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	return parseUint(c.Param(name))
}

func caller(c echo.Context) model.Identity { return middleware.IdentityFrom(c) }

// optString trims s and returns nil for an empty result.
func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// optDate parses an optional YYYY-MM-DD value.
func optDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// scopeCity picks the city a dashboard-like view is about: the explicit
// ?city= parameter, else the caller's city, else "" for all cities.
func scopeCity(c echo.Context) string {
	if q := strings.TrimSpace(c.QueryParam("city")); q != "" {
		return q
	}
	return caller(c).City
}

// policyError maps model policy errors to HTTP statuses.
func policyError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, model.ErrSelfAction):
		return jsonError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotPermitted), errors.Is(err, model.ErrCreatorImmutable):
		return jsonError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrInvalidTransition):
		return jsonError(c, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrUnknownStatus):
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	return nil
}

type page struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// pagination reads page and page_size, clamping page_size to 1..100.
func pagination(c echo.Context) page {
	p := page{Page: 1, PageSize: 20}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("page_size")); err == nil {
		p.PageSize = min(max(v, 1), 100)
	}
	return p
}

func (p page) offset() int { return (p.Page - 1) * p.PageSize }

// orEmpty keeps JSON lists as [] instead of null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func parseUint(s string) (uint64, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return v, err == nil && v > 0
}
