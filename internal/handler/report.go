package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/queue"
	"github.com/iliyamo/green-city-platform/internal/repository"
	"github.com/iliyamo/green-city-platform/internal/service"
)

// ReportHandler accepts health reports for approved zones.
type ReportHandler struct {
	Zones   *repository.ZoneRepo
	Reports *repository.ReportRepo
	Events  service.Publisher
}

type reportReq struct {
	HealthScore   *int   `json:"health_score"`
	NeedsWatering bool   `json:"needs_watering"`
	NeedsPruning  bool   `json:"needs_pruning"`
	NeedsCleaning bool   `json:"needs_cleaning"`
	NeedsRepair   bool   `json:"needs_repair"`
	Notes         string `json:"notes"`
}

func (h *ReportHandler) Create(c echo.Context) error {
	zoneID, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	var req reportReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	if req.HealthScore == nil || !model.ValidHealthScore(*req.HealthScore) {
		return jsonError(c, http.StatusBadRequest, "health_score must be between 0 and 100")
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
	me := caller(c)
	uid := me.UserID
	rep := &model.Report{
		ZoneID:        z.ID,
		CityID:        z.CityID,
		HealthScore:   *req.HealthScore,
		NeedsWatering: req.NeedsWatering,
		NeedsPruning:  req.NeedsPruning,
		NeedsCleaning: req.NeedsCleaning,
		NeedsRepair:   req.NeedsRepair,
		Notes:         optString(req.Notes),
		ReporterID:    &uid,
		ReporterName:  me.Username,
		ReportDate:    time.Now().UTC(),
	}
	if err := h.Reports.Create(ctx, rep); err != nil {
		return serverError(c, "create report", err)
	}
	service.Emit(h.Events, queue.ActivityEvent{
		Type: queue.ReportSubmitted, ActorID: uid, ActorRole: string(me.Role),
		ZoneID: z.ID, ReportID: rep.ID, CityID: z.CityID, Detail: model.HealthCategory(float64(rep.HealthScore)),
	})
	return c.JSON(http.StatusCreated, rep)
}
