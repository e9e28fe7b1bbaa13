package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/green-city-platform/internal/model"
)

const reportSelect = `SELECT zr.id, zr.zone_id, zr.city_id, zr.health_score, zr.needs_watering, zr.needs_pruning,
	zr.needs_cleaning, zr.needs_repair, zr.notes, zr.reporter_id, COALESCE(u.username, ''), zr.report_date
	FROM zone_reports zr
	LEFT JOIN users u ON u.id = zr.reporter_id`

// ReportRepo appends and reads zone health reports.
type ReportRepo struct {
	db *sql.DB
}

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// Create appends a report and sets rep.ID.
func (r *ReportRepo) Create(ctx context.Context, rep *model.Report) error {
	const q = `INSERT INTO zone_reports
		(zone_id, city_id, health_score, needs_watering, needs_pruning, needs_cleaning, needs_repair, notes, reporter_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rep.ZoneID, rep.CityID, rep.HealthScore,
		rep.NeedsWatering, rep.NeedsPruning, rep.NeedsCleaning, rep.NeedsRepair, rep.Notes, rep.ReporterID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rep.ID = uint64(id)
	return nil
}

// ListForZone returns a zone's reports, newest first.
func (r *ReportRepo) ListForZone(ctx context.Context, zoneID uint64) ([]*model.Report, error) {
	return r.query(ctx, reportSelect+` WHERE zr.zone_id = ? ORDER BY zr.report_date DESC, zr.id DESC`, zoneID)
}

func (r *ReportRepo) ByReporter(ctx context.Context, userID uint64, limit int) ([]*model.Report, error) {
	return r.query(ctx, reportSelect+` WHERE zr.reporter_id = ? ORDER BY zr.report_date DESC LIMIT ?`, userID, limit)
}

func (r *ReportRepo) query(ctx context.Context, q string, args ...any) ([]*model.Report, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Report
	for rows.Next() {
		var rep model.Report
		if err := rows.Scan(&rep.ID, &rep.ZoneID, &rep.CityID, &rep.HealthScore, &rep.NeedsWatering,
			&rep.NeedsPruning, &rep.NeedsCleaning, &rep.NeedsRepair, &rep.Notes, &rep.ReporterID,
			&rep.ReporterName, &rep.ReportDate); err != nil {
			return nil, err
		}
		out = append(out, &rep)
	}
	return out, rows.Err()
}
