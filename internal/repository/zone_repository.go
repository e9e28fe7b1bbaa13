package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/green-city-platform/internal/model"
)

const zoneSelect = `SELECT gz.id, gz.city_id, c.name, gz.name, gz.zone_type, gz.area, gz.location, gz.coordinates,
	gz.created_by, COALESCE(u.username, ''), gz.status, gz.approved_by, gz.approved_date, gz.rejection_reason, gz.created_date
	FROM green_zones gz
	JOIN cities c ON c.id = gz.city_id
	LEFT JOIN users u ON u.id = gz.created_by`

// ZoneRepo persists green zones and drives their moderation state.
type ZoneRepo struct {
	db *sql.DB
}

func NewZoneRepo(db *sql.DB) *ZoneRepo { return &ZoneRepo{db: db} }

// DB exposes the pool for callers composing their own transactions.
func (r *ZoneRepo) DB() *sql.DB { return r.db }

func scanZone(s scanner) (*model.Zone, error) {
	var z model.Zone
	err := s.Scan(&z.ID, &z.CityID, &z.CityName, &z.Name, &z.ZoneType, &z.Area, &z.Location, &z.Coordinates,
		&z.CreatedBy, &z.CreatorName, &z.Status, &z.ApprovedBy, &z.ApprovedDate, &z.RejectionReason, &z.CreatedDate)
	if err != nil {
		return nil, err
	}
	return &z, nil
}

// Create inserts a zone in its initial state. An approved zone records its
// submitter as approver.
func (r *ZoneRepo) Create(ctx context.Context, z *model.Zone) error {
	var approvedDate *time.Time
	if z.Status == model.ZoneApproved {
		now := time.Now().UTC()
		approvedDate = &now
		z.ApprovedBy = z.CreatedBy
	}
	const q = `INSERT INTO green_zones
		(city_id, name, zone_type, area, location, coordinates, created_by, status, approved_by, approved_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, z.CityID, z.Name, z.ZoneType, z.Area, z.Location, z.Coordinates,
		z.CreatedBy, z.Status, z.ApprovedBy, approvedDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	z.ID = uint64(id)
	z.ApprovedDate = approvedDate
	return nil
}

func (r *ZoneRepo) GetByID(ctx context.Context, id uint64) (*model.Zone, error) {
	z, err := scanZone(r.db.QueryRowContext(ctx, zoneSelect+` WHERE gz.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrZoneNotFound
	}
	return z, err
}

// ZoneFilter narrows List.
type ZoneFilter struct {
	Status model.ZoneStatus // empty means any
	CityID uint64
	Limit  int
	Offset int
}

// List returns zones newest first.
func (r *ZoneRepo) List(ctx context.Context, f ZoneFilter) ([]*model.Zone, error) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "gz.status = ?")
		args = append(args, f.Status)
	}
	if f.CityID != 0 {
		where = append(where, "gz.city_id = ?")
		args = append(args, f.CityID)
	}
	q := zoneSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY gz.created_date DESC, gz.id DESC"
	if f.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	return r.query(ctx, q, args...)
}

// ListPending is the moderation queue, oldest first.
func (r *ZoneRepo) ListPending(ctx context.Context) ([]*model.Zone, error) {
	return r.query(ctx, zoneSelect+` WHERE gz.status = 'pending' ORDER BY gz.created_date ASC, gz.id ASC`)
}

// Summaries returns approved zones with their average report score and
// pending task count. cityName "" means every city.
func (r *ZoneRepo) Summaries(ctx context.Context, cityName string) ([]*model.ZoneSummary, error) {
	q := `SELECT gz.id, gz.name, gz.zone_type, gz.area, gz.location, gz.coordinates, gz.city_id, c.name,
		COALESCE((SELECT AVG(zr.health_score) FROM zone_reports zr WHERE zr.zone_id = gz.id), 0),
		(SELECT COUNT(*) FROM maintenance_tasks mt WHERE mt.zone_id = gz.id AND mt.status = 'pending')
		FROM green_zones gz
		JOIN cities c ON c.id = gz.city_id
		WHERE gz.status = 'approved'`
	var args []any
	if cityName != "" {
		q += ` AND c.name = ?`
		args = append(args, cityName)
	}
	q += ` ORDER BY gz.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.ZoneSummary
	for rows.Next() {
		s := new(model.ZoneSummary)
		if err := rows.Scan(&s.ID, &s.Name, &s.ZoneType, &s.Area, &s.Location, &s.Coordinates,
			&s.CityID, &s.CityName, &s.AvgHealth, &s.PendingTasks); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ZoneUpdate carries the editable attributes.
type ZoneUpdate struct {
	Name        string
	ZoneType    string
	Area        *float64
	Location    *string
	Coordinates *string
}

func (r *ZoneRepo) Update(ctx context.Context, id uint64, u ZoneUpdate) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE green_zones SET name = ?, zone_type = ?, area = ?, location = ?, coordinates = ? WHERE id = ?`,
		u.Name, u.ZoneType, u.Area, u.Location, u.Coordinates, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrZoneNotFound
	}
	return nil
}

// Moderate moves a zone out of pending. The UPDATE is conditional on the
// current status so two moderators cannot both win; the loser gets
// model.ErrInvalidTransition.
func (r *ZoneRepo) Moderate(ctx context.Context, id uint64, to model.ZoneStatus, moderatorID uint64, reason string) error {
	if !model.ZoneTransitions.Allows(model.ZonePending, to) {
		return model.ErrInvalidTransition
	}
	var rejection *string
	if to == model.ZoneRejected {
		rejection = &reason
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE green_zones SET status = ?, approved_by = ?, approved_date = ?, rejection_reason = ?
		 WHERE id = ? AND status = ?`,
		to, moderatorID, time.Now().UTC(), rejection, id, model.ZonePending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return model.ErrInvalidTransition
	}
	return nil
}

// Delete removes a zone with its reports, organization links and tasks in
// one transaction.
func (r *ZoneRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists uint64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM green_zones WHERE id = ?`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrZoneNotFound
		}
		return err
	}
	for _, q := range []string{
		`DELETE FROM zone_reports WHERE zone_id = ?`,
		`DELETE FROM zone_organizations WHERE zone_id = ?`,
		`DELETE FROM maintenance_tasks WHERE zone_id = ?`,
		`DELETE FROM green_zones WHERE id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete zone %d: %w", id, err)
		}
	}
	return nil
}

// CountPending is the size of the moderation queue.
func (r *ZoneRepo) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM green_zones WHERE status = 'pending'`).Scan(&n)
	return n, err
}

// CreatedBy and ModeratedBy feed the creator's user activity view.
func (r *ZoneRepo) CreatedBy(ctx context.Context, userID uint64, limit int) ([]*model.Zone, error) {
	return r.byUser(ctx, `gz.created_by = ?`, userID, limit)
}

func (r *ZoneRepo) ModeratedBy(ctx context.Context, userID uint64, limit int) ([]*model.Zone, error) {
	return r.byUser(ctx, `gz.approved_by = ? AND gz.created_by <> gz.approved_by`, userID, limit)
}

func (r *ZoneRepo) byUser(ctx context.Context, cond string, userID uint64, limit int) ([]*model.Zone, error) {
	return r.query(ctx, zoneSelect+` WHERE `+cond+` ORDER BY gz.created_date DESC LIMIT ?`, userID, limit)
}

func (r *ZoneRepo) query(ctx context.Context, q string, args ...any) ([]*model.Zone, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}
