package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/green-city-platform/internal/model"
)

const taskSelect = `SELECT mt.id, mt.zone_id, gz.name, mt.city_id, c.name, mt.task_type, mt.status, mt.priority,
	mt.description, mt.created_by, COALESCE(u.username, ''), mt.assigned_organization, COALESCE(o.name, ''),
	mt.due_date, mt.completed_date, mt.completed_by, mt.verification_requested_by, COALESCE(vr.username, ''),
	mt.verification_requested_date, mt.created_date
	FROM maintenance_tasks mt
	JOIN green_zones gz ON gz.id = mt.zone_id
	JOIN cities c ON c.id = mt.city_id
	LEFT JOIN users u ON u.id = mt.created_by
	LEFT JOIN organizations o ON o.id = mt.assigned_organization
	LEFT JOIN users vr ON vr.id = mt.verification_requested_by`

// priorityOrder sorts high before medium before low.
const priorityOrder = `CASE mt.priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC`

// TaskRepo persists maintenance tasks and their status changes.
type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{db: db} }

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	err := s.Scan(&t.ID, &t.ZoneID, &t.ZoneName, &t.CityID, &t.CityName, &t.TaskType, &t.Status, &t.Priority,
		&t.Description, &t.CreatedBy, &t.CreatorName, &t.AssignedOrganization, &t.OrganizationName,
		&t.DueDate, &t.CompletedDate, &t.CompletedBy, &t.VerificationRequestedBy, &t.VerificationRequesterName,
		&t.VerificationRequestedDate, &t.CreatedDate)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a pending task. ZoneID, CityID and TaskType must be set.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	t.Status = model.TaskPending
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	const q = `INSERT INTO maintenance_tasks
		(zone_id, city_id, task_type, status, priority, description, created_by, assigned_organization, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.ZoneID, t.CityID, t.TaskType, t.Status, t.Priority,
		t.Description, t.CreatedBy, t.AssignedOrganization, t.DueDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uint64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, taskSelect+` WHERE mt.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	return t, err
}

// ListForZone returns a zone's tasks, most urgent and newest first.
func (r *TaskRepo) ListForZone(ctx context.Context, zoneID uint64) ([]*model.Task, error) {
	return r.query(ctx, taskSelect+` WHERE mt.zone_id = ? ORDER BY `+priorityOrder+`, mt.created_date DESC, mt.id DESC`, zoneID)
}

// Recent returns the latest tasks of approved zones, optionally in one city.
func (r *TaskRepo) Recent(ctx context.Context, cityName string, limit int) ([]*model.Task, error) {
	q := taskSelect + ` WHERE gz.status = 'approved'`
	var args []any
	if cityName != "" {
		q += ` AND c.name = ?`
		args = append(args, cityName)
	}
	q += ` ORDER BY mt.created_date DESC, mt.id DESC LIMIT ?`
	args = append(args, limit)
	return r.query(ctx, q, args...)
}

// AwaitingVerification lists tasks whose completion needs confirming.
func (r *TaskRepo) AwaitingVerification(ctx context.Context) ([]*model.Task, error) {
	return r.query(ctx, taskSelect+` WHERE mt.status = ? ORDER BY mt.verification_requested_date DESC, mt.id DESC`,
		model.TaskVerificationRequested)
}

func (r *TaskRepo) CountAwaitingVerification(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM maintenance_tasks WHERE status = ?`,
		model.TaskVerificationRequested).Scan(&n)
	return n, err
}

func (r *TaskRepo) CreatedBy(ctx context.Context, userID uint64, limit int) ([]*model.Task, error) {
	return r.query(ctx, taskSelect+` WHERE mt.created_by = ? ORDER BY mt.created_date DESC LIMIT ?`, userID, limit)
}

// SetStatus moves a task from -> to and stamps who did it. The update is
// conditional on from; a concurrent change yields ErrConflict.
func (r *TaskRepo) SetStatus(ctx context.Context, id uint64, from, to model.TaskStatus, actorID uint64) error {
	now := time.Now().UTC()
	var (
		q    string
		args []any
	)
	switch to {
	case model.TaskVerificationRequested:
		q = `UPDATE maintenance_tasks SET status = ?, verification_requested_by = ?, verification_requested_date = ?
			WHERE id = ? AND status = ?`
		args = []any{to, actorID, now, id, from}
	case model.TaskCompleted:
		q = `UPDATE maintenance_tasks SET status = ?, completed_by = ?, completed_date = ?
			WHERE id = ? AND status = ?`
		args = []any{to, actorID, now, id, from}
	default:
		q = `UPDATE maintenance_tasks SET status = ? WHERE id = ? AND status = ?`
		args = []any{to, id, from}
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM maintenance_tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepo) query(ctx context.Context, q string, args ...any) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
