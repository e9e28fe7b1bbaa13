package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/green-city-platform/internal/model"
)

const userColumns = `id, username, email, password_hash, city, role, is_active, created_date`

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.City, &u.Role, &u.IsActive, &u.CreatedDate); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user with an already hashed password and sets u.ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, city, role, is_active) VALUES (?, ?, ?, ?, ?, 1)`,
		u.Username, u.Email, u.PasswordHash, u.City, u.Role)
	if err != nil {
		if isDuplicate(err) {
			return ErrUserExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.IsActive = true
	return nil
}

// Taken reports whether username or email is already registered.
func (r *UserRepo) Taken(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`, username, email).Scan(&n)
	return n > 0, err
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? LIMIT 1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// ListAll returns every account, strongest role first.
func (r *UserRepo) ListAll(ctx context.Context) ([]*model.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users
		ORDER BY CASE role WHEN 'creator' THEN 3 WHEN 'admin' THEN 2 ELSE 1 END DESC, created_date DESC`)
}

// ListAdmins returns admins and creators.
func (r *UserRepo) ListAdmins(ctx context.Context) ([]*model.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role IN ('admin', 'creator')
		ORDER BY CASE role WHEN 'creator' THEN 3 ELSE 2 END DESC, created_date DESC`)
}

func (r *UserRepo) list(ctx context.Context, q string, args ...any) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetRole changes a non-creator account's role. The creator guard is
// repeated in SQL so a concurrent promotion cannot slip through.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role model.Role) error {
	if role == model.RoleCreator {
		return ErrForbidden
	}
	return r.guardedUpdate(ctx, `UPDATE users SET role = ? WHERE id = ? AND role <> 'creator'`, role, id)
}

// SetActive toggles the active flag of a non-creator account.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	return r.guardedUpdate(ctx, `UPDATE users SET is_active = ? WHERE id = ? AND role <> 'creator'`, active, id)
}

func (r *UserRepo) guardedUpdate(ctx context.Context, q string, value any, id uint64) error {
	res, err := r.db.ExecContext(ctx, q, value, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrForbidden
	}
	return nil
}

// SetCity moves a user to another city (by name).
func (r *UserRepo) SetCity(ctx context.Context, id uint64, city string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET city = ? WHERE id = ?`, city, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Stats counts a user's contributions.
func (r *UserRepo) Stats(ctx context.Context, id uint64) (model.UserStats, error) {
	var s model.UserStats
	err := r.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM green_zones WHERE created_by = ?),
		(SELECT COUNT(*) FROM zone_reports WHERE reporter_id = ?),
		(SELECT COUNT(*) FROM maintenance_tasks WHERE created_by = ?)`, id, id, id).
		Scan(&s.ZonesAdded, &s.ReportsSubmitted, &s.TasksCreated)
	return s, err
}
