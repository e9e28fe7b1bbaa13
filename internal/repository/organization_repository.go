package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/green-city-platform/internal/model"
)

const orgSelect = `SELECT o.id, o.name, o.org_type, o.description, o.contact_person, o.phone, o.email, o.website,
	o.city_id, c.name, o.is_active, o.created_by, o.created_date
	FROM organizations o
	LEFT JOIN cities c ON c.id = o.city_id`

// OrganizationRepo maintains organizations and their links to zones.
type OrganizationRepo struct {
	db *sql.DB
}

func NewOrganizationRepo(db *sql.DB) *OrganizationRepo { return &OrganizationRepo{db: db} }

func scanOrganization(s scanner) (*model.Organization, error) {
	var o model.Organization
	err := s.Scan(&o.ID, &o.Name, &o.OrgType, &o.Description, &o.ContactPerson, &o.Phone, &o.Email, &o.Website,
		&o.CityID, &o.CityName, &o.IsActive, &o.CreatedBy, &o.CreatedDate)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrganizationRepo) Create(ctx context.Context, o *model.Organization) error {
	const q = `INSERT INTO organizations
		(name, org_type, description, contact_person, phone, email, website, city_id, is_active, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`
	res, err := r.db.ExecContext(ctx, q, o.Name, o.OrgType, o.Description, o.ContactPerson, o.Phone,
		o.Email, o.Website, o.CityID, o.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.IsActive = true
	return nil
}

func (r *OrganizationRepo) GetByID(ctx context.Context, id uint64) (*model.Organization, error) {
	o, err := scanOrganization(r.db.QueryRowContext(ctx, orgSelect+` WHERE o.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrganizationNotFound
	}
	return o, err
}

// ListAll is the admin listing, newest first.
func (r *OrganizationRepo) ListAll(ctx context.Context) ([]*model.Organization, error) {
	return r.query(ctx, orgSelect+` ORDER BY o.created_date DESC, o.id DESC`)
}

// ListActiveForCity returns active organizations of a city plus those
// without a city affiliation.
func (r *OrganizationRepo) ListActiveForCity(ctx context.Context, cityID uint64) ([]*model.Organization, error) {
	return r.query(ctx, orgSelect+` WHERE o.is_active = 1 AND (o.city_id = ? OR o.city_id IS NULL) ORDER BY o.name`, cityID)
}

// AvailableForZone lists active organizations that may still be linked to
// the zone.
func (r *OrganizationRepo) AvailableForZone(ctx context.Context, zoneID, cityID uint64) ([]*model.Organization, error) {
	return r.query(ctx, orgSelect+` WHERE o.is_active = 1 AND (o.city_id = ? OR o.city_id IS NULL)
		AND o.id NOT IN (SELECT zo.organization_id FROM zone_organizations zo WHERE zo.zone_id = ?)
		ORDER BY o.name`, cityID, zoneID)
}

// Update overwrites the editable fields.
func (r *OrganizationRepo) Update(ctx context.Context, o *model.Organization) error {
	res, err := r.db.ExecContext(ctx, `UPDATE organizations SET name = ?, org_type = ?, description = ?,
		contact_person = ?, phone = ?, email = ?, website = ?, city_id = ?, is_active = ? WHERE id = ?`,
		o.Name, o.OrgType, o.Description, o.ContactPerson, o.Phone, o.Email, o.Website, o.CityID, o.IsActive, o.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}

// Delete removes an organization, its zone links and its task assignments
// in one transaction.
func (r *OrganizationRepo) Delete(ctx context.Context, id uint64) (err error) {
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

	if _, err = tx.ExecContext(ctx, `DELETE FROM zone_organizations WHERE organization_id = ?`, id); err != nil {
		return fmt.Errorf("delete organization links: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE maintenance_tasks SET assigned_organization = NULL WHERE assigned_organization = ?`, id); err != nil {
		return fmt.Errorf("clear task assignments: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrOrganizationNotFound
	}
	return err
}

// LinkZone attaches an organization to a zone. An existing pair yields
// ErrAlreadyLinked and nothing is written.
func (r *OrganizationRepo) LinkZone(ctx context.Context, l *model.ZoneOrganization) error {
	var n int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM zone_organizations WHERE zone_id = ? AND organization_id = ?`,
		l.ZoneID, l.OrganizationID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrAlreadyLinked
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO zone_organizations
		(zone_id, organization_id, responsibility_type, start_date, end_date, notes, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ZoneID, l.OrganizationID, l.ResponsibilityType, l.StartDate, l.EndDate, l.Notes, l.CreatedBy)
	if err != nil {
		// lost a race with an identical request
		if isDuplicate(err) {
			return ErrAlreadyLinked
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

func (r *OrganizationRepo) UnlinkZone(ctx context.Context, zoneID, orgID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM zone_organizations WHERE zone_id = ? AND organization_id = ?`, zoneID, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// LinksForZone returns the organizations attached to a zone.
func (r *OrganizationRepo) LinksForZone(ctx context.Context, zoneID uint64) ([]*model.ZoneOrganization, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT zo.id, zo.zone_id, zo.organization_id, o.name, o.org_type, o.phone, o.email,
		zo.responsibility_type, zo.start_date, zo.end_date, zo.notes, zo.created_by
		FROM zone_organizations zo
		JOIN organizations o ON o.id = zo.organization_id
		WHERE zo.zone_id = ?
		ORDER BY zo.responsibility_type, o.name`, zoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.ZoneOrganization
	for rows.Next() {
		var l model.ZoneOrganization
		if err := rows.Scan(&l.ID, &l.ZoneID, &l.OrganizationID, &l.OrganizationName, &l.OrgType, &l.Phone, &l.Email,
			&l.ResponsibilityType, &l.StartDate, &l.EndDate, &l.Notes, &l.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *OrganizationRepo) query(ctx context.Context, q string, args ...any) ([]*model.Organization, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
