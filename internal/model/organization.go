package model

import "time"

// Organization is a contractor, volunteer group or sponsor that can be
// linked to zones and assigned tasks.
type Organization struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	OrgType       string    `json:"org_type"`
	Description   *string   `json:"description,omitempty"`
	ContactPerson *string   `json:"contact_person,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Website       *string   `json:"website,omitempty"`
	CityID        *uint64   `json:"city_id,omitempty"`
	CityName      *string   `json:"city_name,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedBy     *uint64   `json:"created_by,omitempty"`
	CreatedDate   time.Time `json:"created_date"`
}

// ZoneOrganization is a zone <-> organization link with its attributes.
type ZoneOrganization struct {
	ID                 uint64     `json:"id"`
	ZoneID             uint64     `json:"zone_id"`
	OrganizationID     uint64     `json:"organization_id"`
	OrganizationName   string     `json:"organization_name,omitempty"`
	OrgType            string     `json:"org_type,omitempty"`
	Phone              *string    `json:"phone,omitempty"`
	Email              *string    `json:"email,omitempty"`
	ResponsibilityType string     `json:"responsibility_type"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	CreatedBy          *uint64    `json:"created_by,omitempty"`
}
