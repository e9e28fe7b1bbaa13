package model

import "time"

// ZoneStatus is the moderation state of a green zone.
type ZoneStatus string

const (
	ZonePending  ZoneStatus = "pending"
	ZoneApproved ZoneStatus = "approved"
	ZoneRejected ZoneStatus = "rejected"
)

// ZoneTransitions: moderation is one-way, out of pending only.
var ZoneTransitions = Transitions[ZoneStatus]{
	ZonePending: {ZoneApproved, ZoneRejected},
}

func ParseZoneStatus(s string) (ZoneStatus, error) {
	switch z := ZoneStatus(s); z {
	case ZonePending, ZoneApproved, ZoneRejected:
		return z, nil
	}
	return "", ErrUnknownStatus
}

// InitialZoneStatus is the status of a freshly submitted zone: moderators'
// submissions are approved on creation.
func InitialZoneStatus(r Role) ZoneStatus {
	if CanModerate(r) {
		return ZoneApproved
	}
	return ZonePending
}

// Moderate checks that actor may move a zone from -> to.
func Moderate(actor Role, from, to ZoneStatus) error {
	if !CanModerate(actor) {
		return ErrNotPermitted
	}
	if !ZoneTransitions.Allows(from, to) {
		return ErrInvalidTransition
	}
	return nil
}

// Zone is a row of green_zones, optionally joined with city and user names.
type Zone struct {
	ID              uint64     `json:"id"`
	CityID          uint64     `json:"city_id"`
	CityName        string     `json:"city_name,omitempty"`
	Name            string     `json:"name"`
	ZoneType        string     `json:"zone_type"`
	Area            *float64   `json:"area,omitempty"`
	Location        *string    `json:"location,omitempty"`
	Coordinates     *string    `json:"coordinates,omitempty"`
	CreatedBy       *uint64    `json:"created_by,omitempty"`
	CreatorName     string     `json:"creator_name,omitempty"`
	Status          ZoneStatus `json:"status"`
	ApprovedBy      *uint64    `json:"approved_by,omitempty"`
	ApprovedDate    *time.Time `json:"approved_date,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedDate     time.Time  `json:"created_date"`
}

// ZoneSummary is the public listing row: an approved zone with its current
// health average and open work.
type ZoneSummary struct {
	ID           uint64   `json:"id"`
	Name         string   `json:"name"`
	ZoneType     string   `json:"zone_type"`
	Area         *float64 `json:"area,omitempty"`
	Location     *string  `json:"location,omitempty"`
	Coordinates  *string  `json:"coordinates,omitempty"`
	CityID       uint64   `json:"city_id"`
	CityName     string   `json:"city_name"`
	AvgHealth    float64  `json:"avg_health"`
	PendingTasks int64    `json:"pending_tasks"`
}
