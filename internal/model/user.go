package model

import "time"

// User is a row of the users table. Users reference their city by name.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	City         *string   `json:"city,omitempty"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedDate  time.Time `json:"created_date"`
}

// CityName returns the user's city or "" when unset.
func (u *User) CityName() string {
	if u.City == nil {
		return ""
	}
	return *u.City
}

// UserStats counts a user's contributions, shown on the profile page.
type UserStats struct {
	ZonesAdded       int64 `json:"zones_added"`
	ReportsSubmitted int64 `json:"reports_submitted"`
	TasksCreated     int64 `json:"tasks_created"`
}

// UserActivity is the creator's audit view of one account.
type UserActivity struct {
	User           *User     `json:"user"`
	ZonesCreated   []*Zone   `json:"zones_created"`
	ZonesModerated []*Zone   `json:"zones_moderated"`
	TasksCreated   []*Task   `json:"tasks_created"`
	Reports        []*Report `json:"reports"`
}

// Identity is the request-scoped view of the caller, built from the access
// token. Anonymous callers have a zero Identity.
type Identity struct {
	UserID   uint64
	Username string
	Role     Role
	City     string
}

func (i Identity) Authenticated() bool { return i.UserID != 0 }
