// Package repository defines error types that are reused across multiple
// repositories. Handlers compare with errors.Is and translate them into
// HTTP status codes.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrZoneNotFound         = errors.New("zone not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrCityNotFound         = errors.New("city not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrLinkNotFound         = errors.New("organization is not linked to zone")

	// ErrAlreadyLinked is returned when a zone/organization pair exists.
	ErrAlreadyLinked = errors.New("organization already linked to zone")
	ErrUserExists    = errors.New("username or email already registered")
	ErrCityExists    = errors.New("city already exists")

	// ErrForbidden is returned when a guarded row refuses the change, e.g.
	// an update aimed at a creator account.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a delete or update cannot be performed
	// because of dependent or concurrent state.
	ErrConflict = errors.New("conflict")
)

// isDuplicate reports a unique-key violation on either supported driver.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
