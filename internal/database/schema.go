package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/green-city-platform/internal/config"
)

// Table definitions share one text; column types differ per dialect.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id $PK,
		username $STR NOT NULL UNIQUE,
		email $STR NOT NULL UNIQUE,
		password_hash $STR NOT NULL,
		city $STR NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'user',
		is_active $BOOL NOT NULL DEFAULT 1,
		created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)$ENGINE`,
	`CREATE TABLE IF NOT EXISTS cities (
		id $PK,
		name $STR NOT NULL UNIQUE,
		region $STR NOT NULL,
		population BIGINT NOT NULL DEFAULT 0
	)$ENGINE`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id $PK,
		name $STR NOT NULL,
		org_type VARCHAR(64) NOT NULL,
		description TEXT NULL,
		contact_person $STR NULL,
		phone VARCHAR(64) NULL,
		email $STR NULL,
		website $STR NULL,
		city_id $REF NULL,
		is_active $BOOL NOT NULL DEFAULT 1,
		created_by $REF NULL,
		created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (city_id) REFERENCES cities(id)
	)$ENGINE`,
	`CREATE TABLE IF NOT EXISTS green_zones (
		id $PK,
		city_id $REF NOT NULL,
		name $STR NOT NULL,
		zone_type VARCHAR(64) NOT NULL,
		area DOUBLE NULL,
		location $STR NULL,
		coordinates VARCHAR(64) NULL,
		created_by $REF NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		approved_by $REF NULL,
		approved_date DATETIME NULL,
		rejection_reason TEXT NULL,
		created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (city_id) REFERENCES cities(id)
	)$ENGINE`,
	`CREATE TABLE IF NOT EXISTS zone_organizations (
		id $PK,
		zone_id $REF NOT NULL,
		organization_id $REF NOT NULL,
		responsibility_type VARCHAR(64) NOT NULL,
		start_date DATE NULL,
		end_date DATE NULL,
		notes TEXT NULL,
		created_by $REF NULL,
		created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (zone_id, organization_id),
		FOREIGN KEY (zone_id) REFERENCES green_zones(id),
		FOREIGN KEY (organization_id) REFERENCES organizations(id)
	)$ENGINE`,
	`CREATE TABLE IF NOT EXISTS maintenance_tasks (
		id $PK,
		zone_id $REF NOT NULL,
		city_id $REF NOT NULL,
		task_type VARCHAR(64) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		priority VARCHAR(16) NOT NULL DEFAULT 'medium',
		description TEXT NULL,
		created_by $REF NULL,
		assigned_to $REF NULL,
		assigned_organization $REF NULL,
		due_date DATE NULL,
		completed_date DATETIME NULL,
		completed_by $REF NULL,
		verification_requested_by $REF NULL,
		verification_requested_date DATETIME NULL,
		created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (zone_id) REFERENCES green_zones(id),
		FOREIGN KEY (assigned_organization) REFERENCES organizations(id)
	)$ENGINE`,
	`CREATE TABLE IF NOT EXISTS zone_reports (
		id $PK,
		zone_id $REF NOT NULL,
		city_id $REF NOT NULL,
		health_score INTEGER NOT NULL,
		needs_watering $BOOL NOT NULL DEFAULT 0,
		needs_pruning $BOOL NOT NULL DEFAULT 0,
		needs_cleaning $BOOL NOT NULL DEFAULT 0,
		needs_repair $BOOL NOT NULL DEFAULT 0,
		notes TEXT NULL,
		reporter_id $REF NULL,
		report_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (zone_id) REFERENCES green_zones(id)
	)$ENGINE`,
}

// sqlite only; InnoDB indexes foreign keys on its own.
var sqliteIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_zones_city_status ON green_zones (city_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_zone ON maintenance_tasks (zone_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON maintenance_tasks (status)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_zone ON zone_reports (zone_id)`,
}

var dialects = map[string]*strings.Replacer{
	config.DriverSQLite: strings.NewReplacer(
		"$PK", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"$REF", "INTEGER",
		"$STR", "TEXT",
		"$BOOL", "INTEGER",
		"$ENGINE", "",
	),
	config.DriverMySQL: strings.NewReplacer(
		"$PK", "BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY",
		"$REF", "BIGINT UNSIGNED",
		"$STR", "VARCHAR(255)",
		"$BOOL", "TINYINT(1)",
		"$ENGINE", " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	),
}

// Statements renders the schema for a driver.
func Statements(driver string) ([]string, error) {
	r, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("no schema for driver %q", driver)
	}
	out := make([]string, 0, len(tables)+len(sqliteIndexes))
	for _, t := range tables {
		out = append(out, r.Replace(t))
	}
	if driver == config.DriverSQLite {
		out = append(out, sqliteIndexes...)
	}
	return out, nil
}

// Migrate creates missing tables. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts, err := Statements(driver)
	if err != nil {
		return err
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
