package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/green-city-platform/internal/logger"
	"github.com/iliyamo/green-city-platform/internal/utils"
)

//go:embed seed.yaml
var seedYAML []byte

// SeedData is the demo data set. Rows reference each other by name.
type SeedData struct {
	Cities []struct {
		Name       string `yaml:"name"`
		Region     string `yaml:"region"`
		Population int64  `yaml:"population"`
	} `yaml:"cities"`
	Users []struct {
		Username string `yaml:"username"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		City     string `yaml:"city"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
	Organizations []struct {
		Name          string `yaml:"name"`
		OrgType       string `yaml:"org_type"`
		Description   string `yaml:"description"`
		ContactPerson string `yaml:"contact_person"`
		Phone         string `yaml:"phone"`
		Email         string `yaml:"email"`
		Website       string `yaml:"website"`
		City          string `yaml:"city"`
		CreatedBy     string `yaml:"created_by"`
	} `yaml:"organizations"`
	Zones []struct {
		City        string  `yaml:"city"`
		Name        string  `yaml:"name"`
		ZoneType    string  `yaml:"zone_type"`
		Area        float64 `yaml:"area"`
		Location    string  `yaml:"location"`
		Coordinates string  `yaml:"coordinates"`
	} `yaml:"zones"`
	Links []struct {
		Zone               string `yaml:"zone"`
		Organization       string `yaml:"organization"`
		ResponsibilityType string `yaml:"responsibility_type"`
		StartDate          string `yaml:"start_date"`
		EndDate            string `yaml:"end_date"`
		Notes              string `yaml:"notes"`
	} `yaml:"links"`
	Tasks []struct {
		Zone         string `yaml:"zone"`
		TaskType     string `yaml:"task_type"`
		Status       string `yaml:"status"`
		Priority     string `yaml:"priority"`
		Description  string `yaml:"description"`
		CreatedBy    string `yaml:"created_by"`
		Organization string `yaml:"organization"`
	} `yaml:"tasks"`
}

// LoadSeedData parses the embedded demo data.
func LoadSeedData() (*SeedData, error) {
	var d SeedData
	if err := yaml.Unmarshal(seedYAML, &d); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &d, nil
}

// Seed loads the demo data when the cities table is empty. The first
// account in the data set must be the creator; zones are attributed to it.
func Seed(ctx context.Context, db *sql.DB, bcryptCost int) (err error) {
	var n int64
	if err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cities`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	data, err := LoadSeedData()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
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

	insert := func(q string, args ...any) (uint64, error) {
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return 0, err
		}
		id, err := res.LastInsertId()
		return uint64(id), err
	}

	cities := map[string]uint64{}
	for _, c := range data.Cities {
		if cities[c.Name], err = insert(`INSERT INTO cities (name, region, population) VALUES (?, ?, ?)`,
			c.Name, c.Region, c.Population); err != nil {
			return fmt.Errorf("seed city %s: %w", c.Name, err)
		}
	}

	users := map[string]uint64{}
	var creatorID uint64
	for _, u := range data.Users {
		hash, herr := utils.HashPassword(u.Password, bcryptCost)
		if herr != nil {
			return herr
		}
		if users[u.Username], err = insert(`INSERT INTO users (username, email, password_hash, city, role) VALUES (?, ?, ?, ?, ?)`,
			u.Username, u.Email, hash, u.City, u.Role); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		if u.Role == "creator" && creatorID == 0 {
			creatorID = users[u.Username]
		}
	}

	orgs := map[string]uint64{}
	for _, o := range data.Organizations {
		if orgs[o.Name], err = insert(`INSERT INTO organizations
			(name, org_type, description, contact_person, phone, email, website, city_id, created_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.Name, o.OrgType, o.Description, o.ContactPerson, o.Phone, o.Email, o.Website,
			cities[o.City], users[o.CreatedBy]); err != nil {
			return fmt.Errorf("seed organization %s: %w", o.Name, err)
		}
	}

	zones := map[string]uint64{}
	zoneCity := map[string]uint64{}
	for _, z := range data.Zones {
		cityID, ok := cities[z.City]
		if !ok {
			continue
		}
		if zones[z.Name], err = insert(`INSERT INTO green_zones
			(city_id, name, zone_type, area, location, coordinates, created_by, status, approved_by, approved_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, 'approved', ?, CURRENT_TIMESTAMP)`,
			cityID, z.Name, z.ZoneType, z.Area, z.Location, z.Coordinates, creatorID, creatorID); err != nil {
			return fmt.Errorf("seed zone %s: %w", z.Name, err)
		}
		zoneCity[z.Name] = cityID
	}

	for _, l := range data.Links {
		if _, err = insert(`INSERT INTO zone_organizations
			(zone_id, organization_id, responsibility_type, start_date, end_date, notes, created_by)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			zones[l.Zone], orgs[l.Organization], l.ResponsibilityType, l.StartDate, l.EndDate, l.Notes, creatorID); err != nil {
			return fmt.Errorf("seed link %s/%s: %w", l.Zone, l.Organization, err)
		}
	}

	for _, t := range data.Tasks {
		if _, err = insert(`INSERT INTO maintenance_tasks
			(zone_id, city_id, task_type, status, priority, description, created_by, assigned_organization)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			zones[t.Zone], zoneCity[t.Zone], t.TaskType, t.Status, t.Priority, t.Description,
			users[t.CreatedBy], orgs[t.Organization]); err != nil {
			return fmt.Errorf("seed task %s: %w", t.TaskType, err)
		}
	}

	logger.Info("seeded demo data",
		"cities", len(cities), "users", len(users), "organizations", len(orgs), "zones", len(zones))
	return nil
}
