package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/iliyamo/green-city-platform/internal/model"
)

// CityRepo reads and maintains the cities directory.
type CityRepo struct {
	db *sql.DB
}

func NewCityRepo(db *sql.DB) *CityRepo { return &CityRepo{db: db} }

// ListAll returns every city ordered by region, then name.
func (r *CityRepo) ListAll(ctx context.Context) ([]*model.City, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, region, population FROM cities ORDER BY region, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.City
	for rows.Next() {
		c := new(model.City)
		if err := rows.Scan(&c.ID, &c.Name, &c.Region, &c.Population); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GroupByRegion keeps ListAll's order inside each region.
func GroupByRegion(cities []*model.City) map[string][]*model.City {
	out := map[string][]*model.City{}
	for _, c := range cities {
		out[c.Region] = append(out[c.Region], c)
	}
	return out
}

// Search matches q case-insensitively against name or region. Matching
// happens in Go: sqlite's LOWER() only folds ASCII and city names are
// Cyrillic. The directory is small.
func (r *CityRepo) Search(ctx context.Context, q string) ([]*model.City, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return all, nil
	}
	var out []*model.City
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Region), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Suggest returns up to limit cities whose name contains q, names starting
// with q first.
func (r *CityRepo) Suggest(ctx context.Context, q string, limit int) ([]*model.City, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	var out []*model.City
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi := strings.HasPrefix(strings.ToLower(out[i].Name), q)
		pj := strings.HasPrefix(strings.ToLower(out[j].Name), q)
		if pi != pj {
			return pi
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *CityRepo) GetByID(ctx context.Context, id uint64) (*model.City, error) {
	var c model.City
	err := r.db.QueryRowContext(ctx, `SELECT id, name, region, population FROM cities WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Region, &c.Population)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CityRepo) GetByName(ctx context.Context, name string) (*model.City, error) {
	var c model.City
	err := r.db.QueryRowContext(ctx, `SELECT id, name, region, population FROM cities WHERE name = ?`, name).
		Scan(&c.ID, &c.Name, &c.Region, &c.Population)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a city. Names are unique.
func (r *CityRepo) Create(ctx context.Context, c *model.City) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO cities (name, region, population) VALUES (?, ?, ?)`,
		c.Name, c.Region, c.Population)
	if err != nil {
		if isDuplicate(err) {
			return ErrCityExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Delete removes a city nobody references. Users point at cities by name,
// zones and organizations by id.
func (r *CityRepo) Delete(ctx context.Context, id uint64) error {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	var refs int64
	const q = `SELECT
		(SELECT COUNT(*) FROM users WHERE city = ?) +
		(SELECT COUNT(*) FROM green_zones WHERE city_id = ?) +
		(SELECT COUNT(*) FROM organizations WHERE city_id = ?)`
	if err := r.db.QueryRowContext(ctx, q, c.Name, id, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM cities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCityNotFound
	}
	return nil
}

// Overview aggregates the directory for the admin panel.
func (r *CityRepo) Overview(ctx context.Context) (model.CityOverview, error) {
	var o model.CityOverview
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT region), COALESCE(SUM(population), 0) FROM cities`).
		Scan(&o.TotalCities, &o.Regions, &o.TotalPopulation)
	return o, err
}
