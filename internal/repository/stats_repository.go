package repository

import (
	"context"
	"database/sql"
	"math"

	"github.com/iliyamo/green-city-platform/internal/model"
)

// StatsRepo computes the dashboard and analytics aggregates. Every query
// takes an optional city name; "" means all cities. Only approved zones
// count.
type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// cityScope returns a predicate on cities alias c and its args.
func cityScope(city string) (string, []any) {
	if city == "" {
		return "1 = 1", nil
	}
	return "c.name = ?", []any{city}
}

// Dashboard returns the headline numbers.
func (r *StatsRepo) Dashboard(ctx context.Context, city string) (model.DashboardStats, error) {
	st := model.DashboardStats{City: city}
	scope, args := cityScope(city)

	q := `SELECT
		(SELECT COUNT(*) FROM green_zones gz JOIN cities c ON c.id = gz.city_id
			WHERE gz.status = 'approved' AND ` + scope + `),
		(SELECT COUNT(*) FROM maintenance_tasks mt JOIN green_zones gz ON gz.id = mt.zone_id JOIN cities c ON c.id = gz.city_id
			WHERE gz.status = 'approved' AND mt.status = 'pending' AND ` + scope + `),
		(SELECT COUNT(*) FROM maintenance_tasks mt JOIN green_zones gz ON gz.id = mt.zone_id JOIN cities c ON c.id = gz.city_id
			WHERE gz.status = 'approved' AND mt.status = 'pending' AND mt.priority = 'high' AND ` + scope + `),
		(SELECT COALESCE(AVG(zr.health_score), 0) FROM zone_reports zr JOIN green_zones gz ON gz.id = zr.zone_id JOIN cities c ON c.id = gz.city_id
			WHERE gz.status = 'approved' AND ` + scope + `),
		(SELECT COUNT(*) FROM organizations o LEFT JOIN cities c ON c.id = o.city_id
			WHERE o.is_active = 1 AND ` + scope + `)`

	var all []any
	for range 5 {
		all = append(all, args...)
	}
	err := r.db.QueryRowContext(ctx, q, all...).
		Scan(&st.TotalZones, &st.PendingTasks, &st.CriticalTasks, &st.AvgHealth, &st.TotalOrganizations)
	st.AvgHealth = round1(st.AvgHealth)
	return st, err
}

// TaskBreakdown counts tasks per (type, status).
func (r *StatsRepo) TaskBreakdown(ctx context.Context, city string) ([]model.TaskBreakdown, error) {
	scope, args := cityScope(city)
	rows, err := r.db.QueryContext(ctx, `SELECT mt.task_type, mt.status, COUNT(*)
		FROM maintenance_tasks mt
		JOIN green_zones gz ON gz.id = mt.zone_id
		JOIN cities c ON c.id = gz.city_id
		WHERE gz.status = 'approved' AND `+scope+`
		GROUP BY mt.task_type, mt.status
		ORDER BY mt.task_type, mt.status`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TaskBreakdown
	for rows.Next() {
		var b model.TaskBreakdown
		if err := rows.Scan(&b.TaskType, &b.Status, &b.Count); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// HealthBuckets counts reports per health category. Buckets with no
// reports are returned with zero counts, best first.
func (r *StatsRepo) HealthBuckets(ctx context.Context, city string) ([]model.HealthBucket, error) {
	scope, args := cityScope(city)
	rows, err := r.db.QueryContext(ctx, `SELECT
		CASE WHEN zr.health_score >= 80 THEN 'excellent'
		     WHEN zr.health_score >= 60 THEN 'good'
		     WHEN zr.health_score >= 40 THEN 'fair'
		     ELSE 'poor' END AS category,
		COUNT(*)
		FROM zone_reports zr
		JOIN green_zones gz ON gz.id = zr.zone_id
		JOIN cities c ON c.id = gz.city_id
		WHERE gz.status = 'approved' AND `+scope+`
		GROUP BY category`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int64{}
	for rows.Next() {
		var cat string
		var n int64
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[cat] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	order := []string{model.HealthExcellent, model.HealthGood, model.HealthFair, model.HealthPoor}
	out := make([]model.HealthBucket, 0, len(order))
	for _, cat := range order {
		out = append(out, model.HealthBucket{Category: cat, Count: counts[cat]})
	}
	return out, nil
}

// ProblemZones returns up to limit zones with a low average score or open
// tasks, worst first. Zones without reports are not considered unhealthy.
func (r *StatsRepo) ProblemZones(ctx context.Context, city string, limit int) ([]model.ProblemZone, error) {
	scope, args := cityScope(city)
	args = append(args, limit)
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, city_name, avg_health, pending_tasks FROM (
		SELECT gz.id AS id, gz.name AS name, c.name AS city_name,
			(SELECT AVG(zr.health_score) FROM zone_reports zr WHERE zr.zone_id = gz.id) AS avg_health,
			(SELECT COUNT(*) FROM maintenance_tasks mt WHERE mt.zone_id = gz.id AND mt.status = 'pending') AS pending_tasks
		FROM green_zones gz
		JOIN cities c ON c.id = gz.city_id
		WHERE gz.status = 'approved' AND `+scope+`
	) z
	WHERE (avg_health IS NOT NULL AND avg_health < 60) OR pending_tasks > 0
	ORDER BY COALESCE(avg_health, 100) ASC, pending_tasks DESC
	LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ProblemZone
	for rows.Next() {
		var p model.ProblemZone
		var avg sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.Name, &p.CityName, &avg, &p.PendingTasks); err != nil {
			return nil, err
		}
		p.AvgHealth = round1(avg.Float64)
		out = append(out, p)
	}
	return out, rows.Err()
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
