package model

// DashboardStats is the headline block of the dashboard, scoped to one city
// or global.
type DashboardStats struct {
	City                      string  `json:"city,omitempty"`
	TotalZones                int64   `json:"total_zones"`
	PendingTasks              int64   `json:"pending_tasks"`
	CriticalTasks             int64   `json:"critical_tasks"`
	AvgHealth                 float64 `json:"avg_health"`
	TotalOrganizations        int64   `json:"total_organizations"`
	PendingZones              *int64  `json:"pending_zones,omitempty"`
	TasksAwaitingVerification *int64  `json:"tasks_awaiting_verification,omitempty"`
}

// TaskBreakdown is one (type, status) bucket of the analytics page.
type TaskBreakdown struct {
	TaskType string     `json:"task_type"`
	Status   TaskStatus `json:"status"`
	Count    int64      `json:"count"`
}

// HealthBucket counts reports per health category.
type HealthBucket struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// ProblemZone is an approved zone that is unhealthy or has open work.
type ProblemZone struct {
	ID           uint64  `json:"id"`
	Name         string  `json:"name"`
	CityName     string  `json:"city_name"`
	AvgHealth    float64 `json:"avg_health"`
	PendingTasks int64   `json:"pending_tasks"`
}

// CityOverview summarises the cities table for the admin panel.
type CityOverview struct {
	TotalCities     int64 `json:"total_cities"`
	Regions         int64 `json:"regions"`
	TotalPopulation int64 `json:"total_population"`
}
