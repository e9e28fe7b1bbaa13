package model

import "time"

// Report is an append-only health observation of a zone.
type Report struct {
	ID            uint64    `json:"id"`
	ZoneID        uint64    `json:"zone_id"`
	CityID        uint64    `json:"city_id"`
	HealthScore   int       `json:"health_score"`
	NeedsWatering bool      `json:"needs_watering"`
	NeedsPruning  bool      `json:"needs_pruning"`
	NeedsCleaning bool      `json:"needs_cleaning"`
	NeedsRepair   bool      `json:"needs_repair"`
	Notes         *string   `json:"notes,omitempty"`
	ReporterID    *uint64   `json:"reporter_id,omitempty"`
	ReporterName  string    `json:"reporter_name,omitempty"`
	ReportDate    time.Time `json:"report_date"`
}

// ValidHealthScore bounds a report score to 0..100.
func ValidHealthScore(score int) bool { return score >= 0 && score <= 100 }

// Health categories used in analytics.
const (
	HealthExcellent = "excellent"
	HealthGood      = "good"
	HealthFair      = "fair"
	HealthPoor      = "poor"
)

// HealthCategory buckets a health score.
func HealthCategory(score float64) string {
	switch {
	case score >= 80:
		return HealthExcellent
	case score >= 60:
		return HealthGood
	case score >= 40:
		return HealthFair
	}
	return HealthPoor
}
