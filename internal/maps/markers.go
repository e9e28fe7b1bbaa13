// Package maps turns zone listings into Leaflet map markup.
package maps

import (
	"strconv"
	"strings"

	"github.com/iliyamo/green-city-platform/internal/model"
)

// Marker is one plottable zone.
type Marker struct {
	ID           uint64  `json:"id"`
	Name         string  `json:"name"`
	ZoneType     string  `json:"zone_type"`
	Area         float64 `json:"area"`
	HealthScore  float64 `json:"health_score"`
	PendingTasks int64   `json:"pending_tasks"`
	Location     string  `json:"location"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Color        string  `json:"color"`
}

// View is the initial viewport.
type View struct {
	Lat  float64
	Lon  float64
	Zoom int
}

// ParseCoordinates parses "lat,lon". Whitespace is ignored; anything other
// than two in-range numbers yields ok=false.
func ParseCoordinates(s string) (lat, lon float64, ok bool) {
	s = strings.Join(strings.Fields(s), "")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, false
	}
	// written positively so NaN fails; ParseFloat also accepts "Inf"
	if !(lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180) {
		return 0, 0, false
	}
	return lat, lon, true
}

// HealthColor picks the marker colour for an average health score.
func HealthColor(score float64) string {
	switch {
	case score >= 80:
		return "green"
	case score >= 60:
		return "orange"
	default:
		return "red"
	}
}

// Markers keeps the zones whose coordinates parse; the rest are skipped.
func Markers(zones []model.ZoneSummary) []Marker {
	out := make([]Marker, 0, len(zones))
	for _, z := range zones {
		if z.Coordinates == nil {
			continue
		}
		lat, lon, ok := ParseCoordinates(*z.Coordinates)
		if !ok {
			continue
		}
		m := Marker{
			ID:           z.ID,
			Name:         z.Name,
			ZoneType:     z.ZoneType,
			HealthScore:  z.AvgHealth,
			PendingTasks: z.PendingTasks,
			Location:     "Не указано",
			Lat:          lat,
			Lon:          lon,
			Color:        HealthColor(z.AvgHealth),
		}
		if z.ZoneType == "" {
			m.ZoneType = "Неизвестно"
		}
		if z.Area != nil {
			m.Area = *z.Area
		}
		if z.Location != nil && *z.Location != "" {
			m.Location = *z.Location
		}
		out = append(out, m)
	}
	return out
}

// Center averages the marker positions. With no markers it returns the
// fallback view.
func Center(markers []Marker, fallback View, zoneZoom int) View {
	if len(markers) == 0 {
		return fallback
	}
	var lat, lon float64
	for _, m := range markers {
		lat += m.Lat
		lon += m.Lon
	}
	n := float64(len(markers))
	return View{Lat: lat / n, Lon: lon / n, Zoom: zoneZoom}
}
