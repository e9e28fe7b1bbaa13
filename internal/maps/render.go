package maps

import (
	"bytes"
	"html/template"

	"github.com/iliyamo/green-city-platform/internal/config"
	"github.com/iliyamo/green-city-platform/internal/model"
)

const leafletVersion = "1.9.4"

// Renderer produces Leaflet markup for zone listings.
type Renderer struct {
	fallback View
	zoneZoom int
}

func NewRenderer(cfg config.MapConfig) *Renderer {
	return &Renderer{
		fallback: View{Lat: cfg.DefaultLat, Lon: cfg.DefaultLon, Zoom: cfg.DefaultZoom},
		zoneZoom: cfg.ZoneZoom,
	}
}

type pageData struct {
	Leaflet   string
	Markers   []Marker
	View      View
	Tile      TileProvider
	Providers []TileProvider
}

// RenderEmbedded returns an HTML fragment with a 2GIS-backed map card.
func (r *Renderer) RenderEmbedded(zones []model.ZoneSummary) (string, error) {
	return r.render(embeddedTmpl, zones, Tile(DefaultTile))
}

// RenderFullscreen returns a standalone HTML document using the named tile
// provider and offering a switcher between providers.
func (r *Renderer) RenderFullscreen(zones []model.ZoneSummary, tile string) (string, error) {
	return r.render(fullscreenTmpl, zones, Tile(tile))
}

func (r *Renderer) render(t *template.Template, zones []model.ZoneSummary, tile TileProvider) (string, error) {
	markers := Markers(zones)
	data := pageData{
		Leaflet:   leafletVersion,
		Markers:   markers,
		View:      Center(markers, r.fallback, r.zoneZoom),
		Tile:      tile,
		Providers: Providers(),
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const markerScript = `{{define "markers"}}
var zones = {{.Markers}};
function popupRow(box, label, value) {
	var p = document.createElement('p');
	var b = document.createElement('strong');
	b.textContent = label + ': ';
	p.appendChild(b);
	p.appendChild(document.createTextNode(String(value)));
	box.appendChild(p);
}
function popupFor(zone) {
	var box = document.createElement('div');
	box.style.minWidth = '250px';
	var title = document.createElement('h5');
	title.textContent = zone.name;
	box.appendChild(title);
	popupRow(box, 'Тип', zone.zone_type);
	popupRow(box, 'Площадь', zone.area + ' га');
	popupRow(box, 'Состояние', zone.health_score.toFixed(1) + '%');
	popupRow(box, 'Задачи', zone.pending_tasks);
	popupRow(box, 'Местоположение', zone.location);
	var link = document.createElement('a');
	link.href = '/v1/zones/' + zone.id;
	link.textContent = 'Перейти к зоне';
	box.appendChild(link);
	return box;
}
zones.forEach(function (zone) {
	var icon = new L.Icon({
		iconUrl: 'https://raw.githubusercontent.com/pointhi/leaflet-color-markers/master/img/marker-icon-' + zone.color + '.png',
		shadowUrl: 'https://cdnjs.cloudflare.com/ajax/libs/leaflet/0.7.7/images/marker-shadow.png',
		iconSize: [25, 41],
		iconAnchor: [12, 41],
		popupAnchor: [1, -34],
		shadowSize: [41, 41]
	});
	L.marker([zone.lat, zone.lon], {icon: icon}).addTo(map).bindPopup(popupFor(zone));
});
var legend = L.control({position: 'bottomright'});
legend.onAdd = function () {
	var div = L.DomUtil.create('div', 'legend');
	div.innerHTML = '<h5>Состояние зон</h5>' +
		'<div><span class="dot" style="background:green"></span>Отлично (80-100%)</div>' +
		'<div><span class="dot" style="background:orange"></span>Хорошо (60-79%)</div>' +
		'<div><span class="dot" style="background:red"></span>Требует внимания (&lt;60%)</div>';
	return div;
};
legend.addTo(map);
L.control.scale({imperial: false}).addTo(map);
{{end}}`

const legendStyle = `.legend { background: white; padding: 10px; border-radius: 5px; box-shadow: 0 2px 10px rgba(0,0,0,0.2); }
.legend h5 { margin: 0 0 8px 0; font-size: 14px; }
.legend .dot { display: inline-block; width: 10px; height: 10px; border-radius: 50%; margin-right: 5px; }`

var embeddedTmpl = template.Must(template.New("embedded").Parse(markerScript + `
<div class="card">
	<div class="card-header bg-success text-white">
		<h5 class="mb-0">Карта зеленых зон <span class="badge bg-light text-success ms-2">{{len .Markers}}</span></h5>
	</div>
	<div class="card-body p-0">
		<div id="greenZonesMap" style="height: 500px; border-radius: 0 0 8px 8px;"></div>
	</div>
</div>
<link rel="stylesheet" href="https://unpkg.com/leaflet@{{.Leaflet}}/dist/leaflet.css">
<style>` + legendStyle + `</style>
<script src="https://unpkg.com/leaflet@{{.Leaflet}}/dist/leaflet.js"></script>
<script>
var map = L.map('greenZonesMap', {attributionControl: false}).setView([{{.View.Lat}}, {{.View.Lon}}], {{.View.Zoom}});
L.tileLayer({{.Tile.URL}}, {maxZoom: {{.Tile.MaxZoom}}}).addTo(map);
{{template "markers" .}}
</script>
`))

var fullscreenTmpl = template.Must(template.New("fullscreen").Parse(markerScript + `<!DOCTYPE html>
<html>
<head>
	<title>Карта зеленых зон</title>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<link rel="stylesheet" href="https://unpkg.com/leaflet@{{.Leaflet}}/dist/leaflet.css">
	<style>
body { margin: 0; padding: 0; }
#map { position: absolute; top: 0; bottom: 0; width: 100%; }
#tiles { position: absolute; top: 10px; right: 10px; z-index: 1000; padding: 4px; }
` + legendStyle + `
	</style>
</head>
<body>
	<div id="map"></div>
	<select id="tiles" onchange="window.location.search = '?tile=' + encodeURIComponent(this.value)">
	{{- range .Providers}}
		<option value="{{.Name}}"{{if eq .Name $.Tile.Name}} selected{{end}}>{{.Label}}</option>
	{{- end}}
	</select>
	<script src="https://unpkg.com/leaflet@{{.Leaflet}}/dist/leaflet.js"></script>
	<script>
var map = L.map('map', {attributionControl: false}).setView([{{.View.Lat}}, {{.View.Lon}}], {{.View.Zoom}});
L.tileLayer({{.Tile.URL}}, {maxZoom: {{.Tile.MaxZoom}}}).addTo(map);
{{template "markers" .}}
	</script>
</body>
</html>
`))
