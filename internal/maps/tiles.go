package maps

// TileProvider is a slippy-map tile source.
type TileProvider struct {
	Name    string
	Label   string
	URL     string
	MaxZoom int
}

// DefaultTile is used for unknown provider names.
const DefaultTile = "2gis"

var providers = []TileProvider{
	{Name: "2gis", Label: "2ГИС", URL: "https://tile2.maps.2gis.com/tiles?x={x}&y={y}&z={z}&v=1", MaxZoom: 18},
	{Name: "openstreetmap", Label: "OpenStreetMap", URL: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", MaxZoom: 18},
	{Name: "cartodb", Label: "CartoDB", URL: "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png", MaxZoom: 18},
	{Name: "opentopomap", Label: "OpenTopoMap", URL: "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png", MaxZoom: 17},
	{Name: "cyclosm", Label: "CyclOSM", URL: "https://{s}.tile-cyclosm.openstreetmap.fr/cyclosm/{z}/{x}/{y}.png", MaxZoom: 18},
}

// Tile looks up a provider by name, falling back to DefaultTile.
func Tile(name string) TileProvider {
	for _, p := range providers {
		if p.Name == name {
			return p
		}
	}
	return providers[0]
}

// Providers lists the selectable tile sources.
func Providers() []TileProvider {
	out := make([]TileProvider, len(providers))
	copy(out, providers)
	return out
}
