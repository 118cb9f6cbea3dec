package mapview

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
)

// feature and featureCollection are the GeoJSON shapes we emit.
// Coordinates are [lon, lat] per RFC 7946.
type feature struct {
	Type       string            `json:"type"`
	Geometry   geometry          `json:"geometry"`
	Properties map[string]string `json:"properties"`
}

type geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// WriteGeoJSON writes the map markers as a GeoJSON FeatureCollection
func WriteGeoJSON(w io.Writer, m *Map) error {
	fc := featureCollection{
		Type:     "FeatureCollection",
		Features: make([]feature, 0),
	}

	for _, mk := range m.Markers() {
		fc.Features = append(fc.Features, feature{
			Type: "Feature",
			Geometry: geometry{
				Type:        "Point",
				Coordinates: [2]float64{mk.Lon(), mk.Lat()},
			},
			Properties: map[string]string{
				"city":  mk.Location.City,
				"dates": mk.Location.Dates,
				"popup": mk.Popup,
			},
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(fc); err != nil {
		return fmt.Errorf("encoding GeoJSON: %w", err)
	}
	return nil
}

type pageMarker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

type pageData struct {
	CenterLat   float64
	CenterLon   float64
	Zoom        int
	TileURL     string
	Attribution string
	Markers     []pageMarker
}

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Tour locations</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>#map { height: 100vh; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], {{.Zoom}});
L.tileLayer({{.TileURL}}, { attribution: {{.Attribution}} }).addTo(map);
{{.Markers}}.forEach(function (m) {
    L.marker([m.lat, m.lon]).addTo(map).bindPopup(m.popup);
});
</script>
</body>
</html>
`))

// WriteHTML writes a standalone Leaflet page showing the map view and markers
func WriteHTML(w io.Writer, m *Map) error {
	center := m.Center()
	data := pageData{
		CenterLat:   center.Lat.Degrees(),
		CenterLon:   center.Lng.Degrees(),
		Zoom:        m.Zoom(),
		TileURL:     m.Tiles().URLTemplate,
		Attribution: m.Tiles().Attribution,
		Markers:     make([]pageMarker, 0),
	}
	for _, mk := range m.Markers() {
		data.Markers = append(data.Markers, pageMarker{
			Lat:   mk.Lat(),
			Lon:   mk.Lon(),
			Popup: mk.Popup,
		})
	}

	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("rendering map page: %w", err)
	}
	return nil
}
