package mapview

import (
	"fmt"
	"html"
	"sync"

	"github.com/golang/geo/s2"
	"github.com/pfrederiksen/groupie-tracker/internal/location"
)

const (
	DefaultCenterLat   = 48.8566
	DefaultCenterLon   = 2.3522
	DefaultZoom        = 5
	DefaultTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution = "&copy; OpenStreetMap contributors"
)

// TileLayer is the base layer drawn under the markers
type TileLayer struct {
	URLTemplate string `json:"url_template"`
	Attribution string `json:"attribution"`
}

// Marker is a pin on the map with an attached popup
type Marker struct {
	Position s2.LatLng
	Popup    string
	Location location.Location
}

// Lat returns the marker latitude in degrees
func (m Marker) Lat() float64 {
	return m.Position.Lat.Degrees()
}

// Lon returns the marker longitude in degrees
func (m Marker) Lon() float64 {
	return m.Position.Lng.Degrees()
}

// PopupText formats the popup shown for a location: the city in bold, then the dates.
func PopupText(loc location.Location) string {
	return fmt.Sprintf("<b>%s</b><br>%s", html.EscapeString(loc.City), html.EscapeString(loc.Dates))
}

// Map is a map view and its markers. Safe for concurrent use.
type Map struct {
	center s2.LatLng
	zoom   int
	tiles  TileLayer

	mu      sync.Mutex
	markers []Marker
}

// MapOption configures a Map
type MapOption func(*Map)

// WithView sets the fixed center and zoom.
func WithView(lat, lon float64, zoom int) MapOption {
	return func(m *Map) {
		m.center = s2.LatLngFromDegrees(lat, lon)
		m.zoom = zoom
	}
}

// WithTileLayer sets the base tile layer.
func WithTileLayer(urlTemplate, attribution string) MapOption {
	return func(m *Map) {
		if urlTemplate != "" {
			m.tiles.URLTemplate = urlTemplate
		}
		if attribution != "" {
			m.tiles.Attribution = attribution
		}
	}
}

// NewMap creates a map centered on Paris at zoom 5 with OpenStreetMap tiles
func NewMap(opts ...MapOption) *Map {
	m := &Map{
		center: s2.LatLngFromDegrees(DefaultCenterLat, DefaultCenterLon),
		zoom:   DefaultZoom,
		tiles: TileLayer{
			URLTemplate: DefaultTileURL,
			Attribution: DefaultAttribution,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Center returns the fixed view center
func (m *Map) Center() s2.LatLng {
	return m.center
}

// Zoom returns the fixed zoom level
func (m *Map) Zoom() int {
	return m.zoom
}

// Tiles returns the base tile layer
func (m *Map) Tiles() TileLayer {
	return m.tiles
}

// AddMarker places a marker on the map. Identical markers are kept.
func (m *Map) AddMarker(marker Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = append(m.markers, marker)
}

// Markers returns a copy of the markers in the order they were added
func (m *Map) Markers() []Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Marker, len(m.markers))
	copy(out, m.markers)
	return out
}
