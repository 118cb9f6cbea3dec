// Package mapview places artist tour locations on a map.
//
// A Map holds a fixed view (center, zoom, tile layer) and the markers added to
// it. The Renderer geocodes every location concurrently and adds one marker
// per location that resolves; markers arrive in whatever order their lookups
// finish. The view never moves to fit the markers.
//
// The resulting map can be written as GeoJSON or as a standalone Leaflet page.
package mapview
