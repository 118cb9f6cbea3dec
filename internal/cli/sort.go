package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/groupie-tracker/internal/mapview"
)

// SortOrder represents the available marker orderings
type SortOrder string

const (
	SortByCity      SortOrder = "city"
	SortByLatitude  SortOrder = "lat"
	SortByLongitude SortOrder = "lon"
)

func parseSortOrder(raw string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(raw))); order {
	case SortByCity, SortByLatitude, SortByLongitude:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'city', 'lat' or 'lon')", raw)
	}
}

// sortMarkers orders markers for output. Markers are placed in whatever
// order the lookups finish, so output is always sorted.
func sortMarkers(markers []mapview.Marker, order SortOrder) {
	switch order {
	case SortByLatitude:
		sort.SliceStable(markers, func(i, j int) bool {
			if markers[i].Lat() != markers[j].Lat() {
				// North first
				return markers[i].Lat() > markers[j].Lat()
			}
			return compareByCity(markers[i], markers[j])
		})
	case SortByLongitude:
		sort.SliceStable(markers, func(i, j int) bool {
			if markers[i].Lon() != markers[j].Lon() {
				return markers[i].Lon() < markers[j].Lon()
			}
			return compareByCity(markers[i], markers[j])
		})
	default:
		sort.SliceStable(markers, func(i, j int) bool {
			return compareByCity(markers[i], markers[j])
		})
	}
}

// compareByCity compares two markers by city name, then by dates so that
// repeated cities keep a fixed order
func compareByCity(i, j mapview.Marker) bool {
	ci := strings.ToLower(i.Location.City)
	cj := strings.ToLower(j.Location.City)
	if ci != cj {
		return ci < cj
	}
	return i.Location.Dates < j.Location.Dates
}
