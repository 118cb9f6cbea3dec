package cli

import (
	"testing"

	"github.com/golang/geo/s2"
	"github.com/pfrederiksen/groupie-tracker/internal/location"
	"github.com/pfrederiksen/groupie-tracker/internal/mapview"
)

func marker(city, dates string, lat, lon float64) mapview.Marker {
	return mapview.Marker{
		Position: s2.LatLngFromDegrees(lat, lon),
		Location: location.Location{City: city, Dates: dates},
	}
}

func TestSortMarkers(t *testing.T) {
	tests := []struct {
		name     string
		order    SortOrder
		expected []string
	}{
		{"by city", SortByCity, []string{"london, uk", "Paris, France 2019", "Paris, France 2020", "Sydney, Australia"}},
		{"by latitude", SortByLatitude, []string{"london, uk", "Paris, France 2019", "Paris, France 2020", "Sydney, Australia"}},
		{"by longitude", SortByLongitude, []string{"london, uk", "Paris, France 2019", "Paris, France 2020", "Sydney, Australia"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markers := []mapview.Marker{
				marker("Sydney, Australia", "", -33.87, 151.21),
				marker("Paris, France", "2020", 48.86, 2.35),
				marker("london, uk", "", 51.51, -0.13),
				marker("Paris, France", "2019", 48.86, 2.35),
			}
			sortMarkers(markers, tt.order)

			for i, want := range tt.expected {
				got := markers[i].Location.City
				if markers[i].Location.Dates != "" {
					got += " " + markers[i].Location.Dates
				}
				if got != want {
					t.Errorf("markers[%d] = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected SortOrder
		wantErr  bool
	}{
		{"city", SortByCity, false},
		{" LAT ", SortByLatitude, false},
		{"lon", SortByLongitude, false},
		{"dates", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSortOrder(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSortOrder() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("parseSortOrder(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
