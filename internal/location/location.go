package location

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DataSelector matches the element holding the embedded location JSON.
const DataSelector = "#locations-data"

// Location is a single tour stop shown on the map
type Location struct {
	City  string `json:"city"`
	Dates string `json:"dates"`
}

// Parse decodes a JSON array of locations
func Parse(r io.Reader) ([]Location, error) {
	var locs []Location
	if err := json.NewDecoder(r).Decode(&locs); err != nil {
		return nil, fmt.Errorf("decoding locations: %w", err)
	}
	if locs == nil {
		locs = []Location{}
	}
	return locs, nil
}

// FromDocument reads the locations embedded in a page.
// A page without the data element yields an empty list.
func FromDocument(doc *goquery.Document) ([]Location, error) {
	sel := doc.Find(DataSelector).First()
	if sel.Length() == 0 {
		return []Location{}, nil
	}

	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return []Location{}, nil
	}

	return Parse(strings.NewReader(text))
}

// relation is the body of a Groupie Tracker relation resource
type relation struct {
	DatesLocations map[string][]string `json:"datesLocations"`
}

// ParseRelation decodes a single relation resource, e.g.
// {"id": 1, "datesLocations": {...}}, and builds its locations.
func ParseRelation(r io.Reader) ([]Location, error) {
	var rel relation
	if err := json.NewDecoder(r).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decoding relation: %w", err)
	}
	return FromRelations(rel.DatesLocations), nil
}

// FromRelations builds locations from an artist's datesLocations relation,
// e.g. {"paris-france": ["*10-07-2025", "11-07-2025"]}. Locations are sorted by city.
func FromRelations(datesLocations map[string][]string) []Location {
	locs := make([]Location, 0, len(datesLocations))
	for key, dates := range datesLocations {
		cleaned := make([]string, 0, len(dates))
		for _, d := range dates {
			d = strings.TrimPrefix(strings.TrimSpace(d), "*")
			if d != "" {
				cleaned = append(cleaned, d)
			}
		}
		locs = append(locs, Location{
			City:  PrettyCity(key),
			Dates: strings.Join(cleaned, ", "),
		})
	}

	sort.Slice(locs, func(i, j int) bool {
		return locs[i].City < locs[j].City
	})
	return locs
}

// PrettyCity turns a relation key like "north_carolina-usa" into "North Carolina, Usa".
func PrettyCity(key string) string {
	parts := strings.Split(strings.TrimSpace(key), "-")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		words := strings.Fields(strings.ReplaceAll(part, "_", " "))
		for i, w := range words {
			first, size := utf8.DecodeRuneInString(w)
			words[i] = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
		}
		if len(words) > 0 {
			out = append(out, strings.Join(words, " "))
		}
	}
	return strings.Join(out, ", ")
}
