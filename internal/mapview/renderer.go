package mapview

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/geo/s2"
	"github.com/pfrederiksen/groupie-tracker/internal/geocode"
	"github.com/pfrederiksen/groupie-tracker/internal/location"
	"github.com/pfrederiksen/groupie-tracker/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Geocoder resolves a city name to ranked candidates.
// *geocode.Client satisfies it.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]geocode.Candidate, error)
}

// Result summarizes one render pass
type Result struct {
	Requested int `json:"requested"`
	Placed    int `json:"placed"`
	Missed    int `json:"missed"`
	Failed    int `json:"failed"`
}

// Renderer geocodes locations and places them on a map
type Renderer struct {
	geocoder Geocoder
	log      *logger.Logger
}

// NewRenderer creates a renderer backed by the given geocoder
func NewRenderer(g Geocoder) *Renderer {
	return &Renderer{geocoder: g}
}

// WithLogger sets the logger used for lookup failures.
// The package default logger is used otherwise.
func (r *Renderer) WithLogger(l *logger.Logger) *Renderer {
	r.log = l
	return r
}

func (r *Renderer) warn(message string, fields logger.Fields, err error) {
	if r.log != nil {
		r.log.Warn(message, fields, err)
		return
	}
	logger.Warn(message, fields, err)
}

// Render issues one lookup per location, all at once, and adds a marker for
// every location whose lookup returns at least one candidate. A failed lookup
// is logged and skipped; it never stops the others. Render returns when every
// lookup has finished or been abandoned through ctx.
func (r *Renderer) Render(ctx context.Context, m *Map, locs []location.Location) Result {
	var (
		mu  sync.Mutex
		res = Result{Requested: len(locs)}
	)

	var g errgroup.Group
	for _, loc := range locs {
		g.Go(func() error {
			placed, err := r.place(ctx, m, loc)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed++
			case placed:
				res.Placed++
			default:
				res.Missed++
			}
			// Lookups are independent, so errors stay here.
			return nil
		})
	}
	_ = g.Wait()

	logger.SetGauge("map.markers_total", float64(len(m.Markers())))
	return res
}

// place geocodes a single location and adds its marker.
// It reports whether a marker was placed.
func (r *Renderer) place(ctx context.Context, m *Map, loc location.Location) (bool, error) {
	logger.IncrCounter("geocode.requests")

	candidates, err := r.geocoder.Search(ctx, loc.City)
	if err != nil {
		logger.IncrCounter("geocode.failures")
		r.warn("geocoding lookup failed", logger.Fields{"city": loc.City}, err)
		return false, err
	}

	if len(candidates) == 0 {
		logger.IncrCounter("geocode.misses")
		return false, nil
	}

	first := candidates[0]
	pos := s2.LatLngFromDegrees(first.Lat, first.Lon)
	if !pos.IsValid() {
		err := fmt.Errorf("coordinate out of range: %v,%v", first.Lat, first.Lon)
		logger.IncrCounter("geocode.failures")
		r.warn("geocoding lookup failed", logger.Fields{"city": loc.City}, err)
		return false, err
	}

	m.AddMarker(Marker{
		Position: pos,
		Popup:    PopupText(loc),
		Location: loc,
	})
	logger.IncrCounter("map.markers")
	return true, nil
}
