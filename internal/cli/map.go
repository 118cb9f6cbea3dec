package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/groupie-tracker/internal/geocode"
	"github.com/pfrederiksen/groupie-tracker/internal/location"
	"github.com/pfrederiksen/groupie-tracker/internal/logger"
	"github.com/pfrederiksen/groupie-tracker/internal/mapview"
	"github.com/spf13/cobra"
)

var (
	flagMapPage   string
	flagMapFile   string
	flagMapRels   string
	flagMapFormat string
	flagMapSort   string
)

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Geocode an artist page's concert locations and render the map",
		Long: `Reads the embedded concert locations of an artist page (or an artist's
relation resource from the Groupie Tracker API), looks up every city with the
geocoding service and places one marker per match.`,
		RunE: runMap,
	}

	cmd.Flags().StringVar(&flagMapPage, "page", "", "Artist page URL or path relative to the base URL")
	cmd.Flags().StringVar(&flagMapFile, "file", "", "Read the artist page from a local HTML file instead")
	cmd.Flags().StringVar(&flagMapFormat, "format", "text", "Output format: text, json, geojson or html")
	cmd.Flags().StringVar(&flagMapSort, "sort", "city", "Marker order for text and json output: city, lat or lon")
	cmd.Flags().StringVar(&flagMapRels, "relations", "", "Artist relation URL (datesLocations JSON) instead of a page")
	cmd.MarkFlagsMutuallyExclusive("page", "file", "relations")
	cmd.MarkFlagsOneRequired("page", "file", "relations")

	return cmd
}

func runMap(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagMapFormat, FormatText, FormatJSON, FormatGeoJSON, FormatHTML)
	if err != nil {
		return err
	}
	order, err := parseSortOrder(flagMapSort)
	if err != nil {
		return err
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.logMetrics()
	ctx := cmd.Context()

	locs, source, err := loadLocations(ctx, e)
	if err != nil {
		return fmt.Errorf("reading locations: %w", err)
	}
	e.log.Debug("locations loaded", logger.Fields{"count": len(locs), "source": source})

	opts := []geocode.Option{
		geocode.WithBaseURL(e.cfg.GeocoderURL),
		geocode.WithUserAgent(e.cfg.UserAgent),
		geocode.WithHTTPClient(e.client),
	}
	if e.cfg.GeocodeCacheTTL > 0 {
		opts = append(opts, geocode.WithCache(geocode.NewCache(e.cfg.GeocodeCacheTTL)))
	}

	m := mapview.NewMap(
		mapview.WithView(e.cfg.Map.CenterLat, e.cfg.Map.CenterLon, e.cfg.Map.Zoom),
		mapview.WithTileLayer(e.cfg.Map.TileURL, e.cfg.Map.Attribution),
	)

	start := time.Now()
	result := mapview.NewRenderer(geocode.NewClient(opts...)).WithLogger(e.log).Render(ctx, m, locs)
	e.log.Info("map rendered", logger.Fields{
		"requested": result.Requested,
		"placed":    result.Placed,
		"missed":    result.Missed,
		"failed":    result.Failed,
		"duration":  time.Since(start).String(),
	})

	w := cmd.OutOrStdout()
	switch format {
	case FormatGeoJSON:
		return mapview.WriteGeoJSON(w, m)
	case FormatHTML:
		return mapview.WriteHTML(w, m)
	}

	markers := m.Markers()
	sortMarkers(markers, order)

	center := m.Center()
	out := &MapOutput{
		RenderedAt: time.Now().UTC(),
		Source:     source,
		Center:     [2]float64{center.Lat.Degrees(), center.Lng.Degrees()},
		Zoom:       m.Zoom(),
		Result:     result,
		Markers:    make([]MarkerOutput, 0, len(markers)),
	}
	for _, mk := range markers {
		out.Markers = append(out.Markers, MarkerOutput{
			City:  mk.Location.City,
			Dates: mk.Location.Dates,
			Lat:   mk.Lat(),
			Lon:   mk.Lon(),
			Popup: mk.Popup,
		})
	}

	if err := WriteMapOutput(w, out, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// loadLocations reads the concert locations from whichever source was given
func loadLocations(ctx context.Context, e *env) ([]location.Location, string, error) {
	if flagMapFile != "" {
		doc, err := loadFile(flagMapFile)
		if err != nil {
			return nil, "", err
		}
		locs, err := location.FromDocument(doc)
		return locs, flagMapFile, err
	}

	if flagMapRels != "" {
		source, err := e.cfg.ResolvePage(flagMapRels)
		if err != nil {
			return nil, "", err
		}
		body, err := e.get(ctx, source)
		if err != nil {
			return nil, "", err
		}
		defer body.Close()

		locs, err := location.ParseRelation(body)
		return locs, source, err
	}

	source, err := e.cfg.ResolvePage(flagMapPage)
	if err != nil {
		return nil, "", err
	}
	doc, err := e.loadPage(ctx, source)
	if err != nil {
		return nil, "", err
	}
	locs, err := location.FromDocument(doc)
	return locs, source, err
}
