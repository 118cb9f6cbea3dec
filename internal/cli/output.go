package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/groupie-tracker/internal/fragment"
	"github.com/pfrederiksen/groupie-tracker/internal/mapview"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText    OutputFormat = "text"
	FormatJSON    OutputFormat = "json"
	FormatGeoJSON OutputFormat = "geojson"
	FormatHTML    OutputFormat = "html"
)

// MarkerOutput is one placed marker
type MarkerOutput struct {
	City  string  `json:"city"`
	Dates string  `json:"dates"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

// MapOutput contains the result of a map render
type MapOutput struct {
	RenderedAt time.Time      `json:"rendered_at"`
	Source     string         `json:"source"`
	Center     [2]float64     `json:"center"`
	Zoom       int            `json:"zoom"`
	Result     mapview.Result `json:"result"`
	Markers    []MarkerOutput `json:"markers"`
}

// FragmentOutput contains the results container after a sort or filter
type FragmentOutput struct {
	Action  string           `json:"action"`
	URL     string           `json:"url"`
	Outcome fragment.Outcome `json:"outcome"`
	HTML    string           `json:"html"`
	Items   []string         `json:"items"`
}

// WriteMapOutput writes a map result in the specified format
func WriteMapOutput(w io.Writer, result *MapOutput, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeMapText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteFragmentOutput writes the updated results in the specified format
func WriteFragmentOutput(w io.Writer, result *FragmentOutput, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatHTML:
		_, err := fmt.Fprintln(w, result.HTML)
		return err
	case FormatText:
		return writeFragmentText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeMapText(w io.Writer, result *MapOutput, verbose bool) error {
	if result.Result.Requested == 0 {
		fmt.Fprintln(w, "No concert locations found.")
		return nil
	}

	for _, m := range result.Markers {
		fmt.Fprintf(w, "%s (%.4f, %.4f)\n", m.City, m.Lat, m.Lon)
		if verbose && m.Dates != "" {
			fmt.Fprintf(w, "     Dates: %s\n", m.Dates)
		}
	}

	r := result.Result
	fmt.Fprintf(w, "\nPlaced: %d of %d locations", r.Placed, r.Requested)
	if r.Missed > 0 || r.Failed > 0 {
		fmt.Fprintf(w, " (%d not found, %d failed)", r.Missed, r.Failed)
	}
	fmt.Fprintln(w)
	return nil
}

func writeFragmentText(w io.Writer, result *FragmentOutput) error {
	switch result.Outcome {
	case fragment.OutcomeMissing:
		fmt.Fprintln(w, "Response had no results container; page unchanged.")
	case fragment.OutcomeStale:
		fmt.Fprintln(w, "Response was older than the current results; page unchanged.")
	}

	if len(result.Items) == 0 {
		fmt.Fprintln(w, "No results.")
		return nil
	}
	for _, item := range result.Items {
		fmt.Fprintln(w, item)
	}
	fmt.Fprintf(w, "\nTotal: %d results\n", len(result.Items))
	return nil
}
