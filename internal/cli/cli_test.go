package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pfrederiksen/groupie-tracker/internal/config"
	"github.com/pfrederiksen/groupie-tracker/internal/fragment"
)

const artistPage = `<!DOCTYPE html>
<html><body>
<h1>Queen</h1>
<div id="map"></div>
<script id="locations-data" type="application/json">
[{"city":"Paris, France","dates":"14-05-1986"},{"city":"Atlantis","dates":"01-01-1999"}]
</script>
</body></html>`

const resultsPage = `<!DOCTYPE html>
<html><body>
<nav class="sort-menu">
  <a href="/home?sortBy=name&order=asc">Name</a>
  <a href="/home?sortBy=creationDate&order=desc">Creation date</a>
</nav>
<form id="filter-form" action="/home">
  <input type="text" name="genre" value="">
  <input type="checkbox" name="solo" value="1" checked>
</form>
<div class="artists"><div class="card">Queen</div><div class="card">ABBA</div></div>
</body></html>`

// site serves an artist page, a results page and a geocoding endpoint
type site struct {
	mu       sync.Mutex
	requests []string
}

func (s *site) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/artist", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(artistPage))
	})
	mux.HandleFunc("/api/relation/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":1,"datesLocations":{"paris-france":["*14-05-1986","15-05-1986"],"atlantis-sea":["01-01-1999"]}}`))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Paris, France" {
			w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522","display_name":"Paris"}]`))
			return
		}
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(fragment.RequestedWithKey) == "" {
			w.Write([]byte(resultsPage))
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.RequestURI())
		s.mu.Unlock()

		switch {
		case r.URL.Query().Get("sortBy") == "name":
			w.Write([]byte(`<div class="artists"><div class="card">ABBA</div><div class="card">Queen</div></div>`))
		case r.URL.Query().Get("genre") == "rock":
			w.Write([]byte(`<html><body><div class="artists"><div class="card">Queen</div></div></body></html>`))
		default:
			w.Write([]byte(`<p>nothing here</p>`))
		}
	})
	return mux
}

func newSite(t *testing.T) (*site, *httptest.Server) {
	t.Helper()
	s := &site{}
	server := httptest.NewServer(s.handler(t))
	t.Cleanup(server.Close)

	t.Chdir(t.TempDir())
	t.Setenv(config.EnvBaseURL, server.URL)
	t.Setenv(config.EnvGeocoderURL, server.URL)
	return s, server
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestMapCommand_Text(t *testing.T) {
	newSite(t)

	out, _, err := runCLI(t, "map", "--page", "/artist")
	if err != nil {
		t.Fatalf("map error = %v", err)
	}

	want := "Paris, France (48.8566, 2.3522)\n\nPlaced: 1 of 2 locations (1 not found, 0 failed)\n"
	if out != want {
		t.Errorf("output =\n%q\nwant\n%q", out, want)
	}
}

func TestMapCommand_JSON(t *testing.T) {
	newSite(t)

	out, _, err := runCLI(t, "map", "--page", "/artist", "--format", "json")
	if err != nil {
		t.Fatalf("map error = %v", err)
	}

	var result MapOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if result.Result.Requested != 2 || result.Result.Placed != 1 || result.Result.Missed != 1 {
		t.Errorf("Result = %+v", result.Result)
	}
	if len(result.Markers) != 1 || result.Markers[0].Popup != "<b>Paris, France</b><br>14-05-1986" {
		t.Errorf("Markers = %+v", result.Markers)
	}
	if result.Zoom != 5 {
		t.Errorf("Zoom = %d, want the configured default 5", result.Zoom)
	}
}

func TestMapCommand_Relations(t *testing.T) {
	newSite(t)

	out, _, err := runCLI(t, "map", "--relations", "/api/relation/1", "--format", "json")
	if err != nil {
		t.Fatalf("map error = %v", err)
	}

	var result MapOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if result.Result.Requested != 2 || result.Result.Placed != 1 || result.Result.Missed != 1 {
		t.Errorf("Result = %+v", result.Result)
	}
	if len(result.Markers) != 1 {
		t.Fatalf("Markers = %+v, want one", result.Markers)
	}
	if got := result.Markers[0].Popup; got != "<b>Paris, France</b><br>14-05-1986, 15-05-1986" {
		t.Errorf("Popup = %q", got)
	}
	if !strings.HasSuffix(result.Source, "/api/relation/1") {
		t.Errorf("Source = %q", result.Source)
	}
}

func TestMapCommand_GeoJSONFromFile(t *testing.T) {
	newSite(t)

	path := filepath.Join(t.TempDir(), "artist.html")
	if err := os.WriteFile(path, []byte(artistPage), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, "map", "--file", path, "--format", "geojson")
	if err != nil {
		t.Fatalf("map error = %v", err)
	}
	if !strings.Contains(out, `"FeatureCollection"`) || !strings.Contains(out, `"city": "Paris, France"`) {
		t.Errorf("unexpected GeoJSON:\n%s", out)
	}
}

func TestMapCommand_Errors(t *testing.T) {
	newSite(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no source", []string{"map"}},
		{"both sources", []string{"map", "--page", "/artist", "--file", "x.html"}},
		{"page and relations", []string{"map", "--page", "/artist", "--relations", "/api/relation/1"}},
		{"missing relation", []string{"map", "--relations", "/api/relation/2"}},
		{"relation is not JSON", []string{"map", "--relations", "/artist"}},
		{"bad format", []string{"map", "--page", "/artist", "--format", "xml"}},
		{"bad sort", []string{"map", "--page", "/artist", "--sort", "dates"}},
		{"missing page", []string{"map", "--page", "/nowhere"}},
		{"missing file", []string{"map", "--file", "does-not-exist.html"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runCLI(t, tt.args...); err == nil {
				t.Errorf("%v expected error, got nil", tt.args)
			}
		})
	}
}

func TestSortCommand(t *testing.T) {
	s, _ := newSite(t)

	out, _, err := runCLI(t, "sort", "--link", "name")
	if err != nil {
		t.Fatalf("sort error = %v", err)
	}

	want := "ABBA\nQueen\n\nTotal: 2 results\n"
	if out != want {
		t.Errorf("output =\n%q\nwant\n%q", out, want)
	}
	if len(s.requests) != 1 || s.requests[0] != "/home?sortBy=name&order=asc" {
		t.Errorf("fragment requests = %v", s.requests)
	}
}

func TestSortCommand_MissingContainer(t *testing.T) {
	newSite(t)

	out, errOut, err := runCLI(t, "sort", "--link", "Creation date", "--format", "json")
	if err != nil {
		t.Fatalf("sort error = %v", err)
	}

	var result FragmentOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if result.Outcome != fragment.OutcomeMissing {
		t.Errorf("Outcome = %s, want %s", result.Outcome, fragment.OutcomeMissing)
	}
	if len(result.Items) != 2 || result.Items[0] != "Queen" {
		t.Errorf("Items = %v, want the original results", result.Items)
	}
	if strings.Contains(errOut, "failed") {
		t.Errorf("missing container should not be logged as a failure: %s", errOut)
	}
}

func TestSortCommand_UnknownLink(t *testing.T) {
	newSite(t)

	_, _, err := runCLI(t, "sort", "--link", "Popularity")
	if err == nil || !strings.Contains(err.Error(), "sort link not found") {
		t.Errorf("error = %v, want sort link not found", err)
	}
}

func TestFilterCommand(t *testing.T) {
	s, _ := newSite(t)

	out, _, err := runCLI(t, "filter", "--set", "genre=rock", "--clear", "solo", "--format", "html")
	if err != nil {
		t.Fatalf("filter error = %v", err)
	}

	if strings.TrimSpace(out) != `<div class="card">Queen</div>` {
		t.Errorf("output = %q", out)
	}
	if len(s.requests) != 1 || s.requests[0] != "/home?genre=rock" {
		t.Errorf("fragment requests = %v", s.requests)
	}
}

func TestFilterCommand_InvalidSet(t *testing.T) {
	newSite(t)

	for _, arg := range []string{"genre", "=rock", "decade=1980"} {
		t.Run(arg, func(t *testing.T) {
			if _, _, err := runCLI(t, "filter", "--set", arg); err == nil {
				t.Errorf("--set %q expected error, got nil", arg)
			}
		})
	}
}

func TestVerboseLogging(t *testing.T) {
	newSite(t)

	_, errOut, err := runCLI(t, "--verbose", "sort", "--link", "Name")
	if err != nil {
		t.Fatalf("sort error = %v", err)
	}
	if !strings.Contains(errOut, "sort applied") {
		t.Errorf("verbose log missing debug entry:\n%s", errOut)
	}
	if !strings.Contains(errOut, `"metrics"`) || !strings.Contains(errOut, "fragment.requests") {
		t.Errorf("verbose log missing metrics snapshot:\n%s", errOut)
	}
}

func TestMetricsNotLoggedByDefault(t *testing.T) {
	newSite(t)

	_, errOut, err := runCLI(t, "sort", "--link", "Name")
	if err != nil {
		t.Fatalf("sort error = %v", err)
	}
	if strings.Contains(errOut, "fragment.requests") {
		t.Errorf("metrics logged without --verbose:\n%s", errOut)
	}
}
