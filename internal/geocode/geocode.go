package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/groupie-tracker/internal/logger"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "groupie-tracker/1.0 (github.com/pfrederiksen/groupie-tracker)"
	DefaultTimeout   = 30 * time.Second
)

// Candidate is one search result from the geocoding service
type Candidate struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// rawCandidate mirrors the service's JSON. Nominatim sends lat/lon as strings,
// other compatible services send numbers.
type rawCandidate struct {
	Lat         coordinate `json:"lat"`
	Lon         coordinate `json:"lon"`
	DisplayName string     `json:"display_name"`
}

type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %q: %w", string(data), err)
	}
	*c = coordinate(v)
	return nil
}

// Client is a client for a Nominatim-compatible search endpoint
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      *Cache
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another search service.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithUserAgent sets the User-Agent sent with every lookup.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCache enables caching of lookups. Without it every Search hits the service.
func WithCache(cache *Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient creates a new geocoding client
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search looks up a free-text query and returns the candidates in the order
// the service ranked them. No match returns nil with a nil error.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(query); ok {
			logger.IncrCounter("geocode.cache_hits")
			return cached, nil
		}
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	logger.RecordTiming("geocode.search", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var raw []rawCandidate
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	var candidates []Candidate
	for _, r := range raw {
		candidates = append(candidates, Candidate{
			Lat:         float64(r.Lat),
			Lon:         float64(r.Lon),
			DisplayName: r.DisplayName,
		})
	}

	if c.cache != nil {
		c.cache.Set(query, candidates)
	}

	return candidates, nil
}
