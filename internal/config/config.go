// Package config loads settings for the groupie-tracker client tools.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// variables from a .env file and the process environment. Command-line flags
// are applied last by the cli package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL     = "http://localhost:8080"
	DefaultGeocoderURL = "https://nominatim.openstreetmap.org"
	DefaultUserAgent   = "groupie-tracker/1.0 (github.com/pfrederiksen/groupie-tracker)"
	DefaultTimeout     = 30 * time.Second
	DefaultLogLevel    = "info"
	DefaultResultsPath = "/home"
	DefaultSelector    = ".artists"
	DefaultEnvFile     = ".env"
)

// Environment variable names
const (
	EnvBaseURL      = "GROUPIE_BASE_URL"
	EnvGeocoderURL  = "GROUPIE_GEOCODER_URL"
	EnvUserAgent    = "GROUPIE_USER_AGENT"
	EnvTimeout      = "GROUPIE_TIMEOUT"
	EnvLogLevel     = "GROUPIE_LOG_LEVEL"
	EnvGeocodeTTL   = "GROUPIE_GEOCODE_CACHE_TTL"
	EnvDiscardStale = "GROUPIE_DISCARD_STALE"
	EnvResultsPath  = "GROUPIE_RESULTS_PATH"
)

// MapConfig holds the fixed map view
type MapConfig struct {
	CenterLat   float64 `yaml:"center_lat"`
	CenterLon   float64 `yaml:"center_lon"`
	Zoom        int     `yaml:"zoom"`
	TileURL     string  `yaml:"tile_url"`
	Attribution string  `yaml:"attribution"`
}

// Config holds all settings
type Config struct {
	// BaseURL is the Groupie Tracker site that relative page paths resolve against.
	BaseURL string `yaml:"base_url"`

	GeocoderURL string        `yaml:"geocoder_url"`
	UserAgent   string        `yaml:"user_agent"`
	Timeout     time.Duration `yaml:"timeout"`
	LogLevel    string        `yaml:"log_level"`

	// GeocodeCacheTTL enables an in-memory lookup cache when positive.
	// Zero keeps the default of one request per location per render.
	GeocodeCacheTTL time.Duration `yaml:"geocode_cache_ttl"`

	ResultsPath  string `yaml:"results_path"`
	Selector     string `yaml:"selector"`
	DiscardStale bool   `yaml:"discard_stale"`

	Map MapConfig `yaml:"map"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		GeocoderURL: DefaultGeocoderURL,
		UserAgent:   DefaultUserAgent,
		Timeout:     DefaultTimeout,
		LogLevel:    DefaultLogLevel,
		ResultsPath: DefaultResultsPath,
		Selector:    DefaultSelector,
		Map: MapConfig{
			CenterLat:   48.8566,
			CenterLon:   2.3522,
			Zoom:        5,
			TileURL:     "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: "&copy; OpenStreetMap contributors",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// non-empty), the .env file in the working directory (if present) and the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", DefaultEnvFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvGeocoderURL); v != "" {
		c.GeocoderURL = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvResultsPath); v != "" {
		c.ResultsPath = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v := os.Getenv(EnvGeocodeTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvGeocodeTTL, err)
		}
		c.GeocodeCacheTTL = d
	}
	if v := os.Getenv(EnvDiscardStale); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDiscardStale, err)
		}
		c.DiscardStale = b
	}
	return nil
}

// Validate checks the configuration for values the tools can't work with
func (c *Config) Validate() error {
	if err := validateURL("base_url", c.BaseURL); err != nil {
		return err
	}
	if err := validateURL("geocoder_url", c.GeocoderURL); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.GeocodeCacheTTL < 0 {
		return fmt.Errorf("geocode_cache_ttl must not be negative, got %s", c.GeocodeCacheTTL)
	}
	if !strings.HasPrefix(c.ResultsPath, "/") {
		return fmt.Errorf("results_path must start with '/', got %q", c.ResultsPath)
	}
	if strings.TrimSpace(c.Selector) == "" {
		return fmt.Errorf("selector must not be empty")
	}
	if c.Map.CenterLat < -90 || c.Map.CenterLat > 90 {
		return fmt.Errorf("map.center_lat out of range: %v", c.Map.CenterLat)
	}
	if c.Map.CenterLon < -180 || c.Map.CenterLon > 180 {
		return fmt.Errorf("map.center_lon out of range: %v", c.Map.CenterLon)
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		return fmt.Errorf("map.zoom out of range: %d", c.Map.Zoom)
	}
	return nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s %q: scheme must be http or https", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s %q: missing host", name, raw)
	}
	return nil
}

// ResolvePage turns a page argument into an absolute URL. Absolute URLs are
// returned unchanged; paths resolve against BaseURL.
func (c *Config) ResolvePage(page string) (string, error) {
	ref, err := url.Parse(page)
	if err != nil {
		return "", fmt.Errorf("parsing page %q: %w", page, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}
