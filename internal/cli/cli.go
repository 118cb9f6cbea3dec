package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/groupie-tracker/internal/config"
	"github.com/pfrederiksen/groupie-tracker/internal/logger"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig  string
	flagBaseURL string
	flagVerbose bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groupie",
		Short: "Drive a Groupie Tracker site from the command line",
		Long: `A CLI client for Groupie Tracker pages.
Renders concert locations on a map and performs the sort and filter
actions of the results page the way the browser does, by fetching only the
results fragment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "Site that relative page paths resolve against (overrides config)")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(newMapCmd(), newSortCmd(), newFilterCmd())

	return cmd
}

// env is what every subcommand needs once flags are parsed
type env struct {
	cfg    *config.Config
	log    *logger.Logger
	client *http.Client
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	log := logger.New(level, cmd.ErrOrStderr())
	logger.SetDefault(log)

	return &env{
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// get performs a plain GET and returns the body of a 200 response.
// The caller closes the body.
func (e *env) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	e.log.Debug("fetching", logger.Fields{"url": rawURL})

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// loadPage fetches a full page the way a browser navigation would and parses it
func (e *env) loadPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := e.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return parseDocument(body)
}

// logMetrics writes the counters and timings gathered during the command
func (e *env) logMetrics() {
	e.log.Debug("metrics", logger.Fields(logger.GetMetricsSnapshot()))
}

func loadFile(path string) (*goquery.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page file: %w", err)
	}
	defer f.Close()

	return parseDocument(f)
}

func parseDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

func parseFormat(raw string, allowed ...OutputFormat) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(raw)))
	names := make([]string, len(allowed))
	for i, f := range allowed {
		if f == format {
			return format, nil
		}
		names[i] = "'" + string(f) + "'"
	}
	return "", fmt.Errorf("invalid format: %s (must be %s)", raw, strings.Join(names, ", "))
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
