package fragment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/groupie-tracker/internal/logger"
)

const (
	DefaultSelector    = ".artists"
	RequestedWithKey   = "X-Requested-With"
	RequestedWithValue = "XMLHttpRequest"
	DefaultUserAgent   = "groupie-tracker/1.0 (github.com/pfrederiksen/groupie-tracker)"
	DefaultTimeout     = 30 * time.Second
)

// Outcome describes what a fetch did to the page
type Outcome string

const (
	// OutcomeSwapped means the container content was replaced.
	OutcomeSwapped Outcome = "swapped"
	// OutcomeMissing means the response had no matching container.
	OutcomeMissing Outcome = "missing"
	// OutcomeStale means a newer response was already applied.
	OutcomeStale Outcome = "stale"
	// OutcomeFailed means the request or the response body failed.
	OutcomeFailed Outcome = "failed"
)

// ErrStatus is wrapped by fetch errors caused by a non-2xx response.
var ErrStatus = errors.New("unexpected status code")

// Updater fetches result fragments and swaps them into a page
type Updater struct {
	client       *http.Client
	selector     string
	userAgent    string
	discardStale bool
	log          *logger.Logger

	issued atomic.Uint64

	mu      sync.Mutex
	applied uint64
	// pages keeps every bound document reachable until Unbind is called.
	pages map[*goquery.Document]*Page
}

// Option configures an Updater
type Option func(*Updater)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(u *Updater) {
		if hc != nil {
			u.client = hc
		}
	}
}

// WithSelector changes the selector of the results container.
func WithSelector(selector string) Option {
	return func(u *Updater) {
		if selector != "" {
			u.selector = selector
		}
	}
}

// WithUserAgent sets the User-Agent sent with every request.
func WithUserAgent(ua string) Option {
	return func(u *Updater) {
		if ua != "" {
			u.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(l *logger.Logger) Option {
	return func(u *Updater) {
		u.log = l
	}
}

// WithDiscardStale drops any response that was requested before the last
// applied one, so the page always shows the newest action that completed.
func WithDiscardStale() Option {
	return func(u *Updater) {
		u.discardStale = true
	}
}

// NewUpdater creates a new Updater
func NewUpdater(opts ...Option) *Updater {
	u := &Updater{
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
		selector:  DefaultSelector,
		userAgent: DefaultUserAgent,
		pages:     make(map[*goquery.Document]*Page),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Selector returns the results container selector
func (u *Updater) Selector() string {
	return u.selector
}

// Fetch requests rawURL as a fragment and replaces target's content with the
// matching container of the response. Network and body failures are logged,
// leave target untouched and are returned. A response without the container
// is a silent no-op.
func (u *Updater) Fetch(ctx context.Context, target *Container, rawURL string) (Outcome, error) {
	seq := u.issued.Add(1)
	logger.IncrCounter("fragment.requests")

	inner, found, err := u.fetchFragment(ctx, rawURL)
	if err != nil {
		logger.IncrCounter("fragment.failures")
		u.warn("fragment update failed", logger.Fields{"url": rawURL}, err)
		return OutcomeFailed, err
	}
	if !found {
		logger.IncrCounter("fragment.missing")
		return OutcomeMissing, nil
	}

	if u.discardStale {
		u.mu.Lock()
		if seq < u.applied {
			u.mu.Unlock()
			logger.IncrCounter("fragment.stale")
			u.debug("discarding stale fragment", logger.Fields{"url": rawURL, "seq": seq})
			return OutcomeStale, nil
		}
		u.applied = seq
		u.mu.Unlock()
	}

	target.Replace(inner)
	logger.IncrCounter("fragment.swaps")
	return OutcomeSwapped, nil
}

// fetchFragment performs the request and extracts the container's inner HTML.
func (u *Updater) fetchFragment(ctx context.Context, rawURL string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(RequestedWithKey, RequestedWithValue)
	req.Header.Set("User-Agent", u.userAgent)
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := u.client.Do(req)
	logger.RecordTiming("fragment.fetch", time.Since(start))
	if err != nil {
		return "", false, fmt.Errorf("fetching fragment: %w", err)
	}
	defer resp.Body.Close()

	// Browsers would still swap in a .artists found in an error page; an error
	// status is treated as a failed update instead and the page is left alone.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("parsing HTML: %w", err)
	}

	sel := doc.Find(u.selector).First()
	if sel.Length() == 0 {
		return "", false, nil
	}

	inner, err := sel.Html()
	if err != nil {
		return "", false, fmt.Errorf("rendering fragment: %w", err)
	}
	return inner, true, nil
}

func (u *Updater) warn(message string, fields logger.Fields, err error) {
	if u.log != nil {
		u.log.Warn(message, fields, err)
		return
	}
	logger.Warn(message, fields, err)
}

func (u *Updater) debug(message string, fields logger.Fields) {
	if u.log != nil {
		u.log.Debug(message, fields)
		return
	}
	logger.Debug(message, fields)
}
