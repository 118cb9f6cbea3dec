package fragment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	SortLinkSelector   = ".sort-menu a"
	FilterFormSelector = "#filter-form"
	DefaultResultsPath = "/home"
)

var (
	// ErrNoResultsContainer is returned when a page has no results container to update.
	ErrNoResultsContainer = errors.New("page has no results container")
	// ErrNoFilterForm is returned when a page has no filter form.
	ErrNoFilterForm = errors.New("page has no filter form")
	// ErrLinkNotFound is returned when no sort link matches.
	ErrLinkNotFound = errors.New("sort link not found")
)

// Page is a live document bound to an Updater: its sort links and filter
// form update the results container in place.
type Page struct {
	doc         *goquery.Document
	base        *url.URL
	updater     *Updater
	results     *Container
	resultsPath string
}

// Bind attaches the updater to a live document loaded from pageURL. Binding
// the same document again returns the Page from the first call, so every
// action is handled exactly once.
func (u *Updater) Bind(doc *goquery.Document, pageURL string) (*Page, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if p, ok := u.pages[doc]; ok {
		return p, nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL: %w", err)
	}

	results := doc.Find(u.selector).First()
	if results.Length() == 0 {
		return nil, ErrNoResultsContainer
	}

	p := &Page{
		doc:         doc,
		base:        base,
		updater:     u,
		results:     NewContainer(results),
		resultsPath: DefaultResultsPath,
	}
	u.pages[doc] = p
	return p, nil
}

// Unbind releases a document bound with Bind. Long-lived updaters must
// unbind documents they are done with; the Page stays usable on its own.
// Binding the document again afterwards creates a new Page.
func (u *Updater) Unbind(doc *goquery.Document) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.pages, doc)
}

// Unbind releases the page's document from its updater
func (p *Page) Unbind() {
	p.updater.Unbind(p.doc)
}

// SetResultsPath changes the path the filter form submits to.
func (p *Page) SetResultsPath(path string) {
	if path != "" {
		p.resultsPath = path
	}
}

// Results returns the live results container
func (p *Page) Results() *Container {
	return p.results
}

// Document returns the bound document
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// SortLinks returns the links of the sort menu
func (p *Page) SortLinks() *goquery.Selection {
	return p.doc.Find(SortLinkSelector)
}

// FindSortLink returns the sort link whose text or href equals key
// (case-insensitive for the text).
func (p *Page) FindSortLink(key string) (*goquery.Selection, error) {
	key = strings.TrimSpace(key)
	var found *goquery.Selection

	p.SortLinks().EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		text := strings.Join(strings.Fields(link.Text()), " ")
		if href == key || strings.EqualFold(text, key) {
			found = link
			return false
		}
		return true
	})

	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrLinkNotFound, key)
	}
	return found, nil
}

// ClickSort follows a sort link as a fragment request. The link's own
// destination is used as is, resolved against the page URL.
func (p *Page) ClickSort(ctx context.Context, link *goquery.Selection) (Outcome, error) {
	href, _ := link.Attr("href")
	target, err := p.resolve(href)
	if err != nil {
		return OutcomeFailed, err
	}
	return p.updater.Fetch(ctx, p.results, target)
}

// FilterForm returns the filter form
func (p *Page) FilterForm() (*goquery.Selection, error) {
	form := p.doc.Find(FilterFormSelector).First()
	if form.Length() == 0 {
		return nil, ErrNoFilterForm
	}
	return form, nil
}

// FilterURL returns the URL the filter form submits to: the results path
// followed by the encoded form fields.
func (p *Page) FilterURL() (string, error) {
	form, err := p.FilterForm()
	if err != nil {
		return "", err
	}
	return p.resolve(p.resultsPath + "?" + EncodeForm(form))
}

// SubmitFilter submits the filter form as a fragment request.
func (p *Page) SubmitFilter(ctx context.Context) (Outcome, error) {
	target, err := p.FilterURL()
	if err != nil {
		return OutcomeFailed, err
	}
	return p.updater.Fetch(ctx, p.results, target)
}

func (p *Page) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing link %q: %w", ref, err)
	}
	return p.base.ResolveReference(u).String(), nil
}
