package fragment

import (
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Container is the live element whose content gets replaced.
// Reads and replacements are serialized so concurrent responses can't
// interleave inside the document tree.
type Container struct {
	mu  sync.Mutex
	sel *goquery.Selection
}

// NewContainer wraps the first element of sel
func NewContainer(sel *goquery.Selection) *Container {
	return &Container{sel: sel.First()}
}

// HTML returns the container's current inner HTML
func (c *Container) HTML() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.Html()
}

// Text returns the container's text content
func (c *Container) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.Text()
}

// Replace sets the container's inner HTML
func (c *Container) Replace(inner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel.SetHtml(inner)
}

// Selection exposes the wrapped element. Callers must not mutate it while
// requests are in flight.
func (c *Container) Selection() *goquery.Selection {
	return c.sel
}
