package geocode

import (
	"strings"
	"sync"
	"time"
)

// Cache holds lookup results in memory with a TTL.
// Negative results (no candidates) are cached too.
type Cache struct {
	mu       sync.Mutex
	entries  map[string][]Candidate
	cachedAt map[string]time.Time
	TTL      time.Duration
}

// NewCache creates an empty cache with the given TTL
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries:  make(map[string][]Candidate),
		cachedAt: make(map[string]time.Time),
		TTL:      ttl,
	}
}

// Get retrieves candidates for a query if present and not expired
func (c *Cache) Get(query string) ([]Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query)
	candidates, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	cachedTime, hasTime := c.cachedAt[key]
	if !hasTime || time.Since(cachedTime) > c.TTL {
		delete(c.entries, key)
		delete(c.cachedAt, key)
		return nil, false
	}

	return candidates, true
}

// Set stores candidates for a query
func (c *Cache) Set(query string, candidates []Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query)
	c.entries[key] = candidates
	c.cachedAt[key] = time.Now()
}

// CleanExpired removes expired entries from cache
func (c *Cache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := time.Now()
	for key, cachedTime := range c.cachedAt {
		if now.Sub(cachedTime) > c.TTL {
			delete(c.entries, key)
			delete(c.cachedAt, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of cached entries
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
