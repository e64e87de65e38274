package suggest

import (
	"time"

	"car-catalog-api/internal/cache"
)

// DefaultCacheTTL is how long a remote lookup stays valid
const DefaultCacheTTL = 5 * time.Minute

// Cache memoizes suggestion lists by normalized query. It is owned by
// whoever constructs it; the server builds one per process and hands it to
// the Service. Entries are never evicted proactively, so the map grows with
// the number of distinct queries seen.
type Cache struct {
	store *cache.TTLCache[[]Suggestion]
}

// NewCache creates a cache. A nil clock means time.Now.
func NewCache(ttl time.Duration, clock cache.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		store: cache.NewTTLCache[[]Suggestion](ttl, 0,
			cache.WithClock[[]Suggestion](clock),
			cache.WithName[[]Suggestion]("suggestions")),
	}
}

// Get returns a copy of the cached list for query
func (c *Cache) Get(query string) ([]Suggestion, bool) {
	list, ok := c.store.Get(cacheKey(query))
	if !ok {
		return nil, false
	}
	return append([]Suggestion(nil), list...), true
}

// Put stores list for query, replacing any previous entry
func (c *Cache) Put(query string, list []Suggestion) {
	c.store.Set(cacheKey(query), append([]Suggestion(nil), list...))
}

// Clear drops every entry
func (c *Cache) Clear() {
	c.store.Clear()
}

// Len reports how many entries are stored, expired ones included
func (c *Cache) Len() int {
	return c.store.Size()
}

// Stats exposes the underlying cache statistics
func (c *Cache) Stats() map[string]interface{} {
	return c.store.GetStats()
}

func cacheKey(query string) string {
	return normalizeQuery(query)
}
