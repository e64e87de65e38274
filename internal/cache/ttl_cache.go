package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fake one.
type Clock func() time.Time

// Entry is a cached value with its insertion and expiration times
type Entry[V any] struct {
	Value     V
	StoredAt  time.Time
	ExpiresAt time.Time
}

// TTLCache is a thread-safe map whose entries expire a fixed duration after
// they were stored. Expired entries are treated as absent on read; they are
// only removed by the janitor, if one is running, or by being overwritten.
type TTLCache[V any] struct {
	name          string
	items         map[string]*Entry[V]
	mutex         sync.RWMutex
	ttl           time.Duration
	now           Clock
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// Option configures a TTLCache
type Option[V any] func(*TTLCache[V])

// WithClock overrides time.Now
func WithClock[V any](clock Clock) Option[V] {
	return func(c *TTLCache[V]) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithName labels the cache in log lines
func WithName[V any](name string) Option[V] {
	return func(c *TTLCache[V]) { c.name = name }
}

// NewTTLCache creates a cache. A cleanupInterval of zero disables the
// janitor goroutine and expired entries stay in memory until overwritten.
func NewTTLCache[V any](ttl, cleanupInterval time.Duration, opts ...Option[V]) *TTLCache[V] {
	c := &TTLCache[V]{
		name:        "cache",
		items:       make(map[string]*Entry[V]),
		ttl:         ttl,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cleanupInterval > 0 {
		c.cleanupTicker = time.NewTicker(cleanupInterval)
		go c.cleanupExpiredEntries()
	}

	slog.Info("TTL cache initialized",
		"name", c.name,
		"ttl", ttl.String(),
		"cleanup_interval", cleanupInterval.String())

	return c
}

// Set stores a value, replacing any previous entry and its timestamp
func (c *TTLCache[V]) Set(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	c.items[key] = &Entry[V]{
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}

	slog.Debug("Cache entry set",
		"name", c.name,
		"key", key,
		"expires_at", now.Add(c.ttl).Format(time.RFC3339))
}

// Get returns the value if present and younger than the TTL
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var zero V
	entry, exists := c.items[key]
	if !exists {
		return zero, false
	}

	if c.expired(entry, c.now()) {
		slog.Debug("Cache entry expired", "name", c.name, "key", key)
		return zero, false
	}

	return entry.Value, true
}

// Delete removes a specific key
func (c *TTLCache[V]) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Size returns the number of stored entries, expired ones included
func (c *TTLCache[V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// ActiveSize returns the number of non-expired entries
func (c *TTLCache[V]) ActiveSize() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := c.now()
	active := 0
	for _, entry := range c.items {
		if !c.expired(entry, now) {
			active++
		}
	}
	return active
}

// Clear removes every entry
func (c *TTLCache[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := len(c.items)
	c.items = make(map[string]*Entry[V])

	slog.Info("Cache cleared", "name", c.name, "removed_items", removed)
}

// Stop halts the janitor. Safe to call more than once.
func (c *TTLCache[V]) Stop() {
	c.stopOnce.Do(func() {
		if c.cleanupTicker != nil {
			c.cleanupTicker.Stop()
		}
		close(c.stopCleanup)
		slog.Info("TTL cache stopped", "name", c.name)
	})
}

// GetStats returns cache statistics for status endpoints
func (c *TTLCache[V]) GetStats() map[string]interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := c.now()
	active, expired := 0, 0
	for _, entry := range c.items {
		if c.expired(entry, now) {
			expired++
		} else {
			active++
		}
	}

	return map[string]interface{}{
		"name":            c.name,
		"total_entries":   len(c.items),
		"active_entries":  active,
		"expired_entries": expired,
		"ttl_duration":    c.ttl.String(),
	}
}

func (c *TTLCache[V]) expired(entry *Entry[V], now time.Time) bool {
	return !now.Before(entry.ExpiresAt)
}

func (c *TTLCache[V]) cleanupExpiredEntries() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.performCleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *TTLCache[V]) performCleanup() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.items {
		if c.expired(entry, now) {
			delete(c.items, key)
			removed++
		}
	}

	if removed > 0 {
		slog.Debug("Cache cleanup completed",
			"name", c.name,
			"expired_entries", removed,
			"remaining_entries", len(c.items))
	}
}
