package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"car-catalog-api/internal/catalog"
)

// CachedSource serves loads from a Snapshot and falls back to the wrapped
// Source on any snapshot error. After a fallback the snapshot is repopulated
// in the background so the request path does not wait on it.
type CachedSource struct {
	inner    Source
	snapshot Snapshot
	timeout  time.Duration
	wg       sync.WaitGroup

	mu    sync.RWMutex
	stats LoadStats
}

func NewCachedSource(inner Source, snapshot Snapshot) *CachedSource {
	return &CachedSource{inner: inner, snapshot: snapshot, timeout: 5 * time.Second}
}

// Load tries the snapshot first
func (c *CachedSource) Load(ctx context.Context) ([]catalog.Item, error) {
	items, err := c.snapshot.Get(ctx)
	if err == nil {
		c.record(len(items), true)
		return items, nil
	}
	slog.Info("Catalog snapshot unavailable, loading from source",
		"source", sourceName(c.inner),
		"reason", err)

	items, err = c.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.record(len(items), false)

	c.repopulate(items)
	return items, nil
}

// Save writes through to the source when it can persist, then refreshes the snapshot
func (c *CachedSource) Save(ctx context.Context, items []catalog.Item) error {
	if saver, ok := c.inner.(Saver); ok {
		if err := saver.Save(ctx, items); err != nil {
			return fmt.Errorf("save to %s: %w", sourceName(c.inner), err)
		}
	}
	if err := c.snapshot.Put(ctx, items); err != nil {
		slog.Warn("Failed to refresh catalog snapshot after save", "error", err)
		if invErr := c.snapshot.Invalidate(ctx); invErr != nil {
			slog.Warn("Failed to invalidate catalog snapshot", "error", invErr)
		}
	}
	return nil
}

// Invalidate drops the snapshot so the next Load reads the source
func (c *CachedSource) Invalidate(ctx context.Context) error {
	return c.snapshot.Invalidate(ctx)
}

// Stats describes the last load
func (c *CachedSource) Stats() LoadStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Wait blocks until background repopulation has finished
func (c *CachedSource) Wait() {
	c.wg.Wait()
}

func (c *CachedSource) String() string {
	return sourceName(c.inner) + "+snapshot"
}

func (c *CachedSource) repopulate(items []catalog.Item) {
	snapshot := append([]catalog.Item(nil), items...)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.snapshot.Put(ctx, snapshot); err != nil {
			slog.Warn("Failed to populate catalog snapshot", "error", err)
			return
		}
		slog.Debug("Catalog snapshot populated", "car_count", len(snapshot))
	}()
}

func (c *CachedSource) record(n int, fromSnapshot bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = LoadStats{
		Source:       sourceName(c.inner),
		ItemCount:    n,
		LastLoadTime: time.Now(),
		FromSnapshot: fromSnapshot,
	}
}

func sourceName(s Source) string {
	if named, ok := s.(fmt.Stringer); ok {
		return named.String()
	}
	return fmt.Sprintf("%T", s)
}
