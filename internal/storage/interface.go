package storage

import (
	"context"
	"errors"
	"time"

	"car-catalog-api/internal/catalog"
)

// ErrSnapshotMiss is returned by a Snapshot that holds nothing usable
var ErrSnapshotMiss = errors.New("catalog snapshot miss")

// Source loads the full car list
type Source interface {
	Load(ctx context.Context) ([]catalog.Item, error)
}

// Saver is implemented by sources that can persist the list back
type Saver interface {
	Save(ctx context.Context, items []catalog.Item) error
}

// Snapshot is a fast cache in front of a Source
type Snapshot interface {
	Get(ctx context.Context) ([]catalog.Item, error)
	Put(ctx context.Context, items []catalog.Item) error
	Invalidate(ctx context.Context) error
}

// LoadStats describes the most recent load for the health endpoint
type LoadStats struct {
	Source       string    `json:"source"`
	ItemCount    int       `json:"itemCount"`
	LastLoadTime time.Time `json:"lastLoadTime"`
	FromSnapshot bool      `json:"fromSnapshot"`
}
