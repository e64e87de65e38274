package storage

import (
	"context"

	"car-catalog-api/internal/catalog"
)

// CarFetcher is the part of the backend client the catalog needs
type CarFetcher interface {
	FetchCars(ctx context.Context) ([]catalog.Item, error)
}

// BackendSource loads the catalog from the booking backend. It is read-only.
type BackendSource struct {
	client CarFetcher
}

func NewBackendSource(client CarFetcher) *BackendSource {
	return &BackendSource{client: client}
}

func (s *BackendSource) Load(ctx context.Context) ([]catalog.Item, error) {
	return s.client.FetchCars(ctx)
}

func (s *BackendSource) String() string { return "backend" }
