package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"car-catalog-api/internal/catalog"
)

// FileSource keeps the catalog in a JSON file on disk
type FileSource struct {
	mu       sync.Mutex
	dataFile string
}

type fileData struct {
	Cars     []catalog.Item `json:"cars"`
	Metadata fileMetadata   `json:"metadata"`
}

type fileMetadata struct {
	LastUpdated time.Time `json:"lastUpdated"`
	CarCount    int       `json:"carCount"`
}

// NewFileSource creates a file-backed source. The directory is created if needed.
func NewFileSource(path string) *FileSource {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Warn("Failed to create data directory", "path", dir, "error", err)
		}
	}
	return &FileSource{dataFile: path}
}

// Load reads the file. A missing file is an empty catalog; the file may hold
// either {"cars": [...]} or a bare array.
func (fs *FileSource) Load(ctx context.Context) ([]catalog.Item, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fs.dataFile)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("Catalog file not found, starting empty", "path", fs.dataFile)
			return []catalog.Item{}, nil
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var wrapped fileData
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Cars != nil {
		return wrapped.Cars, nil
	}

	var bare []catalog.Item
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("failed to decode catalog file %s: %w", fs.dataFile, err)
	}
	if bare == nil {
		bare = []catalog.Item{}
	}
	return bare, nil
}

// Save writes the list atomically through a temp file and rename
func (fs *FileSource) Save(ctx context.Context, items []catalog.Item) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(fileData{
		Cars: items,
		Metadata: fileMetadata{
			LastUpdated: time.Now().UTC(),
			CarCount:    len(items),
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling catalog data: %w", err)
	}

	tempFilePath := fs.dataFile + ".tmp"
	if err := os.WriteFile(tempFilePath, jsonData, 0644); err != nil {
		return fmt.Errorf("error writing temp file: %w", err)
	}

	if err := os.Rename(tempFilePath, fs.dataFile); err != nil {
		os.Remove(tempFilePath)
		return fmt.Errorf("error replacing catalog file: %w", err)
	}

	slog.Debug("Catalog saved to file", "path", fs.dataFile, "car_count", len(items))
	return nil
}

func (fs *FileSource) String() string { return "file" }
