package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"car-catalog-api/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshot struct {
	mu          sync.Mutex
	items       []catalog.Item
	getErr      error
	putErr      error
	puts        int
	invalidated int
}

func (f *fakeSnapshot) Get(context.Context) ([]catalog.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.items == nil {
		return nil, ErrSnapshotMiss
	}
	return f.items, nil
}

func (f *fakeSnapshot) Put(_ context.Context, items []catalog.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.items = items
	return nil
}

func (f *fakeSnapshot) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	f.items = nil
	return nil
}

type countingSource struct {
	items []catalog.Item
	err   error
	loads int
	saved []catalog.Item
}

func (s *countingSource) Load(context.Context) ([]catalog.Item, error) {
	s.loads++
	return s.items, s.err
}

func (s *countingSource) FetchCars(ctx context.Context) ([]catalog.Item, error) {
	return s.Load(ctx)
}

func (s *countingSource) Save(_ context.Context, items []catalog.Item) error {
	s.saved = items
	return nil
}

func (s *countingSource) String() string { return "counting" }

// TestFileSource_SaveThenLoad tests the atomic write and read back
func TestFileSource_SaveThenLoad(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "data", "cars.json")
	fs := NewFileSource(path)
	items := []catalog.Item{{ID: "CAR-1", Name: "Nexon", Price: "₹9,99,000", AvailableTokens: 4}}

	// Act
	require.NoError(t, fs.Save(context.Background(), items))
	loaded, err := fs.Load(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Nexon", loaded[0].Name)
	assert.Equal(t, catalog.Count(4), loaded[0].AvailableTokens)
	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr), "temp file must be renamed away")
}

// TestFileSource_MissingFileIsEmpty tests first-run behaviour
func TestFileSource_MissingFileIsEmpty(t *testing.T) {
	fs := NewFileSource(filepath.Join(t.TempDir(), "none.json"))

	items, err := fs.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, items)
}

// TestFileSource_BareArray tests the alternate file layout
func TestFileSource_BareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"A","name":"Alto","totalUnits":"10"}]`), 0644))

	items, err := NewFileSource(path).Load(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, catalog.Count(10), items[0].TotalUnits)
}

// TestFileSource_CorruptFile tests decode errors
func TestFileSource_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := NewFileSource(path).Load(context.Background())
	assert.Error(t, err)
}

// TestCachedSource_SnapshotHit tests that a hit skips the source
func TestCachedSource_SnapshotHit(t *testing.T) {
	snap := &fakeSnapshot{items: []catalog.Item{{ID: "cached"}}}
	src := &countingSource{items: []catalog.Item{{ID: "fresh"}}}
	cs := NewCachedSource(src, snap)

	items, err := cs.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "cached", items[0].ID)
	assert.Equal(t, 0, src.loads)
	assert.True(t, cs.Stats().FromSnapshot)
}

// TestCachedSource_MissFallsBackAndRepopulates tests the fallback path
func TestCachedSource_MissFallsBackAndRepopulates(t *testing.T) {
	// Arrange
	snap := &fakeSnapshot{getErr: errors.New("redis down")}
	src := &countingSource{items: []catalog.Item{{ID: "fresh"}}}
	cs := NewCachedSource(src, snap)

	// Act
	items, err := cs.Load(context.Background())
	cs.Wait()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "fresh", items[0].ID)
	assert.Equal(t, 1, src.loads)
	assert.Equal(t, 1, snap.puts)
	assert.False(t, cs.Stats().FromSnapshot)
	assert.Equal(t, "counting", cs.Stats().Source)
}

// TestCachedSource_SourceErrorPropagates tests that a double failure surfaces
func TestCachedSource_SourceErrorPropagates(t *testing.T) {
	cs := NewCachedSource(&countingSource{err: errors.New("db down")}, &fakeSnapshot{})

	_, err := cs.Load(context.Background())
	assert.EqualError(t, err, "db down")
}

// TestCachedSource_SaveWritesThrough tests persistence and snapshot refresh
func TestCachedSource_SaveWritesThrough(t *testing.T) {
	snap := &fakeSnapshot{}
	src := &countingSource{}
	cs := NewCachedSource(src, snap)
	items := []catalog.Item{{ID: "x"}}

	require.NoError(t, cs.Save(context.Background(), items))

	assert.Equal(t, items, src.saved)
	got, err := snap.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

// TestCachedSource_SnapshotPutFailureInvalidates tests stale snapshot protection
func TestCachedSource_SnapshotPutFailureInvalidates(t *testing.T) {
	snap := &fakeSnapshot{items: []catalog.Item{{ID: "old"}}, putErr: errors.New("oom")}
	cs := NewCachedSource(&countingSource{}, snap)

	require.NoError(t, cs.Save(context.Background(), []catalog.Item{{ID: "new"}}))

	assert.Equal(t, 1, snap.invalidated)
	_, err := snap.Get(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotMiss)
}

// TestBackendSource_Delegates tests the adapter
func TestBackendSource_Delegates(t *testing.T) {
	src := NewBackendSource(&countingSource{items: []catalog.Item{{ID: "b"}}})

	items, err := src.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "backend", src.String())
}
