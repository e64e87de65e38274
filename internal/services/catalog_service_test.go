package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"car-catalog-api/internal/catalog"
	"car-catalog-api/internal/config"
	"car-catalog-api/internal/models"
	"car-catalog-api/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers

func testConfig() *config.Config {
	return &config.Config{
		IdempotencyCacheTTL:             "1m",
		IdempotencyCacheCleanupInterval: "1m",
		PersistDebounce:                 "10ms",
		RefreshDebounce:                 "10ms",
		ReservationWorkerCount:          "2",
		ReservationQueueBufferSize:      "10",
		DefaultPageSize:                 "9",
	}
}

type stubSource struct {
	mu    sync.Mutex
	items []catalog.Item
	err   error
	saved [][]catalog.Item
}

func (s *stubSource) Load(context.Context) ([]catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]catalog.Item(nil), s.items...), nil
}

func (s *stubSource) Save(_ context.Context, items []catalog.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, items)
	return nil
}

func (s *stubSource) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

// gatedSource blocks each Load until its gate for that call is released
type gatedSource struct {
	mu      sync.Mutex
	calls   int
	results [][]catalog.Item
	gates   []chan struct{}
}

func (g *gatedSource) Load(ctx context.Context) ([]catalog.Item, error) {
	g.mu.Lock()
	n := g.calls
	g.calls++
	g.mu.Unlock()

	select {
	case <-g.gates[n]:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.results[n], nil
}

type stubConfirmer struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (c *stubConfirmer) ConfirmTokenPurchase(context.Context, string, string, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

// blockingConfirmer signals entered and holds each call until release yields a result
type blockingConfirmer struct {
	entered chan struct{}
	release chan error
}

func newBlockingConfirmer() *blockingConfirmer {
	return &blockingConfirmer{entered: make(chan struct{}, 1), release: make(chan error, 1)}
}

func (c *blockingConfirmer) ConfirmTokenPurchase(ctx context.Context, _, _, _ string) error {
	c.entered <- struct{}{}
	select {
	case err := <-c.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishEvent(eventType, _ string, _ *catalog.Item, _ int, _ uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func sampleCars() []catalog.Item {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []catalog.Item{
		{ID: "c1", Name: "Fortuner", Brand: "Toyota", Location: "Bangalore", Pincode: "560001", State: "Karnataka", AvailableTokens: 2, TotalTokens: 10, CreatedAt: base},
		{ID: "c2", Name: "City", Brand: "Honda", Location: "Mumbai", Pincode: "400001", State: "Maharashtra", AvailableTokens: 0, CreatedAt: base.Add(time.Hour)},
		{ID: "c3", Name: "Innova", Brand: "Toyota", Location: "Navi Mumbai", Pincode: "400703", State: "Maharashtra", AvailableTokens: 1, StopBookings: true, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "c4", Name: "Creta", Brand: "Hyundai", Location: "Pune", Pincode: "411001", State: "Maharashtra", AvailableTokens: 5, CreatedAt: base.Add(3 * time.Hour)},
	}
}

func newLoadedService(t *testing.T, confirmer Confirmer) (*CatalogService, *stubSource, *recordingPublisher) {
	t.Helper()
	src := &stubSource{items: sampleCars()}
	pub := &recordingPublisher{}
	svc := NewCatalogService(testConfig(), src, confirmer, pub)
	t.Cleanup(svc.Stop)
	require.NoError(t, svc.LoadInitial(context.Background()))
	return svc, src, pub
}

func ids(items []catalog.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// TestLoadInitial_FailureEntersErrorState tests the Loading -> Error transition
func TestLoadInitial_FailureEntersErrorState(t *testing.T) {
	// Arrange
	src := &stubSource{err: errors.New("backend down")}
	svc := NewCatalogService(testConfig(), src, nil, nil)
	defer svc.Stop()
	assert.Equal(t, catalog.StateLoading, svc.State())

	// Act
	err := svc.LoadInitial(context.Background())

	// Assert
	require.Error(t, err)
	assert.Equal(t, catalog.StateError, svc.State())
	res := svc.Browse(BrowseQuery{})
	assert.Empty(t, res.Page.Items)
	assert.Equal(t, 1, res.Page.TotalPages)
	assert.Equal(t, "backend down", svc.Stats().LastError)

	_, err = svc.GetCar("c1")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

// TestRefresh_RecoversFromError tests that a manual refresh is a full reload
func TestRefresh_RecoversFromError(t *testing.T) {
	src := &stubSource{err: errors.New("backend down")}
	svc := NewCatalogService(testConfig(), src, nil, nil)
	defer svc.Stop()
	require.Error(t, svc.LoadInitial(context.Background()))

	src.mu.Lock()
	src.err = nil
	src.items = sampleCars()
	src.mu.Unlock()

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, catalog.StateReady, svc.State())
	assert.Equal(t, 4, svc.Stats().ItemCount)
}

// TestRefresh_FailureKeepsReadySnapshot tests that a failed reload does not wipe good data
func TestRefresh_FailureKeepsReadySnapshot(t *testing.T) {
	svc, src, _ := newLoadedService(t, nil)

	src.mu.Lock()
	src.err = errors.New("timeout")
	src.mu.Unlock()

	assert.Error(t, svc.Refresh(context.Background()))
	assert.Equal(t, catalog.StateReady, svc.State())
	assert.Len(t, svc.Browse(BrowseQuery{}).Page.Items, 4)
}

// TestRefresh_GenerationGuard tests that an earlier load finishing last is discarded
func TestRefresh_GenerationGuard(t *testing.T) {
	// Arrange
	src := &gatedSource{
		results: [][]catalog.Item{
			{{ID: "old"}},
			{{ID: "new-1"}, {ID: "new-2"}},
		},
		gates: []chan struct{}{make(chan struct{}), make(chan struct{})},
	}
	// Loads only overlap when an upstream owns the catalog
	svc := NewCatalogService(testConfig(), src, &stubConfirmer{}, nil)
	defer svc.Stop()

	firstDone := make(chan error, 1)
	go func() { firstDone <- svc.Refresh(context.Background()) }()
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls == 1
	}, time.Second, 5*time.Millisecond)

	// Act
	secondDone := make(chan error, 1)
	go func() { secondDone <- svc.Refresh(context.Background()) }()
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls == 2
	}, time.Second, 5*time.Millisecond)

	close(src.gates[1])
	require.NoError(t, <-secondDone)
	close(src.gates[0])
	require.NoError(t, <-firstDone)

	// Assert
	items := svc.Browse(BrowseQuery{Sort: "name"}).Page.Items
	assert.Equal(t, []string{"new-1", "new-2"}, ids(items))
	assert.Equal(t, uint64(2), svc.Stats().Generation)
}

// TestBrowse_FiltersSortAndPaginate tests the query to view mapping
func TestBrowse_FiltersSortAndPaginate(t *testing.T) {
	svc, _, _ := newLoadedService(t, nil)

	tests := []struct {
		name  string
		query BrowseQuery
		want  []string
	}{
		{"default newest first", BrowseQuery{}, []string{"c4", "c3", "c2", "c1"}},
		{"brand", BrowseQuery{Brand: "toyota"}, []string{"c3", "c1"}},
		{"search", BrowseQuery{Search: "CRE"}, []string{"c4"}},
		{"pincode auto-detected", BrowseQuery{LocationSearch: "400703"}, []string{"c3"}},
		{"city substring", BrowseQuery{LocationSearch: "mumbai", Sort: "name"}, []string{"c2", "c3"}},
		{"forced city mode on digits", BrowseQuery{LocationSearch: "400703", LocationType: "city"}, []string{}},
		{"selected location", BrowseQuery{Location: "Pune"}, []string{"c4"}},
		{"state", BrowseQuery{State: "maharashtra", Sort: "name"}, []string{"c2", "c4", "c3"}},
		{"available", BrowseQuery{Type: "available", Sort: "name"}, []string{"c4", "c1"}},
		{"waitlist", BrowseQuery{Type: "waitlist", Sort: "name"}, []string{"c2", "c3"}},
		{"combined", BrowseQuery{Brand: "toyota", Type: "available"}, []string{"c1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Browse(tt.query)
			assert.Equal(t, tt.want, ids(res.Page.Items))
			assert.Equal(t, catalog.StateReady, res.State)
		})
	}
}

// TestBrowse_PageClampAndSize tests paging parameters
func TestBrowse_PageClampAndSize(t *testing.T) {
	svc, _, _ := newLoadedService(t, nil)

	res := svc.Browse(BrowseQuery{PageSize: 3, Page: 2})
	assert.Equal(t, []string{"c1"}, ids(res.Page.Items))
	assert.Equal(t, 2, res.Page.TotalPages)
	assert.True(t, res.Page.HasPrev)

	res = svc.Browse(BrowseQuery{PageSize: 3, Page: 99})
	assert.Equal(t, 2, res.Page.Page)

	res = svc.Browse(BrowseQuery{Brand: "toyota", Page: 5})
	assert.Equal(t, 1, res.Page.Page)
	assert.Equal(t, []string{"brand"}, res.Filters)
	assert.Equal(t, catalog.SortNewest, res.Sort)
}

// TestGetCar tests lookup by ID
func TestGetCar(t *testing.T) {
	svc, _, _ := newLoadedService(t, nil)

	car, err := svc.GetCar("c4")
	require.NoError(t, err)
	assert.Equal(t, "Creta", car.Name)

	_, err = svc.GetCar("missing")
	assert.ErrorIs(t, err, ErrCarNotFound)
}

type memSnapshot struct {
	mu    sync.Mutex
	items []catalog.Item
}

func (m *memSnapshot) Get(context.Context) ([]catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		return nil, errors.New("snapshot miss")
	}
	return append([]catalog.Item(nil), m.items...), nil
}

func (m *memSnapshot) Put(_ context.Context, items []catalog.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]catalog.Item(nil), items...)
	return nil
}

func (m *memSnapshot) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	return nil
}

// TestStats_ReportsSnapshotLoads tests that stats show whether the last load hit the snapshot
func TestStats_ReportsSnapshotLoads(t *testing.T) {
	// Arrange
	cached := storage.NewCachedSource(&stubSource{items: sampleCars()}, &memSnapshot{})
	svc := NewCatalogService(testConfig(), cached, nil, nil)
	defer svc.Stop()

	// Act
	require.NoError(t, svc.LoadInitial(context.Background()))
	cached.Wait()
	first := svc.Stats().SourceLoad
	require.NoError(t, svc.Refresh(context.Background()))
	second := svc.Stats().SourceLoad

	// Assert
	require.NotNil(t, first)
	assert.False(t, first.FromSnapshot)
	assert.Equal(t, 4, first.ItemCount)
	require.NotNil(t, second)
	assert.True(t, second.FromSnapshot)

	plain, _, _ := newLoadedService(t, nil)
	assert.Nil(t, plain.Stats().SourceLoad)
}

// TestReserveToken_Success tests the optimistic decrement with a good confirmation
func TestReserveToken_Success(t *testing.T) {
	// Arrange
	confirmer := &stubConfirmer{}
	svc, src, pub := newLoadedService(t, confirmer)

	// Act
	res, err := svc.ReserveToken(context.Background(), "c1", "pay_1", "key-1")

	// Assert
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 1, res.AvailableTokens)
	assert.NotEmpty(t, res.ReservationID)

	car, _ := svc.GetCar("c1")
	assert.Equal(t, catalog.Count(1), car.AvailableTokens)
	assert.Contains(t, pub.types(), models.EventTypeTokenReserved)
	assert.Eventually(t, func() bool { return src.saveCount() == 1 }, time.Second, 5*time.Millisecond)
}

// TestReserveToken_Idempotent tests that a repeated key replays the first result
func TestReserveToken_Idempotent(t *testing.T) {
	confirmer := &stubConfirmer{}
	svc, _, _ := newLoadedService(t, confirmer)

	first, err := svc.ReserveToken(context.Background(), "c1", "pay_1", "same")
	require.NoError(t, err)
	second, err := svc.ReserveToken(context.Background(), "c1", "pay_1", "same")
	require.NoError(t, err)

	assert.Equal(t, first.ReservationID, second.ReservationID)
	assert.Equal(t, 1, confirmer.calls)
	car, _ := svc.GetCar("c1")
	assert.Equal(t, catalog.Count(1), car.AvailableTokens)
}

// TestReserveToken_RollbackOnConfirmationFailure tests the rollback path
func TestReserveToken_RollbackOnConfirmationFailure(t *testing.T) {
	// Arrange
	confirmer := &stubConfirmer{err: errors.New("signature mismatch")}
	svc, src, pub := newLoadedService(t, confirmer)

	// Act
	res, err := svc.ReserveToken(context.Background(), "c1", "pay_1", "key-rb")

	// Assert
	require.ErrorIs(t, err, ErrConfirmationFailed)
	assert.Contains(t, err.Error(), "signature mismatch")
	assert.False(t, res.Applied)

	car, _ := svc.GetCar("c1")
	assert.Equal(t, catalog.Count(2), car.AvailableTokens)
	assert.Equal(t, []string{
		models.EventTypeCatalogRefreshed,
		models.EventTypeTokenReserved,
		models.EventTypeTokenReleased,
	}, pub.types())
	assert.Equal(t, 0, src.saveCount())

	// A retry with the same key is attempted again
	confirmer.mu.Lock()
	confirmer.err = nil
	confirmer.mu.Unlock()
	res, err = svc.ReserveToken(context.Background(), "c1", "pay_1", "key-rb")
	require.NoError(t, err)
	assert.True(t, res.Applied)
}

// TestReserveToken_RefreshDuringFailedConfirmation tests that a reload
// arriving mid-confirmation does not let the rollback inflate the fresh count
func TestReserveToken_RefreshDuringFailedConfirmation(t *testing.T) {
	// Arrange
	confirmer := newBlockingConfirmer()
	svc, src, _ := newLoadedService(t, confirmer)

	reserveDone := make(chan error, 1)
	go func() {
		_, err := svc.ReserveToken(context.Background(), "c1", "pay_1", "key-race")
		reserveDone <- err
	}()
	<-confirmer.entered

	// Act
	refreshDone := make(chan error, 1)
	go func() { refreshDone <- svc.Refresh(context.Background()) }()

	select {
	case <-refreshDone:
		t.Fatal("refresh swapped the snapshot during an in-flight reservation")
	case <-time.After(50 * time.Millisecond):
	}
	confirmer.release <- errors.New("payment declined")

	// Assert
	require.ErrorIs(t, <-reserveDone, ErrConfirmationFailed)
	require.NoError(t, <-refreshDone)

	car, err := svc.GetCar("c1")
	require.NoError(t, err)
	assert.Equal(t, sampleCars()[0].AvailableTokens, car.AvailableTokens)
	assert.Equal(t, uint64(2), svc.Stats().Generation)
	assert.Equal(t, 0, src.saveCount())
}

// persistingSource loads whatever was saved last
type persistingSource struct {
	mu    sync.Mutex
	items []catalog.Item
}

func (p *persistingSource) Load(context.Context) ([]catalog.Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]catalog.Item(nil), p.items...), nil
}

func (p *persistingSource) Save(_ context.Context, items []catalog.Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append([]catalog.Item(nil), items...)
	return nil
}

// TestRefresh_KeepsAppliedLocalReservation tests that a reload before the
// debounced save fires still sees the reservation
func TestRefresh_KeepsAppliedLocalReservation(t *testing.T) {
	// Arrange
	src := &persistingSource{items: sampleCars()}
	cfg := testConfig()
	cfg.PersistDebounce = "1h"
	svc := NewCatalogService(cfg, src, nil, nil)
	defer svc.Stop()
	require.NoError(t, svc.LoadInitial(context.Background()))

	res, err := svc.ReserveToken(context.Background(), "c1", "pay_1", "key-local")
	require.NoError(t, err)
	require.Equal(t, 1, res.AvailableTokens)

	// Act
	require.NoError(t, svc.Refresh(context.Background()))

	// Assert
	car, err := svc.GetCar("c1")
	require.NoError(t, err)
	assert.Equal(t, catalog.Count(1), car.AvailableTokens)

	// The last token can still be sold exactly once
	_, err = svc.ReserveToken(context.Background(), "c1", "pay_2", "")
	require.NoError(t, err)
	_, err = svc.ReserveToken(context.Background(), "c1", "pay_3", "")
	assert.ErrorIs(t, err, ErrNoTokens)
}

// TestReserveToken_ConfirmationIsBounded tests that a hung confirmation is
// cut off and rolled back while the caller is still waiting
func TestReserveToken_ConfirmationIsBounded(t *testing.T) {
	// Arrange
	confirmer := newBlockingConfirmer()
	src := &stubSource{items: sampleCars()}
	cfg := testConfig()
	cfg.ConfirmTimeout = "20ms"
	svc := NewCatalogService(cfg, src, confirmer, nil)
	defer svc.Stop()
	require.NoError(t, svc.LoadInitial(context.Background()))

	// Act
	res, err := svc.ReserveToken(context.Background(), "c1", "pay_1", "")

	// Assert
	require.ErrorIs(t, err, ErrConfirmationFailed)
	assert.ErrorContains(t, err, context.DeadlineExceeded.Error())
	require.NotNil(t, res)
	assert.NotEmpty(t, res.IdempotencyKey)
	assert.False(t, res.Applied)

	car, _ := svc.GetCar("c1")
	assert.Equal(t, catalog.Count(2), car.AvailableTokens)
}

// TestReserveToken_ReturnsIdempotencyKey tests that callers learn the key to retry with
func TestReserveToken_ReturnsIdempotencyKey(t *testing.T) {
	svc, _, _ := newLoadedService(t, &stubConfirmer{})

	generated, err := svc.ReserveToken(context.Background(), "c4", "pay_1", "")
	require.NoError(t, err)
	require.NotEmpty(t, generated.IdempotencyKey)

	replay, err := svc.ReserveToken(context.Background(), "c4", "pay_1", generated.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, generated.ReservationID, replay.ReservationID)
	assert.Equal(t, generated.IdempotencyKey, replay.IdempotencyKey)

	car, _ := svc.GetCar("c4")
	assert.Equal(t, catalog.Count(4), car.AvailableTokens)
}

// TestReserveToken_Conflicts tests rejection without tokens or with bookings stopped
func TestReserveToken_Conflicts(t *testing.T) {
	svc, _, _ := newLoadedService(t, &stubConfirmer{})

	_, err := svc.ReserveToken(context.Background(), "c2", "pay", "")
	assert.ErrorIs(t, err, ErrNoTokens)

	_, err = svc.ReserveToken(context.Background(), "c3", "pay", "")
	assert.ErrorIs(t, err, ErrBookingsStopped)

	_, err = svc.ReserveToken(context.Background(), "nope", "pay", "")
	assert.ErrorIs(t, err, ErrCarNotFound)
}

// TestReserveToken_NeverOversells tests concurrent reservations on the last tokens
func TestReserveToken_NeverOversells(t *testing.T) {
	svc, _, _ := newLoadedService(t, &stubConfirmer{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.ReserveToken(context.Background(), "c1", "pay", "")
			if err == nil && res.Applied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, applied)
	car, _ := svc.GetCar("c1")
	assert.Equal(t, catalog.Count(0), car.AvailableTokens)
}

// TestAdminSetCars tests partial updates and validation
func TestAdminSetCars(t *testing.T) {
	// Arrange
	svc, src, pub := newLoadedService(t, nil)
	name := "Fortuner Legender"
	tokens := 7
	negative := -1

	// Act
	resp := svc.AdminSetCars([]models.CarUpdate{
		{CarID: "c1", Name: &name, AvailableTokens: &tokens},
		{CarID: "c2", AvailableUnits: &negative},
		{CarID: "missing", Name: &name},
	})

	// Assert
	assert.Equal(t, models.BatchSummary{Total: 3, Succeeded: 1, Failed: 2}, resp.Summary)
	assert.True(t, resp.Results[0].Applied)
	assert.Contains(t, resp.Results[1].Error, "availableUnits must not be negative")
	assert.Contains(t, resp.Results[2].Error, "car not found")

	car, _ := svc.GetCar("c1")
	assert.Equal(t, "Fortuner Legender", car.Name)
	assert.Equal(t, catalog.Count(7), car.AvailableTokens)
	assert.Equal(t, "Toyota", car.Brand)
	assert.Contains(t, pub.types(), models.EventTypeCarUpdated)
	assert.Eventually(t, func() bool { return src.saveCount() == 1 }, time.Second, 5*time.Millisecond)
}

// TestAdminSetCars_PersistenceIsDebounced tests that a burst saves once
func TestAdminSetCars_PersistenceIsDebounced(t *testing.T) {
	svc, src, _ := newLoadedService(t, nil)
	stop := true

	for i := 0; i < 5; i++ {
		svc.AdminSetCars([]models.CarUpdate{{CarID: "c4", StopBookings: &stop}})
	}

	assert.Eventually(t, func() bool { return src.saveCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, src.saveCount())
}

// TestRequestRefresh_Debounced tests the admin refresh path
func TestRequestRefresh_Debounced(t *testing.T) {
	svc, src, _ := newLoadedService(t, nil)
	src.mu.Lock()
	src.items = append(src.items, catalog.Item{ID: "c5", Name: "Thar"})
	src.mu.Unlock()

	svc.RequestRefresh()
	svc.RequestRefresh()

	assert.Eventually(t, func() bool { return svc.Stats().ItemCount == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(2), svc.Stats().Generation)
}

// TestStop_FlushesPendingPersistence tests shutdown
func TestStop_FlushesPendingPersistence(t *testing.T) {
	src := &stubSource{items: sampleCars()}
	cfg := testConfig()
	cfg.PersistDebounce = "1h"
	svc := NewCatalogService(cfg, src, nil, nil)
	require.NoError(t, svc.LoadInitial(context.Background()))

	tokens := 3
	svc.AdminSetCars([]models.CarUpdate{{CarID: "c2", AvailableTokens: &tokens}})
	assert.Equal(t, 0, src.saveCount())

	svc.Stop()
	svc.Stop()

	require.Equal(t, 1, src.saveCount())
	assert.Equal(t, catalog.Count(3), src.saved[0][1].AvailableTokens)
}
