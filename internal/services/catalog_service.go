package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"car-catalog-api/internal/cache"
	"car-catalog-api/internal/catalog"
	"car-catalog-api/internal/config"
	"car-catalog-api/internal/debounce"
	"car-catalog-api/internal/models"
	"car-catalog-api/internal/storage"

	"github.com/google/uuid"
)

// DefaultConfirmTimeout bounds one upstream confirmation. It stays below
// the backend client's own timeout so the deadline here is the one that fires.
const DefaultConfirmTimeout = 20 * time.Second

// resultSlack is how much longer than a confirmation a caller waits for the
// worker, covering the decrement and the rollback around it.
const resultSlack = 5 * time.Second

var (
	ErrCarNotFound         = errors.New("car not found")
	ErrNoTokens            = errors.New("no tokens available")
	ErrBookingsStopped     = errors.New("bookings stopped for this car")
	ErrConfirmationFailed  = errors.New("token purchase confirmation failed")
	ErrCatalogUnavailable  = errors.New("catalog not loaded")
	ErrInvalidUpdate       = errors.New("invalid car update")
	ErrReservationTimedOut = errors.New("reservation timed out")
)

// Confirmer confirms a token purchase with the system of record
type Confirmer interface {
	ConfirmTokenPurchase(ctx context.Context, carID, reservationID, paymentID string) error
}

// EventPublisher receives catalog change events
type EventPublisher interface {
	PublishEvent(eventType, carID string, car *catalog.Item, itemCount int, generation uint64)
}

// CatalogService owns the in-memory car snapshot. The slice held in items is
// never modified in place; every mutation swaps in a new copy so readers can
// use the slice they got without holding the lock.
type CatalogService struct {
	source    storage.Source
	confirmer Confirmer
	publisher EventPublisher

	// mutationMu is held shared by reservations and admin updates and
	// exclusively by the snapshot swap in Refresh.
	mutationMu sync.RWMutex

	mu         sync.RWMutex
	items      []catalog.Item
	index      map[string]int
	state      catalog.State
	loadErr    error
	appliedGen uint64
	lastLoad   time.Time

	startedGen atomic.Uint64

	carLockManager   *CarLockManager
	idempotencyCache *cache.TTLCache[*ReservationResult]
	persister        *debounce.Debouncer
	refresher        *debounce.Debouncer

	defaultPageSize  int
	confirmTimeout   time.Duration
	workerCount      int
	reservationQueue chan *reservationRequest
	stopWorkers      chan struct{}
	workersWaitGroup sync.WaitGroup
	stopOnce         sync.Once
}

// ReservationResult is the outcome of a token reservation
type ReservationResult struct {
	CarID           string
	IdempotencyKey  string
	ReservationID   string
	AvailableTokens int
	Applied         bool
	ReservedAt      string
	Err             error
}

type reservationRequest struct {
	ctx            context.Context
	CarID          string
	PaymentID      string
	IdempotencyKey string
	ResponseChan   chan *ReservationResult
}

// BrowseQuery carries the listing parameters of GET /v1/cars
type BrowseQuery struct {
	Search         string
	Type           string
	Brand          string
	LocationSearch string
	LocationType   string
	Location       string
	State          string
	Sort           string
	Page           int
	PageSize       int
}

// BrowseResult is one derived page plus the view inputs that produced it
type BrowseResult struct {
	Page    catalog.Page[catalog.Item]
	State   catalog.State
	Sort    catalog.SortSpec
	Filters []string
}

// CatalogStats is reported by the health endpoint
type CatalogStats struct {
	State        string    `json:"state"`
	ItemCount    int       `json:"itemCount"`
	Generation   uint64    `json:"generation"`
	LastLoadTime time.Time `json:"lastLoadTime,omitempty"`
	LastError    string    `json:"lastError,omitempty"`
	Source       string    `json:"source"`
	// SourceLoad is set when the source reports where its last load came from
	SourceLoad *storage.LoadStats `json:"sourceLoad,omitempty"`
}

// NewCatalogService creates the service and starts the reservation workers.
// confirmer and publisher may be nil. The catalog stays Loading until
// LoadInitial or Refresh runs.
func NewCatalogService(cfg *config.Config, source storage.Source, confirmer Confirmer, publisher EventPublisher) *CatalogService {
	cacheTTL := config.ParseDuration("IDEMPOTENCY_CACHE_TTL", cfg.IdempotencyCacheTTL, 2*time.Minute)
	cleanupInterval := config.ParseDuration("IDEMPOTENCY_CACHE_CLEANUP_INTERVAL", cfg.IdempotencyCacheCleanupInterval, 30*time.Second)
	persistDebounce := config.ParseDuration("PERSIST_DEBOUNCE", cfg.PersistDebounce, 2*time.Second)
	refreshDebounce := config.ParseDuration("REFRESH_DEBOUNCE", cfg.RefreshDebounce, time.Second)
	workerCount := config.ParsePositiveInt("RESERVATION_WORKER_COUNT", cfg.ReservationWorkerCount, 1)
	queueBufferSize := config.ParsePositiveInt("RESERVATION_QUEUE_BUFFER_SIZE", cfg.ReservationQueueBufferSize, 100)
	pageSize := config.ParsePositiveInt("DEFAULT_PAGE_SIZE", cfg.DefaultPageSize, catalog.DefaultPageSize)
	confirmTimeout := config.ParseDuration("CONFIRM_TIMEOUT", cfg.ConfirmTimeout, DefaultConfirmTimeout)

	s := &CatalogService{
		source:           source,
		confirmer:        confirmer,
		publisher:        publisher,
		index:            make(map[string]int),
		state:            catalog.StateLoading,
		carLockManager:   NewCarLockManager(),
		idempotencyCache: cache.NewTTLCache[*ReservationResult](cacheTTL, cleanupInterval, cache.WithName[*ReservationResult]("idempotency")),
		defaultPageSize:  pageSize,
		confirmTimeout:   confirmTimeout,
		workerCount:      workerCount,
		reservationQueue: make(chan *reservationRequest, queueBufferSize),
		stopWorkers:      make(chan struct{}),
	}
	s.persister = debounce.New(persistDebounce, s.persist)
	s.refresher = debounce.New(refreshDebounce, s.refreshInBackground)

	s.startWorkerPool()

	slog.Info("Catalog service initialized",
		"source", sourceLabel(source),
		"worker_count", workerCount,
		"queue_buffer_size", queueBufferSize,
		"cache_ttl", cacheTTL.String(),
		"persist_debounce", persistDebounce.String(),
		"confirm_timeout", confirmTimeout.String(),
		"default_page_size", pageSize)

	return s
}

// LoadInitial performs the first load. On failure the catalog is left in
// the Error state with an empty list and is not retried automatically.
func (s *CatalogService) LoadInitial(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh reloads the full list from the source. Each call takes a new
// generation number; a result is only applied when no newer generation has
// been applied already, so a slow earlier load cannot overwrite a newer one.
//
// The swap waits for in-flight reservations and admin updates, so a rollback
// never lands on a snapshot it did not decrement. Without an upstream
// confirmer the local snapshot is the newest truth: pending changes are
// flushed to the source and the load itself runs under the lock, so an
// applied reservation cannot be replaced by an older copy.
func (s *CatalogService) Refresh(ctx context.Context) error {
	gen := s.startedGen.Add(1)
	start := time.Now()

	local := s.confirmer == nil
	if local {
		s.mutationMu.Lock()
		defer s.mutationMu.Unlock()
		s.persister.Flush()
	}

	items, err := s.source.Load(ctx)

	if !local {
		s.mutationMu.Lock()
		defer s.mutationMu.Unlock()
	}

	s.mu.Lock()
	if gen < s.appliedGen {
		s.mu.Unlock()
		slog.Info("Discarding stale catalog load",
			"generation", gen,
			"applied_generation", s.appliedGen,
			"error", err)
		return nil
	}

	if err != nil {
		if s.state != catalog.StateReady {
			s.state = catalog.StateError
			s.loadErr = err
			s.items = nil
			s.index = make(map[string]int)
		}
		state := s.state
		s.mu.Unlock()

		slog.Error("Catalog load failed",
			"generation", gen,
			"state", state.String(),
			"error", err)
		return fmt.Errorf("load catalog: %w", err)
	}

	s.setItemsLocked(items)
	s.state = catalog.StateReady
	s.loadErr = nil
	s.appliedGen = gen
	s.lastLoad = time.Now()
	active := make(map[string]bool, len(items))
	for _, it := range items {
		active[it.ID] = true
	}
	s.mu.Unlock()

	s.carLockManager.CleanupUnusedLocks(active)
	s.publish(models.EventTypeCatalogRefreshed, "", nil, len(items), gen)

	slog.Info("Catalog loaded",
		"generation", gen,
		"car_count", len(items),
		"duration", time.Since(start).String())
	return nil
}

// RequestRefresh schedules a debounced reload that bypasses any snapshot cache
func (s *CatalogService) RequestRefresh() {
	s.refresher.Trigger()
}

func (s *CatalogService) refreshInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if inv, ok := s.source.(interface{ Invalidate(context.Context) error }); ok {
		if err := inv.Invalidate(ctx); err != nil {
			slog.Warn("Failed to invalidate catalog snapshot before refresh", "error", err)
		}
	}
	if err := s.Refresh(ctx); err != nil {
		slog.Warn("Background catalog refresh failed", "error", err)
	}
}

// State returns the lifecycle state of the snapshot
func (s *CatalogService) State() catalog.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Browse derives one page of the catalog from the query
func (s *CatalogService) Browse(q BrowseQuery) BrowseResult {
	s.mu.RLock()
	items, state, loadErr := s.items, s.state, s.loadErr
	s.mu.RUnlock()

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}

	view := catalog.NewView(pageSize)
	switch state {
	case catalog.StateReady:
		view.Load(items)
	case catalog.StateError:
		view.Fail(loadErr)
	}

	if q.Search != "" {
		view.SetFilter(catalog.MatchSearch(q.Search))
	}
	if q.Brand != "" {
		view.SetFilter(catalog.MatchBrand(q.Brand))
	}
	if q.Type != "" {
		view.SetFilter(catalog.MatchAvailability(q.Type))
	}
	if q.State != "" {
		view.SetFilter(catalog.MatchState(q.State))
	}
	// A selected location narrows by city; typed input wins when both are present.
	if q.Location != "" {
		view.SetFilter(catalog.MatchLocation(q.Location, catalog.LocationModeCity))
	}
	if q.LocationSearch != "" {
		view.SetFilter(catalog.MatchLocation(q.LocationSearch, locationMode(q.LocationType)))
	}
	if q.Sort != "" {
		spec, ok := catalog.ParseSortSpec(q.Sort)
		if !ok {
			slog.Debug("Unknown sort, using default", "sort", q.Sort, "default", spec)
		}
		view.SetSort(spec)
	}
	if q.Page > 0 {
		view.SetPage(q.Page)
	}

	return BrowseResult{
		Page:    view.Visible(),
		State:   view.State(),
		Sort:    view.Sort(),
		Filters: view.Filters(),
	}
}

func locationMode(t string) string {
	switch t {
	case catalog.LocationModePincode, catalog.LocationModeCity:
		return t
	default:
		return catalog.LocationModeAuto
	}
}

// GetCar returns a single car by ID
func (s *CatalogService) GetCar(carID string) (catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != catalog.StateReady {
		return catalog.Item{}, ErrCatalogUnavailable
	}
	idx, ok := s.index[carID]
	if !ok {
		return catalog.Item{}, fmt.Errorf("%w: %s", ErrCarNotFound, carID)
	}
	return s.items[idx], nil
}

// ReserveToken submits a reservation to the worker queue and waits for the result
func (s *CatalogService) ReserveToken(ctx context.Context, carID, paymentID, idempotencyKey string) (*ReservationResult, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	responseChan := make(chan *ReservationResult, 1)
	req := &reservationRequest{
		ctx:            ctx,
		CarID:          carID,
		PaymentID:      paymentID,
		IdempotencyKey: idempotencyKey,
		ResponseChan:   responseChan,
	}

	slog.Debug("Submitting reservation to queue",
		"car_id", carID,
		"idempotency_key", idempotencyKey)

	select {
	case s.reservationQueue <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		err := fmt.Errorf("%w: queue full", ErrReservationTimedOut)
		return &ReservationResult{CarID: carID, IdempotencyKey: idempotencyKey, Err: err}, err
	}

	// The confirmation is bounded by confirmTimeout, so a caller that gives up
	// here has outwaited it; the key lets a retry find the stored outcome.
	select {
	case result := <-responseChan:
		out := *result
		out.IdempotencyKey = idempotencyKey
		return &out, out.Err
	case <-ctx.Done():
		return &ReservationResult{CarID: carID, IdempotencyKey: idempotencyKey, Err: ctx.Err()}, ctx.Err()
	case <-time.After(s.confirmTimeout + resultSlack):
		err := fmt.Errorf("%w: waiting for result", ErrReservationTimedOut)
		return &ReservationResult{CarID: carID, IdempotencyKey: idempotencyKey, Err: err}, err
	}
}

func (s *CatalogService) startWorkerPool() {
	slog.Info("Starting reservation worker pool", "worker_count", s.workerCount)

	for i := 0; i < s.workerCount; i++ {
		s.workersWaitGroup.Add(1)
		go s.processReservationWorker(i + 1)
	}
}

func (s *CatalogService) processReservationWorker(workerID int) {
	defer s.workersWaitGroup.Done()

	for {
		select {
		case req := <-s.reservationQueue:
			result := s.processReservation(req)

			select {
			case req.ResponseChan <- result:
				slog.Debug("Reservation processed by worker",
					"worker_id", workerID,
					"car_id", req.CarID,
					"applied", result.Applied)
			case <-time.After(5 * time.Second):
				slog.Error("Timeout sending reservation result",
					"worker_id", workerID,
					"car_id", req.CarID,
					"idempotency_key", req.IdempotencyKey)
			}
		case <-s.stopWorkers:
			slog.Debug("Stopping reservation worker", "worker_id", workerID)
			return
		}
	}
}

// processReservation decrements optimistically, confirms, and rolls back when
// the confirmation fails. The car's write lock is held throughout so an admin
// update cannot interleave with the rollback, and mutationMu keeps a refresh
// from swapping the snapshot between the decrement and the rollback.
func (s *CatalogService) processReservation(req *reservationRequest) *ReservationResult {
	cacheKey := req.CarID + "/" + req.IdempotencyKey
	if cached, ok := s.idempotencyCache.Get(cacheKey); ok {
		slog.Info("Idempotent reservation detected, returning cached result",
			"idempotency_key", req.IdempotencyKey,
			"car_id", req.CarID)
		return cached
	}

	s.mutationMu.RLock()
	defer s.mutationMu.RUnlock()

	var result *ReservationResult
	s.carLockManager.WithCarWriteLock(req.CarID, func() {
		reserved, err := s.updateCar(req.CarID, func(it catalog.Item) (catalog.Item, error) {
			if it.BookingsStopped() {
				return it, ErrBookingsStopped
			}
			if it.AvailableTokens <= 0 {
				return it, ErrNoTokens
			}
			return it.WithTokenDelta(-1), nil
		})
		if err != nil {
			result = &ReservationResult{CarID: req.CarID, Err: err}
			if !errors.Is(err, ErrCarNotFound) && !errors.Is(err, ErrCatalogUnavailable) {
				s.idempotencyCache.Set(cacheKey, result)
			}
			slog.Warn("Reservation rejected",
				"car_id", req.CarID,
				"idempotency_key", req.IdempotencyKey,
				"error", err)
			return
		}

		reservationID := uuid.NewString()
		gen := s.generation()
		s.publish(models.EventTypeTokenReserved, req.CarID, &reserved, 0, gen)

		if err := s.confirm(req.ctx, req.CarID, reservationID, req.PaymentID); err != nil {
			restored, rbErr := s.updateCar(req.CarID, func(it catalog.Item) (catalog.Item, error) {
				return it.WithTokenDelta(1), nil
			})
			if rbErr != nil {
				slog.Error("Failed to roll back token reservation",
					"car_id", req.CarID,
					"reservation_id", reservationID,
					"error", rbErr)
			} else {
				s.publish(models.EventTypeTokenReleased, req.CarID, &restored, 0, gen)
			}

			slog.Warn("Token confirmation failed, reservation rolled back",
				"car_id", req.CarID,
				"reservation_id", reservationID,
				"error", err)
			result = &ReservationResult{
				CarID:           req.CarID,
				ReservationID:   reservationID,
				AvailableTokens: int(restored.AvailableTokens),
				Err:             fmt.Errorf("%w: %v", ErrConfirmationFailed, err),
			}
			return
		}

		result = &ReservationResult{
			CarID:           req.CarID,
			ReservationID:   reservationID,
			AvailableTokens: int(reserved.AvailableTokens),
			Applied:         true,
			ReservedAt:      time.Now().UTC().Format(time.RFC3339),
		}
		s.idempotencyCache.Set(cacheKey, result)

		slog.Info("Token reservation applied",
			"car_id", req.CarID,
			"reservation_id", reservationID,
			"available_tokens", result.AvailableTokens,
			"idempotency_key", req.IdempotencyKey)
	})

	if result.Applied {
		s.persister.Trigger()
	}
	return result
}

func (s *CatalogService) confirm(ctx context.Context, carID, reservationID, paymentID string) error {
	if s.confirmer == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()
	return s.confirmer.ConfirmTokenPurchase(ctx, carID, reservationID, paymentID)
}

// AdminSetCars applies a batch of partial updates. Each update succeeds or
// fails on its own.
func (s *CatalogService) AdminSetCars(updates []models.CarUpdate) models.AdminSetCarsResponse {
	resp := models.AdminSetCarsResponse{
		Results: make([]models.CarUpdateResult, 0, len(updates)),
		Summary: models.BatchSummary{Total: len(updates)},
	}

	for _, u := range updates {
		res := models.CarUpdateResult{CarID: u.CarID}

		err := validateUpdate(u)
		if err == nil {
			var updated catalog.Item
			s.mutationMu.RLock()
			s.carLockManager.WithCarWriteLock(u.CarID, func() {
				updated, err = s.updateCar(u.CarID, func(it catalog.Item) (catalog.Item, error) {
					return applyUpdate(it, u), nil
				})
			})
			s.mutationMu.RUnlock()
			if err == nil {
				s.publish(models.EventTypeCarUpdated, u.CarID, &updated, 0, s.generation())
			}
		}

		if err != nil {
			res.Error = err.Error()
			resp.Summary.Failed++
			slog.Warn("Admin car update rejected", "car_id", u.CarID, "error", err)
		} else {
			res.Applied = true
			resp.Summary.Succeeded++
		}
		resp.Results = append(resp.Results, res)
	}

	if resp.Summary.Succeeded > 0 {
		s.persister.Trigger()
	}

	slog.Info("Admin car updates processed",
		"total", resp.Summary.Total,
		"succeeded", resp.Summary.Succeeded,
		"failed", resp.Summary.Failed)
	return resp
}

func validateUpdate(u models.CarUpdate) error {
	if u.CarID == "" {
		return fmt.Errorf("%w: carId is required", ErrInvalidUpdate)
	}
	counters := map[string]*int{
		"totalUnits":      u.TotalUnits,
		"availableUnits":  u.AvailableUnits,
		"totalTokens":     u.TotalTokens,
		"availableTokens": u.AvailableTokens,
	}
	for field, v := range counters {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidUpdate, field)
		}
	}
	return nil
}

func applyUpdate(it catalog.Item, u models.CarUpdate) catalog.Item {
	if u.Name != nil {
		it.Name = *u.Name
	}
	if u.Price != nil {
		it.Price = catalog.Amount(*u.Price)
	}
	if u.TokenPrice != nil {
		it.TokenPrice = catalog.Amount(*u.TokenPrice)
	}
	if u.TotalUnits != nil {
		it.TotalUnits = catalog.Count(*u.TotalUnits)
	}
	if u.AvailableUnits != nil {
		it.AvailableUnits = catalog.Count(*u.AvailableUnits)
	}
	if u.TotalTokens != nil {
		it.TotalTokens = catalog.Count(*u.TotalTokens)
	}
	if u.AvailableTokens != nil {
		it.AvailableTokens = catalog.Count(*u.AvailableTokens)
	}
	if u.StopBookings != nil {
		it.StopBookings = *u.StopBookings
	}
	return it
}

// updateCar swaps in a copy of the snapshot with one car replaced by fn's result
func (s *CatalogService) updateCar(carID string, fn func(catalog.Item) (catalog.Item, error)) (catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != catalog.StateReady {
		return catalog.Item{}, ErrCatalogUnavailable
	}
	idx, ok := s.index[carID]
	if !ok {
		return catalog.Item{}, fmt.Errorf("%w: %s", ErrCarNotFound, carID)
	}

	updated, err := fn(s.items[idx])
	if err != nil {
		return s.items[idx], err
	}

	next := make([]catalog.Item, len(s.items))
	copy(next, s.items)
	next[idx] = updated
	s.items = next
	return updated, nil
}

func (s *CatalogService) setItemsLocked(items []catalog.Item) {
	index := make(map[string]int, len(items))
	for i, it := range items {
		index[it.ID] = i
	}
	s.items = items
	s.index = index
}

// persist saves the current snapshot when the source supports it
func (s *CatalogService) persist() {
	saver, ok := s.source.(storage.Saver)
	if !ok {
		return
	}

	s.mu.RLock()
	items, state := s.items, s.state
	s.mu.RUnlock()
	if state != catalog.StateReady {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := saver.Save(ctx, items); err != nil {
		slog.Error("Failed to persist catalog", "car_count", len(items), "error", err)
		return
	}
	slog.Info("Catalog persisted", "source", sourceLabel(s.source), "car_count", len(items))
}

func (s *CatalogService) publish(eventType, carID string, car *catalog.Item, itemCount int, gen uint64) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishEvent(eventType, carID, car, itemCount, gen)
}

func (s *CatalogService) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appliedGen
}

// Stats reports the snapshot state for health checks
func (s *CatalogService) Stats() CatalogStats {
	var sourceLoad *storage.LoadStats
	if reporter, ok := s.source.(interface{ Stats() storage.LoadStats }); ok {
		ls := reporter.Stats()
		sourceLoad = &ls
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := CatalogStats{
		SourceLoad:   sourceLoad,
		State:        s.state.String(),
		ItemCount:    len(s.items),
		Generation:   s.appliedGen,
		LastLoadTime: s.lastLoad,
		Source:       sourceLabel(s.source),
	}
	if s.loadErr != nil {
		stats.LastError = s.loadErr.Error()
	}
	return stats
}

// GetCacheStats returns statistics about the idempotency cache
func (s *CatalogService) GetCacheStats() map[string]interface{} {
	return s.idempotencyCache.GetStats()
}

// GetLockStats returns statistics about the car lock manager
func (s *CatalogService) GetLockStats() map[string]interface{} {
	return s.carLockManager.GetLockStats()
}

// Stop drains the workers, flushes pending persistence and stops the caches
func (s *CatalogService) Stop() {
	s.stopOnce.Do(func() {
		slog.Info("Stopping catalog service", "worker_count", s.workerCount)

		close(s.stopWorkers)
		s.workersWaitGroup.Wait()

		s.refresher.Stop()
		s.persister.Flush()
		s.persister.Stop()
		s.idempotencyCache.Stop()

		slog.Info("Catalog service stopped successfully")
	})
}

func sourceLabel(src storage.Source) string {
	if named, ok := src.(fmt.Stringer); ok {
		return named.String()
	}
	return fmt.Sprintf("%T", src)
}
