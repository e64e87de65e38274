package services

import (
	"log/slog"
	"sync"
	"time"
)

// CarLockManager hands out one RWMutex per car ID so that reservations on
// different cars never contend
type CarLockManager struct {
	locks    map[string]*sync.RWMutex
	locksMux sync.RWMutex
}

func NewCarLockManager() *CarLockManager {
	return &CarLockManager{
		locks: make(map[string]*sync.RWMutex),
	}
}

// GetCarLock returns the mutex for carID, creating it on first use
func (m *CarLockManager) GetCarLock(carID string) *sync.RWMutex {
	m.locksMux.RLock()
	if lock, exists := m.locks[carID]; exists {
		m.locksMux.RUnlock()
		return lock
	}
	m.locksMux.RUnlock()

	m.locksMux.Lock()
	defer m.locksMux.Unlock()

	// Double-check in case another goroutine created it
	if lock, exists := m.locks[carID]; exists {
		return lock
	}

	lock := &sync.RWMutex{}
	m.locks[carID] = lock
	slog.Debug("Created car lock", "car_id", carID)
	return lock
}

// WithCarWriteLock runs fn while holding the write lock for carID
func (m *CarLockManager) WithCarWriteLock(carID string, fn func()) {
	start := time.Now()
	lock := m.GetCarLock(carID)
	lock.Lock()
	defer func() {
		lock.Unlock()
		slog.Debug("Car write lock released",
			"car_id", carID,
			"held_for", time.Since(start).String())
	}()

	fn()
}

// WithCarReadLock runs fn while holding the read lock for carID
func (m *CarLockManager) WithCarReadLock(carID string, fn func()) {
	lock := m.GetCarLock(carID)
	lock.RLock()
	defer lock.RUnlock()

	fn()
}

// GetLockStats returns statistics about the lock manager
func (m *CarLockManager) GetLockStats() map[string]interface{} {
	m.locksMux.RLock()
	defer m.locksMux.RUnlock()

	return map[string]interface{}{
		"total_car_locks":   len(m.locks),
		"lock_manager_type": "per_car",
	}
}

// CleanupUnusedLocks drops locks for cars that left the catalog
func (m *CarLockManager) CleanupUnusedLocks(activeCarIDs map[string]bool) {
	m.locksMux.Lock()
	defer m.locksMux.Unlock()

	removed := 0
	for carID := range m.locks {
		if !activeCarIDs[carID] {
			delete(m.locks, carID)
			removed++
		}
	}

	if removed > 0 {
		slog.Info("Cleaned up unused car locks",
			"removed_locks", removed,
			"remaining_locks", len(m.locks))
	}
}
