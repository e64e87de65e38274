package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"car-catalog-api/internal/catalog"
	"car-catalog-api/internal/models"
)

// EventQueue is an offset-addressed log of catalog changes with file
// persistence and long-poll support. Events are appended by a single writer
// goroutine, so offsets are assigned in publish order.
type EventQueue struct {
	mu         sync.RWMutex
	events     []models.Event
	nextOffset int64
	filePath   string
	maxEvents  int
	logger     *slog.Logger
	writeChan  chan models.Event
	stopChan   chan struct{}
	doneChan   chan struct{}
	closeOnce  sync.Once

	waitersMutex sync.Mutex
	waiters      map[int64][]*waiter
}

type waiter struct {
	ch   chan struct{}
	once sync.Once
}

func (w *waiter) wake() {
	w.once.Do(func() { close(w.ch) })
}

// EventQueueConfig holds configuration for the event queue.
// An empty FilePath keeps events in memory only.
type EventQueueConfig struct {
	FilePath  string
	MaxEvents int
	Logger    *slog.Logger
}

// NewEventQueue creates a new event queue and loads any persisted events
func NewEventQueue(config EventQueueConfig) (*EventQueue, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxEvents := config.MaxEvents
	if maxEvents < 1 {
		maxEvents = 10000
	}

	eq := &EventQueue{
		events:    make([]models.Event, 0),
		filePath:  config.FilePath,
		maxEvents: maxEvents,
		logger:    logger,
		writeChan: make(chan models.Event, 1000),
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
		waiters:   make(map[int64][]*waiter),
	}

	if eq.filePath != "" {
		if err := os.MkdirAll(filepath.Dir(eq.filePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create events directory: %w", err)
		}
		if err := eq.loadFromFile(); err != nil {
			eq.logger.Warn("Failed to load events from file, starting fresh", "error", err)
			eq.events = make([]models.Event, 0)
			eq.nextOffset = 0
		}
	}

	go eq.asyncWriter()

	eq.logger.Info("Event queue initialized",
		"file_path", eq.filePath,
		"max_events", eq.maxEvents,
		"loaded_events", len(eq.events),
		"next_offset", eq.nextOffset,
	)

	return eq, nil
}

// PublishEvent queues an event without blocking. The offset and timestamp
// are assigned when the writer appends it.
func (eq *EventQueue) PublishEvent(eventType, carID string, car *catalog.Item, itemCount int, generation uint64) {
	event := models.Event{
		EventType:  eventType,
		CarID:      carID,
		Car:        car,
		ItemCount:  itemCount,
		Generation: generation,
	}

	select {
	case eq.writeChan <- event:
		eq.logger.Debug("Event queued for writing",
			"event_type", event.EventType,
			"car_id", event.CarID,
		)
	default:
		eq.logger.Error("Event write channel full, dropping event",
			"event_type", event.EventType,
			"car_id", event.CarID,
		)
	}
}

// GetEvents returns up to limit events at or after fromOffset, the offset to
// ask for next, and whether more events are already available
func (eq *EventQueue) GetEvents(fromOffset int64, limit int) ([]models.Event, int64, bool) {
	eq.mu.RLock()
	defer eq.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}

	startIdx := -1
	for i, event := range eq.events {
		if event.Offset >= fromOffset {
			startIdx = i
			break
		}
	}

	if startIdx == -1 {
		next := fromOffset
		if next > eq.nextOffset || next < 0 {
			next = eq.nextOffset
		}
		return []models.Event{}, next, false
	}

	endIdx := startIdx + limit
	if endIdx > len(eq.events) {
		endIdx = len(eq.events)
	}

	result := make([]models.Event, endIdx-startIdx)
	copy(result, eq.events[startIdx:endIdx])

	return result, result[len(result)-1].Offset + 1, endIdx < len(eq.events)
}

// OldestOffset returns the smallest offset still retained, or the next
// offset when the queue is empty
func (eq *EventQueue) OldestOffset() int64 {
	eq.mu.RLock()
	defer eq.mu.RUnlock()
	if len(eq.events) == 0 {
		return eq.nextOffset
	}
	return eq.events[0].Offset
}

// WaitForEvents returns a channel that is closed when an event at or after
// fromOffset exists or when timeout elapses, whichever comes first
func (eq *EventQueue) WaitForEvents(fromOffset int64, timeout time.Duration) <-chan struct{} {
	w := &waiter{ch: make(chan struct{})}

	eq.waitersMutex.Lock()
	defer eq.waitersMutex.Unlock()

	eq.mu.RLock()
	available := eq.nextOffset > fromOffset
	eq.mu.RUnlock()

	if available {
		w.wake()
		return w.ch
	}

	eq.waiters[fromOffset] = append(eq.waiters[fromOffset], w)
	time.AfterFunc(timeout, w.wake)

	return w.ch
}

// GetCurrentOffset returns the next offset to be assigned
func (eq *EventQueue) GetCurrentOffset() int64 {
	eq.mu.RLock()
	defer eq.mu.RUnlock()
	return eq.nextOffset
}

// Close stops the writer after draining queued events and saves a final copy
func (eq *EventQueue) Close() error {
	var err error
	eq.closeOnce.Do(func() {
		eq.logger.Info("Shutting down event queue")
		close(eq.stopChan)
		<-eq.doneChan
		err = eq.saveToFile()
	})
	return err
}

func (eq *EventQueue) asyncWriter() {
	defer close(eq.doneChan)
	for {
		select {
		case event := <-eq.writeChan:
			eq.append(event)
		case <-eq.stopChan:
			for {
				select {
				case event := <-eq.writeChan:
					eq.append(event)
				default:
					eq.logger.Info("Event queue async writer stopping")
					return
				}
			}
		}
	}
}

func (eq *EventQueue) append(event models.Event) {
	offset := eq.addEventToMemory(event)

	if err := eq.saveToFile(); err != nil {
		eq.logger.Error("Failed to save events to file", "error", err)
	}

	eq.notifyWaiters(offset)
}

// addEventToMemory assigns the offset, appends and rotates
func (eq *EventQueue) addEventToMemory(event models.Event) int64 {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	event.Offset = eq.nextOffset
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	eq.nextOffset++
	eq.events = append(eq.events, event)

	if len(eq.events) > eq.maxEvents {
		// Keep 75% of max events
		keepCount := eq.maxEvents * 3 / 4
		if keepCount < 1 {
			keepCount = 1
		}
		removed := len(eq.events) - keepCount
		eq.events = append([]models.Event(nil), eq.events[removed:]...)

		eq.logger.Info("Event queue rotated",
			"removed_events", removed,
			"remaining_events", len(eq.events),
		)
	}

	return event.Offset
}

func (eq *EventQueue) notifyWaiters(offset int64) {
	eq.waitersMutex.Lock()
	defer eq.waitersMutex.Unlock()

	for waitOffset, ws := range eq.waiters {
		if waitOffset <= offset {
			for _, w := range ws {
				w.wake()
			}
			delete(eq.waiters, waitOffset)
		}
	}
}

type fileData struct {
	Events     []models.Event `json:"events"`
	NextOffset int64          `json:"nextOffset"`
}

func (eq *EventQueue) loadFromFile() error {
	data, err := os.ReadFile(eq.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read events file: %w", err)
	}

	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil {
		return fmt.Errorf("failed to unmarshal events: %w", err)
	}

	if fd.Events != nil {
		eq.events = fd.Events
	}
	eq.nextOffset = fd.NextOffset
	return nil
}

// saveToFile writes the queue atomically through a temp file and rename
func (eq *EventQueue) saveToFile() error {
	if eq.filePath == "" {
		return nil
	}

	eq.mu.RLock()
	data, err := json.MarshalIndent(fileData{Events: eq.events, NextOffset: eq.nextOffset}, "", "  ")
	eq.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	tempFile := eq.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp events file: %w", err)
	}

	if err := os.Rename(tempFile, eq.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp events file: %w", err)
	}

	return nil
}
