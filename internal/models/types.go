package models

import "car-catalog-api/internal/catalog"

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Envelope is the response wrapper used by the booking backend
type Envelope[T any] struct {
	Status  bool   `json:"status"`
	Body    T      `json:"body"`
	Message string `json:"message"`
}

// Booking as returned by the backend. Car is either an id or the full car.
type Booking struct {
	ID        string                  `json:"_id"`
	Car       Reference[catalog.Item] `json:"car"`
	User      string                  `json:"user,omitempty"`
	PaymentID string                  `json:"paymentId,omitempty"`
	Status    string                  `json:"status,omitempty"`
	Amount    catalog.Amount          `json:"amount,omitempty"`
	CreatedAt string                  `json:"createdAt,omitempty"`
}

// Pagination is the navigation metadata for a listing
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
	TotalItems int   `json:"totalItems"`
	Window     []int `json:"window"`
	HasPrev    bool  `json:"hasPrev"`
	HasNext    bool  `json:"hasNext"`
}

// BrowseResponse is the body of GET /v1/cars
type BrowseResponse struct {
	Items      []catalog.Item `json:"items"`
	Pagination Pagination     `json:"pagination"`
	State      string         `json:"state"`
	Sort       string         `json:"sort"`
	Filters    []string       `json:"filters"`
}

// ReserveRequest is the body of POST /v1/cars/{carId}/tokens/reserve
type ReserveRequest struct {
	PaymentID      string `json:"paymentId"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

type ReserveResponse struct {
	CarID           string `json:"carId"`
	ReservationID   string `json:"reservationId"`
	AvailableTokens int    `json:"availableTokens"`
	Applied         bool   `json:"applied"`
	ReservedAt      string `json:"reservedAt"`
}

// CarUpdate is a partial admin update. Nil fields are left unchanged.
type CarUpdate struct {
	CarID           string  `json:"carId"`
	Name            *string `json:"name,omitempty"`
	Price           *string `json:"price,omitempty"`
	TokenPrice      *string `json:"tokenPrice,omitempty"`
	TotalUnits      *int    `json:"totalUnits,omitempty"`
	AvailableUnits  *int    `json:"availableUnits,omitempty"`
	TotalTokens     *int    `json:"totalTokens,omitempty"`
	AvailableTokens *int    `json:"availableTokens,omitempty"`
	StopBookings    *bool   `json:"stopBookings,omitempty"`
}

type AdminSetCarsRequest struct {
	Updates []CarUpdate `json:"updates"`
}

// CarUpdateResult is the outcome of a single update in a batch
type CarUpdateResult struct {
	CarID   string `json:"carId"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// BatchSummary provides summary statistics for batch operations
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type AdminSetCarsResponse struct {
	Results []CarUpdateResult `json:"results"`
	Summary BatchSummary      `json:"summary"`
}

// Event represents a change to the catalog
type Event struct {
	Offset     int64         `json:"offset"`
	Timestamp  string        `json:"timestamp"`
	EventType  string        `json:"eventType"`
	CarID      string        `json:"carId,omitempty"`
	Car        *catalog.Item `json:"car,omitempty"`
	ItemCount  int           `json:"itemCount,omitempty"`
	Generation uint64        `json:"generation"`
}

// EventsResponse represents the response for the events endpoint
type EventsResponse struct {
	Events     []Event `json:"events"`
	NextOffset int64   `json:"nextOffset"`
	HasMore    bool    `json:"hasMore"`
	Count      int     `json:"count"`
}

// EventType constants
const (
	EventTypeCarUpdated       = "car_updated"
	EventTypeTokenReserved    = "token_reserved"
	EventTypeTokenReleased    = "token_released"
	EventTypeCatalogRefreshed = "catalog_refreshed"
)
