package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"car-catalog-api/internal/models"
	"car-catalog-api/internal/services"
	"car-catalog-api/internal/telemetry"

	"github.com/gorilla/mux"
)

// maxPageSize caps pageSize from the query string
const maxPageSize = 100

// CarsHandler handles catalog listing and token reservation requests
type CarsHandler struct {
	catalogService *services.CatalogService
}

// NewCarsHandler creates a new cars handler
func NewCarsHandler(catalogService *services.CatalogService) *CarsHandler {
	return &CarsHandler{
		catalogService: catalogService,
	}
}

// writeJSONResponse is a helper function to write JSON responses
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeErrorResponse is a helper function to write error responses
func writeErrorResponse(w http.ResponseWriter, statusCode int, code, message string, details []models.ErrorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// ParseBrowseQuery reads the listing parameters. Malformed numbers are
// ignored and fall back to the defaults.
func ParseBrowseQuery(values url.Values) services.BrowseQuery {
	q := services.BrowseQuery{
		Search:         strings.TrimSpace(values.Get("search")),
		Type:           strings.TrimSpace(values.Get("type")),
		Brand:          strings.TrimSpace(values.Get("brand")),
		LocationSearch: strings.TrimSpace(values.Get("locationSearch")),
		LocationType:   strings.ToLower(strings.TrimSpace(values.Get("locationType"))),
		Location:       strings.TrimSpace(values.Get("location")),
		State:          strings.TrimSpace(values.Get("state")),
		Sort:           strings.TrimSpace(values.Get("sort")),
	}
	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		q.Page = page
	}
	if size, err := strconv.Atoi(values.Get("pageSize")); err == nil && size > 0 {
		if size > maxPageSize {
			size = maxPageSize
		}
		q.PageSize = size
	}
	return q
}

// ListCars handles GET /v1/cars
func (h *CarsHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	query := ParseBrowseQuery(r.URL.Query())
	result := h.catalogService.Browse(query)
	page := result.Page

	telemetry.SetResultCount(r.Context(), page.TotalItems)

	slog.Debug("Catalog page derived",
		"filters", result.Filters,
		"sort", result.Sort,
		"page", page.Page,
		"total_items", page.TotalItems,
		"state", result.State.String())

	filters := result.Filters
	if filters == nil {
		filters = []string{}
	}
	writeJSONResponse(w, http.StatusOK, models.BrowseResponse{
		Items: page.Items,
		Pagination: models.Pagination{
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalPages: page.TotalPages,
			TotalItems: page.TotalItems,
			Window:     page.Window,
			HasPrev:    page.HasPrev,
			HasNext:    page.HasNext,
		},
		State:   result.State.String(),
		Sort:    string(result.Sort),
		Filters: filters,
	})
}

// GetCar handles GET /v1/cars/{carId}
func (h *CarsHandler) GetCar(w http.ResponseWriter, r *http.Request) {
	carID := mux.Vars(r)["carId"]

	car, err := h.catalogService.GetCar(carID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, car)
}

// ReserveToken handles POST /v1/cars/{carId}/tokens/reserve
func (h *CarsHandler) ReserveToken(w http.ResponseWriter, r *http.Request) {
	carID := mux.Vars(r)["carId"]

	var req models.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Invalid JSON in reserve request", "error", err, "remote_addr", r.RemoteAddr)
		writeErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid JSON", nil)
		return
	}
	if strings.TrimSpace(req.PaymentID) == "" {
		writeErrorResponse(w, http.StatusBadRequest, "validation_error", "Request validation failed", []models.ErrorDetail{
			{Field: "paymentId", Issue: "Payment ID is required"},
		})
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}

	slog.Info("Processing token reservation",
		"car_id", carID,
		"idempotency_key", req.IdempotencyKey,
		"remote_addr", r.RemoteAddr)

	result, err := h.catalogService.ReserveToken(r.Context(), carID, req.PaymentID, req.IdempotencyKey)
	// A retry after a timeout must reuse this key to get the stored outcome
	if result != nil && result.IdempotencyKey != "" {
		w.Header().Set("Idempotency-Key", result.IdempotencyKey)
	}
	if err != nil {
		telemetry.SetReservationOutcome(r.Context(), reservationOutcome(err))
		writeServiceError(w, err)
		return
	}

	telemetry.SetReservationOutcome(r.Context(), "applied")
	writeJSONResponse(w, http.StatusOK, models.ReserveResponse{
		CarID:           result.CarID,
		ReservationID:   result.ReservationID,
		AvailableTokens: result.AvailableTokens,
		Applied:         result.Applied,
		ReservedAt:      result.ReservedAt,
	})
}

func reservationOutcome(err error) string {
	switch {
	case errors.Is(err, services.ErrNoTokens), errors.Is(err, services.ErrBookingsStopped):
		return "conflict"
	case errors.Is(err, services.ErrConfirmationFailed):
		return "rolled_back"
	case errors.Is(err, services.ErrCarNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// writeServiceError maps catalog service errors to HTTP responses. The
// message carries the error text so clients can show it inline.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCarNotFound):
		writeErrorResponse(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, services.ErrNoTokens):
		writeErrorResponse(w, http.StatusConflict, "no_tokens", "No tokens left for this car", nil)
	case errors.Is(err, services.ErrBookingsStopped):
		writeErrorResponse(w, http.StatusConflict, "bookings_stopped", "Bookings are closed for this car", nil)
	case errors.Is(err, services.ErrConfirmationFailed):
		writeErrorResponse(w, http.StatusBadGateway, "confirmation_failed", err.Error(), nil)
	case errors.Is(err, services.ErrCatalogUnavailable):
		writeErrorResponse(w, http.StatusServiceUnavailable, "catalog_unavailable", "Catalog is not loaded", nil)
	case errors.Is(err, services.ErrReservationTimedOut):
		writeErrorResponse(w, http.StatusServiceUnavailable, "timeout", err.Error(), nil)
	default:
		slog.Error("Unhandled service error", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
	}
}
