package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"car-catalog-api/internal/backend"
	"car-catalog-api/internal/catalog"
	"car-catalog-api/internal/models"
	"car-catalog-api/internal/services"

	"github.com/gorilla/mux"
)

// BookingFetcher loads a booking from the system of record
type BookingFetcher interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
}

// BookingsHandler returns bookings with their car reference resolved
// against the in-memory catalog
type BookingsHandler struct {
	bookings       BookingFetcher
	catalogService *services.CatalogService
}

func NewBookingsHandler(bookings BookingFetcher, catalogService *services.CatalogService) *BookingsHandler {
	return &BookingsHandler{bookings: bookings, catalogService: catalogService}
}

// GetBooking handles GET /v1/bookings/{bookingId}
func (h *BookingsHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["bookingId"]

	booking, err := h.bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "not_found", "Booking not found: "+bookingID, nil)
			return
		}
		slog.Warn("Failed to fetch booking", "booking_id", bookingID, "error", err)
		writeErrorResponse(w, http.StatusBadGateway, "backend_error", err.Error(), nil)
		return
	}

	car, ok := booking.Car.Resolve(func(id string) (catalog.Item, bool) {
		item, err := h.catalogService.GetCar(id)
		return item, err == nil
	})
	if ok {
		booking.Car = models.RefPopulated(car)
	} else if id, isID := booking.Car.ID(); isID {
		slog.Debug("Booking car not in catalog, returning reference", "booking_id", bookingID, "car_id", id)
	}

	writeJSONResponse(w, http.StatusOK, booking)
}
