package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"car-catalog-api/internal/models"
	"car-catalog-api/internal/services"
	"car-catalog-api/internal/suggest"
)

// AdminHandler handles admin-only endpoints
type AdminHandler struct {
	catalogService *services.CatalogService
	suggestCache   *suggest.Cache
}

// NewAdminHandler creates a new admin handler. suggestCache may be nil.
func NewAdminHandler(catalogService *services.CatalogService, suggestCache *suggest.Cache) *AdminHandler {
	return &AdminHandler{
		catalogService: catalogService,
		suggestCache:   suggestCache,
	}
}

// SetCars handles PUT /v1/admin/cars
func (h *AdminHandler) SetCars(w http.ResponseWriter, r *http.Request) {
	slog.Info("Admin set cars request received",
		"remote_addr", r.RemoteAddr,
		"user_agent", r.Header.Get("User-Agent"))

	var req models.AdminSetCarsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Failed to parse admin set cars request body",
			"error", err,
			"remote_addr", r.RemoteAddr)
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON in request body", nil)
		return
	}

	if len(req.Updates) == 0 {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "No updates specified", nil)
		return
	}

	var validationErrors []models.ErrorDetail
	for i, u := range req.Updates {
		if u.CarID == "" {
			validationErrors = append(validationErrors, models.ErrorDetail{
				Field: fmt.Sprintf("updates[%d].carId", i),
				Issue: "Car ID is required",
			})
		}
		if u.Name == nil && u.Price == nil && u.TokenPrice == nil &&
			u.TotalUnits == nil && u.AvailableUnits == nil &&
			u.TotalTokens == nil && u.AvailableTokens == nil && u.StopBookings == nil {
			validationErrors = append(validationErrors, models.ErrorDetail{
				Field: fmt.Sprintf("updates[%d]", i),
				Issue: "At least one field must be specified",
			})
		}
	}
	if len(validationErrors) > 0 {
		slog.Warn("Admin set cars validation failed",
			"validation_errors", len(validationErrors),
			"remote_addr", r.RemoteAddr)
		writeErrorResponse(w, http.StatusBadRequest, "validation_error", "Request validation failed", validationErrors)
		return
	}

	// Counter checks are per update, so a negative value fails only its own entry
	response := h.catalogService.AdminSetCars(req.Updates)
	writeJSONResponse(w, http.StatusOK, response)
}

// RefreshCatalog handles POST /v1/admin/catalog/refresh. The reload is
// debounced, so repeated calls in a short window cause one upstream fetch.
func (h *AdminHandler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	slog.Info("Catalog refresh requested", "remote_addr", r.RemoteAddr)

	h.catalogService.RequestRefresh()
	writeJSONResponse(w, http.StatusAccepted, map[string]interface{}{
		"message": "Catalog refresh scheduled",
		"catalog": h.catalogService.Stats(),
	})
}

// ClearSuggestionCache handles DELETE /v1/admin/locations/cache
func (h *AdminHandler) ClearSuggestionCache(w http.ResponseWriter, r *http.Request) {
	if h.suggestCache == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "cache_unavailable", "Suggestion cache not configured", nil)
		return
	}

	cleared := h.suggestCache.Len()
	h.suggestCache.Clear()
	slog.Info("Suggestion cache cleared", "entries", cleared, "remote_addr", r.RemoteAddr)

	writeJSONResponse(w, http.StatusOK, map[string]int{"cleared": cleared})
}

// Stats handles GET /v1/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"catalog":           h.catalogService.Stats(),
		"idempotency_cache": h.catalogService.GetCacheStats(),
		"locks":             h.catalogService.GetLockStats(),
	}
	if h.suggestCache != nil {
		stats["suggestion_cache"] = h.suggestCache.Stats()
	}
	writeJSONResponse(w, http.StatusOK, stats)
}
