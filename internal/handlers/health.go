package handlers

import (
	"net/http"

	"car-catalog-api/internal/catalog"
	"car-catalog-api/internal/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	catalogService *services.CatalogService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(catalogService *services.CatalogService) *HealthHandler {
	return &HealthHandler{catalogService: catalogService}
}

// Health handles GET /health. The process is healthy as long as it serves
// requests; a failed catalog load is reported as degraded with status 200.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.catalogService.Stats()

	status := "healthy"
	switch stats.State {
	case catalog.StateError.String():
		status = "degraded"
	case catalog.StateLoading.String():
		status = "starting"
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":  status,
		"catalog": stats,
	})
}
