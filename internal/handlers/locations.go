package handlers

import (
	"log/slog"
	"net/http"

	"car-catalog-api/internal/suggest"
	"car-catalog-api/internal/telemetry"
)

// LocationsHandler serves location suggestions
type LocationsHandler struct {
	suggestService *suggest.Service
}

func NewLocationsHandler(suggestService *suggest.Service) *LocationsHandler {
	return &LocationsHandler{suggestService: suggestService}
}

// Suggest handles GET /v1/locations/suggest?q=&selected=
func (h *LocationsHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	selected := r.URL.Query().Get("selected")

	result := h.suggestService.Suggest(r.Context(), query, selected)
	telemetry.SetSuggestionSource(r.Context(), result.Source)

	slog.Debug("Location suggestions served",
		"query", result.Query,
		"source", result.Source,
		"count", len(result.Suggestions))

	if result.Suggestions == nil {
		result.Suggestions = []suggest.Suggestion{}
	}
	writeJSONResponse(w, http.StatusOK, result)
}
