package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"car-catalog-api/internal/events"
	"car-catalog-api/internal/models"
	"car-catalog-api/internal/telemetry"
)

// EventsHandler serves the catalog change feed
type EventsHandler struct {
	eventQueue *events.EventQueue
	logger     *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(eventQueue *events.EventQueue, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		eventQueue: eventQueue,
		logger:     logger,
	}
}

// GetEvents handles GET /v1/events?offset=&limit=&wait=
func (h *EventsHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	offsetStr := r.URL.Query().Get("offset")
	if offsetStr == "" {
		writeErrorResponse(w, http.StatusBadRequest, "bad_request", "offset parameter is required", nil)
		return
	}

	offset, err := strconv.ParseInt(offsetStr, 10, 64)
	if err != nil || offset < 0 {
		writeErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid offset parameter", []models.ErrorDetail{
			{Field: "offset", Issue: "must be a non-negative integer"},
		})
		return
	}

	limit := 100
	if parsed, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && parsed > 0 && parsed <= 1000 {
		limit = parsed
	}

	waitSeconds := 0
	if parsed, err := strconv.Atoi(r.URL.Query().Get("wait")); err == nil && parsed >= 0 && parsed <= 60 {
		waitSeconds = parsed
	}

	evts, nextOffset, hasMore := h.eventQueue.GetEvents(offset, limit)

	if len(evts) == 0 && waitSeconds > 0 {
		h.logger.Debug("No events available, starting long polling",
			"offset", offset,
			"wait_seconds", waitSeconds,
		)

		select {
		case <-h.eventQueue.WaitForEvents(offset, time.Duration(waitSeconds)*time.Second):
			evts, nextOffset, hasMore = h.eventQueue.GetEvents(offset, limit)
		case <-r.Context().Done():
			h.logger.Debug("Client disconnected during long polling", "offset", offset)
			return
		}
	}

	telemetry.SetEventCount(r.Context(), len(evts))

	h.logger.Debug("Events response sent",
		"offset", offset,
		"events_count", len(evts),
		"next_offset", nextOffset,
		"has_more", hasMore,
	)

	writeJSONResponse(w, http.StatusOK, models.EventsResponse{
		Events:     evts,
		NextOffset: nextOffset,
		HasMore:    hasMore,
		Count:      len(evts),
	})
}
