package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CatalogApiTelemetry provides telemetry for the car catalog endpoints
type CatalogApiTelemetry struct {
	meter metric.Meter

	requestCounter    metric.Int64Counter
	errorCounter      metric.Int64Counter
	durationHistogram metric.Float64Histogram

	// Catalog-specific instruments
	browseCounter         metric.Int64Counter
	suggestionCacheHits   metric.Int64Counter
	suggestionCounter     metric.Int64Counter
	reservationCounter    metric.Int64Counter
	eventRetrievalCounter metric.Int64Counter
}

// CatalogApiMetrics contains the telemetry data for a request
type CatalogApiMetrics struct {
	Method       string
	Endpoint     string
	StatusCode   int
	Duration     time.Duration
	ErrorMessage string
	// Raw IP is logged only; metrics use the normalized type
	ClientIP     string
	ClientIPType string
	// Business data set by handlers through Annotate
	ResultCount        int
	EventCount         int
	SuggestionSource   string
	ReservationOutcome string
}

// NewCatalogApiTelemetry creates a new instance of CatalogApiTelemetry
func NewCatalogApiTelemetry() *CatalogApiTelemetry {
	return &CatalogApiTelemetry{}
}

// InitializeTelemetry creates all instruments from the global meter provider
func (t *CatalogApiTelemetry) InitializeTelemetry(ctx context.Context) error {
	slog.Info("Initializing catalog API telemetry")

	t.meter = otel.Meter("car-catalog-api")

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&t.requestCounter, "catalog_api_requests_total", "Total number of API requests to catalog endpoints"},
		{&t.errorCounter, "catalog_api_errors_total", "Total number of API errors from catalog endpoints"},
		{&t.browseCounter, "catalog_browse_total", "Total number of catalog listing requests"},
		{&t.suggestionCacheHits, "suggestion_cache_hits_total", "Total number of location suggestions served from cache"},
		{&t.suggestionCounter, "suggestion_requests_total", "Total number of location suggestion requests by source"},
		{&t.reservationCounter, "token_reservations_total", "Total number of token reservations by outcome"},
		{&t.eventRetrievalCounter, "catalog_events_retrieved_total", "Total number of catalog events retrieved"},
	}

	for _, c := range counters {
		counter, err := t.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			slog.Error("Failed to create counter", "name", c.name, "error", err)
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.target = counter
	}

	var err error
	t.durationHistogram, err = t.meter.Float64Histogram(
		"catalog_api_request_duration_seconds",
		metric.WithDescription("Duration of API requests to catalog endpoints"),
		metric.WithUnit("s"),
	)
	if err != nil {
		slog.Error("Failed to create duration histogram", "error", err)
		return fmt.Errorf("failed to create duration histogram: %w", err)
	}

	slog.Info("Catalog API telemetry initialized successfully")
	return nil
}

func baseAttributes(metrics CatalogApiMetrics) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("method", metrics.Method),
		attribute.String("endpoint", metrics.Endpoint),
		attribute.Int("status_code", metrics.StatusCode),
	}
	if metrics.ClientIPType != "" {
		attrs = append(attrs, attribute.String("client_ip_type", metrics.ClientIPType))
	}
	return attrs
}

// RegisterRequestReceived records a successful API request
func (t *CatalogApiTelemetry) RegisterRequestReceived(ctx context.Context, metrics CatalogApiMetrics) {
	if t.requestCounter == nil {
		slog.Warn("Request counter not initialized")
		return
	}

	t.requestCounter.Add(ctx, 1, metric.WithAttributes(baseAttributes(metrics)...))
	t.recordEndpointSpecificMetrics(ctx, metrics)

	slog.Debug("Recorded successful API request",
		"method", metrics.Method,
		"endpoint", metrics.Endpoint,
		"status_code", metrics.StatusCode,
		"client_ip", metrics.ClientIP,
		"duration_ms", metrics.Duration.Milliseconds(),
	)
}

// RegisterRequestError records a failed API request
func (t *CatalogApiTelemetry) RegisterRequestError(ctx context.Context, metrics CatalogApiMetrics) {
	if t.errorCounter == nil {
		slog.Warn("Error counter not initialized")
		return
	}

	attrs := append(baseAttributes(metrics), attribute.String("error_type", categorizeError(metrics.ErrorMessage)))
	t.errorCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	// Failed reservations are still counted by outcome
	if metrics.ReservationOutcome != "" {
		t.recordEndpointSpecificMetrics(ctx, metrics)
	}

	slog.Warn("Recorded API request error",
		"method", metrics.Method,
		"endpoint", metrics.Endpoint,
		"status_code", metrics.StatusCode,
		"client_ip", metrics.ClientIP,
		"error", metrics.ErrorMessage,
	)
}

// RegisterRequestDuration records the duration of an API request
func (t *CatalogApiTelemetry) RegisterRequestDuration(ctx context.Context, metrics CatalogApiMetrics) {
	if t.durationHistogram == nil {
		slog.Warn("Duration histogram not initialized")
		return
	}

	t.durationHistogram.Record(ctx, metrics.Duration.Seconds(), metric.WithAttributes(baseAttributes(metrics)...))
}

// recordEndpointSpecificMetrics records the business counters for each endpoint
func (t *CatalogApiTelemetry) recordEndpointSpecificMetrics(ctx context.Context, metrics CatalogApiMetrics) {
	switch metrics.Endpoint {
	case "/v1/cars":
		if t.browseCounter != nil {
			t.browseCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.Bool("empty_result", metrics.ResultCount == 0),
			))
		}

	case "/v1/locations/suggest":
		source := metrics.SuggestionSource
		if source == "" {
			source = "unknown"
		}
		if t.suggestionCounter != nil {
			t.suggestionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
		}
		if source == "cache" && t.suggestionCacheHits != nil {
			t.suggestionCacheHits.Add(ctx, 1)
		}

	case "/v1/cars/{carId}/tokens/reserve":
		if t.reservationCounter != nil && metrics.ReservationOutcome != "" {
			t.reservationCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("outcome", metrics.ReservationOutcome),
			))
		}

	case "/v1/events":
		if t.eventRetrievalCounter != nil {
			t.eventRetrievalCounter.Add(ctx, int64(metrics.EventCount))
		}
	}
}

// categorizeError groups similar errors to prevent high cardinality
func categorizeError(errorMessage string) string {
	if errorMessage == "" {
		return "unknown"
	}

	msg := strings.ToLower(errorMessage)
	switch {
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "invalid"):
		return "invalid_request"
	case strings.Contains(msg, "unauthorized"):
		return "unauthorized"
	case strings.Contains(msg, "forbidden"):
		return "forbidden"
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "too many requests"):
		return "rate_limited"
	case strings.Contains(msg, "bad gateway"):
		return "upstream"
	case strings.Contains(msg, "internal"):
		return "internal_error"
	case strings.Contains(msg, "bad request"):
		return "bad_request"
	case strings.Contains(msg, "conflict"):
		return "conflict"
	default:
		return "other"
	}
}

// GetEndpointFromPath maps a request path to its route template
func GetEndpointFromPath(path string) string {
	switch {
	case path == "/v1/cars",
		path == "/v1/locations/suggest",
		path == "/v1/events",
		path == "/health",
		strings.HasPrefix(path, "/v1/admin/"):
		return path
	case strings.HasPrefix(path, "/v1/cars/"):
		rest := strings.TrimPrefix(path, "/v1/cars/")
		if rest == "" {
			return path
		}
		if strings.HasSuffix(rest, "/tokens/reserve") {
			return "/v1/cars/{carId}/tokens/reserve"
		}
		return "/v1/cars/{carId}"
	default:
		return path
	}
}

// NormalizeClientIP categorizes client IPs to control cardinality
func NormalizeClientIP(clientIP string) string {
	if clientIP == "" {
		return "unknown"
	}

	ip := net.ParseIP(clientIP)
	if ip == nil {
		return "invalid"
	}

	if ip.IsPrivate() || ip.IsLinkLocalUnicast() {
		return "internal"
	}
	if ip.IsLoopback() {
		return "localhost"
	}
	return "external"
}
