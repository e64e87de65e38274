package telemetry

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TelemetryMiddleware wraps HTTP handlers to automatically collect telemetry
type TelemetryMiddleware struct {
	telemetry *CatalogApiTelemetry
}

// NewTelemetryMiddleware creates a new telemetry middleware
func NewTelemetryMiddleware(telemetry *CatalogApiTelemetry) *TelemetryMiddleware {
	return &TelemetryMiddleware{
		telemetry: telemetry,
	}
}

// Annotations carries business data from a handler back to the middleware.
// The middleware stores a pointer in the request context before calling the
// handler, so values set downstream are visible once the handler returns.
type Annotations struct {
	mu                 sync.Mutex
	resultCount        int
	eventCount         int
	suggestionSource   string
	reservationOutcome string
}

type annotationsKey struct{}

// WithAnnotations returns a context carrying a fresh Annotations holder
func WithAnnotations(ctx context.Context) (context.Context, *Annotations) {
	a := &Annotations{}
	return context.WithValue(ctx, annotationsKey{}, a), a
}

func annotationsFrom(ctx context.Context) *Annotations {
	a, _ := ctx.Value(annotationsKey{}).(*Annotations)
	return a
}

// SetResultCount records how many items a listing returned
func SetResultCount(ctx context.Context, n int) {
	if a := annotationsFrom(ctx); a != nil {
		a.mu.Lock()
		a.resultCount = n
		a.mu.Unlock()
	}
}

// SetEventCount records how many events were returned
func SetEventCount(ctx context.Context, n int) {
	if a := annotationsFrom(ctx); a != nil {
		a.mu.Lock()
		a.eventCount = n
		a.mu.Unlock()
	}
}

// SetSuggestionSource records whether suggestions came from cache, remote or fallback
func SetSuggestionSource(ctx context.Context, source string) {
	if a := annotationsFrom(ctx); a != nil {
		a.mu.Lock()
		a.suggestionSource = source
		a.mu.Unlock()
	}
}

// SetReservationOutcome records applied, conflict, failed and similar outcomes
func SetReservationOutcome(ctx context.Context, outcome string) {
	if a := annotationsFrom(ctx); a != nil {
		a.mu.Lock()
		a.reservationOutcome = outcome
		a.mu.Unlock()
	}
}

// apply copies the annotations into metrics
func (a *Annotations) apply(metrics *CatalogApiMetrics) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	metrics.ResultCount = a.resultCount
	metrics.EventCount = a.eventCount
	metrics.SuggestionSource = a.suggestionSource
	metrics.ReservationOutcome = a.reservationOutcome
}

// Middleware returns the HTTP middleware function
func (tm *TelemetryMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		metrics := tm.extractMetricsFromRequest(r)

		ctx, annotations := WithAnnotations(r.Context())
		next.ServeHTTP(wrapper, r.WithContext(ctx))

		metrics.StatusCode = wrapper.statusCode
		metrics.Duration = time.Since(start)
		annotations.apply(&metrics)

		if wrapper.statusCode >= 400 {
			metrics.ErrorMessage = tm.getErrorMessage(wrapper.statusCode)
			tm.telemetry.RegisterRequestError(ctx, metrics)
		} else {
			tm.telemetry.RegisterRequestReceived(ctx, metrics)
		}

		tm.telemetry.RegisterRequestDuration(ctx, metrics)
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(data []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(data)
}

// Flush lets long-polling handlers push partial responses
func (w *responseWriterWrapper) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (tm *TelemetryMiddleware) extractMetricsFromRequest(r *http.Request) CatalogApiMetrics {
	clientIP := getClientIP(r)

	return CatalogApiMetrics{
		Method:       r.Method,
		Endpoint:     GetEndpointFromPath(r.URL.Path),
		ClientIP:     clientIP,
		ClientIPType: NormalizeClientIP(clientIP),
	}
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// getErrorMessage returns a human-readable error message for the status code
func (tm *TelemetryMiddleware) getErrorMessage(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "Bad Request"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not Found"
	case http.StatusMethodNotAllowed:
		return "Method Not Allowed"
	case http.StatusConflict:
		return "Conflict"
	case http.StatusTooManyRequests:
		return "Too Many Requests"
	case http.StatusInternalServerError:
		return "Internal Server Error"
	case http.StatusBadGateway:
		return "Bad Gateway"
	case http.StatusServiceUnavailable:
		return "Service Unavailable"
	case http.StatusGatewayTimeout:
		return "Gateway Timeout"
	default:
		return "HTTP Error " + strconv.Itoa(statusCode)
	}
}
