package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"car-catalog-api/internal/models"
)

// RateLimitType defines the type of rate limiting
type RateLimitType string

const (
	RateLimitTypeIP     RateLimitType = "ip"
	RateLimitTypeGlobal RateLimitType = "global"
	RateLimitTypeBoth   RateLimitType = "both"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled                bool
	Type                   RateLimitType
	RequestsPerMinute      int
	WindowMinutes          int
	AdminRequestsPerMinute int
}

// RateLimitEntry is a fixed-window counter
type RateLimitEntry struct {
	Count     int
	ResetTime time.Time
}

// RateLimitInfo contains rate limit information for response headers
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetTime time.Time
}

// RateLimiter counts requests per client IP and/or globally in fixed windows
type RateLimiter struct {
	config      RateLimitConfig
	now         func() time.Time
	mutex       sync.Mutex
	ipLimits    map[string]*RateLimitEntry
	globalLimit RateLimitEntry
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := newRateLimiter(config, time.Now)
	go rl.cleanupLoop(time.Minute)

	slog.Info("Rate limiter initialized",
		"enabled", config.Enabled,
		"type", config.Type,
		"requests_per_minute", config.RequestsPerMinute,
		"window_minutes", config.WindowMinutes,
		"admin_requests_per_minute", config.AdminRequestsPerMinute)

	return rl
}

func newRateLimiter(config RateLimitConfig, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		config:      config,
		now:         now,
		ipLimits:    make(map[string]*RateLimitEntry),
		stopCleanup: make(chan struct{}),
	}
}

// Stop stops the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.removeExpired()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) removeExpired() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for ip, entry := range rl.ipLimits {
		if now.After(entry.ResetTime) {
			delete(rl.ipLimits, ip)
		}
	}
	if now.After(rl.globalLimit.ResetTime) {
		rl.globalLimit = RateLimitEntry{}
	}
}

// IsAllowed checks and counts one request. Admin routes use their own limit.
func (rl *RateLimiter) IsAllowed(clientIP string, isAdmin bool) (bool, *RateLimitInfo) {
	if !rl.config.Enabled {
		return true, &RateLimitInfo{Limit: -1, Remaining: -1}
	}

	limit := rl.config.RequestsPerMinute
	if isAdmin && rl.config.AdminRequestsPerMinute > 0 {
		limit = rl.config.AdminRequestsPerMinute
	}
	window := time.Duration(rl.config.WindowMinutes) * time.Minute

	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	now := rl.now()

	switch rl.config.Type {
	case RateLimitTypeGlobal:
		return take(&rl.globalLimit, limit, window, now)
	case RateLimitTypeBoth:
		// Check both before counting either so a rejected request is not charged
		ipEntry := rl.ipEntry(clientIP)
		resetIfExpired(ipEntry, window, now)
		resetIfExpired(&rl.globalLimit, window, now)
		if ipEntry.Count >= limit || rl.globalLimit.Count >= limit {
			info := infoFor(ipEntry, limit)
			if g := infoFor(&rl.globalLimit, limit); g.Remaining < info.Remaining {
				info = g
			}
			return false, info
		}
		ipEntry.Count++
		rl.globalLimit.Count++
		info := infoFor(ipEntry, limit)
		if g := infoFor(&rl.globalLimit, limit); g.Remaining < info.Remaining {
			info = g
		}
		return true, info
	default:
		return take(rl.ipEntry(clientIP), limit, window, now)
	}
}

func (rl *RateLimiter) ipEntry(clientIP string) *RateLimitEntry {
	entry, ok := rl.ipLimits[clientIP]
	if !ok {
		entry = &RateLimitEntry{}
		rl.ipLimits[clientIP] = entry
	}
	return entry
}

func resetIfExpired(entry *RateLimitEntry, window time.Duration, now time.Time) {
	if now.After(entry.ResetTime) {
		entry.Count = 0
		entry.ResetTime = now.Add(window)
	}
}

func take(entry *RateLimitEntry, limit int, window time.Duration, now time.Time) (bool, *RateLimitInfo) {
	resetIfExpired(entry, window, now)
	if entry.Count >= limit {
		return false, infoFor(entry, limit)
	}
	entry.Count++
	return true, infoFor(entry, limit)
}

func infoFor(entry *RateLimitEntry, limit int) *RateLimitInfo {
	remaining := limit - entry.Count
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitInfo{Limit: limit, Remaining: remaining, ResetTime: entry.ResetTime}
}

// GetRateLimitStats returns current rate limiting statistics
func (rl *RateLimiter) GetRateLimitStats() map[string]interface{} {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	stats := map[string]interface{}{
		"enabled":                   rl.config.Enabled,
		"type":                      string(rl.config.Type),
		"requests_per_minute":       rl.config.RequestsPerMinute,
		"window_minutes":            rl.config.WindowMinutes,
		"admin_requests_per_minute": rl.config.AdminRequestsPerMinute,
		"active_ip_limits":          len(rl.ipLimits),
	}

	if rl.config.Type == RateLimitTypeGlobal || rl.config.Type == RateLimitTypeBoth {
		stats["global_count"] = rl.globalLimit.Count
		stats["global_reset_time"] = rl.globalLimit.ResetTime.Format(time.RFC3339)
	}

	return stats
}

// ResetRateLimits clears every counter
func (rl *RateLimiter) ResetRateLimits() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.ipLimits = make(map[string]*RateLimitEntry)
	rl.globalLimit = RateLimitEntry{}

	slog.Info("Rate limits reset")
}

// RateLimitMiddleware creates a rate limiting middleware using an existing rate limiter.
// The client address is taken from RemoteAddr, which chi's RealIP middleware
// has already rewritten from the proxy headers.
func RateLimitMiddleware(rateLimiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := remoteHost(r.RemoteAddr)
			isAdmin := strings.HasPrefix(r.URL.Path, "/v1/admin")

			allowed, info := rateLimiter.IsAllowed(clientIP, isAdmin)
			setRateLimitHeaders(w, info)

			if !allowed {
				slog.Warn("Rate limit exceeded",
					"client_ip", clientIP,
					"path", r.URL.Path,
					"method", r.Method,
					"is_admin", isAdmin,
					"limit", info.Limit,
					"reset_time", info.ResetTime.Format(time.RFC3339))

				writeRateLimitErrorResponse(w, info, rateLimiter.now())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func setRateLimitHeaders(w http.ResponseWriter, info *RateLimitInfo) {
	if info.Limit < 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	if !info.ResetTime.IsZero() {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func writeRateLimitErrorResponse(w http.ResponseWriter, info *RateLimitInfo, now time.Time) {
	retryAfter := 0
	if !info.ResetTime.IsZero() {
		retryAfter = int(math.Ceil(info.ResetTime.Sub(now).Seconds()))
		if retryAfter < 0 {
			retryAfter = 0
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(models.ErrorResponse{
		Code:    "rate_limit_exceeded",
		Message: "Rate limit exceeded. Please try again later.",
		Details: []models.ErrorDetail{
			{
				Field: "rate_limit",
				Issue: fmt.Sprintf("Exceeded %d requests per window", info.Limit),
			},
			{
				Field: "retry_after",
				Issue: fmt.Sprintf("Retry after %d seconds", retryAfter),
			},
		},
	})
}
