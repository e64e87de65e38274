package middleware

import (
	"log/slog"
	"strings"

	"car-catalog-api/internal/config"
)

// ParseRateLimitConfig parses rate limiting configuration from the config struct
func ParseRateLimitConfig(cfg *config.Config) RateLimitConfig {
	rateLimitConfig := RateLimitConfig{
		Enabled:                parseBool(cfg.RateLimitEnabled, true),
		Type:                   parseRateLimitType(cfg.RateLimitType),
		RequestsPerMinute:      config.ParsePositiveInt("RATE_LIMIT_REQUESTS_PER_MINUTE", cfg.RateLimitRequestsPerMinute, 100),
		WindowMinutes:          config.ParsePositiveInt("RATE_LIMIT_WINDOW_MINUTES", cfg.RateLimitWindowMinutes, 1),
		AdminRequestsPerMinute: config.ParsePositiveInt("RATE_LIMIT_ADMIN_REQUESTS_PER_MINUTE", cfg.RateLimitAdminRequestsPerMinute, 50),
	}

	slog.Info("Rate limiting configuration parsed",
		"enabled", rateLimitConfig.Enabled,
		"type", rateLimitConfig.Type,
		"requests_per_minute", rateLimitConfig.RequestsPerMinute,
		"window_minutes", rateLimitConfig.WindowMinutes,
		"admin_requests_per_minute", rateLimitConfig.AdminRequestsPerMinute)

	return rateLimitConfig
}

// parseBool parses a string to bool with a default value
func parseBool(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on", "enabled":
		return true
	case "false", "0", "no", "off", "disabled":
		return false
	default:
		slog.Warn("Invalid boolean value, using default",
			"value", value, "default", defaultValue)
		return defaultValue
	}
}

// parseRateLimitType parses the rate limit type with validation
func parseRateLimitType(value string) RateLimitType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "ip":
		return RateLimitTypeIP
	case "global":
		return RateLimitTypeGlobal
	case "both":
		return RateLimitTypeBoth
	default:
		slog.Warn("Invalid rate limit type, using default",
			"value", value, "default", "ip")
		return RateLimitTypeIP
	}
}
