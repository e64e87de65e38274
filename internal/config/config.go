package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"car-catalog-api/internal/utils"

	"github.com/joho/godotenv"
)

// Catalog source kinds
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceBackend  = "backend"
)

// Config holds all configuration for the application. Values stay as the
// raw strings read from the environment; the Parse helpers below turn them
// into typed values and fall back to defaults with a warning.
type Config struct {
	Port        string
	LogLevel    string
	LogFormat   string
	Environment string

	MetricsExporter string
	MetricsAddr     string

	CatalogSource string
	DataPath      string
	DatabaseURL   string
	RedisURL      string
	SnapshotTTL   string
	BackendURL    string
	BackendToken  string

	NominatimURL       string
	NominatimUserAgent string
	SuggestionCacheTTL string
	SuggestionLimit    string

	DefaultPageSize string
	PersistDebounce string
	RefreshDebounce string
	ConfirmTimeout  string

	IdempotencyCacheTTL             string
	IdempotencyCacheCleanupInterval string
	ReservationWorkerCount          string
	ReservationQueueBufferSize      string
	MaxEventsInQueue                string
	EventsFilePath                  string

	JWTSecret    string
	APIKeys      string
	AdminAPIKeys string

	RateLimitEnabled                string
	RateLimitType                   string
	RateLimitRequestsPerMinute      string
	RateLimitWindowMinutes          string
	RateLimitAdminRequestsPerMinute string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() *Config {
	// This will not override existing environment variables
	err := godotenv.Load()
	envLoaded := err == nil

	config := FromEnv()

	utils.SetupLogging(config.LogLevel, config.LogFormat)

	if !envLoaded {
		slog.Warn("Could not load .env file, continuing with system environment variables only", "error", err)
	} else {
		slog.Info("Successfully loaded .env file")
	}

	slog.Info("Configuration loaded",
		"port", config.Port,
		"environment", config.Environment,
		"logLevel", config.LogLevel,
		"metricsExporter", config.MetricsExporter,
		"catalogSource", config.CatalogSource,
		"dataPath", config.DataPath,
		"redisConfigured", config.RedisURL != "",
		"backendURL", config.BackendURL,
		"nominatimURL", config.NominatimURL,
		"suggestionCacheTTL", config.SuggestionCacheTTL,
		"defaultPageSize", config.DefaultPageSize,
		"persistDebounce", config.PersistDebounce,
		"confirmTimeout", config.ConfirmTimeout,
		"idempotencyCacheTTL", config.IdempotencyCacheTTL,
		"reservationWorkerCount", config.ReservationWorkerCount,
		"reservationQueueBufferSize", config.ReservationQueueBufferSize,
		"maxEventsInQueue", config.MaxEventsInQueue,
		"eventsFilePath", config.EventsFilePath,
		"jwtConfigured", config.JWTSecret != "")

	return config
}

// FromEnv reads every key from the process environment without touching .env
func FromEnv() *Config {
	c := &Config{
		Port:        getEnvWithDefault("PORT", "8080"),
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat:   getEnvWithDefault("LOG_FORMAT", "text"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),

		MetricsExporter: strings.ToLower(getEnvWithDefault("METRICS_EXPORTER", "grpc")),
		MetricsAddr:     getEnvWithDefault("METRICS_ADDR", ":9080"),

		CatalogSource: strings.ToLower(getEnvWithDefault("CATALOG_SOURCE", SourceFile)),
		DataPath:      getEnvWithDefault("DATA_PATH", "data/cars.json"),
		DatabaseURL:   getEnvWithDefault("DATABASE_URL", ""),
		RedisURL:      getEnvWithDefault("REDIS_URL", ""),
		SnapshotTTL:   getEnvWithDefault("SNAPSHOT_TTL", "5m"),
		BackendURL:    getEnvWithDefault("BACKEND_URL", "http://localhost:5000"),
		BackendToken:  getEnvWithDefault("BACKEND_TOKEN", ""),

		NominatimURL:       getEnvWithDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: getEnvWithDefault("NOMINATIM_USER_AGENT", "car-catalog-api/1.0"),
		SuggestionCacheTTL: getEnvWithDefault("SUGGESTION_CACHE_TTL", "5m"),
		SuggestionLimit:    getEnvWithDefault("SUGGESTION_LIMIT", "10"),

		DefaultPageSize: getEnvWithDefault("DEFAULT_PAGE_SIZE", "9"),
		PersistDebounce: getEnvWithDefault("PERSIST_DEBOUNCE", "2s"),
		RefreshDebounce: getEnvWithDefault("REFRESH_DEBOUNCE", "1s"),
		ConfirmTimeout:  getEnvWithDefault("CONFIRM_TIMEOUT", "20s"),

		IdempotencyCacheTTL:             getEnvWithDefault("IDEMPOTENCY_CACHE_TTL", "2m"),
		IdempotencyCacheCleanupInterval: getEnvWithDefault("IDEMPOTENCY_CACHE_CLEANUP_INTERVAL", "30s"),
		ReservationWorkerCount:          getEnvWithDefault("RESERVATION_WORKER_COUNT", "1"),
		ReservationQueueBufferSize:      getEnvWithDefault("RESERVATION_QUEUE_BUFFER_SIZE", "100"),
		MaxEventsInQueue:                getEnvWithDefault("MAX_EVENTS_IN_QUEUE", "10000"),
		EventsFilePath:                  getEnvWithDefault("EVENTS_FILE_PATH", "./data/events.json"),

		JWTSecret:    getEnvWithDefault("JWT_SECRET", ""),
		APIKeys:      getEnvWithDefault("API_KEYS", "demo"),
		AdminAPIKeys: getEnvWithDefault("ADMIN_API_KEYS", ""),

		RateLimitEnabled:                getEnvWithDefault("RATE_LIMIT_ENABLED", "true"),
		RateLimitType:                   getEnvWithDefault("RATE_LIMIT_TYPE", "ip"),
		RateLimitRequestsPerMinute:      getEnvWithDefault("RATE_LIMIT_REQUESTS_PER_MINUTE", "100"),
		RateLimitWindowMinutes:          getEnvWithDefault("RATE_LIMIT_WINDOW_MINUTES", "1"),
		RateLimitAdminRequestsPerMinute: getEnvWithDefault("RATE_LIMIT_ADMIN_REQUESTS_PER_MINUTE", "50"),
	}

	// Production logs go to collectors, so they default to JSON
	if os.Getenv("LOG_FORMAT") == "" && c.IsProduction() {
		c.LogFormat = "json"
	}
	return c
}

// getEnvWithDefault gets an environment variable with a default fallback
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ParseDuration parses value, warning and returning def when it is invalid or not positive
func ParseDuration(name, value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		slog.Warn("Invalid duration, using default", "setting", name, "provided", value, "default", def.String(), "error", err)
		return def
	}
	return d
}

// ParsePositiveInt parses value, warning and returning def when it is invalid or below 1
func ParsePositiveInt(name, value string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		slog.Warn("Invalid integer, using default", "setting", name, "provided", value, "default", def, "error", err)
		return def
	}
	return n
}

// SplitList splits a comma-separated setting, dropping blanks
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
