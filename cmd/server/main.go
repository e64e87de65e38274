package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"car-catalog-api/internal/backend"
	"car-catalog-api/internal/config"
	"car-catalog-api/internal/events"
	"car-catalog-api/internal/geocode"
	"car-catalog-api/internal/handlers"
	"car-catalog-api/internal/middleware"
	"car-catalog-api/internal/services"
	"car-catalog-api/internal/storage"
	"car-catalog-api/internal/suggest"
	"car-catalog-api/internal/telemetry"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg := config.LoadConfig()

	slog.Info("Starting Car Catalog API", "version", "1.0.0")

	ctx := context.Background()
	otelTelemetry := telemetry.InitMetrics(ctx, cfg.MetricsExporter, cfg.MetricsAddr)
	slog.Info("OpenTelemetry telemetry initialized", "exporter", cfg.MetricsExporter)

	apiTelemetry := telemetry.NewCatalogApiTelemetry()
	if err := apiTelemetry.InitializeTelemetry(ctx); err != nil {
		slog.Error("Failed to initialize API telemetry", "error", err)
		return
	}

	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendToken)

	source, pool, redisClient, err := buildSource(ctx, cfg, backendClient)
	if err != nil {
		slog.Error("Failed to initialize catalog source", "error", err)
		return
	}
	slog.Info("Catalog source initialized", "source", cfg.CatalogSource, "snapshot", redisClient != nil)

	eventQueue, err := events.NewEventQueue(events.EventQueueConfig{
		FilePath:  cfg.EventsFilePath,
		MaxEvents: config.ParsePositiveInt("MAX_EVENTS_IN_QUEUE", cfg.MaxEventsInQueue, 10000),
		Logger:    slog.Default(),
	})
	if err != nil {
		slog.Error("Failed to initialize event queue", "error", err)
		return
	}

	// Purchases are only confirmed upstream when the backend owns the catalog
	var confirmer services.Confirmer
	if cfg.CatalogSource == config.SourceBackend {
		confirmer = backendClient
	}

	catalogService := services.NewCatalogService(cfg, source, confirmer, eventQueue)
	if err := catalogService.LoadInitial(ctx); err != nil {
		// The service stays up in the Error state; an admin refresh can recover it
		slog.Error("Initial catalog load failed", "error", err)
	}

	suggestCache := suggest.NewCache(config.ParseDuration("SUGGESTION_CACHE_TTL", cfg.SuggestionCacheTTL, suggest.DefaultCacheTTL), nil)
	suggestService := suggest.NewService(
		geocode.NewNominatimClient(cfg.NominatimURL, cfg.NominatimUserAgent),
		suggestCache,
		config.ParsePositiveInt("SUGGESTION_LIMIT", cfg.SuggestionLimit, suggest.DefaultLimit),
	)

	carsHandler := handlers.NewCarsHandler(catalogService)
	locationsHandler := handlers.NewLocationsHandler(suggestService)
	bookingsHandler := handlers.NewBookingsHandler(backendClient, catalogService)
	eventsHandler := handlers.NewEventsHandler(eventQueue, slog.Default())
	healthHandler := handlers.NewHealthHandler(catalogService)
	adminHandler := handlers.NewAdminHandler(catalogService, suggestCache)

	r := mux.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(telemetry.NewTelemetryMiddleware(apiTelemetry).Middleware)

	rateLimitConfig := middleware.ParseRateLimitConfig(cfg)
	var rateLimiter *middleware.RateLimiter
	if rateLimitConfig.Enabled {
		rateLimiter = middleware.NewRateLimiter(rateLimitConfig)
		r.Use(middleware.RateLimitMiddleware(rateLimiter))
		slog.Info("Rate limiting middleware enabled", "type", rateLimitConfig.Type)
	} else {
		slog.Info("Rate limiting middleware disabled")
	}
	rateLimitStatusHandler := handlers.NewRateLimitStatusHandler(rateLimiter)

	auth := middleware.NewAuthenticator(cfg)

	// Admin routes are registered first so /v1/admin is not swallowed by the /v1 subrouter
	adminV1 := r.PathPrefix("/v1/admin").Subrouter()
	adminV1.Use(auth.AdminAuthMiddleware)
	adminV1.HandleFunc("/cars", adminHandler.SetCars).Methods("PUT")
	adminV1.HandleFunc("/catalog/refresh", adminHandler.RefreshCatalog).Methods("POST")
	adminV1.HandleFunc("/locations/cache", adminHandler.ClearSuggestionCache).Methods("DELETE")
	adminV1.HandleFunc("/stats", adminHandler.Stats).Methods("GET")
	adminV1.HandleFunc("/rate-limit/status", rateLimitStatusHandler.GetRateLimitStatus).Methods("GET")
	adminV1.HandleFunc("/rate-limit/reset", rateLimitStatusHandler.ResetRateLimits).Methods("POST")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(auth.AuthMiddleware)
	v1.HandleFunc("/cars", carsHandler.ListCars).Methods("GET")
	v1.HandleFunc("/cars/{carId}", carsHandler.GetCar).Methods("GET")
	v1.HandleFunc("/cars/{carId}/tokens/reserve", carsHandler.ReserveToken).Methods("POST")
	v1.HandleFunc("/locations/suggest", locationsHandler.Suggest).Methods("GET")
	v1.HandleFunc("/bookings/{bookingId}", bookingsHandler.GetBooking).Methods("GET")
	v1.HandleFunc("/events", eventsHandler.GetEvents).Methods("GET")

	// Health check endpoint (no auth required)
	r.HandleFunc("/health", healthHandler.Health).Methods("GET")

	slog.Debug("Available endpoints",
		"v1_endpoints", []string{
			"GET /v1/cars",
			"GET /v1/cars/{carId}",
			"POST /v1/cars/{carId}/tokens/reserve",
			"GET /v1/locations/suggest",
			"GET /v1/bookings/{bookingId}",
			"GET /v1/events",
		},
		"admin_endpoints", []string{
			"PUT /v1/admin/cars",
			"POST /v1/admin/catalog/refresh",
			"DELETE /v1/admin/locations/cache",
			"GET /v1/admin/stats",
		},
		"system_endpoints", []string{
			"GET /health",
		})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server ready to accept connections", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// Flushes any pending persist before the stores close
	catalogService.Stop()

	if err := eventQueue.Close(); err != nil {
		slog.Error("Error closing event queue", "error", err)
	}
	if rateLimiter != nil {
		rateLimiter.Stop()
	}
	otelTelemetry.Shutdown(shutdownCtx)

	if redisClient != nil {
		redisClient.Close()
	}
	if pool != nil {
		pool.Close()
	}

	slog.Info("Server exited")
}

// buildSource picks the catalog source from CATALOG_SOURCE and, when
// REDIS_URL is set, fronts it with a Redis snapshot.
func buildSource(ctx context.Context, cfg *config.Config, client *backend.Client) (storage.Source, *pgxpool.Pool, *redis.Client, error) {
	var (
		source storage.Source
		pool   *pgxpool.Pool
	)

	switch cfg.CatalogSource {
	case config.SourceFile:
		source = storage.NewFileSource(cfg.DataPath)
	case config.SourcePostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, nil, fmt.Errorf("DATABASE_URL is required when CATALOG_SOURCE=%s", config.SourcePostgres)
		}
		p, err := storage.NewPool(ctx, cfg.DatabaseURL, 5)
		if err != nil {
			return nil, nil, nil, err
		}
		pg := storage.NewPostgresSource(p)
		if err := pg.EnsureSchema(ctx); err != nil {
			p.Close()
			return nil, nil, nil, fmt.Errorf("failed to prepare catalog schema: %w", err)
		}
		source, pool = pg, p
	case config.SourceBackend:
		source = storage.NewBackendSource(client)
	default:
		return nil, nil, nil, fmt.Errorf("unknown CATALOG_SOURCE %q", cfg.CatalogSource)
	}

	if cfg.RedisURL == "" {
		return source, pool, nil, nil
	}

	redisClient, err := storage.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		// The snapshot is an optimization; run without it
		slog.Warn("Redis unavailable, loading catalog without snapshot", "error", err)
		return source, pool, nil, nil
	}

	ttl := config.ParseDuration("SNAPSHOT_TTL", cfg.SnapshotTTL, storage.DefaultSnapshotTTL)
	snapshot := storage.NewRedisSnapshot(redisClient, storage.DefaultSnapshotKey, ttl)
	return storage.NewCachedSource(source, snapshot), pool, redisClient, nil
}
