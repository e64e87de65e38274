package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Exporter kinds accepted by InitMetrics
const (
	ExporterScraper = "scraper"
	ExporterGRPC    = "grpc"
	ExporterNone    = "none"
)

// Telemetry owns the meter provider and, in scraper mode, the /metrics server
type Telemetry struct {
	server   *http.Server
	Provider *metric.MeterProvider
}

// InitMetrics installs the global meter provider. "scraper" serves Prometheus
// text on metricsAddr; "none" keeps the no-op provider; anything else exports
// over OTLP gRPC to OTEL_EXPORTER_OTLP_METRICS_ENDPOINT (default localhost:4317).
func InitMetrics(ctx context.Context, exporter, metricsAddr string) *Telemetry {
	t := &Telemetry{}

	switch exporter {
	case ExporterNone:
		slog.Info("Metrics export disabled")
	case ExporterScraper:
		slog.Info("Starting metrics with scraper exporter", "addr", metricsAddr)
		t.initScrapeMetrics(metricsAddr)
	default:
		slog.Info("Starting metrics with grpc exporter")
		t.initGRPCMetrics(ctx)
	}
	return t
}

func (t *Telemetry) initGRPCMetrics(ctx context.Context) {
	exporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		slog.Error("Creating GRPC exporter", "error", err)
		return
	}

	t.Provider = metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(exporter)))
	otel.SetMeterProvider(t.Provider)
}

// The prometheus exporter is both a Reader and a prometheus.Collector
func (t *Telemetry) initScrapeMetrics(addr string) {
	exporter, err := prometheus.New()
	if err != nil {
		slog.Error("Creating HTML scrape exporter", "error", err)
		return
	}

	t.Provider = metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(t.Provider)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	t.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go t.serveMetrics()
}

func (t *Telemetry) serveMetrics() {
	slog.Info("Serving metrics", "addr", t.server.Addr, "path", "/metrics")

	if err := t.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("Metrics server closed")
		} else {
			slog.Error("Metrics ListenAndServe exited with", "error", err)
		}
	}
}

// Shutdown flushes pending metrics and stops the scraper server
func (t *Telemetry) Shutdown(ctx context.Context) {
	if t.server != nil {
		_ = t.server.Shutdown(ctx)
		slog.Info("Shutting down metrics server")
	}
	if t.Provider != nil {
		if err := t.Provider.ForceFlush(ctx); err != nil {
			slog.Warn("Failed to flush metrics", "error", err)
		}
		if err := t.Provider.Shutdown(ctx); err != nil {
			slog.Warn("Failed to shut down meter provider", "error", err)
		}
	}
}
