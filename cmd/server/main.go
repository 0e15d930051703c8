package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	alertHandler "smartourism/internal/alert/handler"
	alertMetrics "smartourism/internal/alert/metrics"
	alertService "smartourism/internal/alert/service"
	fenceHandler "smartourism/internal/geofence/handler"
	fenceMetrics "smartourism/internal/geofence/metrics"
	fenceService "smartourism/internal/geofence/service"
	"smartourism/internal/geofence/index"
	ingestHandler "smartourism/internal/ingest/handler"
	ingestMetrics "smartourism/internal/ingest/metrics"
	ingestService "smartourism/internal/ingest/service"
	locationHandler "smartourism/internal/location/handler"
	locationMetrics "smartourism/internal/location/metrics"
	locationService "smartourism/internal/location/service"
	"smartourism/internal/platform/config"
	"smartourism/internal/platform/httpserver"
	"smartourism/internal/platform/logger"
	"smartourism/internal/platform/metrics"
	httptransport "smartourism/internal/transport/http"
)

// main wires dependencies, serves HTTP and shuts down on SIGINT/SIGTERM.
// Business logic lives in the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	locMetrics := locationMetrics.New()
	deps, err := openStorage(ctx, cfg, log, locMetrics)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Locations
	locations := locationService.New(deps.locations,
		locationService.WithLogger(log),
		locationService.WithMetrics(locMetrics),
	)

	// Geo-fences
	fences := index.New(deps.fences, index.WithLogger(log), index.WithMetrics(fenceMetrics.New()))
	if err := fences.Reload(ctx); err != nil {
		return fmt.Errorf("load geo-fences: %w", err)
	}
	if cfg.Ingest.FenceReloadInterval > 0 {
		go fences.Run(ctx, cfg.Ingest.FenceReloadInterval)
	}
	geofences := fenceService.New(fences, locations, fenceService.WithLogger(log))

	// Alerts
	alertStats := alertMetrics.New()
	pub, err := openPublisher(ctx, cfg, log, deps, alertStats)
	if err != nil {
		return err
	}
	alerts := alertService.New(deps.alerts,
		alertService.WithLogger(log),
		alertService.WithMetrics(alertStats),
		alertService.WithPublisher(pub),
	)

	// Ingestion pipeline
	policy, err := ingestPolicy(cfg.Ingest)
	if err != nil {
		return err
	}
	pipeline := ingestService.New(locations, newAssessor(cfg.Risk, log), geofences, alerts,
		ingestService.WithLogger(log),
		ingestService.WithMetrics(ingestMetrics.New()),
		ingestService.WithPolicy(policy),
	)

	router := httptransport.NewRouter(httptransport.Options{
		Logger:         log,
		Metrics:        metrics.New(),
		MetricsHandler: promhttp.Handler(),
		RequestTimeout: cfg.Server.RequestTimeout,
		HealthChecks:   deps.health,
	},
		ingestHandler.New(pipeline, log),
		locationHandler.New(locations, log),
		fenceHandler.New(geofences, log),
		alertHandler.New(alerts, log),
	)

	srv := httpserver.New(cfg.Server.Addr, router)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting smartourism", "addr", cfg.Server.Addr, "storage", cfg.Database.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := deps.drainPublisher(shutdownCtx); err != nil {
		log.Warn("alert publisher did not drain", "error", err)
	}
	log.Info("server stopped")
	return nil
}

func ingestPolicy(cfg config.IngestConfig) (ingestService.Policy, error) {
	level, err := ingestService.ParseGeofenceMinLevel(cfg.GeofenceAlertMinLevel)
	if err != nil {
		return ingestService.Policy{}, fmt.Errorf("GEOFENCE_ALERT_MIN_LEVEL: %w", err)
	}
	return ingestService.Policy{
		WindowSize:         cfg.WindowSize,
		HighRiskThreshold:  cfg.HighRiskThreshold,
		GeofenceMinLevel:   level,
		SerializePerEntity: cfg.SerializePerEntity,
	}, nil
}
