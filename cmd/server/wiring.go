package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	alertMetrics "smartourism/internal/alert/metrics"
	"smartourism/internal/alert/publisher"
	alertService "smartourism/internal/alert/service"
	alertStore "smartourism/internal/alert/store"
	"smartourism/internal/geofence/index"
	fenceStore "smartourism/internal/geofence/store"
	locationMetrics "smartourism/internal/location/metrics"
	locationStore "smartourism/internal/location/store"
	"smartourism/internal/platform/config"
	"smartourism/internal/platform/kafka"
	"smartourism/internal/platform/postgres"
	"smartourism/internal/platform/redis"
	"smartourism/internal/risk"
	riskMetrics "smartourism/internal/risk/metrics"
	httptransport "smartourism/internal/transport/http"
	"smartourism/pkg/platform/circuit"
)

// storage holds the backing stores and everything that must be closed on
// shutdown.
type storage struct {
	locations locationStore.Store
	fences    index.Store
	alerts    alertService.Store
	health    map[string]httptransport.HealthCheck

	db        *sql.DB
	cache     *redis.Client
	producer  *kafka.Producer
	publisher *publisher.Async
}

func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger, m *locationMetrics.Metrics) (*storage, error) {
	s := &storage{health: map[string]httptransport.HealthCheck{}}

	switch cfg.Database.Backend {
	case "memory":
		log.Warn("using in-memory storage; data is lost on restart")
		s.locations = locationStore.NewInMemoryStore()
		s.fences = fenceStore.NewInMemoryStore()
		s.alerts = alertStore.NewInMemoryStore()
	default:
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		s.db = db
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				s.Close()
				return nil, err
			}
		}
		s.locations = locationStore.NewPostgres(db)
		s.fences = fenceStore.NewPostgres(db)
		s.alerts = alertStore.NewPostgres(db)
		s.health["postgres"] = db.PingContext
	}

	cache, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		s.Close()
		return nil, err
	}
	if cache != nil {
		s.cache = cache
		s.locations = locationStore.NewCached(s.locations, cache.Client, cfg.Redis.LatestTTL,
			locationStore.WithCacheLogger(log),
			locationStore.WithCacheMetrics(m),
		)
		s.health["redis"] = cache.Health
	}
	return s, nil
}

// openPublisher starts the background alert publisher. It returns nil when
// no brokers are configured.
func openPublisher(ctx context.Context, cfg config.Config, log *slog.Logger, s *storage, m *alertMetrics.Metrics) (alertService.Publisher, error) {
	if !cfg.Kafka.Enabled() {
		log.Info("no kafka brokers configured; alert events are not published")
		return nil, nil
	}
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	s.producer = producer
	if err := producer.EnsureTopic(ctx); err != nil {
		return nil, fmt.Errorf("ensure alerts topic: %w", err)
	}
	s.health["kafka"] = producer.Ping

	async := publisher.NewAsync(publisher.NewKafkaSink(producer), cfg.Kafka.BufferSize,
		publisher.WithLogger(log),
		publisher.WithMetrics(m),
	)
	s.publisher = async
	go func() {
		// Run outlives ctx so Close can drain the queue after the signal.
		if err := async.Run(context.WithoutCancel(ctx)); err != nil {
			log.Error("alert publisher stopped", "error", err)
		}
	}()
	return async, nil
}

func newAssessor(cfg config.RiskConfig, log *slog.Logger) risk.Assessor {
	if cfg.URL == "" {
		log.Warn("RISK_API_URL is empty; risk enrichment disabled")
		return risk.Noop{}
	}
	m := riskMetrics.New()
	breaker := circuit.New("risk-oracle",
		circuit.WithFailureThreshold(cfg.BreakerFailures),
		circuit.WithSuccessThreshold(cfg.BreakerSuccesses),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
	return risk.NewClient(cfg.URL, cfg.Timeout,
		risk.WithLogger(log),
		risk.WithMetrics(m),
		risk.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
		risk.WithBreaker(breaker),
	)
}

func (s *storage) drainPublisher(ctx context.Context) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Close(ctx)
}

// Close releases connections. The publisher must be drained first.
func (s *storage) Close() {
	if s.producer != nil {
		s.producer.Close(context.Background())
	}
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
