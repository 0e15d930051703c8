package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Risk     RiskConfig
	Ingest   IngestConfig
	Kafka    KafkaConfig
	LogLevel string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects and tunes the persistent store.
type DatabaseConfig struct {
	// Backend is "postgres" or "memory".
	Backend        string
	URL            string
	MaxOpenConns   int
	MaxIdleConns   int
	ConnMaxIdle    time.Duration
	ConnectTimeout time.Duration
	AutoMigrate    bool
}

// RedisConfig configures the latest-point cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LatestTTL    time.Duration
}

// RiskConfig configures the risk scoring oracle client. An empty URL
// disables enrichment.
type RiskConfig struct {
	URL               string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   int
	BreakerSuccesses  int
	BreakerCooldown   time.Duration
}

// IngestConfig holds pipeline policy knobs.
type IngestConfig struct {
	WindowSize            int
	HighRiskThreshold     float64
	GeofenceAlertMinLevel string
	SerializePerEntity    bool
	// FenceReloadInterval refreshes the geo-fence index from the store so
	// fences added by other replicas become visible. Zero disables it.
	FenceReloadInterval time.Duration
}

// KafkaConfig configures alert event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers     []string
	AlertsTopic string
	Partitions  int32
	Replicas    int16
	BufferSize  int
}

// Enabled reports whether alert publishing is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// FromEnv loads .env (if present) and builds the configuration from the
// environment.
func FromEnv() (Config, error) {
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	var p parser
	cfg := Config{
		Server: Server{
			Addr:            p.str("SERVER_ADDR", ":5000"),
			RequestTimeout:  p.duration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Backend:        strings.ToLower(p.str("STORAGE_BACKEND", "postgres")),
			URL:            databaseURL(),
			MaxOpenConns:   p.integer("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:   p.integer("DB_MAX_IDLE_CONNS", 5),
			ConnMaxIdle:    p.duration("DB_IDLE_TIMEOUT", 30*time.Second),
			ConnectTimeout: p.duration("DB_CONNECT_TIMEOUT", 2*time.Second),
			AutoMigrate:    p.boolean("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
			LatestTTL:    p.duration("LATEST_CACHE_TTL", 10*time.Minute),
		},
		Risk: RiskConfig{
			URL:               p.optional("RISK_API_URL", "http://localhost:8000"),
			Timeout:           p.duration("RISK_API_TIMEOUT", 3*time.Second),
			RequestsPerSecond: p.float("RISK_API_RPS", 50),
			Burst:             p.integer("RISK_API_BURST", 10),
			BreakerFailures:   p.integer("RISK_BREAKER_FAILURES", 5),
			BreakerSuccesses:  p.integer("RISK_BREAKER_SUCCESSES", 2),
			BreakerCooldown:   p.duration("RISK_BREAKER_COOLDOWN", 30*time.Second),
		},
		Ingest: IngestConfig{
			WindowSize:            p.integer("RISK_WINDOW_SIZE", 10),
			HighRiskThreshold:     p.float("HIGH_RISK_THRESHOLD", 0.7),
			GeofenceAlertMinLevel: strings.ToLower(p.str("GEOFENCE_ALERT_MIN_LEVEL", "high")),
			SerializePerEntity:    p.boolean("INGEST_SERIALIZE_PER_ENTITY", false),
			FenceReloadInterval:   p.duration("GEOFENCE_RELOAD_INTERVAL", time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(os.Getenv("KAFKA_BROKERS")),
			AlertsTopic: p.str("ALERTS_TOPIC", "safety.alerts"),
			Partitions:  int32(p.integer("ALERTS_TOPIC_PARTITIONS", 3)),
			Replicas:    int16(p.integer("ALERTS_TOPIC_REPLICAS", 1)),
			BufferSize:  p.integer("ALERTS_PUBLISH_BUFFER", 256),
		},
		LogLevel: p.str("LOG_LEVEL", "info"),
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MaxRiskWindow caps the track sent to the risk oracle.
const MaxRiskWindow = 10

func (c Config) validate() error {
	switch c.Database.Backend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be postgres or memory, got %q", c.Database.Backend)
	}
	if c.Ingest.WindowSize < 2 || c.Ingest.WindowSize > MaxRiskWindow {
		return fmt.Errorf("RISK_WINDOW_SIZE must be within [2,%d], got %d", MaxRiskWindow, c.Ingest.WindowSize)
	}
	if c.Ingest.HighRiskThreshold < 0 || c.Ingest.HighRiskThreshold > 1 {
		return fmt.Errorf("HIGH_RISK_THRESHOLD must be within [0,1], got %v", c.Ingest.HighRiskThreshold)
	}
	switch c.Ingest.GeofenceAlertMinLevel {
	case "none", "low", "medium", "high":
	default:
		return fmt.Errorf("GEOFENCE_ALERT_MIN_LEVEL must be none, low, medium or high, got %q", c.Ingest.GeofenceAlertMinLevel)
	}
	if c.Ingest.FenceReloadInterval < 0 {
		return fmt.Errorf("GEOFENCE_RELOAD_INTERVAL must not be negative")
	}
	if c.Risk.Timeout <= 0 {
		return fmt.Errorf("RISK_API_TIMEOUT must be positive")
	}
	return nil
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from the
// discrete DB_* variables used by existing deployments.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := envOr("DB_HOST", "localhost")
	port := envOr("DB_PORT", "5432")
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(envOr("DB_USER", "postgres"), os.Getenv("DB_PASS")),
		Host:   host + ":" + port,
		Path:   "/" + envOr("DB_NAME", "smart_tourism"),
	}
	q := url.Values{}
	if os.Getenv("DB_SSL") == "true" {
		q.Set("sslmode", "require")
	} else {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser accumulates the first parse error so FromEnv can read every key
// in one pass.
type parser struct {
	err error
}

func (p *parser) str(key, fallback string) string {
	return envOr(key, fallback)
}

// optional is str, except that a key set to the empty string yields "".
func (p *parser) optional(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (p *parser) integer(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return f
}

func (p *parser) boolean(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return b
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return d
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("parse %s: %w", key, err)
	}
}
