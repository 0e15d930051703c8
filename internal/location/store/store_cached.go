package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"smartourism/internal/location/metrics"
	"smartourism/internal/location/models"
	id "smartourism/pkg/domain"
)

const (
	latestKeyPrefix  = "loc:latest:"
	versionKeyPrefix = "loc:ver:"

	// versionTTL outlives any single Latest call by a wide margin, so a
	// counter cannot expire and restart at the value a reader captured.
	versionTTL = 24 * time.Hour
)

// fillIfUnchanged writes the latest point only when no writer bumped the
// entity's version since the reader sampled it.
var fillIfUnchanged = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then v = '0' end
if v ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Store is the persistence contract decorated by CachedStore.
type Store interface {
	Append(ctx context.Context, point *models.LocationPoint) error
	RecentWindow(ctx context.Context, entityID id.EntityID, n int) ([]*models.LocationPoint, error)
	Latest(ctx context.Context, entityID id.EntityID) (*models.LocationPoint, error)
	History(ctx context.Context, entityID id.EntityID) ([]*models.LocationPoint, error)
	UpdateRisk(ctx context.Context, pointID id.PointID, score float64, label string) (*models.LocationPoint, error)
}

// CachedStore serves Latest from Redis and invalidates on every write.
// Redis is never authoritative: any Redis error falls back to the wrapped
// store and is only logged. Every invalidation bumps a per-entity version;
// a miss only fills the cache if the version it read before going to the
// wrapped store is still current.
type CachedStore struct {
	Store
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type CachedOption func(*CachedStore)

func WithCacheLogger(logger *slog.Logger) CachedOption {
	return func(c *CachedStore) {
		c.logger = logger
	}
}

func WithCacheMetrics(m *metrics.Metrics) CachedOption {
	return func(c *CachedStore) {
		c.metrics = m
	}
}

func NewCached(inner Store, client *redis.Client, ttl time.Duration, opts ...CachedOption) *CachedStore {
	c := &CachedStore{
		Store:  inner,
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func latestKey(entityID id.EntityID) string {
	return latestKeyPrefix + entityID.String()
}

func versionKey(entityID id.EntityID) string {
	return versionKeyPrefix + entityID.String()
}

func (c *CachedStore) Append(ctx context.Context, point *models.LocationPoint) error {
	if err := c.Store.Append(ctx, point); err != nil {
		return err
	}
	c.invalidate(ctx, point.EntityID)
	return nil
}

func (c *CachedStore) UpdateRisk(ctx context.Context, pointID id.PointID, score float64, label string) (*models.LocationPoint, error) {
	p, err := c.Store.UpdateRisk(ctx, pointID, score, label)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, p.EntityID)
	return p, nil
}

func (c *CachedStore) Latest(ctx context.Context, entityID id.EntityID) (*models.LocationPoint, error) {
	key := latestKey(entityID)
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p models.LocationPoint
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			c.metrics.IncrementCacheHit()
			return &p, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cached location", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		c.cacheError(ctx, "get", err)
	}
	c.metrics.IncrementCacheMiss()

	version, verErr := c.client.Get(ctx, versionKey(entityID)).Result()
	switch {
	case errors.Is(verErr, redis.Nil):
		version, verErr = "0", nil
	case verErr != nil:
		c.cacheError(ctx, "version", verErr)
	}

	p, err := c.Store.Latest(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if verErr == nil {
		c.fill(ctx, entityID, version, p)
	}
	return p, nil
}

func (c *CachedStore) fill(ctx context.Context, entityID id.EntityID, version string, p *models.LocationPoint) {
	body, err := json.Marshal(p)
	if err != nil {
		return
	}
	keys := []string{versionKey(entityID), latestKey(entityID)}
	stored, err := fillIfUnchanged.Run(ctx, c.client, keys, version, body, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.cacheError(ctx, "set", err)
		return
	}
	if stored == 0 {
		c.logger.DebugContext(ctx, "skipped cache fill after concurrent write", "entity_id", entityID.String())
	}
}

func (c *CachedStore) invalidate(ctx context.Context, entityID id.EntityID) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(entityID))
		pipe.Expire(ctx, versionKey(entityID), versionTTL)
		pipe.Del(ctx, latestKey(entityID))
		return nil
	})
	if err != nil {
		c.cacheError(ctx, "invalidate", err)
	}
}

func (c *CachedStore) cacheError(ctx context.Context, op string, err error) {
	c.metrics.IncrementCacheError()
	c.logger.WarnContext(ctx, "latest location cache error",
		"op", op,
		"error", err,
	)
}
