package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

// RedisCache is the Redis-backed variant of the session working set, for
// deployments where multiple instances share one cache.
type RedisCache struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	logger *logging.Logger
}

// NewRedisCache creates a Redis-backed working-set cache with the supplied
// TTL (the session inactivity window).
func NewRedisCache(client *redis.Client, ttl time.Duration, tracer trace.Tracer, logger *logging.Logger) *RedisCache {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("supply.internal.session.cache")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisCache{redis: client, ttl: ttl, tracer: tracer, logger: logger}
}

func workingSetKey(visitorID string) string {
	return fmt.Sprintf("session:visitor:%s", visitorID)
}

// Get loads the visitor's cached session. A cache failure is treated as a
// miss; the durable store remains authoritative.
func (c *RedisCache) Get(ctx context.Context, visitorID string) (*Session, bool) {
	ctx, span := c.tracer.Start(ctx, "session.cache_get")
	defer span.End()

	data, err := c.redis.Get(ctx, workingSetKey(visitorID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			span.RecordError(err)
			c.logger.Warn("session cache read failed", "error", err, "visitor_id", visitorID)
		}
		return nil, false
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		span.RecordError(err)
		c.logger.Warn("session cache entry corrupt", "error", err, "visitor_id", visitorID)
		return nil, false
	}
	return &s, true
}

// Put stores the session under the visitor key with the working-set TTL.
func (c *RedisCache) Put(ctx context.Context, s *Session) {
	ctx, span := c.tracer.Start(ctx, "session.cache_put")
	defer span.End()

	data, err := json.Marshal(s)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("session cache marshal failed", "error", err, "session_id", s.ID)
		return
	}
	if err := c.redis.Set(ctx, workingSetKey(s.VisitorID), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		c.logger.Warn("session cache write failed", "error", err, "session_id", s.ID)
	}
}

// Remove drops the visitor's cache entry.
func (c *RedisCache) Remove(ctx context.Context, visitorID string) {
	ctx, span := c.tracer.Start(ctx, "session.cache_remove")
	defer span.End()

	if err := c.redis.Del(ctx, workingSetKey(visitorID)).Err(); err != nil {
		span.RecordError(err)
		c.logger.Warn("session cache delete failed", "error", err, "visitor_id", visitorID)
	}
}
