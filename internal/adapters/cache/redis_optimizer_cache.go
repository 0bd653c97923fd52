package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"routemax-service/internal/ports"
)

// RedisOptimizerCache wraps a RouteOptimizer with a Redis cache keyed by the
// waypoint set, travel mode and optimization flag. The pruning loop shrinks
// the waypoint list one stop at a time, so repeated construction attempts
// over the same data hit the cache instead of the paid API.
//
// Cache failures degrade to the inner optimizer: reads and writes that error
// are logged and skipped, never surfaced.
type RedisOptimizerCache struct {
	rdb   *redis.Client
	inner ports.RouteOptimizer
	ttl   time.Duration
}

func NewRedisOptimizerCache(rdb *redis.Client, inner ports.RouteOptimizer, ttl time.Duration) (*RedisOptimizerCache, error) {
	if rdb == nil {
		return nil, errors.New("optimizer cache: redis client is nil")
	}
	if inner == nil {
		return nil, errors.New("optimizer cache: inner optimizer is nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisOptimizerCache{rdb: rdb, inner: inner, ttl: ttl}, nil
}

func (c *RedisOptimizerCache) OptimizeWaypoints(
	ctx context.Context,
	req ports.OptimizeRequest,
) (ports.OptimizeResult, error) {
	key := cacheKey(req)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached ports.OptimizeResult
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		log.Printf("optimizer cache: discarding corrupt entry %s", key)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("optimizer cache read failed: %v", err)
	}

	res, err := c.inner.OptimizeWaypoints(ctx, req)
	if err != nil {
		return ports.OptimizeResult{}, err
	}

	if payload, err := json.Marshal(res); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			log.Printf("optimizer cache write failed: %v", err)
		}
	}

	return res, nil
}

func cacheKey(req ports.OptimizeRequest) string {
	var b strings.Builder
	b.WriteString(req.Origin.LatLng())
	b.WriteByte('|')
	b.WriteString(req.Destination.LatLng())
	for _, wp := range req.Waypoints {
		b.WriteByte('|')
		b.WriteString(wp.LatLng())
	}
	b.WriteByte('|')
	b.WriteString(string(req.Mode))
	if req.PreserveOrder {
		b.WriteString("|preserve")
	}

	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("routemax:optimize:%s", hex.EncodeToString(sum[:]))
}
