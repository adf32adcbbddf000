package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tollwise/tollrouted/internal/types"
)

// CacheConfig holds the optional Redis directions cache configuration.
type CacheConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// CachingProvider decorates a RouteProvider with a Redis cache keyed on
// the rounded od-pair and preference flags. Cache failures are logged and
// fall through to the inner provider; a broken cache never fails a
// request.
type CachingProvider struct {
	inner  RouteProvider
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewCachingProvider wraps inner with the configured cache. Returns the
// inner provider unchanged when no cache address is configured.
func NewCachingProvider(inner RouteProvider, config *CacheConfig, logger *logrus.Logger) RouteProvider {
	if config == nil || config.Addr == "" {
		return inner
	}
	ttl := config.TTL
	if ttl == 0 {
		ttl = 2 * time.Minute
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	logger.WithFields(logrus.Fields{
		"provider": inner.GetProviderName(),
		"addr":     config.Addr,
		"ttl":      ttl.String(),
	}).Info("Directions cache enabled")
	return &CachingProvider{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

// GetProviderName returns the inner provider's name.
func (c *CachingProvider) GetProviderName() string {
	return c.inner.GetProviderName()
}

// GetRouteCandidates serves from cache when possible.
func (c *CachingProvider) GetRouteCandidates(ctx context.Context, query *types.RouteQuery) ([]types.RouteCandidate, error) {
	key := cacheKey(c.inner.GetProviderName(), query)

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached []types.RouteCandidate
		if err := json.Unmarshal(raw, &cached); err == nil {
			c.logger.WithField("key", key).Debug("Directions cache hit")
			return cached, nil
		}
	} else if err != redis.Nil {
		c.logger.WithError(err).Warn("Directions cache read failed")
	}

	candidates, err := c.inner.GetRouteCandidates(ctx, query)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(candidates); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.WithError(err).Warn("Directions cache write failed")
		}
	}
	return candidates, nil
}

// HealthCheck delegates to the inner provider; the cache is best-effort.
func (c *CachingProvider) HealthCheck(ctx context.Context) error {
	return c.inner.HealthCheck(ctx)
}

// cacheKey rounds coordinates to ~11m so nearby repeat queries share an
// entry within the TTL.
func cacheKey(provider string, q *types.RouteQuery) string {
	return fmt.Sprintf("directions:%s:%.4f,%.4f:%.4f,%.4f:t%t:h%t",
		provider,
		q.Origin.Lat, q.Origin.Lng,
		q.Destination.Lat, q.Destination.Lng,
		q.AvoidTolls, q.AvoidHighways)
}
