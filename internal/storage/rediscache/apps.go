// Package rediscache caches app token lookups in Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tjfontaine/shopgate/internal/auth"
	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/core/ports"
)

const (
	keyPrefix = "shopgate:app:"

	// missMarker records a token that belongs to no active app.
	missMarker = "-"

	DefaultTTL = time.Minute
)

// AppCache is a read-through cache in front of an AppFinder. Both hits and
// misses are cached for ttl. Redis failures fall back to the wrapped finder.
type AppCache struct {
	next   ports.AppFinder
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.AppFinder = (*AppCache)(nil)

// NewAppCache wraps next with a cache stored in rdb.
func NewAppCache(next ports.AppFinder, rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *AppCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AppCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

type cachedApp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *AppCache) FindActiveByToken(ctx context.Context, token string) (*domain.App, error) {
	key := keyPrefix + auth.HashToken(token)

	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == missMarker {
			return nil, nil
		}
		var cached cachedApp
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &domain.App{ID: cached.ID, Name: cached.Name, IsActive: true, CreatedAt: cached.CreatedAt}, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt app cache entry", slog.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WarnContext(ctx, "app cache read failed", slog.String("error", err.Error()))
	}

	app, err := c.next.FindActiveByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	value := missMarker
	if app != nil {
		encoded, err := json.Marshal(cachedApp{ID: app.ID, Name: app.Name, CreatedAt: app.CreatedAt})
		if err != nil {
			return nil, fmt.Errorf("encode app: %w", err)
		}
		value = string(encoded)
	}
	if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "app cache write failed", slog.String("error", err.Error()))
	}

	return app, nil
}

// Invalidate drops the cached lookup for token.
func (c *AppCache) Invalidate(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, keyPrefix+auth.HashToken(token)).Err()
}

// NewClient connects to the Redis server at addr and verifies it answers.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis addr is empty")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}
