package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adancov/trading-venue/internal/domain"
	"github.com/adancov/trading-venue/internal/port"
)

const latestKey = "audit:latest"

var _ port.SnapshotCache = (*RedisCache)(nil)

// RedisCache keeps the latest audit snapshot in redis, JSON-encoded.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

func (c *RedisCache) SetLatest(ctx context.Context, snap *domain.AuditSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, latestKey, b, c.ttl).Err()
}

func (c *RedisCache) GetLatest(ctx context.Context) (*domain.AuditSnapshot, error) {
	b, err := c.client.Get(ctx, latestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.AuditSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
