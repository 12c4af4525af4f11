package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultIdempotencyTTL = 24 * time.Hour
	idempotencyPrefix     = "garccom:submit:"
)

// RedisGuard reserves submission keys so two in-flight duplicates cannot both write.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// Reserve returns true when key was not reserved yet for the restaurant.
func (g *RedisGuard) Reserve(ctx context.Context, restaurantID uint, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, redisKey(restaurantID, key), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, restaurantID uint, key string) error {
	if err := g.client.Del(ctx, redisKey(restaurantID, key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func redisKey(restaurantID uint, key string) string {
	return fmt.Sprintf("%s%d:%s", idempotencyPrefix, restaurantID, key)
}

func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}
