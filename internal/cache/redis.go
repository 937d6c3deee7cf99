package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gotyolo/tripbooking/config"
	"github.com/gotyolo/tripbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds the published-trip catalog for listing requests.
// Seat counts read from here are a stale snapshot for display only; the
// database row is the sole authority for availability.
type RedisCache struct {
	client   *redis.Client
	tripsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, tripsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		tripsTTL: tripsTTL,
	}
}

func (c *RedisCache) GetTrips(ctx context.Context) ([]domain.Trip, error) {
	data, err := c.client.Get(ctx, tripsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var trips []domain.Trip
	if err := json.Unmarshal(data, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

func (c *RedisCache) SetTrips(ctx context.Context, trips []domain.Trip) error {
	payload, err := json.Marshal(trips)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tripsKey(), payload, c.tripsTTL).Err()
}

func (c *RedisCache) InvalidateTrips(ctx context.Context) error {
	return c.client.Del(ctx, tripsKey()).Err()
}

func tripsKey() string {
	return "cache:trips:published"
}
