package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nasimair/flightops/config"
	"github.com/nasimair/flightops/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client      *redis.Client
	snapshotTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, snapshotTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		snapshotTTL: snapshotTTL,
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
	return c.client.Set(ctx, tripsKey(), payload, c.snapshotTTL).Err()
}

// GetTripSnapshot returns the cached live snapshot payload, nil on a miss.
func (c *RedisCache) GetTripSnapshot(ctx context.Context, tripID int64) ([]byte, error) {
	data, err := c.client.Get(ctx, snapshotKey(tripID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (c *RedisCache) SetTripSnapshot(ctx context.Context, tripID int64, payload []byte) error {
	return c.client.Set(ctx, snapshotKey(tripID), payload, c.snapshotTTL).Err()
}

// AcquireDelayLock serializes delay updates for one trip across processes.
func (c *RedisCache) AcquireDelayLock(ctx context.Context, tripID int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, delayLockKey(tripID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseDelayLock(ctx context.Context, tripID int64) error {
	return c.client.Del(ctx, delayLockKey(tripID)).Err()
}

func tripsKey() string {
	return "cache:trips"
}

func snapshotKey(tripID int64) string {
	return fmt.Sprintf("cache:trip:%d:snapshot", tripID)
}

func delayLockKey(tripID int64) string {
	return fmt.Sprintf("lock:trip:%d:delay", tripID)
}
