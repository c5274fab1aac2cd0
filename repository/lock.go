package repository

import (
	"context"
	"time"

	"yayago/domain"

	"github.com/redis/go-redis/v9"
)

// Redis SETNX lock. The server-side analogue of disabling a trigger
// while its call is in flight.
type lockRedisRepository struct {
	client *redis.Client
}

func NewLockRedisRepository(client *redis.Client) domain.LockRepository {
	return &lockRedisRepository{client: client}
}

func (r *lockRedisRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, "lock:"+key, 1, ttl).Result()
}

func (r *lockRedisRepository) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, "lock:"+key).Err()
}
