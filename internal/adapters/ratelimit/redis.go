package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares fixed windows across processes. The counter key gets
// its TTL on the first hit of a window; Redis expiry is the window
// boundary.
type RedisStore struct{ c *redis.Client }

func NewRedisStore(addr, pass string, db int) *RedisStore {
	return &RedisStore{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := "ratelimit:" + key
	n, err := s.c.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := s.c.PExpire(ctx, k, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}
