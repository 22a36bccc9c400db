package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares the counters between every instance behind the load balancer.
type Redis struct {
	redis  *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedis(client *redis.Client, prefix string, limit int, window time.Duration) *Redis {
	if prefix == "" {
		prefix = "rl"
	}

	return &Redis{
		redis:  client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow counts the attempt and reads the remaining window in one round trip.
// A counter left without an expiry (for example when a previous EXPIRE failed)
// is given one here, so a key can never lock a client out for good.
func (l *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	k := l.prefix + ":" + key

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)

	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{Allowed: true}, fmt.Errorf("ratelimit incr: %w", err)
	}

	count := incr.Val()
	ttl := pttl.Val()

	if ttl < 0 {
		if err := l.redis.Expire(ctx, k, l.window).Err(); err != nil {
			return Decision{Allowed: true}, fmt.Errorf("ratelimit expire: %w", err)
		}
		ttl = l.window
	}

	if count > int64(l.limit) {
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}

	return Decision{Allowed: true}, nil
}
