package ratelimit

import (
	"context"
	"time"
)

// Decision is the verdict for a single attempt.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter counts attempts per key inside a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
