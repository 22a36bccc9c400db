package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Memory struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	now     func() time.Time
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

func (rl *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]

	if !ok || now.After(b.windowEnd) {
		rl.clients[key] = &clientBucket{
			count:     1,
			windowEnd: now.Add(rl.window),
		}
		rl.sweep(now)
		return Decision{Allowed: true}, nil
	}

	if b.count >= rl.limit {
		retryAfter := b.windowEnd.Sub(now)

		if retryAfter < 0 {
			retryAfter = 0
		}

		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	b.count++

	return Decision{Allowed: true}, nil
}

// sweep drops finished windows once the map grows, keeping memory bounded by active clients.
func (rl *Memory) sweep(now time.Time) {
	if len(rl.clients) < 1024 {
		return
	}

	for k, b := range rl.clients {
		if now.After(b.windowEnd) {
			delete(rl.clients, k)
		}
	}
}
