package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindow increments the counter and starts the window on the first hit.
// Returns {count, ttl_ms}.
var fixedWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

// RedisStore implements Store with a fixed window counter per key, shared by
// every instance pointing at the same Redis.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Allow increments the key's counter atomically and reports the window state.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	vals, err := fixedWindow.Run(ctx, s.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit: %w", err)
	}
	if len(vals) != 2 {
		return nil, fmt.Errorf("redis rate limit: unexpected reply %v", vals)
	}

	count := int(vals[0])
	remainingTTL := time.Duration(vals[1]) * time.Millisecond
	if remainingTTL <= 0 {
		remainingTTL = window
	}
	result := &Result{
		Allowed: count <= limit,
		Limit:   limit,
		ResetAt: time.Now().Add(remainingTTL),
	}
	if result.Allowed {
		result.Remaining = limit - count
	} else {
		result.RetryAfter = remainingTTL
	}
	return result, nil
}
