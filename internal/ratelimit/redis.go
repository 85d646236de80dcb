package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims the window, then records the event only when
// the budget allows it. Returns {allowed, count, oldest score ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
	local count = redis.call('ZCARD', key)
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local oldestScore = now
	if oldest[2] then
		oldestScore = tonumber(oldest[2])
	end
	if count >= limit then
		return {0, count, oldestScore}
	end
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, count + 1, oldestScore}
`)

// RedisLimiter shares the sliding window between processes using a sorted
// set per key.
type RedisLimiter struct {
	client    *redis.Client
	rule      Rule
	keyPrefix string
}

func NewRedisLimiter(client *redis.Client, rule Rule, keyPrefix string) *RedisLimiter {
	return &RedisLimiter{client: client, rule: rule, keyPrefix: keyPrefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now().UnixMilli()
	window := l.rule.Window.Milliseconds()

	res, err := slidingWindowScript.Run(ctx, l.client,
		[]string{fmt.Sprintf("%s:%s", l.keyPrefix, key)},
		now, window, l.rule.Limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed, count, oldest := res[0] == 1, int(res[1]), res[2]
	if !allowed {
		retryAfter := time.Duration(oldest+window-now) * time.Millisecond
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	return Decision{Allowed: true, Remaining: l.rule.Limit - count}, nil
}
