package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type RedisTokenBucket struct {
	client   *redis.Client
	prefix   string
	capacity int
	interval time.Duration
}

func NewRedisTokenBucket(client *redis.Client, prefix string, capacity int, interval time.Duration) RateLimiter {
	return &RedisTokenBucket{
		client:   client,
		prefix:   prefix,
		capacity: capacity,
		interval: interval,
	}
}

// 令牌桶 (使用Lua腳本確保原子性)
//  1. 依經過的 interval 數補充令牌，上限 capacity
//  2. 有令牌則扣一個並放行
//  3. 否則回傳距離下次補充的毫秒數
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local interval_ms = tonumber(ARGV[3])
	local ttl_seconds = tonumber(ARGV[4])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + intervals)
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

func (b *RedisTokenBucket) Allow(ctx context.Context, key string) (Decision, error) {
	// 桶在完全補滿後即可丟棄
	ttl := int64((b.interval*time.Duration(b.capacity))/time.Second) + 1

	result, err := tokenBucketScript.Run(ctx, b.client,
		[]string{fmt.Sprintf("%s:%s", b.prefix, key)},
		time.Now().UnixMilli(), b.capacity, b.interval.Milliseconds(), ttl,
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(result) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limiter result: %v", result)
	}

	return Decision{
		Allowed:    result[0] == 1,
		Remaining:  result[1],
		RetryAfter: time.Duration(result[2]) * time.Millisecond,
	}, nil
}
