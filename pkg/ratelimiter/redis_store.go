package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// consumeScript refills and consumes atomically so concurrent instances
// sharing the same Redis never double-spend a refill. State is a hash of
// the token count and the last refill timestamp in milliseconds.
var consumeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate     = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local consume  = tonumber(ARGV[4])
local now      = tonumber(ARGV[5])

local state  = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill')
local tokens = tonumber(state[1])
local last   = tonumber(state[2])
if tokens == nil or last == nil then
	tokens = capacity
	last   = now
end

local max_intervals = math.floor(capacity / rate) + 1
local intervals = math.floor((now - last) / interval)
if intervals > max_intervals then
	intervals = max_intervals
end
if intervals > 0 then
	tokens = math.min(tokens + intervals * rate, capacity)
	last = now
end

tokens = tokens - consume

redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_refill', last)
redis.call('PEXPIRE', KEYS[1], interval * (max_intervals + 1))

return {tokens, last + interval}
`)

// RedisStore keeps bucket state in Redis so the limit is enforced across
// all instances serving the same traffic.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	if client == nil {
		panic("ratelimiter: redis client cannot be nil")
	}
	return &RedisStore{client: client}
}

func (rs *RedisStore) ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (int, time.Time, error) {
	raw, err := consumeScript.Run(ctx, rs.client,
		[]string{redisKeyPrefix + key},
		config.Capacity,
		config.RefillRate,
		config.RefillInterval.Milliseconds(),
		tokens,
		time.Now().UnixMilli(),
	).Result()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}

	reply, ok := raw.([]any)
	if !ok || len(reply) != 2 {
		return 0, time.Time{}, fmt.Errorf("%w: unexpected script reply %T", ErrStoreUnavailable, raw)
	}
	remaining, ok1 := reply[0].(int64)
	resetMs, ok2 := reply[1].(int64)
	if !ok1 || !ok2 {
		return 0, time.Time{}, fmt.Errorf("%w: unexpected script reply values", ErrStoreUnavailable)
	}

	return int(remaining), time.UnixMilli(resetMs), nil
}

func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
