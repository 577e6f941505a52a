package throttle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// failScript applies one failed attempt atomically. State is a hash
// with fields c (count), ws (window start, unix ms), lu (lock until,
// unix ms, 0 when unlocked). The key TTL covers whichever of the window
// or the lock ends last, so abandoned keys expire on their own.
var failScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local lockout = tonumber(ARGV[3])
local max = tonumber(ARGV[4])

local vals = redis.call('HMGET', key, 'c', 'ws', 'lu')
local count = tonumber(vals[1]) or 0
local ws = tonumber(vals[2]) or 0
local lu = tonumber(vals[3]) or 0

if lu > now then
  return {count, ws, lu}
end

if count == 0 or now - ws >= window or lu > 0 then
  count = 1
  ws = now
  lu = 0
else
  count = count + 1
end

if count >= max then
  lu = now + lockout
end

redis.call('HSET', key, 'c', count, 'ws', ws, 'lu', lu)

local ttl = window - (now - ws)
if lu - now > ttl then
  ttl = lu - now
end
redis.call('PEXPIRE', key, ttl)

return {count, ws, lu}
`)

// RedisStore is a Store shared across instances through Redis. Every
// Fail runs a single server-side script, so concurrent failures from
// different instances never lose counts.
type RedisStore struct {
	redis redis.UniversalClient
}

// NewRedisStore creates a RedisStore over the given client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{redis: client}
}

// Fail implements Store.
func (s *RedisStore) Fail(ctx context.Context, key string, now time.Time, window, lockout time.Duration, maxAttempts int64) (Entry, error) {
	res, err := failScript.Run(ctx, s.redis, []string{key},
		now.UnixMilli(), window.Milliseconds(), lockout.Milliseconds(), maxAttempts).Slice()
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(res) != 3 {
		return Entry{}, fmt.Errorf("%w: unexpected script reply", ErrStoreUnavailable)
	}

	return entryFromMillis(asInt64(res[0]), asInt64(res[1]), asInt64(res[2])), nil
}

// Get implements Store. Redis expires abandoned keys through the TTL
// set by Fail, so the time argument is unused.
func (s *RedisStore) Get(ctx context.Context, key string, _ time.Time) (Entry, bool, error) {
	vals, err := s.redis.HMGet(ctx, key, "c", "ws", "lu").Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(vals) != 3 || vals[0] == nil {
		return Entry{}, false, nil
	}

	return entryFromMillis(parseField(vals[0]), parseField(vals[1]), parseField(vals[2])), true, nil
}

// Reset implements Store.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func entryFromMillis(count, windowStart, lockUntil int64) Entry {
	entry := Entry{Count: count, WindowStart: time.UnixMilli(windowStart)}
	if lockUntil > 0 {
		entry.LockUntil = time.UnixMilli(lockUntil)
	}
	return entry
}

func asInt64(v interface{}) int64 {
	n, _ := v.(int64)
	return n
}

func parseField(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
