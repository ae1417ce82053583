package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript はINCRとPEXPIREを原子的に行い、現在のカウントと残りTTL(ms)を返す。
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisRateLimiter はRedis上の固定ウィンドウカウンタによるレート制限。
// 複数プロセスで同じカウンタを共有する。
type RedisRateLimiter struct {
	client redis.Scripter
	max    int
	window time.Duration
}

var _ Limiter = (*RedisRateLimiter)(nil)

// NewRedisRateLimiter はRedisRateLimiterを生成する。
func NewRedisRateLimiter(client redis.Scripter, max int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, max: max, window: window}
}

// Allow はkeyのカウンタを1増やし、ウィンドウ内の上限を超えていないか判定する。
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	vals, err := fixedWindowScript.Run(ctx, l.client, []string{key}, l.window.Milliseconds()).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(vals) != 2 {
		return Decision{}, fmt.Errorf("rate limit script returned %d values", len(vals))
	}

	count := toInt64(vals[0])
	ttlMs := toInt64(vals[1])

	d := Decision{
		Allowed: count <= int64(l.max),
		Limit:   l.max,
	}
	if remaining := int64(l.max) - count; remaining > 0 {
		d.Remaining = int(remaining)
	}
	if !d.Allowed {
		d.RetryAfter = l.window
		if ttlMs > 0 {
			d.RetryAfter = time.Duration(ttlMs) * time.Millisecond
		}
	}

	return d, nil
}

func toInt64(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case string:
		i, _ := strconv.ParseInt(x, 10, 64)
		return i
	}
	return 0
}
