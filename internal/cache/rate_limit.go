package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 固定窗口计数：首次命中时设置过期，返回当前计数与剩余秒数
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RedisRateLimiter 基于 Redis 的固定窗口限流器
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter 创建限流器，client 为空时返回 nil
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	if client == nil {
		return nil
	}
	return &RedisRateLimiter{client: client}
}

// Hit 记录一次命中，返回窗口内累计次数与剩余时间
func (l *RedisRateLimiter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	seconds := int64(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	result, err := fixedWindowScript.Run(ctx, l.client, []string{Key("ratelimit:" + key)}, seconds).Result()
	if err != nil {
		return 0, 0, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit reply %T", result)
	}
	count, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected rate limit count %T", values[0])
	}
	ttl, _ := values[1].(int64)
	return count, time.Duration(ttl) * time.Second, nil
}
