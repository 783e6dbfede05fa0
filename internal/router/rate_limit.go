package router

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	handlershared "github.com/thuhoaidev/EduPro-sub004/internal/http/handlers/shared"
	"github.com/thuhoaidev/EduPro-sub004/internal/http/response"

	"github.com/gin-gonic/gin"
)

// RateLimiter 固定窗口计数器
type RateLimiter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
}

// RateLimitMiddleware 频率限制中间件；limiter 为空或规则未配置时直通
func RateLimitMiddleware(limiter RateLimiter, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if rule.Prefix != "" {
			key = fmt.Sprintf("%s:%s", rule.Prefix, key)
		}

		window := time.Duration(rule.WindowSeconds) * time.Second
		count, ttl, err := limiter.Hit(c.Request.Context(), key, window)
		if err != nil {
			// 限流依赖故障时放行
			handlershared.RequestLog(c).Warnw("rate_limit_unavailable", "key", key, "error", err)
			c.Next()
			return
		}
		if count > int64(rule.MaxRequests) {
			waitSeconds := int(math.Ceil(ttl.Seconds()))
			if waitSeconds < 1 {
				waitSeconds = rule.WindowSeconds
			}
			c.Header("Retry-After", fmt.Sprintf("%d", waitSeconds))
			response.AbortWithError(c, response.CodeTooManyRequests, "rate_limited",
				fmt.Sprintf("too many requests, retry in %d seconds", waitSeconds))
			return
		}
		c.Next()
	}
}

// KeyByUserOrIP 已登录按用户限流，否则按 IP
func KeyByUserOrIP(c *gin.Context) string {
	if userID, ok := handlershared.ContextUint(c, handlershared.UserIDKey); ok {
		return fmt.Sprintf("user:%d", userID)
	}
	return "ip:" + c.ClientIP()
}
