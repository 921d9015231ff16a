package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"p4-dashboard/pkg/metrics"
	"p4-dashboard/pkg/response"
)

// RateLimiter 固定窗口计数器（*redis.Client 实现）
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 登录接口限流中间件
// limit: 窗口内允许的最大请求数
// window: 窗口时长
// limiter 为 nil 或出错时降级为进程内令牌桶（golang.org/x/time/rate）
func RateLimit(limiter RateLimiter, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	local := NewLocalLimiter()
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", c.FullPath(), c.ClientIP())

		allowed := true
		var err error
		if limiter != nil {
			allowed, err = limiter.CheckRateLimit(c.Request.Context(), key, limit, window)
		}
		if limiter == nil || err != nil {
			if err != nil {
				logger.Warn("Redis 限流失败，改用进程内限流", zap.Error(err))
			}
			allowed, _ = local.CheckRateLimit(c.Request.Context(), key, limit, window)
		}

		if !allowed {
			metrics.LoginAttempts.WithLabelValues(metrics.ResultLimited).Inc()
			response.Error(c, http.StatusTooManyRequests, 10004, "Terlalu banyak percobaan, coba lagi nanti")
			c.Abort()
			return
		}

		c.Next()
	}
}

// LocalLimiter 进程内按键令牌桶：每个键 window 内最多 limit 次突发，随后按均匀速率恢复
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLocalLimiter 创建进程内限流器
func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{limiters: make(map[string]*rate.Limiter)}
}

// CheckRateLimit 实现 RateLimiter；从不返回错误
func (l *LocalLimiter) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow(), nil
}
