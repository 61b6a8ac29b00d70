package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"videoindex/metrics"
	"videoindex/utils"
)

const limiterCleanupInterval = 5 * time.Minute

// RateLimiter 按客户端IP限流
type RateLimiter struct {
	route string
	rate  rate.Limit
	burst int

	mu          sync.Mutex
	perIP       map[string]*rate.Limiter
	lastCleanup time.Time
}

// NewRateLimiter rps<=0 时不限流
func NewRateLimiter(route string, rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		route:       route,
		rate:        rate.Limit(rps),
		burst:       burst,
		perIP:       make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
	}
}

// Allow 检查 ip 是否还有配额
func (l *RateLimiter) Allow(ip string) bool {
	if l.rate <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// 定期整体清空，避免长期积累
	if time.Since(l.lastCleanup) > limiterCleanupInterval {
		l.perIP = make(map[string]*rate.Limiter)
		l.lastCleanup = time.Now()
	}

	limiter, ok := l.perIP[ip]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.perIP[ip] = limiter
	}
	return limiter.Allow()
}

// Handler 超限返回 429
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			metrics.RecordRateLimited(l.route)
			c.Header("Retry-After", "1")
			utils.JSONError(c, http.StatusTooManyRequests, "请求过于频繁")
			return
		}
		c.Next()
	}
}
