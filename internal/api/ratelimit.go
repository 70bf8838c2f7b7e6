package api

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter Redis 固定窗口限流
//
// 按客户端 IP 计数，窗口内超过上限返回 429。
// client 为 nil 时（未配置 Redis）直接放行；
// Redis 故障也放行——限流是保护层，不是可用性依赖。
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Middleware 限流中间件
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl == nil || rl.client == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		key := fmt.Sprintf("ratelimit:%s:%d", ip, time.Now().Unix()/int64(rl.window.Seconds()))

		count, err := rl.client.Incr(r.Context(), key).Result()
		if err != nil {
			log.Printf("[ratelimit] redis error: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			rl.client.Expire(r.Context(), key, rl.window)
		}
		if count > int64(rl.limit) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
