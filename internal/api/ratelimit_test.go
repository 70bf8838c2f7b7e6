package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// Redis 未配置时直接放行
func TestRateLimiterPassThrough(t *testing.T) {
	limiters := []*RateLimiter{
		nil,
		NewRateLimiter(nil, 1, time.Minute),
	}
	for _, rl := range limiters {
		h := rl.Middleware(okHandler())
		for i := 0; i < 10; i++ {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest("GET", "/api/notes", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("request %d blocked without redis: %d", i, w.Code)
			}
		}
	}
}

// testRedis 连接测试 Redis，不可用则跳过
func testRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRateLimiterEnforcesLimit(t *testing.T) {
	client := testRedis(t)
	rl := NewRateLimiter(client, 3, time.Minute)
	h := rl.Middleware(okHandler())

	// 每次运行用唯一客户端地址，避免与上次运行的窗口计数叠加
	addr := fmt.Sprintf("client-%d:5555", time.Now().UnixNano())
	send := func() int {
		r := httptest.NewRequest("GET", "/api/notes", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	for i := 0; i < 3; i++ {
		if code := send(); code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i+1, code)
		}
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Errorf("request over limit = %d, want 429", code)
	}

	// 其他客户端不受影响
	r := httptest.NewRequest("GET", "/api/notes", nil)
	r.RemoteAddr = fmt.Sprintf("other-%d:5555", time.Now().UnixNano())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("unrelated client blocked: %d", w.Code)
	}
}
