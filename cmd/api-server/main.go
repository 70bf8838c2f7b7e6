// Package main API Server 入口
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"noteshare/internal/api"
	"noteshare/internal/auth"
	"noteshare/internal/config"
	"noteshare/internal/objstore"
	"noteshare/internal/storage/mongostore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting API Server... [env=%s]", cfg.Env)

	// 用户库和内容库是两个独立的 MongoDB 连接，
	// 进程启动时各建立一次，所有请求共享
	identity, err := mongostore.NewIdentityStore(cfg.MongoUsersURI, cfg.MongoUsersDB)
	if err != nil {
		log.Fatalf("Failed to connect to users database: %v", err)
	}
	defer identity.Close()
	log.Println("Connected to users database")

	content, err := mongostore.NewContentStore(cfg.MongoNotesURI, cfg.MongoNotesDB)
	if err != nil {
		log.Fatalf("Failed to connect to notes database: %v", err)
	}
	defer content.Close()
	log.Println("Connected to notes database")

	// 附件对象存储
	blobs, err := objstore.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("Failed to create object storage client: %v", err)
	}
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := blobs.EnsureBucket(ctx); err != nil {
			log.Fatalf("Failed to ensure bucket: %v", err)
		}
	}

	// 管理员引导账号
	if err := auth.EnsureAdminUser(identity, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	h := api.NewHandler(identity, content, blobs)
	authHandler := auth.NewHandler(identity, cfg.Auth)

	mux := h.Router()
	authHandler.RegisterRoutes(mux)

	// 中间件链：指标 → 限流 → 认证 → 路由
	var handler http.Handler = mux
	handler = auth.Middleware(cfg.Auth, identity)(handler)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		handler = api.NewRateLimiter(client, cfg.RateLimit, cfg.RateWindow()).Middleware(handler)
		log.Printf("Rate limiting enabled: %d req / %s", cfg.RateLimit, cfg.RateWindow())
	}

	handler = h.Metrics().InstrumentHTTP(handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped")
}
