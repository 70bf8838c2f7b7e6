// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell 注入）
//  2. YAML 配置文件（configs/{APP_ENV}.yaml，如 dev.yaml、prod.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：密码/密钥只存在环境变量中（YAML 不存任何密码）。
// 两个 MongoDB 连接（用户库、内容库）各自独立配置，
// 对应部署上独立寻址的两套数据库。
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"noteshare/internal/auth"
	"noteshare/internal/objstore"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// Config 进程配置
type Config struct {
	Env  Environment `yaml:"-"`
	Port string      `yaml:"port"`

	// 用户库（身份）
	MongoUsersURI string `yaml:"-"` // 只从 MONGO_URI_USERS 环境变量读取
	MongoUsersDB  string `yaml:"mongo_users_db"`

	// 内容库（笔记/评论）
	MongoNotesURI string `yaml:"-"` // 只从 MONGO_URI_NOTES 环境变量读取
	MongoNotesDB  string `yaml:"mongo_notes_db"`

	MinIO objstore.Config `yaml:"minio"`

	Auth     auth.Config `yaml:"-"`
	TokenTTL string      `yaml:"token_ttl"` // 例如 "168h"，解析进 Auth.TokenTTL

	// RedisURL 非空时启用全局限流中间件，为空则直接放行
	RedisURL  string `yaml:"-"`                 // 只从 REDIS_URL 环境变量读取
	RateLimit int    `yaml:"rate_limit"`        // 每窗口允许的请求数
	RateWin   string `yaml:"rate_limit_window"` // 限流窗口，例如 "1m"

	// 管理员引导账号，只从环境变量读取
	AdminEmail    string `yaml:"-"`
	AdminPassword string `yaml:"-"`
}

// Validate 校验配置
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.MongoUsersURI, validation.Required),
		validation.Field(&c.MongoNotesURI, validation.Required),
		validation.Field(&c.MongoUsersDB, validation.Required),
		validation.Field(&c.MongoNotesDB, validation.Required),
		validation.Field(&c.Auth, validation.By(func(interface{}) error {
			if c.Auth.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is required")
			}
			return nil
		})),
	)
}

// defaults 返回硬编码默认值
func defaults() Config {
	return Config{
		Port:         "5001",
		MongoUsersDB: "noteshare_users",
		MongoNotesDB: "noteshare_notes",
		Auth:         auth.DefaultConfig(),
		RateLimit:    100,
		RateWin:      "1m",
	}
}

// RateWindow 解析限流窗口，解析失败退回 1 分钟
func (c *Config) RateWindow() time.Duration {
	d, err := time.ParseDuration(c.RateWin)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// Load 加载配置
//
// 先读 .env（如果存在），再按 APP_ENV 读 configs/{env}.yaml，
// 最后用环境变量覆盖敏感字段。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	env := Environment(getEnv("APP_ENV", string(EnvDevelopment)))

	cfg := defaults()
	cfg.Env = env

	// YAML 配置文件可选：缺失时使用默认值 + 环境变量
	yamlPath := filepath.Join("configs", string(env)+".yaml")
	if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", yamlPath, err)
		}
		log.Printf("[config] Loaded %s", yamlPath)
	}

	// 环境变量覆盖
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.MongoUsersURI = getEnv("MONGO_URI_USERS", cfg.MongoUsersURI)
	cfg.MongoNotesURI = getEnv("MONGO_URI_NOTES", cfg.MongoNotesURI)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", cfg.MinIO.Endpoint)
	cfg.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.MinIO.AccessKey)
	cfg.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.MinIO.SecretKey)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.AdminEmail = getEnv("ADMIN_EMAIL", cfg.AdminEmail)
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.AdminPassword)

	if cfg.TokenTTL != "" {
		d, err := time.ParseDuration(cfg.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("parse token_ttl: %w", err)
		}
		cfg.Auth.TokenTTL = d
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = auth.DefaultConfig().TokenTTL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
