// Package auth 用户认证：JWT 令牌管理、密码哈希、重置挑战、HTTP 中间件
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"noteshare/internal/model"
)

// contextKey context 键类型
type contextKey string

const ctxKeyAuthUser contextKey = "auth_user"

// AuthUser 当前请求的已认证用户
//
// 角色来自用户库的按请求重查，不来自令牌：
// 令牌只是身份断言，角色变更在下一个请求即生效。
type AuthUser struct {
	ID    string
	Name  string
	Email string
	Role  model.UserRole
}

// Config 认证配置
type Config struct {
	JWTSecret string        `yaml:"-"` // 只从 JWT_SECRET 环境变量读取
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		JWTSecret: "",
		TokenTTL:  7 * 24 * time.Hour,
	}
}

// ============================================================================
// 密码哈希
// ============================================================================

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================================================
// JWT Token
// ============================================================================

// Claims JWT 声明
//
// 只携带身份（Subject = 用户 ID）和时间窗口，不携带角色：
// 角色由中间件按请求从用户库重查。
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken 生成令牌（7 天有效期，见 Config.TokenTTL）
func GenerateToken(cfg Config, userID string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken 解析并验证 JWT
//
// 格式错误、签名无效、已过期都返回错误；调用方对外统一回应
// unauthorized，不区分具体原因。
func ParseToken(cfg Config, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithAuthUser 将认证用户信息注入 context
func WithAuthUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, ctxKeyAuthUser, user)
}

// GetAuthUser 从 context 获取认证用户，匿名请求返回 nil
func GetAuthUser(ctx context.Context) *AuthUser {
	user, _ := ctx.Value(ctxKeyAuthUser).(*AuthUser)
	return user
}
