package auth

import (
	"log"
	"net/http"
	"strings"

	"noteshare/internal/model"
	"noteshare/internal/storage"
)

// 免认证路由前缀（前缀匹配）
var publicPrefixes = []string{
	"/api/auth/signup",
	"/api/auth/login",
	"/api/auth/reset-password-request",
	"/api/auth/reset-password",
	"/api/files/",
	"/health",
	"/metrics",
}

// isPublicRoute 判定路由是否无需认证
//
// 读路径（列表、详情、搜索、评论列表、评分聚合）统一公开，
// 写路径统一要求登录。这是对历史上各端点不一致策略的统一。
func isPublicRoute(method, path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	// 笔记域的所有 GET 公开：/api/notes, /api/notes/{id},
	// /api/notes/search, /api/notes/{id}/rating, /api/notes/{id}/comments
	if method == http.MethodGet && strings.HasPrefix(path, "/api/notes") {
		return true
	}
	return false
}

// Middleware 创建 JWT 认证中间件
//
// 公开路由直接放行（匿名）。其余路由提取 Bearer 令牌、验证签名和有效期，
// 再按请求从用户库重查用户以获得当前角色——令牌只是身份断言，
// 角色在签发后变更的，下一个请求即生效。用户已被删除视同未认证。
func Middleware(cfg Config, identity storage.IdentityStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			user, ok := authenticate(r, cfg, identity)
			if !ok {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

// authenticate 提取并验证 Bearer 令牌，重查用户
// 任何失败（缺头/格式错/签名错/过期/用户不存在）对外都是同一个 unauthorized
func authenticate(r *http.Request, cfg Config, identity storage.IdentityStore) (*AuthUser, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, false
	}

	claims, err := ParseToken(cfg, parts[1])
	if err != nil {
		log.Printf("[auth] token parse error: %v", err)
		return nil, false
	}

	user, err := identity.GetUserByID(r.Context(), claims.Subject)
	if err != nil {
		log.Printf("[auth] user lookup error: %v", err)
		return nil, false
	}
	if user == nil {
		return nil, false
	}

	return &AuthUser{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}, true
}

// RequireAdmin 管理员路由守卫，包在具体 handler 外层
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if user.Role != model.UserRoleAdmin {
			http.Error(w, `{"error":"admin access required"}`, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
