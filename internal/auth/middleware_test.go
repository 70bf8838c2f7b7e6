package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"noteshare/internal/model"
	"noteshare/internal/storage/memstore"
)

func TestIsPublicRoute(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		expected bool
	}{
		// 公开路由
		{"signup", "POST", "/api/auth/signup", true},
		{"login", "POST", "/api/auth/login", true},
		{"reset request", "POST", "/api/auth/reset-password-request", true},
		{"reset", "POST", "/api/auth/reset-password", true},
		{"health", "GET", "/health", true},
		{"metrics", "GET", "/metrics", true},
		{"file download", "GET", "/api/files/1699999999.pdf", true},
		{"list notes", "GET", "/api/notes", true},
		{"get note", "GET", "/api/notes/abc-123", true},
		{"search", "GET", "/api/notes/search", true},
		{"rating", "GET", "/api/notes/abc-123/rating", true},
		{"comments list", "GET", "/api/notes/abc-123/comments", true},

		// 需要 JWT
		{"me", "GET", "/api/auth/me", false},
		{"create note", "POST", "/api/notes", false},
		{"update note", "PUT", "/api/notes/abc-123", false},
		{"delete note", "DELETE", "/api/notes/abc-123", false},
		{"rate note", "POST", "/api/notes/abc-123/rate", false},
		{"create comment", "POST", "/api/notes/abc-123/comments", false},
		{"update comment", "PUT", "/api/comments/c-1", false},
		{"delete comment", "DELETE", "/api/comments/c-1", false},
		{"admin users", "GET", "/api/admin/users", false},
		{"admin delete note", "DELETE", "/api/admin/notes/abc-123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isPublicRoute(tt.method, tt.path)
			if got != tt.expected {
				t.Errorf("isPublicRoute(%q, %q) = %v, want %v", tt.method, tt.path, got, tt.expected)
			}
		})
	}
}

func TestMiddlewareAuthentication(t *testing.T) {
	cfg := testConfig()
	identity := memstore.NewIdentityStore()

	now := time.Now()
	user := &model.User{
		ID: "u1", Name: "Alice", Email: "alice@example.com",
		Role: model.UserRoleUser, CreatedAt: now, UpdatedAt: now,
	}
	if err := identity.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	var gotUser *AuthUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetAuthUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(cfg, identity)(next)

	token, err := GenerateToken(cfg, "u1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	t.Run("protected route without token", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/notes", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("protected route with valid token", func(t *testing.T) {
		gotUser = nil
		r := httptest.NewRequest("POST", "/api/notes", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if gotUser == nil || gotUser.ID != "u1" || gotUser.Role != model.UserRoleUser {
			t.Errorf("auth user = %+v, want u1/user", gotUser)
		}
	})

	t.Run("role re-resolved per request", func(t *testing.T) {
		// 令牌签发后把用户提为管理员：下一个请求即生效
		if err := identity.UpdateUserRole(context.Background(), "u1", model.UserRoleAdmin); err != nil {
			t.Fatalf("UpdateUserRole: %v", err)
		}
		gotUser = nil
		r := httptest.NewRequest("POST", "/api/notes", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if gotUser == nil || gotUser.Role != model.UserRoleAdmin {
			t.Errorf("auth user = %+v, want admin role", gotUser)
		}
	})

	t.Run("deleted user is unauthorized", func(t *testing.T) {
		if err := identity.DeleteUser(context.Background(), "u1"); err != nil {
			t.Fatalf("DeleteUser: %v", err)
		}
		r := httptest.NewRequest("POST", "/api/notes", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("public route passes anonymously", func(t *testing.T) {
		gotUser = nil
		r := httptest.NewRequest("GET", "/api/notes", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if gotUser != nil {
			t.Errorf("auth user = %+v, want nil for anonymous", gotUser)
		}
	})

	t.Run("bad authorization header", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/notes", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	next := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	handler := RequireAdmin(next)

	t.Run("anonymous", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/admin/users", nil)
		w := httptest.NewRecorder()
		handler(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("regular user", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/admin/users", nil)
		ctx := WithAuthUser(r.Context(), &AuthUser{ID: "u1", Role: model.UserRoleUser})
		w := httptest.NewRecorder()
		handler(w, r.WithContext(ctx))
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("admin", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/admin/users", nil)
		ctx := WithAuthUser(r.Context(), &AuthUser{ID: "a1", Role: model.UserRoleAdmin})
		w := httptest.NewRecorder()
		handler(w, r.WithContext(ctx))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}
