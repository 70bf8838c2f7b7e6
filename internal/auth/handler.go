package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"noteshare/internal/model"
	"noteshare/internal/storage"
)

// Handler 认证 HTTP 处理器
type Handler struct {
	store storage.IdentityStore
	cfg   Config
}

// NewHandler 创建认证处理器
func NewHandler(store storage.IdentityStore, cfg Config) *Handler {
	return &Handler{store: store, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/signup", h.Signup)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/reset-password-request", h.RequestReset)
	mux.HandleFunc("POST /api/auth/reset-password", h.ResetPassword)
	mux.HandleFunc("GET /api/auth/me", h.Me)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r signupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequestRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (r resetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required, validation.Length(6, 6), is.Digit),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 72)),
	)
}

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// ============================================================================
// Handlers
// ============================================================================

// Signup 用户注册
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// 检查邮箱是否已注册
	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.signup] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.signup] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.UserRoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		// email 唯一索引兜底：检查与插入之间的并发注册
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		log.Printf("[auth.signup] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := GenerateToken(h.cfg, user.ID)
	if err != nil {
		log.Printf("[auth.signup] GenerateToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] User registered: %s (%s)", user.Email, user.ID)
	writeJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// Login 用户登录
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.login] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := GenerateToken(h.cfg, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] User logged in: %s", user.Email)
	writeJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// RequestReset 签发密码重置挑战
//
// 覆盖未消费的旧挑战，保证每个用户至多一个在途挑战。
// 重置码直接返回在响应里（没有接邮件通道），15 分钟绝对过期。
func (h *Handler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.reset] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	code, err := GenerateResetCode()
	if err != nil {
		log.Printf("[auth.reset] GenerateResetCode error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	expiry := time.Now().Add(ResetCodeTTL)
	if err := h.store.SetResetChallenge(r.Context(), user.ID, code, expiry); err != nil {
		log.Printf("[auth.reset] SetResetChallenge error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] Reset code issued for %s", user.Email)
	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "reset code generated",
		"reset_code": code,
	})
}

// ResetPassword 消费重置挑战并替换密码
//
// 消费是存储层的单次原子操作：码匹配且未过期才会替换密码哈希并清空挑战。
// 任何失败都不触碰挑战字段（没有尝试计数器）。
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.reset] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	err = h.store.ConsumeResetCode(r.Context(), user.ID, req.Code, hash, time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			writeError(w, http.StatusBadRequest, "invalid or expired code")
			return
		}
		log.Printf("[auth.reset] ConsumeResetCode error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] Password reset for %s", user.Email)
	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset successfully"})
}

// Me 获取当前用户信息
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authUser := GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保管理员用户存在（启动时调用）
// 如果配置了 adminEmail 且用户库中不存在该用户，则自动创建
func EnsureAdminUser(store storage.IdentityStore, adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	ctx := context.Background()
	existing, err := store.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		log.Printf("[auth] Admin user already exists: %s (%s)", adminEmail, existing.ID)
		return nil
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         "Admin",
		Email:        adminEmail,
		PasswordHash: hash,
		Role:         model.UserRoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", adminEmail, user.ID)
	return nil
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
