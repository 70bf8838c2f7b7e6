// Package api 路由配置
//
// 路由规则：
//
// 笔记 (Note):
//   - GET    /api/notes               - 列出笔记（公开，附所有者投影）
//   - GET    /api/notes/search        - 子串搜索（公开）
//   - GET    /api/notes/{id}          - 获取笔记详情（公开）
//   - POST   /api/notes               - 创建笔记（登录，multipart 附件）
//   - PUT    /api/notes/{id}          - 更新笔记（所有者或管理员）
//   - DELETE /api/notes/{id}          - 删除笔记（所有者或管理员，释放附件）
//
// 评分 (Rating):
//   - POST   /api/notes/{id}/rate     - 提交/覆盖评分（登录即可）
//   - GET    /api/notes/{id}/rating   - 评分聚合（公开）
//
// 评论 (Comment):
//   - POST   /api/notes/{id}/comments - 创建评论（登录）
//   - GET    /api/notes/{id}/comments - 评论列表（公开，附作者投影）
//   - PUT    /api/comments/{id}       - 编辑评论（作者或管理员）
//   - DELETE /api/comments/{id}       - 删除评论（作者或管理员）
//
// 文件:
//   - GET    /api/files/{key}         - 下载附件（公开）
//
// 管理 (Admin，仅管理员):
//   - GET    /api/admin/users         - 用户列表
//   - PUT    /api/admin/users/{id}/role - 修改角色
//   - DELETE /api/admin/users/{id}    - 删除用户（拒绝自删）
//   - GET    /api/admin/notes         - 笔记列表（附所有者投影）
//   - DELETE /api/admin/notes/{id}    - 删除任意笔记
package api

import (
	"net/http"

	"noteshare/internal/auth"
	"noteshare/internal/objstore"
	"noteshare/internal/resolve"
	"noteshare/internal/storage"
)

// Handler API 处理器
//
// 持有进程生命周期的两个存储句柄（用户库、内容库）和附件存储，
// 启动时构造一次，经依赖注入传入，所有请求共享。
type Handler struct {
	identity storage.IdentityStore
	content  storage.ContentStore
	blobs    objstore.Store
	resolver *resolve.Resolver
	metrics  *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(identity storage.IdentityStore, content storage.ContentStore, blobs objstore.Store) *Handler {
	return &Handler{
		identity: identity,
		content:  content,
		blobs:    blobs,
		resolver: resolve.New(identity),
		metrics:  NewMetrics("noteshare"),
	}
}

// Router 返回配置好的 HTTP 路由
func (h *Handler) Router() *http.ServeMux {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", h.metrics.MetricsHandler())

	// Note 接口
	mux.HandleFunc("GET /api/notes", h.ListNotes)
	mux.HandleFunc("GET /api/notes/search", h.SearchNotes)
	mux.HandleFunc("GET /api/notes/{id}", h.GetNote)
	mux.HandleFunc("POST /api/notes", h.CreateNote)
	mux.HandleFunc("PUT /api/notes/{id}", h.UpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", h.DeleteNote)

	// Rating 接口
	mux.HandleFunc("POST /api/notes/{id}/rate", h.RateNote)
	mux.HandleFunc("GET /api/notes/{id}/rating", h.GetRating)

	// Comment 接口
	mux.HandleFunc("POST /api/notes/{id}/comments", h.CreateComment)
	mux.HandleFunc("GET /api/notes/{id}/comments", h.ListComments)
	mux.HandleFunc("PUT /api/comments/{id}", h.UpdateComment)
	mux.HandleFunc("DELETE /api/comments/{id}", h.DeleteComment)

	// 附件下载
	mux.HandleFunc("GET /api/files/{key}", h.DownloadFile)

	// Admin 接口
	mux.HandleFunc("GET /api/admin/users", auth.RequireAdmin(h.AdminListUsers))
	mux.HandleFunc("PUT /api/admin/users/{id}/role", auth.RequireAdmin(h.AdminUpdateUserRole))
	mux.HandleFunc("DELETE /api/admin/users/{id}", auth.RequireAdmin(h.AdminDeleteUser))
	mux.HandleFunc("GET /api/admin/notes", auth.RequireAdmin(h.AdminListNotes))
	mux.HandleFunc("DELETE /api/admin/notes/{id}", auth.RequireAdmin(h.AdminDeleteNote))

	return mux
}

// Metrics 返回指标实例（main 中组装中间件链用）
func (h *Handler) Metrics() *Metrics {
	return h.metrics
}

// Health 服务健康检查
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
