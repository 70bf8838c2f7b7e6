// Package api 提供笔记分享服务的 HTTP API 处理器
//
// 文件组织：
//   - handler.go: Handler 定义和路由配置
//   - notes.go: 笔记接口（CRUD、搜索、文件下载）
//   - ratings.go: 评分接口
//   - comments.go: 评论接口
//   - admin.go: 管理接口
//   - metrics.go: Prometheus 指标
//   - ratelimit.go: Redis 限流中间件
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"noteshare/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError 将存储层领域错误映射到 HTTP 状态码
// 未识别的错误一律 500，对外只给通用信息，细节只进日志
func writeStoreError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, storage.ErrDuplicate):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
