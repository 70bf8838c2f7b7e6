package api

import (
	"encoding/json"
	"log"
	"net/http"

	"noteshare/internal/auth"
	"noteshare/internal/model"
)

// ============================================================================
// 管理接口：仅管理员，绕过所有权判定
// ============================================================================

// AdminListUsers 用户列表（密码哈希不序列化）
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.identity.ListUsers(r.Context())
	if err != nil {
		log.Printf("[admin] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

type updateRoleRequest struct {
	Role model.UserRole `json:"role"`
}

// AdminUpdateUserRole 修改用户角色
// 已签发的令牌不受影响：角色按请求重查，下一个请求即生效
func (h *Handler) AdminUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be user or admin")
		return
	}

	id := r.PathValue("id")
	if err := h.identity.UpdateUserRole(r.Context(), id, req.Role); err != nil {
		log.Printf("[admin] UpdateUserRole error: %v", err)
		writeStoreError(w, err, "user not found")
		return
	}

	log.Printf("[admin] User %s role updated to %s", id, req.Role)
	writeJSON(w, http.StatusOK, map[string]string{"message": "role updated"})
}

// AdminDeleteUser 删除用户
//
// 拒绝删除自己（会孤立当前会话），返回独立于 403/404 的错误。
// 被删用户在内容库中的笔记/评论保持原样，读取时由 resolver
// 降级为 Unknown 投影——两库间接受悬空引用，这是设计点。
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	authUser := auth.GetAuthUser(r.Context())
	if authUser != nil && authUser.ID == id {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := h.identity.DeleteUser(r.Context(), id); err != nil {
		log.Printf("[admin] DeleteUser error: %v", err)
		writeStoreError(w, err, "user not found")
		return
	}

	log.Printf("[admin] User deleted: %s by %s", id, authUser.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// AdminListNotes 笔记列表（附所有者投影，一次批量解析）
func (h *Handler) AdminListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.content.ListNotes(r.Context())
	if err != nil {
		log.Printf("[admin] ListNotes error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}

	views, err := h.resolver.NoteViews(r.Context(), notes)
	if err != nil {
		log.Printf("[admin] ListNotes resolve error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": views})
}

// AdminDeleteNote 删除任意笔记（绕过所有权），释放附件
func (h *Handler) AdminDeleteNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.content.GetNote(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[admin] DeleteNote error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	if err := h.content.DeleteNote(r.Context(), note.ID); err != nil {
		log.Printf("[admin] DeleteNote error: %v", err)
		writeStoreError(w, err, "note not found")
		return
	}

	if err := h.blobs.Delete(r.Context(), note.FileKey); err != nil {
		log.Printf("[admin] DeleteNote blob delete error: %v", err)
	}

	log.Printf("[admin] Note deleted: %s", note.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "note deleted"})
}
