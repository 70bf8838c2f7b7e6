package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"noteshare/internal/auth"
	"noteshare/internal/authz"
	"noteshare/internal/model"
)

type commentRequest struct {
	Content string `json:"content"`
}

// CreateComment 在既有笔记下创建评论（任何登录用户）
// 作者取自已认证调用方，创建后不可变
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	// 父笔记必须存在
	noteID := r.PathValue("id")
	note, err := h.content.GetNote(r.Context(), noteID)
	if err != nil {
		log.Printf("[api] CreateComment error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	now := time.Now()
	comment := &model.Comment{
		ID:        uuid.NewString(),
		NoteID:    noteID,
		UserID:    authUser.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.content.CreateComment(r.Context(), comment); err != nil {
		log.Printf("[api] CreateComment error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create comment")
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// ListComments 评论列表（公开），批量解析作者投影
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.content.ListCommentsByNote(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[api] ListComments error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list comments")
		return
	}

	views, err := h.resolver.CommentViews(r.Context(), comments)
	if err != nil {
		log.Printf("[api] ListComments resolve error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list comments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"comments": views})
}

// UpdateComment 编辑评论（作者或管理员）
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	comment, err := h.content.GetComment(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[api] UpdateComment error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if comment == nil {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}

	if !authz.CanMutate(actorFrom(r), comment.UserID) {
		writeError(w, http.StatusForbidden, "not allowed to modify this comment")
		return
	}

	if err := h.content.UpdateComment(r.Context(), comment.ID, req.Content); err != nil {
		log.Printf("[api] UpdateComment error: %v", err)
		writeStoreError(w, err, "comment not found")
		return
	}

	comment.Content = req.Content
	writeJSON(w, http.StatusOK, comment)
}

// DeleteComment 删除评论（作者或管理员）
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	comment, err := h.content.GetComment(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[api] DeleteComment error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if comment == nil {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}

	if !authz.CanMutate(actorFrom(r), comment.UserID) {
		writeError(w, http.StatusForbidden, "not allowed to delete this comment")
		return
	}

	if err := h.content.DeleteComment(r.Context(), comment.ID); err != nil {
		log.Printf("[api] DeleteComment error: %v", err)
		writeStoreError(w, err, "comment not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}
