package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"noteshare/internal/auth"
	"noteshare/internal/model"
	"noteshare/internal/storage"
)

type rateRequest struct {
	Value int `json:"value"`
}

func (r rateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Value, validation.Required, validation.Min(1), validation.Max(5)),
	)
}

// RateNote 提交或覆盖评分
//
// 登录即可，不要求所有权——给别人的笔记打分正是用途。
// 同一评分人重复提交是覆盖而不是追加，存储层保证原子的匹配更新。
// 越界值在任何存储调用之前拒绝，不产生部分状态。
func (h *Handler) RateNote(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "rating value must be between 1 and 5")
		return
	}

	noteID := r.PathValue("id")
	if err := h.content.UpsertRating(r.Context(), noteID, authUser.ID, req.Value); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		log.Printf("[api] RateNote error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to rate note")
		return
	}

	// 返回最新聚合
	note, err := h.content.GetNote(r.Context(), noteID)
	if err != nil || note == nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": "rating recorded"})
		return
	}
	writeJSON(w, http.StatusOK, model.AverageRating(note.Ratings))
}

// GetRating 评分聚合（公开）
// 没有任何评分时返回 average=0, count=0
func (h *Handler) GetRating(w http.ResponseWriter, r *http.Request) {
	note, err := h.content.GetNote(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[api] GetRating error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	writeJSON(w, http.StatusOK, model.AverageRating(note.Ratings))
}
