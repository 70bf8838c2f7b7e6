package api

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"noteshare/internal/auth"
	"noteshare/internal/authz"
	"noteshare/internal/model"
	"noteshare/internal/objstore"
)

// maxUploadSize 附件大小上限
const maxUploadSize = 32 << 20 // 32 MiB

// actorFrom 取当前请求的鉴权主体，匿名返回 nil
func actorFrom(r *http.Request) *authz.Actor {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		return nil
	}
	return &authz.Actor{ID: user.ID, Role: user.Role}
}

// ListNotes 列出笔记，最新在前，附所有者投影
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.content.ListNotes(r.Context())
	if err != nil {
		log.Printf("[api] ListNotes error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}

	views, err := h.resolver.NoteViews(r.Context(), notes)
	if err != nil {
		log.Printf("[api] ListNotes resolve error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": views})
}

// SearchNotes 子串搜索（大小写不敏感，作用于标题和正文）
func (h *Handler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	notes, err := h.content.SearchNotes(r.Context(), query)
	if err != nil {
		log.Printf("[api] SearchNotes error: %v", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	views, err := h.resolver.NoteViews(r.Context(), notes)
	if err != nil {
		log.Printf("[api] SearchNotes resolve error: %v", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": views})
}

// GetNote 获取笔记详情，附所有者投影
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.content.GetNote(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[api] GetNote error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	view, err := h.resolver.NoteView(r.Context(), note)
	if err != nil {
		log.Printf("[api] GetNote resolve error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// CreateNote 创建笔记（multipart：title、content、file）
//
// owner_id 取自已认证调用方，写入一次，之后不可变。
// 附件先落对象存储，拿到 key 再插笔记；插入失败时回收已上传的对象。
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := r.FormValue("title")
	content := r.FormValue("content")
	if title == "" || content == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !objstore.AllowedType(contentType) {
		writeError(w, http.StatusBadRequest, "only PDF, PNG, JPEG, PPT, PPTX files are allowed")
		return
	}

	key := objstore.ObjectKey(header.Filename)
	if err := h.blobs.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		log.Printf("[api] CreateNote upload error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	now := time.Now()
	note := &model.Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		FileKey:   key,
		FileType:  contentType,
		OwnerID:   authUser.ID,
		Ratings:   []model.Rating{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.content.CreateNote(r.Context(), note); err != nil {
		log.Printf("[api] CreateNote error: %v", err)
		if delErr := h.blobs.Delete(r.Context(), key); delErr != nil {
			log.Printf("[api] CreateNote blob cleanup error: %v", delErr)
		}
		writeError(w, http.StatusInternalServerError, "failed to create note")
		return
	}

	log.Printf("[api] Note created: %s by %s", note.ID, authUser.ID)
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote 更新笔记（所有者或管理员）
//
// 文件部分可选：提供时新附件先落存储，替换成功后删除旧附件。
// 标题/正文只在非空时覆盖。owner_id 不可变。
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.content.GetNote(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[api] UpdateNote error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	if !authz.CanMutate(actorFrom(r), note.OwnerID) {
		writeError(w, http.StatusForbidden, "not allowed to modify this note")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	oldKey := ""
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !objstore.AllowedType(contentType) {
			writeError(w, http.StatusBadRequest, "only PDF, PNG, JPEG, PPT, PPTX files are allowed")
			return
		}

		key := objstore.ObjectKey(header.Filename)
		if err := h.blobs.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
			log.Printf("[api] UpdateNote upload error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to store file")
			return
		}
		oldKey = note.FileKey
		note.FileKey = key
		note.FileType = contentType
	}

	if title := r.FormValue("title"); title != "" {
		note.Title = title
	}
	if content := r.FormValue("content"); content != "" {
		note.Content = content
	}

	if err := h.content.UpdateNote(r.Context(), note); err != nil {
		log.Printf("[api] UpdateNote error: %v", err)
		writeStoreError(w, err, "note not found")
		return
	}

	if oldKey != "" {
		if err := h.blobs.Delete(r.Context(), oldKey); err != nil {
			log.Printf("[api] UpdateNote old blob delete error: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, note)
}

// DeleteNote 删除笔记（所有者或管理员），释放附件
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.content.GetNote(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[api] DeleteNote error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	if !authz.CanMutate(actorFrom(r), note.OwnerID) {
		writeError(w, http.StatusForbidden, "not allowed to delete this note")
		return
	}

	if err := h.content.DeleteNote(r.Context(), note.ID); err != nil {
		log.Printf("[api] DeleteNote error: %v", err)
		writeStoreError(w, err, "note not found")
		return
	}

	// 附件删除幂等，失败只记日志，不影响删除结果
	if err := h.blobs.Delete(r.Context(), note.FileKey); err != nil {
		log.Printf("[api] DeleteNote blob delete error: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "note deleted"})
}

// DownloadFile 下载附件，按存储时的 MIME 类型回流
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	obj, contentType, err := h.blobs.Download(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer obj.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, obj); err != nil {
		log.Printf("[api] DownloadFile stream error: %v", err)
	}
}
